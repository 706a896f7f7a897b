package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rusenback/docker-console/internal/model"
)

type stubLister struct {
	containers []model.Container
	err        error
	calls      int
}

func (s *stubLister) ListContainers(ctx context.Context) ([]model.Container, error) {
	s.calls++
	return s.containers, s.err
}

func c(name string, state model.ContainerState) model.Container {
	return model.Container{ID: name + "-id", Name: name, State: state}
}

func TestDefaultTarget(t *testing.T) {
	tests := []struct {
		name       string
		containers []model.Container
		want       string
		wantErr    error
	}{
		{
			name:       "first running wins",
			containers: []model.Container{c("a", model.StateExited), c("b", model.StateRunning), c("c", model.StateRunning)},
			want:       "b",
		},
		{
			name:       "falls back to first",
			containers: []model.Container{c("a", model.StateExited), c("b", "restarting")},
			want:       "a",
		},
		{
			name:    "empty",
			wantErr: ErrEmptyDirectory,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DefaultTarget(tc.containers)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("DefaultTarget() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DefaultTarget(): %v", err)
			}
			if got.Name != tc.want {
				t.Errorf("DefaultTarget() = %s, want %s", got.Name, tc.want)
			}
		})
	}
}

func TestDirectory_ListFilters(t *testing.T) {
	lister := &stubLister{containers: []model.Container{
		c("a", model.StateExited),
		c("b", model.StateRunning),
		c("d", "paused"),
	}}
	d := New(lister)

	running, err := d.List(context.Background(), RunningOnly)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(running) != 1 || running[0].Name != "b" {
		t.Errorf("expected only b, got %+v", running)
	}

	all, err := d.List(context.Background(), All)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 containers, got %d", len(all))
	}
	if _, ok := d.Find("d"); !ok {
		t.Error("expected d in snapshot")
	}
}

func TestDirectory_ReplacesSnapshotWholesale(t *testing.T) {
	lister := &stubLister{containers: []model.Container{c("a", model.StateRunning), c("b", model.StateRunning)}}
	d := New(lister)

	if _, err := d.List(context.Background(), All); err != nil {
		t.Fatalf("List: %v", err)
	}

	lister.containers = []model.Container{c("c", model.StateRunning)}
	if _, err := d.List(context.Background(), All); err != nil {
		t.Fatalf("List: %v", err)
	}

	got := d.Containers()
	if len(got) != 1 || got[0].Name != "c" {
		t.Errorf("expected snapshot [c], got %+v", got)
	}
	if _, ok := d.Find("a"); ok {
		t.Error("stale container a still in snapshot")
	}
}

func TestDirectory_ListErrorKeepsSnapshot(t *testing.T) {
	lister := &stubLister{containers: []model.Container{c("a", model.StateRunning)}}
	d := New(lister)
	if _, err := d.List(context.Background(), All); err != nil {
		t.Fatalf("List: %v", err)
	}

	boom := errors.New("daemon unreachable")
	lister.err = boom
	if _, err := d.List(context.Background(), All); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if len(d.Containers()) != 1 {
		t.Error("expected previous snapshot to survive a failed fetch")
	}
}

func TestDefaultTargetProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genContainers := gen.SliceOf(gen.Bool()).Map(func(running []bool) []model.Container {
		out := make([]model.Container, len(running))
		for i, r := range running {
			state := model.StateExited
			if r {
				state = model.StateRunning
			}
			out[i] = model.Container{Name: string(rune('a' + i%26)), State: state}
		}
		return out
	})

	properties.Property("default is the first running container, else the first", prop.ForAll(
		func(containers []model.Container) bool {
			got, err := DefaultTarget(containers)
			if len(containers) == 0 {
				return errors.Is(err, ErrEmptyDirectory)
			}
			if err != nil {
				return false
			}
			for i, c := range containers {
				if c.Running() {
					return got == containers[i]
				}
			}
			return got == containers[0]
		},
		genContainers,
	))

	properties.Property("running filter keeps only running containers in order", prop.ForAll(
		func(containers []model.Container) bool {
			filtered := Apply(containers, RunningOnly)
			j := 0
			for _, c := range containers {
				if !c.Running() {
					continue
				}
				if j >= len(filtered) || filtered[j] != c {
					return false
				}
				j++
			}
			return j == len(filtered)
		},
		genContainers,
	))

	properties.TestingRun(t)
}

func TestDirectory_FilteredListKeepsFullSnapshot(t *testing.T) {
	lister := &stubLister{containers: []model.Container{c("a", model.StateExited), c("b", model.StateRunning)}}
	d := New(lister)

	running, err := d.List(context.Background(), RunningOnly)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(running) != 1 || running[0].Name != "b" {
		t.Errorf("expected [b], got %+v", running)
	}
	if len(d.Containers()) != 2 {
		t.Errorf("expected unfiltered snapshot, got %+v", d.Containers())
	}
	if _, ok := d.Find("a"); !ok {
		t.Error("exited container dropped from snapshot by a running-only list")
	}
}
