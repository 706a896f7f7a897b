package controller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rusenback/docker-console/internal/controller"
	"github.com/rusenback/docker-console/internal/directory"
	"github.com/rusenback/docker-console/internal/model"
	"github.com/rusenback/docker-console/internal/session"
	"github.com/rusenback/docker-console/internal/stream"
	"github.com/rusenback/docker-console/internal/stream/streamtest"
)

type stubLister struct {
	mu         sync.Mutex
	containers []model.Container
	err        error
}

func (s *stubLister) ListContainers(ctx context.Context) ([]model.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.containers, s.err
}

func (s *stubLister) set(containers ...model.Container) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containers = containers
}

type recordingSession struct {
	starts []string
	closes int
}

func (r *recordingSession) Start(ctx context.Context, target string) {
	r.starts = append(r.starts, target)
}

func (r *recordingSession) Reconnect(ctx context.Context) error {
	if len(r.starts) == 0 {
		return session.ErrNoTarget
	}
	r.starts = append(r.starts, r.starts[len(r.starts)-1])
	return nil
}

func (r *recordingSession) Close() {
	r.closes++
}

func newController(lister *stubLister, filter directory.Filter, s controller.Session) *controller.Controller {
	return controller.New(controller.Config{
		Name:      "test",
		Directory: directory.New(lister),
		Filter:    filter,
		Session:   s,
	})
}

func TestController_MountStartsDefault(t *testing.T) {
	lister := &stubLister{}
	lister.set(
		model.Container{Name: "a", State: model.StateExited},
		model.Container{Name: "b", State: model.StateRunning},
	)
	rec := &recordingSession{}
	c := newController(lister, directory.All, rec)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if c.Selected() != "b" {
		t.Errorf("expected default b, got %q", c.Selected())
	}
	if len(rec.starts) != 1 || rec.starts[0] != "b" {
		t.Errorf("unexpected starts: %v", rec.starts)
	}
	if len(c.Containers()) != 2 {
		t.Errorf("expected both containers listed, got %d", len(c.Containers()))
	}
}

func TestController_ExecFiltersRunning(t *testing.T) {
	lister := &stubLister{}
	lister.set(
		model.Container{Name: "a", State: model.StateExited},
		model.Container{Name: "b", State: model.StateRunning},
	)
	rec := &recordingSession{}
	c := newController(lister, directory.RunningOnly, rec)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := c.Select(context.Background(), "a"); !errors.Is(err, controller.ErrUnknownTarget) {
		t.Errorf("expected exited container to be unselectable, got %v", err)
	}
	if len(rec.starts) != 1 {
		t.Errorf("expected only the default start, got %v", rec.starts)
	}
}

func TestController_EmptyDirectory(t *testing.T) {
	lister := &stubLister{}
	rec := &recordingSession{}
	c := newController(lister, directory.All, rec)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if !c.Empty() {
		t.Error("expected empty state")
	}
	if len(rec.starts) != 0 {
		t.Errorf("expected no connection attempt, got %v", rec.starts)
	}

	lister.set(model.Container{Name: "late", State: model.StateRunning})
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if c.Empty() || c.Selected() != "late" {
		t.Errorf("expected refresh to pick up late, got selected %q", c.Selected())
	}
}

func TestController_FetchError(t *testing.T) {
	boom := errors.New("daemon unreachable")
	lister := &stubLister{err: boom}
	rec := &recordingSession{}
	c := newController(lister, directory.All, rec)

	if err := c.Mount(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected fetch error, got %v", err)
	}
	if c.Empty() {
		t.Error("a failed fetch is not an empty directory")
	}
	if !errors.Is(c.Err(), boom) {
		t.Errorf("expected Err to keep fetch error, got %v", c.Err())
	}
	if len(rec.starts) != 0 {
		t.Errorf("expected no connection attempt, got %v", rec.starts)
	}
}

func TestController_RefreshKeepsSession(t *testing.T) {
	lister := &stubLister{}
	lister.set(model.Container{Name: "a", State: model.StateRunning})
	rec := &recordingSession{}
	c := newController(lister, directory.All, rec)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	lister.set(
		model.Container{Name: "a", State: model.StateRunning},
		model.Container{Name: "b", State: model.StateRunning},
	)
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if len(rec.starts) != 1 || rec.closes != 0 {
		t.Errorf("refresh touched the session: starts=%v closes=%d", rec.starts, rec.closes)
	}
	if len(c.Containers()) != 2 {
		t.Errorf("expected refreshed listing, got %d", len(c.Containers()))
	}
}

func TestController_UnmountCloses(t *testing.T) {
	lister := &stubLister{}
	lister.set(model.Container{Name: "a", State: model.StateRunning})
	rec := &recordingSession{}
	c := newController(lister, directory.All, rec)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	c.Unmount()
	if rec.closes != 1 {
		t.Errorf("expected one close, got %d", rec.closes)
	}
}

func TestController_SwitchTargetEndToEnd(t *testing.T) {
	lister := &stubLister{}
	lister.set(
		model.Container{Name: "a", State: model.StateExited},
		model.Container{Name: "b", State: model.StateRunning},
	)
	dialer := streamtest.NewDialer()
	tail := session.NewLogTail(stream.NewTransport(dialer, nil), session.LogTailConfig{})
	c := newController(lister, directory.All, tail)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	defer c.Unmount()

	if !streamtest.WaitFor(time.Second, func() bool { return tail.State() == session.StateConnected }) {
		t.Fatalf("log tail never connected, state %s", tail.State())
	}
	connB := dialer.Last()
	connB.Push(stream.Message{Type: stream.MessageTypeLog, Data: "from b"})
	if !streamtest.WaitFor(time.Second, func() bool { return tail.Len() == 1 }) {
		t.Fatal("line from b never arrived")
	}

	if err := c.Select(context.Background(), "a"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !connB.Closed() {
		t.Error("expected transport to b closed")
	}
	if tail.Len() != 0 {
		t.Errorf("expected buffer cleared before first message from a, got %d", tail.Len())
	}

	if !streamtest.WaitFor(time.Second, func() bool { return tail.State() == session.StateConnected }) {
		t.Fatalf("log tail never reconnected, state %s", tail.State())
	}
	dials := dialer.Dials()
	if len(dials) != 2 || dials[0].Target != "b" || dials[1].Target != "a" {
		t.Errorf("expected dials [b a], got %+v", dials)
	}
	if dials[1].Conn.Closed() {
		t.Error("new transport to a should be open")
	}
}

func TestController_SharedDirectoryIndependentListings(t *testing.T) {
	lister := &stubLister{}
	lister.set(
		model.Container{Name: "a", State: model.StateExited},
		model.Container{Name: "b", State: model.StateRunning},
	)
	dir := directory.New(lister)
	logsRec, execRec := &recordingSession{}, &recordingSession{}
	logs := controller.New(controller.Config{Name: "logs", Directory: dir, Filter: directory.All, Session: logsRec})
	exec := controller.New(controller.Config{Name: "exec", Directory: dir, Filter: directory.RunningOnly, Session: execRec})

	if err := logs.Mount(context.Background()); err != nil {
		t.Fatalf("logs Mount: %v", err)
	}
	if err := exec.Refresh(context.Background()); err != nil {
		t.Fatalf("exec Refresh: %v", err)
	}

	if len(exec.Containers()) != 1 {
		t.Errorf("expected exec listing [b], got %+v", exec.Containers())
	}
	if len(logs.Containers()) != 2 {
		t.Errorf("expected logs listing untouched, got %+v", logs.Containers())
	}
	if err := logs.Select(context.Background(), "a"); err != nil {
		t.Fatalf("selecting an exited container for logs: %v", err)
	}
	if got := logsRec.starts; len(got) != 2 || got[1] != "a" {
		t.Errorf("expected logs starts [b a], got %v", got)
	}
	if len(execRec.starts) != 0 {
		t.Errorf("unmounted exec controller started a session: %v", execRec.starts)
	}
}

func TestController_NoStartAfterUnmount(t *testing.T) {
	lister := &stubLister{}
	lister.set(
		model.Container{Name: "a", State: model.StateRunning},
		model.Container{Name: "b", State: model.StateRunning},
	)
	rec := &recordingSession{}
	c := newController(lister, directory.All, rec)

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	c.Unmount()

	if err := c.Select(context.Background(), "b"); !errors.Is(err, controller.ErrNotMounted) {
		t.Errorf("expected ErrNotMounted from Select, got %v", err)
	}
	if err := c.Reconnect(context.Background()); !errors.Is(err, controller.ErrNotMounted) {
		t.Errorf("expected ErrNotMounted from Reconnect, got %v", err)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if len(rec.starts) != 1 || rec.closes != 1 {
		t.Errorf("expected starts=[a] closes=1, got starts=%v closes=%d", rec.starts, rec.closes)
	}
	if c.Selected() != "a" {
		t.Errorf("selection changed after unmount: %q", c.Selected())
	}
}

func TestController_ConcurrentSelectAndUnmount(t *testing.T) {
	lister := &stubLister{}
	lister.set(
		model.Container{Name: "a", State: model.StateRunning},
		model.Container{Name: "b", State: model.StateRunning},
	)
	dialer := streamtest.NewDialer()
	tail := session.NewLogTail(stream.NewTransport(dialer, nil), session.LogTailConfig{})
	c := newController(lister, directory.All, tail)

	for i := 0; i < 50; i++ {
		if err := c.Mount(context.Background()); err != nil {
			t.Fatalf("Mount: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Select(context.Background(), "b")
		}()
		go func() {
			defer wg.Done()
			c.Unmount()
		}()
		wg.Wait()
		c.Unmount()

		for _, d := range dialer.Dials() {
			if d.Conn != nil && !streamtest.WaitFor(time.Second, d.Conn.Closed) {
				t.Fatalf("iteration %d: stream to %s left open after unmount", i, d.Target)
			}
		}
	}
}
