// Package directory keeps the list of containers a controller can target.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rusenback/docker-console/internal/model"
)

// ErrEmptyDirectory is returned when there is no container to select.
var ErrEmptyDirectory = errors.New("no containers available")

// Filter narrows a listing.
type Filter int

const (
	All Filter = iota
	RunningOnly
)

func (f Filter) String() string {
	if f == RunningOnly {
		return "running"
	}
	return "all"
}

// Lister fetches the containers known to a runtime.
type Lister interface {
	ListContainers(ctx context.Context) ([]model.Container, error)
}

// Directory holds the last listing fetched from a Lister.
type Directory struct {
	lister Lister

	mu         sync.RWMutex
	containers []model.Container
}

// New creates an empty Directory backed by lister.
func New(lister Lister) *Directory {
	return &Directory{lister: lister}
}

// List fetches every container, replaces the snapshot with the full result
// and returns the containers matching filter. The snapshot is never filtered,
// so callers with different filters do not see each other's view. On error
// the previous snapshot is kept.
func (d *Directory) List(ctx context.Context, filter Filter) ([]model.Container, error) {
	all, err := d.lister.ListContainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	all = Snapshot(all)

	d.mu.Lock()
	d.containers = all
	d.mu.Unlock()

	return Apply(all, filter), nil
}

// Containers returns a copy of the current unfiltered snapshot.
func (d *Directory) Containers() []model.Container {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot(d.containers)
}

// Find returns the container with the given name from the snapshot.
func (d *Directory) Find(name string) (model.Container, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.containers {
		if c.Name == name {
			return c, true
		}
	}
	return model.Container{}, false
}

// Apply returns the containers that pass filter, in their original order.
func Apply(containers []model.Container, filter Filter) []model.Container {
	out := make([]model.Container, 0, len(containers))
	for _, c := range containers {
		if filter == RunningOnly && !c.Running() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// DefaultTarget picks the first running container, else the first one.
func DefaultTarget(containers []model.Container) (model.Container, error) {
	if len(containers) == 0 {
		return model.Container{}, ErrEmptyDirectory
	}
	for _, c := range containers {
		if c.Running() {
			return c, nil
		}
	}
	return containers[0], nil
}

// Snapshot copies containers.
func Snapshot(containers []model.Container) []model.Container {
	if containers == nil {
		return nil
	}
	out := make([]model.Container, len(containers))
	copy(out, containers)
	return out
}
