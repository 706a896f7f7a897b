// Package controller binds a container directory to one session per tab.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rusenback/docker-console/internal/directory"
	"github.com/rusenback/docker-console/internal/model"
)

var (
	// ErrUnknownTarget is returned by Select for a name not in the listing.
	ErrUnknownTarget = errors.New("unknown container")
	// ErrNotMounted is returned when a session is requested on an unmounted
	// controller.
	ErrNotMounted = errors.New("controller not mounted")
)

// Session is the part of a log tail or exec session the controller drives.
type Session interface {
	Start(ctx context.Context, target string)
	Reconnect(ctx context.Context) error
	Close()
}

// Config holds configuration for a Controller.
type Config struct {
	// Name labels the controller in logs, e.g. "logs" or "exec".
	Name      string
	Directory *directory.Directory
	Filter    directory.Filter
	Session   Session
	Logger    *slog.Logger
}

// Controller owns the target selection for one session.
type Controller struct {
	dir     *directory.Directory
	filter  directory.Filter
	session Session
	logger  *slog.Logger

	// life serializes session starts against Unmount.
	life sync.Mutex

	mu         sync.Mutex
	containers []model.Container
	selected   string
	mounted    bool
	err        error
}

// New creates an unmounted Controller.
func New(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		dir:     cfg.Directory,
		filter:  cfg.Filter,
		session: cfg.Session,
		logger:  cfg.Logger.With("controller", cfg.Name),
	}
}

// Mount lists the directory and starts a session on the default target.
// An empty directory is not an error; Empty reports it and no connection
// is attempted.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()

	containers, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	c.startDefault(ctx, containers)
	return nil
}

// Select starts the session on name, tearing down the current one. The name
// must be in this controller's own listing.
func (c *Controller) Select(ctx context.Context, name string) error {
	c.mu.Lock()
	known := false
	for _, container := range c.containers {
		if container.Name == name {
			known = true
			break
		}
	}
	c.mu.Unlock()
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}

	if err := c.start(ctx, name); err != nil {
		return err
	}
	c.logger.Info("target selected", "target", name)
	return nil
}

// Refresh re-fetches the directory without touching the running session.
// If nothing was selected yet, the default target is started.
func (c *Controller) Refresh(ctx context.Context) error {
	containers, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	idle := c.mounted && c.selected == ""
	c.mu.Unlock()

	if idle {
		c.startDefault(ctx, containers)
	}
	return nil
}

// Reconnect restarts the session on the current target.
func (c *Controller) Reconnect(ctx context.Context) error {
	c.life.Lock()
	defer c.life.Unlock()

	if !c.isMounted() {
		return ErrNotMounted
	}
	return c.session.Reconnect(ctx)
}

// Unmount closes the session. No session is started on the controller until
// the next Mount.
func (c *Controller) Unmount() {
	c.life.Lock()
	defer c.life.Unlock()

	c.mu.Lock()
	c.mounted = false
	c.mu.Unlock()

	c.session.Close()
	c.logger.Debug("unmounted")
}

// Containers returns the last fetched listing.
func (c *Controller) Containers() []model.Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	return directory.Snapshot(c.containers)
}

// Selected returns the current target name, or "" if none.
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Empty reports whether the last listing had no eligible containers.
func (c *Controller) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err == nil && len(c.containers) == 0
}

// Err returns the error from the last directory fetch.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Filter returns the listing filter of this controller.
func (c *Controller) Filter() directory.Filter {
	return c.filter
}

func (c *Controller) fetch(ctx context.Context) ([]model.Container, error) {
	containers, err := c.dir.List(ctx, c.filter)

	c.mu.Lock()
	c.err = err
	if err == nil {
		c.containers = containers
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("directory fetch failed", "error", err)
		return nil, err
	}
	c.logger.Debug("directory fetched", "filter", c.filter.String(), "count", len(containers))
	return containers, nil
}

func (c *Controller) startDefault(ctx context.Context, containers []model.Container) {
	target, err := directory.DefaultTarget(containers)
	if err != nil {
		c.logger.Info("no target available", "filter", c.filter.String())
		return
	}

	if err := c.start(ctx, target.Name); err != nil {
		c.logger.Debug("default target skipped", "target", target.Name, "error", err)
		return
	}
	c.logger.Info("default target selected", "target", target.Name)
}

// start records name as selected and starts the session, unless the
// controller was unmounted. Session.Start must not block; it runs with life
// held.
func (c *Controller) start(ctx context.Context, name string) error {
	c.life.Lock()
	defer c.life.Unlock()

	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return ErrNotMounted
	}
	c.selected = name
	c.mu.Unlock()

	c.session.Start(ctx, name)
	return nil
}

func (c *Controller) isMounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}
