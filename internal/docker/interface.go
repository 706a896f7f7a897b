// Package docker adapts a local Docker Engine to the container directory and
// stream transport contracts.
package docker

import (
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/rusenback/docker-console/internal/directory"
	"github.com/rusenback/docker-console/internal/stream"
)

// Engine is the subset of the Docker API client used here. It allows mocking
// in tests.
type Engine interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerExecCreate(ctx context.Context, containerID string, config types.ExecConfig) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, config types.ExecStartCheck) (types.HijackedResponse, error)
	ContainerExecResize(ctx context.Context, execID string, options container.ResizeOptions) error
	Close() error
}

// Varmista että Client toteuttaa interfacet
var (
	_ directory.Lister = (*Client)(nil)
	_ stream.Dialer    = (*Client)(nil)
)
