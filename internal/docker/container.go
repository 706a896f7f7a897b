// internal/docker/container.go
package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/rusenback/docker-console/internal/model"
)

// ListContainers palauttaa kaikki containerit (running + stopped)
func (c *Client) ListContainers(ctx context.Context) ([]model.Container, error) {
	containers, err := c.api.ContainerList(ctx, container.ListOptions{
		All: true, // Näytä myös pysäytetyt
	})
	if err != nil {
		return nil, fmt.Errorf("docker container list: %w", err)
	}

	result := make([]model.Container, 0, len(containers))
	for _, cont := range containers {
		result = append(result, toModel(cont))
	}
	return result, nil
}

func toModel(cont types.Container) model.Container {
	// Poista "/" container nimen alusta
	name := ""
	if len(cont.Names) > 0 {
		name = strings.TrimPrefix(cont.Names[0], "/")
	}

	id := cont.ID
	if len(id) > 12 {
		id = id[:12] // Lyhyt ID
	}

	return model.Container{
		ID:     id,
		Name:   name,
		Image:  cont.Image,
		State:  model.ContainerState(cont.State),
		Status: cont.Status,
		Health: healthFromStatus(cont.Status),
	}
}

// healthFromStatus reads the health suffix Docker appends to the status
// text, e.g. "Up 3 hours (healthy)".
func healthFromStatus(status string) string {
	open := strings.LastIndexByte(status, '(')
	if open < 0 || !strings.HasSuffix(status, ")") {
		return ""
	}
	health := status[open+1 : len(status)-1]
	health = strings.TrimPrefix(health, "health: ")
	switch health {
	case "healthy", "unhealthy", "starting":
		return health
	}
	return ""
}
