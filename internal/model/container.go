package model

// ContainerState is the run state reported by the runtime.
type ContainerState string

const (
	StateRunning ContainerState = "running"
	StateExited  ContainerState = "exited"
)

// Container represents one container known to the runtime
type Container struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Image  string         `json:"image,omitempty"`
	State  ContainerState `json:"state"`
	Status string         `json:"status,omitempty"`
	Health string         `json:"health,omitempty"`
}

// Running reports whether the container can host an exec session
func (c Container) Running() bool {
	return c.State == StateRunning
}

// DisplayName returns the name shown in lists, falling back to the ID
func (c Container) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}
