package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/docker/docker/client"
)

// DefaultTail is how many lines of history a log stream replays before
// following.
const DefaultTail = 1000

// Config sisältää Docker client konfiguraation
type Config struct {
	Host      string
	TLSVerify bool
	CertPath  string
	// Timeout bounds the initial ping only; streams have no deadline.
	Timeout time.Duration
	// ExecCommand is run inside the container for exec sessions.
	ExecCommand []string
	// Tail bounds the history replayed when a log stream opens. Zero uses
	// DefaultTail.
	Tail   int
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Host:        client.DefaultDockerHost,
		Timeout:     30 * time.Second,
		ExecCommand: []string{"/bin/sh"},
		Tail:        DefaultTail,
	}
}

// Client wrappaa Docker API clientin
type Client struct {
	api    Engine
	exec   []string
	tail   int
	logger *slog.Logger
}

// NewClient luo uuden Docker clientin ja tarkistaa yhteyden
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := []client.Opt{
		client.WithHost(cfg.Host),
		client.WithAPIVersionNegotiation(),
	}

	if cfg.TLSVerify {
		opts = append(opts, client.WithTLSClientConfig(
			filepath.Join(cfg.CertPath, "ca.pem"),
			filepath.Join(cfg.CertPath, "cert.pem"),
			filepath.Join(cfg.CertPath, "key.pem"),
		))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if _, err := cli.Ping(pingCtx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("ping docker at %s: %w", cfg.Host, err)
	}

	return newClient(cli, cfg), nil
}

// newClient wraps an Engine. Tests pass a fake here.
func newClient(api Engine, cfg Config) *Client {
	if len(cfg.ExecCommand) == 0 {
		cfg.ExecCommand = DefaultConfig().ExecCommand
	}
	if cfg.Tail <= 0 {
		cfg.Tail = DefaultTail
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		api:    api,
		exec:   cfg.ExecCommand,
		tail:   cfg.Tail,
		logger: cfg.Logger.With("backend", "docker"),
	}
}

// Close sulkee yhteyden
func (c *Client) Close() error {
	if c.api != nil {
		return c.api.Close()
	}
	return nil
}
