// cmd/dockerconsole/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/rusenback/docker-console/internal/backend"
	"github.com/rusenback/docker-console/internal/config"
	"github.com/rusenback/docker-console/internal/controller"
	"github.com/rusenback/docker-console/internal/directory"
	"github.com/rusenback/docker-console/internal/docker"
	"github.com/rusenback/docker-console/internal/session"
	"github.com/rusenback/docker-console/internal/stream"
	"github.com/rusenback/docker-console/internal/tui"
)

// directoryRefresh is how often the container list is re-fetched.
const directoryRefresh = 5 * time.Second

// runtime is a container source that can also open streams.
type runtime interface {
	directory.Lister
	stream.Dialer
	Close() error
}

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:], nil)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	rt, err := connect(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	logger.Info("starting", "backend", string(cfg.Backend))

	changes := tui.NewNotifier()
	term := tui.NewTerminal(cfg.ScrollbackBytes)
	transport := stream.NewTransport(rt, logger)
	dir := directory.New(rt)

	logs := session.NewLogTail(transport, session.LogTailConfig{
		PausePolicy: cfg.PausePolicy,
		Logger:      logger,
		OnChange:    changes.Notify,
	})
	exec := session.NewExec(transport, term, session.ExecConfig{
		Logger:   logger,
		OnChange: changes.Notify,
	})

	m := tui.NewModel(tui.Options{
		Logs: logs,
		LogsCtrl: controller.New(controller.Config{
			Name:      "logs",
			Directory: dir,
			Filter:    directory.All,
			Session:   logs,
			Logger:    logger,
		}),
		Exec: exec,
		ExecCtrl: controller.New(controller.Config{
			Name:      "exec",
			Directory: dir,
			Filter:    directory.RunningOnly,
			Session:   exec,
			Logger:    logger,
		}),
		Terminal: term,
		Changes:  changes,
		Logger:   logger,
		Refresh:  directoryRefresh,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// connect opens the configured backend
func connect(cfg config.Config, logger *slog.Logger) (runtime, error) {
	switch cfg.Backend {
	case config.BackendRemote:
		client, err := backend.NewClient(backend.Config{
			BaseURL:          cfg.RemoteURL,
			HandshakeTimeout: cfg.HandshakeTimeout,
			Logger:           logger,
		})
		if err != nil {
			return nil, fmt.Errorf("remote backend: %w", err)
		}
		return client, nil

	default:
		client, err := docker.NewClient(context.Background(), cfg.Docker(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Docker: %w\n\nMake sure Docker is running:\n"+
				"  sudo systemctl start docker\n"+
				"  sudo usermod -aG docker $USER", err)
		}
		return client, nil
	}
}

// newLogger writes JSON records to the configured log file. The terminal
// belongs to the UI, so without a file records are discarded.
func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }, nil
}
