// Package config loads docker-console settings from defaults, environment
// variables and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/rusenback/docker-console/internal/buffer"
	"github.com/rusenback/docker-console/internal/docker"
	"github.com/rusenback/docker-console/internal/session"
)

// Backend selects where containers and streams come from.
type Backend string

const (
	BackendDocker Backend = "docker"
	BackendRemote Backend = "remote"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all settings for one run.
type Config struct {
	Backend Backend

	// Remote backend
	RemoteURL        string
	HandshakeTimeout time.Duration

	// Docker backend
	DockerHost  string
	TLSVerify   bool
	CertPath    string
	PingTimeout time.Duration
	ExecShell   string
	LogTail     int

	PausePolicy     session.PausePolicy
	ScrollbackBytes int

	LogFile  string
	LogLevel string
}

// Default returns the built-in settings.
func Default() Config {
	d := docker.DefaultConfig()
	return Config{
		Backend:          BackendDocker,
		RemoteURL:        "http://localhost:8080",
		HandshakeTimeout: 10 * time.Second,
		DockerHost:       d.Host,
		PingTimeout:      d.Timeout,
		ExecShell:        strings.Join(d.ExecCommand, " "),
		LogTail:          d.Tail,
		PausePolicy:      session.PauseDrop,
		ScrollbackBytes:  buffer.DefaultScrollback,
		LogLevel:         "info",
	}
}

// Load builds a Config from defaults, the environment looked up through
// getenv, and args. A nil getenv uses os.Getenv.
func Load(args []string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Default()
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := pflag.NewFlagSet("dockerconsole", pflag.ContinueOnError)
	cfg.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return Config{}, fmt.Errorf("%w: unexpected argument %q", ErrInvalid, rest[0])
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AddFlags registers a flag for every setting, defaulting to the current
// values of cfg.
func (cfg *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar((*string)(&cfg.Backend), "backend", string(cfg.Backend), "container backend: docker or remote")
	fs.StringVar(&cfg.RemoteURL, "url", cfg.RemoteURL, "base URL of the remote backend")
	fs.DurationVar(&cfg.HandshakeTimeout, "handshake-timeout", cfg.HandshakeTimeout, "websocket handshake timeout for the remote backend (0 = none)")
	fs.StringVar(&cfg.DockerHost, "docker-host", cfg.DockerHost, "Docker daemon address")
	fs.BoolVar(&cfg.TLSVerify, "tls-verify", cfg.TLSVerify, "use TLS and verify the Docker daemon")
	fs.StringVar(&cfg.CertPath, "cert-path", cfg.CertPath, "directory holding ca.pem, cert.pem and key.pem")
	fs.DurationVar(&cfg.PingTimeout, "timeout", cfg.PingTimeout, "timeout for the initial Docker ping")
	fs.StringVar(&cfg.ExecShell, "shell", cfg.ExecShell, "command run for exec sessions")
	fs.IntVar(&cfg.LogTail, "tail", cfg.LogTail, "lines of Docker log history shown when a log stream opens")
	fs.StringVar((*string)(&cfg.PausePolicy), "pause", string(cfg.PausePolicy), "what paused log tails do with new lines: drop or hold")
	fs.IntVar(&cfg.ScrollbackBytes, "scrollback", cfg.ScrollbackBytes, "terminal scrollback size in bytes")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file (default: discard)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
}

func (cfg *Config) applyEnv(getenv func(string) string) error {
	cfg.Backend = Backend(getEnv(getenv, "DOCKERCONSOLE_BACKEND", string(cfg.Backend)))
	cfg.RemoteURL = getEnv(getenv, "DOCKERCONSOLE_URL", cfg.RemoteURL)
	cfg.DockerHost = getEnv(getenv, "DOCKER_HOST", cfg.DockerHost)
	cfg.CertPath = getEnv(getenv, "DOCKER_CERT_PATH", cfg.CertPath)
	cfg.ExecShell = getEnv(getenv, "DOCKERCONSOLE_SHELL", cfg.ExecShell)
	cfg.PausePolicy = session.PausePolicy(getEnv(getenv, "DOCKERCONSOLE_PAUSE", string(cfg.PausePolicy)))
	cfg.LogFile = getEnv(getenv, "DOCKERCONSOLE_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = getEnv(getenv, "DOCKERCONSOLE_LOG_LEVEL", cfg.LogLevel)

	if v := getenv("DOCKER_TLS_VERIFY"); v != "" {
		// Docker treats any non-empty value as enabled
		cfg.TLSVerify = v != "0" && !strings.EqualFold(v, "false")
	}
	if v := getenv("DOCKERCONSOLE_SCROLLBACK"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: DOCKERCONSOLE_SCROLLBACK: %v", ErrInvalid, err)
		}
		cfg.ScrollbackBytes = n
	}
	return nil
}

func getEnv(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks that the settings can be used.
func (cfg Config) Validate() error {
	switch cfg.Backend {
	case BackendDocker:
		if cfg.DockerHost == "" {
			return fmt.Errorf("%w: docker host is empty", ErrInvalid)
		}
		if cfg.TLSVerify && cfg.CertPath == "" {
			return fmt.Errorf("%w: --tls-verify needs --cert-path", ErrInvalid)
		}
	case BackendRemote:
		if cfg.RemoteURL == "" {
			return fmt.Errorf("%w: remote backend needs --url", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, cfg.Backend)
	}

	switch cfg.PausePolicy {
	case session.PauseDrop, session.PauseHold:
	default:
		return fmt.Errorf("%w: unknown pause policy %q", ErrInvalid, cfg.PausePolicy)
	}

	if cfg.LogTail <= 0 {
		return fmt.Errorf("%w: tail must be positive", ErrInvalid)
	}
	if cfg.ScrollbackBytes <= 0 {
		return fmt.Errorf("%w: scrollback must be positive", ErrInvalid)
	}
	if len(cfg.ExecCommand()) == 0 {
		return fmt.Errorf("%w: exec shell is empty", ErrInvalid)
	}
	if _, err := cfg.Level(); err != nil {
		return err
	}
	return nil
}

// ExecCommand splits ExecShell into argv.
func (cfg Config) ExecCommand() []string {
	return strings.Fields(cfg.ExecShell)
}

// Level parses LogLevel.
func (cfg Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, cfg.LogLevel)
	}
	return level, nil
}

// Docker returns the settings for the Docker backend.
func (cfg Config) Docker(logger *slog.Logger) docker.Config {
	return docker.Config{
		Host:        cfg.DockerHost,
		TLSVerify:   cfg.TLSVerify,
		CertPath:    cfg.CertPath,
		Timeout:     cfg.PingTimeout,
		ExecCommand: cfg.ExecCommand(),
		Tail:        cfg.LogTail,
		Logger:      logger,
	}
}
