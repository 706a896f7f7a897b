// Package backend talks to the dashboard backend: the container directory
// over HTTP and log/exec streams over websocket.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rusenback/docker-console/internal/model"
	"github.com/rusenback/docker-console/internal/stream"
)

// Config holds the remote backend configuration.
type Config struct {
	BaseURL string
	// HandshakeTimeout bounds the websocket upgrade. Zero means no limit.
	HandshakeTimeout time.Duration
	HTTPClient       *http.Client
	Logger           *slog.Logger
}

// Client is a directory Lister and a stream Dialer for one backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	dialer *websocket.Dialer
	logger *slog.Logger
}

// NewClient creates a Client for cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	base, err := ParseBase(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		base: base,
		http: cfg.HTTPClient,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		logger: cfg.Logger.With("backend", base.Host),
	}, nil
}

// ListContainers fetches the container directory.
func (c *Client) ListContainers(ctx context.Context) ([]model.Container, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ListURL(c.base), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var containers []model.Container
	if err := json.NewDecoder(resp.Body).Decode(&containers); err != nil {
		return nil, fmt.Errorf("decode container list: %w", err)
	}

	c.logger.Debug("listed containers", "count", len(containers))
	return containers, nil
}

// Dial opens a websocket stream to the named container.
func (c *Client) Dial(ctx context.Context, target string, mode stream.Mode) (stream.Conn, error) {
	endpoint := StreamURL(c.base, target, mode)

	ws, resp, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w", endpoint, &StatusError{Code: resp.StatusCode})
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c.logger.Debug("stream opened", "url", endpoint)
	return newWSConn(ws, c.logger.With("target", target, "mode", string(mode))), nil
}

var (
	_ stream.Dialer = (*Client)(nil)
)

// Close releases idle HTTP connections. Open streams are closed by their
// handles.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
