package backend

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/rusenback/docker-console/internal/stream"
)

// ParseBase validates a backend base URL such as http://host:8080.
func ParseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrBadURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrBadURL)
	}
	return u, nil
}

// ListURL returns the directory endpoint under base.
func ListURL(base *url.URL) string {
	u := *base
	u.Path = path.Join(u.Path, "/api/containers")
	return u.String()
}

// StreamURL derives the websocket endpoint for a container stream. The
// scheme follows the base: http becomes ws, https becomes wss.
func StreamURL(base *url.URL, name string, mode stream.Mode) string {
	u := *base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = path.Join(u.Path, "/api/containers", name, string(mode))
	u.RawPath = ""
	return u.String()
}
