// internal/docker/logs.go
package docker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/rusenback/docker-console/internal/stream"
)

// ErrReadOnly is returned when writing to a log stream.
var ErrReadOnly = errors.New("log stream is read-only")

// Dial opens a log or exec stream to the named container.
func (c *Client) Dial(ctx context.Context, target string, mode stream.Mode) (stream.Conn, error) {
	switch mode {
	case stream.ModeLogs:
		return c.openLogs(ctx, target)
	case stream.ModeExec:
		return c.openExec(ctx, target)
	default:
		return nil, fmt.Errorf("unsupported stream mode %q", mode)
	}
}

func (c *Client) openLogs(ctx context.Context, target string) (stream.Conn, error) {
	// TTY containers send raw output, others use the multiplexed framing
	info, err := c.api.ContainerInspect(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", target, err)
	}
	tty := info.Config != nil && info.Config.Tty

	ctx, cancel := context.WithCancel(ctx)
	options := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
		Follow:     true, // Stream logs continuously
		Tail:       strconv.Itoa(c.tail),
	}

	body, err := c.api.ContainerLogs(ctx, target, options)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("logs %s: %w", target, err)
	}

	c.logger.Debug("log stream opened", "target", target, "tty", tty)
	return &logConn{
		body:   body,
		reader: bufio.NewReaderSize(body, 64*1024),
		tty:    tty,
		cancel: cancel,
	}, nil
}

// logConn presents a Docker log stream as inbound log messages.
type logConn struct {
	body   io.ReadCloser
	reader *bufio.Reader
	tty    bool
	ended  bool
	cancel context.CancelFunc
}

// ReadMessage returns one frame, or one line for TTY containers. The end of
// a followed stream is reported as an end message followed by io.EOF.
func (c *logConn) ReadMessage() (stream.Message, error) {
	if c.ended {
		return stream.Message{}, io.EOF
	}
	if c.tty {
		line, err := c.reader.ReadString('\n')
		if line != "" {
			return stream.Message{Type: stream.MessageTypeLog, Data: line}, nil
		}
		return c.finish(err)
	}

	f, err := readFrame(c.reader)
	if err != nil {
		return c.finish(err)
	}
	if f.kind == frameStdin {
		return c.ReadMessage()
	}
	return stream.Message{
		Type:   stream.MessageTypeLog,
		Data:   string(f.payload),
		Stream: string(f.kind.stream()),
	}, nil
}

func (c *logConn) finish(err error) (stream.Message, error) {
	if errors.Is(err, io.EOF) {
		c.ended = true
		return stream.Message{Type: stream.MessageTypeEnd}, nil
	}
	return stream.Message{}, err
}

func (c *logConn) WriteMessage(stream.Message) error {
	return ErrReadOnly
}

func (c *logConn) Close() error {
	c.cancel()
	return c.body.Close()
}
