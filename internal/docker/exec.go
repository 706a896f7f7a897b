package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/rusenback/docker-console/internal/stream"
)

const execReadSize = 32 * 1024

func (c *Client) openExec(ctx context.Context, target string) (stream.Conn, error) {
	created, err := c.api.ContainerExecCreate(ctx, target, types.ExecConfig{
		Cmd:          c.exec,
		Env:          []string{"TERM=xterm-256color"},
		Tty:          true,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("exec create in %s: %w", target, err)
	}

	resp, err := c.api.ContainerExecAttach(ctx, created.ID, types.ExecStartCheck{Tty: true})
	if err != nil {
		return nil, fmt.Errorf("exec attach %s: %w", created.ID, err)
	}

	c.logger.Debug("exec attached", "target", target, "exec", created.ID)

	// Resize calls outlive the dial context
	rctx, cancel := context.WithCancel(context.Background())
	return &execConn{
		api:    c.api,
		execID: created.ID,
		resp:   resp,
		ctx:    rctx,
		cancel: cancel,
		buf:    make([]byte, execReadSize),
		logger: c.logger.With("exec", created.ID),
	}, nil
}

// execConn presents an attached exec as output messages and accepts input
// and resize messages.
type execConn struct {
	api    Engine
	execID string
	resp   types.HijackedResponse
	ctx    context.Context
	cancel context.CancelFunc
	buf    []byte
	ended  bool
	logger *slog.Logger

	closeOnce sync.Once
}

// ReadMessage returns the next chunk of terminal output. When the process
// exits an end message is returned, then io.EOF.
func (c *execConn) ReadMessage() (stream.Message, error) {
	if c.ended {
		return stream.Message{}, io.EOF
	}

	n, err := c.resp.Reader.Read(c.buf)
	if n > 0 {
		return stream.Message{Type: stream.MessageTypeOutput, Data: string(c.buf[:n])}, nil
	}
	if err == nil {
		return c.ReadMessage()
	}
	if errors.Is(err, io.EOF) {
		c.ended = true
		return stream.Message{Type: stream.MessageTypeEnd}, nil
	}
	return stream.Message{}, err
}

func (c *execConn) WriteMessage(msg stream.Message) error {
	switch msg.Type {
	case stream.MessageTypeInput:
		_, err := io.WriteString(c.resp.Conn, msg.Data)
		return err

	case stream.MessageTypeResize:
		return c.api.ContainerExecResize(c.ctx, c.execID, container.ResizeOptions{
			Width:  uint(msg.Cols),
			Height: uint(msg.Rows),
		})

	default:
		c.logger.Debug("ignoring outbound message", "type", string(msg.Type))
		return nil
	}
}

func (c *execConn) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.resp.Close()
	})
	return nil
}
