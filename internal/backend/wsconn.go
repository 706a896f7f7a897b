package backend

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rusenback/docker-console/internal/stream"
)

const closeGracePeriod = time.Second

// wsConn adapts a websocket connection to stream.Conn.
type wsConn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn, logger *slog.Logger) *wsConn {
	return &wsConn{ws: ws, logger: logger}
}

// ReadMessage returns the next known message. Frames with an unknown type
// tag are skipped; a normal close is reported as io.EOF.
func (c *wsConn) ReadMessage() (stream.Message, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return stream.Message{}, io.EOF
			}
			return stream.Message{}, err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}

		msg, err := stream.Decode(data)
		if errors.Is(err, stream.ErrUnknownMessage) {
			c.logger.Debug("skipping message", "error", err)
			continue
		}
		if err != nil {
			return stream.Message{}, err
		}
		return msg, nil
	}
}

func (c *wsConn) WriteMessage(msg stream.Message) error {
	data, err := stream.Encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame and releases the connection.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		deadline := time.Now().Add(closeGracePeriod)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()

		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
