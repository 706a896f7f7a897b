package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Conn is an established message stream to one container.
type Conn interface {
	// ReadMessage blocks until the next inbound message. A clean remote
	// close is reported as io.EOF.
	ReadMessage() (Message, error)
	WriteMessage(Message) error
	Close() error
}

// Dialer establishes a Conn to a named container.
type Dialer interface {
	Dial(ctx context.Context, target string, mode Mode) (Conn, error)
}

// EventKind identifies an Event.
type EventKind int

const (
	EventConnected EventKind = iota
	EventMessage
	EventClosed
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventMessage:
		return "message"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered to a handle's listener.
type Event struct {
	Kind    EventKind
	Message Message // EventMessage
	Reason  string  // EventClosed
	Err     error   // EventError, wraps ErrTransportOpen or ErrTransport
}

// Listener receives the events of one handle, serially and in receipt order.
type Listener func(Event)

// State is the connection state of a Handle.
type State int

const (
	StateConnecting State = iota
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transport opens handles through a Dialer.
type Transport struct {
	dialer Dialer
	logger *slog.Logger
}

// NewTransport creates a Transport. A nil logger discards records.
func NewTransport(dialer Dialer, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Transport{dialer: dialer, logger: logger}
}

// Handle is one connection attempt and, if it succeeds, the live connection.
type Handle struct {
	id     string
	target string
	mode   Mode
	logger *slog.Logger

	listener atomic.Pointer[Listener]

	mu     sync.Mutex
	state  State
	conn   Conn
	cancel context.CancelFunc

	writeMu sync.Mutex
}

// Open makes exactly one connection attempt to target in the background and
// returns immediately. Events are delivered to listener until the handle is
// closed; there is no retry.
func (t *Transport) Open(ctx context.Context, target string, mode Mode, listener Listener) *Handle {
	ctx, cancel := context.WithCancel(ctx)

	h := &Handle{
		id:     uuid.NewString(),
		target: target,
		mode:   mode,
		cancel: cancel,
		state:  StateConnecting,
	}
	h.logger = t.logger.With("stream", h.id, "target", target, "mode", string(mode))
	if listener != nil {
		h.listener.Store(&listener)
	}

	go h.run(ctx, t.dialer)

	return h
}

func (h *Handle) run(ctx context.Context, dialer Dialer) {
	h.logger.Debug("dialing")

	conn, err := dialer.Dial(ctx, h.target, h.mode)
	if err != nil {
		if !h.markClosed() {
			return
		}
		h.logger.Warn("dial failed", "error", err)
		h.deliver(Event{Kind: EventError, Err: fmt.Errorf("%w: %s: %v", ErrTransportOpen, h.target, err)})
		return
	}

	h.mu.Lock()
	if h.state == StateClosed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.conn = conn
	h.state = StateConnected
	h.mu.Unlock()

	h.logger.Debug("connected")
	h.deliver(Event{Kind: EventConnected})

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			if !h.markClosed() {
				return
			}
			conn.Close()

			if errors.Is(err, io.EOF) {
				h.logger.Debug("remote closed stream")
				h.deliver(Event{Kind: EventClosed, Reason: "stream ended"})
			} else {
				h.logger.Warn("stream failed", "error", err)
				h.deliver(Event{Kind: EventError, Err: fmt.Errorf("%w: %v", ErrTransport, err)})
			}
			return
		}

		h.deliver(Event{Kind: EventMessage, Message: msg})
	}
}

// markClosed moves the handle to closed and reports whether this call did it.
func (h *Handle) markClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateClosed {
		return false
	}
	h.state = StateClosed
	h.cancel()
	return true
}

// deliver hands ev to the listener unless the handle has been closed by its
// owner.
func (h *Handle) deliver(ev Event) {
	l := h.listener.Load()
	if l == nil {
		return
	}
	(*l)(ev)
}

// Send writes msg to the remote end. It fails with ErrNotConnected unless the
// handle is connected; nothing is buffered.
func (h *Handle) Send(msg Message) error {
	h.mu.Lock()
	if h.state != StateConnected {
		state := h.state
		h.mu.Unlock()
		h.logger.Warn("send rejected", "type", string(msg.Type), "state", state.String())
		return fmt.Errorf("send %s: %w", msg.Type, ErrNotConnected)
	}
	conn := h.conn
	h.mu.Unlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := conn.WriteMessage(msg); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrTransport, msg.Type, err)
	}
	return nil
}

// Close releases the connection and deregisters the listener, so messages
// already read off the wire are dropped. A delivery that started before Close
// may still finish; owners that reuse state across handles also check their
// own generation. Close is idempotent.
func (h *Handle) Close() error {
	h.listener.Store(nil)

	h.mu.Lock()
	if h.state == StateClosed {
		h.mu.Unlock()
		return nil
	}
	h.state = StateClosed
	h.cancel()
	conn := h.conn
	h.mu.Unlock()

	h.logger.Debug("closing")
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// State returns the current connection state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// ID returns the handle's correlation id.
func (h *Handle) ID() string {
	return h.id
}

// Target returns the container name the handle was opened for.
func (h *Handle) Target() string {
	return h.target
}

// Mode returns the mode the handle was opened in.
func (h *Handle) Mode() Mode {
	return h.mode
}
