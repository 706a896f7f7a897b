package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rusenback/docker-console/internal/stream"
)

// SGR sequences used for in-band notices on the terminal surface.
const (
	sgrRed   = "\x1b[31m"
	sgrDim   = "\x1b[2m"
	sgrReset = "\x1b[0m"
)

// Surface is the terminal emulator an exec session renders into.
type Surface interface {
	io.Writer
	// Reset clears the screen and scrollback.
	Reset()
	// Focus directs keyboard input to the surface.
	Focus()
	// Size returns the current geometry in cells.
	Size() (cols, rows uint16)
}

// ExecConfig holds configuration for an Exec session.
type ExecConfig struct {
	Logger *slog.Logger
	// OnChange is called after every state change, outside the lock.
	OnChange func()
}

// Exec is an interactive command session into one container at a time.
type Exec struct {
	transport *stream.Transport
	surface   Surface
	logger    *slog.Logger
	onChange  func()

	// inputMu keeps input and resize messages in call order.
	inputMu sync.Mutex

	mu     sync.Mutex
	gen    uint64
	handle *stream.Handle
	target string
	state  State
	err    error
}

// NewExec creates an idle Exec session drawing on surface.
func NewExec(transport *stream.Transport, surface Surface, cfg ExecConfig) *Exec {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exec{
		transport: transport,
		surface:   surface,
		logger:    cfg.Logger.With("session", "exec"),
		onChange:  cfg.OnChange,
	}
}

// Start closes any existing stream, resets the surface and opens an exec
// stream to target.
func (s *Exec) Start(ctx context.Context, target string) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.handle != nil {
		s.handle.Close()
	}

	s.surface.Reset()
	s.err = nil
	s.target = target
	s.state = StateConnecting
	s.handle = s.transport.Open(ctx, target, stream.ModeExec, func(ev stream.Event) {
		s.handleEvent(gen, ev)
	})
	s.mu.Unlock()

	s.logger.Info("exec session started", "target", target)
	s.changed()
}

// Reconnect restarts the session for the current target on a cleared surface.
func (s *Exec) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	target := s.target
	s.mu.Unlock()

	if target == "" {
		return ErrNoTarget
	}
	s.Start(ctx, target)
	return nil
}

// Close releases the stream. The surface keeps its contents.
func (s *Exec) Close() {
	s.mu.Lock()
	s.gen++
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	if !s.state.Terminal() && s.state != StateIdle {
		s.state = StateClosed
	}
	s.mu.Unlock()

	s.changed()
}

// Input forwards keystroke data verbatim. Calls are sent in order, one
// message per call.
func (s *Exec) Input(data string) error {
	if data == "" {
		return nil
	}
	return s.send(stream.Input(data))
}

// Resize tells the remote end the surface geometry changed.
func (s *Exec) Resize(cols, rows uint16) error {
	if cols == 0 || rows == 0 {
		return nil
	}
	return s.send(stream.Resize(cols, rows))
}

func (s *Exec) send(msg stream.Message) error {
	s.inputMu.Lock()
	defer s.inputMu.Unlock()

	s.mu.Lock()
	h := s.handle
	state := s.state
	s.mu.Unlock()

	if h == nil || state != StateConnected {
		s.logger.Warn("send rejected", "type", string(msg.Type), "state", state.String())
		return fmt.Errorf("send %s: %w", msg.Type, stream.ErrNotConnected)
	}
	return h.Send(msg)
}

// State returns the lifecycle state.
func (s *Exec) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Target returns the container the session was last started for.
func (s *Exec) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Err returns the error that ended the session, if any.
func (s *Exec) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Exec) handleEvent(gen uint64, ev stream.Event) {
	s.mu.Lock()
	if gen != s.gen || s.state.Terminal() {
		s.mu.Unlock()
		return
	}

	connected := false
	switch ev.Kind {
	case stream.EventConnected:
		s.state = StateConnected
		fmt.Fprintf(s.surface, "%sConnected to %s%s\r\n", sgrDim, s.target, sgrReset)
		s.surface.Focus()
		connected = true

	case stream.EventMessage:
		s.handleMessage(ev.Message)

	case stream.EventClosed:
		s.end(StateClosed, nil)

	case stream.EventError:
		s.diagnostic(describeError(ev.Err))
		s.end(StateErrored, ev.Err)
	}
	s.mu.Unlock()

	s.changed()

	// Resize must not run under s.mu: the docker backend makes an API call.
	if connected {
		if err := s.Resize(s.surface.Size()); err != nil {
			s.logger.Warn("initial resize failed", "error", err)
		}
	}
}

// handleMessage must be called with s.mu held.
func (s *Exec) handleMessage(msg stream.Message) {
	switch msg.Type {
	case stream.MessageTypeOutput:
		if _, err := io.WriteString(s.surface, msg.Data); err != nil {
			s.logger.Warn("surface write failed", "error", err)
		}

	case stream.MessageTypeError:
		err := &stream.RemoteError{Message: msg.Message}
		s.diagnostic(err.Error())
		s.end(StateErrored, err)

	case stream.MessageTypeEnd:
		s.end(StateClosed, nil)

	default:
		s.logger.Debug("ignoring message", "type", string(msg.Type))
	}
}

// diagnostic writes a highlighted line. It must be called with s.mu held.
func (s *Exec) diagnostic(text string) {
	fmt.Fprintf(s.surface, "\r\n%s%s%s\r\n", sgrRed, text, sgrReset)
}

// end writes the closed notice, releases the handle and moves to state.
// It must be called with s.mu held.
func (s *Exec) end(state State, err error) {
	fmt.Fprintf(s.surface, "\r\n%s[connection closed]%s\r\n", sgrDim, sgrReset)

	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	s.state = state
	s.err = err

	if err != nil {
		s.logger.Warn("exec session ended with error", "target", s.target, "error", err)
	} else {
		s.logger.Info("exec session ended", "target", s.target)
	}
}

func (s *Exec) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
