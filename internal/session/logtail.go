package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rusenback/docker-console/internal/buffer"
	"github.com/rusenback/docker-console/internal/model"
	"github.com/rusenback/docker-console/internal/stream"
)

// DefaultLogCapacity is the number of entries a log tail keeps.
const DefaultLogCapacity = 1000

// PausePolicy decides what happens to log lines that arrive while paused.
type PausePolicy string

const (
	// PauseDrop discards lines received while paused.
	PauseDrop PausePolicy = "drop"
	// PauseHold queues lines received while paused, up to the buffer
	// capacity, and appends them on resume.
	PauseHold PausePolicy = "hold"
)

// LogTailConfig holds configuration for a LogTail.
type LogTailConfig struct {
	Capacity    int
	PausePolicy PausePolicy
	Logger      *slog.Logger
	// OnChange is called after every visible change, outside the lock.
	OnChange func()
	// Now returns the receipt time for lines without a timestamp.
	Now func() time.Time
}

// LogTail follows the log stream of one container at a time.
type LogTail struct {
	transport *stream.Transport
	policy    PausePolicy
	logger    *slog.Logger
	onChange  func()
	now       func() time.Time

	mu      sync.Mutex
	gen     uint64
	handle  *stream.Handle
	target  string
	state   State
	paused  bool
	err     error
	entries *buffer.Ring[model.LogEntry]
	held    *buffer.Ring[model.LogEntry]
	dropped int
}

// NewLogTail creates an idle LogTail.
func NewLogTail(transport *stream.Transport, cfg LogTailConfig) *LogTail {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultLogCapacity
	}
	if cfg.PausePolicy == "" {
		cfg.PausePolicy = PauseDrop
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &LogTail{
		transport: transport,
		policy:    cfg.PausePolicy,
		logger:    cfg.Logger.With("session", "logs"),
		onChange:  cfg.OnChange,
		now:       cfg.Now,
		entries:   buffer.NewRing[model.LogEntry](cfg.Capacity),
		held:      buffer.NewRing[model.LogEntry](cfg.Capacity),
	}
}

// Start closes any existing stream, clears the buffer and opens a log stream
// to target.
func (s *LogTail) Start(ctx context.Context, target string) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.handle != nil {
		s.handle.Close()
	}

	s.entries.Clear()
	s.held.Clear()
	s.dropped = 0
	s.paused = false
	s.err = nil
	s.target = target
	s.state = StateConnecting
	s.handle = s.transport.Open(ctx, target, stream.ModeLogs, func(ev stream.Event) {
		s.handleEvent(gen, ev)
	})
	s.mu.Unlock()

	s.logger.Info("log tail started", "target", target)
	s.changed()
}

// Reconnect restarts the stream for the current target.
func (s *LogTail) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	target := s.target
	s.mu.Unlock()

	if target == "" {
		return ErrNoTarget
	}
	s.Start(ctx, target)
	return nil
}

// Close releases the stream without touching the buffer.
func (s *LogTail) Close() {
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

// Pause stops new lines from reaching the buffer. The stream stays open.
func (s *LogTail) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()

	s.changed()
}

// Resume lets new lines reach the buffer again. Under PauseHold the lines
// queued while paused are appended first.
func (s *LogTail) Resume() {
	s.mu.Lock()
	s.paused = false
	for _, entry := range s.held.Items() {
		s.entries.Push(entry)
	}
	s.held.Clear()
	s.mu.Unlock()

	s.changed()
}

// TogglePause flips the pause flag and returns the new value.
func (s *LogTail) TogglePause() bool {
	if s.Paused() {
		s.Resume()
		return false
	}
	s.Pause()
	return true
}

// Clear empties the buffer. The stream is not affected.
func (s *LogTail) Clear() {
	s.mu.Lock()
	s.entries.Clear()
	s.mu.Unlock()

	s.changed()
}

// Entries returns a copy of the buffer, oldest first.
func (s *LogTail) Entries() []model.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Items()
}

// Len returns the number of buffered entries.
func (s *LogTail) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Len()
}

// Paused reports the pause flag.
func (s *LogTail) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Follow reports whether a view should keep the newest entry visible.
func (s *LogTail) Follow() bool {
	return !s.Paused()
}

// Dropped returns how many lines were discarded while paused since Start.
func (s *LogTail) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Pending returns how many lines are queued for Resume under PauseHold.
func (s *LogTail) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held.Len()
}

// State returns the lifecycle state.
func (s *LogTail) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConnected && s.paused {
		return StatePaused
	}
	return s.state
}

// Target returns the container the session was last started for.
func (s *LogTail) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Err returns the error that ended the session, if any.
func (s *LogTail) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *LogTail) handleEvent(gen uint64, ev stream.Event) {
	s.mu.Lock()
	if gen != s.gen || s.state.Terminal() {
		s.mu.Unlock()
		return
	}

	switch ev.Kind {
	case stream.EventConnected:
		s.state = StateConnected
		s.logger.Debug("log stream connected", "target", s.target)

	case stream.EventMessage:
		s.handleMessage(ev.Message)

	case stream.EventClosed:
		s.end(StateClosed, nil, ev.Reason)

	case stream.EventError:
		s.end(StateErrored, ev.Err, describeError(ev.Err))
	}
	s.mu.Unlock()

	s.changed()
}

// handleMessage must be called with s.mu held.
func (s *LogTail) handleMessage(msg stream.Message) {
	switch msg.Type {
	case stream.MessageTypeLog:
		if s.paused && s.policy == PauseDrop {
			s.dropped++
			return
		}

		src := model.StreamStdout
		if msg.Stream == string(model.StreamStderr) {
			src = model.StreamStderr
		}
		target := s.entries
		if s.paused {
			target = s.held
		}
		for _, entry := range ParseChunk(msg.Data, s.now(), src) {
			target.Push(entry)
		}

	case stream.MessageTypeError:
		err := &stream.RemoteError{Message: msg.Message}
		s.end(StateErrored, err, err.Error())

	case stream.MessageTypeEnd:
		s.end(StateClosed, nil, "stream ended")

	default:
		s.logger.Debug("ignoring message", "type", string(msg.Type))
	}
}

// end records a termination notice, releases the handle and moves to state.
// It must be called with s.mu held.
func (s *LogTail) end(state State, err error, notice string) {
	if notice == "" {
		notice = "stream ended"
	}
	entryStream := model.StreamStdout
	if err != nil {
		entryStream = model.StreamStderr
	}
	s.entries.Push(model.LogEntry{
		Timestamp: s.now(),
		Message:   "[" + notice + "]",
		Stream:    entryStream,
	})

	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	s.state = state
	s.err = err

	if err != nil {
		s.logger.Warn("log stream ended with error", "target", s.target, "error", err)
	} else {
		s.logger.Info("log stream ended", "target", s.target)
	}
}

func (s *LogTail) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// describeError turns a transport error into the in-band notice text.
func describeError(err error) string {
	var remote *stream.RemoteError
	switch {
	case errors.As(err, &remote):
		return remote.Error()
	case errors.Is(err, stream.ErrTransportOpen):
		return fmt.Sprintf("connection failed: %v", err)
	case errors.Is(err, stream.ErrTransport):
		return fmt.Sprintf("connection lost: %v", err)
	default:
		return fmt.Sprintf("error: %v", err)
	}
}
