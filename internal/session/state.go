// Package session implements the log tail and exec sessions that consume a
// stream transport.
package session

import "errors"

// State is the lifecycle state of a session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StatePaused
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has ended and needs a reconnect.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateErrored
}

// ErrNoTarget is returned by Reconnect before any Start.
var ErrNoTarget = errors.New("no target selected")
