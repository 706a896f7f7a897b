package stream

import "errors"

var (
	// ErrTransportOpen is returned when a connection could not be established.
	ErrTransportOpen = errors.New("transport open failed")

	// ErrTransport is returned when an established connection fails.
	ErrTransport = errors.New("transport error")

	// ErrNotConnected is returned by Send on a handle that is not connected.
	ErrNotConnected = errors.New("not connected")

	// ErrUnknownMessage is returned when a wire message has an unknown type tag.
	ErrUnknownMessage = errors.New("unknown message type")
)

// RemoteError is an application-level error reported by the remote end.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "remote error"
	}
	return "remote error: " + e.Message
}
