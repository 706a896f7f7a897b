// internal/model/logs.go
package model

import "time"

// Stream identifies which output channel a log line came from
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// LogEntry represents a single log line from a container
type LogEntry struct {
	Timestamp time.Time
	Message   string
	Stream    Stream
}
