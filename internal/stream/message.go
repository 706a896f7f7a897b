// Package stream implements the persistent bidirectional transport used by
// log tail and exec sessions.
package stream

import (
	"encoding/json"
	"fmt"
)

// Mode selects what a stream is opened for.
type Mode string

const (
	ModeLogs Mode = "logs"
	ModeExec Mode = "exec"
)

// MessageType tags a wire message.
type MessageType string

const (
	// Remote -> client
	MessageTypeLog    MessageType = "log"
	MessageTypeOutput MessageType = "output"
	MessageTypeError  MessageType = "error"
	MessageTypeEnd    MessageType = "end"

	// Client -> remote
	MessageTypeInput  MessageType = "input"
	MessageTypeResize MessageType = "resize"
)

// Message is a single tagged payload on a stream.
type Message struct {
	Type    MessageType `json:"type"`
	Data    string      `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Stream  string      `json:"stream,omitempty"`
	Cols    uint16      `json:"cols,omitempty"`
	Rows    uint16      `json:"rows,omitempty"`
}

// Input builds an exec input message.
func Input(data string) Message {
	return Message{Type: MessageTypeInput, Data: data}
}

// Resize builds an exec terminal geometry message.
func Resize(cols, rows uint16) Message {
	return Message{Type: MessageTypeResize, Cols: cols, Rows: rows}
}

// Known reports whether t is part of the protocol.
func (t MessageType) Known() bool {
	switch t {
	case MessageTypeLog, MessageTypeOutput, MessageTypeError, MessageTypeEnd,
		MessageTypeInput, MessageTypeResize:
		return true
	}
	return false
}

// Encode serializes m to its JSON wire form.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a JSON wire message. Messages with an unknown type tag are
// rejected with ErrUnknownMessage.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decoding message: %w", err)
	}
	if !m.Type.Known() {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
	return m, nil
}
