package session

import (
	"strings"
	"time"

	"github.com/rusenback/docker-console/internal/model"
)

// timestampLayouts are tried in order against the first token of a line.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// ParseChunk splits a raw log chunk into entries. A chunk may hold several
// newline-joined lines; blank lines are skipped. A leading timestamp token is
// parsed and removed from the message, otherwise received is used.
func ParseChunk(data string, received time.Time, stream model.Stream) []model.LogEntry {
	if stream == "" {
		stream = model.StreamStdout
	}

	lines := strings.Split(data, "\n")
	entries := make([]model.LogEntry, 0, len(lines))
	for _, line := range lines {
		entry, ok := parseLogLine(line, received)
		if !ok {
			continue
		}
		entry.Stream = stream
		entries = append(entries, entry)
	}
	return entries
}

// parseLogLine parses a single log line
// Returns an entry and a boolean indicating if the entry is valid
func parseLogLine(line string, received time.Time) (model.LogEntry, bool) {
	line = strings.TrimRight(line, " \t\r")
	if strings.TrimSpace(line) == "" {
		return model.LogEntry{}, false
	}

	entry := model.LogEntry{
		Timestamp: received,
		Message:   line,
	}

	// Format: 2024-01-15T10:30:45.123456789Z message
	token, rest, found := strings.Cut(line, " ")
	if ts, ok := parseTimestamp(token); ok {
		if !found || strings.TrimSpace(rest) == "" {
			return model.LogEntry{}, false
		}
		entry.Timestamp = ts
		entry.Message = strings.TrimLeft(rest, " ")
	}

	return entry, true
}

func parseTimestamp(token string) (time.Time, bool) {
	// Cheap reject before trying layouts: YYYY-MM-DDT...
	if len(token) < len("2006-01-02T15:04:05") || token[4] != '-' || token[10] != 'T' {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, token); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
