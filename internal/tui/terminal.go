package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/rusenback/docker-console/internal/buffer"
)

// clearScreen is the erase-display sequence shells emit for `clear`.
const clearScreen = "\x1b[2J"

// Terminal is the surface exec sessions write into. It keeps raw output in a
// bounded scrollback and renders the tail of it as plain text lines.
type Terminal struct {
	scrollback *buffer.Scrollback

	mu      sync.Mutex
	focused bool
	cols    uint16
	rows    uint16
}

// NewTerminal creates a Terminal keeping up to scrollback bytes of output.
func NewTerminal(scrollback int) *Terminal {
	return &Terminal{
		scrollback: buffer.NewScrollback(scrollback),
		cols:       80,
		rows:       24,
	}
}

func (t *Terminal) Write(p []byte) (int, error) {
	return t.scrollback.Write(p)
}

// Reset clears all output and releases focus.
func (t *Terminal) Reset() {
	t.scrollback.Reset()
	t.Blur()
}

func (t *Terminal) Focus() {
	t.mu.Lock()
	t.focused = true
	t.mu.Unlock()
}

func (t *Terminal) Blur() {
	t.mu.Lock()
	t.focused = false
	t.mu.Unlock()
}

// Focused reports whether keystrokes should go to the exec session.
func (t *Terminal) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}

func (t *Terminal) Size() (cols, rows uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, t.rows
}

// SetSize records the visible geometry and reports whether it changed.
func (t *Terminal) SetSize(cols, rows int) bool {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if int(t.cols) == cols && int(t.rows) == rows {
		return false
	}
	t.cols, t.rows = uint16(cols), uint16(rows)
	return true
}

// Lines renders the last height lines of output, each cut to width cells.
func (t *Terminal) Lines(width, height int) []string {
	if height <= 0 {
		return nil
	}

	out := string(t.scrollback.Bytes())
	if i := strings.LastIndex(out, clearScreen); i >= 0 {
		out = out[i+len(clearScreen):]
	}

	lines := renderText(ansi.Strip(out))
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, width, "")
	}
	return lines
}

// renderText applies carriage return, backspace and tab handling to plain
// text and splits it into lines.
func renderText(s string) []string {
	var lines []string
	var line []rune
	col := 0

	for _, r := range s {
		switch r {
		case '\n':
			lines = append(lines, string(line))
			line = line[:0]
			col = 0
		case '\r':
			col = 0
		case '\b':
			if col > 0 {
				col--
			}
		case '\t':
			next := (col/8 + 1) * 8
			for col < next {
				line = put(line, col, ' ')
				col++
			}
		case '\a', 0x7f:
		default:
			if r < 0x20 {
				continue
			}
			line = put(line, col, r)
			col++
		}
	}
	return append(lines, string(line))
}

// put writes r at col, padding with spaces when the cursor is past the end.
func put(line []rune, col int, r rune) []rune {
	for len(line) < col {
		line = append(line, ' ')
	}
	if col < len(line) {
		line[col] = r
		return line
	}
	return append(line, r)
}
