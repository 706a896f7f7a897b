package tui

import tea "github.com/charmbracelet/bubbletea"

// releaseKey hands keyboard focus back from the terminal to the console.
const releaseKey = "ctrl+]"

// Escape sequences sent for keys that have no single-byte encoding.
var keySequences = map[tea.KeyType]string{
	tea.KeyUp:        "\x1b[A",
	tea.KeyDown:      "\x1b[B",
	tea.KeyRight:     "\x1b[C",
	tea.KeyLeft:      "\x1b[D",
	tea.KeyHome:      "\x1b[H",
	tea.KeyEnd:       "\x1b[F",
	tea.KeyPgUp:      "\x1b[5~",
	tea.KeyPgDown:    "\x1b[6~",
	tea.KeyDelete:    "\x1b[3~",
	tea.KeyInsert:    "\x1b[2~",
	tea.KeyShiftTab:  "\x1b[Z",
	tea.KeySpace:     " ",
	tea.KeyCtrlUp:    "\x1b[1;5A",
	tea.KeyCtrlDown:  "\x1b[1;5B",
	tea.KeyCtrlRight: "\x1b[1;5C",
	tea.KeyCtrlLeft:  "\x1b[1;5D",
	tea.KeyF1:        "\x1bOP",
	tea.KeyF2:        "\x1bOQ",
	tea.KeyF3:        "\x1bOR",
	tea.KeyF4:        "\x1bOS",
}

// keyInput converts a key press into the bytes a terminal would send.
func keyInput(msg tea.KeyMsg) (string, bool) {
	var data string
	switch {
	case msg.Type == tea.KeyRunes:
		data = string(msg.Runes)
	case msg.Type >= 0 && msg.Type <= 127:
		// Control characters, enter, tab, escape and backspace
		data = string(rune(msg.Type))
	default:
		seq, ok := keySequences[msg.Type]
		if !ok {
			return "", false
		}
		data = seq
	}

	if msg.Alt {
		data = "\x1b" + data
	}
	return data, data != ""
}
