package tui

import "github.com/charmbracelet/x/ansi"

// Panel chrome: border and padding take panelInset cells per axis, and the
// panel is drawn panelMargin cells smaller than its slot.
const (
	panelInset  = 4
	panelMargin = 4
)

// truncate shortens a string to a maximum visible width
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= max {
		return s
	}
	if max <= 3 {
		return ansi.Truncate(s, max, "")
	}
	return ansi.Truncate(s, max, "...")
}

// panelContent returns the usable cells inside a panel of the given slot size
func panelContent(width, height int) (int, int) {
	return max(width-panelMargin-panelInset, 1), max(height-panelMargin-2, 1)
}

// calculateVisibleLogLines calculates how many log lines can fit in the panel
func (m Model) calculateVisibleLogLines() int {
	_, height := panelContent(0, m.bodyHeight())
	// Title, container line and the scroll indicator
	return max(height-4, 3)
}

// calculateMaxScroll calculates the maximum scroll position
func (m Model) calculateMaxScroll() int {
	return max(m.logs.Len()-m.calculateVisibleLogLines(), 0)
}

// terminalSize returns the cells available to the exec terminal
func (m Model) terminalSize() (int, int) {
	_, mainWidth := m.columnWidths()
	width, height := panelContent(mainWidth, m.bodyHeight())
	// Title and status line
	return width, max(height-2, 1)
}
