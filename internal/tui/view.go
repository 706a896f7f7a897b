package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	headerLines = 1
	footerLines = 2
)

// View renders the TUI interface
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	listWidth, mainWidth := m.columnWidths()
	bodyHeight := m.bodyHeight()

	left := m.renderContainerListPanel(listWidth, bodyHeight)
	var right string
	if m.active == tabShell {
		right = m.renderTerminalPanel(mainWidth, bodyHeight)
	} else {
		right = m.renderLogPanel(mainWidth, bodyHeight)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), body, m.renderStatusLine())
}

// renderTabs renders the tab bar
func (m Model) renderTabs() string {
	var parts []string
	for _, t := range []tab{tabLogs, tabShell} {
		label := " " + t.String() + " "
		if t == m.active {
			parts = append(parts, selectedStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

// columnWidths splits the width between the container list and the main panel
func (m Model) columnWidths() (int, int) {
	listWidth := max(int(float64(m.width)*0.3), 28)
	if listWidth > m.width {
		listWidth = m.width
	}
	return listWidth, m.width - listWidth
}

func (m Model) bodyHeight() int {
	return max(m.height-headerLines-footerLines, 8)
}
