package tui

import (
	"fmt"
	"strings"

	"github.com/rusenback/docker-console/internal/session"
)

// renderContainerListPanel renders the container list panel
func (m Model) renderContainerListPanel(width, height int) string {
	content := m.renderListPanelContent(width, height)
	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(content)
}

// renderListPanelContent renders the content of the container list panel
func (m Model) renderListPanelContent(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("🐳 Containers") + "\n\n")

	ctrl := m.controller(m.active)
	if err := ctrl.Err(); err != nil {
		s.WriteString(errorStyle.Render(truncate(fmt.Sprintf("Error: %v", err), width-8)) + "\n")
		return s.String()
	}

	containers := ctrl.Containers()
	if m.loading && len(containers) == 0 {
		s.WriteString("Loading...\n")
		return s.String()
	}
	if ctrl.Empty() {
		if m.active == tabShell {
			s.WriteString("No running containers\n")
		} else {
			s.WriteString("No containers\n")
		}
		return s.String()
	}

	running := 0
	for _, c := range containers {
		if c.Running() {
			running++
		}
	}
	s.WriteString(fmt.Sprintf("%d total, %d running\n\n", len(containers), running))

	colWidth, rows := panelContent(width, height)
	stateWidth := 9
	nameWidth := max(colWidth-stateWidth-3, 4)
	s.WriteString(headerStyle.Render(fmt.Sprintf("  %-*s %-*s", nameWidth, "NAME", stateWidth, "STATE")) + "\n")

	// Title, summary and header take six lines
	maxContainers := max(rows-6, 1)
	start := 0
	if m.cursor[m.active] >= maxContainers {
		start = m.cursor[m.active] - maxContainers + 1
	}

	selected := ctrl.Selected()
	for i := start; i < len(containers) && i < start+maxContainers; i++ {
		c := containers[i]

		state := string(c.State)
		if c.Health != "" && c.Health != "healthy" {
			state = c.Health
		}
		var stateStr string
		if c.Running() && c.Health != "unhealthy" {
			stateStr = runningStyle.Render(fmt.Sprintf("%-*s", stateWidth, truncate(state, stateWidth)))
		} else {
			stateStr = stoppedStyle.Render(fmt.Sprintf("%-*s", stateWidth, truncate(state, stateWidth)))
		}

		marker := " "
		if c.Name == selected {
			marker = "•"
		}
		line := fmt.Sprintf("%s %-*s ", marker, nameWidth, truncate(c.DisplayName(), nameWidth))

		if i == m.cursor[m.active] {
			s.WriteString(selectedStyle.Render(line) + stateStr)
		} else {
			s.WriteString(line + stateStr)
		}
		s.WriteString("\n")
	}

	return s.String()
}

// renderTerminalPanel renders the exec terminal
func (m Model) renderTerminalPanel(width, height int) string {
	var s strings.Builder

	target := m.exec.Target()
	title := "💻 Shell"
	if target != "" {
		title += " · " + target
	}
	s.WriteString(titleStyle.Render(title) + " " + stateBadge(m.exec.State()) + "\n")

	cols, rows := m.terminalSize()
	if !m.loading && m.execCtrl.Empty() {
		s.WriteString("\nNo running containers to attach to.")
	} else {
		s.WriteString(strings.Join(m.term.Lines(cols, rows), "\n"))
	}

	style := panelStyle
	if m.term.Focused() {
		style = focusedPanelStyle
	}
	return style.
		Width(width - 4).
		Height(height - 4).
		Render(s.String())
}

// renderStatusLine renders the message and key help below the panels
func (m Model) renderStatusLine() string {
	status := m.message
	switch m.active {
	case tabLogs:
		if err := m.logs.Err(); err != nil && status == "" {
			status = errorStyle.Render(err.Error())
		}
	case tabShell:
		if err := m.exec.Err(); err != nil && status == "" {
			status = errorStyle.Render(err.Error())
		}
	}

	var help string
	switch {
	case m.active == tabShell && m.term.Focused():
		help = "[ctrl+]] release terminal"
	case m.active == tabShell:
		help = "[tab] logs  [↑/↓] select  [enter] attach/focus  [r] reconnect  [R] refresh  [q] quit"
	default:
		help = "[tab] shell  [↑/↓] select  [p] pause  [c] clear  [pgup/pgdn] scroll  [r] reconnect  [R] refresh  [q] quit"
	}

	return truncate(status, m.width) + "\n" + helpStyle.Render(truncate(help, m.width))
}

// stateBadge renders a session state for panel titles
func stateBadge(state session.State) string {
	label := "[" + state.String() + "]"
	switch state {
	case session.StateConnected:
		return runningStyle.Render(label)
	case session.StatePaused:
		return pausedStyle.Render(label)
	case session.StateErrored, session.StateClosed:
		return stoppedStyle.Render(label)
	default:
		return helpStyle.Render(label)
	}
}
