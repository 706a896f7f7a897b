package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rusenback/docker-console/internal/session"
)

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		cols, rows := m.terminalSize()
		if m.term.SetSize(cols, rows) {
			c, r := m.term.Size()
			return m, resizeExec(m.exec, c, r)
		}

	case tea.KeyMsg:
		if m.active == tabShell && m.term.Focused() {
			return m.handleTerminalKey(msg)
		}
		return m.handleKey(msg)

	case tickMsg:
		return m, tea.Batch(refreshTab(m.ctx, m.active, m.controller(m.active)), tickCmd(m.refresh))

	case changedMsg:
		if m.logsAutoScroll && m.logs.Follow() {
			m.logsScroll = m.calculateMaxScroll()
		}
		return m, waitForChange(m.changes)

	case mountedMsg:
		if msg.tab != m.active {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.message = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.message = ""
		m.syncCursor(msg.tab)
		if msg.tab == tabLogs {
			m.logsAutoScroll = true
			m.logsScroll = 0
		}

	case refreshedMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("Refresh failed: %v", msg.err)
			return m, nil
		}
		m.clampCursor(msg.tab)

	case actionMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.message = msg.message
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.shutdown()
		return m, tea.Quit

	case "tab", "shift+tab":
		return m.switchTab()

	case "up", "k":
		if m.cursor[m.active] > 0 {
			m.cursor[m.active]--
			return m, m.selectForCursor()
		}

	case "down", "j":
		if m.cursor[m.active] < len(m.controller(m.active).Containers())-1 {
			m.cursor[m.active]++
			return m, m.selectForCursor()
		}

	case "enter":
		if m.active != tabShell {
			return m, nil
		}
		name := m.cursorName()
		if name != "" && name != m.execCtrl.Selected() {
			return m, selectTarget(m.ctx, m.execCtrl, name)
		}
		if m.exec.State() == session.StateConnected {
			m.term.Focus()
			m.message = "Terminal focused, ctrl+] to release"
		}

	case "r":
		return m, reconnect(m.ctx, m.controller(m.active))

	case "R":
		m.message = "Refreshing..."
		return m, refreshTab(m.ctx, m.active, m.controller(m.active))
	}

	if m.active == tabLogs {
		m.handleLogKey(msg)
	}
	return m, nil
}

// handleLogKey handles keys that only apply to the log view
func (m *Model) handleLogKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "p":
		if m.logs.TogglePause() {
			m.logsAutoScroll = false
			m.message = "Paused"
		} else {
			m.logsAutoScroll = true
			m.logsScroll = m.calculateMaxScroll()
			m.message = "Resumed"
		}

	case "c":
		// Clear logs
		m.logs.Clear()
		m.logsScroll = 0

	case "pgup":
		// Scroll logs up by half page for better readability
		scrollAmount := max(m.calculateVisibleLogLines()/2, 1)
		m.logsScroll = max(m.logsScroll-scrollAmount, 0)
		m.logsAutoScroll = false

	case "pgdown":
		scrollAmount := max(m.calculateVisibleLogLines()/2, 1)
		maxScroll := m.calculateMaxScroll()
		m.logsScroll += scrollAmount
		if m.logsScroll >= maxScroll {
			m.logsScroll = maxScroll
			m.logsAutoScroll = !m.logs.Paused()
		}

	case "home":
		m.logsScroll = 0
		m.logsAutoScroll = false

	case "end":
		m.logsScroll = m.calculateMaxScroll()
		m.logsAutoScroll = !m.logs.Paused()
	}
}

// handleTerminalKey forwards keystrokes to the exec session
func (m Model) handleTerminalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == releaseKey {
		m.term.Blur()
		m.message = ""
		return m, nil
	}

	data, ok := keyInput(msg)
	if !ok {
		return m, nil
	}
	if err := m.exec.Input(data); err != nil {
		m.term.Blur()
		m.message = fmt.Sprintf("Input rejected: %v", err)
	}
	return m, nil
}

// switchTab unmounts the active tab and mounts the other one
func (m Model) switchTab() (tea.Model, tea.Cmd) {
	m.controller(m.active).Unmount()
	m.term.Blur()

	if m.active == tabLogs {
		m.active = tabShell
	} else {
		m.active = tabLogs
	}
	m.loading = true
	m.message = ""
	return m, mountTab(m.ctx, m.active, m.controller(m.active))
}

// selectForCursor starts a log tail on the highlighted container. On the
// shell tab the cursor only moves; enter opens the session.
func (m Model) selectForCursor() tea.Cmd {
	if m.active != tabLogs {
		return nil
	}
	name := m.cursorName()
	if name == "" || name == m.logsCtrl.Selected() {
		return nil
	}
	return selectTarget(m.ctx, m.logsCtrl, name)
}

func (m Model) cursorName() string {
	containers := m.controller(m.active).Containers()
	i := m.cursor[m.active]
	if i < 0 || i >= len(containers) {
		return ""
	}
	return containers[i].Name
}

// syncCursor moves the cursor of t to its selected container
func (m *Model) syncCursor(t tab) {
	ctrl := m.controller(t)
	selected := ctrl.Selected()
	for i, c := range ctrl.Containers() {
		if c.Name == selected {
			m.cursor[t] = i
			return
		}
	}
	m.cursor[t] = 0
}

// clampCursor keeps the cursor inside the refreshed listing
func (m *Model) clampCursor(t tab) {
	n := len(m.controller(t).Containers())
	if m.cursor[t] >= n {
		m.cursor[t] = max(n-1, 0)
	}
}
