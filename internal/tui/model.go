package tui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rusenback/docker-console/internal/controller"
	"github.com/rusenback/docker-console/internal/session"
)

// tab identifies one page of the console.
type tab int

const (
	tabLogs tab = iota
	tabShell
)

func (t tab) String() string {
	if t == tabShell {
		return "Shell"
	}
	return "Logs"
}

// Options wires the sessions and controllers the UI drives.
type Options struct {
	Logs     *session.LogTail
	LogsCtrl *controller.Controller

	Exec     *session.Exec
	ExecCtrl *controller.Controller
	Terminal *Terminal

	// Changes receives a signal whenever a session changed.
	Changes *Notifier
	Logger  *slog.Logger
	// Refresh is the directory polling interval. Zero disables polling.
	Refresh time.Duration
}

// Model represents the TUI application state
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	logs     *session.LogTail
	logsCtrl *controller.Controller
	exec     *session.Exec
	execCtrl *controller.Controller
	term     *Terminal
	changes  *Notifier
	logger   *slog.Logger
	refresh  time.Duration

	active  tab
	cursor  [2]int
	loading bool
	message string
	width   int
	height  int

	logsScroll     int
	logsAutoScroll bool
}

// Message types for Bubbletea update loop
type tickMsg time.Time

// changedMsg is sent when a session reported a change.
type changedMsg struct{}

type mountedMsg struct {
	tab tab
	err error
}

type refreshedMsg struct {
	tab tab
	err error
}

type actionMsg struct {
	message string
	err     error
}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return Model{
		ctx:            ctx,
		cancel:         cancel,
		logs:           opts.Logs,
		logsCtrl:       opts.LogsCtrl,
		exec:           opts.Exec,
		execCtrl:       opts.ExecCtrl,
		term:           opts.Terminal,
		changes:        opts.Changes,
		logger:         opts.Logger,
		refresh:        opts.Refresh,
		active:         tabLogs,
		loading:        true,
		logsAutoScroll: true,
	}
}

// Init mounts the first tab and starts listening for session changes
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		mountTab(m.ctx, tabLogs, m.controller(tabLogs)),
		waitForChange(m.changes),
		tickCmd(m.refresh),
	)
}

func (m Model) controller(t tab) *controller.Controller {
	if t == tabShell {
		return m.execCtrl
	}
	return m.logsCtrl
}

// shutdown closes every session.
func (m Model) shutdown() {
	m.logsCtrl.Unmount()
	m.execCtrl.Unmount()
	m.cancel()
}
