package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rusenback/docker-console/internal/controller"
	"github.com/rusenback/docker-console/internal/session"
)

// tickCmd creates a command that sends a tick message after every interval
func tickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange creates a command that waits for the next session change
func waitForChange(n *Notifier) tea.Cmd {
	return func() tea.Msg {
		<-n.C()
		return changedMsg{}
	}
}

// mountTab lists the directory for a tab and starts its default session
func mountTab(ctx context.Context, t tab, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return mountedMsg{tab: t, err: ctrl.Mount(ctx)}
	}
}

// refreshTab re-fetches the directory without touching the session
func refreshTab(ctx context.Context, t tab, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{tab: t, err: ctrl.Refresh(ctx)}
	}
}

// selectTarget starts the tab's session on name
func selectTarget(ctx context.Context, ctrl *controller.Controller, name string) tea.Cmd {
	return func() tea.Msg {
		if err := ctrl.Select(ctx, name); err != nil {
			if errors.Is(err, controller.ErrNotMounted) {
				return nil
			}
			return actionMsg{err: err}
		}
		return actionMsg{message: fmt.Sprintf("Connecting to %s", name)}
	}
}

// reconnect restarts the tab's session on its current target
func reconnect(ctx context.Context, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		if err := ctrl.Reconnect(ctx); err != nil {
			if errors.Is(err, controller.ErrNotMounted) {
				return nil
			}
			return actionMsg{err: err}
		}
		return actionMsg{message: "Reconnecting..."}
	}
}

// resizeExec tells the exec session the terminal geometry changed
func resizeExec(exec *session.Exec, cols, rows uint16) tea.Cmd {
	return func() tea.Msg {
		if exec.State() != session.StateConnected {
			return nil
		}
		if err := exec.Resize(cols, rows); err != nil {
			return actionMsg{err: fmt.Errorf("resize: %w", err)}
		}
		return nil
	}
}
