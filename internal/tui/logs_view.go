package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rusenback/docker-console/internal/model"
)

var (
	// Log level patterns
	errorPattern   = regexp.MustCompile(`(?i)\b(error|err|fatal|fail|failed|exception|panic)\b`)
	warningPattern = regexp.MustCompile(`(?i)\b(warn|warning|caution)\b`)
	infoPattern    = regexp.MustCompile(`(?i)\b(info|information)\b`)
	debugPattern   = regexp.MustCompile(`(?i)\b(debug|trace)\b`)

	// Pattern highlighting
	ipPattern  = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	urlPattern = regexp.MustCompile(`https?://[^\s]+`)

	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")) // Dim gray

	errorLogStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")) // Red
	warningLogStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")) // Orange
	infoLogStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")) // Blue
	debugLogStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")) // Dim
	defaultLogStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")) // Normal

	// Stream indicators
	stdoutIndicator = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")).Render("○")
	stderrIndicator = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Render("●")

	ipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")) // Yellow
	urlStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#89DCEB")) // Cyan
)

// renderLogPanel renders the log panel
func (m Model) renderLogPanel(width, height int) string {
	var s strings.Builder

	target := m.logs.Target()
	title := "📋 Logs"
	if target != "" {
		title += " · " + target
	}
	s.WriteString(titleStyle.Render(title) + " " + stateBadge(m.logs.State()) + "\n")

	if !m.loading && m.logsCtrl.Empty() {
		s.WriteString("\nNo containers available")
		return panelStyle.Width(width - 4).Height(height - 4).Render(s.String())
	}

	var flags []string
	if m.logsAutoScroll && m.logs.Follow() {
		flags = append(flags, "Auto-scroll: ON")
	}
	if m.logs.Paused() {
		flags = append(flags, pausedStyle.Render("PAUSED"))
		if n := m.logs.Dropped(); n > 0 {
			flags = append(flags, fmt.Sprintf("%d dropped", n))
		}
		if n := m.logs.Pending(); n > 0 {
			flags = append(flags, fmt.Sprintf("%d pending", n))
		}
	}
	if len(flags) > 0 {
		s.WriteString("[" + strings.Join(flags, " | ") + "]")
	}
	s.WriteString("\n\n")

	entries := m.logs.Entries()
	maxLineWidth, _ := panelContent(width, height)
	if len(entries) == 0 {
		s.WriteString("No logs yet...")
	} else {
		visibleLines := m.calculateVisibleLogLines()

		// Calculate the window of logs to display
		start := m.logsScroll
		if m.logsAutoScroll && m.logs.Follow() {
			start = len(entries) - visibleLines
		}
		start = min(max(start, 0), max(len(entries)-visibleLines, 0))
		end := min(start+visibleLines, len(entries))

		for i := start; i < end; i++ {
			s.WriteString(styleLogEntry(entries[i], maxLineWidth) + "\n")
		}

		// Show scroll indicator if there are more logs
		if len(entries) > visibleLines {
			s.WriteString(helpStyle.Render(fmt.Sprintf("[%d-%d/%d]", start+1, end, len(entries))))
		}
	}

	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(s.String())
}

// styleLogEntry applies styling to a log entry
func styleLogEntry(entry model.LogEntry, maxWidth int) string {
	timestamp := timestampStyle.Render(entry.Timestamp.Local().Format("15:04:05"))

	streamIndicator := stdoutIndicator
	if entry.Stream == model.StreamStderr {
		streamIndicator = stderrIndicator
	}

	overhead := lipgloss.Width(timestamp) + lipgloss.Width(streamIndicator) + 2
	message := truncate(entry.Message, maxWidth-overhead)

	// Detect log level and apply appropriate style
	var styledMessage string
	switch {
	case errorPattern.MatchString(message):
		styledMessage = styleMessage(message, errorLogStyle)
	case warningPattern.MatchString(message):
		styledMessage = styleMessage(message, warningLogStyle)
	case infoPattern.MatchString(message):
		styledMessage = styleMessage(message, infoLogStyle)
	case debugPattern.MatchString(message):
		styledMessage = styleMessage(message, debugLogStyle)
	default:
		styledMessage = styleMessage(message, defaultLogStyle)
	}

	return timestamp + " " + streamIndicator + " " + styledMessage
}

// styleMessage highlights IPs and URLs and renders the rest in baseStyle
func styleMessage(message string, baseStyle lipgloss.Style) string {
	type span struct{ start, end int }
	var spans []span
	for _, loc := range urlPattern.FindAllStringIndex(message, -1) {
		spans = append(spans, span{loc[0], loc[1]})
	}
	for _, loc := range ipPattern.FindAllStringIndex(message, -1) {
		overlaps := false
		for _, sp := range spans {
			if loc[0] < sp.end && loc[1] > sp.start {
				overlaps = true
				break
			}
		}
		if !overlaps {
			spans = append(spans, span{loc[0], loc[1]})
		}
	}
	if len(spans) == 0 {
		return baseStyle.Render(message)
	}

	// Render plain runs in the base style and matches in their own style
	var b strings.Builder
	pos := 0
	for pos < len(message) {
		next := len(message)
		var hit *span
		for i := range spans {
			if spans[i].start >= pos && spans[i].start < next {
				next = spans[i].start
				hit = &spans[i]
			}
		}
		if next > pos {
			b.WriteString(baseStyle.Render(message[pos:next]))
		}
		if hit == nil {
			break
		}
		match := message[hit.start:hit.end]
		if urlPattern.MatchString(match) {
			b.WriteString(urlStyle.Render(match))
		} else {
			b.WriteString(ipStyle.Render(match))
		}
		pos = hit.end
	}
	return b.String()
}
