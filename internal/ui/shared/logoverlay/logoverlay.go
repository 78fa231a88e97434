// Package logoverlay shows recent diagnostic log entries, including failed
// submissions, on top of the editor without leaving the TUI.
package logoverlay

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/zjrosen/urlpad/internal/log"
	"github.com/zjrosen/urlpad/internal/ui/styles"
)

const (
	viewportMaxHeight = 20
	viewportMinHeight = 5
	bufferScanLimit   = 10000
)

// CloseMsg is sent when the overlay closes itself.
type CloseMsg struct{}

// Model is the log overlay state.
type Model struct {
	visible    bool
	minLevel   log.Level
	submitOnly bool
	width      int
	height     int
	viewport   viewport.Model
	ready      bool
}

// New creates a hidden overlay showing every level.
func New() Model {
	return Model{minLevel: log.LevelDebug}
}

// Update handles keys while visible.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "c":
			log.ClearBuffer()
		case "d":
			m.minLevel = log.LevelDebug
		case "i":
			m.minLevel = log.LevelInfo
		case "w":
			m.minLevel = log.LevelWarn
		case "e":
			m.minLevel = log.LevelError
		case "s":
			m.submitOnly = !m.submitOnly
		case "j", "down":
			if m.ready {
				m.viewport.ScrollDown(1)
			}
			return m, nil
		case "k", "up":
			if m.ready {
				m.viewport.ScrollUp(1)
			}
			return m, nil
		case "g":
			if m.ready {
				m.viewport.GotoTop()
			}
			return m, nil
		case "G":
			if m.ready {
				m.viewport.GotoBottom()
			}
			return m, nil
		case "ctrl+x", "esc", "q":
			m.visible = false
			return m, func() tea.Msg { return CloseMsg{} }
		default:
			return m, nil
		}
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	}

	return m, nil
}

func (m Model) boxWidth() int {
	return max(min(m.width-4, 100), 40)
}

// View renders the overlay box, or "" when hidden.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	boxWidth := m.boxWidth()
	contentWidth := boxWidth - 2

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.OverlayTitleColor).
		PaddingLeft(1).
		Render("Diagnostics")
	divider := lipgloss.NewStyle().
		Foreground(styles.OverlayBorderColor).
		Render(strings.Repeat("─", boxWidth))

	content := m.buildContent(contentWidth)
	if m.ready {
		content = m.viewport.View()
	}

	body := strings.Join([]string{title, divider, content, divider, m.hints()}, "\n")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(boxWidth).
		Render(body)
}

// Overlay returns bg when hidden, otherwise the box centered on a blank
// screen of the recorded size.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.View())
}

// Entries returns buffered entries passing the current filters.
func (m Model) Entries() []string {
	var out []string
	for _, entry := range log.GetRecentLogs(bufferScanLimit) {
		if entryLevel(entry) < m.minLevel {
			continue
		}
		if m.submitOnly && !strings.Contains(entry, "["+string(log.CatSubmit)+"]") {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func (m Model) buildContent(width int) string {
	entries := m.Entries()
	if len(entries) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.TextMutedColor).
			Italic(true).
			Render("No log entries")
	}

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, colorize(entry, width))
	}
	return strings.Join(lines, "\n")
}

// entryLevel recovers the level from a formatted entry. Unparseable entries
// rank as errors so they are never hidden.
func entryLevel(entry string) log.Level {
	for _, lvl := range []log.Level{log.LevelError, log.LevelWarn, log.LevelInfo, log.LevelDebug} {
		if strings.Contains(entry, "["+lvl.String()+"]") {
			return lvl
		}
	}
	return log.LevelError
}

func colorize(entry string, width int) string {
	entry = strings.TrimSuffix(entry, "\n")
	if ansi.StringWidth(entry) > width {
		entry = truncate.StringWithTail(entry, uint(width), "...") //nolint:gosec // width >= 38
	}

	var color lipgloss.TerminalColor
	switch entryLevel(entry) {
	case log.LevelError:
		color = styles.StatusErrorColor
	case log.LevelWarn:
		color = styles.StatusWarningColor
	case log.LevelInfo:
		color = styles.StatusInfoColor
	default:
		color = styles.TextMutedColor
	}
	return lipgloss.NewStyle().Foreground(color).Render(entry)
}

func (m Model) hints() string {
	muted := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	active := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)

	pick := func(on bool, s string) string {
		if on {
			return active.Render(s)
		}
		return muted.Render(s)
	}

	return strings.Join([]string{
		muted.Render("[c] Clear"),
		pick(m.minLevel == log.LevelDebug, "[d] Debug"),
		pick(m.minLevel == log.LevelInfo, "[i] Info"),
		pick(m.minLevel == log.LevelWarn, "[w] Warn"),
		pick(m.minLevel == log.LevelError, "[e] Error"),
		pick(m.submitOnly, "[s] Submissions"),
	}, "  ")
}

func (m *Model) initViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// header, footer and borders take 6 lines
	height := max(min(viewportMaxHeight, m.height-6), viewportMinHeight)
	m.viewport = viewport.New(m.boxWidth()-2, height)
	m.ready = true
	m.refresh()
}

// refresh reloads entries into the viewport and keeps the newest in view.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.buildContent(m.boxWidth() - 2))
	m.viewport.GotoBottom()
}

// Visible reports whether the overlay is shown.
func (m Model) Visible() bool {
	return m.visible
}

// Toggle shows or hides the overlay.
func (m *Model) Toggle() {
	if m.visible {
		m.Hide()
		return
	}
	m.Show()
}

// Show makes the overlay visible with fresh content.
func (m *Model) Show() {
	m.visible = true
	if !m.ready {
		m.initViewport()
	}
	m.refresh()
}

// Hide hides the overlay.
func (m *Model) Hide() {
	m.visible = false
}

// SetSize records the screen size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.initViewport()
}
