// Package editor is the urlpad screen: a single debounced url_list field,
// a colour legend and the diagnostics overlay.
package editor

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/urlpad/internal/field"
	"github.com/zjrosen/urlpad/internal/log"
	"github.com/zjrosen/urlpad/internal/submit"
	"github.com/zjrosen/urlpad/internal/ui/shared/logoverlay"
	"github.com/zjrosen/urlpad/internal/ui/styles"
)

// Config holds what the screen needs from the command line.
type Config struct {
	Submitter *submit.Submitter
	Delay     time.Duration
	// Target is shown in the header, e.g. http://127.0.0.1:8000/projects.
	Target string
	// Initial text loaded into the field; it is submitted like an edit.
	Initial string
	Context context.Context
}

// Model holds the editor state.
type Model struct {
	field    field.Model
	logs     logoverlay.Model
	target   string
	initial  string
	delay    time.Duration
	width    int
	height   int
	quitting bool
}

// New creates the editor with the field focused.
func New(cfg Config) Model {
	f := field.New(field.Config{
		ID:          field.DefaultID,
		Submitter:   cfg.Submitter,
		Delay:       cfg.Delay,
		Placeholder: "Paste project URLs, one per line...",
		Context:     cfg.Context,
	})
	f.Focus()

	return Model{
		field:   f,
		logs:    logoverlay.New(),
		target:  cfg.Target,
		initial: cfg.Initial,
		delay:   cfg.Delay,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.field.Init()}
	if m.initial != "" {
		initial := m.initial
		cmds = append(cmds, func() tea.Msg { return loadMsg{text: initial} })
	}
	return tea.Batch(cmds...)
}

// loadMsg seeds the field from Config.Initial once the program runs.
type loadMsg struct {
	text string
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.field.SetSize(msg.Width, max(msg.Height-8, 5))
		m.logs.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+x":
			if !m.logs.Visible() {
				m.logs.Show()
				return m, nil
			}
		}
		if m.logs.Visible() {
			var cmd tea.Cmd
			m.logs, cmd = m.logs.Update(msg)
			return m, cmd
		}

	case logoverlay.CloseMsg:
		return m, nil

	case loadMsg:
		return m, m.field.SetValue(msg.text)

	case field.ResultMsg:
		var cmd tea.Cmd
		m.field, cmd = m.field.Update(msg)
		if msg.Result.Err != nil {
			log.Debug(log.CatUI, "submission failed", "seq", msg.Result.Seq)
		}
		if m.logs.Visible() {
			m.logs.Show()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.TextPrimaryColor).
		Render("urlpad")
	target := lipgloss.NewStyle().
		Foreground(styles.TextMutedColor).
		Render("  POST " + m.target)
	sb.WriteString(header + target)
	sb.WriteString("\n\n")

	sb.WriteString(m.field.View())
	sb.WriteString("\n\n")

	sb.WriteString(legend())
	sb.WriteString("\n")

	help := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	sb.WriteString(help.Render("ctrl+x logs  ctrl+c quit  submits after " + m.delay.String() + " of quiet"))

	return m.logs.Overlay(sb.String())
}

func legend() string {
	swatch := func(s field.State) string {
		return lipgloss.NewStyle().
			Background(s.Color()).
			Foreground(styles.StateForegroundColor).
			Render(" " + s.String() + " ")
	}
	return strings.Join([]string{
		swatch(field.StateSuccess),
		swatch(field.StateValidation),
		swatch(field.StateServerError),
	}, " ")
}

// Field returns the url_list field.
func (m Model) Field() field.Model {
	return m.field
}
