// Package field implements the debounced text field: every edit restarts a
// quiet-period timer, and when it elapses the field's current value is
// submitted and the outcome painted as the field's background colour.
//
// State transitions:
//
//	Idle -> (edit) -> Pending -> (quiet period) -> Submitting -> outcome -> Idle
//
// An edit while Pending restarts the timer. An edit while Submitting arms a
// new timer alongside the in-flight request; that request is not cancelled
// and its outcome still updates the state when it arrives, so the last
// response to arrive wins.
package field

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/urlpad/internal/debounce"
	"github.com/zjrosen/urlpad/internal/log"
	"github.com/zjrosen/urlpad/internal/submit"
	"github.com/zjrosen/urlpad/internal/ui/styles"
)

// DefaultID is the id of the url list field.
const DefaultID = "url_list"

// ResultMsg carries a finished submission back to the field that sent it.
type ResultMsg struct {
	FieldID string
	Result  submit.Result
}

// Config configures a field.
type Config struct {
	ID          string
	Submitter   *submit.Submitter
	Delay       time.Duration
	Placeholder string
	// Context bounds in-flight submissions. Defaults to context.Background().
	Context context.Context
}

// Model is the field component state.
type Model struct {
	id        string
	textarea  textarea.Model
	gate      debounce.Gate
	submitter *submit.Submitter
	ctx       context.Context

	state    State
	inFlight int
	last     *submit.Result
	width    int
	height   int
}

// New creates a field. Submitter is required.
func New(cfg Config) Model {
	if cfg.ID == "" {
		cfg.ID = DefaultID
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}

	ta := textarea.New()
	ta.Placeholder = cfg.Placeholder
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.MaxHeight = 0

	m := Model{
		id:        cfg.ID,
		textarea:  ta,
		gate:      debounce.NewGate(cfg.ID, cfg.Delay),
		submitter: cfg.Submitter,
		ctx:       cfg.Context,
		width:     60,
		height:    8,
	}
	m.applySize()
	m.applyState()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles edits, debounce ticks and submission results.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		before := m.textarea.Value()
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		if m.textarea.Value() == before {
			return m, cmd
		}
		return m, tea.Batch(cmd, m.inputChanged())

	case debounce.FireMsg:
		if !m.gate.Fire(msg) {
			return m, nil
		}
		return m, m.submit(m.textarea.Value())

	case ResultMsg:
		if msg.FieldID != m.id {
			return m, nil
		}
		m.applyResult(msg.Result)
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// inputChanged cancels the armed timer, if any, and arms a new one.
func (m *Model) inputChanged() tea.Cmd {
	cmd := m.gate.Arm()
	log.Debug(log.CatDebounce, "armed", "field", m.id, "delay", m.gate.Delay())
	return cmd
}

// submit runs the request off the event loop.
func (m *Model) submit(text string) tea.Cmd {
	m.inFlight++
	id, s, ctx := m.id, m.submitter, m.ctx
	return func() tea.Msg {
		return ResultMsg{FieldID: id, Result: s.Submit(ctx, text)}
	}
}

func (m *Model) applyResult(res submit.Result) {
	m.inFlight = max(m.inFlight-1, 0)
	m.last = &res

	state, ok := StateFor(res.Outcome)
	if !ok {
		// Network failures were logged by the submitter and leave the
		// colour alone.
		return
	}
	if state != m.state {
		log.Debug(log.CatUI, "state changed", "field", m.id, "from", m.state, "to", state, "seq", res.Seq)
	}
	m.state = state
	m.applyState()
}

// applyState repaints the textarea with the current state's background.
func (m *Model) applyState() {
	bg := m.state.Color()
	paint := func(s lipgloss.Style) lipgloss.Style {
		if bg == nil {
			return s.UnsetBackground().Foreground(styles.TextPrimaryColor)
		}
		return s.Background(bg).Foreground(styles.StateForegroundColor)
	}

	for _, st := range []*textarea.Style{&m.textarea.FocusedStyle, &m.textarea.BlurredStyle} {
		st.Base = paint(st.Base)
		st.Text = paint(st.Text)
		st.CursorLine = paint(st.CursorLine)
		st.EndOfBuffer = paint(st.EndOfBuffer)
		st.Placeholder = paint(st.Placeholder)
		st.Prompt = paint(st.Prompt)
	}

	// The textarea renders through a pointer to whichever style was active
	// when it was last focused or blurred; re-select it.
	if m.textarea.Focused() {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}

func (m *Model) applySize() {
	m.textarea.SetWidth(max(m.width-2, 1))
	m.textarea.SetHeight(max(m.height-2, 1))
}

// View renders the field inside a bordered section titled with its id.
func (m Model) View() string {
	lines := strings.Split(m.textarea.View(), "\n")
	var accent lipgloss.TerminalColor = styles.BorderHighlightFocusColor
	if c := m.state.Color(); c != nil {
		accent = c
	}
	return styles.RenderFormSection(lines, m.id, m.StatusHint(), m.width, m.textarea.Focused() || m.state != StateIdle, accent)
}

// StatusHint summarises the field's progress for the border title.
func (m Model) StatusHint() string {
	var parts []string
	if m.gate.Pending() {
		parts = append(parts, "pending")
	}
	if m.inFlight > 0 {
		parts = append(parts, fmt.Sprintf("submitting %d", m.inFlight))
	}
	if len(parts) == 0 && m.last != nil {
		switch m.last.Outcome {
		case submit.OutcomeNetwork:
			parts = append(parts, "network error, see logs")
		default:
			parts = append(parts, fmt.Sprintf("%d %s", m.last.Status, m.last.Outcome))
		}
	}
	return strings.Join(parts, ", ")
}

// SetSize sets the outer width and height including the border.
func (m *Model) SetSize(width, height int) {
	m.width = max(width, 3)
	m.height = max(height, 3)
	m.applySize()
}

// Focus focuses the textarea.
func (m *Model) Focus() tea.Cmd {
	return m.textarea.Focus()
}

// Blur removes focus from the textarea.
func (m *Model) Blur() {
	m.textarea.Blur()
}

// Focused reports whether the field has focus.
func (m Model) Focused() bool {
	return m.textarea.Focused()
}

// SetValue replaces the text and treats the change as an edit.
func (m *Model) SetValue(s string) tea.Cmd {
	if s == m.textarea.Value() {
		return nil
	}
	m.textarea.SetValue(s)
	return m.inputChanged()
}

// ID returns the field id.
func (m Model) ID() string { return m.id }

// Value returns the current text.
func (m Model) Value() string { return m.textarea.Value() }

// State returns the visual state.
func (m Model) State() State { return m.state }

// Pending reports whether a submission is scheduled.
func (m Model) Pending() bool { return m.gate.Pending() }

// InFlight returns the number of submissions awaiting a response.
func (m Model) InFlight() int { return m.inFlight }

// LastResult returns the most recently arrived result, if any.
func (m Model) LastResult() (submit.Result, bool) {
	if m.last == nil {
		return submit.Result{}, false
	}
	return *m.last, true
}
