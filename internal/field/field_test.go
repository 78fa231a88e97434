package field

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/urlpad/internal/debounce"
	"github.com/zjrosen/urlpad/internal/log"
	"github.com/zjrosen/urlpad/internal/submit"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// fakeTransport answers every Post with a fixed status or error and records
// the payloads it saw.
type fakeTransport struct {
	mu       sync.Mutex
	status   int
	err      error
	payloads []string
}

func (f *fakeTransport) Post(_ context.Context, _ string, p submit.Payload) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p.Text)
	return f.status, f.err
}

func (f *fakeTransport) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.payloads...)
}

func newField(t *testing.T, tr submit.Transport) Model {
	t.Helper()
	cleanup, err := log.Init("", 50)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	m := New(Config{
		Submitter: submit.New(tr),
		Delay:     time.Second,
	})
	m.Focus()
	return m
}

func typeText(m Model, s string) (Model, []tea.Cmd) {
	var cmds []tea.Cmd
	for _, r := range s {
		var cmd tea.Cmd
		m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		cmds = append(cmds, cmd)
	}
	return m, cmds
}

// fire delivers the FireMsg for generation gen and runs the resulting
// submission synchronously.
func fire(t *testing.T, m Model, gen uint64) (Model, *ResultMsg) {
	t.Helper()
	m, cmd := m.Update(debounce.FireMsg{ID: m.ID(), Gen: gen})
	if cmd == nil {
		return m, nil
	}
	msg, ok := cmd().(ResultMsg)
	require.True(t, ok)
	return m, &msg
}

func TestNew_Defaults(t *testing.T) {
	m := newField(t, &fakeTransport{status: 200})
	require.Equal(t, DefaultID, m.ID())
	require.Equal(t, StateIdle, m.State())
	require.False(t, m.Pending())
	require.Zero(t, m.InFlight())
	_, ok := m.LastResult()
	require.False(t, ok)
}

func TestUpdate_EditArmsTimer(t *testing.T) {
	m := newField(t, &fakeTransport{status: 200})

	m, cmds := typeText(m, "a")
	require.NotNil(t, cmds[0])
	require.True(t, m.Pending())
	require.Equal(t, "a", m.Value())
	require.Contains(t, m.StatusHint(), "pending")
}

func TestUpdate_NonEditingKeyDoesNotArm(t *testing.T) {
	m := newField(t, &fakeTransport{status: 200})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	require.False(t, m.Pending())
}

func TestUpdate_BurstSubmitsOnceWithLatestValue(t *testing.T) {
	tr := &fakeTransport{status: 200}
	m := newField(t, tr)

	m, _ = typeText(m, "abc")

	// Ticks from the first two keystrokes are stale
	m, res := fire(t, m, 1)
	require.Nil(t, res)
	m, res = fire(t, m, 2)
	require.Nil(t, res)
	require.Empty(t, tr.sent())

	m, res = fire(t, m, 3)
	require.NotNil(t, res)
	require.Equal(t, []string{"abc"}, tr.sent())
	require.Equal(t, 1, m.InFlight())
	require.False(t, m.Pending())

	m, _ = m.Update(*res)
	require.Equal(t, StateSuccess, m.State())
	require.Zero(t, m.InFlight())
}

func TestUpdate_OutcomeColors(t *testing.T) {
	tests := []struct {
		status int
		want   State
		hex    string
	}{
		{200, StateSuccess, "#90EE90"},
		{422, StateValidation, "#F08080"},
		{500, StateServerError, "#FFFFE0"},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			m := newField(t, &fakeTransport{status: tt.status})
			m, _ = typeText(m, "x")
			m, res := fire(t, m, 1)
			require.NotNil(t, res)
			m, _ = m.Update(*res)

			require.Equal(t, tt.want, m.State())
			require.Equal(t, tt.hex, m.State().Hex())
			require.Contains(t, m.StatusHint(), res.Result.Outcome.String())
		})
	}
}

func TestUpdate_NetworkErrorLeavesStateAndLogsOnce(t *testing.T) {
	tr := &fakeTransport{status: 422}
	m := newField(t, tr)

	m, _ = typeText(m, "x")
	m, res := fire(t, m, 1)
	m, _ = m.Update(*res)
	require.Equal(t, StateValidation, m.State())

	tr.mu.Lock()
	tr.err = errors.New("connection refused")
	tr.mu.Unlock()

	m, _ = typeText(m, "y")
	m, res = fire(t, m, 2)
	m, _ = m.Update(*res)

	require.Equal(t, StateValidation, m.State(), "network error must not repaint")
	require.Len(t, log.Matching("[ERROR]"), 1)
	require.Equal(t, "network error, see logs", m.StatusHint())
}

func TestUpdate_EditWhileSubmittingArmsNewTimer(t *testing.T) {
	tr := &fakeTransport{status: 200}
	m := newField(t, tr)

	m, _ = typeText(m, "a")
	m, cmd := m.Update(debounce.FireMsg{ID: m.ID(), Gen: 1})
	require.NotNil(t, cmd)
	require.Equal(t, 1, m.InFlight())

	// New input while the first request is in flight
	m, _ = typeText(m, "b")
	require.True(t, m.Pending())
	require.Equal(t, 1, m.InFlight())
	require.Contains(t, m.StatusHint(), "submitting 1")

	// The in-flight response still applies
	m, _ = m.Update(cmd().(ResultMsg))
	require.Equal(t, StateSuccess, m.State())
	require.True(t, m.Pending())
}

func TestUpdate_LastArrivingResponseWins(t *testing.T) {
	m := newField(t, &fakeTransport{status: 200})

	older := ResultMsg{FieldID: m.ID(), Result: submit.Result{Seq: 1, Status: 422, Outcome: submit.OutcomeValidation}}
	newer := ResultMsg{FieldID: m.ID(), Result: submit.Result{Seq: 2, Status: 200, Outcome: submit.OutcomeSuccess}}

	// Newer request answers first, then the older one overwrites it
	m, _ = m.Update(newer)
	m, _ = m.Update(older)
	require.Equal(t, StateValidation, m.State())

	last, ok := m.LastResult()
	require.True(t, ok)
	require.Equal(t, uint64(1), last.Seq)
}

func TestUpdate_ForeignMessagesIgnored(t *testing.T) {
	tr := &fakeTransport{status: 200}
	m := newField(t, tr)
	m, _ = typeText(m, "a")

	m, cmd := m.Update(debounce.FireMsg{ID: "other", Gen: 1})
	require.Nil(t, cmd)
	require.True(t, m.Pending())

	m, _ = m.Update(ResultMsg{FieldID: "other", Result: submit.Result{Outcome: submit.OutcomeServerError}})
	require.Equal(t, StateIdle, m.State())
}

func TestUpdate_SeparateSubmissionsOfSameText(t *testing.T) {
	tr := &fakeTransport{status: 200}
	m := newField(t, tr)

	m, _ = typeText(m, "a")
	m, res := fire(t, m, 1)
	m, _ = m.Update(*res)

	// Delete and retype the same character
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = typeText(m, "a")
	m, res = fire(t, m, 3)
	require.NotNil(t, res)

	require.Equal(t, []string{"a", "a"}, tr.sent())
}

func TestSetValue(t *testing.T) {
	m := newField(t, &fakeTransport{status: 200})

	cmd := m.SetValue("https://modrinth.com/mod/lithium")
	require.NotNil(t, cmd)
	require.True(t, m.Pending())
	require.Nil(t, m.SetValue("https://modrinth.com/mod/lithium"), "unchanged value is not an edit")
}

func TestView_ShowsIDAndHint(t *testing.T) {
	m := newField(t, &fakeTransport{status: 200})
	m.SetSize(40, 6)
	m, _ = typeText(m, "hi")

	view := m.View()
	require.Contains(t, view, "url_list")
	require.Contains(t, view, "(pending)")
	require.Contains(t, view, "hi")
}

func TestStateFor(t *testing.T) {
	s, ok := StateFor(submit.OutcomeSuccess)
	require.True(t, ok)
	require.Equal(t, StateSuccess, s)

	s, ok = StateFor(submit.OutcomeValidation)
	require.True(t, ok)
	require.Equal(t, StateValidation, s)

	s, ok = StateFor(submit.OutcomeServerError)
	require.True(t, ok)
	require.Equal(t, StateServerError, s)

	_, ok = StateFor(submit.OutcomeNetwork)
	require.False(t, ok)

	require.Nil(t, StateIdle.Color())
	require.Empty(t, StateIdle.Hex())
}
