// Package debounce coalesces bursts of input events into a single action
// that runs once a quiet period has elapsed since the latest event.
//
// At most one timer is armed at any time and arming invalidates the prior
// one. Gate expresses this for the bubbletea event loop, where ticks cannot
// be stopped and are instead ignored by generation. Debouncer expresses it
// with real timers for callers outside an event loop.
package debounce

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FireMsg is delivered when an armed Gate's quiet period elapses.
type FireMsg struct {
	ID  string
	Gen uint64
}

// Gate is a value type owned by a single bubbletea model.
type Gate struct {
	id    string
	delay time.Duration
	gen   uint64
	armed bool
}

// NewGate creates a gate. The id scopes FireMsgs so several gates can share
// one program.
func NewGate(id string, delay time.Duration) Gate {
	return Gate{id: id, delay: delay}
}

// Arm invalidates any armed tick and returns a command delivering a FireMsg
// for the new generation after the delay.
func (g *Gate) Arm() tea.Cmd {
	g.gen++
	g.armed = true
	msg := FireMsg{ID: g.id, Gen: g.gen}
	return tea.Tick(g.delay, func(time.Time) tea.Msg {
		return msg
	})
}

// Fire reports whether msg belongs to the live generation and disarms the
// gate if so. Stale or foreign messages return false.
func (g *Gate) Fire(msg FireMsg) bool {
	if msg.ID != g.id || !g.armed || msg.Gen != g.gen {
		return false
	}
	g.armed = false
	return true
}

// Cancel invalidates the armed tick, if any, without arming a new one.
func (g *Gate) Cancel() {
	if g.armed {
		g.gen++
		g.armed = false
	}
}

// Pending reports whether a tick is armed.
func (g Gate) Pending() bool {
	return g.armed
}

// Delay returns the quiet period.
func (g Gate) Delay() time.Duration {
	return g.delay
}

// ID returns the gate's scope.
func (g Gate) ID() string {
	return g.id
}
