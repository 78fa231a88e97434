package field

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/urlpad/internal/submit"
	"github.com/zjrosen/urlpad/internal/ui/styles"
)

// State is the field's visual state, shown as its background colour.
type State int

const (
	StateIdle        State = iota // no submission has completed yet
	StateSuccess                  // light green
	StateValidation               // light coral
	StateServerError              // light yellow
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSuccess:
		return "success"
	case StateValidation:
		return "validation error"
	case StateServerError:
		return "server error"
	default:
		return "unknown"
	}
}

// Color returns the background colour for s, or nil for StateIdle.
func (s State) Color() lipgloss.TerminalColor {
	switch s {
	case StateSuccess:
		return styles.StateSuccessColor
	case StateValidation:
		return styles.StateValidationColor
	case StateServerError:
		return styles.StateServerErrorColor
	default:
		return nil
	}
}

// Hex returns the dark-background hex value of Color, or "" for StateIdle.
func (s State) Hex() string {
	if c, ok := s.Color().(lipgloss.AdaptiveColor); ok {
		return c.Dark
	}
	return ""
}

// StateFor maps a submission outcome to the visual state it produces.
// Network failures produce none and report false.
func StateFor(o submit.Outcome) (State, bool) {
	switch o {
	case submit.OutcomeSuccess:
		return StateSuccess, true
	case submit.OutcomeValidation:
		return StateValidation, true
	case submit.OutcomeServerError:
		return StateServerError, true
	default:
		return StateIdle, false
	}
}
