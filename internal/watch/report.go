package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/urlpad/internal/field"
	"github.com/zjrosen/urlpad/internal/submit"
	"github.com/zjrosen/urlpad/internal/ui/styles"
)

// FormatResult renders one submission as a single line, with the status
// painted in the colour the field would take.
func FormatResult(res submit.Result) string {
	lines := strings.Count(strings.TrimRight(res.Text, "\n"), "\n") + 1
	if strings.TrimSpace(res.Text) == "" {
		lines = 0
	}
	meta := lipgloss.NewStyle().Foreground(styles.TextMutedColor).
		Render(fmt.Sprintf("#%d  %d line(s)  %s", res.Seq, lines, res.Elapsed.Round(time.Millisecond)))

	if res.Outcome == submit.OutcomeNetwork {
		label := lipgloss.NewStyle().Foreground(styles.StatusErrorColor).
			Render("network error")
		return fmt.Sprintf("%s  %s: %v", meta, label, res.Err)
	}

	state, _ := field.StateFor(res.Outcome)
	badge := lipgloss.NewStyle().
		Background(state.Color()).
		Foreground(styles.StateForegroundColor).
		Render(fmt.Sprintf(" %d %s ", res.Status, res.Outcome))
	return meta + "  " + badge
}

// FormatReport is FormatResult followed by the line delta.
func FormatReport(r Report) string {
	delta := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).
		Render(fmt.Sprintf("+%d -%d", r.Added, r.Removed))
	return FormatResult(r.Result) + "  " + delta
}
