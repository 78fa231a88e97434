package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// RenderFormSection draws content inside a rounded border with the title
// and optional hint embedded in the top edge:
//
//	╭─ Title (hint) ─────╮
//	│content             │
//	╰────────────────────╯
func RenderFormSection(content []string, title, hint string, width int, focused bool, focusColor lipgloss.TerminalColor) string {
	width = max(width, 3)
	inner := width - 2

	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	if focused {
		borderColor = focusColor
	}
	border := lipgloss.NewStyle().Foreground(borderColor)

	var top string
	if title == "" {
		top = "╭" + strings.Repeat("─", inner) + "╮"
	} else {
		label := "─ " + title
		if hint != "" {
			label += " (" + hint + ")"
		}
		label += " "
		if ansi.StringWidth(label) > inner {
			label = ansi.Truncate(label, inner, "")
		}
		top = "╭" + label + strings.Repeat("─", inner-ansi.StringWidth(label)) + "╮"
	}

	var sb strings.Builder
	sb.WriteString(border.Render(top))
	sb.WriteString("\n")

	side := border.Render("│")
	for _, line := range content {
		if ansi.StringWidth(line) > inner {
			line = ansi.Truncate(line, inner, "")
		}
		sb.WriteString(side)
		sb.WriteString(line)
		sb.WriteString(strings.Repeat(" ", inner-ansi.StringWidth(line)))
		sb.WriteString(side)
		sb.WriteString("\n")
	}

	sb.WriteString(border.Render("╰" + strings.Repeat("─", inner) + "╯"))
	return sb.String()
}
