package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/obligo/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar: key hints on the left, message and
// data info on the right. A non-empty flash replaces the hints.
func RenderStatusBar(width int, hints, flash, right string, flashIsError bool) string {
	t := theme.Active

	left := " " + hints
	leftStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if flash != "" {
		left = " " + flash
		color := t.Paid
		if flashIsError {
			color = t.Overdue
		}
		leftStyle = leftStyle.Foreground(color).Bold(true)
	}
	rightStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	if right != "" {
		right += " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	fill := lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", padding))

	return leftStyle.Render(left) + fill + rightStyle.Render(right)
}
