package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/obligo/internal/tui/theme"
)

// Sparkline renders a unicode sparkline from values. Negative values count as zero.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		buf.WriteRune(blocks[idx])
	}

	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label   string
	Value   float64
	Display string // right-hand text; defaults to the value
	Color   lipgloss.Color
}

// HorizontalBars renders one bar per row scaled to the largest value, fitting width.
func HorizontalBars(bars []Bar, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW, displayW := 0, 0
	peak := 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		displayW = max(displayW, lipgloss.Width(display(b)))
		peak = max(peak, b.Value)
	}
	barW := width - labelW - displayW - 2
	if barW < 4 {
		barW = 4
	}
	if peak == 0 {
		peak = 1
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, len(bars))
	for i, b := range bars {
		n := int(b.Value / peak * float64(barW))
		if b.Value > 0 && n == 0 {
			n = 1
		}
		color := b.Color
		if color == "" {
			color = t.Accent
		}
		fill := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(strings.Repeat("█", n))
		rest := space.Render(strings.Repeat(" ", barW-n))
		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s", labelW, b.Label)) + space.Render(" ") +
			fill + rest + space.Render(" ") +
			valueStyle.Render(fmt.Sprintf("%*s", displayW, display(b)))
	}
	return strings.Join(lines, "\n")
}

func display(b Bar) string {
	if b.Display != "" {
		return b.Display
	}
	return fmt.Sprintf("%.0f", b.Value)
}
