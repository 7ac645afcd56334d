package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/engine"
	"github.com/theirongolddev/obligo/internal/model"
	"github.com/theirongolddev/obligo/internal/tui/components"
	"github.com/theirongolddev/obligo/internal/tui/theme"
)

type scheduleState struct {
	cursor int
}

func (a App) updateScheduleKey(key string) (App, bool) {
	n := len(a.installments)
	switch key {
	case "j", "down":
		a.schedState.cursor = clampCursor(a.schedState.cursor+1, n)
	case "k", "up":
		a.schedState.cursor = clampCursor(a.schedState.cursor-1, n)
	default:
		return a, false
	}
	return a, true
}

func (a App) renderScheduleTab(cw, h int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(a.installments) == 0 {
		return components.ContentCard("Schedule", muted.Render("No installments recorded."), cw)
	}

	listW := min(cw/3, 40)
	tableW := cw - listW

	// Installment picker.
	pick := make([]string, len(a.installments))
	for i, inst := range a.installments {
		style := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
		prefix := "  "
		if i == a.schedState.cursor {
			style = style.Background(t.SurfaceHover).Foreground(t.AccentBright).Bold(true)
			prefix = "▸ "
		}
		innerW := components.CardInnerWidth(listW)
		pick[i] = style.Render(fmt.Sprintf("%-*s", innerW, truncStr(prefix+inst.Name(), innerW)))
	}
	picker := components.ContentCard("Installments", strings.Join(pick, "\n"), listW)

	inst := a.installments[clampCursor(a.schedState.cursor, len(a.installments))]
	table := components.ContentCard(inst.Name(), a.renderSchedule(inst, components.CardInnerWidth(tableW), h-3), tableW)

	return components.CardRow([]string{picker, table})
}

// renderSchedule prints the summary line, a balance sparkline and the period table,
// scrolled so the next payment is visible.
func (a App) renderSchedule(inst model.Installment, innerW, maxLines int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface)

	sched, err := engine.ComputeSchedule(inst)
	if err != nil {
		return lipgloss.NewStyle().Foreground(t.Overdue).Background(t.Surface).Render(err.Error())
	}
	today := engine.Today(a.now())
	next, hasNext := engine.NextPayment(sched, today)
	outstanding, periods, _ := engine.Outstanding(inst, today)

	kv := func(k, v string) string { return label.Render(k+" ") + value.Render(v) + space.Render("   ") }
	lines := []string{
		kv("Principal", cli.FormatMoney(inst.Principal)) +
			kv("Rate", cli.FormatRate(inst.AnnualRate)+" "+string(inst.Method)) +
			kv("Monthly", cli.FormatMoney(sched.MonthlyPayment)),
		kv("Interest", moneyOrDash(sched.TotalInterest())) +
			kv("Total", cli.FormatMoney(sched.TotalPaid())) +
			kv("Left", fmt.Sprintf("%s (%d/%d paid)", cli.FormatMoney(outstanding), periods, inst.TermMonths)),
	}

	balances := make([]float64, len(sched.Entries))
	for i, e := range sched.Entries {
		balances[i], _ = e.Remaining.Float64()
	}
	lines = append(lines, label.Render("Balance   ")+components.Sparkline(balances, t.Accent), "")

	const colN, colDate, colMoney = 5, 12, 15
	lines = append(lines, lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Bold(true).
		Render(fmt.Sprintf("%-*s%-*s%*s%*s%*s%*s", colN, "#", colDate, "Date",
			colMoney, "Payment", colMoney, "Interest", colMoney, "Principal", colMoney, "Remaining")))

	rows := max(maxLines-len(lines)-2, 1)
	focus := len(sched.Entries) - 1
	if hasNext {
		focus = next.Period - 1
	}
	start := max(focus-rows/3, 0)
	end := min(start+rows, len(sched.Entries))

	for _, e := range sched.Entries[start:end] {
		color := t.TextPrimary
		marker := " "
		switch {
		case hasNext && e.Period == next.Period:
			color = t.AccentBright
			marker = "▸"
		case e.Period <= periods:
			color = t.TextDim
		}
		style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
		lines = append(lines, style.Render(fmt.Sprintf("%-*s%-*s%*s%*s%*s%*s",
			colN, fmt.Sprintf("%s%d", marker, e.Period), colDate, e.Date.String(),
			colMoney, cli.FormatAmount(e.Payment), colMoney, cli.FormatAmount(e.Interest),
			colMoney, cli.FormatAmount(e.Principal), colMoney, cli.FormatAmount(e.Remaining))))
	}
	for i, l := range lines {
		lines[i] = truncateLine(l, innerW)
	}
	return strings.Join(lines, "\n")
}

// truncateLine cuts a styled line to width cells.
func truncateLine(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
