package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/model"
	"github.com/theirongolddev/obligo/internal/tui/components"
	"github.com/theirongolddev/obligo/internal/tui/theme"
)

const compactWidth = 100

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	sum := a.summary

	overdue := sum.OverdueCount()
	dueNote := fmt.Sprintf("%d due in %dd", len(sum.Upcoming), a.window)
	dueColor := t.TextPrimary
	if overdue > 0 {
		dueNote = fmt.Sprintf("%d overdue", overdue)
		dueColor = t.Overdue
	}

	metrics := []components.Metric{
		{Label: "Total payable", Value: cli.FormatMoney(sum.TotalPayable), Note: cli.FormatCount(len(a.obligations), "record"), Color: t.Money},
		{Label: "Due this cycle", Value: cli.FormatMoney(sum.MonthlyDue), Note: dueNote, Color: dueColor},
		{Label: "Receivable", Value: cli.FormatMoney(sum.Receivable), Color: t.Receivable},
	}
	if len(a.accounts) > 0 {
		expiring := 0
		for _, f := range a.feed {
			if f.Account != nil {
				expiring++
			}
		}
		metrics = append(metrics, components.Metric{
			Label: "Accounts",
			Value: fmt.Sprint(len(a.accounts)),
			Note:  fmt.Sprintf("%d expiring", expiring),
		})
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	if cw < compactWidth {
		b.WriteString(components.ContentCard(a.feedTitle(), a.renderFeed(components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("By kind", a.renderKindBars(components.CardInnerWidth(cw)), cw))
	} else {
		widths := components.LayoutRow(cw, 2)
		feedW := widths[0] + widths[0]/3
		kindW := cw - feedW
		b.WriteString(components.CardRow([]string{
			components.ContentCard(a.feedTitle(), a.renderFeed(components.CardInnerWidth(feedW)), feedW),
			components.ContentCard("By kind", a.renderKindBars(components.CardInnerWidth(kindW)), kindW),
		}))
	}

	if len(sum.Skipped) > 0 {
		warn := lipgloss.NewStyle().Foreground(t.Soon).Background(t.Background)
		b.WriteString("\n")
		b.WriteString(warn.Render(fmt.Sprintf(" %s skipped: %s",
			cli.FormatCount(len(sum.Skipped), "malformed record"), strings.Join(sum.Skipped, ", "))))
	}
	return b.String()
}

func (a App) feedTitle() string {
	return fmt.Sprintf("Coming up · next %d days", a.window)
}

// renderFeed lists the merged upcoming obligations and expiring accounts.
func (a App) renderFeed(innerW int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(a.feed) == 0 {
		return muted.Render("Nothing due. Enjoy it.")
	}

	const daysW, amountW = 16, 16
	nameW := innerW - daysW - amountW - 2
	if nameW < 8 {
		nameW = 8
	}

	space := lipgloss.NewStyle().Background(t.Surface)
	lines := make([]string, 0, len(a.feed))
	for _, f := range a.feed {
		days := lipgloss.NewStyle().Foreground(t.DueColor(f.DaysLeft)).Background(t.Surface).
			Render(fmt.Sprintf("%-*s", daysW, cli.FormatDays(f.DaysLeft)))

		var name, amount string
		nameColor := t.TextPrimary
		switch {
		case f.Account != nil:
			name = f.Account.Account.ServiceName + " (account)"
			amount = "renew"
			nameColor = t.TextMuted
		case f.Upcoming != nil:
			name = f.Upcoming.Obligation.Name()
			amount = cli.FormatMoney(f.Upcoming.DueAmount)
			if f.Upcoming.Obligation.Kind() == model.KindPlanned {
				nameColor = t.Planned
			}
		}
		nameStyle := lipgloss.NewStyle().Foreground(nameColor).Background(t.Surface)
		amountStyle := lipgloss.NewStyle().Foreground(t.Money).Background(t.Surface)

		lines = append(lines, days+
			nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(name, nameW)))+
			space.Render("  ")+
			amountStyle.Render(fmt.Sprintf("%*s", amountW, amount)))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderKindBars(innerW int) string {
	t := theme.Active
	if len(a.kinds) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No obligations yet.")
	}

	bars := make([]components.Bar, 0, len(a.kinds))
	for _, k := range a.kinds {
		color := t.Money
		if k.Kind == model.KindPlanned {
			color = t.Planned
		}
		v, _ := k.Payable.Float64()
		bars = append(bars, components.Bar{
			Label:   fmt.Sprintf("%s (%d)", k.Kind.Label(), k.Count),
			Value:   v,
			Display: cli.FormatCompact(k.Payable),
			Color:   color,
		})
	}
	return components.HorizontalBars(bars, innerW)
}
