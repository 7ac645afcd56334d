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

// accountFilters is the cycle order of the status filter; "" shows everything.
var accountFilters = []model.ExpiryStatus{
	"",
	model.ExpiryExpiring,
	model.ExpiryExpired,
	model.ExpiryActive,
	model.ExpiryUnknown,
}

type accountsState struct {
	filterIdx int
	cursor    int
}

func (a App) visibleAccounts() []model.Account {
	f := engine.AccountFilter{Status: accountFilters[a.accState.filterIdx]}
	return engine.FilterAccounts(a.accounts, f, a.now(), a.window)
}

func (a App) updateAccountsKey(key string) (App, bool) {
	n := len(a.visibleAccounts())
	st := &a.accState
	switch key {
	case "j", "down":
		st.cursor = clampCursor(st.cursor+1, n)
	case "k", "up":
		st.cursor = clampCursor(st.cursor-1, n)
	case "g":
		st.cursor = 0
	case "G":
		st.cursor = clampCursor(n-1, n)
	case "f":
		st.filterIdx = (st.filterIdx + 1) % len(accountFilters)
		st.cursor = 0
	default:
		return a, false
	}
	return a, true
}

func (a App) renderAccountsTab(cw, h int) string {
	t := theme.Active
	accounts := a.visibleAccounts()
	innerW := components.CardInnerWidth(cw)

	filter := string(accountFilters[a.accState.filterIdx])
	if filter == "" {
		filter = "all"
	}
	title := fmt.Sprintf("%s · %s", cli.FormatCount(len(accounts), "account"), filter)

	if len(accounts) == 0 {
		body := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("No accounts match.")
		return components.ContentCard(title, body, cw)
	}

	const (
		colExpiry = 12
		colLeft   = 16
		colStatus = 10
	)
	nameW := (innerW - colExpiry - colLeft - colStatus) / 2
	mailW := innerW - colExpiry - colLeft - colStatus - nameW

	header := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Bold(true).
		Render(fmt.Sprintf("%-*s%-*s%-*s%-*s%-*s", nameW, "Service", mailW, "Mail",
			colExpiry, "Expires", colLeft, "", colStatus, "Status"))

	rows := max(h-4, 1)
	start := scrollWindow(a.accState.cursor, rows)
	end := min(start+rows, len(accounts))

	now := a.now()
	lines := []string{header}
	for i := start; i < end; i++ {
		acc := accounts[i]
		selected := i == a.accState.cursor
		bg := t.Surface
		if selected {
			bg = t.SurfaceHover
		}
		cell := func(color lipgloss.Color, s string) string {
			return lipgloss.NewStyle().Foreground(color).Background(bg).Bold(selected).Render(s)
		}

		status := engine.AccountStatus(acc, now, a.window)
		left, leftColor := "", t.TextMuted
		if days, ok := engine.DaysRemaining(acc.ExpiryDate, now); ok {
			left = cli.FormatDays(days)
			leftColor = t.DueColor(days)
		}
		statusColor := t.Paid
		switch status {
		case model.ExpiryExpired:
			statusColor = t.Overdue
		case model.ExpiryExpiring:
			statusColor = t.Soon
		case model.ExpiryUnknown:
			statusColor = t.TextDim
		}

		lines = append(lines,
			cell(t.TextPrimary, fmt.Sprintf("%-*s", nameW, truncStr(acc.ServiceName, nameW-1)))+
				cell(t.TextMuted, fmt.Sprintf("%-*s", mailW, truncStr(acc.MainMail, mailW-1)))+
				cell(t.TextPrimary, fmt.Sprintf("%-*s", colExpiry, cli.FormatDate(acc.ExpiryDate)))+
				cell(leftColor, fmt.Sprintf("%-*s", colLeft, left))+
				cell(statusColor, fmt.Sprintf("%-*s", colStatus, status)))
	}

	var b strings.Builder
	b.WriteString(components.ContentCard(title, strings.Join(lines, "\n"), cw))
	if sel := accounts[clampCursor(a.accState.cursor, len(accounts))]; sel.Provider != "" || sel.BuyerNick != "" || sel.Note != "" {
		var parts []string
		if sel.Provider != "" {
			parts = append(parts, "provider "+sel.Provider)
		}
		if sel.BuyerNick != "" {
			parts = append(parts, "buyer "+sel.BuyerNick)
		}
		if !sel.PurchaseDate.IsZero() {
			parts = append(parts, "bought "+sel.PurchaseDate.String())
		}
		if sel.Note != "" {
			parts = append(parts, sel.Note)
		}
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)
		b.WriteString("\n")
		b.WriteString(muted.Render(" " + strings.Join(parts, " · ")))
	}
	return b.String()
}
