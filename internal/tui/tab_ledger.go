package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/obligo/internal/cli"
	"github.com/theirongolddev/obligo/internal/engine"
	"github.com/theirongolddev/obligo/internal/model"
	"github.com/theirongolddev/obligo/internal/tui/components"
	"github.com/theirongolddev/obligo/internal/tui/theme"
)

type ledgerState struct {
	kindIdx   int // 0 is every kind, otherwise model.Kinds[kindIdx-1]
	cursor    int
	searching bool
	input     textinput.Model
	query     string
}

func newLedgerState() ledgerState {
	return ledgerState{input: newSearchInput()}
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "name, lender or note"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 40
	return ti
}

func (s ledgerState) kind() (model.Kind, bool) {
	if s.kindIdx == 0 {
		return "", false
	}
	return model.Kinds[s.kindIdx-1], true
}

// visibleObligations applies the kind filter and search query, keeping store order.
func (a App) visibleObligations() []model.Obligation {
	obs := a.obligations
	if k, ok := a.ledgerState.kind(); ok {
		obs = engine.FilterByKind(obs, k)
	}
	return engine.Search(obs, a.ledgerState.query)
}

func (a App) selectedObligation() (model.Obligation, bool) {
	obs := a.visibleObligations()
	if len(obs) == 0 {
		return nil, false
	}
	return obs[clampCursor(a.ledgerState.cursor, len(obs))], true
}

func (a App) updateLedgerKey(key string) (App, tea.Cmd, bool) {
	n := len(a.visibleObligations())
	st := &a.ledgerState
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
		st.kindIdx = (st.kindIdx + 1) % (len(model.Kinds) + 1)
		st.cursor = 0
	case "F":
		st.kindIdx = (st.kindIdx + len(model.Kinds)) % (len(model.Kinds) + 1)
		st.cursor = 0
	case "/":
		st.searching = true
		st.input = newSearchInput()
		st.input.SetValue(st.query)
		return a, st.input.Focus(), true
	case "esc":
		if st.query == "" {
			return a, nil, false
		}
		st.query = ""
		st.cursor = 0
	case "t", " ":
		o, ok := a.selectedObligation()
		if !ok {
			return a, nil, true
		}
		return a, toggleCmd(a.ledger, o.Info().ID), true
	case "enter":
		o, ok := a.selectedObligation()
		if !ok {
			return a, nil, true
		}
		if _, isInst := o.(model.Installment); !isInst {
			return a, a.setFlash("only installments have a schedule", true), true
		}
		for i, inst := range a.installments {
			if inst.ID == o.Info().ID {
				a.schedState.cursor = i
				break
			}
		}
		a.activeTab = tabSchedule
	default:
		return a, nil, false
	}
	return a, nil, true
}

// updateLedgerSearch handles key events while the search box is focused.
func (a App) updateLedgerSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := &a.ledgerState
	switch msg.String() {
	case "enter":
		st.query = strings.TrimSpace(st.input.Value())
		st.searching = false
		st.cursor = 0
		st.input.Blur()
		return a, nil
	case "esc":
		st.searching = false
		st.input.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	st.input, cmd = st.input.Update(msg)
	return a, cmd
}

func (a App) renderLedgerTab(cw, h int) string {
	t := theme.Active
	obs := a.visibleObligations()

	var b strings.Builder
	b.WriteString(a.renderKindFilter())
	b.WriteString("\n")

	detail := ""
	if o, ok := a.selectedObligation(); ok {
		detail = components.ContentCard(o.Kind().Label()+" · "+o.Name(), a.renderObligationDetail(o, components.CardInnerWidth(cw)), cw)
	}
	listH := h - 2 - lipgloss.Height(detail)
	if listH < 3 {
		listH = 3
	}

	innerW := components.CardInnerWidth(cw)
	if len(obs) == 0 {
		msg := "No obligations."
		if a.ledgerState.query != "" {
			msg = fmt.Sprintf("Nothing matches %q.", a.ledgerState.query)
		}
		body := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(msg)
		b.WriteString(components.ContentCard("", body, cw))
		return b.String()
	}

	rows := listH - 3
	if rows < 1 {
		rows = 1
	}
	start := scrollWindow(a.ledgerState.cursor, rows)
	end := min(start+rows, len(obs))

	today := a.now()
	lines := []string{ledgerHeader(innerW)}
	for i := start; i < end; i++ {
		lines = append(lines, a.ledgerRow(obs[i], innerW, i == a.ledgerState.cursor, today))
	}
	title := fmt.Sprintf("%s  %d/%d", cli.FormatCount(len(obs), "obligation"), a.ledgerState.cursor+1, len(obs))
	b.WriteString(components.ContentCard(title, strings.Join(lines, "\n"), cw))
	if detail != "" {
		b.WriteString("\n")
		b.WriteString(detail)
	}
	return b.String()
}

func (a App) renderKindFilter() string {
	t := theme.Active
	on := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true).Padding(0, 1)
	off := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background).Padding(0, 1)

	labels := []string{"All"}
	for _, k := range model.Kinds {
		labels = append(labels, k.Label())
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		if i == a.ledgerState.kindIdx {
			parts[i] = on.Render(l)
		} else {
			parts[i] = off.Render(l)
		}
	}
	line := strings.Join(parts, "")

	switch {
	case a.ledgerState.searching:
		line += "  " + a.ledgerState.input.View()
	case a.ledgerState.query != "":
		q := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Background)
		line += "  " + q.Render("/"+a.ledgerState.query)
	}
	return line
}

const (
	colKind   = 17
	colDue    = 12
	colDays   = 16
	colAmount = 16
	colStatus = 8
)

func ledgerNameWidth(innerW int) int {
	w := innerW - colKind - colDue - colDays - colAmount - colStatus
	if w < 10 {
		w = 10
	}
	return w
}

func ledgerHeader(innerW int) string {
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Bold(true)
	return style.Render(fmt.Sprintf("%-*s%-*s%-*s%-*s%*s  %-*s",
		colKind, "Kind", ledgerNameWidth(innerW), "Name", colDue, "Due", colDays, "",
		colAmount-2, "Amount", colStatus, "Status"))
}

func (a App) ledgerRow(o model.Obligation, innerW int, selected bool, today time.Time) string {
	t := theme.Active
	bg := t.Surface
	if selected {
		bg = t.SurfaceHover
	}

	due, amount, err := engine.NextDue(o, today)
	dueStr, daysStr := "-", ""
	daysColor := t.TextMuted
	if err == nil && !due.IsZero() {
		dueStr = due.String()
		if days, ok := engine.DaysRemaining(due, today); ok {
			daysStr = cli.FormatDays(days)
			daysColor = t.DueColor(days)
		}
	}
	if err != nil {
		daysStr = "invalid"
		daysColor = t.Overdue
	}
	if amount.IsZero() {
		switch v := o.(type) {
		case model.Installment:
			amount = v.Principal
		case model.Personal:
			amount = v.Amount
		}
	}

	status := o.Info().Status
	textColor := t.TextPrimary
	if status == model.StatusPaid {
		textColor = t.TextDim
		daysStr = ""
	}
	amountColor := t.Money
	if o.Kind() == model.KindPersonalLend {
		amountColor = t.Receivable
	}

	cell := func(color lipgloss.Color, s string) string {
		return lipgloss.NewStyle().Foreground(color).Background(bg).Bold(selected).Render(s)
	}
	nameW := ledgerNameWidth(innerW)
	return cell(t.TextMuted, fmt.Sprintf("%-*s", colKind, o.Kind().Label())) +
		cell(textColor, fmt.Sprintf("%-*s", nameW, truncStr(o.Name(), nameW-1))) +
		cell(textColor, fmt.Sprintf("%-*s", colDue, dueStr)) +
		cell(daysColor, fmt.Sprintf("%-*s", colDays, daysStr)) +
		cell(amountColor, fmt.Sprintf("%*s", colAmount-2, cli.FormatMoney(amount))) +
		cell(textColor, fmt.Sprintf("  %-*s", colStatus, status))
}

// renderObligationDetail shows the variant-specific fields of the selected record.
func (a App) renderObligationDetail(o model.Obligation, innerW int) string {
	t := theme.Active
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	kv := func(k, v string) string {
		return label.Render(fmt.Sprintf("%-14s", k)) + value.Render(v)
	}
	barW := min(innerW-20, 40)
	if barW < 8 {
		barW = 8
	}

	var lines []string
	switch v := o.(type) {
	case model.Revolving:
		lines = append(lines,
			kv("Statement", cli.FormatMoney(v.StatementBalance))+space.Render("   ")+kv("Due", cli.FormatMoney(v.AmountDue)),
			label.Render(fmt.Sprintf("%-14s", "Paid"))+components.PaidBar(engine.PaidProgress(v), barW),
		)
		if v.CreditLimit.IsPositive() {
			used, _ := v.StatementBalance.Div(v.CreditLimit).Float64()
			lines = append(lines, components.UtilizationBar("Utilization", used, 13, barW))
		}
		if v.Note != "" {
			lines = append(lines, kv("Note", v.Note))
		}
	case model.Installment:
		lines = append(lines, kv("Lender", v.Lender)+space.Render("   ")+kv("Rate", cli.FormatRate(v.AnnualRate)+" "+string(v.Method)))
		sched, err := engine.ComputeSchedule(v)
		if err != nil {
			lines = append(lines, kv("Schedule", err.Error()))
			break
		}
		outstanding, periods, _ := engine.Outstanding(v, engine.Today(a.now()))
		lines = append(lines,
			kv("Monthly", cli.FormatMoney(sched.MonthlyPayment))+space.Render("   ")+kv("Outstanding", cli.FormatMoney(outstanding)),
			label.Render(fmt.Sprintf("%-14s", "Progress"))+components.PaidBar(float64(periods)/float64(v.TermMonths), barW),
		)
	case model.Personal:
		if v.Note != "" {
			lines = append(lines, kv("Note", v.Note))
		}
		lines = append(lines, kv("Due date", cli.FormatDate(v.DueDate)))
	case model.Planned:
		lines = append(lines, kv("Planned for", cli.FormatDate(v.PlannedDate)))
	}
	lines = append(lines, kv("Updated", o.Info().UpdatedAt.Local().Format("2006-01-02 15:04")))
	return strings.Join(lines, "\n")
}

// moneyOrDash renders a zero amount as a dash.
func moneyOrDash(v decimal.Decimal) string {
	if v.IsZero() {
		return "-"
	}
	return cli.FormatMoney(v)
}
