// Package tui implements the interactive obligo dashboard.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/obligo/internal/engine"
	"github.com/theirongolddev/obligo/internal/model"
	"github.com/theirongolddev/obligo/internal/tui/components"
	"github.com/theirongolddev/obligo/internal/tui/theme"
)

// Ledger is what the dashboard reads, plus the one edit it can make.
type Ledger interface {
	ListObligations() ([]model.Obligation, error)
	ListAccounts() ([]model.Account, error)
	Toggle(id string) (model.Obligation, error)
}

// Options configure the dashboard.
type Options struct {
	WindowDays int
	Now        func() time.Time
	Log        logrus.FieldLogger
}

type dataLoadedMsg struct {
	obligations []model.Obligation
	accounts    []model.Account
	loadTime    time.Duration
	err         error
}

type toggledMsg struct {
	obligation model.Obligation
	err        error
}

type flashExpiredMsg struct{ seq int }

const (
	tabOverview = iota
	tabLedger
	tabAccounts
	tabSchedule
)

const (
	minTerminalWidth = 60
	maxContentWidth  = 160
	minContentHeight = 5
	flashDuration    = 3 * time.Second
)

// App is the root bubbletea model.
type App struct {
	ledger Ledger
	log    logrus.FieldLogger
	now    func() time.Time
	window int

	obligations  []model.Obligation
	accounts     []model.Account
	installments []model.Installment
	summary      model.Summary
	feed         []model.FeedItem
	kinds        []model.KindTotal

	loaded      bool
	loadErr     error
	loadTime    time.Duration
	lastRefresh time.Time
	refreshing  bool

	width     int
	height    int
	activeTab int
	showHelp  bool

	ledgerState ledgerState
	accState    accountsState
	schedState  scheduleState

	flash    string
	flashErr bool
	flashSeq int

	spinner spinner.Model
}

// NewApp creates the dashboard over ledger.
func NewApp(ledger Ledger, opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = engine.DefaultWindowDays
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		ledger:      ledger,
		log:         opts.Log,
		now:         opts.Now,
		window:      opts.WindowDays,
		spinner:     sp,
		ledgerState: newLedgerState(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadCmd(a.ledger),
		a.spinner.Tick,
	)
}

func loadCmd(l Ledger) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		obligations, err := l.ListObligations()
		if err != nil {
			return dataLoadedMsg{err: err, loadTime: time.Since(start)}
		}
		accounts, err := l.ListAccounts()
		return dataLoadedMsg{
			obligations: obligations,
			accounts:    accounts,
			loadTime:    time.Since(start),
			err:         err,
		}
	}
}

func toggleCmd(l Ledger, id string) tea.Cmd {
	return func() tea.Msg {
		o, err := l.Toggle(id)
		return toggledMsg{obligation: o, err: err}
	}
}

// recompute derives every view from the loaded records.
func (a *App) recompute() {
	today := a.now()
	a.summary = engine.AggregateWindow(a.obligations, today, a.window)
	a.feed = engine.MergeFeeds(a.summary.Upcoming, engine.ExpiringAccounts(a.accounts, today, a.window))
	a.kinds = engine.ByKind(a.obligations, today)

	a.installments = a.installments[:0]
	for _, o := range a.obligations {
		if inst, ok := o.(model.Installment); ok {
			a.installments = append(a.installments, inst)
		}
	}

	a.ledgerState.cursor = clampCursor(a.ledgerState.cursor, len(a.visibleObligations()))
	a.accState.cursor = clampCursor(a.accState.cursor, len(a.visibleAccounts()))
	a.schedState.cursor = clampCursor(a.schedState.cursor, len(a.installments))
}

func (a *App) setFlash(msg string, isErr bool) tea.Cmd {
	a.flashSeq++
	a.flash = msg
	a.flashErr = isErr
	seq := a.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{seq: seq}
	})
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || !a.loaded {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			a.moveCursor(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case dataLoadedMsg:
		a.refreshing = false
		a.loadTime = msg.loadTime
		a.lastRefresh = a.now()
		if msg.err != nil {
			a.log.WithError(msg.err).Error("loading ledger")
			if !a.loaded {
				a.loadErr = msg.err
				a.loaded = true
				return a, nil
			}
			return a, a.setFlash("refresh failed: "+msg.err.Error(), true)
		}
		a.loaded = true
		a.loadErr = nil
		a.obligations = msg.obligations
		a.accounts = msg.accounts
		a.recompute()
		if len(a.summary.Skipped) > 0 {
			a.log.WithField("skipped", a.summary.Skipped).Warn("malformed records left out of totals")
		}
		return a, nil

	case toggledMsg:
		if msg.err != nil {
			return a, a.setFlash(msg.err.Error(), true)
		}
		id := msg.obligation.Info().ID
		for i, o := range a.obligations {
			if o.Info().ID == id {
				a.obligations[i] = msg.obligation
				break
			}
		}
		a.recompute()
		return a, a.setFlash(fmt.Sprintf("%s marked %s", msg.obligation.Name(), msg.obligation.Info().Status), false)

	case flashExpiredMsg:
		if msg.seq == a.flashSeq {
			a.flash = ""
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}
	if a.loadErr != nil {
		if key == "r" {
			a.loadErr = nil
			a.loaded = false
			return a, tea.Batch(loadCmd(a.ledger), a.spinner.Tick)
		}
		if key == "q" || key == "esc" {
			return a, tea.Quit
		}
		return a, nil
	}

	if a.activeTab == tabLedger && a.ledgerState.searching {
		return a.updateLedgerSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	var (
		handled bool
		cmd     tea.Cmd
	)
	switch a.activeTab {
	case tabLedger:
		a, cmd, handled = a.updateLedgerKey(key)
	case tabAccounts:
		a, handled = a.updateAccountsKey(key)
	case tabSchedule:
		a, handled = a.updateScheduleKey(key)
	}
	if handled {
		return a, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, loadCmd(a.ledger)
		}
	case "tab", "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "shift+tab", "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	default:
		if runes := []rune(key); len(runes) == 1 {
			if idx := components.TabIdxByKey(runes[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a *App) moveCursor(delta int) {
	switch a.activeTab {
	case tabLedger:
		a.ledgerState.cursor = clampCursor(a.ledgerState.cursor+delta, len(a.visibleObligations()))
	case tabAccounts:
		a.accState.cursor = clampCursor(a.accState.cursor+delta, len(a.visibleAccounts()))
	case tabSchedule:
		a.schedState.cursor = clampCursor(a.schedState.cursor+delta, len(a.installments))
	}
}

func clampCursor(c, n int) int {
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// It must match RenderTabBar's layout: tabs separated by a single column.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1
	}
	return -1
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.loadErr != nil {
		return a.viewError()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  obligo needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) dialog(body string) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3).
		Render(body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active
	logo := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := logo.Render("◈ obligo") + muted.Render(" · what you owe, and when") + "\n\n" +
		a.spinner.View() + muted.Render(" Loading ledger...")
	return a.dialog(body)
}

func (a App) viewError() string {
	t := theme.Active
	title := lipgloss.NewStyle().Foreground(t.Overdue).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := title.Render("Could not load the ledger") + "\n\n" +
		muted.Render(a.loadErr.Error()) + "\n\n" +
		muted.Render("[r] retry  [q] quit")
	return a.dialog(body)
}

func (a App) viewHelp() string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		name     string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o l a s", "Jump to tab"},
			{"← → tab", "Previous / next tab"},
			{"j k", "Move selection"},
			{"g G", "First / last row"},
		}},
		{"Ledger", [][2]string{
			{"f F", "Next / previous kind"},
			{"/", "Search"},
			{"t space", "Toggle paid"},
			{"enter", "Open installment schedule"},
			{"esc", "Clear search"},
		}},
		{"Other", [][2]string{
			{"f", "Cycle account status (Accounts)"},
			{"r", "Reload from disk"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.name))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-9s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))
	return a.dialog(b.String())
}

func (a App) hints() string {
	switch a.activeTab {
	case tabLedger:
		return "[j/k]move [f]kind [/]search [t]oggle [enter]schedule [?]help [q]uit"
	case tabAccounts:
		return "[j/k]move [f]status [?]help [q]uit"
	case tabSchedule:
		return "[j/k]installment [?]help [q]uit"
	}
	return "[←/→]tabs [r]eload [?]help [q]uit"
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	info := fmt.Sprintf("today %s · window %dd · loaded %s",
		engine.Today(a.now()), a.window, a.lastRefresh.Format("15:04"))
	if a.refreshing {
		info = "reloading… · " + info
	}
	statusBar := components.RenderStatusBar(w, a.hints(), a.flash, info, a.flashErr)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabLedger:
		content = a.renderLedgerTab(cw, contentH)
	case tabAccounts:
		content = a.renderAccountsTab(cw, contentH)
	case tabSchedule:
		content = a.renderScheduleTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// scrollWindow returns the first visible row so that cursor stays on screen.
func scrollWindow(cursor, rows int) int {
	if rows <= 0 || cursor < rows {
		return 0
	}
	return cursor - rows + 1
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
