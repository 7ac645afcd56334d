package tui

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/obligo/internal/model"
	"github.com/theirongolddev/obligo/internal/tui/components"
)

var testNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type fakeLedger struct {
	obligations []model.Obligation
	accounts    []model.Account
	err         error
}

func (f *fakeLedger) ListObligations() ([]model.Obligation, error) {
	return append([]model.Obligation(nil), f.obligations...), f.err
}

func (f *fakeLedger) ListAccounts() ([]model.Account, error) {
	return f.accounts, nil
}

func (f *fakeLedger) Toggle(id string) (model.Obligation, error) {
	for i, o := range f.obligations {
		if o.Info().ID == id {
			f.obligations[i] = model.Toggle(o)
			return f.obligations[i], nil
		}
	}
	return nil, errors.New("not found")
}

func sampleLedger() *fakeLedger {
	pending := func(id string) model.Meta { return model.Meta{ID: id, Status: model.StatusPending} }
	return &fakeLedger{
		obligations: []model.Obligation{
			model.Revolving{
				Meta: pending("c1"), Type: model.KindCreditCard, Source: "VPBank Visa",
				StatementBalance: decimal.NewFromInt(4_000_000), AmountDue: decimal.NewFromInt(4_000_000),
				CreditLimit: decimal.NewFromInt(30_000_000), DueDate: model.MustDate("2024-06-15"),
			},
			model.Installment{
				Meta: pending("i1"), Description: "Laptop", Lender: "Home Credit",
				Principal: decimal.NewFromInt(12_000_000), AnnualRate: decimal.NewFromInt(24),
				TermMonths: 12, Method: model.MethodFlat, StartDate: model.MustDate("2024-01-01"),
			},
			model.Personal{
				Meta: pending("p1"), Type: model.KindPersonalLend, Counterparty: "Linh",
				Amount: decimal.NewFromInt(500_000),
			},
		},
		accounts: []model.Account{
			{ID: "a1", ServiceName: "Netflix", MainMail: "me@mail.test", ExpiryDate: model.MustDate("2024-06-11")},
		},
	}
}

func loadedApp(t *testing.T, l *fakeLedger) App {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	a := NewApp(l, Options{WindowDays: 15, Now: func() time.Time { return testNow }, Log: log})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.(App).Update(loadCmd(l)())
	return m.(App)
}

func press(t *testing.T, a App, keys ...string) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var m tea.Model
		m, cmd = a.Update(msg)
		a = m.(App)
	}
	return a, cmd
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := len(tab.Name) + 2
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Fatalf("tabAtX past the last tab = %d, want -1", got)
		}
	}
}

func TestLoadComputesSummary(t *testing.T) {
	a := loadedApp(t, sampleLedger())

	if !a.loaded || a.loadErr != nil {
		t.Fatalf("loaded=%v err=%v", a.loaded, a.loadErr)
	}
	if len(a.summary.Upcoming) != 1 || a.summary.Upcoming[0].Obligation.Info().ID != "c1" {
		t.Fatalf("upcoming = %+v, want only the card", a.summary.Upcoming)
	}
	if !a.summary.Receivable.Equal(decimal.NewFromInt(500_000)) {
		t.Fatalf("Receivable = %s, want 500000", a.summary.Receivable)
	}
	if len(a.feed) != 2 || a.feed[0].Account == nil {
		t.Fatalf("feed = %+v, want the Netflix account first", a.feed)
	}
	if len(a.installments) != 1 {
		t.Fatalf("installments = %d, want 1", len(a.installments))
	}
}

func TestTabKeys(t *testing.T) {
	a := loadedApp(t, sampleLedger())

	a, _ = press(t, a, "l")
	if a.activeTab != tabLedger {
		t.Fatalf("activeTab = %d, want ledger", a.activeTab)
	}
	a, _ = press(t, a, "a")
	if a.activeTab != tabAccounts {
		t.Fatalf("activeTab = %d, want accounts", a.activeTab)
	}
	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := m.(App).activeTab; got != tabSchedule {
		t.Fatalf("activeTab after right = %d, want schedule", got)
	}
}

func TestLedgerKindFilterAndSearch(t *testing.T) {
	a := loadedApp(t, sampleLedger())
	a, _ = press(t, a, "l")

	// Kinds order: wallet, card, installment.
	a, _ = press(t, a, "f", "f")
	if got := a.visibleObligations(); len(got) != 1 || got[0].Info().ID != "c1" {
		t.Fatalf("card filter shows %d rows", len(got))
	}
	a, _ = press(t, a, "F", "F")
	if got := len(a.visibleObligations()); got != 3 {
		t.Fatalf("all filter shows %d rows, want 3", got)
	}

	a, _ = press(t, a, "/")
	if !a.ledgerState.searching {
		t.Fatal("/ did not start search")
	}
	a, _ = press(t, a, "credit", "enter")
	if a.ledgerState.query != "credit" {
		t.Fatalf("query = %q, want credit", a.ledgerState.query)
	}
	if got := a.visibleObligations(); len(got) != 1 || got[0].Info().ID != "i1" {
		t.Fatalf("search matched %d rows, want the Home Credit installment", len(got))
	}

	a, _ = press(t, a, "esc")
	if a.ledgerState.query != "" {
		t.Fatalf("esc left query %q", a.ledgerState.query)
	}
}

func TestLedgerToggle(t *testing.T) {
	l := sampleLedger()
	a := loadedApp(t, l)
	a, _ = press(t, a, "l")

	a, cmd := press(t, a, "t")
	if cmd == nil {
		t.Fatal("t returned no command")
	}
	m, _ := a.Update(cmd())
	a = m.(App)

	if got := a.obligations[0].Info().Status; got != model.StatusPaid {
		t.Fatalf("card status = %s, want paid", got)
	}
	if len(a.summary.Upcoming) != 0 {
		t.Fatalf("paid card still upcoming: %+v", a.summary.Upcoming)
	}
	if !strings.Contains(a.flash, "VPBank Visa") || a.flashErr {
		t.Fatalf("flash = %q (err %v)", a.flash, a.flashErr)
	}

	m, _ = a.Update(flashExpiredMsg{seq: a.flashSeq})
	if m.(App).flash != "" {
		t.Fatal("flash not cleared")
	}
}

func TestEnterOpensSchedule(t *testing.T) {
	a := loadedApp(t, sampleLedger())
	a, _ = press(t, a, "l", "j", "enter")

	if a.activeTab != tabSchedule {
		t.Fatalf("activeTab = %d, want schedule", a.activeTab)
	}
	if a.installments[a.schedState.cursor].ID != "i1" {
		t.Fatal("schedule opened on the wrong installment")
	}

	a, _ = press(t, a, "l", "g", "enter")
	if a.activeTab != tabLedger || !a.flashErr {
		t.Fatalf("enter on a card: tab %d flashErr %v", a.activeTab, a.flashErr)
	}
}

func TestAccountsStatusFilter(t *testing.T) {
	l := sampleLedger()
	l.accounts = append(l.accounts,
		model.Account{ID: "a2", ServiceName: "Canva"},
		model.Account{ID: "a3", ServiceName: "Spotify", ExpiryDate: model.MustDate("2025-01-01")},
	)
	a := loadedApp(t, l)
	a, _ = press(t, a, "a")

	want := []int{3, 1, 0, 1, 1}
	for i, n := range want {
		if got := len(a.visibleAccounts()); got != n {
			t.Errorf("filter %q shows %d accounts, want %d", accountFilters[i], got, n)
		}
		a, _ = press(t, a, "f")
	}
}

func TestLoadErrorAndRetry(t *testing.T) {
	l := sampleLedger()
	l.err = errors.New("database is locked")
	a := loadedApp(t, l)

	if a.loadErr == nil {
		t.Fatal("load error not recorded")
	}
	if view := a.View(); !strings.Contains(view, "database is locked") {
		t.Fatal("error view does not show the cause")
	}

	a, cmd := press(t, a, "r")
	if a.loaded || cmd == nil {
		t.Fatalf("retry: loaded=%v cmd=%v", a.loaded, cmd != nil)
	}
}

func TestViewRendersEveryTab(t *testing.T) {
	a := loadedApp(t, sampleLedger())

	for i, tab := range components.Tabs {
		a.activeTab = i
		view := a.View()
		if view == "" {
			t.Fatalf("%s view is empty", tab.Name)
		}
		if got := len(strings.Split(view, "\n")); got != 40 {
			t.Errorf("%s view has %d lines, want 40", tab.Name, got)
		}
	}

	a.width = 40
	if !strings.Contains(a.View(), "too narrow") {
		t.Error("narrow terminal not reported")
	}
}
