package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/obligo/internal/model"
)

var testToday = time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

func pending(id string) model.Meta {
	return model.Meta{ID: id, Status: model.StatusPending}
}

func card(t *testing.T, id, due, amount string) model.Revolving {
	t.Helper()
	return model.Revolving{
		Meta:             pending(id),
		Type:             model.KindCreditCard,
		Source:           id,
		StatementBalance: dec(t, amount),
		AmountDue:        dec(t, amount),
		DueDate:          day(t, due),
	}
}

func personal(t *testing.T, id string, kind model.Kind, due, amount string) model.Personal {
	t.Helper()
	return model.Personal{
		Meta:         pending(id),
		Type:         kind,
		Counterparty: id,
		Amount:       dec(t, amount),
		DueDate:      day(t, due),
	}
}

func upcomingIDs(s model.Summary) []string {
	ids := make([]string, len(s.Upcoming))
	for i, u := range s.Upcoming {
		ids[i] = u.Obligation.Info().ID
	}
	return ids
}

func assertIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestAggregate_PlannedOnlyInFeed(t *testing.T) {
	planned := model.Planned{
		Meta:        pending("trip"),
		Description: "trip",
		Amount:      dec(t, "3000000"),
		PlannedDate: day(t, "2024-06-20"),
	}

	sum := Aggregate([]model.Obligation{planned}, testToday)
	if !sum.TotalPayable.IsZero() || !sum.MonthlyDue.IsZero() {
		t.Fatalf("totals = %s/%s, want 0/0", sum.TotalPayable, sum.MonthlyDue)
	}
	assertIDs(t, upcomingIDs(sum), []string{"trip"})
	if sum.Upcoming[0].DaysLeft != 10 {
		t.Fatalf("DaysLeft = %d, want 10", sum.Upcoming[0].DaysLeft)
	}
}

func TestAggregate_ZeroBalanceCardNotUpcoming(t *testing.T) {
	c := card(t, "visa", "2024-06-11", "0")

	sum := Aggregate([]model.Obligation{c}, testToday)
	if len(sum.Upcoming) != 0 {
		t.Fatalf("upcoming = %v, want empty", upcomingIDs(sum))
	}
	if !sum.TotalPayable.IsZero() {
		t.Fatalf("TotalPayable = %s, want 0", sum.TotalPayable)
	}
}

func TestAggregate_PersonalLoanDueToday(t *testing.T) {
	loan := personal(t, "an", model.KindPersonalLoan, "2024-06-10", "5000000")

	sum := Aggregate([]model.Obligation{loan}, testToday)
	assertIDs(t, upcomingIDs(sum), []string{"an"})
	if sum.Upcoming[0].DaysLeft != 0 {
		t.Fatalf("DaysLeft = %d, want 0", sum.Upcoming[0].DaysLeft)
	}
	if sum.Upcoming[0].Overdue() {
		t.Fatal("due today reported as overdue")
	}
	want := dec(t, "5000000")
	if !sum.TotalPayable.Equal(want) || !sum.MonthlyDue.Equal(want) {
		t.Fatalf("totals = %s/%s, want %s/%s", sum.TotalPayable, sum.MonthlyDue, want, want)
	}
}

func TestAggregate_PaidAndLentExcluded(t *testing.T) {
	paid := personal(t, "paid", model.KindPersonalLoan, "2024-06-12", "100")
	paid.Status = model.StatusPaid
	lent := personal(t, "lent", model.KindPersonalLend, "2024-06-12", "700")

	sum := Aggregate([]model.Obligation{paid, lent}, testToday)
	if len(sum.Upcoming) != 0 {
		t.Fatalf("upcoming = %v, want empty", upcomingIDs(sum))
	}
	if !sum.TotalPayable.IsZero() {
		t.Fatalf("TotalPayable = %s, want 0", sum.TotalPayable)
	}
	if !sum.Receivable.Equal(dec(t, "700")) {
		t.Fatalf("Receivable = %s, want 700", sum.Receivable)
	}
}

func TestAggregate_InstallmentUsesNextPayment(t *testing.T) {
	// Next payment 2024-07-01 is 21 days out: counted, not upcoming.
	far := installment(t, "12000000", "24", 12, model.MethodFlat, "2024-01-01")
	far.ID = "far"
	// Due yesterday, still picked up by the one-day lookback.
	soon := installment(t, "300", "0", 3, model.MethodFlat, "2024-05-09")
	soon.ID = "soon"
	// Schedule ran out last year.
	done := installment(t, "500", "0", 2, model.MethodFlat, "2023-01-01")
	done.ID = "done"

	sum := Aggregate([]model.Obligation{far, soon, done}, testToday)

	wantPayable := dec(t, "12000300")
	if !sum.TotalPayable.Equal(wantPayable) {
		t.Fatalf("TotalPayable = %s, want %s", sum.TotalPayable, wantPayable)
	}
	wantMonthly := dec(t, "1240100")
	if !sum.MonthlyDue.Equal(wantMonthly) {
		t.Fatalf("MonthlyDue = %s, want %s", sum.MonthlyDue, wantMonthly)
	}
	assertIDs(t, upcomingIDs(sum), []string{"soon"})
	u := sum.Upcoming[0]
	if u.DaysLeft != -1 || !u.Overdue() {
		t.Fatalf("soon DaysLeft = %d, want -1 (overdue)", u.DaysLeft)
	}
	if got := u.DueDate.String(); got != "2024-06-09" {
		t.Fatalf("soon DueDate = %s, want 2024-06-09", got)
	}
	if !u.DueAmount.Equal(dec(t, "100")) {
		t.Fatalf("soon DueAmount = %s, want 100", u.DueAmount)
	}
}

func TestAggregate_SortedOverdueFirstStable(t *testing.T) {
	obs := []model.Obligation{
		card(t, "c-later", "2024-06-25", "10"),
		card(t, "c-out-of-window", "2024-06-26", "10"),
		personal(t, "p-today-a", model.KindPersonalLoan, "2024-06-10", "1"),
		card(t, "c-overdue", "2024-06-01", "50"),
		personal(t, "p-today-b", model.KindPersonalLoan, "2024-06-10", "2"),
		card(t, "c-no-date", "", "30"),
	}

	sum := Aggregate(obs, testToday)
	assertIDs(t, upcomingIDs(sum), []string{"c-overdue", "p-today-a", "p-today-b", "c-later"})

	for i := 1; i < len(sum.Upcoming); i++ {
		if sum.Upcoming[i-1].DaysLeft > sum.Upcoming[i].DaysLeft {
			t.Fatalf("upcoming not sorted at %d: %d > %d", i, sum.Upcoming[i-1].DaysLeft, sum.Upcoming[i].DaysLeft)
		}
	}
	if got := sum.OverdueCount(); got != 1 {
		t.Fatalf("OverdueCount = %d, want 1", got)
	}
	// Every card counts toward totals regardless of its date.
	if want := dec(t, "103"); !sum.TotalPayable.Equal(want) {
		t.Fatalf("TotalPayable = %s, want %s", sum.TotalPayable, want)
	}
}

func TestAggregate_SkipsMalformedRecords(t *testing.T) {
	bad := card(t, "negative", "2024-06-12", "10")
	bad.AmountDue = decimal.NewFromInt(-10)
	badTerm := installment(t, "100", "5", 0, model.MethodFlat, "2024-01-01")
	badTerm.ID = "no-term"
	good := personal(t, "ok", model.KindPersonalLoan, "2024-06-12", "40")

	sum := Aggregate([]model.Obligation{bad, badTerm, nil, good}, testToday)
	assertIDs(t, sum.Skipped, []string{"negative", "no-term"})
	assertIDs(t, upcomingIDs(sum), []string{"ok"})
	if !sum.TotalPayable.Equal(dec(t, "40")) {
		t.Fatalf("TotalPayable = %s, want 40", sum.TotalPayable)
	}
}

func TestAggregateWindow_CustomWindow(t *testing.T) {
	obs := []model.Obligation{
		card(t, "in-3", "2024-06-13", "10"),
		card(t, "in-5", "2024-06-15", "10"),
	}
	sum := AggregateWindow(obs, testToday, 3)
	assertIDs(t, upcomingIDs(sum), []string{"in-3"})
}

func TestAggregate_Deterministic(t *testing.T) {
	obs := []model.Obligation{
		installment(t, "1000000", "12", 12, model.MethodReducing, "2024-05-12"),
		card(t, "visa", "2024-06-14", "250000"),
		personal(t, "bao", model.KindPersonalLoan, "2024-06-09", "90000"),
	}
	first := fmt.Sprintf("%+v", Aggregate(obs, testToday))
	second := fmt.Sprintf("%+v", Aggregate(obs, testToday))
	if first != second {
		t.Fatalf("aggregate not deterministic:\n%s\n%s", first, second)
	}
}

func TestByKindAndBySource(t *testing.T) {
	inst := installment(t, "1200", "0", 12, model.MethodFlat, "2024-06-01")
	inst.Lender = "acme"
	c1 := card(t, "visa", "2024-06-20", "300")
	c2 := card(t, "visa", "2024-06-21", "200")
	wallet := card(t, "wallet", "2024-06-21", "50")
	wallet.Type = model.KindRevolvingWallet
	lent := personal(t, "linh", model.KindPersonalLend, "2024-07-01", "80")

	obs := []model.Obligation{inst, c1, c2, wallet, lent}

	kinds := ByKind(obs, testToday)
	wantKinds := []model.Kind{model.KindRevolvingWallet, model.KindCreditCard, model.KindInstallment, model.KindPersonalLend}
	if len(kinds) != len(wantKinds) {
		t.Fatalf("len(ByKind) = %d, want %d", len(kinds), len(wantKinds))
	}
	for i, k := range wantKinds {
		if kinds[i].Kind != k {
			t.Fatalf("ByKind[%d] = %s, want %s", i, kinds[i].Kind, k)
		}
	}
	if kinds[1].Count != 2 || !kinds[1].Payable.Equal(dec(t, "500")) {
		t.Fatalf("credit card total = %d/%s, want 2/500", kinds[1].Count, kinds[1].Payable)
	}
	if !kinds[2].MonthlyDue.Equal(dec(t, "100")) {
		t.Fatalf("installment monthly = %s, want 100", kinds[2].MonthlyDue)
	}

	sources := BySource(obs, testToday)
	if sources[0].Source != "acme" || !sources[0].Payable.Equal(dec(t, "1200")) {
		t.Fatalf("top source = %s/%s, want acme/1200", sources[0].Source, sources[0].Payable)
	}
	if sources[1].Source != "visa" || sources[1].Count != 2 {
		t.Fatalf("second source = %s (%d), want visa (2)", sources[1].Source, sources[1].Count)
	}
}

func TestNextDue(t *testing.T) {
	far := installment(t, "12000000", "24", 12, model.MethodFlat, "2024-01-01")
	lent := personal(t, "lent", model.KindPersonalLend, "2024-06-12", "700")
	bad := personal(t, "bad", model.KindPersonalLoan, "2024-06-12", "-1")

	due, amount, err := NextDue(far, testToday)
	if err != nil {
		t.Fatalf("NextDue(installment): %v", err)
	}
	if due.String() != "2024-07-01" || !amount.Equal(dec(t, "1240000")) {
		t.Fatalf("NextDue(installment) = %s %s, want 2024-07-01 1240000", due, amount)
	}

	due, _, err = NextDue(lent, testToday)
	if err != nil || !due.IsZero() {
		t.Fatalf("NextDue(lent) = %s, %v; want no date", due, err)
	}

	if _, _, err := NextDue(bad, testToday); err == nil {
		t.Fatal("NextDue accepted a negative amount")
	}
}
