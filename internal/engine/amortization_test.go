package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/obligo/internal/model"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func day(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func near(a, b decimal.Decimal, eps string) bool {
	return a.Sub(b).Abs().LessThanOrEqual(decimal.RequireFromString(eps))
}

func installment(t *testing.T, principal, rate string, term int, method model.Method, start string) model.Installment {
	t.Helper()
	return model.Installment{
		Meta:        model.Meta{ID: "inst", Status: model.StatusPending},
		Description: "loan",
		Lender:      "bank",
		Principal:   dec(t, principal),
		AnnualRate:  dec(t, rate),
		TermMonths:  term,
		Method:      method,
		StartDate:   day(t, start),
	}
}

func TestComputeSchedule_FlatScenario(t *testing.T) {
	in := installment(t, "12000000", "24", 12, model.MethodFlat, "2024-01-01")

	sched, err := ComputeSchedule(in)
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}
	want := dec(t, "1240000")
	if !sched.MonthlyPayment.Equal(want) {
		t.Fatalf("MonthlyPayment = %s, want %s", sched.MonthlyPayment, want)
	}
	if len(sched.Entries) != 12 {
		t.Fatalf("len(Entries) = %d, want 12", len(sched.Entries))
	}
	for _, e := range sched.Entries {
		if !e.Payment.Equal(want) {
			t.Errorf("period %d payment = %s, want %s", e.Period, e.Payment, want)
		}
		if !e.Interest.Equal(dec(t, "240000")) {
			t.Errorf("period %d interest = %s, want 240000", e.Period, e.Interest)
		}
		if !e.Principal.Equal(dec(t, "1000000")) {
			t.Errorf("period %d principal = %s, want 1000000", e.Period, e.Principal)
		}
	}
	last := sched.Entries[11]
	if !last.Remaining.IsZero() {
		t.Fatalf("final remaining = %s, want 0", last.Remaining)
	}
	if got := sched.Entries[0].Date.String(); got != "2024-02-01" {
		t.Fatalf("first date = %s, want 2024-02-01", got)
	}
	if got := last.Date.String(); got != "2025-01-01" {
		t.Fatalf("last date = %s, want 2025-01-01", got)
	}
	if got := sched.TotalInterest(); !got.Equal(dec(t, "2880000")) {
		t.Fatalf("TotalInterest = %s, want 2880000", got)
	}
}

func TestComputeSchedule_ReducingZeroRate(t *testing.T) {
	in := installment(t, "1000", "0", 3, model.MethodReducing, "2024-01-15")

	sched, err := ComputeSchedule(in)
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}
	want := in.Principal.Div(decimal.NewFromInt(3))
	if !sched.MonthlyPayment.Equal(want) {
		t.Fatalf("MonthlyPayment = %s, want %s", sched.MonthlyPayment, want)
	}
	for _, e := range sched.Entries {
		if !e.Interest.IsZero() {
			t.Errorf("period %d interest = %s, want 0", e.Period, e.Interest)
		}
	}
	if last := sched.Entries[len(sched.Entries)-1]; !last.Remaining.IsZero() {
		t.Fatalf("final remaining = %s, want 0", last.Remaining)
	}
}

func TestComputeSchedule_ReducingAnnuity(t *testing.T) {
	in := installment(t, "1000000", "12", 12, model.MethodReducing, "2024-03-05")

	sched, err := ComputeSchedule(in)
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}
	if !near(sched.MonthlyPayment, dec(t, "88848.7887"), "0.001") {
		t.Fatalf("MonthlyPayment = %s, want ~88848.7887", sched.MonthlyPayment)
	}

	// First period interest is charged on the full balance.
	first := sched.Entries[0]
	if !near(first.Interest, dec(t, "10000"), "0.000001") {
		t.Fatalf("first interest = %s, want 10000", first.Interest)
	}
	prev := in.Principal
	for _, e := range sched.Entries {
		if e.Remaining.GreaterThan(prev) {
			t.Fatalf("period %d remaining %s grew from %s", e.Period, e.Remaining, prev)
		}
		if !e.Interest.LessThan(e.Payment) {
			t.Fatalf("period %d interest %s not below payment %s", e.Period, e.Interest, e.Payment)
		}
		prev = e.Remaining
	}
	if !prev.IsZero() {
		t.Fatalf("final remaining = %s, want 0", prev)
	}
}

func TestComputeSchedule_FixedReducesPrincipalEvenly(t *testing.T) {
	in := installment(t, "1200", "0", 12, model.MethodFixed, "2024-01-10")
	in.FixedMonthly = dec(t, "150")

	sched, err := ComputeSchedule(in)
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}
	if !sched.MonthlyPayment.Equal(dec(t, "150")) {
		t.Fatalf("MonthlyPayment = %s, want 150", sched.MonthlyPayment)
	}
	for i, e := range sched.Entries {
		want := decimal.NewFromInt(int64(1200 - 100*(i+1)))
		if !e.Remaining.Equal(want) {
			t.Fatalf("period %d remaining = %s, want %s", e.Period, e.Remaining, want)
		}
		if !e.Interest.Equal(dec(t, "50")) {
			t.Fatalf("period %d interest = %s, want 50", e.Period, e.Interest)
		}
	}
}

func TestComputeSchedule_ClampsToMonthEnd(t *testing.T) {
	in := installment(t, "900", "10", 4, model.MethodFlat, "2024-01-31")

	sched, err := ComputeSchedule(in)
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}
	want := []string{"2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}
	for i, e := range sched.Entries {
		if got := e.Date.String(); got != want[i] {
			t.Errorf("period %d date = %s, want %s", e.Period, got, want[i])
		}
	}
}

func TestComputeSchedule_EveryMethodSettles(t *testing.T) {
	tests := []struct {
		name   string
		method model.Method
		rate   string
		term   int
	}{
		{"flat", model.MethodFlat, "18", 7},
		{"reducing", model.MethodReducing, "9.5", 36},
		{"reducing zero rate", model.MethodReducing, "0", 5},
		{"fixed", model.MethodFixed, "0", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := installment(t, "7777777", tt.rate, tt.term, tt.method, "2023-11-30")
			in.FixedMonthly = dec(t, "900000")

			sched, err := ComputeSchedule(in)
			if err != nil {
				t.Fatalf("ComputeSchedule: %v", err)
			}
			if len(sched.Entries) != tt.term {
				t.Fatalf("len(Entries) = %d, want %d", len(sched.Entries), tt.term)
			}
			for i, e := range sched.Entries {
				if e.Period != i+1 {
					t.Fatalf("entry %d has period %d", i, e.Period)
				}
				if want := in.StartDate.AddMonths(i + 1); !e.Date.Equal(want) {
					t.Fatalf("period %d date = %s, want %s", e.Period, e.Date, want)
				}
				if e.Remaining.IsNegative() {
					t.Fatalf("period %d remaining %s is negative", e.Period, e.Remaining)
				}
			}
			if last := sched.Entries[tt.term-1]; !last.Remaining.IsZero() {
				t.Fatalf("final remaining = %s, want 0", last.Remaining)
			}
		})
	}
}

func TestComputeSchedule_RejectsDegenerateInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Installment)
		want   error
	}{
		{"zero term", func(i *model.Installment) { i.TermMonths = 0 }, model.ErrInvalidTerm},
		{"negative principal", func(i *model.Installment) { i.Principal = decimal.NewFromInt(-1) }, model.ErrInvalidAmount},
		{"negative rate", func(i *model.Installment) { i.AnnualRate = decimal.NewFromInt(-5) }, model.ErrInvalidAmount},
		{"fixed without amount", func(i *model.Installment) { i.Method = model.MethodFixed }, model.ErrInvalidAmount},
		{"unknown method", func(i *model.Installment) { i.Method = "balloon" }, model.ErrInvalidMethod},
		{"no start date", func(i *model.Installment) { i.StartDate = model.Date{} }, model.ErrMissingDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := installment(t, "1000", "12", 12, model.MethodFlat, "2024-01-01")
			tt.mutate(&in)

			sched, err := ComputeSchedule(in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if len(sched.Entries) != 0 {
				t.Fatalf("len(Entries) = %d, want 0", len(sched.Entries))
			}
		})
	}
}

func TestNextPayment_LooksBackOneDay(t *testing.T) {
	in := installment(t, "300", "0", 3, model.MethodFlat, "2024-05-09")
	sched, err := ComputeSchedule(in)
	if err != nil {
		t.Fatalf("ComputeSchedule: %v", err)
	}

	tests := []struct {
		today string
		want  string
		ok    bool
	}{
		{"2024-06-01", "2024-06-09", true},
		{"2024-06-09", "2024-06-09", true},
		{"2024-06-10", "2024-06-09", true},
		{"2024-06-11", "2024-07-09", true},
		{"2024-08-10", "2024-08-09", true},
		{"2024-08-11", "", false},
	}
	for _, tt := range tests {
		e, ok := NextPayment(sched, day(t, tt.today))
		if ok != tt.ok {
			t.Fatalf("NextPayment(%s) ok = %v, want %v", tt.today, ok, tt.ok)
		}
		if got := e.Date.String(); got != tt.want {
			t.Errorf("NextPayment(%s) = %s, want %s", tt.today, got, tt.want)
		}
	}
}

func TestOutstanding(t *testing.T) {
	in := installment(t, "1200", "12", 12, model.MethodFlat, "2024-01-20")

	remaining, paid, err := Outstanding(in, day(t, "2024-04-25"))
	if err != nil {
		t.Fatalf("Outstanding: %v", err)
	}
	// Feb, Mar and Apr 20 are behind us.
	if paid != 3 {
		t.Fatalf("periodsPaid = %d, want 3", paid)
	}
	if !remaining.Equal(dec(t, "900")) {
		t.Fatalf("remaining = %s, want 900", remaining)
	}

	remaining, paid, err = Outstanding(in, day(t, "2024-01-01"))
	if err != nil {
		t.Fatalf("Outstanding: %v", err)
	}
	if paid != 0 || !remaining.Equal(in.Principal) {
		t.Fatalf("before start: remaining = %s, paid = %d; want 1200, 0", remaining, paid)
	}
}
