// Package engine computes installment schedules, due dates and obligation summaries.
// Everything here is a pure function of its arguments, including "today".
package engine

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/obligo/internal/model"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	// settleEpsilon is the drift under which a final balance counts as paid off.
	settleEpsilon = decimal.NewFromFloat(0.01)
)

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualPercent decimal.Decimal) decimal.Decimal {
	return annualPercent.Div(hundred).Div(twelve)
}

// ComputeSchedule generates the full payment plan of an installment. Degenerate
// parameters return an error and an empty schedule.
func ComputeSchedule(in model.Installment) (model.Schedule, error) {
	if err := checkScheduleInput(in); err != nil {
		return model.Schedule{}, err
	}

	n := in.TermMonths
	term := decimal.NewFromInt(int64(n))
	principal := in.Principal
	evenPrincipal := principal.Div(term)

	var payment decimal.Decimal
	switch in.Method {
	case model.MethodFixed:
		payment = in.FixedMonthly
	case model.MethodFlat:
		payment = principal.Mul(MonthlyRate(in.AnnualRate)).Add(evenPrincipal)
	case model.MethodReducing:
		payment = annuityPayment(principal, MonthlyRate(in.AnnualRate), n)
	}

	sched := model.Schedule{
		MonthlyPayment: payment,
		Entries:        make([]model.AmortizationEntry, 0, n),
	}
	r := MonthlyRate(in.AnnualRate)
	remaining := principal
	for i := 1; i <= n; i++ {
		var interest, principalPart decimal.Decimal
		switch in.Method {
		case model.MethodFixed:
			principalPart = evenPrincipal
			interest = decimal.Max(decimal.Zero, payment.Sub(principalPart))
		case model.MethodFlat:
			principalPart = evenPrincipal
			interest = principal.Mul(r)
		case model.MethodReducing:
			interest = remaining.Mul(r)
			principalPart = payment.Sub(interest)
		}

		remaining = remaining.Sub(principalPart)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		if i == n && remaining.LessThan(settleEpsilon) {
			remaining = decimal.Zero
		}

		sched.Entries = append(sched.Entries, model.AmortizationEntry{
			Period:    i,
			Date:      in.StartDate.AddMonths(i),
			Payment:   payment,
			Interest:  interest,
			Principal: principalPart,
			Remaining: remaining,
		})
	}
	return sched, nil
}

// annuityPayment is P·r / (1 − (1+r)^−n), or P/n when r is zero. The power is taken in
// float64 and the result brought back to a decimal.
func annuityPayment(principal, r decimal.Decimal, n int) decimal.Decimal {
	if r.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(n)))
	}
	rf := r.InexactFloat64()
	factor := 1 - math.Pow(1+rf, -float64(n))
	return decimal.NewFromFloat(principal.InexactFloat64() * rf / factor)
}

func checkScheduleInput(in model.Installment) error {
	if in.TermMonths < 1 {
		return fmt.Errorf("%w: %d months", model.ErrInvalidTerm, in.TermMonths)
	}
	if in.Principal.IsNegative() || in.AnnualRate.IsNegative() {
		return fmt.Errorf("%w: principal %s, rate %s", model.ErrInvalidAmount, in.Principal, in.AnnualRate)
	}
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: installment has no start date", model.ErrMissingDate)
	}
	switch in.Method {
	case model.MethodFlat, model.MethodReducing:
	case model.MethodFixed:
		if !in.FixedMonthly.IsPositive() {
			return fmt.Errorf("%w: fixed method needs a positive monthly amount", model.ErrInvalidAmount)
		}
	default:
		return fmt.Errorf("%w: %q", model.ErrInvalidMethod, in.Method)
	}
	return nil
}

// Outstanding reports how much principal of in is still owed as of today and how many
// periods are already behind it. Periods dated before yesterday count as paid, the same
// boundary NextPayment uses.
func Outstanding(in model.Installment, today model.Date) (remaining decimal.Decimal, periodsPaid int, err error) {
	sched, err := ComputeSchedule(in)
	if err != nil {
		return decimal.Zero, 0, err
	}
	remaining = in.Principal
	cutoff := today.AddDays(-1)
	for _, e := range sched.Entries {
		if !e.Date.Before(cutoff) {
			break
		}
		remaining = e.Remaining
		periodsPaid++
	}
	return remaining, periodsPaid, nil
}

// NextPayment returns the first schedule entry dated on or after yesterday. ok is false
// once the schedule has run out.
func NextPayment(sched model.Schedule, today model.Date) (model.AmortizationEntry, bool) {
	cutoff := today.AddDays(-1)
	for _, e := range sched.Entries {
		if !e.Date.Before(cutoff) {
			return e, true
		}
	}
	return model.AmortizationEntry{}, false
}
