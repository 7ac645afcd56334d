package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/obligo/internal/model"
)

// contribution is what a single obligation adds to a summary.
type contribution struct {
	payable    decimal.Decimal
	monthlyDue decimal.Decimal
	receivable decimal.Decimal
	dueDate    model.Date
	dueAmount  decimal.Decimal
}

// resolve applies the per-kind due policy. The type switch covers every variant of the
// sealed model.Obligation; anything else is reported as unknown.
func resolve(o model.Obligation, today model.Date) (contribution, error) {
	if err := o.Validate(); err != nil {
		return contribution{}, err
	}

	switch v := o.(type) {
	case model.Planned:
		// An intention, not a liability: dated for the feed, never totalled.
		return contribution{dueDate: v.PlannedDate, dueAmount: v.Amount}, nil

	case model.Personal:
		if v.Status != model.StatusPending {
			return contribution{}, nil
		}
		if v.Kind() == model.KindPersonalLend {
			return contribution{receivable: v.Amount}, nil
		}
		return contribution{
			payable:    v.Amount,
			monthlyDue: v.Amount,
			dueDate:    v.DueDate,
			dueAmount:  v.Amount,
		}, nil

	case model.Installment:
		sched, err := ComputeSchedule(v)
		if err != nil {
			return contribution{}, err
		}
		next, ok := NextPayment(sched, today)
		if !ok {
			return contribution{}, nil
		}
		// Payable is the original principal, not what is left of it.
		return contribution{
			payable:    v.Principal,
			monthlyDue: next.Payment,
			dueDate:    next.Date,
			dueAmount:  next.Payment,
		}, nil

	case model.Revolving:
		c := contribution{
			payable:    v.AmountDue,
			monthlyDue: v.AmountDue,
			dueAmount:  v.AmountDue,
		}
		if v.AmountDue.IsPositive() {
			c.dueDate = v.DueDate
		}
		return c, nil
	}
	return contribution{}, fmt.Errorf("%w: %T", model.ErrUnknownKind, o)
}

// NextDue reports the date and amount an obligation next falls due, as the summary sees
// it. The date is zero when nothing is scheduled.
func NextDue(o model.Obligation, today time.Time) (model.Date, decimal.Decimal, error) {
	c, err := resolve(o, Today(today))
	if err != nil {
		return model.Date{}, decimal.Zero, err
	}
	return c.dueDate, c.dueAmount, nil
}

// Aggregate summarises obligations as of today using the default attention window.
func Aggregate(obligations []model.Obligation, today time.Time) model.Summary {
	return AggregateWindow(obligations, today, DefaultWindowDays)
}

// AggregateWindow computes totals and the upcoming feed. An obligation is upcoming when it
// has a due date, a positive due amount, is not paid, and falls due within windowDays
// (overdue items always qualify). The feed is ordered by days left, ties kept in input
// order. Malformed records are skipped and listed in Summary.Skipped.
func AggregateWindow(obligations []model.Obligation, today time.Time, windowDays int) model.Summary {
	day := Today(today)
	sum := model.Summary{
		TotalPayable: decimal.Zero,
		MonthlyDue:   decimal.Zero,
		Receivable:   decimal.Zero,
	}

	for _, o := range obligations {
		if o == nil {
			continue
		}
		c, err := resolve(o, day)
		if err != nil {
			sum.Skipped = append(sum.Skipped, recordLabel(o))
			continue
		}

		sum.TotalPayable = sum.TotalPayable.Add(c.payable)
		sum.MonthlyDue = sum.MonthlyDue.Add(c.monthlyDue)
		sum.Receivable = sum.Receivable.Add(c.receivable)

		if o.Info().Status == model.StatusPaid || !c.dueAmount.IsPositive() {
			continue
		}
		days, ok := DaysRemaining(c.dueDate, today)
		if !ok || days > windowDays {
			continue
		}
		sum.Upcoming = append(sum.Upcoming, model.UpcomingItem{
			Obligation: o,
			DueDate:    c.dueDate,
			DaysLeft:   days,
			DueAmount:  c.dueAmount,
		})
	}

	sort.SliceStable(sum.Upcoming, func(i, j int) bool {
		return sum.Upcoming[i].DaysLeft < sum.Upcoming[j].DaysLeft
	})
	return sum
}

func recordLabel(o model.Obligation) string {
	if id := o.Info().ID; id != "" {
		return id
	}
	return o.Name()
}

// ByKind totals payable and monthly-due amounts per obligation kind, in model.Kinds order.
// Kinds with no records are omitted.
func ByKind(obligations []model.Obligation, today time.Time) []model.KindTotal {
	day := Today(today)
	byKind := make(map[model.Kind]*model.KindTotal)

	for _, o := range obligations {
		if o == nil {
			continue
		}
		c, err := resolve(o, day)
		if err != nil {
			continue
		}
		kt, ok := byKind[o.Kind()]
		if !ok {
			kt = &model.KindTotal{Kind: o.Kind(), Payable: decimal.Zero, MonthlyDue: decimal.Zero}
			byKind[o.Kind()] = kt
		}
		kt.Count++
		kt.Payable = kt.Payable.Add(c.payable).Add(c.receivable)
		kt.MonthlyDue = kt.MonthlyDue.Add(c.monthlyDue)
	}

	result := make([]model.KindTotal, 0, len(byKind))
	for _, k := range model.Kinds {
		if kt, ok := byKind[k]; ok {
			result = append(result, *kt)
		}
	}
	return result
}

// BySource totals obligations per lender, wallet or counterparty, largest payable first.
// Lent money shows up as its own source with the receivable amount.
func BySource(obligations []model.Obligation, today time.Time) []model.SourceTotal {
	day := Today(today)
	type key struct {
		source string
		kind   model.Kind
	}
	bySource := make(map[key]*model.SourceTotal)

	for _, o := range obligations {
		if o == nil {
			continue
		}
		c, err := resolve(o, day)
		if err != nil {
			continue
		}
		k := key{source: sourceOf(o), kind: o.Kind()}
		st, ok := bySource[k]
		if !ok {
			st = &model.SourceTotal{Source: k.source, Kind: k.kind, Payable: decimal.Zero, MonthlyDue: decimal.Zero}
			bySource[k] = st
		}
		st.Count++
		st.Payable = st.Payable.Add(c.payable).Add(c.receivable)
		st.MonthlyDue = st.MonthlyDue.Add(c.monthlyDue)
	}

	result := make([]model.SourceTotal, 0, len(bySource))
	for _, st := range bySource {
		result = append(result, *st)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Payable.Equal(result[j].Payable) {
			return result[i].Payable.GreaterThan(result[j].Payable)
		}
		if result[i].Source != result[j].Source {
			return result[i].Source < result[j].Source
		}
		return result[i].Kind < result[j].Kind
	})
	return result
}

func sourceOf(o model.Obligation) string {
	if inst, ok := o.(model.Installment); ok && inst.Lender != "" {
		return inst.Lender
	}
	return o.Name()
}
