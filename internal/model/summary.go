package model

import "github.com/shopspring/decimal"

// AmortizationEntry is one period of a generated installment schedule.
type AmortizationEntry struct {
	Period    int
	Date      Date
	Payment   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
	Remaining decimal.Decimal
}

// Schedule is the full payment plan of an installment.
type Schedule struct {
	MonthlyPayment decimal.Decimal
	Entries        []AmortizationEntry
}

// TotalPaid sums every scheduled payment.
func (s Schedule) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Entries {
		total = total.Add(e.Payment)
	}
	return total
}

// TotalInterest sums the interest portion of every scheduled payment.
func (s Schedule) TotalInterest() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Entries {
		total = total.Add(e.Interest)
	}
	return total
}

// UpcomingItem is an obligation projected onto its next due date.
type UpcomingItem struct {
	Obligation Obligation
	DueDate    Date
	DaysLeft   int
	DueAmount  decimal.Decimal
}

// Overdue reports whether the due date has already passed.
func (u UpcomingItem) Overdue() bool { return u.DaysLeft < 0 }

// KindTotal holds what is owed for one obligation kind.
type KindTotal struct {
	Kind       Kind
	Count      int
	Payable    decimal.Decimal
	MonthlyDue decimal.Decimal
}

// SourceTotal holds what is owed to one lender, wallet or person.
type SourceTotal struct {
	Source     string
	Kind       Kind
	Count      int
	Payable    decimal.Decimal
	MonthlyDue decimal.Decimal
}

// Summary is the result of one aggregation pass.
type Summary struct {
	TotalPayable decimal.Decimal
	MonthlyDue   decimal.Decimal
	// Receivable is money lent out and still pending. It never offsets TotalPayable.
	Receivable decimal.Decimal
	Upcoming   []UpcomingItem
	// Skipped holds the IDs (or names, when unsaved) of malformed records left out.
	Skipped []string
}

// OverdueCount returns how many upcoming items are already late.
func (s Summary) OverdueCount() int {
	n := 0
	for _, u := range s.Upcoming {
		if u.Overdue() {
			n++
		}
	}
	return n
}
