// Package model defines the obligation records, derived schedules and summaries obligo works with.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation errors reported by Validate and by the engine.
var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidTerm   = errors.New("invalid term")
	ErrInvalidMethod = errors.New("invalid calculation method")
	ErrInvalidStatus = errors.New("invalid status")
	ErrMissingDate   = errors.New("missing date")
	ErrUnknownKind   = errors.New("unknown obligation kind")
)

// Kind discriminates obligation variants.
type Kind string

const (
	KindRevolvingWallet Kind = "revolvingWallet"
	KindCreditCard      Kind = "creditCard"
	KindInstallment     Kind = "installment"
	KindPersonalLoan    Kind = "personalLoan"
	KindPersonalLend    Kind = "personalLend"
	KindPlanned         Kind = "planned"
)

// Kinds lists every obligation kind in display order.
var Kinds = []Kind{
	KindRevolvingWallet,
	KindCreditCard,
	KindInstallment,
	KindPersonalLoan,
	KindPersonalLend,
	KindPlanned,
}

var kindAliases = map[string]Kind{
	"revolvingwallet": KindRevolvingWallet,
	"wallet":          KindRevolvingWallet,
	"bnpl":            KindRevolvingWallet,
	"paylater":        KindRevolvingWallet,
	"creditcard":      KindCreditCard,
	"credit":          KindCreditCard,
	"card":            KindCreditCard,
	"installment":     KindInstallment,
	"loan":            KindInstallment,
	"personalloan":    KindPersonalLoan,
	"personal_loan":   KindPersonalLoan,
	"borrow":          KindPersonalLoan,
	"personallend":    KindPersonalLend,
	"personal_lend":   KindPersonalLend,
	"lend":            KindPersonalLend,
	"planned":         KindPlanned,
	"plan":            KindPlanned,
}

// ParseKind accepts canonical kind names and the short aliases used on the command line.
func ParseKind(s string) (Kind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Label is a short human-readable name for the kind.
func (k Kind) Label() string {
	switch k {
	case KindRevolvingWallet:
		return "Pay-later wallet"
	case KindCreditCard:
		return "Credit card"
	case KindInstallment:
		return "Installment"
	case KindPersonalLoan:
		return "Borrowed"
	case KindPersonalLend:
		return "Lent"
	case KindPlanned:
		return "Planned"
	}
	return string(k)
}

// Status of an obligation. Only pending and paid exist.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Toggle flips pending and paid.
func (s Status) Toggle() Status {
	if s == StatusPaid {
		return StatusPending
	}
	return StatusPaid
}

func (s Status) valid() bool { return s == StatusPending || s == StatusPaid }

// Method is how an installment's payment is derived.
type Method string

const (
	MethodFlat     Method = "flat"
	MethodReducing Method = "reducing"
	MethodFixed    Method = "fixed"
)

// UnmarshalText accepts "manual" as a synonym for fixed.
func (m *Method) UnmarshalText(b []byte) error {
	switch v := Method(strings.ToLower(strings.TrimSpace(string(b)))); v {
	case MethodFlat, MethodReducing, MethodFixed:
		*m = v
	case "manual":
		*m = MethodFixed
	case "":
		*m = ""
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMethod, string(b))
	}
	return nil
}

// Meta is the bookkeeping every obligation carries.
type Meta struct {
	ID        string    `json:"id,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Obligation is one of Revolving, Installment, Personal or Planned.
type Obligation interface {
	Kind() Kind
	Info() Meta
	WithMeta(Meta) Obligation
	// Name is the label shown in lists: the source, lender, counterparty or description.
	Name() string
	Validate() error

	sealed()
}

// Revolving is a pay-later wallet or credit card statement.
type Revolving struct {
	Meta
	Type             Kind            `json:"-"`
	Source           string          `json:"source"`
	StatementBalance decimal.Decimal `json:"statementBalance"`
	AmountDue        decimal.Decimal `json:"paymentDue"`
	CreditLimit      decimal.Decimal `json:"limit"`
	DueDate          Date            `json:"dueDate"`
	PaidAmount       decimal.Decimal `json:"paidAmount"`
	Note             string          `json:"note,omitempty"`
}

// Installment is a fixed-term loan with a computed schedule.
type Installment struct {
	Meta
	Description  string          `json:"description"`
	Lender       string          `json:"source"`
	Principal    decimal.Decimal `json:"amount"`
	AnnualRate   decimal.Decimal `json:"rate"`
	TermMonths   int             `json:"duration"`
	Method       Method          `json:"calcMethod"`
	FixedMonthly decimal.Decimal `json:"monthlyAmount"`
	StartDate    Date            `json:"startDate"`
}

// Personal is money borrowed from (personalLoan) or lent to (personalLend) a person.
type Personal struct {
	Meta
	Type         Kind            `json:"-"`
	Counterparty string          `json:"source"`
	Note         string          `json:"note,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      Date            `json:"dueDate"`
}

// Planned is a future expense. It never counts as debt.
type Planned struct {
	Meta
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PlannedDate Date            `json:"dueDate"`
}

func (r Revolving) Kind() Kind {
	if r.Type == KindRevolvingWallet {
		return KindRevolvingWallet
	}
	return KindCreditCard
}
func (Installment) Kind() Kind { return KindInstallment }
func (p Personal) Kind() Kind {
	if p.Type == KindPersonalLend {
		return KindPersonalLend
	}
	return KindPersonalLoan
}
func (Planned) Kind() Kind { return KindPlanned }

func (r Revolving) Info() Meta   { return r.Meta }
func (i Installment) Info() Meta { return i.Meta }
func (p Personal) Info() Meta    { return p.Meta }
func (p Planned) Info() Meta     { return p.Meta }

func (r Revolving) WithMeta(m Meta) Obligation   { r.Meta = m; return r }
func (i Installment) WithMeta(m Meta) Obligation { i.Meta = m; return i }
func (p Personal) WithMeta(m Meta) Obligation    { p.Meta = m; return p }
func (p Planned) WithMeta(m Meta) Obligation     { p.Meta = m; return p }

func (r Revolving) Name() string { return r.Source }
func (i Installment) Name() string {
	if i.Description != "" {
		return i.Description
	}
	return i.Lender
}
func (p Personal) Name() string { return p.Counterparty }
func (p Planned) Name() string  { return p.Description }

func (Revolving) sealed()   {}
func (Installment) sealed() {}
func (Personal) sealed()    {}
func (Planned) sealed()     {}

// Validate checks the field constraints.
func (r Revolving) Validate() error {
	if err := r.Meta.validate(); err != nil {
		return err
	}
	if r.Type != "" && r.Type != KindRevolvingWallet && r.Type != KindCreditCard {
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Type)
	}
	return nonNegative(map[string]decimal.Decimal{
		"statement balance": r.StatementBalance,
		"amount due":        r.AmountDue,
		"credit limit":      r.CreditLimit,
		"paid amount":       r.PaidAmount,
	})
}

// Validate checks the field constraints.
func (i Installment) Validate() error {
	if err := i.Meta.validate(); err != nil {
		return err
	}
	if i.TermMonths < 1 {
		return fmt.Errorf("%w: %d months", ErrInvalidTerm, i.TermMonths)
	}
	if err := nonNegative(map[string]decimal.Decimal{
		"principal": i.Principal,
		"rate":      i.AnnualRate,
	}); err != nil {
		return err
	}
	if i.StartDate.IsZero() {
		return fmt.Errorf("%w: installment has no start date", ErrMissingDate)
	}
	switch i.Method {
	case MethodFlat, MethodReducing:
	case MethodFixed:
		if !i.FixedMonthly.IsPositive() {
			return fmt.Errorf("%w: fixed method needs a positive monthly amount", ErrInvalidAmount)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMethod, i.Method)
	}
	return nil
}

// Validate checks the field constraints.
func (p Personal) Validate() error {
	if err := p.Meta.validate(); err != nil {
		return err
	}
	if p.Type != "" && p.Type != KindPersonalLoan && p.Type != KindPersonalLend {
		return fmt.Errorf("%w: %q", ErrUnknownKind, p.Type)
	}
	return nonNegative(map[string]decimal.Decimal{"amount": p.Amount})
}

// Validate checks the field constraints.
func (p Planned) Validate() error {
	if err := p.Meta.validate(); err != nil {
		return err
	}
	return nonNegative(map[string]decimal.Decimal{"amount": p.Amount})
}

func (m Meta) validate() error {
	if !m.Status.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, m.Status)
	}
	return nil
}

func nonNegative(fields map[string]decimal.Decimal) error {
	for name, v := range fields {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s is %s", ErrInvalidAmount, name, v)
		}
	}
	return nil
}

// Toggle flips an obligation between pending and paid.
func Toggle(o Obligation) Obligation {
	m := o.Info()
	m.Status = m.Status.Toggle()
	return o.WithMeta(m)
}

// Pay records a payment against the statement: the amount due drops by v (never below
// zero) and v is added to the paid total.
func (r Revolving) Pay(v decimal.Decimal) (Revolving, error) {
	if !v.IsPositive() {
		return r, fmt.Errorf("%w: payment must be positive, got %s", ErrInvalidAmount, v)
	}
	r.AmountDue = decimal.Max(decimal.Zero, r.AmountDue.Sub(v))
	r.PaidAmount = r.PaidAmount.Add(v)
	return r, nil
}

// UpdateStatement starts a new statement cycle with balance v due on due.
func (r Revolving) UpdateStatement(v decimal.Decimal, due Date) (Revolving, error) {
	if v.IsNegative() {
		return r, fmt.Errorf("%w: statement balance is %s", ErrInvalidAmount, v)
	}
	r.StatementBalance = v
	r.AmountDue = v
	r.PaidAmount = decimal.Zero
	r.DueDate = due
	return r, nil
}
