package cmd

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/obligo/internal/model"
	"github.com/theirongolddev/obligo/internal/store"
)

func TestBuildObligationCard(t *testing.T) {
	o, err := buildObligation(model.KindCreditCard, addInput{
		Name:   "VPBank Visa",
		Amount: "4,000,000",
		Limit:  "30000000",
		Due:    "2024-06-15",
	})
	if err != nil {
		t.Fatalf("buildObligation: %v", err)
	}
	r, ok := o.(model.Revolving)
	if !ok {
		t.Fatalf("got %T, want model.Revolving", o)
	}
	if !r.AmountDue.Equal(decimal.NewFromInt(4_000_000)) {
		t.Errorf("AmountDue = %s, want 4000000", r.AmountDue)
	}
	if !r.StatementBalance.Equal(r.AmountDue) {
		t.Errorf("StatementBalance = %s, want it to default to the amount", r.StatementBalance)
	}
	if r.DueDate != model.MustDate("2024-06-15") {
		t.Errorf("DueDate = %s", r.DueDate)
	}
	if r.Info().Status != model.StatusPending {
		t.Errorf("Status = %s, want pending", r.Info().Status)
	}
}

func TestBuildObligationInstallment(t *testing.T) {
	o, err := buildObligation(model.KindInstallment, addInput{
		Name:   "Laptop",
		Source: "Home Credit",
		Amount: "12000000",
		Rate:   "24",
		Term:   "12",
		Start:  "2024-01-01",
	})
	if err != nil {
		t.Fatalf("buildObligation: %v", err)
	}
	inst := o.(model.Installment)
	if inst.Method != model.MethodFlat {
		t.Errorf("Method = %q, want flat by default", inst.Method)
	}
	if inst.TermMonths != 12 || inst.Lender != "Home Credit" {
		t.Errorf("got term %d lender %q", inst.TermMonths, inst.Lender)
	}
}

func TestBuildObligationErrors(t *testing.T) {
	tests := []struct {
		name string
		kind model.Kind
		in   addInput
		want error
	}{
		{"bad term", model.KindInstallment, addInput{Name: "TV", Amount: "1", Term: "x", Start: "2024-01-01"}, model.ErrInvalidTerm},
		{"zero term", model.KindInstallment, addInput{Name: "TV", Amount: "1", Term: "0", Start: "2024-01-01"}, model.ErrInvalidTerm},
		{"no start", model.KindInstallment, addInput{Name: "TV", Amount: "1", Term: "6"}, model.ErrMissingDate},
		{"bad method", model.KindInstallment, addInput{Name: "TV", Amount: "1", Term: "6", Start: "2024-01-01", Method: "balloon"}, model.ErrInvalidMethod},
		{"fixed without monthly", model.KindInstallment, addInput{Name: "TV", Amount: "1", Term: "6", Start: "2024-01-01", Method: "fixed"}, model.ErrInvalidAmount},
		{"negative lend", model.KindPersonalLend, addInput{Name: "Linh", Amount: "-5"}, model.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildObligation(tt.kind, tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildObligationInputErrors(t *testing.T) {
	if _, err := buildObligation(model.KindPlanned, addInput{Amount: "100"}); err == nil {
		t.Error("planned without a name: want error")
	}
	if _, err := buildObligation(model.KindCreditCard, addInput{Name: "Card", Amount: "lots"}); err == nil {
		t.Error("non-numeric amount: want error")
	}
	if _, err := buildObligation(model.KindPersonalLoan, addInput{Name: "An", Due: "15/06/2024"}); err == nil {
		t.Error("malformed due date: want error")
	}
}

func TestMatchID(t *testing.T) {
	ids := []string{"a1b2c3", "a1ffff", "b7d9e0"}

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"b7", "b7d9e0", false},
		{"a1b", "a1b2c3", false},
		{"a1ffff", "a1ffff", false},
		{"a1", "", true},
		{"zz", "", true},
		{"  ", "", true},
	}
	for _, tt := range tests {
		got, err := matchID(ids, tt.ref, "obligation")
		if (err != nil) != tt.wantErr {
			t.Errorf("matchID(%q) err = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("matchID(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}

	if _, err := matchID(ids, "zz", "account"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", " VIB ", "x"); got != "VIB" {
		t.Errorf("firstNonEmpty = %q, want VIB", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Errorf("firstNonEmpty() = %q, want empty", got)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q, want 01234567", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(abc) = %q", got)
	}
}
