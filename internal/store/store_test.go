package store

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/obligo/internal/model"
)

// openTemp opens a fresh store whose clock advances one second per call.
func openTemp(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	s, err := Open(filepath.Join(t.TempDir(), "nested", "obligo.db"), log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	clock := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func sampleCard() model.Revolving {
	return model.Revolving{
		Type:             model.KindCreditCard,
		Source:           "VPBank Visa",
		StatementBalance: decimal.NewFromInt(4_000_000),
		AmountDue:        decimal.NewFromInt(4_000_000),
		CreditLimit:      decimal.NewFromInt(30_000_000),
		DueDate:          model.MustDate("2024-06-15"),
	}
}

func TestPutAndGetObligation(t *testing.T) {
	s := openTemp(t)

	saved, err := s.PutObligation(sampleCard())
	if err != nil {
		t.Fatalf("PutObligation: %v", err)
	}
	m := saved.Info()
	if m.ID == "" {
		t.Fatal("PutObligation did not assign an ID")
	}
	if m.Status != model.StatusPending {
		t.Fatalf("Status = %q, want pending", m.Status)
	}
	if m.CreatedAt.IsZero() || !m.CreatedAt.Equal(m.UpdatedAt) {
		t.Fatalf("timestamps = %v / %v", m.CreatedAt, m.UpdatedAt)
	}

	got, err := s.GetObligation(m.ID)
	if err != nil {
		t.Fatalf("GetObligation: %v", err)
	}
	card, ok := got.(model.Revolving)
	if !ok {
		t.Fatalf("GetObligation returned %T, want model.Revolving", got)
	}
	if card.Kind() != model.KindCreditCard || card.Source != "VPBank Visa" {
		t.Fatalf("loaded %s %q", card.Kind(), card.Source)
	}
	if !card.AmountDue.Equal(decimal.NewFromInt(4_000_000)) || !card.DueDate.Equal(model.MustDate("2024-06-15")) {
		t.Fatalf("loaded due %s on %s", card.AmountDue, card.DueDate)
	}
}

func TestPutObligation_RejectsInvalid(t *testing.T) {
	s := openTemp(t)

	bad := model.Installment{Description: "phone", Method: model.MethodFlat, StartDate: model.MustDate("2024-01-01")}
	if _, err := s.PutObligation(bad); !errors.Is(err, model.ErrInvalidTerm) {
		t.Fatalf("err = %v, want ErrInvalidTerm", err)
	}
	n, err := s.ObligationCount()
	if err != nil {
		t.Fatalf("ObligationCount: %v", err)
	}
	if n != 0 {
		t.Fatalf("ObligationCount = %d, want 0", n)
	}
}

func TestListObligations_OldestFirst(t *testing.T) {
	s := openTemp(t)

	obs := []model.Obligation{
		sampleCard(),
		model.Installment{
			Description: "Laptop", Lender: "Home Credit",
			Principal: decimal.NewFromInt(12_000_000), AnnualRate: decimal.NewFromInt(24),
			TermMonths: 12, Method: model.MethodFlat, StartDate: model.MustDate("2024-01-01"),
		},
		model.Personal{Type: model.KindPersonalLend, Counterparty: "Linh", Amount: decimal.NewFromInt(500_000)},
		model.Planned{Description: "Tet trip", Amount: decimal.NewFromInt(8_000_000), PlannedDate: model.MustDate("2025-01-20")},
	}
	if _, err := s.PutObligations(obs); err != nil {
		t.Fatalf("PutObligations: %v", err)
	}

	got, err := s.ListObligations()
	if err != nil {
		t.Fatalf("ListObligations: %v", err)
	}
	want := []model.Kind{model.KindCreditCard, model.KindInstallment, model.KindPersonalLend, model.KindPlanned}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, k := range want {
		if got[i].Kind() != k {
			t.Errorf("ListObligations[%d] = %s, want %s", i, got[i].Kind(), k)
		}
	}
}

func TestPutObligations_RollsBackOnError(t *testing.T) {
	s := openTemp(t)

	obs := []model.Obligation{
		sampleCard(),
		model.Personal{Counterparty: "Bad", Amount: decimal.NewFromInt(-1)},
	}
	if _, err := s.PutObligations(obs); !errors.Is(err, model.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if n, _ := s.ObligationCount(); n != 0 {
		t.Fatalf("ObligationCount = %d after rollback, want 0", n)
	}
}

func TestPayAndUpdateStatement(t *testing.T) {
	s := openTemp(t)
	saved, err := s.PutObligation(sampleCard())
	if err != nil {
		t.Fatalf("PutObligation: %v", err)
	}
	id := saved.Info().ID

	paid, err := s.Pay(id, decimal.NewFromInt(1_500_000))
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if !paid.AmountDue.Equal(decimal.NewFromInt(2_500_000)) || !paid.PaidAmount.Equal(decimal.NewFromInt(1_500_000)) {
		t.Fatalf("after pay: due %s paid %s", paid.AmountDue, paid.PaidAmount)
	}
	if !paid.UpdatedAt.After(paid.CreatedAt) {
		t.Fatal("Pay did not bump UpdatedAt")
	}

	next, err := s.UpdateStatement(id, decimal.NewFromInt(3_200_000), model.MustDate("2024-07-15"))
	if err != nil {
		t.Fatalf("UpdateStatement: %v", err)
	}
	if !next.PaidAmount.IsZero() || !next.AmountDue.Equal(decimal.NewFromInt(3_200_000)) {
		t.Fatalf("after statement: due %s paid %s", next.AmountDue, next.PaidAmount)
	}

	reloaded, err := s.GetObligation(id)
	if err != nil {
		t.Fatalf("GetObligation: %v", err)
	}
	if r := reloaded.(model.Revolving); r.DueDate.String() != "2024-07-15" {
		t.Fatalf("persisted due date = %s, want 2024-07-15", r.DueDate)
	}
}

func TestPay_WrongKindAndMissing(t *testing.T) {
	s := openTemp(t)
	saved, err := s.PutObligation(model.Planned{Description: "bike", Amount: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("PutObligation: %v", err)
	}

	if _, err := s.Pay(saved.Info().ID, decimal.NewFromInt(1)); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("Pay on planned err = %v, want ErrWrongKind", err)
	}
	if _, err := s.Pay("missing", decimal.NewFromInt(1)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Pay on missing err = %v, want ErrNotFound", err)
	}
}

func TestToggleAndDelete(t *testing.T) {
	s := openTemp(t)
	saved, err := s.PutObligation(model.Personal{Counterparty: "Minh", Amount: decimal.NewFromInt(200_000)})
	if err != nil {
		t.Fatalf("PutObligation: %v", err)
	}
	id := saved.Info().ID

	toggled, err := s.Toggle(id)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if toggled.Info().Status != model.StatusPaid {
		t.Fatalf("Status = %s, want paid", toggled.Info().Status)
	}
	if !toggled.Info().CreatedAt.Equal(saved.Info().CreatedAt) {
		t.Fatal("Toggle changed CreatedAt")
	}

	if err := s.DeleteObligation(id); err != nil {
		t.Fatalf("DeleteObligation: %v", err)
	}
	if _, err := s.GetObligation(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetObligation after delete err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteObligation(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestAccounts(t *testing.T) {
	s := openTemp(t)

	for _, a := range []model.Account{
		{ServiceName: "Canva", MainMail: "me@mail.test"},
		{ServiceName: "Netflix", MainMail: "me@mail.test", ExpiryDate: model.MustDate("2024-07-01"), Provider: "shopA"},
		{ServiceName: "ChatGPT", MainMail: "me@mail.test", PurchaseDate: model.MustDate("2024-05-20"), ExpiryDate: model.MustDate("2024-06-20")},
	} {
		if _, err := s.PutAccount(a); err != nil {
			t.Fatalf("PutAccount(%s): %v", a.ServiceName, err)
		}
	}

	got, err := s.ListAccounts()
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	want := []string{"ChatGPT", "Netflix", "Canva"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].ServiceName != name {
			t.Errorf("ListAccounts[%d] = %s, want %s", i, got[i].ServiceName, name)
		}
	}
	if got[0].PurchaseDate.String() != "2024-05-20" || got[1].Provider != "shopA" {
		t.Fatalf("fields not round-tripped: %+v", got[:2])
	}
	if !got[2].ExpiryDate.IsZero() {
		t.Fatalf("undated account has expiry %s", got[2].ExpiryDate)
	}

	if _, err := s.PutAccount(model.Account{}); err == nil {
		t.Fatal("PutAccount accepted an account without a name")
	}
	if err := s.DeleteAccount(got[0].ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := s.GetAccount(got[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetAccount after delete err = %v, want ErrNotFound", err)
	}
}
