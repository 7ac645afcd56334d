package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/obligo/internal/model"
)

type fakeSource struct {
	obligations []model.Obligation
	accounts    []model.Account
	err         error
}

func (f *fakeSource) ListObligations() ([]model.Obligation, error) { return f.obligations, f.err }
func (f *fakeSource) ListAccounts() ([]model.Account, error)       { return f.accounts, f.err }

func newTestService(t *testing.T, src Source) *Service {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := New(Config{EventsBuffer: 10}, src, log)
	s.now = func() time.Time { return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC) }
	return s
}

func card(id string, due int64) model.Revolving {
	return model.Revolving{
		Meta:             model.Meta{ID: id, Status: model.StatusPending},
		Type:             model.KindCreditCard,
		Source:           "Card " + id,
		StatementBalance: decimal.NewFromInt(due),
		AmountDue:        decimal.NewFromInt(due),
		DueDate:          model.MustDate("2024-06-15"),
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		TotalPayable: decimal.NewFromInt(10_000_000),
		MonthlyDue:   decimal.NewFromInt(2_000_000),
		Upcoming:     3,
		Overdue:      1,
	}
	curr := Snapshot{
		TotalPayable: decimal.NewFromInt(8_500_000),
		MonthlyDue:   decimal.NewFromInt(2_000_000),
		Receivable:   decimal.NewFromInt(500_000),
		Upcoming:     2,
		Overdue:      1,
	}

	delta := diffSnapshots(prev, curr)
	if !delta.TotalPayable.Equal(decimal.NewFromInt(-1_500_000)) {
		t.Fatalf("TotalPayable delta = %s, want -1500000", delta.TotalPayable)
	}
	if !delta.Receivable.Equal(decimal.NewFromInt(500_000)) {
		t.Fatalf("Receivable delta = %s, want 500000", delta.Receivable)
	}
	if delta.Upcoming != -1 || delta.Overdue != 0 {
		t.Fatalf("counts delta = %d/%d, want -1/0", delta.Upcoming, delta.Overdue)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("self diff is not zero")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, &fakeSource{}, nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_PublishesOnlyOnChange(t *testing.T) {
	src := &fakeSource{obligations: []model.Obligation{card("a", 1_000_000)}}
	s := newTestService(t, src)

	s.pollOnce()
	s.pollOnce()

	s.mu.RLock()
	if len(s.events) != 1 || s.events[0].Type != EventSnapshot {
		s.mu.RUnlock()
		t.Fatalf("after two identical polls events = %+v, want one snapshot", s.events)
	}
	if s.snapshot.Upcoming != 1 || s.snapshot.Next == nil || s.snapshot.Next.DaysLeft != 5 {
		s.mu.RUnlock()
		t.Fatalf("snapshot = %+v", s.snapshot)
	}
	s.mu.RUnlock()

	src.obligations = []model.Obligation{card("a", 400_000)}
	s.pollOnce()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 {
		t.Fatalf("events = %d, want 2", len(s.events))
	}
	ev := s.events[1]
	if ev.Type != EventChanged || ev.ID != 2 {
		t.Fatalf("event = %s #%d, want %s #2", ev.Type, ev.ID, EventChanged)
	}
	if !ev.Delta.TotalPayable.Equal(decimal.NewFromInt(-600_000)) {
		t.Fatalf("delta = %s, want -600000", ev.Delta.TotalPayable)
	}
	if s.pollCount != 3 {
		t.Fatalf("pollCount = %d, want 3", s.pollCount)
	}
}

func TestPollOnce_RecordsError(t *testing.T) {
	s := newTestService(t, &fakeSource{err: errors.New("disk gone")})
	s.pollOnce()

	st := s.snapshotStatus()
	if st.LastError == "" || st.EventCount != 0 {
		t.Fatalf("status = %+v, want error and no events", st)
	}
}

func TestDigest_CarriesFeed(t *testing.T) {
	src := &fakeSource{
		obligations: []model.Obligation{card("a", 1_000_000)},
		accounts: []model.Account{
			{ID: "acc", ServiceName: "Netflix", ExpiryDate: model.MustDate("2024-06-11")},
		},
	}
	s := newTestService(t, src)

	s.digest()
	if st := s.snapshotStatus(); st.EventCount != 0 {
		t.Fatalf("digest before first poll published %d events", st.EventCount)
	}

	s.pollOnce()
	s.digest()

	s.mu.RLock()
	defer s.mu.RUnlock()
	last := s.events[len(s.events)-1]
	if last.Type != EventDigest {
		t.Fatalf("last event = %s, want digest", last.Type)
	}
	if len(last.Items) != 2 {
		t.Fatalf("digest items = %d, want 2", len(last.Items))
	}
	if last.Items[0].Title != "Netflix" || last.Items[0].Kind != "account" {
		t.Fatalf("first digest item = %+v, want the account expiring tomorrow", last.Items[0])
	}
}

func TestHandlers(t *testing.T) {
	s := newTestService(t, &fakeSource{obligations: []model.Obligation{card("a", 1_000_000)}})
	s.pollOnce()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok\n" {
		t.Fatalf("/healthz = %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(srv.URL + "/v1/status")
	if err != nil {
		t.Fatalf("GET /v1/status: %v", err)
	}
	var st Status
	err = json.NewDecoder(resp.Body).Decode(&st)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.PollCount != 1 || !st.Summary.TotalPayable.Equal(decimal.NewFromInt(1_000_000)) {
		t.Fatalf("status = %+v", st)
	}

	resp, err = http.Get(srv.URL + "/v1/events")
	if err != nil {
		t.Fatalf("GET /v1/events: %v", err)
	}
	var events []Event
	err = json.NewDecoder(resp.Body).Decode(&events)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("decoding events: %v", err)
	}
	if len(events) != 1 || events[0].Snapshot.Next == nil || events[0].Snapshot.Next.DueDate.String() != "2024-06-15" {
		t.Fatalf("events = %+v", events)
	}
}
