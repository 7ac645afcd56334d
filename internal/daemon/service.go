// Package daemon provides the long-running background obligation monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/obligo/internal/engine"
	"github.com/theirongolddev/obligo/internal/model"
)

// Source is the ledger the daemon reads. *store.Store satisfies it.
type Source interface {
	ListObligations() ([]model.Obligation, error)
	ListAccounts() ([]model.Account, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	DBPath       string
	WindowDays   int
	Schedule     string // cron spec for refreshes
	Digest       string // cron spec for the digest event, empty to disable
	Addr         string
	EventsBuffer int
}

// Snapshot is a compact ledger state for status/event payloads.
type Snapshot struct {
	At           time.Time       `json:"at"`
	Obligations  int             `json:"obligations"`
	TotalPayable decimal.Decimal `json:"total_payable"`
	MonthlyDue   decimal.Decimal `json:"monthly_due"`
	Receivable   decimal.Decimal `json:"receivable"`
	Upcoming     int             `json:"upcoming"`
	Overdue      int             `json:"overdue"`
	Expiring     int             `json:"expiring_accounts"`
	Skipped      int             `json:"skipped"`
	Next         *DueLine        `json:"next,omitempty"`
	Fingerprint  uint64          `json:"fingerprint"`
}

// DueLine is one row of the attention feed.
type DueLine struct {
	Title    string          `json:"title"`
	Kind     string          `json:"kind"`
	DueDate  model.Date      `json:"due_date"`
	DaysLeft int             `json:"days_left"`
	Amount   decimal.Decimal `json:"amount"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	TotalPayable decimal.Decimal `json:"total_payable"`
	MonthlyDue   decimal.Decimal `json:"monthly_due"`
	Receivable   decimal.Decimal `json:"receivable"`
	Upcoming     int             `json:"upcoming"`
	Overdue      int             `json:"overdue"`
	Expiring     int             `json:"expiring_accounts"`
}

func (d Delta) isZero() bool {
	return d.TotalPayable.IsZero() &&
		d.MonthlyDue.IsZero() &&
		d.Receivable.IsZero() &&
		d.Upcoming == 0 &&
		d.Overdue == 0 &&
		d.Expiring == 0
}

// Event types.
const (
	EventSnapshot = "snapshot"
	EventChanged  = "ledger_changed"
	EventDigest   = "digest"
)

// Event is emitted whenever the ledger snapshot changes, and on every digest tick.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	Items     []DueLine `json:"items,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	Schedule        string    `json:"schedule"`
	Digest          string    `json:"digest,omitempty"`
	PollCount       int64     `json:"poll_count"`
	DBPath          string    `json:"db_path"`
	WindowDays      int       `json:"window_days"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	src Source
	log logrus.FieldLogger
	now func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	feed        []DueLine
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service reading from src.
func New(cfg Config, src Source, log logrus.FieldLogger) *Service {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = engine.DefaultWindowDays
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Service{
		cfg:       cfg,
		src:       src,
		log:       log,
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run serves the HTTP API and runs the refresh and digest schedules until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(s.log))))
	if _, err := sched.AddFunc(s.cfg.Schedule, s.pollOnce); err != nil {
		return fmt.Errorf("daemon schedule %q: %w", s.cfg.Schedule, err)
	}
	if s.cfg.Digest != "" {
		if _, err := sched.AddFunc(s.cfg.Digest, s.digest); err != nil {
			return fmt.Errorf("daemon digest %q: %w", s.cfg.Digest, err)
		}
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		<-sched.Stop().Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	s.log.WithFields(logrus.Fields{
		"addr":     s.cfg.Addr,
		"schedule": s.cfg.Schedule,
		"digest":   s.cfg.Digest,
	}).Info("daemon started")
	return g.Wait()
}

func (s *Service) pollOnce() {
	obligations, accounts, err := s.load()
	now := s.now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.WithError(err).Error("daemon poll failed")
		return
	}

	snap, feed := buildSnapshot(obligations, accounts, now, s.cfg.WindowDays)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.feed = feed
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else if prev.Fingerprint != snap.Fingerprint {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventChanged,
			Timestamp: now,
			Snapshot:  snap,
			Delta:     diffSnapshots(prev, snap),
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.log.WithFields(logrus.Fields{"event": ev.Type, "upcoming": snap.Upcoming, "overdue": snap.Overdue}).Debug("ledger snapshot published")
		s.publishEvent(ev)
	}
}

// digest re-publishes the current feed so subscribers get a daily reminder.
func (s *Service) digest() {
	s.mu.Lock()
	if !s.hasSnapshot {
		s.mu.Unlock()
		return
	}
	s.nextEventID++
	items := make([]DueLine, len(s.feed))
	copy(items, s.feed)
	ev := Event{
		ID:        s.nextEventID,
		Type:      EventDigest,
		Timestamp: s.now(),
		Snapshot:  s.snapshot,
		Items:     items,
	}
	s.mu.Unlock()

	s.log.WithField("items", len(items)).Info("digest published")
	s.publishEvent(ev)
}

func (s *Service) load() ([]model.Obligation, []model.Account, error) {
	obligations, err := s.src.ListObligations()
	if err != nil {
		return nil, nil, fmt.Errorf("loading obligations: %w", err)
	}
	accounts, err := s.src.ListAccounts()
	if err != nil {
		return nil, nil, fmt.Errorf("loading accounts: %w", err)
	}
	return obligations, accounts, nil
}

// buildSnapshot aggregates the ledger and returns the snapshot plus the merged feed.
func buildSnapshot(obligations []model.Obligation, accounts []model.Account, now time.Time, windowDays int) (Snapshot, []DueLine) {
	sum := engine.AggregateWindow(obligations, now, windowDays)
	expiring := engine.ExpiringAccounts(accounts, now, windowDays)
	merged := engine.MergeFeeds(sum.Upcoming, expiring)

	feed := make([]DueLine, 0, len(merged))
	for _, item := range merged {
		line := DueLine{Title: item.Title(), DaysLeft: item.DaysLeft}
		switch {
		case item.Upcoming != nil:
			line.Kind = string(item.Upcoming.Obligation.Kind())
			line.DueDate = item.Upcoming.DueDate
			line.Amount = item.Upcoming.DueAmount
		case item.Account != nil:
			line.Kind = "account"
			line.DueDate = item.Account.Account.ExpiryDate
		}
		feed = append(feed, line)
	}

	snap := Snapshot{
		At:           now,
		Obligations:  len(obligations),
		TotalPayable: sum.TotalPayable,
		MonthlyDue:   sum.MonthlyDue,
		Receivable:   sum.Receivable,
		Upcoming:     len(sum.Upcoming),
		Overdue:      sum.OverdueCount(),
		Expiring:     len(expiring),
		Skipped:      len(sum.Skipped),
	}
	if len(feed) > 0 {
		next := feed[0]
		snap.Next = &next
	}
	snap.Fingerprint = fingerprint(snap, feed)
	return snap, feed
}

// fingerprint hashes everything but the timestamp. Decimals are hashed through their
// string form since hashstructure skips unexported fields.
func fingerprint(snap Snapshot, feed []DueLine) uint64 {
	type line struct {
		Title, Kind, Due, Amount string
		DaysLeft                 int
	}
	v := struct {
		Obligations, Upcoming, Overdue, Expiring, Skipped int
		TotalPayable, MonthlyDue, Receivable               string
		Feed                                               []line
	}{
		Obligations:  snap.Obligations,
		Upcoming:     snap.Upcoming,
		Overdue:      snap.Overdue,
		Expiring:     snap.Expiring,
		Skipped:      snap.Skipped,
		TotalPayable: snap.TotalPayable.String(),
		MonthlyDue:   snap.MonthlyDue.String(),
		Receivable:   snap.Receivable.String(),
	}
	for _, f := range feed {
		v.Feed = append(v.Feed, line{f.Title, f.Kind, f.DueDate.String(), f.Amount.String(), f.DaysLeft})
	}
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		TotalPayable: curr.TotalPayable.Sub(prev.TotalPayable),
		MonthlyDue:   curr.MonthlyDue.Sub(prev.MonthlyDue),
		Receivable:   curr.Receivable.Sub(prev.Receivable),
		Upcoming:     curr.Upcoming - prev.Upcoming,
		Overdue:      curr.Overdue - prev.Overdue,
		Expiring:     curr.Expiring - prev.Expiring,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		Schedule:        s.cfg.Schedule,
		Digest:          s.cfg.Digest,
		PollCount:       s.pollCount,
		DBPath:          s.cfg.DBPath,
		WindowDays:      s.cfg.WindowDays,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
