package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/obligo/internal/model"
)

// ErrWrongKind is returned when an action does not apply to the stored obligation kind.
var ErrWrongKind = errors.New("action not supported for this kind")

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// PutObligation validates and stores o, inserting it or replacing the record with the
// same ID. A missing ID gets a fresh UUID and a missing status defaults to pending.
// The stored form is returned.
func (s *Store) PutObligation(o model.Obligation) (model.Obligation, error) {
	return s.putObligation(s.db, o)
}

// PutObligations stores many obligations in one transaction. Any failure rolls back all.
func (s *Store) PutObligations(obs []model.Obligation) ([]model.Obligation, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stored := make([]model.Obligation, 0, len(obs))
	for _, o := range obs {
		saved, err := s.putObligation(tx, o)
		if err != nil {
			return nil, err
		}
		stored = append(stored, saved)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) putObligation(ex execer, o model.Obligation) (model.Obligation, error) {
	if o == nil {
		return nil, fmt.Errorf("storing obligation: %w", model.ErrUnknownKind)
	}
	now := s.now().UTC()
	m := o.Info()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = model.StatusPending
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	o = o.WithMeta(m)

	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s %q: %w", o.Kind(), o.Name(), err)
	}
	payload, err := model.MarshalObligation(o)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", m.ID, err)
	}

	_, err = ex.Exec(`INSERT OR REPLACE INTO obligations
		(id, kind, status, name, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, string(o.Kind()), string(m.Status), o.Name(), string(payload),
		formatTime(m.CreatedAt), formatTime(m.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("saving obligation %s: %w", m.ID, err)
	}
	return o, nil
}

// GetObligation loads one obligation by ID.
func (s *Store) GetObligation(id string) (model.Obligation, error) {
	return getObligation(s.db, id)
}

func getObligation(ex execer, id string) (model.Obligation, error) {
	var payload string
	err := ex.QueryRow("SELECT payload FROM obligations WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("obligation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading obligation %s: %w", id, err)
	}
	o, err := model.UnmarshalObligation([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("decoding obligation %s: %w", id, err)
	}
	return o, nil
}

// ListObligations returns every stored obligation, oldest first. Rows that no longer
// decode are logged and left out.
func (s *Store) ListObligations() ([]model.Obligation, error) {
	rows, err := s.db.Query("SELECT id, payload FROM obligations ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("listing obligations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var obs []model.Obligation
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		o, err := model.UnmarshalObligation([]byte(payload))
		if err != nil {
			s.log.WithError(err).WithField("id", id).Warn("skipping undecodable obligation")
			continue
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// DeleteObligation removes an obligation.
func (s *Store) DeleteObligation(id string) error {
	res, err := s.db.Exec("DELETE FROM obligations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting obligation %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("obligation %s: %w", id, ErrNotFound)
	}
	return nil
}

// ObligationCount returns the number of stored obligations.
func (s *Store) ObligationCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM obligations").Scan(&count)
	return count, err
}

// update applies fn to the stored obligation inside a transaction.
func (s *Store) update(id string, fn func(model.Obligation) (model.Obligation, error)) (model.Obligation, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getObligation(tx, id)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	saved, err := s.putObligation(tx, next)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"id":     id,
		"kind":   saved.Kind(),
		"status": saved.Info().Status,
	}).Debug("obligation updated")
	return saved, nil
}

// Pay records a payment of amount against a card or wallet statement.
func (s *Store) Pay(id string, amount decimal.Decimal) (model.Revolving, error) {
	saved, err := s.update(id, func(o model.Obligation) (model.Obligation, error) {
		r, ok := o.(model.Revolving)
		if !ok {
			return nil, fmt.Errorf("pay %s: %w (%s)", id, ErrWrongKind, o.Kind())
		}
		paid, err := r.Pay(amount)
		if err != nil {
			return nil, err
		}
		return paid, nil
	})
	if err != nil {
		return model.Revolving{}, err
	}
	return saved.(model.Revolving), nil
}

// UpdateStatement starts a new statement cycle on a card or wallet.
func (s *Store) UpdateStatement(id string, balance decimal.Decimal, due model.Date) (model.Revolving, error) {
	saved, err := s.update(id, func(o model.Obligation) (model.Obligation, error) {
		r, ok := o.(model.Revolving)
		if !ok {
			return nil, fmt.Errorf("update statement %s: %w (%s)", id, ErrWrongKind, o.Kind())
		}
		updated, err := r.UpdateStatement(balance, due)
		if err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		return model.Revolving{}, err
	}
	return saved.(model.Revolving), nil
}

// Toggle flips an obligation between pending and paid.
func (s *Store) Toggle(id string) (model.Obligation, error) {
	return s.update(id, func(o model.Obligation) (model.Obligation, error) {
		return model.Toggle(o), nil
	})
}
