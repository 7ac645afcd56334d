package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/theirongolddev/obligo/internal/model"
)

// PutAccount inserts or replaces an account, assigning an ID when it has none.
func (s *Store) PutAccount(a model.Account) (model.Account, error) {
	if err := a.Validate(); err != nil {
		return model.Account{}, err
	}
	now := s.now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	_, err := s.db.Exec(`INSERT OR REPLACE INTO accounts
		(id, service_name, main_mail, provider, buyer_nick, purchase_date, expiry_date,
		 note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ServiceName, a.MainMail, a.Provider, a.BuyerNick,
		nullDate(a.PurchaseDate), nullDate(a.ExpiryDate), a.Note,
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return model.Account{}, fmt.Errorf("saving account %s: %w", a.ServiceName, err)
	}
	return a, nil
}

const accountColumns = `id, service_name, main_mail, provider, buyer_nick,
	purchase_date, expiry_date, note, created_at, updated_at`

// GetAccount loads one account by ID.
func (s *Store) GetAccount(id string) (model.Account, error) {
	row := s.db.QueryRow("SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return a, err
}

// ListAccounts returns all accounts ordered by expiry, undated ones last.
func (s *Store) ListAccounts() ([]model.Account, error) {
	rows, err := s.db.Query("SELECT " + accountColumns + ` FROM accounts
		ORDER BY expiry_date IS NULL, expiry_date, service_name`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes an account.
func (s *Store) DeleteAccount(id string) error {
	res, err := s.db.Exec("DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(sc scanner) (model.Account, error) {
	var a model.Account
	var purchase, expiry sql.NullString
	var created, updated string
	err := sc.Scan(&a.ID, &a.ServiceName, &a.MainMail, &a.Provider, &a.BuyerNick,
		&purchase, &expiry, &a.Note, &created, &updated)
	if err != nil {
		return model.Account{}, err
	}
	if purchase.Valid {
		a.PurchaseDate, _ = model.ParseDate(purchase.String)
	}
	if expiry.Valid {
		a.ExpiryDate, _ = model.ParseDate(expiry.String)
	}
	a.CreatedAt = parseTime(created)
	a.UpdatedAt = parseTime(updated)
	return a, nil
}

func nullDate(d model.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
