package model

import (
	"fmt"
	"strings"
	"time"
)

// Account is a purchased service account or subscription with an expiry date.
type Account struct {
	ID           string    `json:"id,omitempty"`
	ServiceName  string    `json:"serviceName"`
	MainMail     string    `json:"mainMail"`
	Provider     string    `json:"provider,omitempty"`
	BuyerNick    string    `json:"buyerNick,omitempty"`
	PurchaseDate Date      `json:"purchaseDate"`
	ExpiryDate   Date      `json:"expiryDate"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Validate checks that the account can be stored.
func (a Account) Validate() error {
	if strings.TrimSpace(a.ServiceName) == "" {
		return fmt.Errorf("account: service name is required")
	}
	if !a.PurchaseDate.IsZero() && !a.ExpiryDate.IsZero() && a.ExpiryDate.Before(a.PurchaseDate) {
		return fmt.Errorf("account %s: expiry %s is before purchase %s", a.ServiceName, a.ExpiryDate, a.PurchaseDate)
	}
	return nil
}

// ExpiryStatus buckets an account by how close its expiry is.
type ExpiryStatus string

const (
	ExpiryActive   ExpiryStatus = "active"
	ExpiryExpiring ExpiryStatus = "expiring"
	ExpiryExpired  ExpiryStatus = "expired"
	// ExpiryUnknown is used for accounts without an expiry date.
	ExpiryUnknown ExpiryStatus = "unknown"
)

// ParseExpiryStatus accepts the status names plus "all", which maps to "".
func ParseExpiryStatus(s string) (ExpiryStatus, error) {
	switch v := ExpiryStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case ExpiryActive, ExpiryExpiring, ExpiryExpired, ExpiryUnknown:
		return v, nil
	case "", "all":
		return "", nil
	}
	return "", fmt.Errorf("unknown account status %q", s)
}

// ExpiringAccount is an account projected onto its expiry date.
type ExpiringAccount struct {
	Account  Account
	DaysLeft int
}

// FeedItem is one row of the merged attention feed: exactly one of Upcoming or Account is set.
type FeedItem struct {
	DaysLeft int
	Upcoming *UpcomingItem
	Account  *ExpiringAccount
}

// Title is the row label.
func (f FeedItem) Title() string {
	if f.Account != nil {
		return f.Account.Account.ServiceName
	}
	if f.Upcoming != nil {
		return f.Upcoming.Obligation.Name()
	}
	return ""
}
