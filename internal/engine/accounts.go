package engine

import (
	"sort"
	"time"

	"github.com/theirongolddev/obligo/internal/model"
)

// ExpiringAccounts returns the accounts whose expiry is at most windowDays away, already
// expired ones included, soonest first. It is independent of Aggregate; MergeFeeds
// combines the two.
func ExpiringAccounts(accounts []model.Account, today time.Time, windowDays int) []model.ExpiringAccount {
	var out []model.ExpiringAccount
	for _, a := range accounts {
		days, ok := DaysRemaining(a.ExpiryDate, today)
		if !ok || days > windowDays {
			continue
		}
		out = append(out, model.ExpiringAccount{Account: a, DaysLeft: days})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysLeft < out[j].DaysLeft
	})
	return out
}

// AccountStatus buckets a single account by its days to expiry.
func AccountStatus(a model.Account, today time.Time, windowDays int) model.ExpiryStatus {
	days, ok := DaysRemaining(a.ExpiryDate, today)
	switch {
	case !ok:
		return model.ExpiryUnknown
	case days < 0:
		return model.ExpiryExpired
	case days <= windowDays:
		return model.ExpiryExpiring
	default:
		return model.ExpiryActive
	}
}

// AccountFilter narrows an account listing. Zero fields match everything.
type AccountFilter struct {
	Status   model.ExpiryStatus
	Provider string
	Search   string
}

// FilterAccounts applies f, keeping input order.
func FilterAccounts(accounts []model.Account, f AccountFilter, today time.Time, windowDays int) []model.Account {
	var out []model.Account
	for _, a := range accounts {
		if f.Status != "" && AccountStatus(a, today, windowDays) != f.Status {
			continue
		}
		if f.Provider != "" && !equalFold(a.Provider, f.Provider) {
			continue
		}
		if f.Search != "" && !containsIgnoreCase(a.ServiceName, f.Search) && !containsIgnoreCase(a.MainMail, f.Search) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// MergeFeeds interleaves upcoming obligations and expiring accounts by days left. On equal
// days accounts come first, as they cannot be paid late.
func MergeFeeds(upcoming []model.UpcomingItem, accounts []model.ExpiringAccount) []model.FeedItem {
	feed := make([]model.FeedItem, 0, len(upcoming)+len(accounts))
	for i := range accounts {
		feed = append(feed, model.FeedItem{DaysLeft: accounts[i].DaysLeft, Account: &accounts[i]})
	}
	for i := range upcoming {
		feed = append(feed, model.FeedItem{DaysLeft: upcoming[i].DaysLeft, Upcoming: &upcoming[i]})
	}
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].DaysLeft < feed[j].DaysLeft
	})
	return feed
}
