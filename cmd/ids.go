package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/obligo/internal/store"
)

// matchID finds the single id equal to ref or starting with it.
func matchID(ids []string, ref, what string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty %s id", what)
	}
	var matches []string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s %s: %w", what, ref, store.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("%s id %q is ambiguous (%d matches)", what, ref, len(matches))
}

func resolveID(s *store.Store, ref string) (string, error) {
	obligations, err := s.ListObligations()
	if err != nil {
		return "", err
	}
	ids := make([]string, len(obligations))
	for i, o := range obligations {
		ids[i] = o.Info().ID
	}
	return matchID(ids, ref, "obligation")
}

func resolveAccountID(s *store.Store, ref string) (string, error) {
	accounts, err := s.ListAccounts()
	if err != nil {
		return "", err
	}
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}
	return matchID(ids, ref, "account")
}
