package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/obligo/internal/model"
)

// FilterByKind returns obligations of any of the given kinds. No kinds means all.
func FilterByKind(obligations []model.Obligation, kinds ...model.Kind) []model.Obligation {
	if len(kinds) == 0 {
		return obligations
	}
	var result []model.Obligation
	for _, o := range obligations {
		for _, k := range kinds {
			if o.Kind() == k {
				result = append(result, o)
				break
			}
		}
	}
	return result
}

// FilterByStatus returns obligations with the given status. An empty status means all.
func FilterByStatus(obligations []model.Obligation, status model.Status) []model.Obligation {
	if status == "" {
		return obligations
	}
	var result []model.Obligation
	for _, o := range obligations {
		if o.Info().Status == status {
			result = append(result, o)
		}
	}
	return result
}

// Search matches query against the name, lender and note of each obligation.
func Search(obligations []model.Obligation, query string) []model.Obligation {
	query = strings.TrimSpace(query)
	if query == "" {
		return obligations
	}
	var result []model.Obligation
	for _, o := range obligations {
		for _, field := range searchFields(o) {
			if containsIgnoreCase(field, query) {
				result = append(result, o)
				break
			}
		}
	}
	return result
}

func searchFields(o model.Obligation) []string {
	switch v := o.(type) {
	case model.Revolving:
		return []string{v.Source, v.Note}
	case model.Installment:
		return []string{v.Description, v.Lender}
	case model.Personal:
		return []string{v.Counterparty, v.Note}
	case model.Planned:
		return []string{v.Description}
	}
	return []string{o.Name()}
}

// PaidProgress is the share of the statement already paid, from 0 to 1.
func PaidProgress(r model.Revolving) float64 {
	if !r.StatementBalance.IsPositive() {
		return 0
	}
	p := r.PaidAmount.Div(r.StatementBalance)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return 1
	}
	return p.InexactFloat64()
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
