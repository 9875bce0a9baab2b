// Package query holds pure functions over an in-memory snapshot of
// records: search, reveal-state filtering, ordering, statistics and the
// ownership predicate that gates the reveal action.
package query

import (
	"slices"
	"strings"

	"github.com/dmitrijs2005/fhegame/internal/models"
	"golang.org/x/text/cases"
)

// Filter keeps the records whose id or category contains term (Unicode
// case-insensitive) and whose reveal state passes f. An empty term matches
// everything. The input is not modified.
func Filter(records []models.Record, term string, f models.RevealFilter) []models.Record {
	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if !f.Match(r.Revealed) {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(r.ID), needle) &&
			!strings.Contains(fold.String(r.Category), needle) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Statistics counts records; Hidden is derived as Total - Revealed.
func Statistics(records []models.Record) models.Stats {
	var st models.Stats
	st.Total = len(records)
	for _, r := range records {
		if r.Revealed {
			st.Revealed++
		}
	}
	st.Hidden = st.Total - st.Revealed
	return st
}

// SortNewestFirst orders records by CreatedAt descending in place, keeping
// the existing order among equal timestamps.
func SortNewestFirst(records []models.Record) {
	slices.SortStableFunc(records, func(a, b models.Record) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		default:
			return 0
		}
	})
}

// IsOwner compares addresses case-insensitively. An empty account owns
// nothing.
func IsOwner(account, owner string) bool {
	return account != "" && strings.EqualFold(account, owner)
}

// CanReveal reports whether the reveal action should be offered to
// account for r.
func CanReveal(account string, r models.Record) bool {
	return !r.Revealed && IsOwner(account, r.Owner)
}
