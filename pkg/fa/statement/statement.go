// Package statement provides safe lookups over statement and quote snapshots.
// Absent data is reported as types.Unavailable; nothing here errors or panics on absence.
package statement

import (
	"sort"

	"github.com/komsit37/fa/pkg/fa/types"
)

// LookupLatest returns the most recent period's value for item.
func LookupLatest(s types.StatementSnapshot, item string) types.Value {
	return Lookup(s, item, 0)
}

// Lookup returns item's value for the period at index (0 is the most recent).
func Lookup(s types.StatementSnapshot, item string, period int) types.Value {
	vals, ok := s.Items[item]
	if !ok || period < 0 || period >= len(s.Periods) || period >= len(vals) {
		return types.Unavailable
	}
	return vals[period]
}

// LookupQuote returns metric if present and non-null, otherwise def.
func LookupQuote(q types.QuoteSnapshot, metric string, def types.Value) types.Value {
	v, ok := q[metric]
	if !ok || !v.Available() {
		return def
	}
	return v
}

// LatestPeriod returns the identifier of the most recent period.
// It returns false when the statement has no periods at all.
func LatestPeriod(s types.StatementSnapshot) (string, bool) {
	if len(s.Periods) == 0 {
		return "", false
	}
	return s.Periods[0], true
}

// IsEmpty reports whether the statement has no reporting periods. Line items
// without periods are never read.
func IsEmpty(s types.StatementSnapshot) bool {
	return len(s.Periods) == 0
}

// Items returns the line-item names in s, sorted.
func Items(s types.StatementSnapshot) []string {
	out := make([]string, 0, len(s.Items))
	for k := range s.Items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
