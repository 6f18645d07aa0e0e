package ratio

import (
	"errors"

	"github.com/komsit37/fa/pkg/fa/types"
)

var (
	// ErrMissingOperand marks a ratio whose formula needs a value the inputs do not have.
	ErrMissingOperand = errors.New("missing operand")
	// ErrDivisionByZero marks a ratio whose denominator is exactly zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrNotFinite marks a ratio whose arithmetic overflowed.
	ErrNotFinite = errors.New("result not finite")
)

// Result is one computed ratio. Err is nil exactly when Value is available.
type Result struct {
	Name  string
	Group string
	Value types.Value
	Err   error
}

// Set is an immutable, ordered collection of ratio results.
type Set struct {
	results []Result
	index   map[string]int
}

func newSet(results []Result) Set {
	idx := make(map[string]int, len(results))
	for i, r := range results {
		idx[r.Name] = i
	}
	return Set{results: results, index: idx}
}

// Len returns the number of ratios in s.
func (s Set) Len() int { return len(s.results) }

// Get returns the named ratio's value; unknown names are Unavailable.
func (s Set) Get(name string) types.Value {
	r, ok := s.Result(name)
	if !ok {
		return types.Unavailable
	}
	return r.Value
}

// Result returns the named ratio.
func (s Set) Result(name string) (Result, bool) {
	i, ok := s.index[name]
	if !ok {
		return Result{}, false
	}
	return s.results[i], true
}

// Results returns a copy of all results in display order.
func (s Set) Results() []Result {
	return append([]Result(nil), s.results...)
}

// Names returns ratio names in display order.
func (s Set) Names() []string {
	out := make([]string, len(s.results))
	for i, r := range s.results {
		out[i] = r.Name
	}
	return out
}

// Select returns the subset of s whose names satisfy keep, preserving order.
func (s Set) Select(keep func(name string) bool) Set {
	out := make([]Result, 0, len(s.results))
	for _, r := range s.results {
		if keep(r.Name) {
			out = append(out, r)
		}
	}
	return newSet(out)
}
