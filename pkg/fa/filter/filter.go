package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter matches a ratio name.
type Filter interface {
	Match(name string) bool
}

// Parse builds a filter from an expression:
// - Comma-separated names, case-insensitive: "ROE,ROA"
// - Glob: "*Ratio"
// - Regex: "/Margin$/"
// - Anything else: case-insensitive substring, "yield" matches both yields.
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("ratio filter %q: %w", expr, err)
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		set := map[string]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			set[strings.ToLower(p)] = struct{}{}
		}
		return NameSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?") {
		return newGlob(expr), nil
	}
	return SubstrCI{needle: expr}, nil
}

// And matches when every filter matches.
func And(fs ...Filter) Filter { return all(fs) }

type all []Filter

func (a all) Match(name string) bool {
	for _, f := range a {
		if f != nil && !f.Match(name) {
			return false
		}
	}
	return true
}

// In matches names contained in names, exactly.
func In(names []string) Filter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return exact(set)
}

type exact map[string]struct{}

func (e exact) Match(name string) bool {
	_, ok := e[name]
	return ok
}

// Always matches every name, or none.
type Always bool

func (a Always) Match(string) bool { return bool(a) }

// NameSet matches any listed name, case-insensitively.
type NameSet struct{ set map[string]struct{} }

func (e NameSet) Match(name string) bool {
	_, ok := e.set[strings.ToLower(name)]
	return ok
}

// Glob matches shell-style patterns against the whole name. Unlike
// filepath.Match, "*" also spans "/" so "*Ratio" matches "P/B Ratio".
type Glob struct {
	pattern string
	re      *regexp.Regexp
}

func newGlob(pattern string) Glob {
	q := regexp.QuoteMeta(pattern)
	q = strings.NewReplacer(`\*`, ".*", `\?`, ".").Replace(q)
	return Glob{pattern: pattern, re: regexp.MustCompile("(?i)^" + q + "$")}
}

func (g Glob) Match(name string) bool { return g.re.MatchString(name) }

// Regex matches names against a regular expression.
type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(name string) bool { return r.re.MatchString(name) }

// SubstrCI matches if name contains needle, case-insensitively.
type SubstrCI struct{ needle string }

func (s SubstrCI) Match(name string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(s.needle))
}

func (g Glob) String() string     { return fmt.Sprintf("glob:%s", g.pattern) }
func (r Regex) String() string    { return fmt.Sprintf("regex:%s", r.re) }
func (s SubstrCI) String() string { return fmt.Sprintf("substr-ci:%s", s.needle) }
