package ratio

import "strings"

// Ratio groups.
const (
	GroupProfitability = "profitability"
	GroupLiquidity     = "liquidity"
	GroupSolvency      = "solvency"
	GroupValuation     = "valuation"
	GroupEfficiency    = "efficiency"
)

var groupOrder = []string{
	GroupProfitability,
	GroupLiquidity,
	GroupSolvency,
	GroupValuation,
	GroupEfficiency,
}

// Groups returns the ratio names of each group, in display order.
func Groups() map[string][]string {
	out := make(map[string][]string, len(groupOrder))
	for _, d := range defs {
		out[d.group] = append(out[d.group], d.name)
	}
	return out
}

// ExpandGroups returns the union of ratio names for the given groups.
// It preserves group order as given and ratio order within a group,
// and de-duplicates while keeping the first occurrence.
func ExpandGroups(names []string) ([]string, error) {
	groups := Groups()
	out := make([]string, 0, len(defs))
	seen := map[string]struct{}{}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		ratios, ok := groups[name]
		if !ok {
			return nil, &UnknownGroupError{Name: name, Available: GroupNames()}
		}
		for _, r := range ratios {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out, nil
}

// UnknownGroupError reports an unknown ratio group name.
type UnknownGroupError struct {
	Name      string
	Available []string
}

func (e *UnknownGroupError) Error() string {
	return "unknown ratio group: " + e.Name + "; available: " + strings.Join(e.Available, ", ")
}

// GroupNames lists the known groups.
func GroupNames() []string {
	return append([]string(nil), groupOrder...)
}
