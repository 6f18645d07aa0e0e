package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/komsit37/fa/pkg/fa/types"
)

// Source loads ticker watchlists from a specification (a file path, a ticker list).
type Source interface {
	Load(ctx context.Context, spec any) ([]types.Watchlist, error)
}

// ArgsSource turns tickers given on the command line into one unnamed watchlist.
type ArgsSource struct{}

// Load expects spec to be a []string of tickers.
func (ArgsSource) Load(_ context.Context, spec any) ([]types.Watchlist, error) {
	args, ok := spec.([]string)
	if !ok {
		return nil, fmt.Errorf("args source expects []string spec, got %T", spec)
	}
	items := make([]types.Item, 0, len(args))
	for _, a := range args {
		for _, sym := range strings.Split(a, ",") {
			sym = strings.TrimSpace(sym)
			if sym == "" {
				continue
			}
			items = append(items, types.Item{Sym: sym})
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no tickers given")
	}
	return []types.Watchlist{{Items: items}}, nil
}

// Tickers flattens lists into unique symbols, keeping first-seen order.
func Tickers(lists []types.Watchlist) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range lists {
		for _, it := range l.Items {
			sym := strings.ToUpper(strings.TrimSpace(it.Sym))
			if sym == "" {
				continue
			}
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			out = append(out, sym)
		}
	}
	return out
}
