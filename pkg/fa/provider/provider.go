// Package provider fetches market data for a ticker: price history,
// financial statements, quote metrics, company metadata and news.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/komsit37/fa/pkg/fa/types"
)

// ErrNoData reports that the provider has nothing for the ticker.
var ErrNoData = errors.New("no data for ticker")

// Provider is the market-data boundary consumed by the pipeline.
type Provider interface {
	PriceHistory(ctx context.Context, ticker string, start time.Time) ([]types.PriceBar, error)
	Statements(ctx context.Context, ticker string) (types.Statements, error)
	Quote(ctx context.Context, ticker string) (types.QuoteSnapshot, error)
	CompanyMeta(ctx context.Context, ticker string) (types.CompanyMeta, error)
	News(ctx context.Context, ticker string, limit int) ([]types.NewsItem, error)
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", fmt.Errorf("empty ticker")
	}
	return t, nil
}

func noData(ticker, what string) error {
	return fmt.Errorf("%s %s: %w", ticker, what, ErrNoData)
}
