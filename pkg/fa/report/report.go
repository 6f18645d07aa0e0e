// Package report holds the per-ticker analysis result passed from the
// pipeline to renderers.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/komsit37/fa/pkg/fa/ratio"
	"github.com/komsit37/fa/pkg/fa/types"
)

// Report is everything rendered for one ticker. When Err is set the other
// fields may be partially filled or empty.
type Report struct {
	Ticker string
	// List is the watchlist the ticker came from; empty for command-line tickers.
	List string
	// Label is the watchlist display name for the ticker, if any.
	Label string

	Meta       types.CompanyMeta
	Price      PriceSummary
	Quote      types.QuoteSnapshot
	Statements types.Statements
	Ratios     ratio.Set
	News       []types.NewsItem

	// LatestPeriod is the most recent income statement period, empty when
	// the income statement has no periods.
	LatestPeriod string

	Err error
}

// DisplayName prefers the company name, then the watchlist label, then the ticker.
func (r *Report) DisplayName() string {
	switch {
	case r.Meta.Name != "":
		return r.Meta.Name
	case r.Label != "":
		return r.Label
	}
	return r.Ticker
}

// PriceSummary condenses daily closes.
type PriceSummary struct {
	From  time.Time
	To    time.Time
	Bars  int
	First decimal.Decimal
	Last  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	// ChangePct is (Last-First)/First*100; invalid when First is zero.
	ChangePct decimal.NullDecimal
	// Closes feeds the sparkline.
	Closes []float64
}

// Summarize builds a summary over closes. ok is false when bars is empty.
func Summarize(bars []types.PriceBar) (s PriceSummary, ok bool) {
	if len(bars) == 0 {
		return PriceSummary{}, false
	}
	first, last := bars[0], bars[len(bars)-1]
	s = PriceSummary{
		From:   first.Date,
		To:     last.Date,
		Bars:   len(bars),
		First:  first.Close,
		Last:   last.Close,
		High:   first.Close,
		Low:    first.Close,
		Closes: make([]float64, 0, len(bars)),
	}
	for _, b := range bars {
		if b.Close.GreaterThan(s.High) {
			s.High = b.Close
		}
		if b.Close.LessThan(s.Low) {
			s.Low = b.Close
		}
		s.Closes = append(s.Closes, b.Close.InexactFloat64())
	}
	if !s.First.IsZero() {
		pct := s.Last.Sub(s.First).Div(s.First).Mul(decimal.NewFromInt(100)).Round(2)
		s.ChangePct = decimal.NullDecimal{Decimal: pct, Valid: true}
	}
	return s, true
}
