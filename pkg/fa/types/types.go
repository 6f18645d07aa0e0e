package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Watchlist represents a named list of tickers to analyze.
type Watchlist struct {
	Name  string
	Items []Item
}

// Item represents a ticker entry with an optional display name.
type Item struct {
	Sym  string
	Name string
}

// StatementSnapshot is one financial statement for one entity.
// Periods are ordered most recent first; every slice in Items is aligned with Periods.
// Line items the source never reported are absent from Items.
type StatementSnapshot struct {
	Periods []string
	Items   map[string][]Value
}

// Statements bundles the three statements of one entity.
type Statements struct {
	Income       StatementSnapshot
	BalanceSheet StatementSnapshot
	CashFlow     StatementSnapshot
}

// QuoteSnapshot maps a quote metric (e.g. "trailingPE") to its latest value.
// A present key may hold Unavailable when the provider returned null.
type QuoteSnapshot map[string]Value

// PriceBar is one daily OHLC bar.
type PriceBar struct {
	Date     time.Time       `json:"date" yaml:"date"`
	Open     decimal.Decimal `json:"open" yaml:"open"`
	High     decimal.Decimal `json:"high" yaml:"high"`
	Low      decimal.Decimal `json:"low" yaml:"low"`
	Close    decimal.Decimal `json:"close" yaml:"close"`
	AdjClose decimal.Decimal `json:"adj_close" yaml:"adj_close"`
	Volume   int64           `json:"volume" yaml:"volume"`
}

// CompanyMeta holds descriptive fields; each is empty when the provider has none.
type CompanyMeta struct {
	Name     string `json:"name,omitempty" yaml:"name"`
	Sector   string `json:"sector,omitempty" yaml:"sector"`
	Industry string `json:"industry,omitempty" yaml:"industry"`
	Currency string `json:"currency,omitempty" yaml:"currency"`
	Exchange string `json:"exchange,omitempty" yaml:"exchange"`
}

// NewsItem is a single headline.
type NewsItem struct {
	Title     string    `json:"title" yaml:"title"`
	Link      string    `json:"link" yaml:"link"`
	Publisher string    `json:"publisher,omitempty" yaml:"publisher"`
	Published time.Time `json:"published,omitempty" yaml:"published"`
	Summary   string    `json:"summary,omitempty" yaml:"summary"`
}
