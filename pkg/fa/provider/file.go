package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/komsit37/fa/pkg/fa/types"
)

// File serves fixtures from <Dir>/<TICKER>.yaml, for offline runs and tests.
//
//	meta: {name: Apple Inc., currency: USD}
//	quote: {trailingPE: 28.5, dividendYield: ~}
//	income:
//	  periods: [2024-09-28, 2023-09-30]
//	  items:
//	    Total Revenue: [391035000000, 383285000000]
//	prices:
//	  - {date: 2024-01-02, close: 185.64}
type File struct {
	Dir string
}

type statementFixture struct {
	Periods []string              `yaml:"periods"`
	Items   map[string][]*float64 `yaml:"items"`
}

type priceFixture struct {
	Date     string  `yaml:"date"`
	Open     float64 `yaml:"open"`
	High     float64 `yaml:"high"`
	Low      float64 `yaml:"low"`
	Close    float64 `yaml:"close"`
	AdjClose float64 `yaml:"adj_close"`
	Volume   int64   `yaml:"volume"`
}

type fixture struct {
	Meta         types.CompanyMeta   `yaml:"meta"`
	Quote        map[string]*float64 `yaml:"quote"`
	Income       statementFixture    `yaml:"income"`
	BalanceSheet statementFixture    `yaml:"balance_sheet"`
	CashFlow     statementFixture    `yaml:"cashflow"`
	Prices       []priceFixture      `yaml:"prices"`
	News         []types.NewsItem    `yaml:"news"`
}

func (f File) load(ticker string) (fixture, string, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return fixture{}, "", err
	}
	path := filepath.Join(f.Dir, t+".yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fixture{}, t, noData(t, "fixture")
	}
	if err != nil {
		return fixture{}, t, err
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fixture{}, t, fmt.Errorf("%s: %w", path, err)
	}
	return fx, t, nil
}

func (f File) PriceHistory(_ context.Context, ticker string, start time.Time) ([]types.PriceBar, error) {
	fx, t, err := f.load(ticker)
	if err != nil {
		return nil, err
	}
	var bars []types.PriceBar
	for _, p := range fx.Prices {
		d, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return nil, fmt.Errorf("%s price date %q: %w", t, p.Date, err)
		}
		if d.Before(start) {
			continue
		}
		adj := p.AdjClose
		if adj == 0 {
			adj = p.Close
		}
		bars = append(bars, types.PriceBar{
			Date:     d,
			Open:     decimal.NewFromFloat(p.Open),
			High:     decimal.NewFromFloat(p.High),
			Low:      decimal.NewFromFloat(p.Low),
			Close:    decimal.NewFromFloat(p.Close),
			AdjClose: decimal.NewFromFloat(adj),
			Volume:   p.Volume,
		})
	}
	return bars, nil
}

// Statements returns the income, balance sheet and cash flow fixtures.
func (f File) Statements(_ context.Context, ticker string) (types.Statements, error) {
	fx, t, err := f.load(ticker)
	if err != nil {
		return types.Statements{}, err
	}
	var out types.Statements
	for _, s := range []struct {
		name string
		in   statementFixture
		dst  *types.StatementSnapshot
	}{
		{"income", fx.Income, &out.Income},
		{"balance_sheet", fx.BalanceSheet, &out.BalanceSheet},
		{"cashflow", fx.CashFlow, &out.CashFlow},
	} {
		snap, err := s.in.snapshot()
		if err != nil {
			return types.Statements{}, fmt.Errorf("%s %s: %w", t, s.name, err)
		}
		*s.dst = snap
	}
	return out, nil
}

// snapshot pads short rows with Unavailable; rows longer than Periods are rejected.
func (s statementFixture) snapshot() (types.StatementSnapshot, error) {
	snap := types.StatementSnapshot{
		Periods: append([]string(nil), s.Periods...),
		Items:   make(map[string][]types.Value, len(s.Items)),
	}
	for name, raw := range s.Items {
		if len(raw) > len(s.Periods) {
			return types.StatementSnapshot{}, fmt.Errorf("line item %q has %d values for %d periods", name, len(raw), len(s.Periods))
		}
		row := make([]types.Value, len(s.Periods))
		for i, v := range raw {
			row[i] = types.OfPtr(v)
		}
		snap.Items[name] = row
	}
	return snap, nil
}

func (f File) Quote(_ context.Context, ticker string) (types.QuoteSnapshot, error) {
	fx, _, err := f.load(ticker)
	if err != nil {
		return nil, err
	}
	q := make(types.QuoteSnapshot, len(fx.Quote))
	for k, v := range fx.Quote {
		q[k] = types.OfPtr(v)
	}
	return q, nil
}

func (f File) CompanyMeta(_ context.Context, ticker string) (types.CompanyMeta, error) {
	fx, _, err := f.load(ticker)
	if err != nil {
		return types.CompanyMeta{}, err
	}
	return fx.Meta, nil
}

func (f File) News(_ context.Context, ticker string, limit int) ([]types.NewsItem, error) {
	fx, _, err := f.load(ticker)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	if len(fx.News) > limit {
		return fx.News[:limit], nil
	}
	return fx.News, nil
}
