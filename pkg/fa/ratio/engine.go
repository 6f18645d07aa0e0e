// Package ratio derives financial ratios from statement and quote snapshots.
//
// Every ratio is a row in a declarative table. A ratio whose operands are
// unavailable, or whose denominator is exactly zero, resolves to
// types.Unavailable with the cause recorded in Result.Err. Compute never
// returns an error and never yields NaN or infinity.
package ratio

import (
	"fmt"

	"github.com/komsit37/fa/pkg/fa/statement"
	"github.com/komsit37/fa/pkg/fa/types"
)

// Ratio names.
const (
	PERatio           = "PE Ratio"
	ROE               = "ROE"
	GrossProfitMargin = "Gross Profit Margin"
	NetProfitMargin   = "Net Profit Margin"
	ROA               = "ROA"
	CurrentRatio      = "Current Ratio"
	QuickRatio        = "Quick Ratio"
	DebtToEquity      = "Debt to Equity"
	InterestCoverage  = "Interest Coverage Ratio"
	PBRatio           = "P/B Ratio"
	DividendYield     = "Dividend Yield"
	EarningsYield     = "Earnings Yield"
	InventoryTurnover = "Inventory Turnover"
	AssetTurnover     = "Asset Turnover"
)

// Line items and quote metrics read by the engine.
const (
	ItemTotalRevenue            = "Total Revenue"
	ItemGrossProfit             = "Gross Profit"
	ItemNetIncome               = "Net Income"
	ItemEBIT                    = "EBIT"
	ItemCostOfRevenue           = "Cost Of Revenue"
	ItemTotalAssets             = "Total Assets"
	ItemTotalCurrentAssets      = "Total Current Assets"
	ItemTotalCurrentLiabilities = "Total Current Liabilities"
	ItemInventory               = "Inventory"
	ItemTotalDebt               = "Total Debt"
	ItemStockholderEquity       = "Total Stockholder Equity"
	ItemInterestExpense         = "Interest Expense"

	MetricTrailingPE         = "trailingPE"
	MetricReturnOnEquity     = "returnOnEquity"
	MetricRegularMarketPrice = "regularMarketPrice"
	MetricBookValue          = "bookValue"
	MetricDividendYield      = "dividendYield"
)

type inputs struct {
	income, balance, cashflow types.StatementSnapshot
	quote                     types.QuoteSnapshot
}

// formula evaluates one ratio. done returns results resolved earlier in the table.
type formula func(c *calc, in inputs, done func(name string) types.Value) float64

type def struct {
	name  string
	group string
	eval  formula
}

// defs is evaluated top to bottom; a formula may only read results above it.
var defs = []def{
	{PERatio, GroupValuation, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		return c.quote(in, MetricTrailingPE)
	}},
	{ROE, GroupProfitability, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		return c.quote(in, MetricReturnOnEquity)
	}},
	{GrossProfitMargin, GroupProfitability, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		gp := c.item(in.income, ItemGrossProfit)
		rev := c.item(in.income, ItemTotalRevenue)
		return c.div(gp, rev, ItemTotalRevenue) * 100
	}},
	{NetProfitMargin, GroupProfitability, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		ni := c.item(in.income, ItemNetIncome)
		rev := c.item(in.income, ItemTotalRevenue)
		return c.div(ni, rev, ItemTotalRevenue) * 100
	}},
	{ROA, GroupProfitability, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		ni := c.item(in.income, ItemNetIncome)
		ta := c.item(in.balance, ItemTotalAssets)
		return c.div(ni, ta, ItemTotalAssets) * 100
	}},
	{CurrentRatio, GroupLiquidity, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		ca := c.item(in.balance, ItemTotalCurrentAssets)
		cl := c.item(in.balance, ItemTotalCurrentLiabilities)
		return c.div(ca, cl, ItemTotalCurrentLiabilities)
	}},
	{QuickRatio, GroupLiquidity, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		ca := c.item(in.balance, ItemTotalCurrentAssets)
		inv := c.item(in.balance, ItemInventory)
		cl := c.item(in.balance, ItemTotalCurrentLiabilities)
		return c.div(ca-inv, cl, ItemTotalCurrentLiabilities)
	}},
	{DebtToEquity, GroupSolvency, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		debt := c.item(in.balance, ItemTotalDebt)
		eq := c.item(in.balance, ItemStockholderEquity)
		return c.div(debt, eq, ItemStockholderEquity)
	}},
	{InterestCoverage, GroupSolvency, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		ebit := c.item(in.income, ItemEBIT)
		ie := c.item(in.cashflow, ItemInterestExpense)
		return c.div(ebit, ie, ItemInterestExpense)
	}},
	{PBRatio, GroupValuation, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		px := c.quote(in, MetricRegularMarketPrice)
		bv := c.quote(in, MetricBookValue)
		return c.div(px, bv, MetricBookValue)
	}},
	{DividendYield, GroupValuation, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		dy := c.nonZero(MetricDividendYield, c.quote(in, MetricDividendYield))
		return dy * 100
	}},
	{EarningsYield, GroupValuation, func(c *calc, _ inputs, done func(string) types.Value) float64 {
		pe := c.need(PERatio, done(PERatio))
		return c.div(1, pe, PERatio) * 100
	}},
	{InventoryTurnover, GroupEfficiency, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		cogs := c.item(in.income, ItemCostOfRevenue)
		inv := c.item(in.balance, ItemInventory)
		return c.div(cogs, inv, ItemInventory)
	}},
	{AssetTurnover, GroupEfficiency, func(c *calc, in inputs, _ func(string) types.Value) float64 {
		rev := c.item(in.income, ItemTotalRevenue)
		ta := c.item(in.balance, ItemTotalAssets)
		return c.div(rev, ta, ItemTotalAssets)
	}},
}

// Compute derives every ratio from the latest period of each statement and the quote.
func Compute(income, balanceSheet, cashflow types.StatementSnapshot, quote types.QuoteSnapshot) Set {
	in := inputs{income: income, balance: balanceSheet, cashflow: cashflow, quote: quote}
	results := make([]Result, 0, len(defs))
	resolved := make(map[string]types.Value, len(defs))
	done := func(name string) types.Value { return resolved[name] }

	for _, d := range defs {
		c := &calc{}
		f := d.eval(c, in, done)
		v, err := c.result(f)
		resolved[d.name] = v
		results = append(results, Result{Name: d.name, Group: d.group, Value: v, Err: err})
	}
	return newSet(results)
}

// ComputeStatements is Compute over a bundled statement triple.
func ComputeStatements(st types.Statements, quote types.QuoteSnapshot) Set {
	return Compute(st.Income, st.BalanceSheet, st.CashFlow, quote)
}

// Names returns every ratio name in display order.
func Names() []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.name
	}
	return out
}

// Ratios already scaled by 100. ROE is passed through from the quote as a fraction.
var percent = map[string]bool{
	GrossProfitMargin: true,
	NetProfitMargin:   true,
	ROA:               true,
	DividendYield:     true,
	EarningsYield:     true,
}

// IsPercent reports whether the named ratio is expressed in percent.
func IsPercent(name string) bool { return percent[name] }

// calc records the first reason a formula cannot produce a number.
// Once failed, further arithmetic is skipped and its value ignored.
type calc struct {
	err error
}

func (c *calc) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *calc) need(name string, v types.Value) float64 {
	f, ok := v.Get()
	if !ok {
		c.fail(fmt.Errorf("%w: %s", ErrMissingOperand, name))
	}
	return f
}

func (c *calc) item(s types.StatementSnapshot, name string) float64 {
	return c.need(name, statement.LookupLatest(s, name))
}

func (c *calc) quote(in inputs, metric string) float64 {
	return c.need(metric, statement.LookupQuote(in.quote, metric, types.Unavailable))
}

func (c *calc) nonZero(name string, f float64) float64 {
	if c.err == nil && f == 0 {
		c.fail(fmt.Errorf("%w: %s is zero", ErrMissingOperand, name))
	}
	return f
}

func (c *calc) div(num, den float64, denName string) float64 {
	if c.err != nil {
		return 0
	}
	if den == 0 {
		c.fail(fmt.Errorf("%w: %s", ErrDivisionByZero, denName))
		return 0
	}
	return num / den
}

func (c *calc) result(f float64) (types.Value, error) {
	if c.err != nil {
		return types.Unavailable, c.err
	}
	v := types.Of(f)
	if !v.Available() {
		return types.Unavailable, ErrNotFinite
	}
	return v, nil
}
