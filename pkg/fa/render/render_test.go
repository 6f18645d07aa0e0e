package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/fa/pkg/fa/provider"
	"github.com/komsit37/fa/pkg/fa/ratio"
	"github.com/komsit37/fa/pkg/fa/report"
	"github.com/komsit37/fa/pkg/fa/types"
)

func snapshot(items map[string]float64) types.StatementSnapshot {
	s := types.StatementSnapshot{Periods: []string{"2023-12-31"}, Items: map[string][]types.Value{}}
	for k, v := range items {
		s.Items[k] = []types.Value{types.Of(v)}
	}
	return s
}

func sampleReport(t *testing.T) *report.Report {
	t.Helper()
	st := types.Statements{
		Income: snapshot(map[string]float64{
			ratio.ItemTotalRevenue: 1000, ratio.ItemGrossProfit: 400, ratio.ItemNetIncome: 100,
		}),
		BalanceSheet: snapshot(map[string]float64{
			ratio.ItemTotalCurrentAssets: 300, ratio.ItemTotalCurrentLiabilities: 0,
		}),
	}
	quote := types.QuoteSnapshot{ratio.MetricTrailingPE: types.Of(20)}

	bars := []types.PriceBar{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("100")},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("110")},
	}
	sum, ok := report.Summarize(bars)
	require.True(t, ok)

	return &report.Report{
		Ticker:       "AAPL",
		List:         "tech",
		Meta:         types.CompanyMeta{Name: "Apple Inc.", Sector: "Technology", Currency: "USD"},
		Price:        sum,
		Quote:        quote,
		Statements:   st,
		Ratios:       ratio.ComputeStatements(st, quote),
		LatestPeriod: "2023-12-31",
		News:         []types.NewsItem{{Title: "Apple ships", Link: "https://example.com/a", Publisher: "Wire"}},
	}
}

func failedReport() *report.Report {
	return &report.Report{Ticker: "NOPE", List: "tech", Err: errors.New("NOPE: price history: " + provider.ErrNoData.Error())}
}

func TestNew(t *testing.T) {
	for _, f := range []string{"table", "json", "csv", "markdown", ""} {
		r, err := New(f)
		require.NoError(t, err, f)
		assert.NotNil(t, r)
	}
	_, err := New("xml")
	assert.Error(t, err)
}

func TestTableRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := NewTableRenderer().Render(&buf, []*report.Report{sampleReport(t), failedReport()}, RenderOptions{Statements: true})
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "Apple Inc. (AAPL)")
	assert.Contains(t, out, "Technology")
	assert.Contains(t, out, "$110.00")
	assert.Contains(t, out, "+10.00%")
	assert.Contains(t, out, "Gross Profit Margin")
	assert.Contains(t, out, "40.00%")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "Income Statement")
	assert.Contains(t, out, "Apple ships")
	assert.Contains(t, out, "error: NOPE")
	assert.Equal(t, 1, strings.Count(out, "TECH"), "list header printed once")
}

func TestTableRendererNoIncome(t *testing.T) {
	rep := sampleReport(t)
	rep.LatestPeriod = ""
	var buf bytes.Buffer
	require.NoError(t, NewTableRenderer().Render(&buf, []*report.Report{rep}, RenderOptions{}))
	assert.Contains(t, buf.String(), "No income statement data")
	assert.NotContains(t, buf.String(), "Balance Sheet")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := NewJSONRenderer().Render(&buf, []*report.Report{sampleReport(t), failedReport()}, RenderOptions{})
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)

	ratios := out[0]["ratios"].([]any)
	require.Len(t, ratios, len(ratio.Names()))
	byName := map[string]map[string]any{}
	for _, r := range ratios {
		m := r.(map[string]any)
		byName[m["name"].(string)] = m
	}
	assert.InDelta(t, 40.0, byName[ratio.GrossProfitMargin]["value"], 1e-9)
	assert.Equal(t, true, byName[ratio.GrossProfitMargin]["percent"])
	assert.Nil(t, byName[ratio.CurrentRatio]["value"])
	assert.Contains(t, byName[ratio.CurrentRatio]["reason"], "division by zero")
	assert.Contains(t, byName[ratio.ROA]["reason"], "missing operand")
	assert.NotContains(t, out[0], "statements")

	assert.Contains(t, out[1]["error"], "no data for ticker")
	assert.NotContains(t, out[1], "ratios")
}

func TestGridCSV(t *testing.T) {
	var buf bytes.Buffer
	err := NewGridRenderer(GridCSV).Render(&buf, []*report.Report{sampleReport(t), failedReport()}, RenderOptions{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, strings.ToLower(lines[0]), "ticker,name,close,change,pe ratio")
	assert.True(t, strings.HasPrefix(lines[1], "AAPL,Apple Inc.,110.00,+10.00%,20.00"), lines[1])
	assert.Contains(t, lines[2], "no data for ticker")
}

func TestGridMarkdown(t *testing.T) {
	var buf bytes.Buffer
	err := NewGridRenderer(GridMarkdown).Render(&buf, []*report.Report{sampleReport(t)}, RenderOptions{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "|"), l)
	}
	assert.Contains(t, lines[2], "AAPL")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁▂▃▄▅▆▇█", sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 8))
	assert.Equal(t, "▁▂▃▄▅▆▇█", sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, 8))
	assert.Equal(t, "▅▅▅", sparkline([]float64{3, 3, 3}, 10))
	assert.Empty(t, sparkline(nil, 10))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$1,234.50", formatPrice(decimal.RequireFromString("1234.5"), "USD"))
	assert.Equal(t, "12.30 XYZ", formatPrice(decimal.RequireFromString("12.3"), "XYZ"))
	assert.Equal(t, "12.30", formatPrice(decimal.RequireFromString("12.3"), ""))
}

func TestRatioColumns(t *testing.T) {
	full := ratio.Compute(types.StatementSnapshot{}, types.StatementSnapshot{}, types.StatementSnapshot{}, nil).Results()
	l, r := ratioColumns(full)
	assert.Len(t, l, 8)
	assert.Len(t, r, 6)

	l, r = ratioColumns(full[:3])
	assert.Len(t, l, 2)
	assert.Len(t, r, 1)
}
