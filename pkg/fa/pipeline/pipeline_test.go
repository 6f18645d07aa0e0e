package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/fa/pkg/fa/filter"
	"github.com/komsit37/fa/pkg/fa/provider"
	"github.com/komsit37/fa/pkg/fa/ratio"
	"github.com/komsit37/fa/pkg/fa/render"
	"github.com/komsit37/fa/pkg/fa/report"
	"github.com/komsit37/fa/pkg/fa/types"
)

type fakeProvider struct {
	bars       map[string][]types.PriceBar
	statements types.Statements
	stmtErr    error
	quote      types.QuoteSnapshot
	metaErr    error
	newsErr    error
	newsCalls  int
	calls      []string
}

func (f *fakeProvider) PriceHistory(_ context.Context, ticker string, _ time.Time) ([]types.PriceBar, error) {
	f.calls = append(f.calls, ticker)
	bars, ok := f.bars[ticker]
	if !ok {
		return nil, errors.New("upstream down")
	}
	return bars, nil
}

func (f *fakeProvider) Statements(context.Context, string) (types.Statements, error) {
	return f.statements, f.stmtErr
}

func (f *fakeProvider) Quote(context.Context, string) (types.QuoteSnapshot, error) {
	return f.quote, nil
}

func (f *fakeProvider) CompanyMeta(_ context.Context, ticker string) (types.CompanyMeta, error) {
	return types.CompanyMeta{Name: ticker + " Corp"}, f.metaErr
}

func (f *fakeProvider) News(context.Context, string, int) ([]types.NewsItem, error) {
	f.newsCalls++
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	return []types.NewsItem{{Title: "headline"}}, nil
}

func closes(vals ...string) []types.PriceBar {
	out := make([]types.PriceBar, len(vals))
	for i, v := range vals {
		out[i] = types.PriceBar{Date: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString(v)}
	}
	return out
}

func newFake() *fakeProvider {
	return &fakeProvider{
		bars: map[string][]types.PriceBar{"AAPL": closes("100", "105"), "MSFT": closes("10", "9"), "EMPTY": nil},
		statements: types.Statements{
			Income: types.StatementSnapshot{
				Periods: []string{"2023-12-31"},
				Items: map[string][]types.Value{
					ratio.ItemTotalRevenue: {types.Of(1000)},
					ratio.ItemNetIncome:    {types.Of(100)},
				},
			},
		},
		quote: types.QuoteSnapshot{ratio.MetricTrailingPE: types.Of(25)},
	}
}

func TestAnalyze(t *testing.T) {
	p := newFake()
	rep, err := Analyze(context.Background(), p, " aapl ", Options{NewsLimit: 3})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", rep.Ticker)
	assert.Equal(t, "AAPL Corp", rep.Meta.Name)
	assert.Equal(t, "2023-12-31", rep.LatestPeriod)
	assert.Equal(t, "5", rep.Price.ChangePct.Decimal.String())
	assert.Equal(t, len(ratio.Names()), rep.Ratios.Len())
	assert.InDelta(t, 10.0, rep.Ratios.Get(ratio.NetProfitMargin).Float(0), 1e-9)
	assert.InDelta(t, 4.0, rep.Ratios.Get(ratio.EarningsYield).Float(0), 1e-9)
	assert.Len(t, rep.News, 1)
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	_, err := Analyze(context.Background(), newFake(), "EMPTY", Options{})
	assert.ErrorIs(t, err, provider.ErrNoData)
}

func TestAnalyzeDegrades(t *testing.T) {
	p := newFake()
	p.stmtErr = provider.ErrNoData
	p.metaErr = errors.New("meta down")
	p.newsErr = errors.New("news down")

	rep, err := Analyze(context.Background(), p, "AAPL", Options{NewsLimit: 2})
	require.NoError(t, err)
	assert.Empty(t, rep.LatestPeriod)
	assert.Empty(t, rep.Meta.Name)
	assert.Nil(t, rep.News)
	assert.False(t, rep.Ratios.Get(ratio.NetProfitMargin).Available())
	assert.True(t, rep.Ratios.Get(ratio.PERatio).Available())

	p.stmtErr = errors.New("boom")
	_, err = Analyze(context.Background(), p, "AAPL", Options{})
	assert.ErrorContains(t, err, "statements: boom")
}

func TestAnalyzeSkipsNewsWhenLimitZero(t *testing.T) {
	p := newFake()
	_, err := Analyze(context.Background(), p, "AAPL", Options{})
	require.NoError(t, err)
	assert.Zero(t, p.newsCalls)
}

func TestAnalyzeRatioFilter(t *testing.T) {
	f, err := filter.Parse("yield")
	require.NoError(t, err)
	rep, err := Analyze(context.Background(), newFake(), "AAPL", Options{Ratios: f})
	require.NoError(t, err)
	assert.Equal(t, []string{ratio.DividendYield, ratio.EarningsYield}, rep.Ratios.Names())
}

type captureRenderer struct{ got []*report.Report }

func (c *captureRenderer) Render(_ io.Writer, reports []*report.Report, _ render.RenderOptions) error {
	c.got = reports
	return nil
}

func TestRunnerExecute(t *testing.T) {
	p := newFake()
	cr := &captureRenderer{}
	r := &Runner{Provider: p, Renderer: cr, Writer: io.Discard}

	lists := []types.Watchlist{
		{Name: "us", Items: []types.Item{{Sym: "aapl", Name: "Apple"}, {Sym: "NOPE"}}},
		{Name: "more", Items: []types.Item{{Sym: "AAPL"}, {Sym: "msft"}}},
	}
	require.NoError(t, r.Execute(context.Background(), lists, ExecuteOptions{}))

	assert.Equal(t, []string{"AAPL", "NOPE", "MSFT"}, p.calls, "sequential, deduplicated")
	require.Len(t, cr.got, 3)
	assert.Equal(t, "us", cr.got[0].List)
	assert.Equal(t, "Apple", cr.got[0].Label)
	assert.ErrorContains(t, cr.got[1].Err, "upstream down")
	assert.NoError(t, cr.got[2].Err)
	assert.Equal(t, "more", cr.got[2].List)
}

func TestRunnerAllFailed(t *testing.T) {
	var buf bytes.Buffer
	r := &Runner{Provider: newFake(), Renderer: render.NewTableRenderer(), Writer: &buf}
	err := r.Execute(context.Background(), []types.Watchlist{{Items: []types.Item{{Sym: "EMPTY"}, {Sym: "NOPE"}}}}, ExecuteOptions{})
	assert.ErrorContains(t, err, "all 2 tickers failed")
	assert.ErrorIs(t, err, provider.ErrNoData)
	assert.Contains(t, buf.String(), "error:")

	err = r.Execute(context.Background(), nil, ExecuteOptions{})
	assert.ErrorContains(t, err, "no tickers")
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Provider: newFake(), Renderer: &captureRenderer{}, Writer: io.Discard}
	err := r.Execute(ctx, []types.Watchlist{{Items: []types.Item{{Sym: "AAPL"}}}}, ExecuteOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

// streamRenderer records provider and render calls in one timeline.
type streamRenderer struct {
	captureRenderer
	p        *fakeProvider
	timeline []string
}

func (s *streamRenderer) RenderOne(_ io.Writer, rep *report.Report, _ render.RenderOptions) error {
	s.timeline = append(s.timeline, "fetched:"+s.p.calls[len(s.p.calls)-1], "render:"+rep.Ticker)
	return nil
}

func TestRunnerStreamsIncrementalRenderer(t *testing.T) {
	p := newFake()
	sr := &streamRenderer{p: p}
	r := &Runner{Provider: p, Renderer: sr, Writer: io.Discard}

	lists := []types.Watchlist{{Items: []types.Item{{Sym: "AAPL"}, {Sym: "MSFT"}}}}
	require.NoError(t, r.Execute(context.Background(), lists, ExecuteOptions{}))

	assert.Equal(t, []string{"fetched:AAPL", "render:AAPL", "fetched:MSFT", "render:MSFT"}, sr.timeline)
	assert.Nil(t, sr.got, "batch Render not used")
}
