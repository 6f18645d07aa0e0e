package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/komsit37/fa/pkg/fa/filter"
	"github.com/komsit37/fa/pkg/fa/logging"
	"github.com/komsit37/fa/pkg/fa/provider"
	"github.com/komsit37/fa/pkg/fa/ratio"
	"github.com/komsit37/fa/pkg/fa/render"
	"github.com/komsit37/fa/pkg/fa/report"
	"github.com/komsit37/fa/pkg/fa/statement"
	"github.com/komsit37/fa/pkg/fa/types"
)

// Options control a single ticker analysis.
type Options struct {
	Start     time.Time
	NewsLimit int
	// Ratios keeps only matching ratio names; nil keeps all.
	Ratios filter.Filter
	Logger *log.Logger
}

// Analyze fetches everything for ticker and derives its ratios. It fails only
// when the ticker has no price history or an upstream fetch fails outright;
// missing statements or quote degrade to unavailable ratios.
func Analyze(ctx context.Context, p provider.Provider, ticker string, opts Options) (*report.Report, error) {
	logger := logging.OrNop(opts.Logger)
	t, err := provider.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	bars, err := p.PriceHistory(ctx, t, opts.Start)
	if err != nil {
		return nil, fmt.Errorf("%s: price history: %w", t, err)
	}
	summary, ok := report.Summarize(bars)
	if !ok {
		return nil, fmt.Errorf("%s: empty price history since %s: %w", t, opts.Start.Format("2006-01-02"), provider.ErrNoData)
	}

	st, err := p.Statements(ctx, t)
	switch {
	case errors.Is(err, provider.ErrNoData):
		logger.Warn().Str("ticker", t).Err(err).Msg("no statements")
		st = types.Statements{}
	case err != nil:
		return nil, fmt.Errorf("%s: statements: %w", t, err)
	}

	quote, err := p.Quote(ctx, t)
	switch {
	case errors.Is(err, provider.ErrNoData):
		logger.Warn().Str("ticker", t).Err(err).Msg("no quote")
		quote = types.QuoteSnapshot{}
	case err != nil:
		return nil, fmt.Errorf("%s: quote: %w", t, err)
	}

	meta, err := p.CompanyMeta(ctx, t)
	if err != nil {
		logger.Warn().Str("ticker", t).Err(err).Msg("company meta unavailable")
		meta = types.CompanyMeta{}
	}

	var news []types.NewsItem
	if opts.NewsLimit > 0 {
		news, err = p.News(ctx, t, opts.NewsLimit)
		if err != nil {
			logger.Warn().Str("ticker", t).Err(err).Msg("news unavailable")
			news = nil
		}
	}

	period, ok := statement.LatestPeriod(st.Income)
	if !ok {
		logger.Warn().Str("ticker", t).Msg("income statement has no periods, statement ratios unavailable")
	}

	set := ratio.ComputeStatements(st, quote)
	if opts.Ratios != nil {
		set = set.Select(opts.Ratios.Match)
	}

	return &report.Report{
		Ticker:       t,
		Meta:         meta,
		Price:        summary,
		Quote:        quote,
		Statements:   st,
		Ratios:       set,
		News:         news,
		LatestPeriod: period,
	}, nil
}

// Runner analyzes tickers one at a time and hands reports to Renderer.
type Runner struct {
	Provider provider.Provider
	Renderer render.Renderer
	Writer   io.Writer
	Logger   *log.Logger
}

// ExecuteOptions carries per-ticker analysis and rendering options.
type ExecuteOptions struct {
	Analyze Options
	Render  render.RenderOptions
}

type target struct {
	ticker string
	list   string
	label  string
}

// targets flattens lists into unique tickers in first-seen order.
func targets(lists []types.Watchlist) []target {
	seen := map[string]struct{}{}
	var out []target
	for _, l := range lists {
		for _, it := range l.Items {
			t, err := provider.NormalizeTicker(it.Sym)
			if err != nil {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, target{ticker: t, list: l.Name, label: strings.TrimSpace(it.Name)})
		}
	}
	return out
}

// Execute analyzes every ticker one after another. Incremental renderers
// print each ticker before the next is fetched; others get all reports at
// the end. A failing ticker is rendered as an error entry; Execute returns an
// error only when no ticker succeeded or ctx is done.
func (r *Runner) Execute(ctx context.Context, lists []types.Watchlist, opts ExecuteOptions) error {
	logger := logging.OrNop(r.Logger)
	if opts.Analyze.Logger == nil {
		opts.Analyze.Logger = logger
	}

	ts := targets(lists)
	if len(ts) == 0 {
		return fmt.Errorf("no tickers to analyze")
	}

	inc, streaming := r.Renderer.(render.Incremental)
	reports := make([]*report.Report, 0, len(ts))
	var firstErr error
	failed := 0
	for _, tg := range ts {
		if err := ctx.Err(); err != nil {
			return err
		}
		began := time.Now()
		rep, err := Analyze(ctx, r.Provider, tg.ticker, opts.Analyze)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			logger.Error().Str("ticker", tg.ticker).Err(err).Msg("analysis failed")
			rep = &report.Report{Ticker: tg.ticker, Err: err}
		} else {
			logger.Info().Str("ticker", tg.ticker).Dur("took", time.Since(began)).Int("ratios", rep.Ratios.Len()).Msg("analyzed")
		}
		rep.List, rep.Label = tg.list, tg.label
		if streaming {
			if err := inc.RenderOne(r.Writer, rep, opts.Render); err != nil {
				return err
			}
			continue
		}
		reports = append(reports, rep)
	}

	if !streaming {
		if err := r.Renderer.Render(r.Writer, reports, opts.Render); err != nil {
			return err
		}
	}
	if failed == len(ts) {
		return fmt.Errorf("all %d tickers failed: %w", failed, firstErr)
	}
	return nil
}
