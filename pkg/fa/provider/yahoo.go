package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/go-resty/resty/v2"
	yfgo "github.com/komsit37/yf-go"
	"github.com/phuslu/log"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/komsit37/fa/pkg/fa/logging"
	"github.com/komsit37/fa/pkg/fa/types"
)

// Yahoo endpoints and the browser User-Agent sent with every request.
const (
	DefaultYahooBaseURL   = "https://query2.finance.yahoo.com"
	DefaultYahooCookieURL = "https://fc.yahoo.com"
	DefaultYahooRSSURL    = "https://feeds.finance.yahoo.com/rss/2.0/headline"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// YahooOptions configures a Yahoo provider. Zero fields take the defaults
// above, except CookieURL: when empty the cookie and crumb handshake is skipped.
type YahooOptions struct {
	Timeout   time.Duration
	UserAgent string
	BaseURL   string
	CookieURL string
	RSSURL    string
	Logger    *log.Logger
}

// Yahoo implements Provider against Yahoo Finance.
type Yahoo struct {
	http      *resty.Client
	baseURL   string
	cookieURL string
	rssURL    string
	timeout   time.Duration
	log       *log.Logger

	mu    sync.Mutex
	crumb string

	// history and livePrice default to finance-go and yf-go.
	history   func(ctx context.Context, ticker string, start, end time.Time) ([]types.PriceBar, error)
	livePrice func(ctx context.Context, ticker string) (float64, error)
}

// NewYahoo builds a Yahoo provider. The finance-go client used for price
// history is process wide and gets opts.Timeout too.
func NewYahoo(opts YahooOptions) *Yahoo {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYahooBaseURL
	}
	if opts.RSSURL == "" {
		opts.RSSURL = DefaultYahooRSSURL
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json, text/xml, */*").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500)
		})

	finance.SetHTTPClient(&http.Client{Timeout: opts.Timeout})

	y := &Yahoo{
		http:      client,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		cookieURL: opts.CookieURL,
		rssURL:    opts.RSSURL,
		timeout:   opts.Timeout,
		log:       logging.OrNop(opts.Logger),
		history:   chartHistory,
	}
	yf := yfgo.NewClient()
	y.livePrice = func(ctx context.Context, ticker string) (float64, error) {
		res, err := yf.QuoteSummaryTyped(ctx, ticker, []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
		if err != nil {
			return 0, err
		}
		if res.Price == nil || res.Price.RegularMarketPrice.Raw == nil {
			return 0, fmt.Errorf("no price for %s", ticker)
		}
		return *res.Price.RegularMarketPrice.Raw, nil
	}
	return y
}

func chartHistory(ctx context.Context, ticker string, start, end time.Time) ([]types.PriceBar, error) {
	return awaitCtx(ctx, func() ([]types.PriceBar, error) {
		params := &chart.Params{
			Symbol:   ticker,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}
		iter := chart.Get(params)

		var bars []types.PriceBar
		for iter.Next() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			bar := iter.Bar()
			bars = append(bars, types.PriceBar{
				Date:     time.Unix(int64(bar.Timestamp), 0).UTC(),
				Open:     bar.Open,
				High:     bar.High,
				Low:      bar.Low,
				Close:    bar.Close,
				AdjClose: bar.AdjClose,
				Volume:   int64(bar.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("price history for %s: %w", ticker, err)
		}
		return bars, nil
	})
}

// awaitCtx runs fetch, which cannot take a context, and returns early with
// ctx.Err() once ctx is done. A fetch left running finishes in the background.
func awaitCtx(ctx context.Context, fetch func() ([]types.PriceBar, error)) ([]types.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		bars []types.PriceBar
		err  error
	}
	done := make(chan result, 1)
	go func() {
		bars, err := fetch()
		done <- result{bars, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.bars, r.err
	}
}

// PriceHistory returns daily bars from start to now.
func (y *Yahoo) PriceHistory(ctx context.Context, ticker string, start time.Time) ([]types.PriceBar, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	bars, err := y.history(ctx, t, start, time.Now())
	if err != nil {
		return nil, err
	}
	y.log.Debug().Str("ticker", t).Int("bars", len(bars)).Msg("price history")
	return bars, nil
}

// Statements returns the annual income, balance sheet and cash flow statements.
func (y *Yahoo) Statements(ctx context.Context, ticker string) (types.Statements, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return types.Statements{}, err
	}
	mods := make([]string, 0, len(statementPaths))
	for _, sp := range statementPaths {
		mods = append(mods, sp.module)
	}
	res, err := y.summary(ctx, t, mods...)
	if err != nil {
		return types.Statements{}, err
	}
	return statementsFromSummary(res), nil
}

// Quote returns quote metrics; regularMarketPrice is refreshed from the live
// price endpoint when it answers.
func (y *Yahoo) Quote(ctx context.Context, ticker string) (types.QuoteSnapshot, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	res, err := y.summary(ctx, t, quoteModules...)
	if err != nil {
		return nil, err
	}
	q := quoteFromSummary(res)

	if y.livePrice != nil {
		cctx, cancel := context.WithTimeout(ctx, y.timeout)
		defer cancel()
		if px, err := y.livePrice(cctx, t); err != nil {
			y.log.Debug().Str("ticker", t).Err(err).Msg("live price unavailable")
		} else {
			q["regularMarketPrice"] = types.Of(px)
		}
	}
	return q, nil
}

// CompanyMeta returns the name, currency and profile of ticker.
func (y *Yahoo) CompanyMeta(ctx context.Context, ticker string) (types.CompanyMeta, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return types.CompanyMeta{}, err
	}
	res, err := y.summary(ctx, t, "price", "assetProfile")
	if err != nil {
		return types.CompanyMeta{}, err
	}
	return metaFromSummary(res), nil
}

// News returns up to limit headlines from the Yahoo RSS feed.
func (y *Yahoo) News(ctx context.Context, ticker string, limit int) ([]types.NewsItem, error) {
	t, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	resp, err := y.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"s": t, "region": "US", "lang": "en-US"}).
		Get(y.rssURL)
	if err != nil {
		return nil, fmt.Errorf("news for %s: %w", t, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news for %s: http %d", t, resp.StatusCode())
	}
	return parseNews(resp.Body(), limit)
}

// summary fetches the given quoteSummary modules and returns result[0].
func (y *Yahoo) summary(ctx context.Context, ticker string, modules ...string) (map[string]any, error) {
	req := y.http.R().
		SetContext(ctx).
		SetPathParam("ticker", ticker).
		SetQueryParam("modules", strings.Join(modules, ","))
	if crumb := y.ensureCrumb(ctx); crumb != "" {
		req.SetQueryParam("crumb", crumb)
	}
	resp, err := req.Get(y.baseURL + "/v10/finance/quoteSummary/{ticker}")
	if err != nil {
		return nil, fmt.Errorf("quoteSummary %s: %w", ticker, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, noData(ticker, "quoteSummary")
	}
	if resp.IsError() {
		return nil, fmt.Errorf("quoteSummary %s: http %d", ticker, resp.StatusCode())
	}

	var doc any
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("quoteSummary %s: decode: %w", ticker, err)
	}
	v, err := jsonpath.Get("$.quoteSummary.result[0]", doc)
	if err != nil {
		return nil, noData(ticker, "quoteSummary")
	}
	res, ok := v.(map[string]any)
	if !ok {
		return nil, noData(ticker, "quoteSummary")
	}
	y.log.Debug().Str("ticker", ticker).Str("modules", strings.Join(modules, ",")).Msg("quoteSummary")
	return res, nil
}

// ensureCrumb performs the cookie and crumb handshake once per provider.
// Without a crumb requests are still attempted.
func (y *Yahoo) ensureCrumb(ctx context.Context) string {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.crumb != "" || y.cookieURL == "" {
		return y.crumb
	}
	if _, err := y.http.R().SetContext(ctx).Get(y.cookieURL); err != nil {
		y.log.Debug().Err(err).Msg("yahoo cookie request failed")
	}
	resp, err := y.http.R().SetContext(ctx).Get(y.baseURL + "/v1/test/getcrumb")
	if err != nil || resp.IsError() {
		y.log.Debug().Err(err).Msg("yahoo crumb unavailable")
		return ""
	}
	y.crumb = strings.TrimSpace(resp.String())
	return y.crumb
}
