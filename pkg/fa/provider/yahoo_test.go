package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/fa/pkg/fa/types"
)

type fakeYahoo struct {
	*httptest.Server
	summaryCalls atomic.Int32
	lastQuery    atomic.Value
}

func newFakeYahoo(t *testing.T) *fakeYahoo {
	f := &fakeYahoo{}
	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session"})
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("A3"); err != nil {
			http.Error(w, "no cookie", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, "crumb123")
	})
	mux.HandleFunc("/v10/finance/quoteSummary/", func(w http.ResponseWriter, r *http.Request) {
		f.summaryCalls.Add(1)
		f.lastQuery.Store(r.URL.RawQuery)
		switch strings.TrimPrefix(r.URL.Path, "/v10/finance/quoteSummary/") {
		case "AAPL":
			fmt.Fprintf(w, `{"quoteSummary": {"result": [%s], "error": null}}`, summaryBody)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"quoteSummary": {"result": null, "error": {"code": "Not Found"}}}`)
		}
	})
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("s") != "AAPL" {
			http.Error(w, "bad symbol", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, feed)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

const summaryBody = `{
  "price": {"regularMarketPrice": {"raw": 190}, "longName": "Apple Inc.", "currency": "USD"},
  "summaryDetail": {"trailingPE": {"raw": 30}},
  "assetProfile": {"sector": "Technology"},
  "incomeStatementHistory": {"incomeStatementHistory": [
    {"endDate": {"raw": 1703980800, "fmt": "2023-12-31"}, "totalRevenue": {"raw": 1000}}
  ]}
}`

func newTestYahoo(f *fakeYahoo) *Yahoo {
	y := NewYahoo(YahooOptions{
		Timeout:   2 * time.Second,
		BaseURL:   f.URL,
		CookieURL: f.URL + "/cookie",
		RSSURL:    f.URL + "/rss",
	})
	y.livePrice = nil
	y.history = func(context.Context, string, time.Time, time.Time) ([]types.PriceBar, error) {
		return nil, errors.New("history not stubbed")
	}
	return y
}

func TestYahooStatementsAndCrumb(t *testing.T) {
	f := newFakeYahoo(t)
	y := newTestYahoo(f)

	st, err := y.Statements(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-12-31"}, st.Income.Periods)
	assert.Equal(t, types.Of(1000), st.Income.Items["Total Revenue"][0])
	assert.Empty(t, st.BalanceSheet.Periods)

	q, _ := f.lastQuery.Load().(string)
	assert.Contains(t, q, "crumb=crumb123")
	assert.Contains(t, q, "incomeStatementHistory")
}

func TestYahooQuoteLivePrice(t *testing.T) {
	f := newFakeYahoo(t)
	y := newTestYahoo(f)

	q, err := y.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, types.Of(190), q["regularMarketPrice"])
	assert.Equal(t, types.Of(30), q["trailingPE"])

	y.livePrice = func(context.Context, string) (float64, error) { return 191.5, nil }
	q, err = y.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, types.Of(191.5), q["regularMarketPrice"])

	y.livePrice = func(context.Context, string) (float64, error) { return 0, errors.New("down") }
	q, err = y.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, types.Of(190), q["regularMarketPrice"])
}

func TestYahooMeta(t *testing.T) {
	f := newFakeYahoo(t)
	meta, err := newTestYahoo(f).CompanyMeta(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", meta.Name)
	assert.Equal(t, "Technology", meta.Sector)
	assert.Equal(t, "USD", meta.Currency)
}

func TestYahooUnknownTicker(t *testing.T) {
	f := newFakeYahoo(t)
	y := newTestYahoo(f)

	_, err := y.Statements(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = y.Quote(context.Background(), "")
	assert.ErrorContains(t, err, "empty ticker")
}

func TestYahooNews(t *testing.T) {
	f := newFakeYahoo(t)
	y := newTestYahoo(f)

	items, err := y.News(context.Background(), "aapl", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "First", items[0].Title)

	items, err = y.News(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	assert.Nil(t, items)

	_, err = y.News(context.Background(), "MSFT", 5)
	assert.Error(t, err)
}

func TestYahooPriceHistory(t *testing.T) {
	f := newFakeYahoo(t)
	y := newTestYahoo(f)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var gotTicker string
	var gotStart time.Time
	y.history = func(_ context.Context, ticker string, s, _ time.Time) ([]types.PriceBar, error) {
		gotTicker, gotStart = ticker, s
		return []types.PriceBar{{Date: s, Close: decimal.NewFromInt(10)}}, nil
	}
	bars, err := y.PriceHistory(context.Background(), "nisp.jk", start)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Equal(t, "NISP.JK", gotTicker)
	assert.Equal(t, start, gotStart)
}

func TestChartHistoryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := chartHistory(ctx, "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwaitCtx(t *testing.T) {
	bars, err := awaitCtx(context.Background(), func() ([]types.PriceBar, error) {
		return []types.PriceBar{{Close: decimal.NewFromInt(1)}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, bars, 1)

	release := make(chan struct{})
	defer close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = awaitCtx(ctx, func() ([]types.PriceBar, error) {
		<-release
		return nil, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestYahooPriceHistoryPassesContext(t *testing.T) {
	y := newTestYahoo(newFakeYahoo(t))
	y.history = func(ctx context.Context, _ string, _, _ time.Time) ([]types.PriceBar, error) {
		return nil, ctx.Err()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := y.PriceHistory(ctx, "AAPL", time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
