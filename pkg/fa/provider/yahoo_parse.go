package provider

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/PaesslerAG/jsonpath"
	"github.com/PuerkitoBio/goquery"

	"github.com/komsit37/fa/pkg/fa/types"
)

// Line items whose display name is not the plain title-cased key.
var itemOverrides = map[string]string{
	"ebit":                         "EBIT",
	"ebitda":                       "EBITDA",
	"netIncomeFromContinuingOps":   "Net Income From Continuing Ops",
	"totalOtherIncomeExpenseNet":   "Total Other Income Expense Net",
	"researchDevelopment":          "Research Development",
	"sellingGeneralAdministrative": "Selling General Administrative",
}

// LineItemName maps a Yahoo camelCase statement key to its display name:
// totalRevenue becomes "Total Revenue".
func LineItemName(key string) string {
	if n, ok := itemOverrides[key]; ok {
		return n
	}
	var b strings.Builder
	for i, r := range key {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteByte(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// rawNumber reads a Yahoo {"raw": n, "fmt": "..."} cell. Yahoo sends {} for
// values it does not have.
func rawNumber(v any) (types.Value, bool) {
	switch x := v.(type) {
	case float64:
		return types.Of(x), true
	case map[string]any:
		if raw, ok := x["raw"].(float64); ok {
			return types.Of(raw), true
		}
	}
	return types.Unavailable, false
}

// periodID prefers the formatted endDate, else the epoch seconds as a date.
func periodID(v any) (string, int64) {
	m, _ := v.(map[string]any)
	var raw int64
	if r, ok := m["raw"].(float64); ok {
		raw = int64(r)
	}
	if f, ok := m["fmt"].(string); ok && f != "" {
		return f, raw
	}
	if raw != 0 {
		return time.Unix(raw, 0).UTC().Format("2006-01-02"), raw
	}
	return "", 0
}

// snapshotFromEntries builds a statement from Yahoo history entries, one per
// period. Entries are ordered most recent first regardless of input order.
func snapshotFromEntries(entries []any) types.StatementSnapshot {
	type period struct {
		id  string
		at  int64
		row map[string]any
	}
	periods := make([]period, 0, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		id, at := periodID(m["endDate"])
		periods = append(periods, period{id: id, at: at, row: m})
	}
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].at > periods[j].at })

	s := types.StatementSnapshot{Items: map[string][]types.Value{}}
	for i, p := range periods {
		s.Periods = append(s.Periods, p.id)
		for k, v := range p.row {
			if k == "endDate" || k == "maxAge" {
				continue
			}
			val, ok := rawNumber(v)
			if !ok {
				continue
			}
			name := LineItemName(k)
			row := s.Items[name]
			for len(row) < i {
				row = append(row, types.Unavailable)
			}
			s.Items[name] = append(row, val)
		}
	}
	for name, row := range s.Items {
		for len(row) < len(s.Periods) {
			row = append(row, types.Unavailable)
		}
		s.Items[name] = row
	}
	return s
}

var statementPaths = []struct {
	module string
	path   string
}{
	{"incomeStatementHistory", "$.incomeStatementHistory.incomeStatementHistory"},
	{"balanceSheetHistory", "$.balanceSheetHistory.balanceSheetStatements"},
	{"cashflowStatementHistory", "$.cashflowStatementHistory.cashflowStatements"},
}

// statementsFromSummary pulls the three history modules out of a quoteSummary
// result. A module Yahoo omitted yields an empty snapshot.
func statementsFromSummary(res map[string]any) types.Statements {
	var out [3]types.StatementSnapshot
	for i, sp := range statementPaths {
		var entries []any
		if v, err := jsonpath.Get(sp.path, res); err == nil {
			entries, _ = v.([]any)
		}
		out[i] = snapshotFromEntries(entries)
	}
	return types.Statements{Income: out[0], BalanceSheet: out[1], CashFlow: out[2]}
}

var quoteModules = []string{"price", "summaryDetail", "defaultKeyStatistics", "financialData"}

// quoteFromSummary flattens the quote modules into one metric map. The first
// module reporting a metric wins; a metric seen only as {} stays Unavailable.
func quoteFromSummary(res map[string]any) types.QuoteSnapshot {
	q := types.QuoteSnapshot{}
	for _, mod := range quoteModules {
		fields, ok := res[mod].(map[string]any)
		if !ok {
			continue
		}
		for k, v := range fields {
			if k == "maxAge" {
				continue
			}
			if cur, seen := q[k]; seen && cur.Available() {
				continue
			}
			switch v.(type) {
			case float64, map[string]any:
				val, _ := rawNumber(v)
				q[k] = val
			}
		}
	}
	return q
}

func pathString(res map[string]any, path string) string {
	v, err := jsonpath.Get(path, res)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func metaFromSummary(res map[string]any) types.CompanyMeta {
	name := pathString(res, "$.price.longName")
	if name == "" {
		name = pathString(res, "$.price.shortName")
	}
	return types.CompanyMeta{
		Name:     name,
		Sector:   pathString(res, "$.assetProfile.sector"),
		Industry: pathString(res, "$.assetProfile.industry"),
		Currency: pathString(res, "$.price.currency"),
		Exchange: pathString(res, "$.price.exchangeName"),
	}
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
	Source      string `xml:"source"`
}

// parseNews decodes an RSS headline feed, keeping at most limit items.
func parseNews(body []byte, limit int) ([]types.NewsItem, error) {
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode news feed: %w", err)
	}
	var out []types.NewsItem
	for _, it := range feed.Channel.Items {
		if len(out) >= limit {
			break
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		out = append(out, types.NewsItem{
			Title:     title,
			Link:      strings.TrimSpace(it.Link),
			Publisher: strings.TrimSpace(it.Source),
			Published: parsePubDate(it.PubDate),
			Summary:   stripHTML(it.Description),
		})
	}
	return out, nil
}

func parsePubDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// stripHTML returns the text content of an HTML fragment with whitespace collapsed.
func stripHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
