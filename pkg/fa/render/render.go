package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/komsit37/fa/pkg/fa/ratio"
	"github.com/komsit37/fa/pkg/fa/report"
)

// Renderer writes analysis reports to an output writer.
type Renderer interface {
	Render(w io.Writer, reports []*report.Report, opts RenderOptions) error
}

// Incremental renderers print each report as soon as it is ready.
type Incremental interface {
	RenderOne(w io.Writer, rep *report.Report, opts RenderOptions) error
}

// RenderOptions controls what renderers include and how they style it.
type RenderOptions struct {
	Color      bool
	PrettyJSON bool
	// MaxColWidth caps table column width; 0 leaves columns unbounded.
	MaxColWidth int
	// Statements adds the raw statements to table and json output.
	Statements bool
	// Periods is how many statement periods to show; 0 means 4.
	Periods int
}

func (o RenderOptions) periods() int {
	if o.Periods <= 0 {
		return 4
	}
	return o.Periods
}

// New returns the renderer for format: table, json, csv or markdown.
func New(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return NewTableRenderer(), nil
	case "json":
		return NewJSONRenderer(), nil
	case "csv":
		return NewGridRenderer(GridCSV), nil
	case "markdown", "md":
		return NewGridRenderer(GridMarkdown), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// formatRatio renders a ratio with two decimals, a % suffix where the ratio
// is a percentage, and N/A when unavailable.
func formatRatio(r ratio.Result) string {
	s := r.Value.Format(2)
	if r.Value.Available() && ratio.IsPercent(r.Name) {
		s += "%"
	}
	return s
}

// formatPrice uses the currency's symbol and fraction when the code is known.
func formatPrice(d decimal.Decimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		if currency == "" {
			return d.StringFixed(2)
		}
		return d.StringFixed(2) + " " + currency
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(d.Mul(factor).Round(0).IntPart(), cur.Code).Display()
}

func formatChange(c decimal.NullDecimal) string {
	if !c.Valid {
		return "N/A"
	}
	s := c.Decimal.StringFixed(2) + "%"
	if c.Decimal.IsPositive() {
		s = "+" + s
	}
	return s
}

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws vals in at most width cells, sampling the last value of
// each bucket when there are more values than cells.
func sparkline(vals []float64, width int) string {
	if len(vals) == 0 || width <= 0 {
		return ""
	}
	if len(vals) > width {
		sampled := make([]float64, width)
		for i := range sampled {
			sampled[i] = vals[(i+1)*len(vals)/width-1]
		}
		vals = sampled
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	var b strings.Builder
	for _, v := range vals {
		i := len(sparkTicks) / 2
		if span := hi - lo; span > 0 {
			i = int((v-lo)/span*float64(len(sparkTicks)-1) + 0.5)
		}
		b.WriteRune(sparkTicks[i])
	}
	return b.String()
}

// ratioColumns splits names into the left and right halves of the ratio
// table: the first eight on the left when there are more than eight.
func ratioColumns(results []ratio.Result) (left, right []ratio.Result) {
	split := (len(results) + 1) / 2
	if len(results) > 8 {
		split = 8
	}
	return results[:split], results[split:]
}
