package render

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/shopspring/decimal"

	"github.com/komsit37/fa/pkg/fa/ratio"
	"github.com/komsit37/fa/pkg/fa/report"
	"github.com/komsit37/fa/pkg/fa/statement"
	"github.com/komsit37/fa/pkg/fa/types"
)

// jsonReport is the output shape for JSONRenderer.
type jsonReport struct {
	Ticker       string                   `json:"ticker"`
	List         string                   `json:"list,omitempty"`
	Name         string                   `json:"name"`
	Meta         types.CompanyMeta        `json:"meta"`
	Price        *jsonPrice               `json:"price,omitempty"`
	LatestPeriod string                   `json:"latest_period,omitempty"`
	Ratios       []jsonRatio              `json:"ratios,omitempty"`
	Statements   map[string]jsonStatement `json:"statements,omitempty"`
	News         []types.NewsItem         `json:"news,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

type jsonPrice struct {
	From      string           `json:"from"`
	To        string           `json:"to"`
	Bars      int              `json:"bars"`
	First     decimal.Decimal  `json:"first"`
	Last      decimal.Decimal  `json:"last"`
	High      decimal.Decimal  `json:"high"`
	Low       decimal.Decimal  `json:"low"`
	ChangePct *decimal.Decimal `json:"change_pct"`
}

// jsonRatio carries a null value and a reason when the ratio is unavailable.
type jsonRatio struct {
	Name    string      `json:"name"`
	Group   string      `json:"group"`
	Value   types.Value `json:"value"`
	Percent bool        `json:"percent,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

type jsonStatement struct {
	Periods []string                 `json:"periods"`
	Items   map[string][]types.Value `json:"items"`
}

// JSONRenderer writes all reports as one JSON array.
type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, reports []*report.Report, opts RenderOptions) error {
	out := make([]jsonReport, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toJSON(rep, opts))
	}
	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func toJSON(rep *report.Report, opts RenderOptions) jsonReport {
	j := jsonReport{
		Ticker: rep.Ticker,
		List:   rep.List,
		Name:   rep.DisplayName(),
		Meta:   rep.Meta,
	}
	if rep.Err != nil {
		j.Error = rep.Err.Error()
		return j
	}

	p := rep.Price
	j.Price = &jsonPrice{
		From:  p.From.Format("2006-01-02"),
		To:    p.To.Format("2006-01-02"),
		Bars:  p.Bars,
		First: p.First,
		Last:  p.Last,
		High:  p.High,
		Low:   p.Low,
	}
	if p.ChangePct.Valid {
		c := p.ChangePct.Decimal
		j.Price.ChangePct = &c
	}
	j.LatestPeriod = rep.LatestPeriod

	for _, res := range rep.Ratios.Results() {
		jr := jsonRatio{Name: res.Name, Group: res.Group, Value: res.Value, Percent: ratio.IsPercent(res.Name)}
		if res.Err != nil {
			jr.Reason = reason(res.Err)
		}
		j.Ratios = append(j.Ratios, jr)
	}

	if opts.Statements {
		j.Statements = map[string]jsonStatement{}
		for name, s := range map[string]types.StatementSnapshot{
			"income":        rep.Statements.Income,
			"balance_sheet": rep.Statements.BalanceSheet,
			"cashflow":      rep.Statements.CashFlow,
		} {
			if statement.IsEmpty(s) {
				continue
			}
			j.Statements[name] = jsonStatement{Periods: s.Periods, Items: s.Items}
		}
	}
	j.News = rep.News
	return j
}

// reason is the error text with a stable prefix for the known causes.
func reason(err error) string {
	switch {
	case errors.Is(err, ratio.ErrMissingOperand), errors.Is(err, ratio.ErrDivisionByZero), errors.Is(err, ratio.ErrNotFinite):
		return err.Error()
	}
	return "unavailable: " + err.Error()
}
