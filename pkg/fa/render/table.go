package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/fa/pkg/fa/ratio"
	"github.com/komsit37/fa/pkg/fa/report"
	"github.com/komsit37/fa/pkg/fa/statement"
	"github.com/komsit37/fa/pkg/fa/types"
)

// TableRenderer prints one dashboard per ticker: a header card, the price
// summary, the ratio table and optionally statements and news.
// It remembers the last watchlist printed, so use one renderer per output.
type TableRenderer struct {
	printed  int
	lastList string
}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(w io.Writer, reports []*report.Report, opts RenderOptions) error {
	r.printed, r.lastList = 0, ""
	for _, rep := range reports {
		if err := r.RenderOne(w, rep, opts); err != nil {
			return err
		}
	}
	return nil
}

// RenderOne writes a single ticker dashboard.
func (r *TableRenderer) RenderOne(w io.Writer, rep *report.Report, opts RenderOptions) error {
	if r.printed > 0 {
		fmt.Fprintln(w)
	}
	if rep.List != "" && rep.List != r.lastList {
		fmt.Fprintln(w, paint(opts, text.Colors{text.Bold}, strings.ToUpper(rep.List)))
		r.lastList = rep.List
	}
	if rep.Err != nil {
		renderError(w, rep, opts)
	} else {
		renderDashboard(w, rep, opts)
	}
	r.printed++
	return nil
}

func paint(opts RenderOptions, c text.Colors, s string) string {
	if !opts.Color {
		return s
	}
	return c.Sprint(s)
}

func renderError(w io.Writer, rep *report.Report, opts RenderOptions) {
	fmt.Fprintf(w, "%s  %s\n", paint(opts, text.Colors{text.Bold}, rep.Ticker), paint(opts, text.Colors{text.FgRed}, "error: "+rep.Err.Error()))
}

func renderDashboard(w io.Writer, rep *report.Report, opts RenderOptions) {
	fmt.Fprintln(w, headerCard(rep, opts))

	p := rep.Price
	chg := formatChange(p.ChangePct)
	switch {
	case p.ChangePct.Valid && p.ChangePct.Decimal.IsPositive():
		chg = paint(opts, text.Colors{text.FgGreen}, chg)
	case p.ChangePct.Valid && p.ChangePct.Decimal.IsNegative():
		chg = paint(opts, text.Colors{text.FgRed}, chg)
	}
	fmt.Fprintf(w, "Close %s  %s since %s  (low %s, high %s, %d bars)\n",
		formatPrice(p.Last, rep.Meta.Currency), chg, p.From.Format("2006-01-02"),
		formatPrice(p.Low, rep.Meta.Currency), formatPrice(p.High, rep.Meta.Currency), p.Bars)
	width := opts.MaxColWidth
	if width <= 0 {
		width = 60
	}
	if line := sparkline(p.Closes, width); line != "" {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	if rep.LatestPeriod == "" {
		fmt.Fprintln(w, paint(opts, text.Colors{text.FgYellow}, "No income statement data; statement ratios unavailable."))
	}
	renderRatios(w, rep.Ratios, opts)

	if opts.Statements {
		renderStatement(w, "Income Statement", rep.Statements.Income, opts)
		renderStatement(w, "Balance Sheet", rep.Statements.BalanceSheet, opts)
		renderStatement(w, "Cash Flow", rep.Statements.CashFlow, opts)
	}
	renderNews(w, rep.News, opts)
}

func headerCard(rep *report.Report, opts RenderOptions) string {
	title := fmt.Sprintf("%s (%s)", rep.DisplayName(), rep.Ticker)
	if opts.Color {
		title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Render(title)
	}
	lines := []string{title}
	if s := joinNonEmpty(" · ", rep.Meta.Sector, rep.Meta.Industry); s != "" {
		lines = append(lines, s)
	}
	if s := joinNonEmpty(" · ", rep.Meta.Exchange, rep.Meta.Currency); s != "" {
		lines = append(lines, s)
	}
	if rep.LatestPeriod != "" {
		lines = append(lines, "Latest period "+rep.LatestPeriod)
	}
	card := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if opts.Color {
		card = card.BorderForeground(lipgloss.Color("#3B82F6"))
	}
	return card.Render(strings.Join(lines, "\n"))
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	return tw
}

func renderRatios(w io.Writer, set ratio.Set, opts RenderOptions) {
	results := set.Results()
	if len(results) == 0 {
		return
	}
	left, right := ratioColumns(results)

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Ratio", "Value", "Ratio", "Value"})
	cell := func(r ratio.Result) string {
		s := formatRatio(r)
		if !r.Value.Available() {
			return paint(opts, text.Colors{text.Faint}, s)
		}
		return s
	}
	for i := range left {
		row := table.Row{left[i].Name, cell(left[i]), "", ""}
		if i < len(right) {
			row[2], row[3] = right[i].Name, cell(right[i])
		}
		tw.AppendRow(row)
	}
	cfgs := []table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignRight},
	}
	if opts.MaxColWidth > 0 {
		for i := range cfgs {
			cfgs[i].WidthMax = opts.MaxColWidth
		}
	}
	tw.SetColumnConfigs(cfgs)
	tw.Render()
}

func renderStatement(w io.Writer, title string, s types.StatementSnapshot, opts RenderOptions) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, paint(opts, text.Colors{text.Bold}, title))
	if statement.IsEmpty(s) {
		fmt.Fprintln(w, "  no data")
		return
	}
	n := len(s.Periods)
	if n > opts.periods() {
		n = opts.periods()
	}

	tw := newTable(w)
	hdr := table.Row{"Item"}
	for _, p := range s.Periods[:n] {
		hdr = append(hdr, p)
	}
	tw.AppendHeader(hdr)
	cfgs := make([]table.ColumnConfig, 0, n+1)
	cfgs = append(cfgs, table.ColumnConfig{Number: 1, WidthMax: opts.MaxColWidth})
	for i := 0; i < n; i++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(cfgs)

	for _, item := range statement.Items(s) {
		row := table.Row{item}
		for i := 0; i < n; i++ {
			row = append(row, statement.Lookup(s, item, i).Format(0))
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func renderNews(w io.Writer, news []types.NewsItem, opts RenderOptions) {
	if len(news) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, paint(opts, text.Colors{text.Bold}, "News"))
	for _, n := range news {
		meta := joinNonEmpty(", ", n.Publisher, dateOrEmpty(n))
		line := "- " + n.Title
		if meta != "" {
			line += paint(opts, text.Colors{text.Faint}, " ("+meta+")")
		}
		fmt.Fprintln(w, line)
		if n.Link != "" {
			fmt.Fprintln(w, "  "+paint(opts, text.Colors{text.FgBlue}, n.Link))
		}
	}
}

func dateOrEmpty(n types.NewsItem) string {
	if n.Published.IsZero() {
		return ""
	}
	return n.Published.Format("2006-01-02")
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, sep)
}
