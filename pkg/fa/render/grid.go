package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/komsit37/fa/pkg/fa/report"
)

// GridMode selects the flat output of GridRenderer.
type GridMode int

const (
	GridCSV GridMode = iota
	GridMarkdown
)

// GridRenderer prints one row per ticker and one column per ratio, for
// spreadsheets and docs.
type GridRenderer struct{ Mode GridMode }

// NewGridRenderer returns a one-row-per-ticker renderer in the given mode.
func NewGridRenderer(mode GridMode) Renderer { return GridRenderer{Mode: mode} }

func (g GridRenderer) Render(w io.Writer, reports []*report.Report, _ RenderOptions) error {
	names := ratioNames(reports)

	tw := table.NewWriter()
	hdr := table.Row{"Ticker", "Name", "Close", "Change"}
	for _, n := range names {
		hdr = append(hdr, n)
	}
	hdr = append(hdr, "Error")
	tw.AppendHeader(hdr)

	for _, rep := range reports {
		row := table.Row{rep.Ticker, rep.DisplayName()}
		if rep.Err != nil {
			row = append(row, "", "")
			for range names {
				row = append(row, "")
			}
			row = append(row, rep.Err.Error())
			tw.AppendRow(row)
			continue
		}
		row = append(row, rep.Price.Last.StringFixed(2), formatChange(rep.Price.ChangePct))
		for _, n := range names {
			res, ok := rep.Ratios.Result(n)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatRatio(res))
		}
		row = append(row, "")
		tw.AppendRow(row)
	}

	var out string
	switch g.Mode {
	case GridMarkdown:
		out = tw.RenderMarkdown()
	default:
		out = tw.RenderCSV()
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// ratioNames is the union of ratio names across reports in first-seen order.
func ratioNames(reports []*report.Report) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, rep := range reports {
		for _, n := range rep.Ratios.Names() {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
