package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/stockbook/pkg/stockbook/metrics"
	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// TableRenderer prints go-pretty tables sized to the terminal.
type TableRenderer struct {
	// Width is the terminal width in columns; 0 means unknown.
	Width int
}

func NewTableRenderer(width int) *TableRenderer { return &TableRenderer{Width: width} }

func (r *TableRenderer) newWriter(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleColoredDark)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	return tw
}

// maxColWidth wraps long text; defaults to 40 like the name column of a
// watch list.
func (r *TableRenderer) maxColWidth(opts Options) int {
	if opts.MaxColWidth > 0 {
		return opts.MaxColWidth
	}
	if r.Width > 0 {
		if w := r.Width - 50; w > 40 {
			return w
		}
	}
	return 40
}

func (r *TableRenderer) RenderSingle(w io.Writer, rep *types.Report, opts Options) error {
	fmt.Fprintln(w, text.Bold.Sprint("STOCK ANALYSIS: "+rep.Ticker))
	fmt.Fprintf(w, "Company: %s\n", rep.CompanyName())
	fmt.Fprintf(w, "Sector: %s | Industry: %s\n", orNA(rep.Quote.Sector), orNA(rep.Quote.Industry))
	fmt.Fprintf(w, "Analysis Date: %s\n", rep.GeneratedAt)
	fmt.Fprintf(w, "Period: %s\n\n", rep.PeriodLabel)

	tw := r.newWriter(w)
	tw.AppendHeader(table.Row{"KEY METRICS", ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 28},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})
	section := ""
	for _, row := range visibleRows(rep.Metrics, opts.Sections) {
		if row.Section != section {
			if section != "" {
				tw.AppendSeparator()
			}
			section = row.Section
			tw.AppendRow(table.Row{text.Bold.Sprint(section), ""})
		}
		tw.AppendRow(table.Row{row.Label, colorize(row.Value, opts.Color)})
	}
	tw.Render()

	if p := rep.Performance; p.Start != 0 {
		fmt.Fprintf(w, "\nChange over %s: %s (%s)\n", rep.PeriodLabel,
			colorize(metrics.FormatSignedDollars(p.Change), opts.Color),
			colorize(metrics.FormatSignedPct(p.ChangePct), opts.Color))
	}
	if rep.Chart != nil && rep.Chart.Err != "" {
		fmt.Fprintf(w, "Chart error: %s\n", rep.Chart.Err)
	}

	if len(rep.News) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, text.Bold.Sprint("Recent News for "+rep.Ticker))
		nw := r.newWriter(w)
		nw.AppendHeader(table.Row{"Title", "Publisher", "Published", "Link"})
		nw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, WidthMax: r.maxColWidth(opts)},
			{Number: 2, WidthMax: 20},
			{Number: 4, WidthMax: 60},
		})
		for _, n := range rep.News {
			nw.AppendRow(table.Row{n.Title, n.Publisher, n.Published, n.Link})
		}
		nw.Render()
	}
	writeSteps(w, rep.Ticker, rep.Steps)
	return nil
}

func (r *TableRenderer) RenderComparison(w io.Writer, c *types.Comparison, opts Options) error {
	fmt.Fprintln(w, text.Bold.Sprint("STOCK COMPARISON"))
	fmt.Fprintf(w, "Period: %s\n\n", c.PeriodLabel)

	tw := r.newWriter(w)
	hdr := table.Row{"Metric"}
	cfgs := []table.ColumnConfig{{Number: 1, WidthMax: 28}}
	for i, t := range c.Tickers {
		hdr = append(hdr, t)
		cfgs = append(cfgs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight, AlignHeader: text.AlignRight, WidthMax: 24})
	}
	tw.AppendHeader(hdr)
	tw.SetColumnConfigs(cfgs)

	names := table.Row{"Company Name"}
	for _, rep := range c.Reports {
		names = append(names, rep.CompanyName())
	}
	tw.AppendRow(names)

	section := ""
	for _, row := range comparisonLabels(c, opts.Sections) {
		if row.Section != section {
			tw.AppendSeparator()
			section = row.Section
			sec := table.Row{text.Bold.Sprint(section)}
			for range c.Reports {
				sec = append(sec, "")
			}
			tw.AppendRow(sec)
		}
		line := table.Row{row.Label}
		for _, rep := range c.Reports {
			line = append(line, colorize(valueFor(rep, row.Label), opts.Color))
		}
		tw.AppendRow(line)
	}
	tw.Render()

	fmt.Fprintln(w)
	pw := r.newWriter(w)
	pw.AppendHeader(table.Row{"Ticker", "Start", "End", "$ Chg", "% Chg"})
	pw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, rep := range c.Reports {
		p := rep.Performance
		pw.AppendRow(table.Row{
			rep.Ticker,
			metrics.FormatDollars(p.Start),
			metrics.FormatDollars(p.End),
			colorize(metrics.FormatSignedDollars(p.Change), opts.Color),
			colorize(metrics.FormatSignedPct(p.ChangePct), opts.Color),
		})
	}
	pw.Render()

	if c.Chart != nil && c.Chart.Err != "" {
		fmt.Fprintf(w, "Chart error: %s\n", c.Chart.Err)
	}
	for _, rep := range c.Reports {
		writeSteps(w, rep.Ticker, rep.Steps)
	}
	return nil
}

// colorize paints signed values: red when negative, green when explicitly
// positive.
func colorize(v string, color bool) string {
	if !color {
		return v
	}
	switch {
	case strings.HasPrefix(v, "-"):
		return text.Colors{text.FgRed}.Sprint(v)
	case strings.HasPrefix(v, "+"):
		return text.Colors{text.FgGreen}.Sprint(v)
	}
	return v
}

func writeSteps(w io.Writer, ticker string, steps []types.Step) {
	for _, s := range steps {
		if s.State == types.StepOK {
			continue
		}
		fmt.Fprintf(w, "note: %s %s %s: %s\n", ticker, s.Name, s.State, s.Detail)
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return metrics.NA
	}
	return s
}
