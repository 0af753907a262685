package render

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/komsit37/stockbook/pkg/stockbook/metrics"
	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// Workbook sheet names.
const (
	SheetSingle  = "Single"
	SheetNews    = "News"
	SheetCompare = "Compare"
)

// Input and status cells of the workbook.
const (
	CellSingleTicker  = "B2"
	CellSinglePeriod  = "B3"
	CellSingleStatus  = "B5"
	CellComparePeriod = "B5"
	CellCompareStatus = "B7"
)

// CompareTickerCells hold up to three comparison tickers.
var CompareTickerCells = []string{"B2", "B3", "B4"}

const (
	singleChartCell  = "E7"
	compareChartCell = "F10"
	singleFirstRow   = 7
	singleLastRow    = 200
	newsLastRow      = 200
	compareFirstRow  = 10
	compareLastRow   = 200
	chartScale       = 0.6
)

// WorkbookRenderer writes reports into the Single, News and Compare sheets
// of an .xlsx workbook, creating it when missing. Each run clears the output
// area and rewrites it completely.
type WorkbookRenderer struct {
	Path string
	log  *zap.Logger
}

func NewWorkbookRenderer(path string) *WorkbookRenderer {
	if path == "" {
		path = "stockbook.xlsx"
	}
	return &WorkbookRenderer{Path: path, log: zap.NewNop()}
}

// WithLogger sets the logger used for non-fatal workbook problems.
func (r *WorkbookRenderer) WithLogger(log *zap.Logger) *WorkbookRenderer {
	if log != nil {
		r.log = log
	}
	return r
}

func (r *WorkbookRenderer) RenderSingle(w io.Writer, rep *types.Report, _ Options) error {
	f, err := OpenWorkbook(r.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}
	if err := r.writeSingle(f, st, rep); err != nil {
		return fmt.Errorf("write %s sheet: %w", SheetSingle, err)
	}
	if err := writeNews(f, st, rep.Ticker, rep.News); err != nil {
		return fmt.Errorf("write %s sheet: %w", SheetNews, err)
	}
	activate(f, SheetSingle)
	if err := f.SaveAs(r.Path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	_, err = fmt.Fprintf(w, "Updated %s: %s (%s)\n", r.Path, rep.Ticker, rep.PeriodLabel)
	return err
}

func (r *WorkbookRenderer) RenderComparison(w io.Writer, c *types.Comparison, opts Options) error {
	f, err := OpenWorkbook(r.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return err
	}
	if err := r.writeCompare(f, st, c, opts); err != nil {
		return fmt.Errorf("write %s sheet: %w", SheetCompare, err)
	}
	activate(f, SheetCompare)
	if err := f.SaveAs(r.Path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	_, err = fmt.Fprintf(w, "Updated %s: %s (%s)\n", r.Path, strings.Join(c.Tickers, ", "), c.PeriodLabel)
	return err
}

// SetStatus overwrites the status cell of sheet (Single or Compare).
func (r *WorkbookRenderer) SetStatus(sheet, msg string) error {
	cell := CellSingleStatus
	if sheet == SheetCompare {
		cell = CellCompareStatus
	}
	f, err := OpenWorkbook(r.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SetCellValue(sheet, cell, msg); err != nil {
		return err
	}
	return f.SaveAs(r.Path)
}

// OpenWorkbook opens path, or creates a workbook with the three sheets and
// their input labels when the file does not exist.
func OpenWorkbook(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err == nil {
		if err := ensureSheets(f); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	f = excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetSingle); err != nil {
		f.Close()
		return nil, err
	}
	if err := ensureSheets(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func ensureSheets(f *excelize.File) error {
	for _, name := range []string{SheetSingle, SheetNews, SheetCompare} {
		idx, err := f.GetSheetIndex(name)
		if err != nil {
			return err
		}
		if idx >= 0 {
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	labels := []struct{ sheet, cell, text string }{
		{SheetSingle, "A2", "Ticker:"},
		{SheetSingle, "A3", "Period:"},
		{SheetSingle, "A5", "Status:"},
		{SheetCompare, "A2", "Ticker 1:"},
		{SheetCompare, "A3", "Ticker 2:"},
		{SheetCompare, "A4", "Ticker 3:"},
		{SheetCompare, "A5", "Period:"},
		{SheetCompare, "A7", "Status:"},
	}
	for _, l := range labels {
		v, err := f.GetCellValue(l.sheet, l.cell)
		if err != nil {
			return err
		}
		if v == "" {
			if err := f.SetCellValue(l.sheet, l.cell, l.text); err != nil {
				return err
			}
		}
	}
	return nil
}

func activate(f *excelize.File, sheet string) {
	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
}

func (r *WorkbookRenderer) writeSingle(f *excelize.File, st *styles, rep *types.Report) error {
	s := SheetSingle
	if err := clearRange(f, s, 1, singleFirstRow, 3, singleLastRow); err != nil {
		return err
	}
	r.replaceChart(f, s, singleChartCell, nil)

	sets := []struct {
		cell  string
		value any
	}{
		{CellSingleTicker, rep.Ticker},
		{CellSinglePeriod, rep.PeriodLabel},
		{CellSingleStatus, fmt.Sprintf("Analysis complete for %s!", rep.Ticker)},
		{"A7", "STOCK ANALYSIS: " + rep.Ticker},
		{"A8", "Company: " + rep.CompanyName()},
		{"A9", fmt.Sprintf("Sector: %s | Industry: %s", orNA(rep.Quote.Sector), orNA(rep.Quote.Industry))},
		{"A10", "Analysis Date: " + rep.GeneratedAt},
		{"A12", "KEY METRICS"},
	}
	for _, c := range sets {
		if err := f.SetCellValue(s, c.cell, c.value); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(s, "A7", "A7", st.title); err != nil {
		return err
	}
	if err := f.SetCellStyle(s, "A12", "B12", st.banner); err != nil {
		return err
	}

	if _, err := writeSections(f, st, s, 14, rep.Metrics.Rows(), func(m types.MetricRow) []any {
		return []any{m.Value}
	}); err != nil {
		return err
	}
	for col, width := range map[string]float64{"A": 24, "B": 20} {
		if err := f.SetColWidth(s, col, col, width); err != nil {
			return err
		}
	}
	r.replaceChart(f, s, singleChartCell, rep.Chart)
	return nil
}

// writeSections lays out section header rows, banded metric rows and a
// blank row after each section starting at row. values returns the cells
// after the label column. It returns the last row written.
func writeSections(f *excelize.File, st *styles, sheet string, row int, rows []types.MetricRow, values func(types.MetricRow) []any) (int, error) {
	section := ""
	band := 0
	last := row
	width := 1
	if len(rows) > 0 {
		width = 1 + len(values(rows[0]))
	}
	for _, m := range rows {
		if m.Section != section {
			if section != "" {
				row++ // blank line between sections
			}
			section = m.Section
			if err := f.SetCellValue(sheet, cellName(1, row), section); err != nil {
				return 0, err
			}
			if err := f.SetCellStyle(sheet, cellName(1, row), cellName(width, row), st.header); err != nil {
				return 0, err
			}
			row++
			band = 0
		}
		cells := append([]any{m.Label}, values(m)...)
		if err := f.SetSheetRow(sheet, cellName(1, row), &cells); err != nil {
			return 0, err
		}
		label, value := st.labelEven, st.valueEven
		if band%2 == 1 {
			label, value = st.labelOdd, st.valueOdd
		}
		if err := f.SetCellStyle(sheet, cellName(1, row), cellName(1, row), label); err != nil {
			return 0, err
		}
		if width > 1 {
			if err := f.SetCellStyle(sheet, cellName(2, row), cellName(width, row), value); err != nil {
				return 0, err
			}
		}
		last = row
		band++
		row++
	}
	return last, nil
}

func writeNews(f *excelize.File, st *styles, ticker string, items []types.NewsItem) error {
	s := SheetNews
	if err := clearRange(f, s, 1, 1, 4, newsLastRow); err != nil {
		return err
	}
	for row := 1; row <= newsLastRow; row++ {
		if err := f.SetCellHyperLink(s, cellName(4, row), "", "None"); err != nil {
			return err
		}
	}
	if err := f.SetCellValue(s, "A1", "Recent News for "+ticker); err != nil {
		return err
	}
	if err := f.SetCellStyle(s, "A1", "A1", st.newsTitle); err != nil {
		return err
	}
	if err := f.SetSheetRow(s, "A3", &[]any{"Title", "Publisher", "Published", "Link"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(s, "A3", "D3", st.bold); err != nil {
		return err
	}

	row := 4
	for _, n := range items {
		if row > newsLastRow {
			break
		}
		if err := f.SetSheetRow(s, cellName(1, row), &[]any{n.Title, n.Publisher, n.Published}); err != nil {
			return err
		}
		link := cellName(4, row)
		if strings.HasPrefix(n.Link, "http") {
			display, tip := "View Article", n.Link
			if err := f.SetCellValue(s, link, display); err != nil {
				return err
			}
			if err := f.SetCellHyperLink(s, link, n.Link, "External", excelize.HyperlinkOpts{Display: &display, Tooltip: &tip}); err != nil {
				return err
			}
			if err := f.SetCellStyle(s, link, link, st.link); err != nil {
				return err
			}
		} else if n.Link != "" {
			if err := f.SetCellValue(s, link, n.Link); err != nil {
				return err
			}
		}
		row++
	}
	for col, width := range map[string]float64{"A": 60, "B": 20, "C": 18, "D": 14} {
		if err := f.SetColWidth(s, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func (r *WorkbookRenderer) writeCompare(f *excelize.File, st *styles, c *types.Comparison, opts Options) error {
	s := SheetCompare
	if err := clearRange(f, s, 1, compareFirstRow, 26, compareLastRow); err != nil {
		return err
	}
	r.replaceChart(f, s, compareChartCell, nil)

	for i, cell := range CompareTickerCells {
		v := ""
		if i < len(c.Tickers) {
			v = c.Tickers[i]
		}
		if err := f.SetCellValue(s, cell, v); err != nil {
			return err
		}
	}
	if err := f.SetCellValue(s, CellComparePeriod, c.PeriodLabel); err != nil {
		return err
	}
	if err := f.SetCellValue(s, CellCompareStatus, "Comparison complete!"); err != nil {
		return err
	}

	n := len(c.Reports)
	if err := f.SetCellValue(s, "A10", "STOCK COMPARISON"); err != nil {
		return err
	}
	if err := f.SetCellStyle(s, "A10", cellName(n+1, 10), st.banner); err != nil {
		return err
	}

	hdr := []any{"Metric"}
	names := []any{"Company Name"}
	for _, rep := range c.Reports {
		hdr = append(hdr, rep.Ticker)
		names = append(names, rep.CompanyName())
	}
	if err := f.SetSheetRow(s, "A12", &hdr); err != nil {
		return err
	}
	if err := f.SetCellStyle(s, "A12", cellName(n+1, 12), st.header); err != nil {
		return err
	}
	if err := f.SetSheetRow(s, "A13", &names); err != nil {
		return err
	}
	if err := f.SetCellStyle(s, "A13", cellName(n+1, 13), st.bold); err != nil {
		return err
	}

	last, err := writeSections(f, st, s, 15, comparisonLabels(c, opts.Sections), func(m types.MetricRow) []any {
		out := make([]any, n)
		for i, rep := range c.Reports {
			out[i] = valueFor(rep, m.Label)
		}
		return out
	})
	if err != nil {
		return err
	}

	// Performance summary below the metrics.
	row := last + 2
	if err := f.SetSheetRow(s, cellName(1, row), &[]any{"Ticker", "Start", "End", "$ Chg", "% Chg"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(s, cellName(1, row), cellName(5, row), st.summaryHeader); err != nil {
		return err
	}
	for i, rep := range c.Reports {
		row++
		p := rep.Performance
		if err := f.SetSheetRow(s, cellName(1, row), &[]any{
			rep.Ticker,
			metrics.FormatDollars(p.Start),
			metrics.FormatDollars(p.End),
			metrics.FormatSignedDollars(p.Change),
			metrics.FormatSignedPct(p.ChangePct),
		}); err != nil {
			return err
		}
		band := st.valueEven
		if i%2 == 1 {
			band = st.valueOdd
		}
		if err := f.SetCellStyle(s, cellName(1, row), cellName(5, row), band); err != nil {
			return err
		}
		pct := st.up
		if p.ChangePct < 0 {
			pct = st.down
		}
		if err := f.SetCellStyle(s, cellName(5, row), cellName(5, row), pct); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(s, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(s, "B", "E", 20); err != nil {
		return err
	}
	r.replaceChart(f, s, compareChartCell, c.Chart)
	return nil
}

// replaceChart removes any picture anchored at cell, then inserts ch. A
// chart that failed to render leaves its error text in the anchor cell.
func (r *WorkbookRenderer) replaceChart(f *excelize.File, sheet, cell string, ch *types.Chart) {
	if ch == nil {
		_ = f.SetCellValue(sheet, cell, nil)
		if err := f.DeletePicture(sheet, cell); err != nil {
			r.log.Debug("delete picture", zap.String("sheet", sheet), zap.Error(err))
		}
		return
	}
	if ch.Err != "" || len(ch.PNG) == 0 {
		msg := ch.Err
		if msg == "" {
			msg = "no image"
		}
		_ = f.SetCellValue(sheet, cell, "Chart error: "+msg)
		return
	}
	err := f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ".png",
		File:      ch.PNG,
		Format:    &excelize.GraphicOptions{AltText: ch.Name, ScaleX: chartScale, ScaleY: chartScale},
	})
	if err != nil {
		r.log.Warn("insert chart", zap.String("sheet", sheet), zap.Error(err))
		_ = f.SetCellValue(sheet, cell, "Chart error: "+err.Error())
	}
}

// clearRange empties values and styles of the rectangle.
func clearRange(f *excelize.File, sheet string, col1, row1, col2, row2 int) error {
	for row := row1; row <= row2; row++ {
		for col := col1; col <= col2; col++ {
			if err := f.SetCellValue(sheet, cellName(col, row), nil); err != nil {
				return err
			}
		}
	}
	return f.SetCellStyle(sheet, cellName(col1, row1), cellName(col2, row2), 0)
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(err)
	}
	return name
}

type styles struct {
	title, newsTitle, banner, header, summaryHeader, bold int
	labelEven, labelOdd, valueEven, valueOdd          int
	link, up, down                                    int
}

func newStyles(f *excelize.File) (*styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "BFBFBF", Style: 1},
		{Type: "right", Color: "BFBFBF", Style: 1},
		{Type: "top", Color: "BFBFBF", Style: 1},
		{Type: "bottom", Color: "BFBFBF", Style: 1},
	}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}
	st := &styles{}
	defs := []struct {
		dst *int
		s   *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 18}}},
		{&st.newsTitle, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&st.banner, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"}, Fill: fill("4472C4")}},
		{&st.header, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "FFFFFF"}, Fill: fill("1F4E78"), Border: border}},
		{&st.summaryHeader, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "FFFFFF"}, Fill: fill("31508C"), Border: border}},
		{&st.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&st.labelEven, &excelize.Style{Fill: fill("F2F2F2"), Border: border}},
		{&st.labelOdd, &excelize.Style{Fill: fill("FFFFFF"), Border: border}},
		{&st.valueEven, &excelize.Style{Fill: fill("F2F2F2"), Border: border, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&st.valueOdd, &excelize.Style{Fill: fill("FFFFFF"), Border: border, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&st.link, &excelize.Style{Font: &excelize.Font{Color: "0563C1", Underline: "single"}}},
		{&st.up, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "27AE60"}, Border: border, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&st.down, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "E74C3C"}, Border: border, Alignment: &excelize.Alignment{Horizontal: "right"}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.s)
		if err != nil {
			return nil, fmt.Errorf("workbook style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}
