package source

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/komsit37/stockbook/pkg/stockbook/render"
)

// Workbook input modes.
const (
	ModeSingle  = "single"
	ModeCompare = "compare"
)

// WorkbookSource reads the input cells a user fills in on the workbook:
// the ticker and period on the Single sheet, or up to three tickers and the
// period on the Compare sheet.
type WorkbookSource struct {
	Mode string
}

// Load expects spec to be the workbook path.
func (s WorkbookSource) Load(ctx context.Context, spec any) (*Selection, error) { //nolint:revive // ctx reserved
	path, ok := spec.(string)
	if !ok {
		return nil, fmt.Errorf("workbook source expects filepath string spec")
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet, tickerCells, periodCell := render.SheetSingle, []string{render.CellSingleTicker}, render.CellSinglePeriod
	if s.Mode == ModeCompare {
		sheet, tickerCells, periodCell = render.SheetCompare, render.CompareTickerCells, render.CellComparePeriod
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook %s: sheet %q not found", path, sheet)
	}

	sel := &Selection{}
	seen := map[string]struct{}{}
	for _, cell := range tickerCells {
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("read %s!%s: %w", sheet, cell, err)
		}
		sel.Tickers = appendTicker(sel.Tickers, seen, v)
	}
	if sel.Period, err = f.GetCellValue(sheet, periodCell); err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", sheet, periodCell, err)
	}
	if len(sel.Tickers) == 0 {
		return nil, fmt.Errorf("%s!%s: %w", sheet, tickerCells[0], ErrNoTickers)
	}
	return sel, nil
}
