package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/komsit37/stockbook/pkg/stockbook/render"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestYAMLSourceTickers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tech.yaml")
	writeFile(t, path, "period: 6 Months\ntickers: [aapl, MSFT, \" \", AAPL]\n")

	sel, err := YAMLSource{}.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, sel.Tickers)
	assert.Equal(t, "6 Months", sel.Period)
}

func TestYAMLSourceWatchlist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wl.yml")
	writeFile(t, path, `watchlist:
  - sym: AAPL
    note: core
  - name: Cloud
    watchlist:
      - sym: MSFT
      - sym: GOOG
`)
	sel, err := YAMLSource{}.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, sel.Tickers)
	assert.Empty(t, sel.Period)
}

func TestYAMLSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), "tickers: [MSFT]\n")
	writeFile(t, filepath.Join(dir, "a.yaml"), "period: 1 Month\ntickers: [AAPL]\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	sel, err := YAMLSource{}.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, sel.Tickers)
	assert.Equal(t, "1 Month", sel.Period)
}

func TestYAMLSourceErrors(t *testing.T) {
	_, err := YAMLSource{}.Load(context.Background(), 42)
	assert.Error(t, err)

	_, err = YAMLSource{}.Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "columns: [a]\n")
	_, err = YAMLSource{}.Load(context.Background(), path)
	assert.Error(t, err)

	dir := t.TempDir()
	_, err = YAMLSource{}.Load(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNoTickers)
}

func TestWorkbookSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	f, err := render.OpenWorkbook(path)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(render.SheetSingle, render.CellSingleTicker, " nvda "))
	require.NoError(t, f.SetCellValue(render.SheetSingle, render.CellSinglePeriod, "2 Years"))
	require.NoError(t, f.SetCellValue(render.SheetCompare, "B2", "aapl"))
	require.NoError(t, f.SetCellValue(render.SheetCompare, "B4", "msft"))
	require.NoError(t, f.SetCellValue(render.SheetCompare, render.CellComparePeriod, "1 Year"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	sel, err := WorkbookSource{Mode: ModeSingle}.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, sel.Tickers)
	assert.Equal(t, "2 Years", sel.Period)

	sel, err = WorkbookSource{Mode: ModeCompare}.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, sel.Tickers)
	assert.Equal(t, "1 Year", sel.Period)
}

func TestWorkbookSourceErrors(t *testing.T) {
	_, err := WorkbookSource{}.Load(context.Background(), filepath.Join(t.TempDir(), "none.xlsx"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "plain.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	_, err = WorkbookSource{Mode: ModeCompare}.Load(context.Background(), path)
	assert.Error(t, err)

	path = filepath.Join(t.TempDir(), "empty.xlsx")
	f, err = render.OpenWorkbook(path)
	require.NoError(t, err)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	_, err = WorkbookSource{Mode: ModeSingle}.Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoTickers)
}
