package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/stockbook/pkg/stockbook/metrics"
	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// lineRenderer prints one compact line per ticker:
// ticker, price, market cap and change over the period.
type lineRenderer struct{}

func NewLineRenderer() Renderer {
	return lineRenderer{}
}

func (lineRenderer) RenderSingle(w io.Writer, r *types.Report, _ Options) error {
	_, err := fmt.Fprintln(w, line(r))
	return err
}

func (lineRenderer) RenderComparison(w io.Writer, c *types.Comparison, _ Options) error {
	lines := make([]string, 0, len(c.Reports))
	for _, r := range c.Reports {
		lines = append(lines, line(r))
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func line(r *types.Report) string {
	return strings.Join([]string{
		r.Ticker,
		valueFor(r, metrics.LabelCurrentPrice),
		valueFor(r, metrics.LabelMarketCap),
		metrics.FormatSignedPct(r.Performance.ChangePct),
	}, " ")
}
