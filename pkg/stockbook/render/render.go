// Package render writes single-stock reports and comparisons to a terminal
// table, JSON, a one-line summary or the workbook.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/stockbook/pkg/stockbook/metrics"
	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// Renderer renders reports to an output writer.
type Renderer interface {
	RenderSingle(w io.Writer, r *types.Report, opts Options) error
	RenderComparison(w io.Writer, c *types.Comparison, opts Options) error
}

type Options struct {
	// Sections limits output to these section names. Empty means all.
	Sections    []string
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
}

// Formats accepted by New.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatLine  = "line"
	FormatXLSX  = "xlsx"
)

// New returns the renderer for format. workbook is only used by xlsx.
func New(format, workbook string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatTable:
		return NewTableRenderer(0), nil
	case FormatJSON:
		return NewJSONRenderer(), nil
	case FormatLine:
		return NewLineRenderer(), nil
	case FormatXLSX, "workbook":
		return NewWorkbookRenderer(workbook), nil
	}
	return nil, fmt.Errorf("unknown format %q (want table, json, line or xlsx)", format)
}

// visibleRows returns the metric rows of the selected sections in display
// order.
func visibleRows(m *types.Metrics, sections []string) []types.MetricRow {
	rows := m.Rows()
	if len(sections) == 0 {
		return rows
	}
	keep := make(map[string]struct{}, len(sections))
	for _, s := range sections {
		keep[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}
	out := rows[:0]
	for _, r := range rows {
		if _, ok := keep[strings.ToUpper(r.Section)]; ok {
			out = append(out, r)
		}
	}
	return out
}

// comparisonLabels is the shared row order of a comparison: the first
// report's labels, restricted to the selected sections.
func comparisonLabels(c *types.Comparison, sections []string) []types.MetricRow {
	if len(c.Reports) == 0 {
		return nil
	}
	return visibleRows(c.Reports[0].Metrics, sections)
}

func valueFor(r *types.Report, label string) string {
	if v, ok := r.Metrics.Get(label); ok {
		return v
	}
	return metrics.NA
}
