package render

import (
	"encoding/json"
	"io"

	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// jsonReport is the output shape for a single report.
type jsonReport struct {
	Ticker      string            `json:"ticker"`
	Company     string            `json:"company"`
	Sector      string            `json:"sector"`
	Industry    string            `json:"industry"`
	Period      types.Period      `json:"period"`
	PeriodLabel string            `json:"periodLabel"`
	Metrics     []types.MetricRow `json:"metrics"`
	Figures     types.Figures     `json:"figures"`
	Performance types.Performance `json:"performance"`
	Chart       *types.Chart      `json:"chart,omitempty"`
	News        []types.NewsItem  `json:"news"`
	Steps       []types.Step      `json:"steps"`
	GeneratedAt string            `json:"generatedAt"`
}

type jsonRow struct {
	Section string   `json:"section"`
	Label   string   `json:"label"`
	Values  []string `json:"values"`
}

type jsonComparison struct {
	Tickers     []string            `json:"tickers"`
	Companies   []string            `json:"companies"`
	Period      types.Period        `json:"period"`
	PeriodLabel string              `json:"periodLabel"`
	Rows        []jsonRow           `json:"rows"`
	Performance []types.Performance `json:"performance"`
	Chart       *types.Chart        `json:"chart,omitempty"`
	GeneratedAt string              `json:"generatedAt"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) RenderSingle(w io.Writer, rep *types.Report, opts Options) error {
	out := jsonReport{
		Ticker:      rep.Ticker,
		Company:     rep.CompanyName(),
		Sector:      rep.Quote.Sector,
		Industry:    rep.Quote.Industry,
		Period:      rep.Period,
		PeriodLabel: rep.PeriodLabel,
		Metrics:     visibleRows(rep.Metrics, opts.Sections),
		Figures:     rep.Figures,
		Performance: rep.Performance,
		Chart:       rep.Chart,
		News:        rep.News,
		Steps:       rep.Steps,
		GeneratedAt: rep.GeneratedAt,
	}
	return encode(w, out, opts)
}

func (r *JSONRenderer) RenderComparison(w io.Writer, c *types.Comparison, opts Options) error {
	out := jsonComparison{
		Tickers:     c.Tickers,
		Period:      c.Period,
		PeriodLabel: c.PeriodLabel,
		Chart:       c.Chart,
		GeneratedAt: c.GeneratedAt,
	}
	for _, rep := range c.Reports {
		out.Companies = append(out.Companies, rep.CompanyName())
		out.Performance = append(out.Performance, rep.Performance)
	}
	for _, row := range comparisonLabels(c, opts.Sections) {
		jr := jsonRow{Section: row.Section, Label: row.Label, Values: make([]string, len(c.Reports))}
		for i, rep := range c.Reports {
			jr.Values[i] = valueFor(rep, row.Label)
		}
		out.Rows = append(out.Rows, jr)
	}
	return encode(w, out, opts)
}

func encode(w io.Writer, v any, opts Options) error {
	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
