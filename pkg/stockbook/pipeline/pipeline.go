// Package pipeline runs the single-stock and comparison flows:
// acquisition, statement extraction, metrics, chart, news and rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/komsit37/stockbook/pkg/stockbook/chart"
	"github.com/komsit37/stockbook/pkg/stockbook/filter"
	"github.com/komsit37/stockbook/pkg/stockbook/market"
	"github.com/komsit37/stockbook/pkg/stockbook/metrics"
	"github.com/komsit37/stockbook/pkg/stockbook/news"
	"github.com/komsit37/stockbook/pkg/stockbook/render"
	"github.com/komsit37/stockbook/pkg/stockbook/statement"
	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

const (
	MinCompareTickers = 2
	MaxCompareTickers = 3
)

var (
	ErrNoTicker       = errors.New("no ticker given")
	ErrTooFewTickers  = errors.New("at least 2 tickers required")
	ErrTooManyTickers = errors.New("at most 3 tickers allowed")
)

// Step names recorded on a report.
const (
	StepFetch      = "fetch"
	StepStatements = "statements"
	StepMetrics    = "metrics"
	StepChart      = "chart"
	StepNews       = "news"
	StepRender     = "render"
)

// FetchError is an acquisition failure for one ticker.
type FetchError struct {
	Ticker string
	Err    error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Ticker, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) status() string {
	if errors.Is(e.Err, market.ErrNotFound) {
		return fmt.Sprintf("Error: Could not fetch data for %s (ticker not found)", e.Ticker)
	}
	return fmt.Sprintf("Error: Could not fetch data for %s", e.Ticker)
}

// Status receives progress messages; each message replaces the previous one.
type Status func(msg string)

// NewsSource returns headlines for a ticker; it never fails.
type NewsSource interface {
	Fetch(ctx context.Context, ticker string) []types.NewsItem
}

type Runner struct {
	Fetcher  market.Fetcher
	News     NewsSource
	Renderer render.Renderer
	Writer   io.Writer
	Status   Status
	Log      *zap.Logger

	// Concurrency bounds parallel fetches in Compare; below 2 is sequential.
	Concurrency int
	// ChartDir, when set, receives a PNG copy of every rendered chart.
	ChartDir string
	// Now stamps reports; defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

type ExecuteOptions struct {
	// Sections limits output to these section names (see ResolveSections);
	// empty keeps all.
	Sections    []string
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
}

func (o ExecuteOptions) renderOptions() render.Options {
	return render.Options{Sections: o.Sections, Color: o.Color, PrettyJSON: o.PrettyJSON, MaxColWidth: o.MaxColWidth}
}

// ResolveSections turns a --sections expression into section names.
// Comma-separated names must each name a section; a glob ("PROF*") or
// /regex/ must match at least one. Either failure is an
// *metrics.UnknownSectionError.
func ResolveSections(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	if !isPattern(expr) {
		secs, err := metrics.ExpandSections(strings.Split(expr, ","))
		if err != nil {
			return nil, err
		}
		names := make([]string, len(secs))
		for i, s := range secs {
			names[i] = s.Name
		}
		return names, nil
	}
	f, err := filter.Parse(expr)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, name := range metrics.SectionNames() {
		if f.Match(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, &metrics.UnknownSectionError{Name: expr, Available: metrics.SectionNames()}
	}
	return names, nil
}

func isPattern(expr string) bool {
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		return true
	}
	return strings.ContainsAny(expr, "*?[")
}

func (r *Runner) status(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log().Debug("status", zap.String("msg", msg))
	if r.Status != nil {
		r.Status(msg)
	}
}

func (r *Runner) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Analyze runs the single-stock flow and renders the report. An acquisition
// failure stops the run before anything is rendered.
func (r *Runner) Analyze(ctx context.Context, ticker, periodLabel string, opts ExecuteOptions) (*types.Report, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		r.status("Please enter a ticker symbol")
		return nil, ErrNoTicker
	}
	period := types.ParsePeriod(periodLabel)

	r.status(fmt.Sprintf("Loading data for %s...", ticker))
	snap, err := r.Fetcher.Fetch(ctx, ticker, period)
	if err != nil {
		fe := &FetchError{Ticker: ticker, Err: err}
		r.status(fe.status())
		return nil, fe
	}

	rep := r.build(snap)
	r.attachChart(rep, snap.Quote)
	r.attachNews(ctx, rep)

	if err := r.Renderer.RenderSingle(r.Writer, rep, opts.renderOptions()); err != nil {
		rep.Steps = append(rep.Steps, types.Step{Name: StepRender, State: types.StepFailed, Detail: err.Error()})
		r.status(fmt.Sprintf("Error: %v", err))
		return rep, fmt.Errorf("render %s: %w", ticker, err)
	}
	rep.Steps = append(rep.Steps, types.Step{Name: StepRender, State: types.StepOK})
	r.status(fmt.Sprintf("Analysis complete for %s!", ticker))
	return rep, nil
}

// Compare fetches 2-3 tickers and renders them side by side. Any
// acquisition failure aborts the whole comparison.
func (r *Runner) Compare(ctx context.Context, tickers []string, periodLabel string, opts ExecuteOptions) (*types.Comparison, error) {
	tickers = NormalizeTickers(tickers)
	switch {
	case len(tickers) < MinCompareTickers:
		r.status("Please enter at least 2 tickers")
		return nil, ErrTooFewTickers
	case len(tickers) > MaxCompareTickers:
		r.status("Please enter at most 3 tickers")
		return nil, ErrTooManyTickers
	}
	period := types.ParsePeriod(periodLabel)
	n := len(tickers)

	reports := make([]*types.Report, n)
	g, gctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, t := range tickers {
		g.Go(func() error {
			r.status(fmt.Sprintf("Loading %s (%d/%d)...", t, i+1, n))
			snap, err := r.Fetcher.Fetch(gctx, t, period)
			if err != nil {
				return &FetchError{Ticker: t, Err: err}
			}
			reports[i] = r.build(snap)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			r.status(fe.status())
		} else {
			r.status(fmt.Sprintf("Error: %v", err))
		}
		return nil, err
	}

	r.status("Building comparison table...")
	cmp := &types.Comparison{
		Tickers:     tickers,
		Period:      period,
		PeriodLabel: types.PeriodLabel(period),
		Reports:     reports,
		GeneratedAt: r.now().Format("2006-01-02 15:04:05"),
	}

	r.status("Creating chart...")
	lines := make([]chart.Line, n)
	for i, rep := range reports {
		lines[i] = chart.Line{Ticker: rep.Ticker, History: rep.History}
	}
	c, err := chart.Comparison(lines)
	if err != nil {
		r.log().Warn("comparison chart failed", zap.Error(err))
		c = &types.Chart{Name: chart.ComparisonChartName, Err: err.Error()}
	} else {
		r.saveChart("comparison", c)
	}
	cmp.Chart = c

	if err := r.Renderer.RenderComparison(r.Writer, cmp, opts.renderOptions()); err != nil {
		r.status(fmt.Sprintf("Error: %v", err))
		return cmp, fmt.Errorf("render comparison: %w", err)
	}
	r.status("Comparison complete!")
	return cmp, nil
}

// build runs extraction and metrics for one snapshot.
func (r *Runner) build(snap *types.Snapshot) *types.Report {
	rep := &types.Report{
		Ticker:      snap.Ticker,
		Period:      snap.Period,
		PeriodLabel: types.PeriodLabel(snap.Period),
		Quote:       snap.Quote,
		History:     snap.History,
		Performance: chart.Summarize(snap.Ticker, snap.History),
		GeneratedAt: r.now().Format("2006-01-02 15:04:05"),
	}
	rep.Steps = append(rep.Steps, types.Step{Name: StepFetch, State: types.StepOK, Detail: fmt.Sprintf("%d bars", len(snap.History))})

	rep.Figures = statement.Extract(snap.Financials, snap.CashFlow)
	if missing := statement.Missing(rep.Figures); len(missing) > 0 {
		rep.Steps = append(rep.Steps, types.Step{Name: StepStatements, State: types.StepDegraded, Detail: "missing " + strings.Join(missing, ", ")})
	} else {
		rep.Steps = append(rep.Steps, types.Step{Name: StepStatements, State: types.StepOK})
	}

	m, err := metrics.Compute(snap.Quote, rep.Figures)
	rep.Metrics = m
	if err != nil {
		r.log().Warn("metrics degraded", zap.String("ticker", snap.Ticker), zap.Error(err))
		rep.Steps = append(rep.Steps, types.Step{Name: StepMetrics, State: types.StepDegraded, Detail: err.Error()})
	} else {
		rep.Steps = append(rep.Steps, types.Step{Name: StepMetrics, State: types.StepOK})
	}
	return rep
}

func (r *Runner) attachChart(rep *types.Report, q types.Quote) {
	c, err := chart.PriceVolume(rep.Ticker, rep.PeriodLabel, rep.History, q)
	if err != nil {
		r.log().Warn("chart failed", zap.String("ticker", rep.Ticker), zap.Error(err))
		rep.Chart = &types.Chart{Name: chart.StockChartName, Err: err.Error()}
		rep.Steps = append(rep.Steps, types.Step{Name: StepChart, State: types.StepDegraded, Detail: err.Error()})
		return
	}
	rep.Chart = c
	r.saveChart(rep.Ticker, c)
	rep.Steps = append(rep.Steps, types.Step{Name: StepChart, State: types.StepOK})
}

func (r *Runner) attachNews(ctx context.Context, rep *types.Report) {
	if r.News == nil {
		return
	}
	rep.News = r.News.Fetch(ctx, rep.Ticker)
	if len(rep.News) == 1 && rep.News[0] == news.Placeholder(rep.Ticker) {
		rep.Steps = append(rep.Steps, types.Step{Name: StepNews, State: types.StepDegraded, Detail: "no headlines found"})
		return
	}
	rep.Steps = append(rep.Steps, types.Step{Name: StepNews, State: types.StepOK, Detail: fmt.Sprintf("%d items", len(rep.News))})
}

// saveChart writes the PNG to ChartDir as <prefix>_<name>.png.
func (r *Runner) saveChart(prefix string, c *types.Chart) {
	if r.ChartDir == "" || c == nil || len(c.PNG) == 0 {
		return
	}
	if err := os.MkdirAll(r.ChartDir, 0o755); err != nil {
		r.log().Warn("chart dir", zap.String("dir", r.ChartDir), zap.Error(err))
		return
	}
	path := filepath.Join(r.ChartDir, fmt.Sprintf("%s_%s.png", prefix, c.Name))
	if err := os.WriteFile(path, c.PNG, 0o644); err != nil {
		r.log().Warn("write chart", zap.String("path", path), zap.Error(err))
		return
	}
	r.log().Info("chart saved", zap.String("path", path))
}

func normalizeTicker(t string) string { return strings.ToUpper(strings.TrimSpace(t)) }

// NormalizeTickers upper-cases and trims tickers, dropping blanks.
func NormalizeTickers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = normalizeTicker(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
