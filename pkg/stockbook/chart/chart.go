// Package chart renders price and comparison charts as PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// Stable picture names; re-rendering under the same name replaces the image.
const (
	StockChartName      = "StockChart"
	ComparisonChartName = "ComparisonChart"
)

// ErrTooFewBars is returned when a history cannot form a line.
var ErrTooFewBars = errors.New("need at least 2 price bars")

var (
	colorPrice = drawing.ColorFromHex("2E86DE")
	colorMA50  = drawing.ColorFromHex("F39C12")
	colorMA200 = drawing.ColorFromHex("E74C3C")
	colorHigh  = drawing.ColorFromHex("27AE60")
	colorLow   = drawing.ColorFromHex("C0392B")
	colorUp    = drawing.ColorFromHex("27AE60")
	colorDown  = drawing.ColorFromHex("E74C3C")
	colorBG    = drawing.ColorFromHex("F8F9FA")

	// Series colors for comparison lines, cycled by index.
	palette = []drawing.Color{
		drawing.ColorFromHex("2E86DE"),
		drawing.ColorFromHex("E67E22"),
		drawing.ColorFromHex("27AE60"),
		drawing.ColorFromHex("9B59B6"),
		drawing.ColorFromHex("E74C3C"),
	}
)

const (
	width  = 1000
	height = 800
)

// PriceVolume draws the close line with 50/200-day moving averages when the
// history is long enough, the 52-week high/low reference lines, a last-price
// marker and volume on the secondary axis.
func PriceVolume(ticker, periodLabel string, hist types.History, q types.Quote) (*types.Chart, error) {
	if len(hist) < 2 {
		return nil, ErrTooFewBars
	}
	dates, closes := hist.Dates(), hist.Closes()
	perf := Summarize(ticker, hist)

	price := gochart.TimeSeries{
		Name:    ticker,
		Style:   gochart.Style{StrokeColor: colorPrice, StrokeWidth: 2.5},
		XValues: dates,
		YValues: closes,
	}
	series := []gochart.Series{price}

	if len(hist) >= 50 {
		series = append(series, gochart.SMASeries{
			Name:        "50-day MA",
			Style:       gochart.Style{StrokeColor: colorMA50, StrokeWidth: 1.5, StrokeDashArray: []float64{5, 3}},
			Period:      50,
			InnerSeries: price,
		})
	}
	if len(hist) >= 200 {
		series = append(series, gochart.SMASeries{
			Name:        "200-day MA",
			Style:       gochart.Style{StrokeColor: colorMA200, StrokeWidth: 1.5, StrokeDashArray: []float64{5, 3}},
			Period:      200,
			InnerSeries: price,
		})
	}
	if high := q.FiftyTwoWeekHigh; high != nil && *high != 0 && finite(*high) {
		series = append(series, flatLine("52W High", dates, *high, colorHigh))
	}
	if low := q.FiftyTwoWeekLow; low != nil && *low != 0 && finite(*low) {
		series = append(series, flatLine("52W Low", dates, *low, colorLow))
	}

	last := hist[len(hist)-1]
	series = append(series, gochart.AnnotationSeries{
		Name:        "Last Price",
		Annotations: []gochart.Value2{{
			XValue: gochart.TimeToFloat64(last.Date),
			YValue: last.Close,
			Label:  fmt.Sprintf("$%.2f", last.Close),
			Style:  gochart.Style{StrokeColor: colorPrice, FontColor: colorPrice},
		}},
	})

	if hasVolume(hist) {
		vols := make([]float64, len(hist))
		for i, b := range hist {
			vols[i] = float64(b.Volume)
		}
		series = append(series, gochart.TimeSeries{
			Name:    "Volume",
			Style:   gochart.Style{StrokeColor: colorPrice.WithAlpha(90), FillColor: colorPrice.WithAlpha(40)},
			YAxis:   gochart.YAxisSecondary,
			XValues: dates,
			YValues: vols,
		})
	}

	titleColor := colorUp
	sign := "+"
	if perf.Change < 0 {
		titleColor, sign = colorDown, ""
	}
	graph := gochart.Chart{
		Title:      fmt.Sprintf("%s Stock Price - %s  %s$%.2f (%s%.2f%%)", ticker, periodLabel, sign, perf.Change, sign, perf.ChangePct),
		TitleStyle: gochart.Style{FontColor: titleColor, FontSize: 14},
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		Canvas:     gochart.Style{FillColor: colorBG},
		XAxis:      gochart.XAxis{Name: "Date", ValueFormatter: gochart.TimeValueFormatterWithFormat("01/06")},
		YAxis:      gochart.YAxis{Name: "Price ($)"},
		YAxisSecondary: gochart.YAxis{
			Name:           "Volume",
			ValueFormatter: volumeFormatter,
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	return render(StockChartName, graph)
}

// Line is one ticker's history for the comparison chart.
type Line struct {
	Ticker  string
	History types.History
}

// Comparison plots each ticker's percent change from the start of its
// window, with a zero reference line.
func Comparison(lines []Line) (*types.Chart, error) {
	if len(lines) == 0 {
		return nil, ErrTooFewBars
	}
	series := make([]gochart.Series, 0, len(lines)+1)
	var first, last time.Time
	for i, l := range lines {
		if len(l.History) < 2 {
			return nil, fmt.Errorf("%s: %w", l.Ticker, ErrTooFewBars)
		}
		norm := Normalize(l.History.Closes())
		if norm == nil {
			return nil, fmt.Errorf("%s: zero start price", l.Ticker)
		}
		series = append(series, gochart.TimeSeries{
			Name:    l.Ticker,
			Style:   gochart.Style{StrokeColor: palette[i%len(palette)], StrokeWidth: 2.5},
			XValues: l.History.Dates(),
			YValues: norm,
		})
		if d := l.History[0].Date; first.IsZero() || d.Before(first) {
			first = d
		}
		if d := l.History[len(l.History)-1].Date; d.After(last) {
			last = d
		}
	}
	if last.After(first) {
		series = append(series, gochart.TimeSeries{
			Name:    "0%",
			Style:   gochart.Style{StrokeColor: drawing.ColorBlack.WithAlpha(100), StrokeWidth: 1},
			XValues: []time.Time{first, last},
			YValues: []float64{0, 0},
		})
	}

	graph := gochart.Chart{
		Title:      "Stock Comparison (% Change from Start)",
		TitleStyle: gochart.Style{FontSize: 14},
		Width:      1200,
		Height:     700,
		Background: gochart.Style{Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      gochart.XAxis{Name: "Date", ValueFormatter: gochart.TimeValueFormatterWithFormat("01/06")},
		YAxis: gochart.YAxis{
			Name:           "% Change",
			ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f%%", v) },
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	return render(ComparisonChartName, graph)
}

func render(name string, graph gochart.Chart) (*types.Chart, error) {
	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return &types.Chart{Name: name, PNG: buf.Bytes()}, nil
}
