package chart

import (
	"fmt"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// SMA is the trailing simple moving average. The first window-1 entries are
// NaN. A window larger than the input yields all NaN.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}

// Normalize returns each close as percent change from the first one.
// It returns nil when the first close is zero.
func Normalize(closes []float64) []float64 {
	if len(closes) == 0 || closes[0] == 0 {
		return nil
	}
	base := closes[0]
	out := make([]float64, len(closes))
	for i, c := range closes {
		out[i] = (c/base - 1) * 100
	}
	return out
}

// Summarize reports start, end and change over the history window.
func Summarize(ticker string, hist types.History) types.Performance {
	p := types.Performance{Ticker: ticker}
	if len(hist) == 0 {
		return p
	}
	p.Start = hist[0].Close
	p.End = hist[len(hist)-1].Close
	p.Change = p.End - p.Start
	if p.Start != 0 {
		p.ChangePct = p.Change / p.Start * 100
	}
	return p
}

func flatLine(name string, dates []time.Time, y float64, c drawing.Color) gochart.TimeSeries {
	first, last := dates[0], dates[len(dates)-1]
	return gochart.TimeSeries{
		Name:    name,
		Style:   gochart.Style{StrokeColor: c.WithAlpha(160), StrokeWidth: 1.5, StrokeDashArray: []float64{2, 3}},
		XValues: []time.Time{first, last},
		YValues: []float64{y, y},
	}
}

func hasVolume(hist types.History) bool {
	for _, b := range hist {
		if b.Volume > 0 {
			return true
		}
	}
	return false
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func volumeFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	switch {
	case f >= 1e9:
		return fmt.Sprintf("%.1fB", f/1e9)
	case f >= 1e6:
		return fmt.Sprintf("%.0fM", f/1e6)
	case f >= 1e3:
		return fmt.Sprintf("%.0fK", f/1e3)
	}
	return fmt.Sprintf("%.0f", f)
}
