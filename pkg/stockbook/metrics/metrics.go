// Package metrics derives the display-ready metrics table from a quote
// snapshot and statement figures.
package metrics

import (
	"errors"
	"fmt"

	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// ErrDerive wraps a failure recovered while deriving metrics.
var ErrDerive = errors.New("derive metrics")

// Compute builds the metrics table. It never panics: every label in
// Sections is present, and anything that cannot be derived is NA. A
// recovered failure is returned as an ErrDerive error alongside the table
// holding whatever was derived before it.
//
// Beta, 52-week high/low, P/E, forward P/E and P/S treat zero the same as a
// missing field.
func Compute(q types.Quote, f types.Figures) (*types.Metrics, error) {
	return guard(func(values map[string]string) { derive(q, f, values) })
}

func guard(fill func(values map[string]string)) (table *types.Metrics, err error) {
	values := make(map[string]string, 24)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrDerive, r)
		}
		table = assemble(values)
	}()
	fill(values)
	return table, nil
}

func derive(q types.Quote, f types.Figures, values map[string]string) {
	// Income statement
	values[LabelRevenue] = FormatMoney(f.Revenue)
	values[LabelNetIncome] = FormatMoney(f.NetIncome)
	values[LabelOperatingIncome] = FormatMoney(f.OperatingIncome)
	values[LabelEBITDA] = FormatMoney(f.EBITDA)

	// Profitability
	values[LabelProfitMargin] = margin(f.NetIncome, f.Revenue)
	values[LabelOperatingMargin] = margin(f.OperatingIncome, f.Revenue)
	values[LabelEBITDAMargin] = margin(f.EBITDA, f.Revenue)
	values[LabelROE] = FormatPercent(q.ReturnOnEquity)

	// Growth
	values[LabelRevenueGrowth] = FormatPercent(q.RevenueGrowth)
	values[LabelEarningsGrowth] = FormatPercent(q.EarningsGrowth)

	// Valuation
	if q.CurrentPrice != nil {
		values[LabelCurrentPrice] = FormatRaw(*q.CurrentPrice)
	}
	values[LabelMarketCap] = FormatMoney(q.MarketCap)
	if high, ok := nonZero(q.FiftyTwoWeekHigh); ok {
		values[Label52WeekHigh] = FormatDollars(high)
	}
	if low, ok := nonZero(q.FiftyTwoWeekLow); ok {
		values[Label52WeekLow] = FormatDollars(low)
	}
	price, okPrice := nonZero(q.CurrentPrice)
	high, okHigh := nonZero(q.FiftyTwoWeekHigh)
	if okPrice && okHigh {
		values[LabelDistanceFromHigh] = formatPct((price - high) / high * 100)
	}
	if pe, ok := nonZero(q.TrailingPE); ok {
		values[LabelPE] = FormatRatio(pe)
	}
	if fpe, ok := nonZero(q.ForwardPE); ok {
		values[LabelForwardPE] = FormatRatio(fpe)
	}
	if ps, ok := nonZero(q.PriceToSales); ok {
		values[LabelPriceToSales] = FormatRatio(ps)
	}

	// Dividends
	values[LabelDividendYield] = FormatPercent(q.DividendYield)
	values[LabelPayoutRatio] = FormatPercent(q.PayoutRatio)

	// Risk
	if beta, ok := nonZero(q.Beta); ok {
		values[LabelBeta] = FormatRatio(beta)
	}
}

func assemble(values map[string]string) *types.Metrics {
	rows := make([]types.MetricRow, 0, 24)
	for _, s := range Sections {
		for _, l := range s.Labels {
			v, ok := values[l]
			if !ok || v == "" {
				v = NA
			}
			rows = append(rows, types.MetricRow{Section: s.Name, Label: l, Value: v})
		}
	}
	return types.NewMetrics(rows)
}

func margin(part, revenue *float64) string {
	if revenue == nil || *revenue == 0 || part == nil {
		return NA
	}
	return formatPct(*part / *revenue * 100)
}

func nonZero(v *float64) (float64, bool) {
	if v == nil || *v == 0 || !finite(*v) {
		return 0, false
	}
	return *v, true
}
