package types

import (
	"math"
	"strings"
	"time"
)

// Period is a Yahoo Finance range code.
type Period string

const (
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
	PeriodMax Period = "max"
)

// DefaultPeriod is used when a period label is not recognized.
const DefaultPeriod = Period1y

var periodLabels = []struct {
	label  string
	period Period
}{
	{"1 Week", Period5d},
	{"1 Month", Period1mo},
	{"3 Months", Period3mo},
	{"6 Months", Period6mo},
	{"1 Year", Period1y},
	{"2 Years", Period2y},
	{"5 Years", Period5y},
	{"Max", PeriodMax},
}

// ParsePeriod maps a user-facing label ("1 Year") to its range code.
// Unknown labels fall back to DefaultPeriod.
func ParsePeriod(label string) Period {
	label = strings.TrimSpace(label)
	for _, pl := range periodLabels {
		if pl.label == label {
			return pl.period
		}
	}
	return DefaultPeriod
}

// PeriodLabel returns the display label for p, or p itself when unknown.
func PeriodLabel(p Period) string {
	for _, pl := range periodLabels {
		if pl.period == p {
			return pl.label
		}
	}
	return string(p)
}

// PeriodLabels lists the accepted labels in display order.
func PeriodLabels() []string {
	out := make([]string, 0, len(periodLabels))
	for _, pl := range periodLabels {
		out = append(out, pl.label)
	}
	return out
}

// Bar is one daily price/volume observation.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// History is ordered by date, oldest first.
type History []Bar

// Closes returns the close series.
func (h History) Closes() []float64 {
	out := make([]float64, len(h))
	for i, b := range h {
		out[i] = b.Close
	}
	return out
}

// Dates returns the date series.
func (h History) Dates() []time.Time {
	out := make([]time.Time, len(h))
	for i, b := range h {
		out[i] = b.Date
	}
	return out
}

// Quote is a point-in-time snapshot of market and valuation fields.
// Any numeric field may be nil when the provider omits it.
type Quote struct {
	LongName  string `json:"longName,omitempty"`
	ShortName string `json:"shortName,omitempty"`
	Sector    string `json:"sector,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Currency  string `json:"currency,omitempty"`

	CurrentPrice     *float64 `json:"currentPrice,omitempty"`
	MarketCap        *float64 `json:"marketCap,omitempty"`
	FiftyTwoWeekHigh *float64 `json:"fiftyTwoWeekHigh,omitempty"`
	FiftyTwoWeekLow  *float64 `json:"fiftyTwoWeekLow,omitempty"`
	TrailingPE       *float64 `json:"trailingPE,omitempty"`
	ForwardPE        *float64 `json:"forwardPE,omitempty"`
	PriceToSales     *float64 `json:"priceToSalesTrailing12Months,omitempty"`
	DividendYield    *float64 `json:"dividendYield,omitempty"`
	PayoutRatio      *float64 `json:"payoutRatio,omitempty"`
	Beta             *float64 `json:"beta,omitempty"`
	ReturnOnEquity   *float64 `json:"returnOnEquity,omitempty"`
	RevenueGrowth    *float64 `json:"revenueGrowth,omitempty"`
	EarningsGrowth   *float64 `json:"earningsGrowth,omitempty"`
}

// DisplayName prefers the long name, then the short name, then fallback.
func (q Quote) DisplayName(fallback string) string {
	if q.LongName != "" {
		return q.LongName
	}
	if q.ShortName != "" {
		return q.ShortName
	}
	return fallback
}

// StatementTable is a financial statement: rows keyed by line item label,
// columns are reporting periods with the most recent first.
type StatementTable struct {
	Periods []time.Time           `json:"periods"`
	Rows    map[string][]*float64 `json:"rows"`
}

// Latest returns the most recent value for label, or nil on any gap.
func (t *StatementTable) Latest(label string) *float64 {
	if t == nil || len(t.Periods) == 0 || len(t.Rows) == 0 {
		return nil
	}
	row, ok := t.Rows[label]
	if !ok || len(row) == 0 || row[0] == nil {
		return nil
	}
	v := *row[0]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Figures are the statement line items used by the metrics calculator.
type Figures struct {
	Revenue         *float64 `json:"revenue,omitempty"`
	NetIncome       *float64 `json:"netIncome,omitempty"`
	OperatingIncome *float64 `json:"operatingIncome,omitempty"`
	EBITDA          *float64 `json:"ebitda,omitempty"`
	CashFromOps     *float64 `json:"cashFromOps,omitempty"`
	CapEx           *float64 `json:"capEx,omitempty"`
	FreeCashFlow    *float64 `json:"freeCashFlow,omitempty"`
}

// Snapshot is the result of acquiring one ticker.
type Snapshot struct {
	Ticker     string
	Period     Period
	History    History
	Quote      Quote
	Financials *StatementTable
	CashFlow   *StatementTable
}

// NewsItem is one headline.
type NewsItem struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Link      string `json:"link"`
	Published string `json:"published"`
}

// Chart is a rendered image keyed by a stable name so re-rendering
// replaces the previous picture.
type Chart struct {
	Name string `json:"name"`
	PNG  []byte `json:"-"`
	Err  string `json:"error,omitempty"`
}

// Performance summarizes price movement over a history window.
type Performance struct {
	Ticker    string  `json:"ticker"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"changePct"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
