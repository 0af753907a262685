package metrics

import "strings"

// Metric labels.
const (
	LabelRevenue         = "Revenue (TTM)"
	LabelNetIncome       = "Net Income (TTM)"
	LabelOperatingIncome = "Operating Income (TTM)"
	LabelEBITDA          = "EBITDA (TTM)"

	LabelProfitMargin    = "Profit Margin"
	LabelOperatingMargin = "Operating Margin"
	LabelEBITDAMargin    = "EBITDA Margin"
	LabelROE             = "Return on Equity (ROE)"

	LabelRevenueGrowth  = "Revenue Growth (YoY)"
	LabelEarningsGrowth = "Earnings Growth (YoY)"

	LabelCurrentPrice     = "Current Price"
	LabelMarketCap        = "Market Cap"
	Label52WeekHigh       = "52-Week High"
	Label52WeekLow        = "52-Week Low"
	LabelDistanceFromHigh = "Distance from 52W High"
	LabelPE               = "P/E Ratio"
	LabelForwardPE        = "Forward P/E"
	LabelPriceToSales     = "Price to Sales (P/S)"

	LabelDividendYield = "Dividend Yield"
	LabelPayoutRatio   = "Payout Ratio"

	LabelBeta = "Beta"
)

// Section names, in display order.
const (
	SectionIncomeStatement = "INCOME STATEMENT"
	SectionProfitability   = "PROFITABILITY & MARGINS"
	SectionGrowth          = "GROWTH"
	SectionValuation       = "VALUATION"
	SectionDividends       = "DIVIDENDS"
	SectionRisk            = "RISK"
)

// Section is a named group of metric labels.
type Section struct {
	Name   string
	Labels []string
}

// Sections is the fixed layout every metrics table follows.
var Sections = []Section{
	{SectionIncomeStatement, []string{LabelRevenue, LabelNetIncome, LabelOperatingIncome, LabelEBITDA}},
	{SectionProfitability, []string{LabelProfitMargin, LabelOperatingMargin, LabelEBITDAMargin, LabelROE}},
	{SectionGrowth, []string{LabelRevenueGrowth, LabelEarningsGrowth}},
	{SectionValuation, []string{
		LabelCurrentPrice, LabelMarketCap, Label52WeekHigh, Label52WeekLow,
		LabelDistanceFromHigh, LabelPE, LabelForwardPE, LabelPriceToSales,
	}},
	{SectionDividends, []string{LabelDividendYield, LabelPayoutRatio}},
	{SectionRisk, []string{LabelBeta}},
}

// Labels returns every label in display order.
func Labels() []string {
	out := make([]string, 0, 24)
	for _, s := range Sections {
		out = append(out, s.Labels...)
	}
	return out
}

// SectionNames returns the section names in display order.
func SectionNames() []string {
	out := make([]string, 0, len(Sections))
	for _, s := range Sections {
		out = append(out, s.Name)
	}
	return out
}

// ExpandSections resolves section names, matched case-insensitively, in the
// order given. Blanks and repeats are skipped.
func ExpandSections(names []string) ([]Section, error) {
	out := make([]Section, 0, len(names))
	seen := map[string]struct{}{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		sec, ok := lookupSection(name)
		if !ok {
			return nil, &UnknownSectionError{Name: name, Available: SectionNames()}
		}
		if _, ok := seen[sec.Name]; ok {
			continue
		}
		seen[sec.Name] = struct{}{}
		out = append(out, sec)
	}
	return out, nil
}

func lookupSection(name string) (Section, bool) {
	for _, s := range Sections {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Section{}, false
}

// UnknownSectionError reports an unknown section name.
type UnknownSectionError struct {
	Name      string
	Available []string
}

func (e *UnknownSectionError) Error() string {
	return "unknown section: " + e.Name + "; available: " + strings.Join(e.Available, ", ")
}
