// Package statement pulls the income statement and cash flow line items the
// metrics calculator needs out of provider statement tables.
package statement

import (
	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// Row labels as reported by the provider.
const (
	RowTotalRevenue        = "Total Revenue"
	RowNetIncome           = "Net Income"
	RowOperatingIncome     = "Operating Income"
	RowEBITDA              = "EBITDA"
	RowCashFromOps         = "Total Cash From Operating Activities"
	RowCapitalExpenditures = "Capital Expenditures"
)

// Extract reads the most recent column of each table. Every gap leaves only
// the affected figure nil.
func Extract(financials, cashflow *types.StatementTable) types.Figures {
	f := types.Figures{
		Revenue:         financials.Latest(RowTotalRevenue),
		NetIncome:       financials.Latest(RowNetIncome),
		OperatingIncome: financials.Latest(RowOperatingIncome),
		EBITDA:          financials.Latest(RowEBITDA),
		CashFromOps:     cashflow.Latest(RowCashFromOps),
		CapEx:           cashflow.Latest(RowCapitalExpenditures),
	}
	// CapEx is reported negative, so the sum is operating cash minus spend.
	if f.CashFromOps != nil && f.CapEx != nil {
		fcf := *f.CashFromOps + *f.CapEx
		f.FreeCashFlow = &fcf
	}
	return f
}

// Missing names the figures that could not be extracted.
func Missing(f types.Figures) []string {
	var out []string
	check := func(name string, v *float64) {
		if v == nil {
			out = append(out, name)
		}
	}
	check("Revenue", f.Revenue)
	check("Net Income", f.NetIncome)
	check("Operating Income", f.OperatingIncome)
	check("EBITDA", f.EBITDA)
	check("Cash From Operations", f.CashFromOps)
	check("Capital Expenditures", f.CapEx)
	check("Free Cash Flow", f.FreeCashFlow)
	return out
}
