package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	yfgo "github.com/komsit37/yf-go"

	"github.com/komsit37/stockbook/pkg/stockbook/statement"
	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// SummaryModules are the quoteSummary modules a snapshot needs.
var SummaryModules = []string{
	"price",
	"summaryDetail",
	"defaultKeyStatistics",
	"financialData",
	"assetProfile",
	"incomeStatementHistory",
	"cashflowStatementHistory",
}

// SummarySource returns the module-keyed quoteSummary JSON for a ticker.
type SummarySource interface {
	Summary(ctx context.Context, ticker string) (json.RawMessage, error)
}

// YFSummary implements SummarySource using yf-go.
type YFSummary struct {
	client  *yfgo.Client
	timeout time.Duration
}

func NewYFSummary(timeout time.Duration) *YFSummary {
	return &YFSummary{client: yfgo.NewClient(), timeout: timeout}
}

func (s *YFSummary) Summary(ctx context.Context, ticker string) (json.RawMessage, error) {
	mods := make([]yfgo.QuoteSummaryModule, 0, len(SummaryModules))
	for _, m := range SummaryModules {
		mods = append(mods, yfgo.QuoteSummaryModule(m))
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.client.QuoteSummary(cctx, ticker, mods)
	if err != nil {
		return nil, err
	}
	b, err := toJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("quoteSummary %s: %w", ticker, err)
	}
	return b, nil
}

// toJSON normalizes whatever the client returned into a JSON document.
func toJSON(v any) (json.RawMessage, error) {
	var b []byte
	switch t := v.(type) {
	case nil:
		return nil, ErrNoData
	case json.RawMessage:
		b = t
	case []byte:
		b = t
	case string:
		b = []byte(t)
	default:
		var err error
		if b, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, ErrNoData
	}
	return b, nil
}

// value is Yahoo's {raw, fmt} pair. Bare numbers are accepted too.
type value struct {
	Raw *float64
	Fmt string
}

func (v *value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] == 'n' {
		return nil
	}
	if b[0] != '{' {
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			// Strings such as "Infinity" are treated as absent.
			return nil
		}
		v.Raw = &f
		return nil
	}
	var pair struct {
		Raw json.RawMessage `json:"raw"`
		Fmt string          `json:"fmt"`
	}
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	v.Fmt = pair.Fmt
	var f float64
	if len(pair.Raw) > 0 && json.Unmarshal(pair.Raw, &f) == nil {
		v.Raw = &f
	}
	return nil
}

func (v value) ptr() *float64 {
	if v.Raw == nil || math.IsNaN(*v.Raw) || math.IsInf(*v.Raw, 0) {
		return nil
	}
	f := *v.Raw
	return &f
}

type summaryModules struct {
	Price *struct {
		LongName           string `json:"longName"`
		ShortName          string `json:"shortName"`
		Currency           string `json:"currency"`
		RegularMarketPrice value  `json:"regularMarketPrice"`
		MarketCap          value  `json:"marketCap"`
	} `json:"price"`
	SummaryDetail *struct {
		TrailingPE       value  `json:"trailingPE"`
		ForwardPE        value  `json:"forwardPE"`
		PriceToSales     value  `json:"priceToSalesTrailing12Months"`
		DividendYield    value  `json:"dividendYield"`
		PayoutRatio      value  `json:"payoutRatio"`
		Beta             value  `json:"beta"`
		FiftyTwoWeekHigh value  `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  value  `json:"fiftyTwoWeekLow"`
		MarketCap        value  `json:"marketCap"`
		Currency         string `json:"currency"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics *struct {
		ForwardPE value `json:"forwardPE"`
		Beta      value `json:"beta"`
	} `json:"defaultKeyStatistics"`
	FinancialData *struct {
		CurrentPrice   value `json:"currentPrice"`
		ReturnOnEquity value `json:"returnOnEquity"`
		RevenueGrowth  value `json:"revenueGrowth"`
		EarningsGrowth value `json:"earningsGrowth"`
		EBITDA         value `json:"ebitda"`
	} `json:"financialData"`
	AssetProfile *struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"assetProfile"`
	IncomeStatementHistory *struct {
		Statements []map[string]json.RawMessage `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	CashflowStatementHistory *struct {
		Statements []map[string]json.RawMessage `json:"cashflowStatements"`
	} `json:"cashflowStatementHistory"`
}

// Statement row label -> quoteSummary field.
var (
	incomeFields = map[string]string{
		statement.RowTotalRevenue:    "totalRevenue",
		statement.RowNetIncome:       "netIncome",
		statement.RowOperatingIncome: "operatingIncome",
		statement.RowEBITDA:          "ebitda",
	}
	cashflowFields = map[string]string{
		statement.RowCashFromOps:         "totalCashFromOperatingActivities",
		statement.RowCapitalExpenditures: "capitalExpenditures",
	}
)

// ParseSummary maps quoteSummary modules into a quote and the financials
// and cash flow statements. Both the bare module object and the full
// {"quoteSummary":{"result":[...]}} envelope are accepted. Missing modules
// leave their fields nil.
func ParseSummary(raw []byte) (types.Quote, *types.StatementTable, *types.StatementTable, error) {
	body, err := unwrapSummary(raw)
	if err != nil {
		return types.Quote{}, nil, nil, err
	}
	var m summaryModules
	if err := json.Unmarshal(body, &m); err != nil {
		return types.Quote{}, nil, nil, fmt.Errorf("decode quoteSummary: %w", err)
	}

	var q types.Quote
	if p := m.Price; p != nil {
		q.LongName = p.LongName
		q.ShortName = p.ShortName
		q.Currency = p.Currency
		q.CurrentPrice = p.RegularMarketPrice.ptr()
		q.MarketCap = p.MarketCap.ptr()
	}
	if sd := m.SummaryDetail; sd != nil {
		q.TrailingPE = sd.TrailingPE.ptr()
		q.ForwardPE = sd.ForwardPE.ptr()
		q.PriceToSales = sd.PriceToSales.ptr()
		q.DividendYield = sd.DividendYield.ptr()
		q.PayoutRatio = sd.PayoutRatio.ptr()
		q.Beta = sd.Beta.ptr()
		q.FiftyTwoWeekHigh = sd.FiftyTwoWeekHigh.ptr()
		q.FiftyTwoWeekLow = sd.FiftyTwoWeekLow.ptr()
		q.MarketCap = firstOf(sd.MarketCap.ptr(), q.MarketCap)
		if q.Currency == "" {
			q.Currency = sd.Currency
		}
	}
	if ks := m.DefaultKeyStatistics; ks != nil {
		q.ForwardPE = firstOf(q.ForwardPE, ks.ForwardPE.ptr())
		q.Beta = firstOf(q.Beta, ks.Beta.ptr())
	}
	if fd := m.FinancialData; fd != nil {
		q.CurrentPrice = firstOf(fd.CurrentPrice.ptr(), q.CurrentPrice)
		q.ReturnOnEquity = fd.ReturnOnEquity.ptr()
		q.RevenueGrowth = fd.RevenueGrowth.ptr()
		q.EarningsGrowth = fd.EarningsGrowth.ptr()
	}
	if ap := m.AssetProfile; ap != nil {
		q.Sector = ap.Sector
		q.Industry = ap.Industry
	}

	var fin, cf *types.StatementTable
	if h := m.IncomeStatementHistory; h != nil {
		fin = buildTable(h.Statements, incomeFields)
	}
	// The income statement history rarely carries EBITDA; use the trailing
	// figure from financialData for the latest column.
	if m.FinancialData != nil {
		if e := m.FinancialData.EBITDA.ptr(); e != nil {
			if fin == nil {
				fin = &types.StatementTable{Periods: []time.Time{{}}, Rows: map[string][]*float64{}}
			}
			row := fin.Rows[statement.RowEBITDA]
			if len(row) == 0 {
				row = make([]*float64, len(fin.Periods))
			}
			if row[0] == nil {
				row[0] = e
			}
			fin.Rows[statement.RowEBITDA] = row
		}
	}
	if h := m.CashflowStatementHistory; h != nil {
		cf = buildTable(h.Statements, cashflowFields)
	}
	return q, fin, cf, nil
}

func unwrapSummary(raw []byte) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrNoData
	}
	var env summaryResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode quoteSummary: %w", err)
	}
	if env.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quoteSummary: %s: %w", env.QuoteSummary.Error.Description, ErrNoData)
	}
	if len(env.QuoteSummary.Result) > 0 {
		return env.QuoteSummary.Result[0], nil
	}
	return raw, nil
}

// buildTable keeps the statement order Yahoo returns, most recent first.
func buildTable(statements []map[string]json.RawMessage, fields map[string]string) *types.StatementTable {
	if len(statements) == 0 {
		return nil
	}
	t := &types.StatementTable{
		Periods: make([]time.Time, len(statements)),
		Rows:    make(map[string][]*float64, len(fields)),
	}
	for label := range fields {
		t.Rows[label] = make([]*float64, len(statements))
	}
	for i, st := range statements {
		var end value
		if b, ok := st["endDate"]; ok && json.Unmarshal(b, &end) == nil && end.Raw != nil {
			t.Periods[i] = time.Unix(int64(*end.Raw), 0).UTC()
		}
		for label, field := range fields {
			b, ok := st[field]
			if !ok {
				continue
			}
			var v value
			if json.Unmarshal(b, &v) == nil {
				t.Rows[label][i] = v.ptr()
			}
		}
	}
	return t
}

func firstOf(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
