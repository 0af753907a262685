package market

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/stockbook/pkg/stockbook/statement"
)

func TestParseSummaryQuote(t *testing.T) {
	q, _, _, err := ParseSummary(fixture(t, "summary.json"))
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc.", q.LongName)
	assert.Equal(t, "Apple", q.ShortName)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, "Technology", q.Sector)
	assert.Equal(t, "Consumer Electronics", q.Industry)

	require.NotNil(t, q.CurrentPrice)
	assert.Equal(t, 190.0, *q.CurrentPrice, "financialData wins over price")
	assert.Equal(t, 2_950_000_000_000.0, *q.MarketCap)
	assert.Equal(t, 29.4, *q.TrailingPE)
	assert.Equal(t, 28.1, *q.ForwardPE, "empty summaryDetail value falls back to key statistics")
	assert.Equal(t, 1.29, *q.Beta)
	assert.Equal(t, 199.62, *q.FiftyTwoWeekHigh)
	assert.Equal(t, 164.08, *q.FiftyTwoWeekLow)
	assert.Equal(t, 0.0051, *q.DividendYield)
	assert.Equal(t, 1.5608, *q.ReturnOnEquity)
	assert.Equal(t, 0.135, *q.EarningsGrowth)
}

func TestParseSummaryStatements(t *testing.T) {
	_, fin, cf, err := ParseSummary(fixture(t, "summary.json"))
	require.NoError(t, err)

	require.Len(t, fin.Periods, 2)
	assert.Equal(t, time.Unix(1696032000, 0).UTC(), fin.Periods[0])
	assert.Equal(t, 383_285_000_000.0, *fin.Latest(statement.RowTotalRevenue))
	assert.Equal(t, 96_995_000_000.0, *fin.Latest(statement.RowNetIncome))
	assert.Equal(t, 130_000_000_000.0, *fin.Latest(statement.RowEBITDA))

	figures := statement.Extract(fin, cf)
	require.NotNil(t, figures.FreeCashFlow)
	assert.Equal(t, 3_800_000_000.0, *figures.FreeCashFlow)
}

func TestParseSummaryBareModules(t *testing.T) {
	raw := []byte(`{"price":{"shortName":"Tiny","regularMarketPrice":12.5},"summaryDetail":{"beta":{"raw":0,"fmt":"0.00"}}}`)
	q, fin, cf, err := ParseSummary(raw)
	require.NoError(t, err)
	assert.Equal(t, "Tiny", q.ShortName)
	assert.Equal(t, 12.5, *q.CurrentPrice)
	require.NotNil(t, q.Beta)
	assert.Equal(t, 0.0, *q.Beta)
	assert.Nil(t, q.TrailingPE)
	assert.Nil(t, fin)
	assert.Nil(t, cf)
}

func TestParseSummaryErrors(t *testing.T) {
	_, _, _, err := ParseSummary(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, _, _, err = ParseSummary([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found"}}}`))
	assert.ErrorIs(t, err, ErrNoData)

	_, _, _, err = ParseSummary([]byte(`not json`))
	assert.Error(t, err)
}

func TestToJSON(t *testing.T) {
	_, err := toJSON(nil)
	assert.ErrorIs(t, err, ErrNoData)

	b, err := toJSON(json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	b, err = toJSON(map[string]any{"price": map[string]any{"shortName": "X"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":{"shortName":"X"}}`, string(b))

	var nilMap map[string]any
	_, err = toJSON(nilMap)
	assert.ErrorIs(t, err, ErrNoData)
}
