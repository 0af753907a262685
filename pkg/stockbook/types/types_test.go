package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		label string
		want  Period
	}{
		{"1 Week", Period5d},
		{"1 Month", Period1mo},
		{"3 Months", Period3mo},
		{"6 Months", Period6mo},
		{"1 Year", Period1y},
		{"2 Years", Period2y},
		{"5 Years", Period5y},
		{"Max", PeriodMax},
		{"  6 Months ", Period6mo},
		{"", Period1y},
		{"10 Years", Period1y},
		{"max", Period1y},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePeriod(tt.label))
		})
	}
}

func TestPeriodLabelRoundTrip(t *testing.T) {
	for _, label := range PeriodLabels() {
		assert.Equal(t, label, PeriodLabel(ParsePeriod(label)))
	}
	assert.Equal(t, "ytd", PeriodLabel(Period("ytd")))
}

func TestStatementTableLatest(t *testing.T) {
	now := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	tbl := &StatementTable{
		Periods: []time.Time{now, now.AddDate(-1, 0, 0)},
		Rows: map[string][]*float64{
			"Total Revenue": {Float(100), Float(90)},
			"Net Income":    {nil, Float(9)},
			"EBITDA":        {},
			"Odd":           {Float(math.NaN())},
		},
	}

	v := tbl.Latest("Total Revenue")
	require.NotNil(t, v)
	assert.Equal(t, 100.0, *v)
	assert.Nil(t, tbl.Latest("Net Income"))
	assert.Nil(t, tbl.Latest("EBITDA"))
	assert.Nil(t, tbl.Latest("Odd"))
	assert.Nil(t, tbl.Latest("Missing"))

	var nilTable *StatementTable
	assert.Nil(t, nilTable.Latest("Total Revenue"))
	assert.Nil(t, (&StatementTable{Rows: tbl.Rows}).Latest("Total Revenue"))
}

func TestMetricsOrderAndLookup(t *testing.T) {
	m := NewMetrics([]MetricRow{
		{Section: "A", Label: "one", Value: "1"},
		{Section: "A", Label: "two", Value: "2"},
		{Section: "B", Label: "three", Value: "N/A"},
	})
	assert.Equal(t, []string{"one", "two", "three"}, m.Labels())
	assert.Equal(t, 3, m.Len())

	v, ok := m.Get("three")
	assert.True(t, ok)
	assert.Equal(t, "N/A", v)

	_, ok = m.Get("four")
	assert.False(t, ok)

	rows := m.Rows()
	rows[0].Value = "changed"
	v, _ = m.Get("one")
	assert.Equal(t, "1", v, "Rows must return a copy")
}

func TestQuoteDisplayName(t *testing.T) {
	assert.Equal(t, "Apple Inc.", Quote{LongName: "Apple Inc.", ShortName: "Apple"}.DisplayName("AAPL"))
	assert.Equal(t, "Apple", Quote{ShortName: "Apple"}.DisplayName("AAPL"))
	assert.Equal(t, "AAPL", Quote{}.DisplayName("AAPL"))
}
