package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

func table(rows map[string][]*float64) *types.StatementTable {
	latest := time.Date(2024, 9, 28, 0, 0, 0, 0, time.UTC)
	return &types.StatementTable{
		Periods: []time.Time{latest, latest.AddDate(-1, 0, 0)},
		Rows:    rows,
	}
}

func TestExtractUsesMostRecentColumn(t *testing.T) {
	fin := table(map[string][]*float64{
		RowTotalRevenue:    {types.Float(391e9), types.Float(383e9)},
		RowNetIncome:       {types.Float(93.7e9), types.Float(97e9)},
		RowOperatingIncome: {types.Float(123e9), types.Float(114e9)},
		RowEBITDA:          {types.Float(134e9), types.Float(125e9)},
	})
	cf := table(map[string][]*float64{
		RowCashFromOps:         {types.Float(5_000_000_000), types.Float(1)},
		RowCapitalExpenditures: {types.Float(-1_200_000_000), types.Float(1)},
	})

	f := Extract(fin, cf)
	require.NotNil(t, f.Revenue)
	assert.Equal(t, 391e9, *f.Revenue)
	assert.Equal(t, 93.7e9, *f.NetIncome)
	assert.Equal(t, 123e9, *f.OperatingIncome)
	assert.Equal(t, 134e9, *f.EBITDA)
	require.NotNil(t, f.FreeCashFlow)
	assert.Equal(t, 3_800_000_000.0, *f.FreeCashFlow)
	assert.Empty(t, Missing(f))
}

func TestExtractFreeCashFlowNeedsBothOperands(t *testing.T) {
	tests := []struct {
		name string
		rows map[string][]*float64
	}{
		{"no capex", map[string][]*float64{RowCashFromOps: {types.Float(5e9)}}},
		{"no cash from ops", map[string][]*float64{RowCapitalExpenditures: {types.Float(-1e9)}}},
		{"nil capex cell", map[string][]*float64{
			RowCashFromOps:         {types.Float(5e9)},
			RowCapitalExpenditures: {nil},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Extract(nil, table(tt.rows))
			assert.Nil(t, f.FreeCashFlow)
			assert.Contains(t, Missing(f), "Free Cash Flow")
		})
	}
}

func TestExtractToleratesMissingTables(t *testing.T) {
	f := Extract(nil, nil)
	assert.Equal(t, types.Figures{}, f)
	assert.Len(t, Missing(f), 7)

	empty := &types.StatementTable{}
	assert.Equal(t, types.Figures{}, Extract(empty, empty))
}

func TestExtractMissingRowOnlyAffectsThatField(t *testing.T) {
	fin := table(map[string][]*float64{
		RowTotalRevenue: {types.Float(100)},
		RowNetIncome:    {types.Float(10)},
	})
	f := Extract(fin, nil)
	require.NotNil(t, f.Revenue)
	require.NotNil(t, f.NetIncome)
	assert.Nil(t, f.OperatingIncome)
	assert.Nil(t, f.EBITDA)
	assert.Equal(t, []string{
		"Operating Income", "EBITDA", "Cash From Operations",
		"Capital Expenditures", "Free Cash Flow",
	}, Missing(f))
}
