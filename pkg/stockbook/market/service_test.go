package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

type stubHistory struct {
	hist types.History
	err  error
}

func (s stubHistory) History(context.Context, string, types.Period) (types.History, error) {
	return s.hist, s.err
}

type stubSummary struct {
	raw json.RawMessage
	err error
}

func (s stubSummary) Summary(context.Context, string) (json.RawMessage, error) {
	return s.raw, s.err
}

func bars(closes ...float64) types.History {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := make(types.History, len(closes))
	for i, c := range closes {
		h[i] = types.Bar{Date: start.AddDate(0, 0, i), Close: c}
	}
	return h
}

func TestServiceFetchComposesSnapshot(t *testing.T) {
	svc := NewService(stubHistory{hist: bars(1, 2, 3)}, stubSummary{raw: fixture(t, "summary.json")}, nil)

	snap, err := svc.Fetch(context.Background(), " aapl ", types.Period6mo)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", snap.Ticker)
	assert.Equal(t, types.Period6mo, snap.Period)
	assert.Len(t, snap.History, 3)
	assert.Equal(t, "Apple Inc.", snap.Quote.LongName)
	assert.NotNil(t, snap.Financials)
	assert.NotNil(t, snap.CashFlow)
}

func TestServiceFetchEmptyHistoryIsNoData(t *testing.T) {
	svc := NewService(stubHistory{}, stubSummary{raw: fixture(t, "summary.json")}, nil)
	_, err := svc.Fetch(context.Background(), "ZZZZ", types.Period1y)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestServiceFetchHistoryError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(stubHistory{err: boom}, nil, nil)
	_, err := svc.Fetch(context.Background(), "AAPL", types.Period1y)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestServiceFetchUnknownTicker(t *testing.T) {
	yc := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, http.StatusNotFound)
	})
	svc := NewService(yc, nil, nil)
	_, err := svc.Fetch(context.Background(), "zzzz", types.Period1y)
	require.ErrorIs(t, err, ErrNotFound)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "ZZZZ")
}

func TestServiceFetchSummaryFailureDegrades(t *testing.T) {
	svc := NewService(stubHistory{hist: bars(1, 2)}, stubSummary{err: errors.New("401")}, nil)
	snap, err := svc.Fetch(context.Background(), "AAPL", "")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPeriod, snap.Period)
	assert.Equal(t, types.Quote{}, snap.Quote)
	assert.Nil(t, snap.Financials)
}

func TestServiceFetchEmptyTicker(t *testing.T) {
	svc := NewService(stubHistory{hist: bars(1)}, nil, nil)
	_, err := svc.Fetch(context.Background(), "  ", types.Period1y)
	assert.ErrorIs(t, err, ErrNoData)
}

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (f *countingFetcher) Fetch(_ context.Context, ticker string, period types.Period) (*types.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[ticker+"|"+string(period)]++
	if f.err != nil {
		return nil, f.err
	}
	return &types.Snapshot{Ticker: ticker, Period: period}, nil
}

func TestCacheServiceHitsAndExpiry(t *testing.T) {
	next := &countingFetcher{}
	c := NewCacheService(next, time.Minute, 8)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := c.Fetch(ctx, "AAPL", types.Period1y)
	require.NoError(t, err)
	_, err = c.Fetch(ctx, "AAPL", types.Period1y)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls["AAPL|1y"])

	_, _ = c.Fetch(ctx, "AAPL", types.Period5y)
	assert.Equal(t, 1, next.calls["AAPL|5y"], "period is part of the key")

	now = now.Add(2 * time.Minute)
	_, _ = c.Fetch(ctx, "AAPL", types.Period1y)
	assert.Equal(t, 2, next.calls["AAPL|1y"])
}

func TestCacheServiceEvictsLeastRecentlyUsed(t *testing.T) {
	next := &countingFetcher{}
	c := NewCacheService(next, time.Hour, 2)
	ctx := context.Background()

	_, _ = c.Fetch(ctx, "A", types.Period1y)
	_, _ = c.Fetch(ctx, "B", types.Period1y)
	_, _ = c.Fetch(ctx, "A", types.Period1y) // touch A
	_, _ = c.Fetch(ctx, "C", types.Period1y) // evicts B
	assert.Equal(t, 2, c.Len())

	_, _ = c.Fetch(ctx, "A", types.Period1y)
	assert.Equal(t, 1, next.calls["A|1y"])
	_, _ = c.Fetch(ctx, "B", types.Period1y)
	assert.Equal(t, 2, next.calls["B|1y"])
}

func TestCacheServiceDoesNotCacheErrors(t *testing.T) {
	next := &countingFetcher{err: ErrNoData}
	c := NewCacheService(next, time.Hour, 4)
	for i := 0; i < 2; i++ {
		_, err := c.Fetch(context.Background(), "X", types.Period1y)
		assert.ErrorIs(t, err, ErrNoData)
	}
	assert.Equal(t, 2, next.calls["X|1y"])
	assert.Equal(t, 0, c.Len())
}
