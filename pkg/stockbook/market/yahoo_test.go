package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func newTestClient(t *testing.T, h http.HandlerFunc) *YahooClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewYahooClient(WithBaseURL(srv.URL), WithRateLimit(0))
}

func TestYahooClientHistory(t *testing.T) {
	body := fixture(t, "chart.json")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write(body)
	})

	hist, err := c.History(context.Background(), "AAPL", types.Period1y)
	require.NoError(t, err)
	require.Len(t, hist, 3, "bar without close is dropped")
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), hist[0].Date)
	assert.Equal(t, 185.64, hist[0].Close)
	assert.Equal(t, int64(82488700), hist[0].Volume)
	assert.Equal(t, 181.91, hist[2].Close)
	assert.True(t, hist[1].Date.Before(hist[2].Date))
}

func TestYahooClientHistoryProviderError(t *testing.T) {
	body := fixture(t, "chart_error.json")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})
	_, err := c.History(context.Background(), "ZZZZ", types.Period1y)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestYahooClientHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	_, err := c.History(context.Background(), "AAPL", types.Period1y)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.True(t, IsNotFound(err))
}

func TestYahooClientSummaryUnwrapsResult(t *testing.T) {
	body := fixture(t, "summary.json")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/AAPL", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("modules"), "financialData")
		_, _ = w.Write(body)
	})
	raw, err := c.Summary(context.Background(), "AAPL")
	require.NoError(t, err)

	q, fin, cf, err := ParseSummary(raw)
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", q.LongName)
	assert.NotNil(t, fin)
	assert.NotNil(t, cf)
}

func TestYahooClientNews(t *testing.T) {
	body := fixture(t, "search.json")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("newsCount"))
		_, _ = w.Write(body)
	})
	stories, err := c.News(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, stories, 3)
	assert.Equal(t, "Reuters", stories[0].Publisher)
	assert.Equal(t, int64(1704153600), stories[0].ProviderPublishTime)
}

func TestYahooClientHonorsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.News(ctx, "AAPL", 10)
	assert.Error(t, err)
}

func TestYahooClientTimeoutOptions(t *testing.T) {
	assert.NotPanics(t, func() {
		c := NewYahooClient(WithHTTPClient(nil), WithTimeout(3*time.Second))
		require.NotNil(t, c.httpClient)
		assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
	})

	own := &http.Client{Timeout: time.Minute}
	c := NewYahooClient(WithHTTPClient(own), WithTimeout(2*time.Second))
	assert.Equal(t, time.Minute, own.Timeout, "caller's client is not modified")
	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
	assert.NotSame(t, own, c.httpClient)
}
