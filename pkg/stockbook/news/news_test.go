package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/stockbook/pkg/stockbook/market"
	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

const googleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>"AAPL stock" - Google News</title>
<item>
  <title>Apple shares climb after earnings - Reuters</title>
  <link>https://news.google.com/articles/one</link>
  <pubDate>Tue, 02 Jan 2024 14:30:00 GMT</pubDate>
  <description>&lt;a href="https://news.google.com/articles/one"&gt;Apple shares climb&lt;/a&gt;&amp;nbsp;&amp;nbsp;&lt;font color="#6f6f6f"&gt;Reuters&lt;/font&gt;</description>
</item>
<item>
  <title>Apple - iPhone - sales update - The Verge</title>
  <link>https://news.google.com/articles/two</link>
</item>
<item>
  <title>No separator headline</title>
  <link>https://news.google.com/articles/three</link>
  <pubDate>Wed, 03 Jan 2024 09:00:00 GMT</pubDate>
  <description>&lt;a href="x"&gt;No separator headline&lt;/a&gt;&amp;nbsp;&lt;font color="#6f6f6f"&gt;MarketWatch&lt;/font&gt;</description>
</item>
<item>
  <title>Plain headline</title>
  <link>https://news.google.com/articles/four</link>
</item>
</channel></rss>`

type stubSearcher struct {
	stories []market.NewsStory
	err     error
}

func (s stubSearcher) News(context.Context, string, int) ([]market.NewsStory, error) {
	return s.stories, s.err
}

type stubSource struct {
	name  string
	items []types.NewsItem
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context, string) ([]types.NewsItem, error) {
	s.calls++
	return s.items, s.err
}

func TestRetrieverFallsThroughToPlaceholder(t *testing.T) {
	failing := &stubSource{name: "a", err: errors.New("down")}
	empty := &stubSource{name: "b"}
	r := NewRetriever(nil, failing, empty)

	items := r.Fetch(context.Background(), "NVDA")
	require.Len(t, items, 1)
	assert.Equal(t, Placeholder("NVDA"), items[0])
	assert.Equal(t, "Click to view NVDA news on Yahoo Finance", items[0].Title)
	assert.Equal(t, "Yahoo Finance", items[0].Publisher)
	assert.Equal(t, "https://finance.yahoo.com/quote/NVDA/news", items[0].Link)
	assert.Equal(t, "N/A", items[0].Published)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, empty.calls)
}

func TestRetrieverStopsAtFirstNonEmptySource(t *testing.T) {
	many := make([]types.NewsItem, 15)
	for i := range many {
		many[i] = types.NewsItem{Title: fmt.Sprintf("t%d", i)}
	}
	first := &stubSource{name: "a", items: many}
	second := &stubSource{name: "b", items: []types.NewsItem{{Title: "unused"}}}

	items := NewRetriever(nil, first, second).Fetch(context.Background(), "AAPL")
	assert.Len(t, items, MaxItems)
	assert.Equal(t, "t0", items[0].Title)
	assert.Equal(t, 0, second.calls)
}

func TestRetrieverWithoutSources(t *testing.T) {
	items := NewRetriever(nil).Fetch(context.Background(), "MSFT")
	assert.Equal(t, []types.NewsItem{Placeholder("MSFT")}, items)
}

func TestYahooSource(t *testing.T) {
	ts := int64(1704153600)
	src := NewYahooSource(stubSearcher{stories: []market.NewsStory{
		{Title: "Apple unveils chips", Publisher: "Reuters", Link: "https://example.com/a", ProviderPublishTime: ts},
		{},
		{Title: "No time", Link: "https://example.com/c"},
	}})
	src.loc = time.UTC

	items, err := src.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, items, 2, "entries with no title, publisher or link are skipped")
	assert.Equal(t, "2024-01-02 00:00", items[0].Published)
	assert.Equal(t, "Recent", items[1].Published)
	assert.Equal(t, "N/A", items[1].Publisher)
}

func TestYahooSourceError(t *testing.T) {
	_, err := NewYahooSource(stubSearcher{err: errors.New("429")}).Fetch(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestFromFeed(t *testing.T) {
	feed, err := gofeed.NewParser().ParseString(googleFeed)
	require.NoError(t, err)

	items := FromFeed(feed)
	require.Len(t, items, 4)

	assert.Equal(t, "Apple shares climb after earnings", items[0].Title)
	assert.Equal(t, "Reuters", items[0].Publisher)
	assert.Equal(t, "Tue, 02 Jan 2024", items[0].Published)
	assert.Equal(t, "https://news.google.com/articles/one", items[0].Link)

	assert.Equal(t, "Apple - iPhone - sales update", items[1].Title, "split on the last separator")
	assert.Equal(t, "The Verge", items[1].Publisher)
	assert.Equal(t, "Recent", items[1].Published)

	assert.Equal(t, "No separator headline", items[2].Title)
	assert.Equal(t, "MarketWatch", items[2].Publisher)

	assert.Equal(t, "Google News", items[3].Publisher)
	assert.Nil(t, FromFeed(nil))
}

func TestRSSSourceOverHTTP(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(googleFeed))
	}))
	defer srv.Close()

	src := NewRSSSource(srv.URL+"/rss/search?q=%s+stock", srv.Client(), "test-agent")
	items, err := src.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, "AAPL stock", gotQuery)
}

func TestRSSSourceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewRSSSource(srv.URL+"/rss?q=%s", nil, "")
	_, err := src.Fetch(context.Background(), "AAPL")
	require.Error(t, err)

	items := NewRetriever(nil, src).Fetch(context.Background(), "AAPL")
	require.Len(t, items, 1)
	assert.True(t, strings.HasPrefix(items[0].Title, "Click to view AAPL"))
}

func TestFromFeedTruncatesPublishedByRune(t *testing.T) {
	feed := &gofeed.Feed{Items: []*gofeed.Item{
		{Title: "決算発表 - 日経", Link: "https://example.com/a", Published: "2024年1月2日 火曜日 10:00:00 JST"},
	}}
	items := FromFeed(feed)
	require.Len(t, items, 1)
	assert.Equal(t, "日経", items[0].Publisher)
	assert.Equal(t, "2024年1月2日 火曜日 10", items[0].Published)
	assert.True(t, utf8.ValidString(items[0].Published))

	assert.Equal(t, "ab", truncate("ab", 16))
	assert.Equal(t, "éé", truncate("ééé", 2))
}
