// Package news retrieves recent headlines for a ticker from a chain of
// sources, ending with a placeholder that always succeeds.
package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/komsit37/stockbook/pkg/stockbook/market"
	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

// MaxItems caps the headlines returned for one ticker.
const MaxItems = 10

const (
	na            = "N/A"
	recent        = "Recent"
	googlePub     = "Google News"
	publishLayout = "2006-01-02 15:04"
)

// Source yields headlines for a ticker. An empty result means "try the next
// source".
type Source interface {
	Name() string
	Fetch(ctx context.Context, ticker string) ([]types.NewsItem, error)
}

// Retriever tries each source in order.
type Retriever struct {
	sources []Source
	log     *zap.Logger
}

func NewRetriever(log *zap.Logger, sources ...Source) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{sources: sources, log: log}
}

// Fetch never returns an empty list: when every source fails or is empty
// the Yahoo Finance placeholder is returned.
func (r *Retriever) Fetch(ctx context.Context, ticker string) []types.NewsItem {
	for _, s := range r.sources {
		items, err := s.Fetch(ctx, ticker)
		if err != nil {
			r.log.Warn("news source failed", zap.String("source", s.Name()), zap.String("ticker", ticker), zap.Error(err))
			continue
		}
		if len(items) == 0 {
			r.log.Debug("news source empty", zap.String("source", s.Name()), zap.String("ticker", ticker))
			continue
		}
		if len(items) > MaxItems {
			items = items[:MaxItems]
		}
		return items
	}
	return []types.NewsItem{Placeholder(ticker)}
}

// Placeholder links to the ticker's Yahoo Finance news page.
func Placeholder(ticker string) types.NewsItem {
	return types.NewsItem{
		Title:     fmt.Sprintf("Click to view %s news on Yahoo Finance", ticker),
		Publisher: "Yahoo Finance",
		Link:      fmt.Sprintf("https://finance.yahoo.com/quote/%s/news", ticker),
		Published: na,
	}
}

// Searcher is the Yahoo search endpoint.
type Searcher interface {
	News(ctx context.Context, ticker string, count int) ([]market.NewsStory, error)
}

// YahooSource reads the news list of the Yahoo Finance search endpoint.
type YahooSource struct {
	client Searcher
	loc    *time.Location
}

func NewYahooSource(client Searcher) *YahooSource {
	return &YahooSource{client: client, loc: time.Local}
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) Fetch(ctx context.Context, ticker string) ([]types.NewsItem, error) {
	stories, err := s.client.News(ctx, ticker, MaxItems)
	if err != nil {
		return nil, err
	}
	if len(stories) > MaxItems {
		stories = stories[:MaxItems]
	}
	items := make([]types.NewsItem, 0, len(stories))
	for _, st := range stories {
		it := types.NewsItem{
			Title:     orNA(st.Title),
			Publisher: orNA(st.Publisher),
			Link:      orNA(st.Link),
			Published: recent,
		}
		if it.Title == na && it.Publisher == na && it.Link == na {
			continue
		}
		if st.ProviderPublishTime > 0 {
			it.Published = time.Unix(st.ProviderPublishTime, 0).In(s.loc).Format(publishLayout)
		}
		items = append(items, it)
	}
	return items, nil
}

// DefaultRSSURL is the Google News search feed; %s is the query-escaped ticker.
const DefaultRSSURL = "https://news.google.com/rss/search?q=%s+stock&hl=en-US&gl=US&ceid=US:en"

// RSSSource reads a Google News style RSS search feed.
type RSSSource struct {
	urlFormat string
	parser    *gofeed.Parser
}

// NewRSSSource builds a source for urlFormat, which must contain one %s.
// An empty urlFormat uses DefaultRSSURL.
func NewRSSSource(urlFormat string, client *http.Client, userAgent string) *RSSSource {
	if urlFormat == "" {
		urlFormat = DefaultRSSURL
	}
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	if userAgent != "" {
		p.UserAgent = userAgent
	}
	return &RSSSource{urlFormat: urlFormat, parser: p}
}

func (s *RSSSource) Name() string { return "rss" }

func (s *RSSSource) Fetch(ctx context.Context, ticker string) ([]types.NewsItem, error) {
	feed, err := s.parser.ParseURLWithContext(fmt.Sprintf(s.urlFormat, url.QueryEscape(ticker)), ctx)
	if err != nil {
		return nil, fmt.Errorf("rss %s: %w", ticker, err)
	}
	return FromFeed(feed), nil
}

// FromFeed converts up to MaxItems feed entries. "Headline - Publisher"
// titles are split on the last separator.
func FromFeed(feed *gofeed.Feed) []types.NewsItem {
	if feed == nil {
		return nil
	}
	entries := feed.Items
	if len(entries) > MaxItems {
		entries = entries[:MaxItems]
	}
	items := make([]types.NewsItem, 0, len(entries))
	for _, e := range entries {
		title, publisher := splitTitle(strings.TrimSpace(e.Title))
		if publisher == "" {
			publisher = publisherFromHTML(e.Description)
		}
		if publisher == "" {
			publisher = googlePub
		}
		items = append(items, types.NewsItem{
			Title:     orNA(title),
			Publisher: publisher,
			Link:      orNA(strings.TrimSpace(e.Link)),
			Published: truncate(orDefault(strings.TrimSpace(e.Published), recent), 16),
		})
	}
	return items
}

func splitTitle(title string) (string, string) {
	i := strings.LastIndex(title, " - ")
	if i < 0 {
		return title, ""
	}
	return title[:i], strings.TrimSpace(title[i+3:])
}

// publisherFromHTML reads the <font> source tag Google News puts in item
// descriptions.
func publisherFromHTML(desc string) string {
	if !strings.Contains(desc, "<") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(desc))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("font").Last().Text())
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

func orNA(s string) string { return orDefault(s, na) }

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
