package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/komsit37/stockbook/pkg/stockbook/types"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5
	DefaultUserAgent = "Mozilla/5.0 (compatible; stockbook/1.0)"
)

// YahooClient talks to the public Yahoo Finance JSON endpoints.
type YahooClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

// ClientOption configures a YahooClient.
type ClientOption func(*YahooClient)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *YahooClient) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient uses hc for every request; nil keeps the default client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *YahooClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(log *zap.Logger) ClientOption {
	return func(c *YahooClient) {
		if log != nil {
			c.log = log
		}
	}
}

// WithRateLimit caps requests per second. Zero or less disables limiting.
func WithRateLimit(perSecond int) ClientOption {
	return func(c *YahooClient) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *YahooClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *YahooClient) {
		if d <= 0 {
			return
		}
		// Copy so a client passed to WithHTTPClient is left untouched.
		hc := http.Client{}
		if c.httpClient != nil {
			hc = *c.httpClient
		}
		hc.Timeout = d
		c.httpClient = &hc
	}
}

func NewYahooClient(opts ...ClientOption) *YahooClient {
	c := &YahooClient{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-200 response from Yahoo.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

func (c *YahooClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("yahoo request", zap.String("path", path), zap.String("query", params.Encode()))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: path, Message: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

// History returns daily bars for the period, oldest first. Bars without a
// close are dropped.
func (c *YahooClient) History(ctx context.Context, ticker string, period types.Period) (types.History, error) {
	params := url.Values{}
	params.Set("range", string(period))
	params.Set("interval", "1d")

	var resp chartResponse
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), params, &resp); err != nil {
		return nil, err
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("chart %s: %s: %w", ticker, e.Description, ErrNoData)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}
	res := resp.Chart.Result[0]
	q := res.Indicators.Quote[0]

	hist := make(types.History, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		cl := at(q.Close, i)
		if cl == nil {
			continue
		}
		bar := types.Bar{Date: time.Unix(ts, 0).UTC(), Close: *cl}
		if v := at(q.Open, i); v != nil {
			bar.Open = *v
		}
		if v := at(q.High, i); v != nil {
			bar.High = *v
		}
		if v := at(q.Low, i); v != nil {
			bar.Low = *v
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		hist = append(hist, bar)
	}
	return hist, nil
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []json.RawMessage `json:"result"`
		Error  *yahooError       `json:"error"`
	} `json:"quoteSummary"`
}

// Summary fetches the quoteSummary modules directly and returns the
// module-keyed JSON object.
func (c *YahooClient) Summary(ctx context.Context, ticker string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("modules", strings.Join(SummaryModules, ","))

	var resp summaryResponse
	if err := c.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(ticker), params, &resp); err != nil {
		return nil, err
	}
	if e := resp.QuoteSummary.Error; e != nil {
		return nil, fmt.Errorf("quoteSummary %s: %s: %w", ticker, e.Description, ErrNoData)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("quoteSummary %s: %w", ticker, ErrNoData)
	}
	return resp.QuoteSummary.Result[0], nil
}

// NewsStory is one entry of the search endpoint's news list.
type NewsStory struct {
	Title               string `json:"title"`
	Publisher           string `json:"publisher"`
	Link                string `json:"link"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
}

// News returns up to count headlines for the ticker.
func (c *YahooClient) News(ctx context.Context, ticker string, count int) ([]NewsStory, error) {
	params := url.Values{}
	params.Set("q", ticker)
	params.Set("newsCount", strconv.Itoa(count))
	params.Set("quotesCount", "0")

	var resp struct {
		News []NewsStory `json:"news"`
	}
	if err := c.get(ctx, "/v1/finance/search", params, &resp); err != nil {
		return nil, err
	}
	return resp.News, nil
}

// IsNotFound reports whether err is a 404 from Yahoo.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
