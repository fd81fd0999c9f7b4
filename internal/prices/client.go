package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the Alpha Vantage API.
	DefaultBaseURL = "https://www.alphavantage.co"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5

	// DefaultNewsLimit caps how many articles a news lookup returns.
	DefaultNewsLimit = 5
)

// Client is an Alpha Vantage API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit. Fractional values slow the pace
// below one request per second.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// NewClient creates a new Alpha Vantage API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request against the query endpoint.
func (c *Client) get(ctx context.Context, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("function", params.Get("function")).
			Str("symbol", params.Get("symbol")+params.Get("tickers")).
			Msg("Alpha Vantage API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Symbol:     params.Get("symbol"),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// DailyAdjusted retrieves the full daily adjusted close history for a symbol,
// sorted ascending by date. Alpha Vantage reports quota and symbol problems
// inside a 200 response; those surface as an APIError carrying the note text.
func (c *Client) DailyAdjusted(ctx context.Context, symbol string) (Series, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	params.Set("symbol", symbol)
	params.Set("outputsize", "full")

	var payload dailyPayload
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, err
	}

	if len(payload.Series) == 0 {
		msg := payloadError(payload.Note, payload.Info, payload.Error)
		if msg == "" {
			msg = "empty time series"
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: msg, Symbol: symbol}
	}

	series := make(Series, 0, len(payload.Series))
	for dateStr, bar := range payload.Series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(bar.AdjustedClose, 64)
		if err != nil {
			continue
		}
		series = append(series, Point{Date: date, Close: closePrice})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	if c.logger != nil {
		c.logger.Info().
			Str("symbol", symbol).
			Int("points", len(series)).
			Msg("Alpha Vantage daily series fetched")
	}
	return series, nil
}

// DailyAdjustedBatch retrieves daily series for several symbols, pacing the
// calls through the client limiter. Per-symbol failures are logged and
// skipped so one bad ticker does not sink the batch; the error return is
// non-nil only when every symbol fails.
func (c *Client) DailyAdjustedBatch(ctx context.Context, symbols []string) (map[string]Series, error) {
	data := make(map[string]Series, len(symbols))
	var lastErr error
	for i, symbol := range symbols {
		series, err := c.DailyAdjusted(ctx, symbol)
		if err != nil {
			lastErr = err
			if c.logger != nil {
				c.logger.Warn().
					Err(err).
					Str("symbol", symbol).
					Msg("Alpha Vantage batch fetch failed for symbol")
			}
			if ctx.Err() != nil {
				return data, ctx.Err()
			}
			continue
		}
		data[symbol] = series
		if c.logger != nil {
			c.logger.Info().
				Str("symbol", symbol).
				Int("done", i+1).
				Int("total", len(symbols)).
				Msg("Alpha Vantage batch fetch progress")
		}
	}
	if len(data) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return data, nil
}

// RecentNews retrieves the latest news articles for a ticker. A missing or
// empty feed is not an error; news is best-effort color for the report.
func (c *Client) RecentNews(ctx context.Context, symbol string) ([]NewsArticle, error) {
	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("tickers", symbol)
	params.Set("limit", strconv.Itoa(DefaultNewsLimit))

	var payload newsPayload
	if err := c.get(ctx, params, &payload); err != nil {
		return nil, err
	}

	articles := payload.Feed
	if len(articles) > DefaultNewsLimit {
		articles = articles[:DefaultNewsLimit]
	}
	for i := range articles {
		if t, err := time.Parse("20060102T150405", articles[i].DateStr); err == nil {
			articles[i].Date = t
		}
	}
	return articles, nil
}
