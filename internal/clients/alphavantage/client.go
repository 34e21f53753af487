// Package alphavantage provides a quote client for the Alpha Vantage API
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

const (
	Name             = "alphavantage"
	DefaultBaseURL   = "https://www.alphavantage.co"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 1
)

// Client implements interfaces.QuoteSource
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// globalQuoteResponse mirrors GLOBAL_QUOTE. Throttled responses carry Note
// or Information instead of a quote, with status 200.
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		LatestDay     string `json:"07. latest trading day"`
		PreviousClose string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

// Name identifies the source in quotes and metrics.
func (c *Client) Name() string { return Name }

// GetQuote fetches the latest price.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("symbol", symbol).Msg("Alpha Vantage quote request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("alphavantage: %w", models.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("Alpha Vantage API error: %s (status: %d)", string(body), resp.StatusCode)
	}

	var gq globalQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&gq); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if gq.Note != "" || gq.Information != "" {
		return nil, fmt.Errorf("alphavantage: %w", models.ErrRateLimited)
	}

	price, err := decimal.NewFromString(gq.GlobalQuote.Price)
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("alphavantage: no data for %s: %w", symbol, models.ErrQuoteUnavailable)
	}

	ts := time.Now().UTC()
	if day, err := time.Parse("2006-01-02", gq.GlobalQuote.LatestDay); err == nil {
		ts = day
	}
	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        parse(gq.GlobalQuote.Change),
		ChangePercent: parse(strings.TrimSuffix(gq.GlobalQuote.ChangePercent, "%")),
		PreviousClose: parse(gq.GlobalQuote.PreviousClose),
		Source:        Name,
		Timestamp:     ts,
	}, nil
}

func parse(s string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return v
}

var _ interfaces.QuoteSource = (*Client)(nil)
