// Package worldbank provides a client for the World Bank Indicators API (v2).
package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/windcost/internal/fetcher"
	"github.com/sells-group/windcost/internal/model"
	"github.com/sells-group/windcost/internal/resilience"
	"github.com/sells-group/windcost/internal/stats"
)

// DefaultBaseURL is the public Indicators API endpoint.
const DefaultBaseURL = "https://api.worldbank.org/v2"

// Config configures the World Bank client.
type Config struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Timeout returns the per-request timeout, defaulting to 30s.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Client answers stats.Provider queries against the Indicators API.
type Client struct {
	baseURL string
	fetch   fetcher.Fetcher
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// Ensure Client implements stats.Provider.
var _ stats.Provider = (*Client)(nil)

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRetry overrides the retry policy applied to decode failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithBreaker routes every query through cb so a failing API is not hit
// once the circuit opens.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// NewFromConfig creates a client from cfg. Zero fields keep the defaults.
func NewFromConfig(cfg Config, f fetcher.Fetcher) *Client {
	cb := resilience.NewCircuitBreaker(resilience.FromCircuitConfig("worldbank", cfg.FailureThreshold, cfg.ResetTimeoutSecs))
	opts := []Option{WithBreaker(cb)}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		retry := resilience.RetryAttempts(cfg.MaxRetries + 1)
		retry.OnRetry = resilience.RetryLogger("worldbank", "indicator")
		opts = append(opts, WithRetry(retry))
	}
	return NewClient(f, opts...)
}

// NewClient creates a client that downloads through f.
func NewClient(f fetcher.Fetcher, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		fetch:   f,
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("worldbank", "indicator")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pageInfo is the first element of every API response.
type pageInfo struct {
	Page    json.Number  `json:"page"`
	Pages   json.Number  `json:"pages"`
	Total   json.Number  `json:"total"`
	Message []apiMessage `json:"message"`
}

type apiMessage struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// datum is one element of the second response array.
type datum struct {
	CountryISO3 string   `json:"countryiso3code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

// Value implements stats.Provider.
func (c *Client) Value(ctx context.Context, indicator, country string, year int) (float64, error) {
	obs, err := c.query(ctx, indicator, country, url.Values{"date": {strconv.Itoa(year)}})
	if err != nil {
		return 0, err
	}
	for _, o := range obs {
		if o.Year == year {
			return o.Value, nil
		}
	}
	return 0, model.Unavailable("worldbank: %s for %s in %d", indicator, country, year)
}

// MostRecent implements stats.Provider.
func (c *Client) MostRecent(ctx context.Context, indicator, country string) (stats.Observation, error) {
	obs, err := c.query(ctx, indicator, country, url.Values{"mrv": {"1"}})
	if err != nil {
		return stats.Observation{}, err
	}
	if len(obs) == 0 {
		return stats.Observation{}, model.Unavailable("worldbank: %s for %s (most recent)", indicator, country)
	}
	return obs[len(obs)-1], nil
}

// Series implements stats.Provider.
func (c *Client) Series(ctx context.Context, indicator, country string, from, to int) ([]stats.Observation, error) {
	obs, err := c.query(ctx, indicator, country, url.Values{"date": {fmt.Sprintf("%d:%d", from, to)}})
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, model.Unavailable("worldbank: %s for %s in %d-%d", indicator, country, from, to)
	}
	return obs, nil
}

// query fetches one indicator series and returns its non-null observations,
// oldest first.
func (c *Client) query(ctx context.Context, indicator, country string, params url.Values) ([]stats.Observation, error) {
	params.Set("format", "json")
	params.Set("per_page", "200")
	u := fmt.Sprintf("%s/country/%s/indicator/%s?%s",
		c.baseURL, url.PathEscape(strings.ToLower(country)), url.PathEscape(indicator), params.Encode())

	download := func(ctx context.Context) ([]byte, error) {
		return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
			rc, err := c.fetch.Download(ctx, u)
			if err != nil {
				return nil, err
			}
			defer rc.Close() //nolint:errcheck
			b, err := io.ReadAll(rc)
			if err != nil {
				return nil, resilience.NewTransientError(eris.Wrap(err, "worldbank: read body"), 0)
			}
			return b, nil
		})
	}

	var body []byte
	var err error
	if c.breaker != nil {
		body, err = resilience.ExecuteVal(ctx, c.breaker, download)
	} else {
		body, err = download(ctx)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "worldbank: query %s for %s", indicator, country)
	}

	obs, err := decode(body)
	if err != nil {
		return nil, eris.Wrapf(err, "worldbank: %s for %s", indicator, country)
	}

	zap.L().Debug("worldbank: indicator fetched",
		zap.String("indicator", indicator),
		zap.String("country", country),
		zap.Int("observations", len(obs)),
	)
	return obs, nil
}

// decode parses the two-element [pageInfo, [datum...]] response. An API
// error message (unknown country or indicator) is reported as unavailable
// data.
func decode(body []byte) ([]stats.Observation, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, eris.Wrap(err, "decode response")
	}
	if len(parts) == 0 {
		return nil, eris.New("empty response")
	}

	var info pageInfo
	if err := json.Unmarshal(parts[0], &info); err != nil {
		return nil, eris.Wrap(err, "decode page info")
	}
	if len(info.Message) > 0 {
		m := info.Message[0]
		return nil, model.Unavailable("api message %s: %s", m.Key, m.Value)
	}
	if len(parts) < 2 || string(parts[1]) == "null" {
		return nil, nil
	}

	var data []datum
	if err := json.Unmarshal(parts[1], &data); err != nil {
		return nil, eris.Wrap(err, "decode observations")
	}

	obs := make([]stats.Observation, 0, len(data))
	for _, d := range data {
		if d.Value == nil {
			continue
		}
		year, err := strconv.Atoi(d.Date)
		if err != nil {
			continue
		}
		obs = append(obs, stats.Observation{Year: year, Value: *d.Value})
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].Year < obs[j].Year })
	return obs, nil
}
