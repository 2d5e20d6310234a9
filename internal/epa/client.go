package epa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/envirofacts-cli/internal/model"
	"github.com/sells-group/envirofacts-cli/internal/resilience"
)

const (
	// DefaultBaseURL is the Envirofacts REST endpoint.
	DefaultBaseURL = "https://data.epa.gov/efservice/"

	// DefaultTimeout bounds a single attempt. Envirofacts can sit on
	// large table scans for minutes before answering.
	DefaultTimeout = 300 * time.Second

	// DefaultMaxResults caps one query's result window.
	DefaultMaxResults = 1000

	defaultClientUserAgent = "envirofacts-cli/1.0"
)

// SourceUnavailable means a source's retries (and circuit budget) are
// exhausted. The aggregator downgrades it to a "failed" status entry.
type SourceUnavailable struct {
	Source model.Program
	Err    error
}

func (e *SourceUnavailable) Error() string {
	return fmt.Sprintf("epa: source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailable) Unwrap() error {
	return e.Err
}

// Client executes Envirofacts queries with retry, per-table circuit
// breaking, and transient/permanent error classification. Safe for
// concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	maxResults int
	httpClient *http.Client
	retryCfg   resilience.RetryConfig
	breakers   *resilience.ServiceBreakers
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the Envirofacts endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the HTTP client (tests inject a fake here).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxResults caps the result window per query.
func WithMaxResults(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) ClientOption {
	return func(c *Client) { c.retryCfg = cfg }
}

// WithBreakerConfig overrides the per-table circuit breaker policy.
func WithBreakerConfig(cfg resilience.CircuitBreakerConfig) ClientOption {
	return func(c *Client) { c.breakers = resilience.NewServiceBreakers(cfg) }
}

// NewClient creates an Envirofacts client with production defaults.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  defaultClientUserAgent,
		timeout:    DefaultTimeout,
		maxResults: DefaultMaxResults,
		retryCfg:   resilience.DefaultRetryConfig(),
		breakers:   resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return c
}

// MaxResults returns the configured per-query result cap.
func (c *Client) MaxResults() int { return c.maxResults }

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout returns the per-attempt timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// QueryTable runs one table query with the configured result window.
// The second return reports truncation: the response filled the whole
// window, so more rows likely exist upstream.
func (c *Client) QueryTable(ctx context.Context, q Query) ([]Record, bool, error) {
	if q.Last == 0 {
		q.Last = c.maxResults - 1
	}

	records, err := c.execute(ctx, q)
	if err != nil {
		return nil, false, err
	}

	truncated := len(records) >= c.maxResults
	if truncated {
		zap.L().Warn("envirofacts results truncated",
			zap.String("table", q.Table),
			zap.Int("max_results", c.maxResults),
		)
	}
	return records, truncated, nil
}

func (c *Client) execute(ctx context.Context, q Query) ([]Record, error) {
	cfg := c.retryCfg
	cfg.OnRetry = resilience.RetryLogger("envirofacts", q.Table)

	breaker := c.breakers.Get(q.Table)
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]Record, error) {
		return resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) ([]Record, error) {
			return c.fetchOnce(ctx, q)
		})
	})
}

// fetchOnce performs a single attempt with its own timeout and classifies
// the outcome as transient or permanent.
func (c *Client) fetchOnce(ctx context.Context, q Query) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := strings.TrimSuffix(c.baseURL, "/") + "/" + q.Path()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, resilience.NewPermanentError(eris.Wrap(err, "epa: build request"), 0)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network-level failures classify through IsTransient heuristics.
		return nil, eris.Wrap(err, "epa: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("epa: %s returned status %d", q.Table, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, resilience.NewPermanentError(err, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "epa: read body")
	}

	// A response that is not a JSON array of rows will never parse on
	// retry either.
	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, resilience.NewPermanentError(
			eris.Wrapf(err, "epa: %s returned malformed response", q.Table), resp.StatusCode)
	}
	return records, nil
}

// Health reports whether Envirofacts is reachable via a limit-1 FRS probe.
type Health struct {
	Reachable bool          `json:"reachable"`
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// CheckHealth probes the API with the cheapest query that exercises the
// full request path.
func (c *Client) CheckHealth(ctx context.Context) Health {
	h := Health{
		BaseURL:   c.baseURL,
		Timeout:   c.timeout,
		CheckedAt: time.Now().UTC(),
	}
	// Window 0:0 asks for a single row.
	if _, err := c.execute(ctx, Query{Table: frsTable}); err != nil {
		h.Error = err.Error()
		return h
	}
	h.Reachable = true
	return h
}
