// Package scraper fetches the upstream border gates page and extracts the
// traffic density table from its HTML.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/jojapi/border-gates/pkg/gates"
	"github.com/jojapi/border-gates/pkg/logging"
)

// Prometheus metrics for upstream fetch operations.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bordergates_upstream_requests_total",
		Help: "Total upstream fetch attempts by outcome",
	}, []string{"outcome"})

	upstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bordergates_upstream_request_duration_seconds",
		Help:    "Upstream fetch duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bordergates_upstream_errors_total",
		Help: "Total upstream fetch errors by kind",
	}, []string{"kind"})
)

// Config holds the fetcher configuration.
type Config struct {
	// UpstreamURL is the border gates page, without query parameters.
	UpstreamURL string

	// UserAgent is sent with every request. The upstream applies trivial
	// bot filtering, so a browser-like value is required.
	UserAgent string

	// Timeout bounds the whole fetch including body read.
	Timeout time.Duration
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() Config {
	return Config{
		UpstreamURL: "https://www.und.org.tr/sinir-kapilari-yogunluk-durumu",
		UserAgent:   "border-gates-api/2.0 (https://jojapi.com/border-gates)",
		Timeout:     30 * time.Second,
	}
}

// Client fetches the upstream page for a date range. It performs exactly
// one attempt per call; retry policy is deliberately out of scope.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.UpstreamURL == "" {
		return nil, fmt.Errorf("upstream URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logging.NewLogger("scraper"),
	}, nil
}

// Fetch issues a single GET for the given date range and returns the raw
// HTML body. Failures are typed *Error values: KindTimeout, KindTransport
// or KindUpstreamStatus.
func (c *Client) Fetch(ctx context.Context, r gates.DateRange) ([]byte, error) {
	start := time.Now()
	defer func() {
		upstreamRequestDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(r), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := classifyTransportError(err)
		upstreamErrorsTotal.WithLabelValues(string(kind)).Inc()
		upstreamRequestsTotal.WithLabelValues("error").Inc()
		c.logger.Error().Err(err).
			Str("start_date", r.StartString()).
			Str("end_date", r.EndString()).
			Str("kind", string(kind)).
			Msg("Upstream request failed")
		return nil, &Error{Kind: kind, Message: "upstream request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErrorsTotal.WithLabelValues(string(KindUpstreamStatus)).Inc()
		upstreamRequestsTotal.WithLabelValues("error").Inc()
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("start_date", r.StartString()).
			Str("end_date", r.EndString()).
			Msg("Upstream returned non-2xx status")
		return nil, &Error{
			Kind:       KindUpstreamStatus,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := classifyTransportError(err)
		upstreamErrorsTotal.WithLabelValues(string(kind)).Inc()
		upstreamRequestsTotal.WithLabelValues("error").Inc()
		return nil, &Error{Kind: kind, Message: "read upstream response", Err: err}
	}

	upstreamRequestsTotal.WithLabelValues("ok").Inc()
	c.logger.Debug().
		Str("start_date", r.StartString()).
		Str("end_date", r.EndString()).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Fetched upstream page")

	return body, nil
}

// buildURL embeds the date range as START_DATE/END_DATE query parameters.
func (c *Client) buildURL(r gates.DateRange) string {
	q := url.Values{}
	q.Set("START_DATE", r.StartString())
	q.Set("END_DATE", r.EndString())
	return c.config.UpstreamURL + "?" + q.Encode()
}

// classifyTransportError separates timeouts from other transport failures.
func classifyTransportError(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
