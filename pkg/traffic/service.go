// Package traffic orchestrates the border gate data pipeline: cache
// lookup, upstream fetch, HTML parse, gate filter, cache store.
package traffic

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jojapi/border-gates/pkg/cache"
	"github.com/jojapi/border-gates/pkg/gates"
	"github.com/jojapi/border-gates/pkg/logging"
	"github.com/jojapi/border-gates/pkg/scraper"
)

// Data provenance reported with every result.
const (
	// SourceCache marks a result served from a cached entry.
	SourceCache = "cache"

	// SourceLive marks a result freshly scraped from the upstream page.
	SourceLive = "live"
)

var (
	pipelineRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bordergates_pipeline_requests_total",
		Help: "Total pipeline requests by result source",
	}, []string{"source"})

	pipelineErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bordergates_pipeline_errors_total",
		Help: "Total pipeline failures by error code",
	}, []string{"code"})
)

// Fetcher is the upstream boundary consumed by the pipeline.
type Fetcher interface {
	Fetch(ctx context.Context, r gates.DateRange) ([]byte, error)
}

// Result is one pipeline outcome: the gate data matrix and where it came
// from. The matrix is owned by the caller; the pipeline never hands the
// same backing slices to two callers.
type Result struct {
	Source string
	Gates  gates.Matrix
}

// Service composes the fetcher, parser, filter and cache into the
// request pipeline. Concurrent misses on the same key share a single
// upstream fetch via singleflight.
type Service struct {
	fetcher Fetcher
	store   cache.Store
	sf      singleflight.Group
	logger  zerolog.Logger
}

// NewService creates a pipeline service over the given fetcher and store.
func NewService(fetcher Fetcher, store cache.Store) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		logger:  logging.NewLogger("traffic"),
	}
}

// Get returns the traffic matrix for the date range, narrowed to the
// given gate names (case-insensitively; empty means all gates).
//
// The cache is consulted first; a hit short-circuits with the stored,
// already-filtered matrix. On a miss the matrix is scraped, filtered and
// stored under the request's key. Failures are terminal for the request:
// no retry, no partial data, and no stale-entry fallback.
func (s *Service) Get(ctx context.Context, r gates.DateRange, gateNames []string) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, &Error{Code: CodeInvalidDateRange, Message: err.Error()}
	}

	key := cache.Key{Range: r, Gates: gateNames}

	matrix, err := s.store.Get(ctx, key)
	if err == nil {
		pipelineRequestsTotal.WithLabelValues(SourceCache).Inc()
		s.logger.Debug().Str("key", key.String()).Msg("Serving cached matrix")
		return &Result{Source: SourceCache, Gates: matrix}, nil
	}
	if err != cache.ErrMiss {
		// Cache trouble degrades to a live fetch, never to a failure.
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache get error")
	}

	v, err, shared := s.sf.Do(key.String(), func() (interface{}, error) {
		return s.scrape(ctx, r, gateNames, key)
	})
	if err != nil {
		code := CodeOf(err)
		pipelineErrorsTotal.WithLabelValues(string(code)).Inc()
		return nil, err
	}

	fresh := v.(gates.Matrix)
	if shared {
		// Another requester owns the singleflight result.
		fresh = fresh.Clone()
	}

	pipelineRequestsTotal.WithLabelValues(SourceLive).Inc()
	return &Result{Source: SourceLive, Gates: fresh}, nil
}

// scrape runs the miss path: fetch, parse, filter, store.
func (s *Service) scrape(ctx context.Context, r gates.DateRange, gateNames []string, key cache.Key) (gates.Matrix, error) {
	html, err := s.fetcher.Fetch(ctx, r)
	if err != nil {
		return nil, s.wrapScrapeError(err)
	}

	matrix, err := scraper.Parse(html)
	if err != nil {
		return nil, s.wrapScrapeError(err)
	}

	filtered := gates.Filter(matrix, gateNames)

	if err := s.store.Set(ctx, key, filtered); err != nil {
		// A write failure must not fail the request; the data is in hand.
		s.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache set error")
	}

	s.logger.Info().
		Str("start_date", r.StartString()).
		Str("end_date", r.EndString()).
		Int("rows", len(filtered)).
		Strs("filtered_gates", gateNames).
		Msg("Scraped fresh gate data")

	return filtered, nil
}

// wrapScrapeError maps scraper failure kinds onto stable pipeline codes.
func (s *Service) wrapScrapeError(err error) error {
	switch scraper.KindOf(err) {
	case scraper.KindTimeout, scraper.KindTransport, scraper.KindUpstreamStatus, scraper.KindNoTable:
		return &Error{
			Code:    CodeDataSourceError,
			Message: "unable to fetch data from source",
			Err:     err,
		}
	case scraper.KindNoData:
		return &Error{
			Code:    CodeNoDataFound,
			Message: "no border gate data found for the specified date range",
			Err:     err,
		}
	default:
		return &Error{Code: CodeInternal, Message: "unexpected pipeline failure", Err: err}
	}
}

// Stats exposes cache statistics for the observability endpoints.
func (s *Service) Stats(ctx context.Context) (cache.Stats, error) {
	return s.store.Stats(ctx)
}
