package search

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Request-level failures. Everything else is absorbed with degradation and
// reported only through Meta.
var (
	ErrMissingQuery      = eris.New("search: query is required")
	ErrMissingCredential = eris.New("search: upstream api key is not configured")
)

// Recorder persists per-run accounting. Implementations must tolerate being
// called best-effort; recording failures never fail a search.
type Recorder interface {
	Record(ctx context.Context, query, strategy string, resp *Response, elapsed time.Duration) error
}

// Service is the request-facing search surface: input validation, strategy
// coordination, enrichment, and accounting.
type Service struct {
	apiKey            string
	coordinator       *Coordinator
	enricher          *Enricher
	recorder          Recorder
	defaultMaxResults int
}

// NewService creates a Service. recorder may be nil.
func NewService(apiKey string, coordinator *Coordinator, enricher *Enricher, recorder Recorder, defaultMaxResults int) *Service {
	if defaultMaxResults <= 0 {
		defaultMaxResults = 60
	}
	return &Service{
		apiKey:            apiKey,
		coordinator:       coordinator,
		enricher:          enricher,
		recorder:          recorder,
		defaultMaxResults: defaultMaxResults,
	}
}

// Search validates and runs a search request. Only ErrMissingQuery and
// ErrMissingCredential surface as errors; both are checked before any
// upstream call is made.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrMissingQuery
	}
	if s.apiKey == "" {
		return nil, ErrMissingCredential
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = s.defaultMaxResults
	}
	intensity := ParseIntensity(req.Intensity)

	start := time.Now()

	summaries, meta := s.coordinator.Search(ctx, query, maxResults, intensity)

	details, detailCalls := s.enricher.Enrich(ctx, summaries)
	meta.DetailsCalls = detailCalls
	meta.TotalAPICalls = meta.GeocodeCalls + meta.SearchCalls + meta.DetailsCalls

	resp := &Response{
		Results:      details,
		APICallsUsed: meta.TotalAPICalls,
		Meta:         meta,
	}

	elapsed := time.Since(start)
	zap.L().Info("search complete",
		zap.String("query", query),
		zap.String("strategy", meta.Strategy),
		zap.Int("results", len(details)),
		zap.Int("api_calls", meta.TotalAPICalls),
		zap.Duration("elapsed", elapsed),
	)

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, query, meta.Strategy, resp, elapsed); err != nil {
			zap.L().Warn("record search run failed", zap.Error(err))
		}
	}

	return resp, nil
}
