package search

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/placefinder/internal/resilience"
	"github.com/sells-group/placefinder/pkg/places"
)

// CoordinatorConfig holds the strategy-selection tunables.
type CoordinatorConfig struct {
	// StandardThreshold is the budget at or below which a single standard
	// search is used instead of the grid pipeline.
	StandardThreshold int
	// MaxPages bounds standard-search pagination.
	MaxPages int
	// PageDelay is the wait before following a next-page token.
	PageDelay time.Duration
	// RetryAttempts/RetryBackoff mirror the orchestrator's retry policy for
	// the standard path.
	RetryAttempts int
	RetryBackoff  time.Duration
}

// DefaultCoordinatorConfig returns the standard coordination parameters.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		StandardThreshold: 60,
		MaxPages:          3,
		PageDelay:         2200 * time.Millisecond,
		RetryAttempts:     3,
		RetryBackoff:      time.Second,
	}
}

// Coordinator chooses between a standard single-query search and the grid
// pipeline, owns the final merge/dedup, and degrades to standard search
// when the grid path fails.
type Coordinator struct {
	places   places.Client
	resolver LocationResolver
	orch     *Orchestrator
	grid     GridConfig
	cfg      CoordinatorConfig
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(client places.Client, resolver LocationResolver, orch *Orchestrator, grid GridConfig, cfg CoordinatorConfig) *Coordinator {
	if cfg.StandardThreshold <= 0 {
		cfg.StandardThreshold = 60
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	return &Coordinator{
		places:   client,
		resolver: resolver,
		orch:     orch,
		grid:     grid,
		cfg:      cfg,
	}
}

// Search runs the query with the given result budget and intensity. It never
// returns an error: every upstream failure degrades to the best available
// result set, with the degradation recorded in Meta.
func (c *Coordinator) Search(ctx context.Context, query string, maxResults int, intensity Intensity) ([]PlaceSummary, Meta) {
	log := zap.L().With(zap.String("component", "search.coordinator"), zap.String("query", query))

	if maxResults <= c.cfg.StandardThreshold {
		results, calls := c.standardSearch(ctx, query, maxResults)
		return results, Meta{
			Strategy:      StrategyStandard,
			RawResults:    len(results),
			UniqueResults: len(results),
			SearchCalls:   calls,
		}
	}

	results, meta, err := c.gridSearch(ctx, query, maxResults, intensity)
	if err == nil {
		return results, meta
	}

	// Any grid-path failure falls back to a standard search of the
	// original query; the trigger is reported in metadata only.
	log.Warn("grid search failed, falling back to standard search", zap.Error(err))

	fallback, calls := c.standardSearch(ctx, query, maxResults)
	meta.Strategy = StrategyFallback
	meta.RawResults = len(fallback)
	meta.UniqueResults = len(fallback)
	meta.SearchCalls += calls
	meta.TileLogs = nil
	meta.Error = err.Error()
	return fallback, meta
}

// standardSearch runs a single unbiased text search, paginating up to the
// page bound or until the budget is met. It caps by page count only and
// does not truncate to the budget.
func (c *Coordinator) standardSearch(ctx context.Context, query string, budget int) ([]PlaceSummary, int) {
	retryCfg := resilience.RetryConfig{
		MaxAttempts:    c.cfg.RetryAttempts + 1,
		InitialBackoff: c.cfg.RetryBackoff,
		ShouldRetry:    retryableSearchErr,
		OnRetry:        resilience.RetryLogger("search.coordinator", "standard search"),
	}

	var (
		results   []PlaceSummary
		seen      = make(map[string]struct{})
		pageToken string
		calls     int
	)

	for page := 0; page < c.cfg.MaxPages; page++ {
		if page > 0 {
			if err := sleepCtx(ctx, c.cfg.PageDelay); err != nil {
				return results, calls
			}
		}

		resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*places.TextSearchResponse, error) {
			calls++
			return c.places.TextSearch(ctx, places.TextSearchRequest{
				TextQuery: query,
				PageToken: pageToken,
			})
		})
		if err != nil {
			zap.L().Warn("standard search page failed", zap.Int("page", page), zap.Error(err))
			return results, calls
		}

		if len(resp.Places) == 0 {
			return results, calls
		}

		for _, p := range resp.Places {
			summary := summaryFromPlace(p)
			if _, dup := seen[summary.ID]; dup {
				continue
			}
			seen[summary.ID] = struct{}{}
			results = append(results, summary)
		}

		if budget > 0 && len(results) >= budget {
			return results, calls
		}
		if resp.NextPageToken == "" {
			return results, calls
		}
		pageToken = resp.NextPageToken
	}

	return results, calls
}

// gridSearch resolves the query's location, partitions the area, runs the
// tile orchestrator, and merges tile results first-seen-wins in grid order,
// truncating at the budget.
func (c *Coordinator) gridSearch(ctx context.Context, query string, maxResults int, intensity Intensity) ([]PlaceSummary, Meta, error) {
	meta := Meta{Strategy: StrategyGrid}

	term, location := ExtractTerms(query)

	area, geocodeCalls, err := c.resolver.Resolve(ctx, location)
	meta.GeocodeCalls = geocodeCalls
	if err != nil {
		return nil, meta, err
	}

	tiles := Partition(area.Box, intensity, c.grid)
	meta.TilesCreated = len(tiles)

	zap.L().Info("grid search",
		zap.String("term", term),
		zap.String("location", location),
		zap.Int("tiles", len(tiles)),
		zap.Int("budget", maxResults),
	)

	tileResults, searchCalls, err := c.orch.Run(ctx, term, tiles, maxResults)
	meta.SearchCalls = searchCalls
	meta.TilesProcessed = len(tileResults)
	if err != nil {
		return nil, meta, eris.Wrap(err, "search: tile orchestration")
	}

	// Merge in grid order; within a tile, upstream response order. First
	// occurrence of an identifier wins.
	seen := make(map[string]struct{})
	var merged []PlaceSummary
	for _, tr := range tileResults {
		meta.TileLogs = append(meta.TileLogs, tr.Log)
		meta.RawResults += len(tr.Places)
		for _, p := range tr.Places {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			if len(merged) < maxResults {
				merged = append(merged, p)
			}
		}
	}
	meta.UniqueResults = len(seen)

	return merged, meta, nil
}
