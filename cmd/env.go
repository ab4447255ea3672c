package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/placefinder/internal/history"
	"github.com/sells-group/placefinder/internal/search"
	"github.com/sells-group/placefinder/pkg/geocode"
	"github.com/sells-group/placefinder/pkg/places"
)

// searchEnv holds the wired search service and its backing stores for the
// search/serve commands.
type searchEnv struct {
	Service *search.Service
	History *history.Store
}

// Close releases resources held by the environment.
func (e *searchEnv) Close() {
	if e.History != nil {
		_ = e.History.Close()
	}
}

// initSearch wires clients, the strategy coordinator, enrichment, and the
// run-history store from config. Callers should defer env.Close().
func initSearch(ctx context.Context) (*searchEnv, error) {
	var placeOpts []places.Option
	if cfg.Google.PlacesBaseURL != "" {
		placeOpts = append(placeOpts, places.WithBaseURL(cfg.Google.PlacesBaseURL))
	}
	placesClient := places.NewClient(cfg.Google.APIKey, placeOpts...)

	geoOpts := []geocode.Option{geocode.WithRateLimit(cfg.Google.RateLimit)}
	if cfg.Google.GeocodeBaseURL != "" {
		geoOpts = append(geoOpts, geocode.WithBaseURL(cfg.Google.GeocodeBaseURL))
	}
	geoClient := geocode.NewClient(cfg.Google.APIKey, geoOpts...)

	resolver := search.NewResolver(geoClient, cfg.Search.CountryQualifier, cfg.Search.DefaultRadiusDeg)

	orch := search.NewOrchestrator(placesClient, search.OrchestratorConfig{
		MaxPages:      cfg.Search.MaxPages,
		PageDelay:     cfg.Search.PageDelay,
		BatchSize:     cfg.Search.BatchSize,
		BatchDelay:    cfg.Search.BatchDelay,
		RetryAttempts: cfg.Search.RetryAttempts,
		RetryBackoff:  cfg.Search.RetryBackoff,
		RateLimit:     cfg.Google.RateLimit,
	})

	coordinator := search.NewCoordinator(placesClient, resolver, orch,
		search.GridConfig{
			AutoScaleSpanDeg: cfg.Search.AutoScaleSpanDeg,
			MaxDensity:       cfg.Search.MaxGridDensity,
		},
		search.CoordinatorConfig{
			StandardThreshold: cfg.Search.StandardThreshold,
			MaxPages:          cfg.Search.MaxPages,
			PageDelay:         cfg.Search.PageDelay,
			RetryAttempts:     cfg.Search.RetryAttempts,
			RetryBackoff:      cfg.Search.RetryBackoff,
		},
	)

	enricher := search.NewEnricher(placesClient, cfg.Search.DetailConcurrency)

	env := &searchEnv{}

	// History is best-effort: a broken store logs and disables recording
	// rather than blocking searches.
	var recorder search.Recorder
	if cfg.History.Path != "" {
		st, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			zap.L().Warn("history store unavailable, run recording disabled",
				zap.String("path", cfg.History.Path),
				zap.Error(err),
			)
		} else {
			env.History = st
			recorder = st
		}
	}

	env.Service = search.NewService(cfg.Google.APIKey, coordinator, enricher, recorder, cfg.Search.DefaultMaxResults)
	return env, nil
}
