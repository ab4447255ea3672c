package search

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/placefinder/internal/resilience"
	"github.com/sells-group/placefinder/pkg/places"
)

// OrchestratorConfig holds the tile-search tunables.
type OrchestratorConfig struct {
	// MaxPages bounds pagination depth per tile.
	MaxPages int
	// PageDelay is the wait before following a next-page token.
	PageDelay time.Duration
	// BatchSize is the number of tiles searched concurrently.
	BatchSize int
	// BatchDelay is the pause between batches.
	BatchDelay time.Duration
	// RetryAttempts is the retry count for transient search failures.
	RetryAttempts int
	// RetryBackoff is the initial retry delay; it doubles per attempt.
	RetryBackoff time.Duration
	// RateLimit is the requests-per-second cap across all tile searches.
	RateLimit float64
}

// DefaultOrchestratorConfig returns the standard orchestration parameters.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxPages:      3,
		PageDelay:     2200 * time.Millisecond,
		BatchSize:     4,
		BatchDelay:    300 * time.Millisecond,
		RetryAttempts: 3,
		RetryBackoff:  time.Second,
		RateLimit:     10,
	}
}

// TileResult is one tile's raw results plus its diagnostic log.
type TileResult struct {
	Tile   Tile
	Places []PlaceSummary
	Log    TileLog
}

// Orchestrator runs tile searches in bounded concurrent batches, following
// pagination per tile and stopping early once enough unique results have
// accumulated.
type Orchestrator struct {
	places  places.Client
	limiter *rate.Limiter
	cfg     OrchestratorConfig
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(client places.Client, cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 4
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 10
	}
	return &Orchestrator{
		places:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cfg:     cfg,
	}
}

// Run searches term across tiles in batches of cfg.BatchSize. It returns
// per-tile results in grid order for the tiles actually processed, plus the
// total upstream calls made. Once the accumulated unique count reaches
// target, no further batches are issued; a batch in flight always completes.
func (o *Orchestrator) Run(ctx context.Context, term string, tiles []Tile, target int) ([]TileResult, int, error) {
	log := zap.L().With(
		zap.String("component", "search.orchestrator"),
		zap.String("term", term),
	)

	// seen is written only between batches; tile workers read it for
	// diagnostic new-unique counts while no writer is active.
	seen := make(map[string]struct{})
	results := make([]TileResult, 0, len(tiles))
	totalCalls := 0

	for start := 0; start < len(tiles); start += o.cfg.BatchSize {
		end := start + o.cfg.BatchSize
		if end > len(tiles) {
			end = len(tiles)
		}
		batch := tiles[start:end]
		batchResults := make([]TileResult, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for bi, tile := range batch {
			g.Go(func() error {
				batchResults[bi] = o.searchTile(gctx, term, tile, seen)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return results, totalCalls, err
		}

		// Single-threaded merge pass: authoritative dedup happens here.
		for _, tr := range batchResults {
			for _, p := range tr.Places {
				seen[p.ID] = struct{}{}
			}
			totalCalls += tr.Log.Calls
			results = append(results, tr)
		}

		log.Debug("batch complete",
			zap.Int("tiles_done", len(results)),
			zap.Int("unique", len(seen)),
		)

		if target > 0 && len(seen) >= target {
			log.Info("target reached, stopping tile batches",
				zap.Int("unique", len(seen)),
				zap.Int("target", target),
			)
			break
		}

		if end < len(tiles) {
			if err := sleepCtx(ctx, o.cfg.BatchDelay); err != nil {
				return results, totalCalls, err
			}
		}
	}

	return results, totalCalls, nil
}

// searchTile issues a biased text search for one tile and follows pagination
// up to the page bound. Transient failures are retried with exponential
// backoff; any other failure or an empty page just stops this tile.
func (o *Orchestrator) searchTile(ctx context.Context, term string, tile Tile, seen map[string]struct{}) TileResult {
	tr := TileResult{
		Tile: tile,
		Log:  TileLog{Tile: tile.ID(), Bounds: tile.Bounds},
	}

	bias := &places.LocationRect{
		Rectangle: places.Rectangle{
			Low:  places.LatLng{Latitude: tile.Bounds.Southwest.Lat, Longitude: tile.Bounds.Southwest.Lng},
			High: places.LatLng{Latitude: tile.Bounds.Northeast.Lat, Longitude: tile.Bounds.Northeast.Lng},
		},
	}

	retryCfg := resilience.RetryConfig{
		MaxAttempts:    o.cfg.RetryAttempts + 1,
		InitialBackoff: o.cfg.RetryBackoff,
		ShouldRetry:    retryableSearchErr,
		OnRetry:        resilience.RetryLogger("search.orchestrator", "tile "+tile.ID()),
	}

	pageToken := ""
	for page := 0; page < o.cfg.MaxPages; page++ {
		if page > 0 {
			// Next-page tokens are not valid immediately after issue.
			if err := sleepCtx(ctx, o.cfg.PageDelay); err != nil {
				return tr
			}
		}

		resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*places.TextSearchResponse, error) {
			if err := o.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			tr.Log.Calls++
			return o.places.TextSearch(ctx, places.TextSearchRequest{
				TextQuery:    term,
				LocationBias: bias,
				PageToken:    pageToken,
			})
		})
		if err != nil {
			zap.L().Warn("tile search failed",
				zap.String("tile", tile.ID()),
				zap.Error(err),
			)
			return tr
		}

		if len(resp.Places) == 0 {
			return tr
		}

		tr.Log.Pages++
		for _, p := range resp.Places {
			summary := summaryFromPlace(p)
			tr.Places = append(tr.Places, summary)
			tr.Log.Raw++
			if _, dup := seen[summary.ID]; !dup {
				tr.Log.NewUnique++
			}
		}

		if resp.NextPageToken == "" {
			return tr
		}
		pageToken = resp.NextPageToken
	}

	return tr
}

// retryableSearchErr covers upstream statuses worth retrying (including a
// not-yet-valid page token) plus plain network failures.
func retryableSearchErr(err error) bool {
	return places.IsRetryable(err) || resilience.IsTransient(err)
}

// summaryFromPlace converts an upstream place record to a PlaceSummary.
func summaryFromPlace(p places.Place) PlaceSummary {
	s := PlaceSummary{
		ID:          p.ID,
		Name:        p.DisplayName.Text,
		Address:     p.FormattedAddress,
		Rating:      p.Rating,
		ReviewCount: p.UserRatingCount,
		Status:      p.BusinessStatus,
		Website:     p.WebsiteURI,
		PriceLevel:  p.PriceLevel,
	}
	if p.Location != nil {
		s.Location = Coordinate{Lat: p.Location.Latitude, Lng: p.Location.Longitude}
	}
	return s
}

// sleepCtx sleeps for d unless the context is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
