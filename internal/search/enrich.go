package search

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/placefinder/pkg/places"
)

// maxReviews caps how many reviews are carried per enriched place.
const maxReviews = 10

// Enricher maps detail lookups concurrently over a result set. A failed
// lookup degrades that record to its summary fields; it never fails the
// request.
type Enricher struct {
	places places.Client
	limit  int
}

// NewEnricher creates an Enricher with the given concurrency limit.
func NewEnricher(client places.Client, limit int) *Enricher {
	if limit <= 0 {
		limit = 5
	}
	return &Enricher{places: client, limit: limit}
}

// Enrich fetches details for every summary, preserving input order. It
// returns the enriched records and the number of detail calls made.
func (e *Enricher) Enrich(ctx context.Context, summaries []PlaceSummary) ([]PlaceDetail, int) {
	log := zap.L().With(zap.String("component", "search.enricher"))

	details := make([]PlaceDetail, len(summaries))
	var calls, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)

	for i, summary := range summaries {
		g.Go(func() error {
			calls.Add(1)
			place, err := e.places.Details(gctx, summary.ID)
			if err != nil {
				// Degrade to the summary; errors are counted, not raised.
				log.Warn("detail lookup failed",
					zap.String("place_id", summary.ID),
					zap.Error(err),
				)
				failed.Add(1)
				details[i] = PlaceDetail{PlaceSummary: summary, Reviews: []Review{}}
				return nil
			}
			details[i] = mergeDetail(summary, place)
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		log.Info("enrichment degraded records", zap.Int64("failed", n), zap.Int("total", len(summaries)))
	}

	return details, int(calls.Load())
}

// mergeDetail prefers detail-provided fields over the summary's, since the
// detail endpoint returns more complete records.
func mergeDetail(summary PlaceSummary, place *places.Place) PlaceDetail {
	d := PlaceDetail{
		PlaceSummary: summary,
		Phone:        place.NationalPhoneNumber,
		Reviews:      []Review{},
	}

	if place.DisplayName.Text != "" {
		d.Name = place.DisplayName.Text
	}
	if place.FormattedAddress != "" {
		d.Address = place.FormattedAddress
	}
	if place.Rating > 0 {
		d.Rating = place.Rating
	}
	if place.UserRatingCount > 0 {
		d.ReviewCount = place.UserRatingCount
	}
	if place.BusinessStatus != "" {
		d.Status = place.BusinessStatus
	}
	if place.WebsiteURI != "" {
		d.Website = place.WebsiteURI
	}
	if place.PriceLevel != "" {
		d.PriceLevel = place.PriceLevel
	}
	if place.Location != nil {
		d.Location = Coordinate{Lat: place.Location.Latitude, Lng: place.Location.Longitude}
	}

	for i, r := range place.Reviews {
		if i >= maxReviews {
			break
		}
		d.Reviews = append(d.Reviews, Review{
			Author:       r.AuthorAttribution.DisplayName,
			Rating:       r.Rating,
			Text:         r.Text.Text,
			RelativeTime: r.RelativePublishTimeDescription,
		})
	}

	return d
}
