package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placefinder/pkg/places"
)

func newTestCoordinator(client *mockPlacesClient, resolver LocationResolver) *Coordinator {
	orch := NewOrchestrator(client, fastOrchestratorConfig())
	return NewCoordinator(client, resolver, orch, DefaultGridConfig(), fastCoordinatorConfig())
}

func TestCoordinator_SmallBudgetUsesStandardSearch(t *testing.T) {
	client := newMockPlacesClient()
	client.on(searchKey(nil, ""), scripted{resp: &places.TextSearchResponse{
		Places: wirePlaces("a", "b", "c"),
	}})
	resolver := &mockResolver{err: ErrLocationUnresolvable} // must never be consulted

	coord := newTestCoordinator(client, resolver)
	results, meta := coord.Search(context.Background(), "cafes in Springfield", 20, IntensityLow)

	assert.Equal(t, StrategyStandard, meta.Strategy)
	assert.Len(t, results, 3)
	assert.Equal(t, 1, meta.SearchCalls)
	assert.Equal(t, 0, meta.GeocodeCalls)
	assert.Empty(t, meta.Error)
}

func TestCoordinator_StandardSearchNoTruncation(t *testing.T) {
	client := newMockPlacesClient()
	// Budget of 5 is crossed mid-page; the whole page is kept.
	client.on(searchKey(nil, ""), scripted{resp: &places.TextSearchResponse{
		Places:        wirePlaces("a", "b", "c", "d", "e", "f", "g"),
		NextPageToken: "t1",
	}})

	coord := newTestCoordinator(client, &mockResolver{})
	results, meta := coord.Search(context.Background(), "cafes", 5, IntensityLow)

	assert.Len(t, results, 7)
	// Budget met after page one, so the next-page token is not followed.
	assert.Equal(t, 1, meta.SearchCalls)
}

func TestCoordinator_StandardSearchDedupesAcrossPages(t *testing.T) {
	client := newMockPlacesClient()
	client.on(searchKey(nil, ""), scripted{resp: &places.TextSearchResponse{
		Places:        wirePlaces("a", "b"),
		NextPageToken: "t1",
	}})
	client.on(searchKey(nil, "t1"), scripted{resp: &places.TextSearchResponse{
		Places: wirePlaces("b", "c"),
	}})

	coord := newTestCoordinator(client, &mockResolver{})
	results, meta := coord.Search(context.Background(), "cafes", 30, IntensityLow)

	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, summaryIDs(results))
	assert.Equal(t, 2, meta.SearchCalls)
}

func TestCoordinator_GridSearchMergesInGridOrder(t *testing.T) {
	area := &Area{
		Center: Coordinate{Lat: 39.2, Lng: -89.8},
		Box:    box(39.0, -90.0, 39.4, -89.6),
	}
	tiles := Partition(area.Box, IntensityLow, DefaultGridConfig())
	require.Len(t, tiles, 4)

	client := newMockPlacesClient()
	client.on(tileKey(tiles[0], ""), scripted{resp: &places.TextSearchResponse{Places: wirePlaces("a", "b")}})
	client.on(tileKey(tiles[1], ""), scripted{resp: &places.TextSearchResponse{Places: wirePlaces("b", "c")}})
	client.on(tileKey(tiles[2], ""), scripted{resp: &places.TextSearchResponse{Places: wirePlaces("d")}})
	// tiles[3] unscripted: empty page.

	coord := newTestCoordinator(client, &mockResolver{area: area, calls: 1})
	results, meta := coord.Search(context.Background(), "cafes in Springfield", 100, IntensityLow)

	assert.Equal(t, StrategyGrid, meta.Strategy)
	assert.Equal(t, []string{"a", "b", "c", "d"}, summaryIDs(results))
	assert.Equal(t, 4, meta.TilesCreated)
	assert.Equal(t, 4, meta.TilesProcessed)
	assert.Equal(t, 5, meta.RawResults)
	assert.Equal(t, 4, meta.UniqueResults)
	assert.Equal(t, 1, meta.GeocodeCalls)
	assert.Equal(t, 4, meta.SearchCalls)
	assert.Len(t, meta.TileLogs, 4)
}

func TestCoordinator_GridSearchTruncatesAtBudget(t *testing.T) {
	area := &Area{Box: box(39.0, -90.0, 39.4, -89.6)}
	tiles := Partition(area.Box, IntensityLow, DefaultGridConfig())

	client := newMockPlacesClient()
	for _, tile := range tiles {
		ids := make([]string, 0, 30)
		for j := 0; j < 30; j++ {
			ids = append(ids, tile.ID()+string(rune('a'+j)))
		}
		client.on(tileKey(tile, ""), scripted{resp: &places.TextSearchResponse{Places: wirePlaces(ids...)}})
	}

	coord := newTestCoordinator(client, &mockResolver{area: area, calls: 1})
	results, meta := coord.Search(context.Background(), "cafes in Springfield", 70, IntensityLow)

	assert.Len(t, results, 70)
	assert.Equal(t, StrategyGrid, meta.Strategy)
	// UniqueResults reports everything seen, not the truncated set.
	assert.GreaterOrEqual(t, meta.UniqueResults, 70)
}

func TestCoordinator_FallbackOnUnresolvableLocation(t *testing.T) {
	client := newMockPlacesClient()
	client.on(searchKey(nil, ""), scripted{resp: &places.TextSearchResponse{
		Places: wirePlaces("x", "y"),
	}})

	coord := newTestCoordinator(client, &mockResolver{err: ErrLocationUnresolvable, calls: 2})
	results, meta := coord.Search(context.Background(), "cafes in Nowhereville", 100, IntensityLow)

	assert.Equal(t, StrategyFallback, meta.Strategy)
	assert.Len(t, results, 2)
	assert.NotEmpty(t, meta.Error)
	assert.Nil(t, meta.TileLogs)
	assert.Equal(t, 2, meta.GeocodeCalls)
	assert.Equal(t, 1, meta.SearchCalls)
}

func TestCoordinator_IntensityControlsTileCount(t *testing.T) {
	area := &Area{Box: box(39.0, -90.0, 39.4, -89.6)}
	client := newMockPlacesClient() // every tile returns an empty page

	coord := newTestCoordinator(client, &mockResolver{area: area, calls: 1})

	_, meta := coord.Search(context.Background(), "cafes in Springfield", 100, IntensityHigh)
	assert.Equal(t, 16, meta.TilesCreated)

	_, meta = coord.Search(context.Background(), "cafes in Springfield", 100, IntensityMedium)
	assert.Equal(t, 9, meta.TilesCreated)
}

func summaryIDs(in []PlaceSummary) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		out = append(out, p.ID)
	}
	return out
}
