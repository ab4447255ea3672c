package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/sells-group/placefinder/pkg/places"
)

// scripted is one canned text-search outcome.
type scripted struct {
	resp *places.TextSearchResponse
	err  error
}

// mockPlacesClient serves scripted text-search responses keyed by the
// request's bias rectangle and page token, and canned detail lookups.
// Each key holds a sequence; calls past the end repeat the last entry.
type mockPlacesClient struct {
	mu          sync.Mutex
	script      map[string][]scripted
	hits        map[string]int
	searchCalls int

	details    map[string]*places.Place
	detailErrs map[string]error
}

func newMockPlacesClient() *mockPlacesClient {
	return &mockPlacesClient{
		script:     make(map[string][]scripted),
		hits:       make(map[string]int),
		details:    make(map[string]*places.Place),
		detailErrs: make(map[string]error),
	}
}

// searchKey identifies a scripted response slot.
func searchKey(bias *places.LocationRect, token string) string {
	if bias == nil {
		return "global|" + token
	}
	return fmt.Sprintf("%.4f,%.4f|%s", bias.Rectangle.Low.Latitude, bias.Rectangle.Low.Longitude, token)
}

// tileKey builds the script key for a tile's first page.
func tileKey(t Tile, token string) string {
	return fmt.Sprintf("%.4f,%.4f|%s", t.Bounds.Southwest.Lat, t.Bounds.Southwest.Lng, token)
}

func (m *mockPlacesClient) on(key string, seq ...scripted) {
	m.script[key] = seq
}

func (m *mockPlacesClient) TextSearch(_ context.Context, req places.TextSearchRequest) (*places.TextSearchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++

	key := searchKey(req.LocationBias, req.PageToken)
	seq, ok := m.script[key]
	if !ok || len(seq) == 0 {
		return &places.TextSearchResponse{}, nil
	}

	idx := m.hits[key]
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	m.hits[key]++

	s := seq[idx]
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (m *mockPlacesClient) Details(_ context.Context, placeID string) (*places.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.detailErrs[placeID]; ok {
		return nil, err
	}
	if p, ok := m.details[placeID]; ok {
		return p, nil
	}
	return &places.Place{ID: placeID}, nil
}

// wirePlace builds an upstream place record with the given id and name.
func wirePlace(id, name string) places.Place {
	return places.Place{
		ID:               id,
		DisplayName:      places.DisplayName{Text: name},
		FormattedAddress: name + " Ave 1",
		Location:         &places.LatLng{Latitude: 39.8, Longitude: -89.6},
	}
}

func wirePlaces(ids ...string) []places.Place {
	out := make([]places.Place, 0, len(ids))
	for _, id := range ids {
		out = append(out, wirePlace(id, "Place "+id))
	}
	return out
}

// mockResolver implements LocationResolver.
type mockResolver struct {
	area  *Area
	calls int
	err   error
}

func (m *mockResolver) Resolve(_ context.Context, _ string) (*Area, int, error) {
	if m.err != nil {
		return nil, m.calls, m.err
	}
	return m.area, m.calls, nil
}

// fastOrchestratorConfig disables all delays for tests.
func fastOrchestratorConfig() OrchestratorConfig {
	cfg := DefaultOrchestratorConfig()
	cfg.PageDelay = 0
	cfg.BatchDelay = 0
	cfg.RetryBackoff = 1 // effectively immediate
	cfg.RateLimit = 10000
	return cfg
}

func fastCoordinatorConfig() CoordinatorConfig {
	cfg := DefaultCoordinatorConfig()
	cfg.PageDelay = 0
	cfg.RetryBackoff = 1
	return cfg
}
