// Package search implements wide-area place discovery: free-text query
// parsing, location resolution, grid partitioning, batched tile search with
// dedup and merge, and concurrent detail enrichment.
package search

import "fmt"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is an axis-aligned rectangle given by its southwest and
// northeast corners.
type BoundingBox struct {
	Southwest Coordinate `json:"southwest"`
	Northeast Coordinate `json:"northeast"`
}

// Normalize returns the box with corners reordered so that
// Southwest ≤ Northeast on both axes.
func (b BoundingBox) Normalize() BoundingBox {
	if b.Southwest.Lat > b.Northeast.Lat {
		b.Southwest.Lat, b.Northeast.Lat = b.Northeast.Lat, b.Southwest.Lat
	}
	if b.Southwest.Lng > b.Northeast.Lng {
		b.Southwest.Lng, b.Northeast.Lng = b.Northeast.Lng, b.Southwest.Lng
	}
	return b
}

// LatSpan returns the box's latitude extent in degrees.
func (b BoundingBox) LatSpan() float64 {
	return b.Northeast.Lat - b.Southwest.Lat
}

// LngSpan returns the box's longitude extent in degrees.
func (b BoundingBox) LngSpan() float64 {
	return b.Northeast.Lng - b.Southwest.Lng
}

// Tile is one rectangular sub-region of a partitioned search area,
// identified by its row/column position in the grid.
type Tile struct {
	Row    int         `json:"row"`
	Col    int         `json:"col"`
	Bounds BoundingBox `json:"bounds"`
}

// ID returns the tile's stable grid identifier, e.g. "r1c2".
func (t Tile) ID() string {
	return fmt.Sprintf("r%dc%d", t.Row, t.Col)
}

// Intensity is the user-facing knob controlling grid density.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Density returns the base tiles-per-side for the intensity.
func (i Intensity) Density() int {
	switch i {
	case IntensityMedium:
		return 3
	case IntensityHigh:
		return 4
	default:
		return 2
	}
}

// ParseIntensity maps a request string to an Intensity, defaulting to low.
func ParseIntensity(s string) Intensity {
	switch Intensity(s) {
	case IntensityMedium:
		return IntensityMedium
	case IntensityHigh:
		return IntensityHigh
	default:
		return IntensityLow
	}
}

// PlaceSummary is one upstream search result. ID is the upstream place
// identifier and is the sole identity for deduplication.
type PlaceSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Location    Coordinate `json:"location"`
	Rating      float64    `json:"rating,omitempty"`
	ReviewCount int        `json:"reviewCount,omitempty"`
	Status      string     `json:"status,omitempty"`
	Website     string     `json:"website,omitempty"`
	PriceLevel  string     `json:"priceLevel,omitempty"`
}

// Review is a truncated user review carried on an enriched place.
type Review struct {
	Author       string  `json:"author"`
	Rating       float64 `json:"rating"`
	Text         string  `json:"text"`
	RelativeTime string  `json:"relativeTime"`
}

// PlaceDetail is an enriched result. When detail lookup fails it carries
// the summary fields unchanged and an empty review list.
type PlaceDetail struct {
	PlaceSummary
	Phone   string   `json:"phone,omitempty"`
	Reviews []Review `json:"reviews"`
}

// TileLog is the per-tile diagnostic record.
type TileLog struct {
	Tile      string      `json:"tile"`
	Bounds    BoundingBox `json:"bounds"`
	Pages     int         `json:"pages"`
	Raw       int         `json:"raw"`
	NewUnique int         `json:"newUnique"`
	Calls     int         `json:"calls"`
}

// Meta is the call-accounting record carried through a search. It never
// affects control flow.
type Meta struct {
	Strategy       string    `json:"strategy"`
	TilesCreated   int       `json:"tilesCreated"`
	TilesProcessed int       `json:"tilesProcessed"`
	RawResults     int       `json:"rawResults"`
	UniqueResults  int       `json:"uniqueResults"`
	TileLogs       []TileLog `json:"tileLogs,omitempty"`
	GeocodeCalls   int       `json:"geocodeCalls"`
	SearchCalls    int       `json:"searchCalls"`
	DetailsCalls   int       `json:"detailsCalls"`
	TotalAPICalls  int       `json:"totalApiCalls"`
	Error          string    `json:"error,omitempty"`
}

// Strategy values reported in Meta.
const (
	StrategyStandard = "standard"
	StrategyGrid     = "grid"
	StrategyFallback = "standard_fallback"
)

// Request is an inbound search request.
type Request struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults,omitempty"`
	Intensity  string `json:"searchIntensity,omitempty"`
}

// Response is the final result list plus accounting metadata.
type Response struct {
	Results      []PlaceDetail `json:"results"`
	APICallsUsed int           `json:"apiCallsUsed"`
	Meta         Meta          `json:"meta"`
}
