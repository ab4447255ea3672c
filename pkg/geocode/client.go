// Package geocode resolves free-text location phrases to coordinates and
// viewport bounds via the Google Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Client resolves a location phrase to a coordinate and optional bounds.
type Client interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// LatLng is a coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a southwest/northeast rectangle around a geocoded area.
type Bounds struct {
	Southwest LatLng `json:"southwest"`
	Northeast LatLng `json:"northeast"`
}

// Result holds the geocoding output for an address. Matched is false when
// the API answered but found nothing (ZERO_RESULTS); that is not an error.
type Result struct {
	Location         LatLng
	Bounds           *Bounds
	FormattedAddress string
	Matched          bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for geocoding calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type geocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a geocoding Client.
func NewClient(apiKey string, opts ...Option) Client {
	g := &geocoder{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(10, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// geocodeResponse is the JSON response from the Geocoding API.
type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
	Status  string          `json:"status"`
}

type geocodeResult struct {
	Geometry struct {
		Location LatLng  `json:"location"`
		Bounds   *Bounds `json:"bounds"`
		Viewport *Bounds `json:"viewport"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

func (g *geocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"address": {address},
		"key":     {g.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var geoResp geocodeResponse
	if err := json.Unmarshal(body, &geoResp); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	if geoResp.Status != "OK" || len(geoResp.Results) == 0 {
		return &Result{Matched: false}, nil
	}

	first := geoResp.Results[0]

	// The geometry carries explicit bounds for areas; fall back to the
	// viewport, which is always present but may be a point-sized box.
	bounds := first.Geometry.Bounds
	if bounds == nil {
		bounds = first.Geometry.Viewport
	}

	return &Result{
		Location:         first.Geometry.Location,
		Bounds:           bounds,
		FormattedAddress: first.FormattedAddress,
		Matched:          true,
	}, nil
}
