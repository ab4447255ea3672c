package search

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/placefinder/pkg/geocode"
)

// ErrLocationUnresolvable signals that every geocoding phrasing attempt
// failed. The coordinator degrades to a standard search on it; it is never
// surfaced as a request failure.
var ErrLocationUnresolvable = eris.New("search: location unresolvable")

// Area is a resolved search area: a center point and a bounding box.
type Area struct {
	Center Coordinate
	Box    BoundingBox
}

// LocationResolver turns a location phrase into an Area.
type LocationResolver interface {
	// Resolve returns the area and the number of upstream calls consumed.
	Resolve(ctx context.Context, location string) (*Area, int, error)
}

// Resolver resolves location phrases via geocoding, trying phrasing
// variants in order until one matches.
type Resolver struct {
	geo       geocode.Client
	country   string
	radiusDeg float64
}

// NewResolver creates a Resolver. country is appended as a fallback
// phrasing qualifier; radiusDeg sizes the synthesized box when the geocoder
// returns no bounds.
func NewResolver(geo geocode.Client, country string, radiusDeg float64) *Resolver {
	if radiusDeg <= 0 {
		radiusDeg = 0.25
	}
	return &Resolver{geo: geo, country: country, radiusDeg: radiusDeg}
}

// Resolve geocodes the location phrase. Each attempted variant consumes one
// call unit whether or not it succeeds.
func (r *Resolver) Resolve(ctx context.Context, location string) (*Area, int, error) {
	log := zap.L().With(zap.String("component", "search.resolver"))

	variants := []string{location}
	if r.country != "" {
		variants = append(variants, location+", "+r.country)
	}

	calls := 0
	for _, variant := range variants {
		res, err := r.geo.Geocode(ctx, variant)
		calls++
		if err != nil {
			log.Warn("geocode attempt failed", zap.String("variant", variant), zap.Error(err))
			continue
		}
		if !res.Matched {
			log.Debug("geocode no match", zap.String("variant", variant))
			continue
		}

		area := r.buildArea(res)
		log.Debug("location resolved",
			zap.String("variant", variant),
			zap.Float64("lat", area.Center.Lat),
			zap.Float64("lng", area.Center.Lng),
		)
		return area, calls, nil
	}

	return nil, calls, eris.Wrapf(ErrLocationUnresolvable, "search: geocode %q", location)
}

func (r *Resolver) buildArea(res *geocode.Result) *Area {
	center := Coordinate{Lat: res.Location.Lat, Lng: res.Location.Lng}

	if res.Bounds != nil {
		return &Area{
			Center: center,
			Box: BoundingBox{
				Southwest: Coordinate{Lat: res.Bounds.Southwest.Lat, Lng: res.Bounds.Southwest.Lng},
				Northeast: Coordinate{Lat: res.Bounds.Northeast.Lat, Lng: res.Bounds.Northeast.Lng},
			}.Normalize(),
		}
	}

	// No upstream bounds: synthesize a box of ±radius around the center.
	return &Area{
		Center: center,
		Box: BoundingBox{
			Southwest: Coordinate{Lat: center.Lat - r.radiusDeg, Lng: center.Lng - r.radiusDeg},
			Northeast: Coordinate{Lat: center.Lat + r.radiusDeg, Lng: center.Lng + r.radiusDeg},
		},
	}
}
