package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/placefinder/internal/search"
)

// WriteGeoJSON writes results as a GeoJSON FeatureCollection of points, one
// feature per place, with the tabular fields as feature properties.
func WriteGeoJSON(w io.Writer, results []search.PlaceDetail) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(results))}

	for _, r := range results {
		point := geom.NewPointFlat(geom.XY, []float64{r.Location.Lng, r.Location.Lat}).SetSRID(4326)

		props := map[string]interface{}{
			"name":    r.Name,
			"address": r.Address,
		}
		if r.Rating > 0 {
			props["rating"] = r.Rating
		}
		if r.ReviewCount > 0 {
			props["reviewCount"] = r.ReviewCount
		}
		if r.Status != "" {
			props["status"] = r.Status
		}
		if r.Phone != "" {
			props["phone"] = r.Phone
		}
		if r.Website != "" {
			props["website"] = r.Website
		}
		if r.PriceLevel != "" {
			props["priceLevel"] = r.PriceLevel
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.ID,
			Geometry:   point,
			Properties: props,
		})
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(&fc); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}
