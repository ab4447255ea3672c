package search

// GridConfig controls grid partitioning.
type GridConfig struct {
	// AutoScaleSpanDeg is the span above which density is bumped by one.
	AutoScaleSpanDeg float64
	// MaxDensity caps the (possibly bumped) tiles-per-side.
	MaxDensity int
}

// DefaultGridConfig returns the standard partitioning parameters.
func DefaultGridConfig() GridConfig {
	return GridConfig{AutoScaleSpanDeg: 0.5, MaxDensity: 6}
}

// spanEpsilon absorbs float noise when a span sits at the auto-scale
// threshold: a synthesized (center ± radius) box can come out a few ulps
// over the nominal 0.5°, which must not trip the bump.
const spanEpsilon = 1e-9

// GridDensity returns the tiles-per-side for a box and intensity: the
// intensity's base density, bumped by one when the box's larger span
// exceeds the auto-scale threshold, capped at MaxDensity.
func GridDensity(box BoundingBox, intensity Intensity, cfg GridConfig) int {
	density := intensity.Density()

	b := box.Normalize()
	span := b.LatSpan()
	if s := b.LngSpan(); s > span {
		span = s
	}
	if span > cfg.AutoScaleSpanDeg+spanEpsilon {
		density++
	}
	if cfg.MaxDensity > 0 && density > cfg.MaxDensity {
		density = cfg.MaxDensity
	}
	return density
}

// Partition divides box into density² non-overlapping tiles that cover it
// exactly. Tiles are ordered row-major: row index advances along latitude
// from the southwest corner, column index along longitude.
func Partition(box BoundingBox, intensity Intensity, cfg GridConfig) []Tile {
	box = box.Normalize()
	density := GridDensity(box, intensity, cfg)

	cellLat := box.LatSpan() / float64(density)
	cellLng := box.LngSpan() / float64(density)

	tiles := make([]Tile, 0, density*density)
	for i := 0; i < density; i++ {
		for j := 0; j < density; j++ {
			tiles = append(tiles, Tile{
				Row: i,
				Col: j,
				Bounds: BoundingBox{
					Southwest: Coordinate{
						Lat: box.Southwest.Lat + float64(i)*cellLat,
						Lng: box.Southwest.Lng + float64(j)*cellLng,
					},
					Northeast: Coordinate{
						Lat: box.Southwest.Lat + float64(i+1)*cellLat,
						Lng: box.Southwest.Lng + float64(j+1)*cellLng,
					},
				},
			})
		}
	}
	return tiles
}
