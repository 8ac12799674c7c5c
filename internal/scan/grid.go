// Package scan implements the grid rank-tracking engine: grid generation
// over a bounding box, deterministic competitor ranking, bounded-concurrency
// scanning across grid points, and coverage aggregation.
package scan

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rankgrid/internal/model"
)

// MilesPerDegreeLat is the approximate length of one degree of latitude.
// Longitude degrees shrink toward the poles and are corrected by cos(lat).
const MilesPerDegreeLat = 69.0

// Generate returns a gridSize x gridSize lattice of sample coordinates
// covering a square box of +/- radiusMiles around center. Points are in
// row-major order: all longitudes for the first latitude, then the next
// latitude. gridSize < 1 yields an empty grid and no error.
func Generate(center model.Coordinate, radiusMiles float64, gridSize int) ([]model.Coordinate, error) {
	if radiusMiles <= 0 || math.IsNaN(radiusMiles) || math.IsInf(radiusMiles, 0) {
		return nil, eris.Errorf("grid: radius_miles must be a positive number, got %v", radiusMiles)
	}
	if center.Latitude < -90 || center.Latitude > 90 {
		return nil, eris.Errorf("grid: latitude out of range: %v", center.Latitude)
	}
	if center.Longitude < -180 || center.Longitude > 180 {
		return nil, eris.Errorf("grid: longitude out of range: %v", center.Longitude)
	}
	if gridSize < 1 {
		return nil, nil
	}

	latExtent := radiusMiles / MilesPerDegreeLat
	lonExtent := radiusMiles / (MilesPerDegreeLat * math.Cos(center.Latitude*math.Pi/180))

	lats := linspace(center.Latitude-latExtent, center.Latitude+latExtent, gridSize)
	lons := linspace(center.Longitude-lonExtent, center.Longitude+lonExtent, gridSize)

	points := make([]model.Coordinate, 0, gridSize*gridSize)
	for _, lat := range lats {
		for _, lon := range lons {
			points = append(points, model.Coordinate{Latitude: lat, Longitude: lon})
		}
	}
	return points, nil
}

// linspace returns n evenly spaced values from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	vals := make([]float64, n)
	if n == 1 {
		vals[0] = lo
		return vals
	}
	step := (hi - lo) / float64(n-1)
	for i := range vals {
		vals[i] = lo + float64(i)*step
	}
	// Avoid accumulated float drift on the final endpoint.
	vals[n-1] = hi
	return vals
}
