package scan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rankgrid/internal/model"
)

func TestGenerate_PointCount(t *testing.T) {
	center := model.Coordinate{Latitude: 30.0, Longitude: -97.0}
	for _, size := range []int{1, 2, 3, 5, 7} {
		points, err := Generate(center, 1.0, size)
		require.NoError(t, err)
		assert.Len(t, points, size*size, "grid size %d", size)
	}
}

func TestGenerate_EmptyGrid(t *testing.T) {
	center := model.Coordinate{Latitude: 30.0, Longitude: -97.0}

	points, err := Generate(center, 1.0, 0)
	require.NoError(t, err)
	assert.Empty(t, points)

	points, err = Generate(center, 1.0, -3)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestGenerate_SymmetricAroundCenter(t *testing.T) {
	center := model.Coordinate{Latitude: 30.0, Longitude: -97.0}
	points, err := Generate(center, 2.0, 5)
	require.NoError(t, err)

	minLat, maxLat := points[0].Latitude, points[0].Latitude
	minLon, maxLon := points[0].Longitude, points[0].Longitude
	for _, p := range points {
		minLat = math.Min(minLat, p.Latitude)
		maxLat = math.Max(maxLat, p.Latitude)
		minLon = math.Min(minLon, p.Longitude)
		maxLon = math.Max(maxLon, p.Longitude)
	}

	assert.InDelta(t, center.Latitude, (minLat+maxLat)/2, 1e-9)
	assert.InDelta(t, center.Longitude, (minLon+maxLon)/2, 1e-9)
	assert.InDelta(t, 2.0/MilesPerDegreeLat, (maxLat-minLat)/2, 1e-9)
}

func TestGenerate_LongitudeExtentGrowsTowardPoles(t *testing.T) {
	// A degree of longitude is shorter at high latitude, so covering the
	// same radius in miles needs a wider longitude span.
	extent := func(lat float64) float64 {
		points, err := Generate(model.Coordinate{Latitude: lat, Longitude: 0}, 1.0, 2)
		require.NoError(t, err)
		return points[1].Longitude - points[0].Longitude
	}

	atEquator := extent(0)
	atSixty := extent(60)
	assert.Greater(t, atSixty, atEquator)
	// cos(60 degrees) = 0.5, so the span should be about double.
	assert.InDelta(t, 2.0, atSixty/atEquator, 1e-6)
}

func TestGenerate_RowMajorOrder(t *testing.T) {
	points, err := Generate(model.Coordinate{Latitude: 30.0, Longitude: -97.0}, 1.0, 3)
	require.NoError(t, err)
	require.Len(t, points, 9)

	// All longitudes for the first latitude come first.
	assert.Equal(t, points[0].Latitude, points[1].Latitude)
	assert.Equal(t, points[0].Latitude, points[2].Latitude)
	assert.Less(t, points[0].Longitude, points[1].Longitude)
	assert.Less(t, points[1].Longitude, points[2].Longitude)

	// Then latitude advances.
	assert.Greater(t, points[3].Latitude, points[2].Latitude)
	assert.Equal(t, points[0].Longitude, points[3].Longitude)
}

func TestGenerate_InvalidInput(t *testing.T) {
	center := model.Coordinate{Latitude: 30.0, Longitude: -97.0}

	_, err := Generate(center, 0, 3)
	assert.Error(t, err)

	_, err = Generate(center, -1.5, 3)
	assert.Error(t, err)

	_, err = Generate(center, math.NaN(), 3)
	assert.Error(t, err)

	_, err = Generate(center, math.Inf(1), 3)
	assert.Error(t, err)

	_, err = Generate(model.Coordinate{Latitude: 91, Longitude: 0}, 1.0, 3)
	assert.Error(t, err)

	_, err = Generate(model.Coordinate{Latitude: 0, Longitude: -181}, 1.0, 3)
	assert.Error(t, err)
}
