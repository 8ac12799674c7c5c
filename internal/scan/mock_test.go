package scan

import (
	"context"
	"sync"

	"github.com/sells-group/rankgrid/pkg/places"
)

// mockPlaces implements places.Client for testing. search is invoked per
// coordinate; when nil, fixed results/err are returned.
type mockPlaces struct {
	mu      sync.Mutex
	calls   int
	results []places.Place
	err     error
	search  func(ctx context.Context, lat, lon float64) ([]places.Place, error)
}

func (m *mockPlaces) NearbySearch(ctx context.Context, lat, lon float64, _ string) ([]places.Place, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.search != nil {
		return m.search(ctx, lat, lon)
	}
	return m.results, m.err
}

func (m *mockPlaces) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func clinicPlaces() []places.Place {
	return []places.Place{
		{Name: "Acme Clinic", Rating: 5, UserRatingsTotal: 100},
		{Name: "Beta Clinic", Rating: 5, UserRatingsTotal: 50},
		{Name: "Gamma Clinic", Rating: 4, UserRatingsTotal: 10},
		{Name: "Delta Clinic", Rating: 3, UserRatingsTotal: 1},
	}
}
