package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/internal/scan"
	"github.com/sells-group/rankgrid/internal/store"
	"github.com/sells-group/rankgrid/pkg/places"
)

// fakePlaces serves fixed results for every coordinate.
type fakePlaces struct {
	results []places.Place
	err     error
}

func (f *fakePlaces) NearbySearch(_ context.Context, _, _ float64, _ string) ([]places.Place, error) {
	return f.results, f.err
}

// memStore implements store.Store in memory for handler tests.
type memStore struct {
	runs    map[string]*model.ScanRun
	created int
	failed  []string
}

func newMemStore() *memStore {
	return &memStore{runs: make(map[string]*model.ScanRun)}
}

func (m *memStore) CreateScan(_ context.Context, req model.ScanRequest) (*model.ScanRun, error) {
	m.created++
	run := &model.ScanRun{
		ID:      fmt.Sprintf("scan-%d", m.created),
		Request: req,
		Status:  model.ScanStatusRunning,
	}
	m.runs[run.ID] = run
	return run, nil
}

func (m *memStore) CompleteScan(_ context.Context, scanID string, outcomes []model.PointOutcome, summary model.CoverageSummary) error {
	run, ok := m.runs[scanID]
	if !ok {
		return &store.NotFoundError{Entity: "scan", ID: scanID}
	}
	run.Outcomes = outcomes
	run.Summary = summary
	run.Status = model.ScanStatusComplete
	return nil
}

func (m *memStore) FailScan(_ context.Context, scanID, reason string) error {
	m.failed = append(m.failed, scanID)
	if run, ok := m.runs[scanID]; ok {
		run.Status = model.ScanStatusFailed
		run.Error = reason
	}
	return nil
}

func (m *memStore) GetScan(_ context.Context, scanID string) (*model.ScanRun, error) {
	run, ok := m.runs[scanID]
	if !ok {
		return nil, &store.NotFoundError{Entity: "scan", ID: scanID}
	}
	return run, nil
}

func (m *memStore) ListScans(_ context.Context, _ store.ScanFilter) ([]model.ScanRun, error) {
	var runs []model.ScanRun
	for _, run := range m.runs {
		runs = append(runs, *run)
	}
	return runs, nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

func clinicFixture() []places.Place {
	return []places.Place{
		{Name: "Acme Clinic", Rating: 5, UserRatingsTotal: 100},
		{Name: "Beta Clinic", Rating: 5, UserRatingsTotal: 50},
		{Name: "Gamma Clinic", Rating: 4, UserRatingsTotal: 10},
	}
}

func testServer(t *testing.T, fp *fakePlaces, st store.Store) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newRouter(scan.NewScanner(fp), st))
	t.Cleanup(srv.Close)
	return srv
}

func postScan(t *testing.T, srv *httptest.Server, req model.ScanRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/scans", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func scanReqFixture() model.ScanRequest {
	return model.ScanRequest{
		Center:      model.Coordinate{Latitude: 30.0, Longitude: -97.0},
		RadiusMiles: 1.0,
		GridSize:    2,
		Keyword:     "clinic",
		Target:      "beta",
	}
}

func TestServe_Health(t *testing.T) {
	srv := testServer(t, &fakePlaces{}, newMemStore())

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServe_PostScan(t *testing.T) {
	st := newMemStore()
	srv := testServer(t, &fakePlaces{results: clinicFixture()}, st)

	resp := postScan(t, srv, scanReqFixture())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run model.ScanRun
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, model.ScanStatusComplete, run.Status)
	require.Len(t, run.Outcomes, 4)
	assert.Equal(t, 2, run.Outcomes[0].TargetRank)
	assert.Equal(t, 4, run.Summary.FoundCount)
	require.NotNil(t, run.Summary.AverageRankWhereFound)
	assert.InDelta(t, 2.0, *run.Summary.AverageRankWhereFound, 1e-9)

	// Persisted too.
	stored, err := st.GetScan(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusComplete, stored.Status)
}

func TestServe_PostScan_MissingFields(t *testing.T) {
	srv := testServer(t, &fakePlaces{}, newMemStore())

	req := scanReqFixture()
	req.Keyword = ""
	resp := postScan(t, srv, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServe_PostScan_InvalidRadius(t *testing.T) {
	st := newMemStore()
	srv := testServer(t, &fakePlaces{}, st)

	req := scanReqFixture()
	req.RadiusMiles = -1
	resp := postScan(t, srv, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, st.failed, 1, "the created run is marked failed")
}

func TestServe_PostScan_BadBody(t *testing.T) {
	srv := testServer(t, &fakePlaces{}, newMemStore())

	resp, err := http.Post(srv.URL+"/scans", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServe_GetScan(t *testing.T) {
	st := newMemStore()
	run, err := st.CreateScan(context.Background(), scanReqFixture())
	require.NoError(t, err)

	srv := testServer(t, &fakePlaces{}, st)

	resp, err := http.Get(srv.URL + "/scans/" + run.ID)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.ScanRun
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, run.ID, got.ID)
}

func TestServe_GetScan_NotFound(t *testing.T) {
	srv := testServer(t, &fakePlaces{}, newMemStore())

	resp, err := http.Get(srv.URL + "/scans/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServe_ListScans(t *testing.T) {
	st := newMemStore()
	_, err := st.CreateScan(context.Background(), scanReqFixture())
	require.NoError(t, err)

	srv := testServer(t, &fakePlaces{}, st)

	resp, err := http.Get(srv.URL + "/scans")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runs []model.ScanRun
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Len(t, runs, 1)
}
