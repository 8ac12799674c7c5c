package model

import (
	"time"
)

// Coordinate is a single sampled grid point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PlaceResult is one business candidate returned by the places provider,
// normalized so absent rating/review fields read as zero.
type PlaceResult struct {
	PlaceID     string  `json:"place_id,omitempty"`
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// ErrorKind classifies a point-level or scan-level failure.
type ErrorKind string

const (
	ErrorInvalidInput ErrorKind = "invalid_input"
	ErrorTransport    ErrorKind = "transport"
	ErrorRateLimited  ErrorKind = "rate_limited"
	ErrorCancelled    ErrorKind = "cancelled"
)

// PointOutcome is the result of processing one grid point. When Error is set
// the ranking fields are zero-valued and the point counts as "not found"
// downstream. TargetRank is 1-based over the full ranked candidate list;
// 0 means the target was not found at this point.
type PointOutcome struct {
	Coordinate     Coordinate    `json:"coordinate"`
	TargetRank     int           `json:"target_rank,omitempty"`
	TopCompetitors []PlaceResult `json:"top_competitors,omitempty"`
	TargetRecord   *PlaceResult  `json:"target_record,omitempty"`
	Error          ErrorKind     `json:"error,omitempty"`
}

// Found reports whether the target business was located at this point.
func (o PointOutcome) Found() bool {
	return o.TargetRank > 0
}

// CoverageSummary aggregates all PointOutcomes of one scan.
// AverageRankWhereFound is nil when the target was found nowhere.
type CoverageSummary struct {
	TotalPoints           int      `json:"total_points"`
	FoundCount            int      `json:"found_count"`
	Top3Count             int      `json:"top3_count"`
	Top10Count            int      `json:"top10_count"`
	AverageRankWhereFound *float64 `json:"average_rank_where_found"`
}

// ScanRequest holds the configuration for one grid scan.
type ScanRequest struct {
	Center      Coordinate `json:"center"`
	RadiusMiles float64    `json:"radius_miles"`
	GridSize    int        `json:"grid_size"`
	Keyword     string     `json:"keyword"`
	Target      string     `json:"target"` // target business name substring
	Concurrency int        `json:"concurrency,omitempty"`
}

// ScanStatus represents the state of a persisted scan run.
type ScanStatus string

const (
	ScanStatusRunning  ScanStatus = "running"
	ScanStatusComplete ScanStatus = "complete"
	ScanStatusFailed   ScanStatus = "failed"
)

// ScanRun is a persisted scan: the request, the per-point outcomes in
// grid order, and the derived coverage summary.
type ScanRun struct {
	ID        string          `json:"id"`
	Request   ScanRequest     `json:"request"`
	Outcomes  []PointOutcome  `json:"outcomes,omitempty"`
	Summary   CoverageSummary `json:"summary"`
	Status    ScanStatus      `json:"status"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
