// Package store persists scan runs. Two backends are provided: SQLite for
// single-user CLI use (the default) and Postgres for shared deployments.
package store

import (
	"context"
	"database/sql"

	"github.com/sells-group/rankgrid/internal/model"
)

// ScanFilter specifies criteria for listing scan runs.
type ScanFilter struct {
	Status model.ScanStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
}

// Store defines the persistence interface for scan runs.
type Store interface {
	// CreateScan records a new scan run in the running state.
	CreateScan(ctx context.Context, req model.ScanRequest) (*model.ScanRun, error)

	// CompleteScan stores the outcomes and summary of a finished scan.
	CompleteScan(ctx context.Context, scanID string, outcomes []model.PointOutcome, summary model.CoverageSummary) error

	// FailScan marks a scan failed with a reason.
	FailScan(ctx context.Context, scanID string, reason string) error

	// GetScan fetches a scan run by ID.
	GetScan(ctx context.Context, scanID string) (*model.ScanRun, error)

	// ListScans returns recent scan runs, newest first.
	ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// checkRowsAffected converts a zero-row update into a not-found error.
func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

// NotFoundError indicates the requested record does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found: " + e.ID
}
