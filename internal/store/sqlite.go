package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/rankgrid/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	request    TEXT NOT NULL,
	outcomes   TEXT,
	summary    TEXT,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateScan(ctx context.Context, req model.ScanRequest) (*model.ScanRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal request")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, request, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(reqJSON), string(model.ScanStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert scan")
	}

	return &model.ScanRun{
		ID:        id,
		Request:   req,
		Status:    model.ScanStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteScan(ctx context.Context, scanID string, outcomes []model.PointOutcome, summary model.CoverageSummary) error {
	outcomesJSON, err := json.Marshal(outcomes)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal outcomes")
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET outcomes = ?, summary = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(outcomesJSON), string(summaryJSON), string(model.ScanStatusComplete), time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete scan %s", scanID)
	}
	return checkRowsAffected(res, "scan", scanID)
}

func (s *SQLiteStore) FailScan(ctx context.Context, scanID string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.ScanStatusFailed), reason, time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail scan %s", scanID)
	}
	return checkRowsAffected(res, "scan", scanID)
}

func (s *SQLiteStore) GetScan(ctx context.Context, scanID string) (*model.ScanRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request, outcomes, summary, status, error, created_at, updated_at FROM scans WHERE id = ?`,
		scanID,
	)

	run, err := scanSQLiteRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "scan", ID: scanID}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get scan %s", scanID)
	}
	return run, nil
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRun, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, request, outcomes, summary, status, error, created_at, updated_at FROM scans`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.ScanRun
	for rows.Next() {
		run, err := scanSQLiteRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate scans")
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRow(row rowScanner) (*model.ScanRun, error) {
	var (
		run          model.ScanRun
		reqJSON      string
		outcomesJSON sql.NullString
		summaryJSON  sql.NullString
		errText      sql.NullString
	)
	if err := row.Scan(&run.ID, &reqJSON, &outcomesJSON, &summaryJSON, &run.Status, &errText, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(reqJSON), &run.Request); err != nil {
		return nil, eris.Wrap(err, "unmarshal request")
	}
	if outcomesJSON.Valid && outcomesJSON.String != "" {
		if err := json.Unmarshal([]byte(outcomesJSON.String), &run.Outcomes); err != nil {
			return nil, eris.Wrap(err, "unmarshal outcomes")
		}
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		if err := json.Unmarshal([]byte(summaryJSON.String), &run.Summary); err != nil {
			return nil, eris.Wrap(err, "unmarshal summary")
		}
	}
	run.Error = errText.String
	return &run, nil
}
