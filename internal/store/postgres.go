package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rankgrid/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	request    JSONB NOT NULL,
	outcomes   JSONB,
	summary    JSONB,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateScan(ctx context.Context, req model.ScanRequest) (*model.ScanRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal request")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scans (id, request, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, reqJSON, string(model.ScanStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert scan")
	}

	return &model.ScanRun{
		ID:        id,
		Request:   req,
		Status:    model.ScanStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteScan(ctx context.Context, scanID string, outcomes []model.PointOutcome, summary model.CoverageSummary) error {
	outcomesJSON, err := json.Marshal(outcomes)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal outcomes")
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET outcomes = $1, summary = $2, status = $3, updated_at = $4 WHERE id = $5`,
		outcomesJSON, summaryJSON, string(model.ScanStatusComplete), time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete scan %s", scanID)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "scan", ID: scanID}
	}
	return nil
}

func (s *PostgresStore) FailScan(ctx context.Context, scanID string, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.ScanStatusFailed), reason, time.Now().UTC(), scanID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail scan %s", scanID)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "scan", ID: scanID}
	}
	return nil
}

func (s *PostgresStore) GetScan(ctx context.Context, scanID string) (*model.ScanRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, request, outcomes, summary, status, error, created_at, updated_at FROM scans WHERE id = $1`,
		scanID,
	)

	run, err := scanPostgresRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "scan", ID: scanID}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get scan %s", scanID)
	}
	return run, nil
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRun, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, request, outcomes, summary, status, error, created_at, updated_at FROM scans`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, string(filter.Status), limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var runs []model.ScanRun
	for rows.Next() {
		run, err := scanPostgresRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate scans")
}

func scanPostgresRow(row pgx.Row) (*model.ScanRun, error) {
	var (
		run          model.ScanRun
		reqJSON      []byte
		outcomesJSON []byte
		summaryJSON  []byte
		errText      *string
	)
	if err := row.Scan(&run.ID, &reqJSON, &outcomesJSON, &summaryJSON, &run.Status, &errText, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(reqJSON, &run.Request); err != nil {
		return nil, eris.Wrap(err, "unmarshal request")
	}
	if len(outcomesJSON) > 0 {
		if err := json.Unmarshal(outcomesJSON, &run.Outcomes); err != nil {
			return nil, eris.Wrap(err, "unmarshal outcomes")
		}
	}
	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
			return nil, eris.Wrap(err, "unmarshal summary")
		}
	}
	if errText != nil {
		run.Error = *errText
	}
	return &run, nil
}
