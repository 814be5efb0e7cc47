package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/marketpipe/internal/contracts"
)

// ErrRunNotFound is returned by GetRun for unknown run ids
var ErrRunNotFound = errors.New("run not found")

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS pipeline;

CREATE TABLE IF NOT EXISTS pipeline.runs (
	run_id         TEXT PRIMARY KEY,
	started_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL,
	success        BOOLEAN NOT NULL,
	tickers        TEXT[] NOT NULL,
	primary_action TEXT,
	config         JSONB NOT NULL,
	execution_log  JSONB NOT NULL,
	errors         JSONB NOT NULL,
	final_report   JSONB
);

CREATE INDEX IF NOT EXISTS runs_finished_at_idx ON pipeline.runs (finished_at DESC);
`

// Store handles run persistence
// ⭐ SSOT: 파이프라인 실행 결과 저장/조회는 여기서만
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new run store
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the runs table when missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun upserts a finished run
func (s *Store) SaveRun(ctx context.Context, pc *contracts.PipelineContext) error {
	rec := FromContext(pc)

	configJSON, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	logJSON, err := json.Marshal(rec.ExecutionLog)
	if err != nil {
		return fmt.Errorf("failed to marshal execution log: %w", err)
	}
	errorsJSON, err := json.Marshal(rec.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}

	var reportJSON []byte
	var primaryAction *string
	if rec.Report != nil {
		if reportJSON, err = json.Marshal(rec.Report); err != nil {
			return fmt.Errorf("failed to marshal final report: %w", err)
		}
		action := string(rec.Report.ExecutiveSummary.PrimaryAction)
		primaryAction = &action
	}

	query := `
		INSERT INTO pipeline.runs (
			run_id, started_at, finished_at, success, tickers, primary_action,
			config, execution_log, errors, final_report
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			success = EXCLUDED.success,
			primary_action = EXCLUDED.primary_action,
			execution_log = EXCLUDED.execution_log,
			errors = EXCLUDED.errors,
			final_report = EXCLUDED.final_report
	`

	_, err = s.pool.Exec(ctx, query,
		rec.RunID, rec.StartedAt, rec.FinishedAt, rec.Success, rec.Tickers, primaryAction,
		configJSON, logJSON, errorsJSON, reportJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves one stored run
func (s *Store) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `
		SELECT run_id, started_at, finished_at, success, tickers,
		       config, execution_log, errors, final_report
		FROM pipeline.runs
		WHERE run_id = $1
	`

	var rec RunRecord
	var configJSON, logJSON, errorsJSON, reportJSON []byte

	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&rec.RunID, &rec.StartedAt, &rec.FinishedAt, &rec.Success, &rec.Tickers,
		&configJSON, &logJSON, &errorsJSON, &reportJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if err := json.Unmarshal(configJSON, &rec.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := json.Unmarshal(logJSON, &rec.ExecutionLog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution log: %w", err)
	}
	if err := json.Unmarshal(errorsJSON, &rec.Errors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal errors: %w", err)
	}
	if len(reportJSON) > 0 {
		rec.Report = &contracts.FinalReport{}
		if err := json.Unmarshal(reportJSON, rec.Report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal final report: %w", err)
		}
	}

	return &rec, nil
}

// ListRecent returns the latest runs, newest first
func (s *Store) ListRecent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, finished_at, success, tickers, COALESCE(primary_action, '')
		FROM pipeline.runs
		ORDER BY finished_at DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var action string
		if err := rows.Scan(&r.RunID, &r.FinishedAt, &r.Success, &r.Tickers, &action); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.PrimaryAction = contracts.Action(action)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// DeleteBefore removes runs that finished before cutoff
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pipeline.runs WHERE finished_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
