// Package runqueue is a DB-backed queue of match-run requests
// (FOR UPDATE SKIP LOCKED over a status column), so `reclink serve`
// can accept run requests without an in-process queue that's lost on
// restart.
package runqueue

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Run is one queued or in-flight match-run request.
type Run struct {
	ID         string    `db:"id"`
	ConfigPath string    `db:"config_path"`
	OutputDir  string    `db:"output_dir"`
	Status     string    `db:"status"`
	Attempts   int       `db:"attempts"`
	LastError  *string   `db:"last_error"`
	Total      *int      `db:"total_candidates"`
	Matched    *int      `db:"matched_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Queue polls the match_runs table for work. Safe for one poller
// goroutine; ClaimNext's row lock means concurrent pollers against the
// same table (e.g. multiple reclink serve instances) never double-claim.
type Queue struct {
	DB             *sqlx.DB
	Logger         *zap.Logger
	StaleThreshold time.Duration
	MaxAttempts    int
}

// New returns a Queue with a 10-minute stale threshold. Match runs
// default to one attempt since a partial run leaves no usable partial
// output to resume from.
func New(db *sqlx.DB, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{DB: db, Logger: logger, StaleThreshold: 10 * time.Minute, MaxAttempts: 1}
}

// Enqueue inserts a new queued run request and returns its id.
func (q *Queue) Enqueue(configPath, outputDir string) (string, error) {
	id := uuid.NewString()
	_, err := q.DB.Exec(`
		INSERT INTO match_runs (id, config_path, output_dir, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, 'queued', 0, NOW(), NOW())
	`, id, configPath, outputDir)
	if err != nil {
		return "", fmt.Errorf("runqueue: enqueue: %w", err)
	}
	return id, nil
}

// RecoverStale requeues runs stuck in "running" past StaleThreshold.
func (q *Queue) RecoverStale() {
	result, err := q.DB.Exec(`
		UPDATE match_runs SET status = 'queued', updated_at = NOW()
		WHERE status = 'running' AND updated_at < NOW() - $1::interval
	`, fmt.Sprintf("%d minutes", int(q.StaleThreshold.Minutes())))
	if err != nil {
		q.Logger.Warn("recover stale runs failed", zap.Error(err))
		return
	}
	if n, _ := result.RowsAffected(); n > 0 {
		q.Logger.Info("recovered stale runs", zap.Int64("count", n))
	}
}

// ClaimNext locks and returns the oldest queued (or stale running) run,
// marking it running, or nil if nothing is available.
func (q *Queue) ClaimNext() (*Run, error) {
	tx, err := q.DB.Beginx()
	if err != nil {
		return nil, fmt.Errorf("runqueue: begin claim: %w", err)
	}
	defer tx.Rollback()

	var run Run
	err = tx.Get(&run, fmt.Sprintf(`
		SELECT id, config_path, output_dir, status, attempts, last_error,
		       total_candidates, matched_count, created_at, updated_at
		FROM match_runs
		WHERE status = 'queued'
		   OR (status = 'running' AND updated_at < NOW() - '%d minutes'::interval)
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, int(q.StaleThreshold.Minutes())))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runqueue: claim query: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE match_runs SET status = 'running', attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1
	`, run.ID); err != nil {
		return nil, fmt.Errorf("runqueue: claim update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("runqueue: claim commit: %w", err)
	}
	run.Status = "running"
	run.Attempts++

	q.Logger.Info("claimed run", zap.String("run_id", run.ID), zap.String("config", run.ConfigPath))
	return &run, nil
}

// Complete marks a run finished successfully.
func (q *Queue) Complete(runID string) error {
	_, err := q.DB.Exec(`
		UPDATE match_runs SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, runID)
	if err != nil {
		return fmt.Errorf("runqueue: complete: %w", err)
	}
	return nil
}

// Fail marks a run failed, or requeues it if it has attempts remaining.
func (q *Queue) Fail(run *Run, runErr error) error {
	msg := runErr.Error()
	status := "failed"
	if run.Attempts < q.MaxAttempts {
		status = "queued"
	}
	_, err := q.DB.Exec(`
		UPDATE match_runs SET status = $1, last_error = $2, updated_at = NOW()
		WHERE id = $3
	`, status, msg, run.ID)
	if err != nil {
		return fmt.Errorf("runqueue: fail: %w", err)
	}
	return nil
}

// SetProgress records the driver's running totals for status polling.
func (q *Queue) SetProgress(runID string, total, matched int) error {
	_, err := q.DB.Exec(`
		UPDATE match_runs SET total_candidates = $1, matched_count = $2, updated_at = NOW()
		WHERE id = $3
	`, total, matched, runID)
	if err != nil {
		return fmt.Errorf("runqueue: set progress: %w", err)
	}
	return nil
}
