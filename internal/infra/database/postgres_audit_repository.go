package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/domain/notify"
)

var ErrJobNotFound = fmt.Errorf("notification job not found")

// PostgresAuditRepository implements notify.AuditRepository. Jobs and their
// attempts are append-mostly audit rows; notified markers carry the per-day
// dedup state between cycles.
type PostgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

func (r *PostgresAuditRepository) RecordJob(ctx context.Context, job *notify.Job) error {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return fmt.Errorf("error marshaling job payload: %w", err)
	}
	query := `INSERT INTO notification_jobs (user_id, recipient, channel, template_id, payload, status)
              VALUES ($1, $2, $3, $4, $5, $6)
              RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query,
		job.UserID, job.Recipient, job.Channel, job.TemplateID, payload, job.Status,
	).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return fmt.Errorf("error recording notification job: %w", err)
	}
	return nil
}

func (r *PostgresAuditRepository) UpdateStatus(ctx context.Context, jobID int64, status notify.JobStatus, sentAt time.Time, durationMS int64) error {
	query := `UPDATE notification_jobs SET status = $1, sent_at = $2, duration_ms = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, sentAt, durationMS, jobID)
	if err != nil {
		return fmt.Errorf("error updating job %d status: %w", jobID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *PostgresAuditRepository) RecordAttempts(ctx context.Context, jobID int64, attempts []notify.Attempt) error {
	if len(attempts) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for attempts: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO delivery_attempts
              (job_id, attempt_number, provider, attempted_at, ok, skipped, message_id, error)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for attempts: %w", err)
	}
	defer stmt.Close()

	for i, a := range attempts {
		if _, err := stmt.ExecContext(ctx, jobID, i+1, a.Provider, a.At, a.OK, a.Skipped, a.MessageID, a.Err); err != nil {
			return fmt.Errorf("error recording attempt %d for job %d: %w", i+1, jobID, err)
		}
	}

	return txn.Commit()
}

func (r *PostgresAuditRepository) WasNotified(ctx context.Context, scope string, itemID int64, day time.Time) (bool, error) {
	dateOnly := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	query := `SELECT EXISTS (SELECT 1 FROM notified_markers WHERE scope = $1 AND item_id = $2 AND day = $3)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, scope, itemID, dateOnly).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking notified marker: %w", err)
	}
	return exists, nil
}

func (r *PostgresAuditRepository) MarkNotified(ctx context.Context, scope string, itemID int64, day time.Time) error {
	dateOnly := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	query := `INSERT INTO notified_markers (scope, item_id, day) VALUES ($1, $2, $3)
              ON CONFLICT (scope, item_id, day) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, scope, itemID, dateOnly); err != nil {
		return fmt.Errorf("error writing notified marker: %w", err)
	}
	return nil
}
