package notify

import (
	"context"
	"time"
)

// AuditRepository persists the audit trail of the dispatch pipeline: job
// records, per-provider attempts, and the per-day notified markers used to
// suppress duplicate sends within one calendar day.
type AuditRepository interface {
	RecordJob(ctx context.Context, job *Job) error
	UpdateStatus(ctx context.Context, jobID int64, status JobStatus, sentAt time.Time, durationMS int64) error
	RecordAttempts(ctx context.Context, jobID int64, attempts []Attempt) error

	// WasNotified reports whether a marker exists for (scope, itemID) on the
	// given calendar day. Scope names the concern ("due-today",
	// "goal-progress", ...), itemID the obligation or goal.
	WasNotified(ctx context.Context, scope string, itemID int64, day time.Time) (bool, error)
	MarkNotified(ctx context.Context, scope string, itemID int64, day time.Time) error
}
