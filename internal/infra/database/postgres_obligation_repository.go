// internal/infra/database/postgres_obligation_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/domain/obligation"
)

// Custom errors specific to obligation repository
var ErrObligationNotFound = fmt.Errorf("obligation not found")
var ErrObligationAlreadySettled = fmt.Errorf("obligation already settled")

const obligationColumns = `id, user_id, kind, title, amount, category_id, due_date, frequency,
	recurrence_end, interest_rate, penalty_rate, withholding_rate, status, predecessor_id,
	created_at, updated_at`

type PostgresObligationRepository struct {
	db *sql.DB
}

func NewPostgresObligationRepository(db *sql.DB) *PostgresObligationRepository {
	return &PostgresObligationRepository{db: db}
}

func (r *PostgresObligationRepository) FindByID(ctx context.Context, id int64) (*obligation.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE id = $1`
	o, err := scanObligation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrObligationNotFound
		}
		return nil, fmt.Errorf("error getting obligation by ID: %w", err)
	}
	return o, nil
}

func (r *PostgresObligationRepository) Insert(ctx context.Context, o *obligation.Obligation) error {
	query := `INSERT INTO obligations (user_id, kind, title, amount, category_id, due_date, frequency,
                recurrence_end, interest_rate, penalty_rate, withholding_rate, status, predecessor_id)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
              RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		o.UserID, o.Kind, o.Title, o.Amount, o.CategoryID, o.DueDate, string(o.Frequency),
		o.RecurrenceEnd, o.InterestRate, o.PenaltyRate, o.WithholdingRate, o.Status, o.PredecessorID,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting obligation: %w", err)
	}
	return nil
}

// Settle flips the obligation to SETTLED and returns the updated row. The
// WHERE clause re-checks the current status so a retried call surfaces
// ErrObligationAlreadySettled instead of silently rewriting timestamps.
func (r *PostgresObligationRepository) Settle(ctx context.Context, id int64) (*obligation.Obligation, error) {
	query := `UPDATE obligations
              SET status = $1, updated_at = NOW()
              WHERE id = $2 AND status = $3
              RETURNING ` + obligationColumns
	o, err := scanObligation(r.db.QueryRowContext(ctx, query, obligation.StatusSettled, id, obligation.StatusPending))
	if err != nil {
		if err == sql.ErrNoRows {
			// Either the row is missing or it is already settled; a second
			// lookup tells them apart.
			existing, lookupErr := r.FindByID(ctx, id)
			return resolveSettleMiss(id, existing, lookupErr)
		}
		return nil, fmt.Errorf("error settling obligation %d: %w", id, err)
	}
	return o, nil
}

// resolveSettleMiss classifies an UPDATE that matched no row, using the
// follow-up lookup of the same id. A transient lookup failure must not
// masquerade as a missing row.
func resolveSettleMiss(id int64, existing *obligation.Obligation, lookupErr error) (*obligation.Obligation, error) {
	switch {
	case lookupErr == nil && existing.Status == obligation.StatusSettled:
		return existing, ErrObligationAlreadySettled
	case lookupErr == nil || lookupErr == ErrObligationNotFound:
		return nil, ErrObligationNotFound
	default:
		return nil, fmt.Errorf("error settling obligation %d: %w", id, lookupErr)
	}
}

func (r *PostgresObligationRepository) FindByPredecessor(ctx context.Context, predecessorID int64) (*obligation.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE predecessor_id = $1 ORDER BY id LIMIT 1`
	o, err := scanObligation(r.db.QueryRowContext(ctx, query, predecessorID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrObligationNotFound
		}
		return nil, fmt.Errorf("error getting obligation by predecessor: %w", err)
	}
	return o, nil
}

func (r *PostgresObligationRepository) FindDueToday(ctx context.Context, kind obligation.Kind, day time.Time) ([]*obligation.Obligation, error) {
	dateOnly := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	query := `SELECT ` + obligationColumns + ` FROM obligations
              WHERE kind = $1 AND status = $2 AND due_date = $3
              ORDER BY user_id, id`
	rows, err := r.db.QueryContext(ctx, query, kind, obligation.StatusPending, dateOnly)
	if err != nil {
		return nil, fmt.Errorf("error listing obligations due today: %w", err)
	}
	defer rows.Close()
	return collectObligations(rows)
}

func (r *PostgresObligationRepository) FindOverdue(ctx context.Context, kind obligation.Kind) ([]*obligation.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations
              WHERE kind = $1 AND status = $2 AND due_date < CURRENT_DATE
              ORDER BY due_date, user_id, id`
	rows, err := r.db.QueryContext(ctx, query, kind, obligation.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("error listing overdue obligations: %w", err)
	}
	defer rows.Close()
	return collectObligations(rows)
}

func (r *PostgresObligationRepository) SummarizeMonth(ctx context.Context, year int, month time.Month) ([]obligation.MonthSummary, error) {
	query := `SELECT user_id,
                COALESCE(SUM(amount) FILTER (WHERE kind = $1), 0) AS expense_total,
                COALESCE(SUM(amount) FILTER (WHERE kind = $2), 0) AS revenue_total
              FROM obligations
              WHERE status = $3
                AND due_date >= $4 AND due_date < $5
              GROUP BY user_id
              ORDER BY user_id`
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	rows, err := r.db.QueryContext(ctx, query,
		obligation.KindExpense, obligation.KindRevenue, obligation.StatusSettled, from, to)
	if err != nil {
		return nil, fmt.Errorf("error summarizing month: %w", err)
	}
	defer rows.Close()

	var summaries []obligation.MonthSummary
	for rows.Next() {
		var s obligation.MonthSummary
		if err := rows.Scan(&s.UserID, &s.ExpenseTotal, &s.RevenueTotal); err != nil {
			return nil, fmt.Errorf("error scanning month summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *PostgresObligationRepository) CountOverdue(ctx context.Context, kind obligation.Kind) (int64, error) {
	query := `SELECT COUNT(*) FROM obligations WHERE kind = $1 AND status = $2 AND due_date < CURRENT_DATE`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, kind, obligation.StatusPending).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting overdue obligations: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObligation(row rowScanner) (*obligation.Obligation, error) {
	o := obligation.Obligation{}
	var frequency string
	err := row.Scan(
		&o.ID, &o.UserID, &o.Kind, &o.Title, &o.Amount, &o.CategoryID, &o.DueDate, &frequency,
		&o.RecurrenceEnd, &o.InterestRate, &o.PenaltyRate, &o.WithholdingRate, &o.Status,
		&o.PredecessorID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Frequency = obligation.ParseFrequency(frequency)
	return &o, nil
}

func collectObligations(rows *sql.Rows) ([]*obligation.Obligation, error) {
	var out []*obligation.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning obligation row: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
