package obligation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// MonthSummary aggregates one user's settled totals for a calendar month.
type MonthSummary struct {
	UserID       int64
	ExpenseTotal decimal.Decimal
	RevenueTotal decimal.Decimal
}

// Repository defines the persistence operations for obligations. All state
// shared across scheduler cycles lives behind this contract; the services
// re-read it on every call and never cache.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Obligation, error)
	Insert(ctx context.Context, o *Obligation) error
	// Settle marks the obligation settled and returns the updated row.
	Settle(ctx context.Context, id int64) (*Obligation, error)
	// FindByPredecessor returns the obligation chained after the given one,
	// or ErrObligationNotFound when the chain has no next link yet.
	FindByPredecessor(ctx context.Context, predecessorID int64) (*Obligation, error)

	// FindDueToday returns pending obligations of the given kind whose due
	// date equals the given calendar day.
	FindDueToday(ctx context.Context, kind Kind, day time.Time) ([]*Obligation, error)
	// FindOverdue returns pending obligations of the given kind whose due
	// date has passed.
	FindOverdue(ctx context.Context, kind Kind) ([]*Obligation, error)

	// SummarizeMonth aggregates settled amounts per user for the given
	// calendar month.
	SummarizeMonth(ctx context.Context, year int, month time.Month) ([]MonthSummary, error)
	// CountOverdue counts pending obligations of the given kind past their
	// due date, for alerting.
	CountOverdue(ctx context.Context, kind Kind) (int64, error)
}
