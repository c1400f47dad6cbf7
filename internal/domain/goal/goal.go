package goal

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target the user is working toward.
type Goal struct {
	ID            int64
	UserID        int64
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProgressPercent returns how far along the goal is, 0-100+. A zero target
// counts as fully reached so it never divides by zero.
func (g *Goal) ProgressPercent() decimal.Decimal {
	if g.TargetAmount.IsZero() {
		return decimal.NewFromInt(100)
	}
	return g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Round(1)
}

// Completed reports whether the saved amount has reached the target.
func (g *Goal) Completed() bool {
	return !g.TargetAmount.IsZero() && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Repository is the read contract for the goal-progress and
// achievement-check cycles.
type Repository interface {
	// FindInProgress returns active goals whose progress is at least minPct
	// percent but below 100.
	FindInProgress(ctx context.Context, minPct int) ([]*Goal, error)
	// FindCompleted returns goals whose saved amount reached the target.
	FindCompleted(ctx context.Context) ([]*Goal, error)
}
