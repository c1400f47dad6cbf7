package obligation

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Kind distinguishes money going out from money coming in.
type Kind string

const (
	KindExpense Kind = "EXPENSE"
	KindRevenue Kind = "REVENUE"
)

// Status tracks whether an obligation has been paid/received.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSettled Status = "SETTLED"
)

// Obligation is a recurring or one-off financial entry with a due date.
// Corresponds to the 'obligations' table.
type Obligation struct {
	ID              int64
	UserID          int64
	Kind            Kind
	Title           string
	Amount          decimal.Decimal
	CategoryID      sql.NullInt64
	DueDate         time.Time // date part only
	Frequency       Frequency
	RecurrenceEnd   sql.NullTime
	InterestRate    decimal.Decimal // expense: monthly interest applied when overdue
	PenaltyRate     decimal.Decimal // expense: one-off late penalty
	WithholdingRate decimal.Decimal // revenue: tax withheld at settlement
	Status          Status
	PredecessorID   sql.NullInt64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Successor builds the next pending instance of a recurring obligation.
// Title, amount, category and the recurrence rule carry over; interest,
// penalty and withholding reset to zero for the fresh instance.
func (o *Obligation) Successor(dueDate time.Time) *Obligation {
	return &Obligation{
		UserID:        o.UserID,
		Kind:          o.Kind,
		Title:         o.Title,
		Amount:        o.Amount,
		CategoryID:    o.CategoryID,
		DueDate:       dueDate,
		Frequency:     o.Frequency,
		RecurrenceEnd: o.RecurrenceEnd,
		Status:        StatusPending,
		PredecessorID: sql.NullInt64{Int64: o.ID, Valid: true},
	}
}
