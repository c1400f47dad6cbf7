package investment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Investment is a fixed-term holding with a maturity date. Only the
// read-side needed by the maturity warning cycle is modeled here.
type Investment struct {
	ID           int64
	UserID       int64
	Name         string
	Amount       decimal.Decimal
	YieldRate    decimal.Decimal // annual, informational only
	MaturityDate time.Time
	CreatedAt    time.Time
}

// Repository is the read contract for the maturing-investments cycle.
type Repository interface {
	// FindMaturingWithin returns investments whose maturity date falls in
	// [day, day+days].
	FindMaturingWithin(ctx context.Context, day time.Time, days int) ([]*Investment, error)
}
