package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/domain/investment"
)

type PostgresInvestmentRepository struct {
	db *sql.DB
}

func NewPostgresInvestmentRepository(db *sql.DB) *PostgresInvestmentRepository {
	return &PostgresInvestmentRepository{db: db}
}

func (r *PostgresInvestmentRepository) FindMaturingWithin(ctx context.Context, day time.Time, days int) ([]*investment.Investment, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, days)
	query := `SELECT id, user_id, name, amount, yield_rate, maturity_date, created_at
              FROM investments
              WHERE maturity_date >= $1 AND maturity_date <= $2
              ORDER BY maturity_date, user_id, id`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error listing maturing investments: %w", err)
	}
	defer rows.Close()

	var out []*investment.Investment
	for rows.Next() {
		inv := investment.Investment{}
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Name, &inv.Amount, &inv.YieldRate,
			&inv.MaturityDate, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning investment row: %w", err)
		}
		out = append(out, &inv)
	}
	return out, rows.Err()
}
