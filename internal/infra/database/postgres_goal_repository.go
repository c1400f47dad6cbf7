package database

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/domain/goal"
)

type PostgresGoalRepository struct {
	db *sql.DB
}

func NewPostgresGoalRepository(db *sql.DB) *PostgresGoalRepository {
	return &PostgresGoalRepository{db: db}
}

const goalColumns = `id, user_id, name, target_amount, current_amount, deadline, created_at, updated_at`

func (r *PostgresGoalRepository) FindInProgress(ctx context.Context, minPct int) ([]*goal.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals
              WHERE target_amount > 0
                AND current_amount < target_amount
                AND current_amount * 100 >= target_amount * $1
              ORDER BY user_id, id`
	rows, err := r.db.QueryContext(ctx, query, minPct)
	if err != nil {
		return nil, fmt.Errorf("error listing in-progress goals: %w", err)
	}
	defer rows.Close()
	return collectGoals(rows)
}

func (r *PostgresGoalRepository) FindCompleted(ctx context.Context) ([]*goal.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals
              WHERE target_amount > 0 AND current_amount >= target_amount
              ORDER BY user_id, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing completed goals: %w", err)
	}
	defer rows.Close()
	return collectGoals(rows)
}

func collectGoals(rows *sql.Rows) ([]*goal.Goal, error) {
	var out []*goal.Goal
	for rows.Next() {
		g := goal.Goal{}
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount,
			&g.Deadline, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning goal row: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}
