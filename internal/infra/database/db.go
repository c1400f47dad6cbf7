package database

import (
	"database/sql"
	"fmt"

	"fintrack/internal/infra/config"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// NewPostgresConnection opens the PostgreSQL pool with the configured
// limits and verifies connectivity with an initial ping. Every scheduled
// cycle shares this pool, so the limits bound the whole process.
func NewPostgresConnection(cfg *config.AppConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
