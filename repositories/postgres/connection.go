package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/upb/structured-logger/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// WrapDB wraps an existing pool, for tests and callers that manage their own *sql.DB
func WrapDB(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{
		DB:     db,
		logger: logger,
	}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// InitSchema creates the structured_logs and employees tables.
// Columns mirror the structured record; context is stored as JSONB.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS structured_logs (
			id BIGSERIAL PRIMARY KEY,
			args TEXT NOT NULL DEFAULT '',
			causer_id VARCHAR(255) NOT NULL DEFAULT '',
			causer_type VARCHAR(255) NOT NULL DEFAULT '',
			context JSONB NOT NULL DEFAULT '{}',
			data_id VARCHAR(255) NOT NULL DEFAULT '',
			data_type VARCHAR(255) NOT NULL DEFAULT '',
			datetime VARCHAR(32) NOT NULL,
			delta BIGINT,
			env VARCHAR(100),
			impersonator VARCHAR(255) NOT NULL DEFAULT '',
			level VARCHAR(20) NOT NULL,
			message TEXT NOT NULL,
			process_context VARCHAR(20) NOT NULL,
			process_id VARCHAR(255) NOT NULL,
			process_start VARCHAR(32),
			remote_address VARCHAR(45) NOT NULL DEFAULT '',
			request_method VARCHAR(10) NOT NULL DEFAULT '',
			request_query TEXT NOT NULL DEFAULT '',
			request_url TEXT NOT NULL DEFAULT '',
			service VARCHAR(100) NOT NULL DEFAULT '',
			status_code INTEGER NOT NULL DEFAULT 0,
			type VARCHAR(20) NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_structured_logs_process_id ON structured_logs(process_id);
		CREATE INDEX IF NOT EXISTS idx_structured_logs_type ON structured_logs(type);
		CREATE INDEX IF NOT EXISTS idx_structured_logs_data ON structured_logs(data_type, data_id);
		CREATE INDEX IF NOT EXISTS idx_structured_logs_datetime ON structured_logs(datetime);

		CREATE TABLE IF NOT EXISTS employees (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			title VARCHAR(255) NOT NULL DEFAULT '',
			ssn VARCHAR(32) NOT NULL DEFAULT '',
			salary BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
