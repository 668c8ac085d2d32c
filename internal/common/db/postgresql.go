package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgreSQLConfig holds the configuration for PostgreSQL connection pool
type PostgreSQLConfig struct {
	// DSN is the data source name
	// Format: "user=postgres password=password host=localhost port=5432 dbname=dbname sslmode=disable"
	DSN string `yaml:"dsn"`

	// MaxOpenConnections is the maximum number of open connections to the database
	// Default: 25
	MaxOpenConnections int `yaml:"maxOpenConnections"`

	// MaxIdleConnections is the maximum number of connections in the idle connection pool
	// Default: 5
	MaxIdleConnections int `yaml:"maxIdleConnections"`

	// ConnMaxLifetime is the maximum amount of time a connection may be reused
	// Default: 5 minutes
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`

	// ConnMaxIdleTime is the maximum amount of time a connection may be idle
	// Default: 10 minutes
	ConnMaxIdleTime time.Duration `yaml:"connMaxIdleTime"`
}

// DefaultPostgreSQLConfig returns the default PostgreSQL configuration
func DefaultPostgreSQLConfig() *PostgreSQLConfig {
	return &PostgreSQLConfig{
		MaxOpenConnections: 25,
		MaxIdleConnections: 5,
		ConnMaxLifetime:    5 * time.Minute,
		ConnMaxIdleTime:    10 * time.Minute,
	}
}

// PostgreSQL implements the Database interface using PostgreSQL driver with connection pooling
type PostgreSQL struct {
	db     *sql.DB
	config *PostgreSQLConfig
}

// NewPostgreSQL creates a new PostgreSQL database connection with connection pool
// DSN format: "user=postgres password=password host=localhost port=5432 dbname=dbname sslmode=disable"
func NewPostgreSQL(dsn string) (*PostgreSQL, error) {
	config := DefaultPostgreSQLConfig()
	config.DSN = dsn
	return NewPostgreSQLWithConfig(config)
}

// NewPostgreSQLWithConfig creates a new PostgreSQL database connection with custom configuration
func NewPostgreSQLWithConfig(config *PostgreSQLConfig) (*PostgreSQL, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.DSN == "" {
		return nil, fmt.Errorf("DSN cannot be empty")
	}

	if config.MaxOpenConnections == 0 {
		config.MaxOpenConnections = 25
	}
	if config.MaxIdleConnections == 0 {
		config.MaxIdleConnections = 5
	}
	if config.ConnMaxLifetime == 0 {
		config.ConnMaxLifetime = 5 * time.Minute
	}
	if config.ConnMaxIdleTime == 0 {
		config.ConnMaxIdleTime = 10 * time.Minute
	}

	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConnections)
	db.SetMaxIdleConns(config.MaxIdleConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgreSQL{db: db, config: config}, nil
}

// NewPostgreSQLWithDB creates a PostgreSQL instance from an existing sql.DB
func NewPostgreSQLWithDB(db *sql.DB) (*PostgreSQL, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgreSQL{db: db, config: DefaultPostgreSQLConfig()}, nil
}

// Query executes a query that returns rows
func (p *PostgreSQL) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return &sqlRows{rows: rows}, nil
}

// QueryRow executes a query that returns at most one row
func (p *PostgreSQL) QueryRow(ctx context.Context, query string, args ...interface{}) Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows
func (p *PostgreSQL) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	return result, nil
}

// Transaction executes a function within a database transaction
func (p *PostgreSQL) Transaction(ctx context.Context, fn func(tx Transaction) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}

	sqlTx := &sqlTransaction{tx: tx}
	if err := fn(sqlTx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	return sqlTx.Commit()
}

// Ping verifies a connection to the database is still alive
func (p *PostgreSQL) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (p *PostgreSQL) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}
