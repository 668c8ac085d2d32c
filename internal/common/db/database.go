package db

import "context"

// Database is the unified interface over a relational database connection pool.
// It abstracts the concrete driver (MySQL, PostgreSQL) so repositories depend
// on the capability set, not on the backend chosen at deployment time.
type Database interface {
	Querier

	// Transaction executes fn within a database transaction. The transaction
	// is rolled back when fn returns an error, committed otherwise.
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	// Ping verifies a connection to the database is still alive
	Ping(ctx context.Context) error

	// Close closes the database connection
	Close() error
}

// Querier abstracts database operations for both database and transaction.
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
}

// Transaction represents an in-flight database transaction.
type Transaction interface {
	Querier

	Commit() error
	Rollback() error
}

// Rows is the result of a query returning multiple rows.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Row is the result of a query returning at most one row.
type Row interface {
	Scan(dest ...interface{}) error
}

// Result summarizes an executed statement.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Scanner is satisfied by both Row and Rows.
type Scanner interface {
	Scan(dest ...interface{}) error
}
