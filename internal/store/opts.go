package store

import "strings"

// Opts holds configuration options for storage backends.
type Opts struct {
	DSN          string // database connection string (file path for SQLite)
	MaxOpenConns int    // connection pool cap, 0 means the backend default
}

// Option defines a configuration option for a storage backend.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithMaxOpenConns caps the database connection pool. Non-positive values
// keep the backend default.
func WithMaxOpenConns(n int) Option {
	return func(o *Opts) {
		o.MaxOpenConns = n
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// use URL or key=value form; anything else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
