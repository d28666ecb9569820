package sink

import (
	"fmt"
	"strings"
)

// Config holds configuration for the sink backend
type Config struct {
	Type string // "csv", "sqlite" or "postgres"
	DSN  string // database file name for SQLite, DSN for Postgres
}

// New creates a Sink based on the provided configuration
func New(config Config) (Sink, error) {
	switch strings.ToLower(config.Type) {
	case "", "csv":
		return NewCSV(), nil
	case "sqlite", "sqlite3":
		return NewSQLite(config.DSN), nil
	case "postgres", "postgresql":
		if config.DSN == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgres(config.DSN)
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", config.Type)
	}
}
