package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vgbench/internal/measure"

	_ "github.com/lib/pq"
)

// Postgres writes tables to a shared PostgreSQL database. Tables are named
// <benchmark>__<name> and replaced on every write.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects to dsn and verifies the connection.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// TableName returns the table a destination maps to.
func (p *Postgres) TableName(dst Destination) string {
	name := FileName(dst.Name)
	if dst.Benchmark != "" {
		name = FileName(dst.Benchmark) + "__" + name
	}
	return strings.ToLower(name)
}

func (p *Postgres) Write(ctx context.Context, dst Destination, table measure.Table) (string, error) {
	if err := validate(table); err != nil {
		return "", err
	}
	name := p.TableName(dst)
	if err := replaceTable(ctx, p.db, name, table, postgresPlaceholder); err != nil {
		return "", err
	}
	return "postgres:" + name, nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

func postgresPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }
