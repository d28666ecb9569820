package sink

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"vgbench/internal/measure"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultSQLiteFile is the database file created inside each benchmark directory.
const DefaultSQLiteFile = "history.db"

// SQLite writes each table into <dir>/<file>, one SQL table per destination
// name. A table is replaced on every write so it always holds a single run.
type SQLite struct {
	file string
}

// NewSQLite returns a SQLite sink. An empty file name uses DefaultSQLiteFile.
func NewSQLite(file string) *SQLite {
	if file == "" {
		file = DefaultSQLiteFile
	}
	return &SQLite{file: file}
}

func (s *SQLite) Write(ctx context.Context, dst Destination, table measure.Table) (string, error) {
	if err := validate(table); err != nil {
		return "", err
	}

	path := filepath.Join(dst.Dir, s.file)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return "", fmt.Errorf("failed to ping database: %w", err)
	}

	name := FileName(dst.Name)
	if err := replaceTable(ctx, db, name, table, sqlitePlaceholder); err != nil {
		return "", err
	}
	return path + "#" + name, nil
}

func (s *SQLite) Close() error { return nil }

func sqlitePlaceholder(int) string { return "?" }

// replaceTable drops and recreates name, then inserts all rows in one transaction.
func replaceTable(ctx context.Context, db *sql.DB, name string, table measure.Table, placeholder func(int) string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ident := quoteIdent(name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(ident, table.Columns)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(ident, table.Columns, placeholder))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		if _, err := stmt.ExecContext(ctx, toArgs(row)...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func createTableSQL(ident string, columns []string) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = quoteIdent(c) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident, strings.Join(cols, ", "))
}

func insertSQL(ident string, columns []string, placeholder func(int) string) string {
	cols := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = quoteIdent(c)
		marks[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", ident, strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func toArgs(row []string) []any {
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v
	}
	return args
}
