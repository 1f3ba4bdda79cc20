// Package sqlite persists the normalized long table to a local SQLite file
// for ad-hoc inspection (joins against DQC flags, rechecks of single
// respondents). It uses database/sql with batched INSERTs inside a
// transaction; SQLite has no bulk-load API like Postgres COPY, but
// transactions keep performance acceptable for survey volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver; replace with your preferred driver if desired.
	_ "modernc.org/sqlite" // alternative: github.com/mattn/go-sqlite3

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// DefaultTable is the audit table name when configuration leaves it empty.
const DefaultTable = "vca_long"

// Sink writes tables into one SQLite database file.
type Sink struct {
	db    *sql.DB
	table string
}

// Open opens (or creates) the database at path and returns a Sink plus a
// Close function for cleanup.
func Open(ctx context.Context, path, table string) (*Sink, func(), error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, fmt.Errorf("sqlite: path must not be empty")
	}
	if table == "" {
		table = DefaultTable
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Fail fast on an unwritable or corrupt file.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Sink{db: db, table: table}, closeFn, nil
}

// WriteTable replaces the audit table with the contents of t. All columns are
// TEXT; nil cells store as NULL. It returns the number of rows inserted.
func (s *Sink) WriteTable(ctx context.Context, t *records.Table) (int64, error) {
	if len(t.Columns) == 0 {
		return 0, fmt.Errorf("sqlite: table has no columns")
	}

	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident(s.table)); err != nil {
		return 0, fmt.Errorf("sqlite: drop: %w", err)
	}
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = ident(c) + " TEXT"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", ident(s.table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return 0, fmt.Errorf("sqlite: create: %w", err)
	}
	if len(t.Rows) == 0 {
		return 0, nil
	}

	cols := make([]string, len(t.Columns))
	placeholders := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = ident(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		ident(s.table), strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	args := make([]any, len(t.Columns))
	for _, rec := range t.Rows {
		for i, c := range t.Columns {
			args[i] = rec[c]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: insert: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// ident double-quotes an identifier; question keys with the "__" separator
// are safe but quoting keeps any header usable.
func ident(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
