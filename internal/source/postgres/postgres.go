// Package postgres extracts the wide survey table directly from the response
// database using pgx v5. The extract query is supplied by configuration (the
// joins between responses and farmer_responses live in SQL, not here); this
// package only runs it and adapts the result set to the engine's table shape.
package postgres

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// Extractor runs extract queries against one pool.
type Extractor struct {
	pool *pgxpool.Pool
}

// New connects a pool and returns the extractor with a Close function for
// cleanup.
func New(ctx context.Context, dsn string) (*Extractor, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Extractor{pool: pool}, pool.Close, nil
}

// LoadQuery reads an extract query from a .sql file.
func LoadQuery(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load query: %w", err)
	}
	return string(b), nil
}

// Extract runs query and materializes the result set as a wide table. Column
// names come from the result descriptor; cell values are normalized to the
// string-or-nil convention.
func (e *Extractor) Extract(ctx context.Context, query string) (*records.Table, error) {
	rows, err := e.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("extract query: %w", err)
	}
	defer rows.Close()

	t := &records.Table{}
	for _, fd := range rows.FieldDescriptions() {
		t.Columns = append(t.Columns, fd.Name)
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("extract row %d: %w", len(t.Rows), err)
		}
		rec := make(records.Record, len(t.Columns))
		for i, c := range t.Columns {
			rec[c] = cellValue(vals[i])
		}
		t.Rows = append(t.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return t, nil
}

// cellValue flattens a driver value to the string-or-nil cell convention.
// JSON/JSONB columns arrive as decoded maps/slices from pgx; those pass
// through untouched for the structured-value parser.
func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return t
	case []byte:
		if len(t) == 0 {
			return nil
		}
		return string(t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		return t.Format(time.RFC3339)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case map[string]any, []any:
		return t
	default:
		return fmt.Sprint(t)
	}
}
