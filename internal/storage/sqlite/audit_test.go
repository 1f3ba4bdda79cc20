package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

func testTable() *records.Table {
	return &records.Table{
		Columns: []string{"response_id", "question_key", "value", "dq_pass"},
		Rows: []records.Record{
			{"response_id": "r1", "question_key": "q1_type_of_vca", "value": "Individual", "dq_pass": "true"},
			{"response_id": "r1", "question_key": "q12_tin_number", "value": nil, "dq_pass": "false"},
		},
	}
}

func TestWriteTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")

	sink, closeFn, err := Open(ctx, path, "")
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	n, err := sink.WriteTable(ctx, testTable())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("inserted=%d", n)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM "vca_long"`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("count=%d", count)
	}

	// nil cells persist as NULL, not empty string.
	var val sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT value FROM "vca_long" WHERE question_key = 'q12_tin_number'`).Scan(&val)
	if err != nil {
		t.Fatal(err)
	}
	if val.Valid {
		t.Fatalf("nil cell stored as %q", val.String)
	}
}

func TestWriteTableReplaces(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")

	sink, closeFn, err := Open(ctx, path, "audit_run")
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	if _, err := sink.WriteTable(ctx, testTable()); err != nil {
		t.Fatal(err)
	}
	// A second run replaces, not appends.
	if _, err := sink.WriteTable(ctx, testTable()); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var count int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM "audit_run"`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("count=%d after rewrite", count)
	}
}

func TestOpenValidation(t *testing.T) {
	if _, _, err := Open(context.Background(), "", "x"); err == nil {
		t.Fatalf("empty path must fail")
	}
}

func TestWriteTableNoColumns(t *testing.T) {
	ctx := context.Background()
	sink, closeFn, err := Open(ctx, filepath.Join(t.TempDir(), "a.db"), "")
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, err := sink.WriteTable(ctx, &records.Table{}); err == nil {
		t.Fatalf("empty schema must fail")
	}
}
