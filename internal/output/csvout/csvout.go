// Package csvout writes engine tables to CSV files. Cells follow the
// string-or-nil convention; nil renders as an empty field.
package csvout

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// Write renders t to w. The header row is t.Columns; row cells are looked up
// by column name so map ordering never leaks into the file.
func Write(w io.Writer, t *records.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(t.Columns))
	for i, rec := range t.Rows {
		for j, c := range t.Columns {
			row[j] = cellText(rec[c])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes t to path, creating or truncating the file.
func WriteFile(path string, t *records.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// cellText renders one cell. Non-string non-nil values should not reach the
// writer, but render via Sprint rather than panicking.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
