// Package csvfile reads a wide survey extract from a local CSV file. It wraps
// encoding/csv with the normalization the raw exports need in practice:
// UTF-8 BOM stripping, header renaming, soft-fail row skipping, and optional
// NFC normalization for free-text cells.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// Options configures the reader. All fields are optional; sensible defaults
// are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing whitespace from each field value.
	TrimSpace bool

	// NormalizeUnicode applies NFC normalization to cell values. Survey
	// free-text collected on mobile devices mixes composed and decomposed
	// forms; NFC makes the distinct-join dedupe see them as equal.
	NormalizeUnicode bool

	// HeaderMap maps source header names to canonical keys before the
	// default normalization (lowercase, spaces to underscores) applies.
	HeaderMap map[string]string

	// Lenient relaxes quoting rules (LazyQuotes) for exports with stray
	// quotes inside free-text answers.
	Lenient bool
}

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Read parses the file at path into a Table. The first row is always the
// header. Rows whose width does not match the header are skipped (soft-fail)
// and counted; the skipped count is returned alongside the table.
func Read(path string, opt Options) (*records.Table, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	t, skipped, err := Parse(f, opt)
	if err != nil {
		return nil, skipped, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, skipped, nil
}

// Parse consumes CSV records from r. It never buffers the entire input beyond
// the returned rows themselves.
func Parse(r io.Reader, opt Options) (*records.Table, int, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	if opt.Lenient {
		cr.LazyQuotes = true
		cr.FieldsPerRecord = -1
	}

	h, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	headers := normalizeHeaders(h, opt)

	t := &records.Table{Columns: headers}
	var skipped int
	const logLimit = 400

	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < logLimit {
				// Soft-fail this row and continue.
				log.Printf("Skipping row %d: %v", line, err)
			}
			skipped++
			continue
		}
		if len(row) != len(headers) {
			if skipped < logLimit {
				log.Printf("Skipping row %d: incorrect number of fields (expected %d, got %d)", line, len(headers), len(row))
			}
			skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			if opt.NormalizeUnicode {
				val = norm.NFC.String(val)
			}
			rec[headers[i]] = emptyToNil(val)
		}
		t.Rows = append(t.Rows, rec)
	}

	return t, skipped, nil
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders produces canonical header keys using HeaderMap (when
// provided) and simple normalization (lowercase, spaces to underscores). It
// also strips a UTF-8 BOM from the first cell if present.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if opt.HeaderMap != nil {
			if m, ok := opt.HeaderMap[c]; ok {
				res[i] = m
				continue
			}
		}
		res[i] = strings.ReplaceAll(strings.ToLower(c), " ", "_")
	}
	return res
}
