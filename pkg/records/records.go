// Package records defines the shared tabular types flowing through the
// pipeline. A Record is one row keyed by column name; a Table couples a set
// of rows with an explicit column order so CSV output stays deterministic.
//
// Cell convention: every cell is either nil or a string. Input providers are
// responsible for pre-serializing semi-structured values (JSON arrays and
// objects) as JSON text before rows enter the engine.
package records

// Record is a single row. Values are string or nil.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered set of rows. Columns fixes the output column order;
// rows may carry a subset of the columns (missing keys read as nil).
type Table struct {
	Columns []string
	Rows    []Record
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends name to the column list if not already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}
