package survey

import (
	"encoding/json"
	"sort"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// ResponsesCol is the nested-JSON answer blob column found in legacy DQC
// extracts (one JSON object per row instead of flat question columns).
const ResponsesCol = "responses"

// FlattenNested adapts a legacy extract to the flat wide shape the engine
// expects: each row's responses blob is parsed and its keys promoted to
// top-level columns, with nested arrays/objects re-serialized as compact
// JSON text per the input-table contract. An unparseable blob contributes
// nothing for that row. Top-level columns keep precedence over blob keys of
// the same name.
//
// This supersedes the old per-question reporting path; flattened tables flow
// through the same expander and validator as native wide extracts.
func FlattenNested(t *records.Table) *records.Table {
	if t == nil || !t.HasColumn(ResponsesCol) {
		return t
	}

	out := &records.Table{}
	topLevel := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c == ResponsesCol {
			continue
		}
		topLevel[c] = struct{}{}
		out.Columns = append(out.Columns, c)
	}

	type parsedRow struct {
		rec  records.Record
		blob map[string]any
		keys []string
	}
	parsed := make([]parsedRow, 0, len(t.Rows))
	promoted := make(map[string]struct{})

	for _, w := range t.Rows {
		pr := parsedRow{rec: w}
		if s, ok := AsString(w[ResponsesCol]); ok {
			var blob map[string]any
			if err := json.Unmarshal([]byte(s), &blob); err == nil {
				pr.blob = blob
				pr.keys = sortedKeys(blob)
				for _, k := range pr.keys {
					if _, clash := topLevel[k]; clash {
						continue
					}
					if _, dup := promoted[k]; !dup {
						promoted[k] = struct{}{}
						out.Columns = append(out.Columns, k)
					}
				}
			}
		}
		parsed = append(parsed, pr)
	}

	for _, pr := range parsed {
		row := make(records.Record, len(out.Columns))
		for c := range topLevel {
			row[c] = pr.rec[c]
		}
		for _, k := range pr.keys {
			if _, ok := promoted[k]; !ok {
				continue
			}
			row[k] = scalarOrNil(pr.blob[k])
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
