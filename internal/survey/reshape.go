package survey

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// ReshapeOptions configure the wide-to-long expansion pass.
type ReshapeOptions struct {
	ExpandOptions

	// Workers sets the expansion fan-out. Each wide row expands
	// independently, so rows can be processed in parallel; results are
	// merged back in input order. Workers <= 1 runs the sequential
	// reference path.
	Workers int
}

// Reshape expands a whole wide table into DQC-annotated long records.
//
// Structural requirements are enforced up front: the table must be non-empty
// and carry a response_id column with a unique, non-blank value per row.
// Everything else degrades per-cell (opaque strings, null records, failed
// flags) rather than failing the run.
func Reshape(ctx context.Context, t *records.Table, opts ReshapeOptions) ([]LongRecord, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, fmt.Errorf("reshape: empty input table")
	}
	if !t.HasColumn("response_id") {
		return nil, fmt.Errorf("reshape: input is missing response_id column")
	}
	seen := make(map[string]int, len(t.Rows))
	for i, w := range t.Rows {
		rid, err := ResponseID(w)
		if err != nil {
			return nil, fmt.Errorf("reshape: row %d: %w", i, err)
		}
		if prev, dup := seen[rid]; dup {
			return nil, fmt.Errorf("reshape: duplicate response_id %q (rows %d and %d)", rid, prev, i)
		}
		seen[rid] = i
	}

	plan := CompilePlan(t.Columns)

	perRow := make([][]LongRecord, len(t.Rows))
	expand := func(i int) {
		w := t.Rows[i]
		recs := plan.Expand(w, opts.ExpandOptions)
		selected := SelectedCategories(recs)
		for j := range recs {
			res := CheckRecord(&recs[j], w, selected)
			recs[j].DQC = &res
		}
		perRow[i] = recs
	}

	if opts.Workers <= 1 {
		for i := range t.Rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			expand(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		idx := make(chan int)
		for w := 0; w < opts.Workers; w++ {
			g.Go(func() error {
				for i := range idx {
					expand(i)
				}
				return nil
			})
		}
		g.Go(func() error {
			defer close(idx)
			for i := range t.Rows {
				select {
				case idx <- i:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	var n int
	for _, recs := range perRow {
		n += len(recs)
	}
	out := make([]LongRecord, 0, n)
	for _, recs := range perRow {
		out = append(out, recs...)
	}
	return out, nil
}

// LongTable renders long records as a flat table for audit output. Column
// order: the meta columns present on the records, then question_key,
// category, value, source, original_field, then the DQC columns when
// includeDQC is set.
func LongTable(longRecs []LongRecord, includeDQC bool) *records.Table {
	out := &records.Table{}
	if len(longRecs) == 0 {
		return out
	}
	var metaCols []string
	for _, m := range MetaCols {
		if _, ok := longRecs[0].Meta[m]; ok {
			metaCols = append(metaCols, m)
		}
	}
	out.Columns = append(out.Columns, metaCols...)
	out.Columns = append(out.Columns, "question_key", "category", "value", "source", "original_field")
	if includeDQC {
		out.Columns = append(out.Columns, DqcCols...)
	}

	boolCell := func(b bool) any {
		if b {
			return "true"
		}
		return "false"
	}

	for i := range longRecs {
		r := &longRecs[i]
		row := make(records.Record, len(out.Columns))
		for _, m := range metaCols {
			row[m] = r.Meta[m]
		}
		row["question_key"] = r.QuestionKey
		if r.Category != "" {
			row["category"] = r.Category
		}
		row["value"] = r.Value
		row["source"] = r.Source
		row["original_field"] = r.OriginalField
		if includeDQC && r.DQC != nil {
			row["dq_present"] = boolCell(r.DQC.Present)
			row["dq_valid_choice"] = boolCell(r.DQC.ValidChoice)
			row["dq_numeric_ok"] = boolCell(r.DQC.NumericOK)
			row["dq_dependency_ok"] = boolCell(r.DQC.DependencyOK)
			row["dq_contact_ok"] = boolCell(r.DQC.ContactOK)
			row["dq_gps_ok"] = boolCell(r.DQC.GPSOK)
			row["dq_pass"] = boolCell(r.DQC.Pass)
			if r.DQC.FailedReason != "" {
				row["dq_failed_reason"] = r.DQC.FailedReason
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
