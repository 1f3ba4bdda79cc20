package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rodgersmerokaosumo/VCA-PULA/internal/config"
	"github.com/rodgersmerokaosumo/VCA-PULA/internal/metrics"
	"github.com/rodgersmerokaosumo/VCA-PULA/internal/output/csvout"
	"github.com/rodgersmerokaosumo/VCA-PULA/internal/source/csvfile"
	"github.com/rodgersmerokaosumo/VCA-PULA/internal/source/postgres"
	"github.com/rodgersmerokaosumo/VCA-PULA/internal/storage/sqlite"
	"github.com/rodgersmerokaosumo/VCA-PULA/internal/survey"
	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// run executes one full pipeline: build the input table, reshape + validate,
// write the long output and audit sink, pivot, write the wide output. Each
// step reports its duration and outcome to the metrics backend.
func run(ctx context.Context, p config.Pipeline, verbose bool) error {
	job := p.Job

	start := time.Now()
	input, skipped, err := buildInput(ctx, p)
	metrics.RecordStep(job, "extract", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRow(job, "rows_in", int64(len(input.Rows)))
	metrics.RecordRow(job, "rows_skipped", int64(skipped))
	log.Printf("input: rows=%d cols=%d skipped=%d", len(input.Rows), len(input.Columns), skipped)

	if p.Reshape.FlattenNested {
		input = survey.FlattenNested(input)
		if verbose {
			log.Printf("flatten: cols=%d", len(input.Columns))
		}
	}

	start = time.Now()
	longs, err := survey.Reshape(ctx, input, survey.ReshapeOptions{
		ExpandOptions: survey.ExpandOptions{LabelCategories: p.Reshape.LabelCategories},
		Workers:       p.Reshape.Workers,
	})
	metrics.RecordStep(job, "reshape", err, time.Since(start))
	if err != nil {
		return err
	}
	var failures int64
	for i := range longs {
		if longs[i].DQC != nil && !longs[i].DQC.Pass {
			failures++
		}
	}
	metrics.RecordRow(job, "long_records", int64(len(longs)))
	metrics.RecordRow(job, "dqc_failures", failures)
	log.Printf("reshape: long_records=%d dqc_failures=%d", len(longs), failures)

	if p.Output.LongPath != "" || p.Audit.Path != "" {
		longTab := survey.LongTable(longs, true)
		if p.Output.LongPath != "" {
			if err := csvout.WriteFile(p.Output.LongPath, longTab); err != nil {
				return err
			}
			log.Printf("long: path=%s rows=%d cols=%d fingerprint=%s",
				p.Output.LongPath, len(longTab.Rows), len(longTab.Columns), csvout.Fingerprint(longTab))
		}
		if p.Audit.Path != "" {
			if err := writeAudit(ctx, p, longTab); err != nil {
				return err
			}
		}
	}

	if p.Output.WidePath != "" {
		start = time.Now()
		wide, err := survey.Pivot(longs, survey.PivotOptions{
			Granularity: survey.Granularity(p.Pivot.Granularity),
			ColSep:      p.Pivot.ColSep,
			Joiner:      p.Pivot.Joiner,
			IncludeDQC:  p.Pivot.IncludeDQC,
			DqcCols:     p.Pivot.DqcCols,
		})
		metrics.RecordStep(job, "pivot", err, time.Since(start))
		if err != nil {
			return err
		}
		metrics.RecordRow(job, "rows_out", int64(len(wide.Rows)))
		if err := csvout.WriteFile(p.Output.WidePath, wide); err != nil {
			return err
		}
		log.Printf("wide: path=%s rows=%d cols=%d fingerprint=%s",
			p.Output.WidePath, len(wide.Rows), len(wide.Columns), csvout.Fingerprint(wide))
	}

	return nil
}

// buildInput materializes the wide input table from the configured source.
// The skipped count is only meaningful for the csv source.
func buildInput(ctx context.Context, p config.Pipeline) (*records.Table, int, error) {
	switch p.Source.Kind {
	case "csv":
		c := p.Source.CSV
		return csvfile.Read(c.Path, csvfile.Options{
			Comma:            c.Options.Rune("comma", 0),
			TrimSpace:        c.Options.Bool("trim_space", true),
			NormalizeUnicode: c.Options.Bool("normalize_unicode", false),
			HeaderMap:        c.Options.StringMap("header_map"),
			Lenient:          c.Options.Bool("lenient", true),
		})

	case "postgres":
		dsn := p.Source.Postgres.DSN
		if dsn == "" {
			var err error
			if dsn, err = config.DSNFromEnv(); err != nil {
				return nil, 0, err
			}
		}
		query := p.Source.Postgres.Query
		if query == "" {
			var err error
			if query, err = postgres.LoadQuery(p.Source.Postgres.QueryFile); err != nil {
				return nil, 0, err
			}
		}
		ex, closeFn, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, 0, err
		}
		defer closeFn()
		t, err := ex.Extract(ctx, query)
		return t, 0, err

	default:
		return nil, 0, fmt.Errorf("unknown source kind %q", p.Source.Kind)
	}
}

// writeAudit persists the long table to the configured sqlite file.
func writeAudit(ctx context.Context, p config.Pipeline, longTab *records.Table) error {
	sink, closeFn, err := sqlite.Open(ctx, p.Audit.Path, p.Audit.Table)
	if err != nil {
		return err
	}
	defer closeFn()
	n, err := sink.WriteTable(ctx, longTab)
	if err != nil {
		return err
	}
	log.Printf("audit: path=%s table=%s rows=%d", p.Audit.Path, sqliteTable(p.Audit.Table), n)
	return nil
}

func sqliteTable(name string) string {
	if name == "" {
		return sqlite.DefaultTable
	}
	return name
}
