package survey

import (
	"fmt"
	"strings"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// Granularity selects the wide column key shape.
type Granularity string

const (
	// GranularityQuestion collapses all categories of a question into one
	// column (the unified layout).
	GranularityQuestion Granularity = "question"
	// GranularityQuestionCategory emits one column per question+category
	// pair (the audit layout).
	GranularityQuestionCategory Granularity = "question_category"
)

// Pivot defaults.
const (
	DefaultColSep = "__"
	DefaultJoiner = " | "
)

// PivotOptions configure the long-to-wide re-pivot.
type PivotOptions struct {
	Granularity Granularity // default GranularityQuestionCategory
	ColSep      string      // separator between question key and category / flag name
	Joiner      string      // joiner for multiple values per cell
	IncludeDQC  bool
	DqcCols     []string // subset of DqcCols to pivot; default all
}

func (o PivotOptions) withDefaults() PivotOptions {
	if o.Granularity == "" {
		o.Granularity = GranularityQuestionCategory
	}
	if o.ColSep == "" {
		o.ColSep = DefaultColSep
	}
	if o.Joiner == "" {
		o.Joiner = DefaultJoiner
	}
	if o.IncludeDQC && len(o.DqcCols) == 0 {
		o.DqcCols = DqcCols
	}
	return o
}

// JoinDistinct collapses a cell group with an order-preserving distinct
// join: nil and blank values are skipped, exact duplicates are dropped on
// first-seen basis, survivors join in original order. A group with no
// survivors yields nil, not an empty string.
func JoinDistinct(vals []any, joiner string) any {
	var (
		seen map[string]struct{}
		out  []string
	)
	for _, v := range vals {
		s, ok := AsString(v)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		if seen == nil {
			seen = make(map[string]struct{})
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return strings.Join(out, joiner)
}

// AllTrue collapses boolean flag observations: any false wins, an empty
// group yields nil (inapplicable), otherwise true.
func AllTrue(vals []bool) any {
	if len(vals) == 0 {
		return nil
	}
	for _, b := range vals {
		if !b {
			return "false"
		}
	}
	return "true"
}

// group accumulates the per-(respondent, column) cell state.
type group struct {
	values  []any
	flags   map[string][]bool
	reasons []any
}

// Pivot regroups long records by (respondent, column key) and reshapes the
// result to one row per respondent. Output column order: meta columns first,
// then value columns in discovery order, then one block of flag columns per
// requested DQC column.
func Pivot(longRecs []LongRecord, opts PivotOptions) (*records.Table, error) {
	opts = opts.withDefaults()
	if len(longRecs) == 0 {
		return nil, fmt.Errorf("pivot: no long records")
	}

	var metaCols []string
	for _, m := range MetaCols {
		if _, ok := longRecs[0].Meta[m]; ok {
			metaCols = append(metaCols, m)
		}
	}

	var (
		ridOrder []string
		colOrder []string
		colSeen  = map[string]struct{}{}
		metaByID = map[string]records.Record{}
		groups   = map[string]map[string]*group{}
	)

	for i := range longRecs {
		r := &longRecs[i]
		rid, err := ResponseID(r.Meta)
		if err != nil {
			return nil, fmt.Errorf("pivot: %w", err)
		}

		colKey := r.QuestionKey
		if opts.Granularity == GranularityQuestionCategory &&
			r.Category != "" && r.Category != CategoryAll {
			colKey += opts.ColSep + r.Category
		}

		byCol, ok := groups[rid]
		if !ok {
			byCol = map[string]*group{}
			groups[rid] = byCol
			metaByID[rid] = r.Meta
			ridOrder = append(ridOrder, rid)
		}
		g, ok := byCol[colKey]
		if !ok {
			g = &group{}
			byCol[colKey] = g
			if _, dup := colSeen[colKey]; !dup {
				colSeen[colKey] = struct{}{}
				colOrder = append(colOrder, colKey)
			}
		}

		g.values = append(g.values, r.Value)
		if opts.IncludeDQC && r.DQC != nil {
			if g.flags == nil {
				g.flags = map[string][]bool{}
			}
			for _, name := range opts.DqcCols {
				if name == "dq_failed_reason" {
					g.reasons = append(g.reasons, r.DQC.FailedReason)
				} else if b, ok := r.DQC.Flag(name); ok {
					g.flags[name] = append(g.flags[name], b)
				}
			}
		}
	}

	out := &records.Table{}
	out.Columns = append(out.Columns, metaCols...)
	out.Columns = append(out.Columns, colOrder...)
	if opts.IncludeDQC {
		for _, name := range opts.DqcCols {
			for _, colKey := range colOrder {
				out.Columns = append(out.Columns, colKey+opts.ColSep+name)
			}
		}
	}

	for _, rid := range ridOrder {
		row := make(records.Record, len(out.Columns))
		meta := metaByID[rid]
		for _, m := range metaCols {
			row[m] = meta[m]
		}
		for colKey, g := range groups[rid] {
			row[colKey] = JoinDistinct(g.values, opts.Joiner)
			if !opts.IncludeDQC {
				continue
			}
			for _, name := range opts.DqcCols {
				outCol := colKey + opts.ColSep + name
				if name == "dq_failed_reason" {
					row[outCol] = JoinDistinct(g.reasons, ";")
				} else if g.flags != nil {
					row[outCol] = AllTrue(g.flags[name])
				}
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
