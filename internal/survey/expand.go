package survey

import (
	"fmt"
	"strings"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// LongRecord is the canonical normalized unit: one (respondent, question,
// category, value) with provenance. Value is string or nil.
type LongRecord struct {
	Meta          records.Record
	QuestionKey   string
	Category      string // "" for non-categorized questions
	Value         any
	Source        string
	OriginalField string

	// DQC is attached by the validator; nil until then.
	DQC *DqcResult
}

// ExpandOptions are the per-run expansion knobs.
type ExpandOptions struct {
	// LabelCategories prefixes category-scoped values with the category
	// code, e.g. "HS: 1200". Values scoped "" or "all" are never prefixed.
	LabelCategories bool
}

// boundRule is one concrete emission step: a catalog rule resolved against
// the input schema.
type boundRule struct {
	kind     string
	col      string
	question string
	category string
	source   string
	present  bool
}

// Plan is the catalog resolved against one input schema. Building it once
// per table turns the per-row work into pure lookups: claimed versus
// unclaimed columns are partitioned here, not re-derived for every row.
type Plan struct {
	metaCols []string // MetaCols present in the schema, in fixed order
	steps    []boundRule
	fallback []string // unclaimed non-meta columns, in schema order
}

// CompilePlan resolves the field catalog against the given schema columns.
func CompilePlan(columns []string) *Plan {
	available := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		available[c] = struct{}{}
	}
	has := func(c string) bool {
		_, ok := available[c]
		return ok
	}

	p := &Plan{}
	for _, m := range MetaCols {
		if has(m) {
			p.metaCols = append(p.metaCols, m)
		}
	}

	claimed := make(map[string]struct{})
	claim := func(c string) { claimed[c] = struct{}{} }

	for _, rule := range Catalog {
		src := rule.Source
		if src == "" {
			src = SourceResponses
		}
		switch rule.Kind {
		case RuleKindFlags:
			for _, f := range catFlagOrder {
				claim(f)
			}
			p.steps = append(p.steps, boundRule{kind: RuleKindFlags})

		case RuleKindScalar:
			// Always emitted; a missing column yields a null-valued record.
			claim(rule.Field)
			p.steps = append(p.steps, boundRule{
				kind: RuleKindScalar, col: rule.Field, question: rule.Question,
				category: rule.Category, source: src, present: has(rule.Field),
			})

		case RuleKindPerCategory, RuleKindPerCategoryArray:
			suffixes := rule.Suffixes
			if len(suffixes) == 0 {
				suffixes = CatSuffixes
			}
			for _, s := range suffixes {
				col := strings.ReplaceAll(rule.Field, "{suffix}", s)
				claim(col)
				if !has(col) {
					continue
				}
				kind := RuleKindScalar
				if rule.Kind == RuleKindPerCategoryArray {
					kind = RuleKindArray
				}
				p.steps = append(p.steps, boundRule{
					kind: kind, col: col, question: rule.Question,
					category: s, source: src, present: true,
				})
			}

		case RuleKindArray:
			claim(rule.Field)
			p.steps = append(p.steps, boundRule{
				kind: RuleKindArray, col: rule.Field, question: rule.Question,
				category: rule.Category, source: src, present: has(rule.Field),
			})

		case RuleKindGeo:
			claim(rule.Field)
			if has(rule.Field) {
				p.steps = append(p.steps, boundRule{
					kind: RuleKindGeo, col: rule.Field, question: rule.Question, source: src, present: true,
				})
			}
		}
	}

	// Whatever the catalog did not claim routes through the generic
	// fallback, so schema growth never silently drops data.
	metaSet := make(map[string]struct{}, len(MetaCols))
	for _, m := range MetaCols {
		metaSet[m] = struct{}{}
	}
	for _, c := range columns {
		if _, ok := metaSet[c]; ok {
			continue
		}
		if _, ok := ignoredCols[c]; ok {
			continue
		}
		if _, ok := claimed[c]; ok {
			continue
		}
		p.fallback = append(p.fallback, c)
	}
	return p
}

// Expand emits the ordered long records for one wide row. Order is the
// catalog's emission order followed by fallback columns in schema order;
// it is deterministic for reproducible output.
func (p *Plan) Expand(w records.Record, opts ExpandOptions) []LongRecord {
	meta := make(records.Record, len(p.metaCols))
	for _, m := range p.metaCols {
		meta[m] = w[m]
	}

	label := func(category string, v any) any {
		if !opts.LabelCategories || category == "" || category == CategoryAll {
			return v
		}
		s, ok := AsString(v)
		if !ok {
			return v
		}
		code := category
		if c, ok := CatCodes[category]; ok {
			code = c
		}
		return strings.ToUpper(code) + ": " + s
	}

	var out []LongRecord
	for _, st := range p.steps {
		switch st.kind {
		case RuleKindFlags:
			for _, f := range catFlagOrder {
				if !Truthy(w[f]) {
					continue
				}
				suffix := CatFlagFields[f]
				val := CatLabels[suffix]
				if val == "" {
					val = suffix
				}
				out = append(out, LongRecord{
					Meta: meta, QuestionKey: QuestionCategory, Category: suffix,
					Value: val, Source: SourceResponses, OriginalField: f,
				})
			}

		case RuleKindScalar:
			out = append(out, LongRecord{
				Meta: meta, QuestionKey: st.question, Category: st.category,
				Value: label(st.category, scalarOrNil(w[st.col])),
				Source: st.source, OriginalField: st.col,
			})

		case RuleKindArray:
			items := ToList(w[st.col])
			if len(items) == 0 {
				// Empty or unparseable arrays still yield one null record
				// so presence stays checkable downstream.
				out = append(out, LongRecord{
					Meta: meta, QuestionKey: st.question, Category: st.category,
					Value: nil, Source: st.source, OriginalField: st.col,
				})
				continue
			}
			for _, it := range items {
				out = append(out, LongRecord{
					Meta: meta, QuestionKey: st.question, Category: st.category,
					Value: label(st.category, it), Source: st.source, OriginalField: st.col,
				})
			}

		case RuleKindGeo:
			out = append(out, expandGeo(meta, st, w[st.col])...)
		}
	}

	for _, col := range p.fallback {
		out = append(out, LongRecord{
			Meta: meta, QuestionKey: col, Category: "",
			Value: scalarOrNil(w[col]), Source: SourceResponses, OriginalField: col,
		})
	}
	return out
}

// expandGeo bifurcates a GPS payload: a parseable object yields a
// latitude/longitude record pair, anything else a single _raw record. The
// 2-versus-1 asymmetry is intentional; it flags malformed payloads to the
// validator and to downstream consumers.
func expandGeo(meta records.Record, st boundRule, raw any) []LongRecord {
	parsed := ParseStructured(raw)
	if parsed.Kind == KindObject {
		return []LongRecord{
			{Meta: meta, QuestionKey: st.question + "_latitude",
				Value: scalarOrNil(parsed.Object["latitude"]), Source: st.source, OriginalField: st.col},
			{Meta: meta, QuestionKey: st.question + "_longitude",
				Value: scalarOrNil(parsed.Object["longitude"]), Source: st.source, OriginalField: st.col},
		}
	}
	return []LongRecord{
		{Meta: meta, QuestionKey: st.question + "_raw",
			Value: scalarOrNil(raw), Source: st.source, OriginalField: st.col},
	}
}

// SelectedCategories derives a respondent's category selection from their
// expanded records: the set of category tags present on q13 records.
func SelectedCategories(longRecs []LongRecord) map[string]struct{} {
	sel := make(map[string]struct{})
	for _, r := range longRecs {
		if r.QuestionKey == QuestionCategory && r.Category != "" {
			sel[r.Category] = struct{}{}
		}
	}
	return sel
}

// ResponseID extracts the respondent join key from a wide row.
func ResponseID(w records.Record) (string, error) {
	s, ok := AsString(w["response_id"])
	if !ok {
		return "", fmt.Errorf("row has empty response_id")
	}
	return s, nil
}
