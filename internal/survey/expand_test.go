package survey

import (
	"reflect"
	"testing"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// wideFixture builds a schema + row resembling one raw extract row.
func wideFixture() (*records.Table, records.Record) {
	cols := []string{
		"response_id", "project_id", "is_test",
		"q_vca_hulling_station", "q_vca_mill",
		"q_type_of_vca", "fr_age",
		"q_hs_business_name", "q_mill_business_name",
		"q_type_coffee_sourced_json", "q_type_coffee_sourced_hs_json",
		"q28_vca_gps_json",
		"q_some_new_field", "metadata_json",
	}
	row := records.Record{
		"response_id":                   "r1",
		"project_id":                    "p9",
		"is_test":                       "false",
		"q_vca_hulling_station":         "Yes",
		"q_vca_mill":                    "no",
		"q_type_of_vca":                 "Individual",
		"fr_age":                        "44",
		"q_hs_business_name":            "Hill Top Hullers",
		"q_mill_business_name":          nil,
		"q_type_coffee_sourced_json":    `["Arabica","Robusta","Arabica"]`,
		"q_type_coffee_sourced_hs_json": `["Arabica"]`,
		"q28_vca_gps_json":              `{"latitude": "1.5", "longitude": "32.1"}`,
		"q_some_new_field":              "surprise",
		"metadata_json":                 `{"ignored": true}`,
	}
	return &records.Table{Columns: cols, Rows: []records.Record{row}}, row
}

func recsFor(recs []LongRecord, q string) []LongRecord {
	var out []LongRecord
	for _, r := range recs {
		if r.QuestionKey == q {
			out = append(out, r)
		}
	}
	return out
}

func values(recs []LongRecord) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r.Value
	}
	return out
}

func TestExpandCategoriesFromFlags(t *testing.T) {
	tab, row := wideFixture()
	recs := CompilePlan(tab.Columns).Expand(row, ExpandOptions{})

	cats := recsFor(recs, QuestionCategory)
	if len(cats) != 1 {
		t.Fatalf("q13 records=%d; want 1 (only the truthy flag)", len(cats))
	}
	c := cats[0]
	if c.Category != "hs" || c.Value != "Hulling station" || c.OriginalField != "q_vca_hulling_station" {
		t.Fatalf("q13 record mismatch: %#v", c)
	}
	if c.Meta["response_id"] != "r1" || c.Meta["project_id"] != "p9" {
		t.Fatalf("meta not copied: %#v", c.Meta)
	}
}

func TestExpandScalarAlwaysEmits(t *testing.T) {
	tab, row := wideFixture()
	recs := CompilePlan(tab.Columns).Expand(row, ExpandOptions{})

	// Column absent from the schema entirely: still exactly one record,
	// null-valued, so presence stays checkable.
	tin := recsFor(recs, "q12_tin_number")
	if len(tin) != 1 || tin[0].Value != nil || tin[0].OriginalField != "q_tin_number" {
		t.Fatalf("missing-column scalar: %#v", tin)
	}

	age := recsFor(recs, "q4_age")
	if len(age) != 1 || age[0].Value != "44" || age[0].Source != SourceFarmerResponses {
		t.Fatalf("fr_age scalar: %#v", age)
	}
}

func TestExpandPerCategoryFamily(t *testing.T) {
	tab, row := wideFixture()
	recs := CompilePlan(tab.Columns).Expand(row, ExpandOptions{})

	names := recsFor(recs, "q15_business_name")
	// Only hs and mill columns exist in the schema; both must emit, the
	// blank one null-valued.
	if len(names) != 2 {
		t.Fatalf("business_name records=%d; want 2", len(names))
	}
	if names[0].Category != "hs" || names[0].Value != "Hill Top Hullers" {
		t.Fatalf("hs record: %#v", names[0])
	}
	if names[1].Category != "mill" || names[1].Value != nil {
		t.Fatalf("mill record must be present with null value: %#v", names[1])
	}
}

func TestExpandArrayExplosion(t *testing.T) {
	tab, row := wideFixture()
	recs := CompilePlan(tab.Columns).Expand(row, ExpandOptions{})

	all := recsFor(recs, "q22_type_of_coffee_all")
	// Duplicates survive at long-record level; only the pivot deduplicates.
	if got := values(all); !reflect.DeepEqual(got, []any{"Arabica", "Robusta", "Arabica"}) {
		t.Fatalf("array values: %#v", got)
	}
	for _, r := range all {
		if r.Category != CategoryAll {
			t.Fatalf("base array category=%q; want all", r.Category)
		}
	}
}

func TestExpandEmptyArrayPresence(t *testing.T) {
	tab, row := wideFixture()
	row["q_type_coffee_sourced_json"] = "[]"
	recs := CompilePlan(tab.Columns).Expand(row, ExpandOptions{})

	all := recsFor(recs, "q22_type_of_coffee_all")
	if len(all) != 1 || all[0].Value != nil {
		t.Fatalf("empty array must emit one null record: %#v", all)
	}

	// Base array columns are emitted even when the whole column is null.
	form := recsFor(recs, "q23_coffee_form_all")
	if len(form) != 1 || form[0].Value != nil {
		t.Fatalf("absent base array must emit one null record: %#v", form)
	}
}

func TestExpandGeoBifurcation(t *testing.T) {
	tab, row := wideFixture()
	recs := CompilePlan(tab.Columns).Expand(row, ExpandOptions{})

	lat := recsFor(recs, "q28_vca_gps_latitude")
	lon := recsFor(recs, "q28_vca_gps_longitude")
	if len(lat) != 1 || lat[0].Value != "1.5" || len(lon) != 1 || lon[0].Value != "32.1" {
		t.Fatalf("geo pair: lat=%#v lon=%#v", lat, lon)
	}
	if len(recsFor(recs, "q28_vca_gps_raw")) != 0 {
		t.Fatalf("parseable geo must not emit a _raw record")
	}

	row["q28_vca_gps_json"] = "not json"
	recs = CompilePlan(tab.Columns).Expand(row, ExpandOptions{})
	raw := recsFor(recs, "q28_vca_gps_raw")
	if len(raw) != 1 || raw[0].Value != "not json" {
		t.Fatalf("malformed geo must emit one _raw record: %#v", raw)
	}
	if len(recsFor(recs, "q28_vca_gps_latitude"))+len(recsFor(recs, "q28_vca_gps_longitude")) != 0 {
		t.Fatalf("malformed geo must not emit the pair")
	}
}

func TestExpandFallbackAndCoverage(t *testing.T) {
	tab, row := wideFixture()
	recs := CompilePlan(tab.Columns).Expand(row, ExpandOptions{})

	fb := recsFor(recs, "q_some_new_field")
	if len(fb) != 1 || fb[0].Value != "surprise" || fb[0].Category != "" {
		t.Fatalf("fallback record: %#v", fb)
	}

	// Coverage: every non-meta, non-ignored column appears as provenance.
	covered := map[string]struct{}{}
	for _, r := range recs {
		covered[r.OriginalField] = struct{}{}
	}
	metaSet := map[string]struct{}{}
	for _, m := range MetaCols {
		metaSet[m] = struct{}{}
	}
	for _, c := range tab.Columns {
		if _, ok := metaSet[c]; ok {
			continue
		}
		if _, ok := ignoredCols[c]; ok {
			continue
		}
		if _, ok := covered[c]; !ok {
			t.Fatalf("column %q produced no long record", c)
		}
	}
	if _, ok := covered["metadata_json"]; ok {
		t.Fatalf("metadata_json must be ignored")
	}
}

func TestExpandLabelCategories(t *testing.T) {
	tab, row := wideFixture()
	recs := CompilePlan(tab.Columns).Expand(row, ExpandOptions{LabelCategories: true})

	names := recsFor(recs, "q15_business_name")
	if names[0].Value != "HS: Hill Top Hullers" {
		t.Fatalf("per-category value must be code-prefixed: %#v", names[0])
	}
	if names[1].Value != nil {
		t.Fatalf("null values are never prefixed: %#v", names[1])
	}

	// Per-category arrays prefix; the "all" base never does.
	hs := recsFor(recs, "q22_type_of_coffee")
	if len(hs) != 1 || hs[0].Value != "HS: Arabica" {
		t.Fatalf("per-category array: %#v", hs)
	}
	all := recsFor(recs, "q22_type_of_coffee_all")
	if all[0].Value != "Arabica" {
		t.Fatalf("all-scoped array must stay unprefixed: %#v", all[0])
	}
}

func TestExpandDeterministicOrder(t *testing.T) {
	tab, row := wideFixture()
	p := CompilePlan(tab.Columns)
	a := p.Expand(row, ExpandOptions{})
	b := p.Expand(row, ExpandOptions{})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expansion is not deterministic")
	}
}
