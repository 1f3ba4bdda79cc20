package survey

import (
	"context"
	"reflect"
	"strconv"
	"testing"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

func TestReshapeStructuralErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := Reshape(ctx, nil, ReshapeOptions{}); err == nil {
		t.Fatalf("nil table must fail")
	}
	if _, err := Reshape(ctx, &records.Table{Columns: []string{"response_id"}}, ReshapeOptions{}); err == nil {
		t.Fatalf("empty table must fail")
	}

	noID := &records.Table{
		Columns: []string{"q_type_of_vca"},
		Rows:    []records.Record{{"q_type_of_vca": "Individual"}},
	}
	if _, err := Reshape(ctx, noID, ReshapeOptions{}); err == nil {
		t.Fatalf("missing response_id column must fail")
	}

	blank := &records.Table{
		Columns: []string{"response_id"},
		Rows:    []records.Record{{"response_id": "  "}},
	}
	if _, err := Reshape(ctx, blank, ReshapeOptions{}); err == nil {
		t.Fatalf("blank response_id must fail")
	}

	dup := &records.Table{
		Columns: []string{"response_id"},
		Rows:    []records.Record{{"response_id": "r1"}, {"response_id": "r1"}},
	}
	if _, err := Reshape(ctx, dup, ReshapeOptions{}); err == nil {
		t.Fatalf("duplicate response_id must fail")
	}
}

func TestReshapeAttachesDQC(t *testing.T) {
	tab := &records.Table{
		Columns: []string{"response_id", "q_vca_hulling_station", "q_hs_business_name", "fr_age"},
		Rows: []records.Record{{
			"response_id":           "r1",
			"q_vca_hulling_station": "yes",
			"q_hs_business_name":    nil,
			"fr_age":                "17",
		}},
	}
	longs, err := Reshape(context.Background(), tab, ReshapeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i := range longs {
		if longs[i].DQC == nil {
			t.Fatalf("record %d missing DQC: %#v", i, longs[i])
		}
	}

	// The category was selected via its flag, so the null business name
	// trips the dependency rule end to end.
	var name *LongRecord
	for i := range longs {
		if longs[i].QuestionKey == "q15_business_name" && longs[i].Category == "hs" {
			name = &longs[i]
		}
	}
	if name == nil {
		t.Fatalf("no hs business_name record")
	}
	if name.DQC.DependencyOK || name.DQC.FailedReason != "missing_value_for_selected_category:hs" {
		t.Fatalf("dependency verdict: %#v", name.DQC)
	}

	for i := range longs {
		if longs[i].QuestionKey == "q4_age" && longs[i].DQC.NumericOK {
			t.Fatalf("age 17 must fail the numeric check")
		}
	}
}

func TestReshapeWorkersMatchSequential(t *testing.T) {
	cols := []string{"response_id", "q_type_of_vca", "fr_age", "q_type_coffee_sourced_json"}
	tab := &records.Table{Columns: cols}
	for i := 0; i < 50; i++ {
		tab.Rows = append(tab.Rows, records.Record{
			"response_id":                "r" + strconv.Itoa(i),
			"q_type_of_vca":              "Individual",
			"fr_age":                     strconv.Itoa(20 + i),
			"q_type_coffee_sourced_json": `["Arabica","Robusta"]`,
		})
	}

	ctx := context.Background()
	seq, err := Reshape(ctx, tab, ReshapeOptions{Workers: 1})
	if err != nil {
		t.Fatal(err)
	}
	par, err := Reshape(ctx, tab, ReshapeOptions{Workers: 4})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq, par) {
		t.Fatalf("parallel expansion diverges from sequential")
	}
}

func TestReshapeCancelled(t *testing.T) {
	tab := &records.Table{
		Columns: []string{"response_id"},
		Rows:    []records.Record{{"response_id": "r1"}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Reshape(ctx, tab, ReshapeOptions{}); err == nil {
		t.Fatalf("cancelled context must surface")
	}
}

func TestLongTableRendering(t *testing.T) {
	res := DqcResult{Present: true, ValidChoice: true, NumericOK: true,
		DependencyOK: true, ContactOK: true, GPSOK: true, Pass: true}
	longs := []LongRecord{
		{
			Meta:        records.Record{"response_id": "r1"},
			QuestionKey: "q1_type_of_vca", Category: "", Value: "Individual",
			Source: SourceResponses, OriginalField: "q_type_of_vca", DQC: &res,
		},
	}
	tab := LongTable(longs, true)
	want := []string{"response_id", "question_key", "category", "value", "source", "original_field"}
	want = append(want, DqcCols...)
	if !reflect.DeepEqual(tab.Columns, want) {
		t.Fatalf("columns=%v", tab.Columns)
	}
	row := tab.Rows[0]
	if row["category"] != nil {
		t.Fatalf("empty category must render nil, got %v", row["category"])
	}
	if row["dq_pass"] != "true" {
		t.Fatalf("dq_pass=%v", row["dq_pass"])
	}
	if v, ok := row["dq_failed_reason"]; ok && v != nil {
		t.Fatalf("passing record must have no failed reason, got %v", v)
	}
}
