package records

import "testing"

func TestCloneIsIndependent(t *testing.T) {
	r := Record{"response_id": "r1", "q_tin_number": nil}
	c := r.Clone()
	c["response_id"] = "r2"
	if r["response_id"] != "r1" {
		t.Fatalf("clone mutated the original: %v", r)
	}
	if v, ok := c["q_tin_number"]; !ok || v != nil {
		t.Fatalf("nil cells must survive cloning: %v", c)
	}
}

func TestTableColumns(t *testing.T) {
	tab := &Table{Columns: []string{"response_id"}}
	if !tab.HasColumn("response_id") || tab.HasColumn("missing") {
		t.Fatalf("HasColumn: %v", tab.Columns)
	}
	tab.AddColumn("q1_type_of_vca")
	tab.AddColumn("q1_type_of_vca") // idempotent
	if len(tab.Columns) != 2 {
		t.Fatalf("AddColumn: %v", tab.Columns)
	}
}
