package csvout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

func sampleTable() *records.Table {
	return &records.Table{
		Columns: []string{"response_id", "q1_type_of_vca", "q12_tin_number"},
		Rows: []records.Record{
			{"response_id": "r1", "q1_type_of_vca": "Individual", "q12_tin_number": nil},
			{"response_id": "r2", "q1_type_of_vca": "Cooperative", "q12_tin_number": "TIN-9"},
		},
	}
}

func TestWrite(t *testing.T) {
	var b strings.Builder
	if err := Write(&b, sampleTable()); err != nil {
		t.Fatal(err)
	}
	want := "response_id,q1_type_of_vca,q12_tin_number\n" +
		"r1,Individual,\n" +
		"r2,Cooperative,TIN-9\n"
	if b.String() != want {
		t.Fatalf("output:\n%s\nwant:\n%s", b.String(), want)
	}
}

func TestWriteQuoting(t *testing.T) {
	tab := &records.Table{
		Columns: []string{"response_id", "q15_business_name"},
		Rows:    []records.Record{{"response_id": "r1", "q15_business_name": "Hill, Top"}},
	}
	var b strings.Builder
	if err := Write(&b, tab); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), `"Hill, Top"`) {
		t.Fatalf("comma cell must quote: %s", b.String())
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "wide.csv")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, sampleTable()); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "response_id,") {
		t.Fatalf("file content: %s", b)
	}
}

func TestFingerprintStability(t *testing.T) {
	a := Fingerprint(sampleTable())
	b := Fingerprint(sampleTable())
	if a != b {
		t.Fatalf("fingerprint must be deterministic: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("fingerprint width: %q", a)
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint(sampleTable())

	changed := sampleTable()
	changed.Rows[1]["q12_tin_number"] = "TIN-8"
	if Fingerprint(changed) == base {
		t.Fatalf("cell change must change the fingerprint")
	}

	// nil and empty string are different cells.
	nilCell := sampleTable()
	nilCell.Rows[0]["q12_tin_number"] = ""
	if Fingerprint(nilCell) == base {
		t.Fatalf("nil vs empty must differ")
	}
}
