package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

// validPipeline returns a pipeline that lints clean; tests mutate one field
// at a time.
func validPipeline() Pipeline {
	return Pipeline{
		Job: "vca_wide_test",
		Source: Source{
			Kind: "csv",
			CSV:  SourceCSV{Path: "extract.csv"},
		},
		Pivot: PivotConfig{
			Granularity: "question_category",
			IncludeDQC:  true,
		},
		Output: OutputConfig{WidePath: "wide.csv"},
	}
}

/*
TestValidatePipeline_MissingJob verifies that a missing or empty Job field
produces a SeverityError with path "job".
*/
func TestValidatePipeline_MissingJob(t *testing.T) {
	p := validPipeline()
	p.Job = ""

	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
}

/*
TestValidatePipeline_ValidMinimal verifies that a well-formed pipeline
produces no issues (errors or warnings).
*/
func TestValidatePipeline_ValidMinimal(t *testing.T) {
	issues := ValidatePipeline(validPipeline())
	if len(issues) != 0 {
		t.Fatalf("expected no issues; got: %+v", issues)
	}
}

func TestValidatePipeline_SourceKinds(t *testing.T) {
	p := validPipeline()
	p.Source.Kind = ""
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "source.kind", "must not be empty") {
		t.Fatalf("empty kind: %+v", issues)
	}

	p = validPipeline()
	p.Source.Kind = "kafka"
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityWarning, "source.kind", "unknown source kind") {
		t.Fatalf("unknown kind: %+v", issues)
	}

	p = validPipeline()
	p.Source.CSV.Path = ""
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "source.csv.path", "non-empty path") {
		t.Fatalf("csv without path: %+v", issues)
	}
}

func TestValidatePipeline_PostgresSource(t *testing.T) {
	p := validPipeline()
	p.Source = Source{
		Kind:     "postgres",
		Postgres: SourcePostgres{DSN: "postgresql://u@h/db", Query: "select 1"},
	}
	if issues := ValidatePipeline(p); len(issues) != 0 {
		t.Fatalf("valid postgres source: %+v", issues)
	}

	// Neither query nor query_file.
	p.Source.Postgres.Query = ""
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "source.postgres.query", "exactly one") {
		t.Fatalf("missing query: %+v", issues)
	}

	// Both at once.
	p.Source.Postgres.Query = "select 1"
	p.Source.Postgres.QueryFile = "extract.sql"
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "source.postgres.query", "exactly one") {
		t.Fatalf("query and query_file: %+v", issues)
	}

	// Empty DSN is only a warning; the environment may provide it.
	p.Source.Postgres = SourcePostgres{Query: "select 1"}
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityWarning, "source.postgres.dsn", "environment") {
		t.Fatalf("empty dsn: %+v", issues)
	}
}

func TestValidatePipeline_Pivot(t *testing.T) {
	p := validPipeline()
	p.Pivot.Granularity = "respondent"
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "pivot.granularity", "unknown granularity") {
		t.Fatalf("bad granularity: %+v", issues)
	}

	p = validPipeline()
	p.Pivot.DqcCols = []string{"dq_pass", "dq_bogus"}
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "pivot.dqc_cols[1]", "unknown dqc column") {
		t.Fatalf("bad dqc col: %+v", issues)
	}

	p = validPipeline()
	p.Pivot.IncludeDQC = false
	p.Pivot.DqcCols = []string{"dq_pass"}
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityWarning, "pivot.dqc_cols", "no effect") {
		t.Fatalf("filter without include_dqc: %+v", issues)
	}
}

func TestValidatePipeline_OutputAndAudit(t *testing.T) {
	p := validPipeline()
	p.Output = OutputConfig{}
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "output", "at least one") {
		t.Fatalf("no outputs: %+v", issues)
	}

	p = validPipeline()
	p.Audit = AuditConfig{Table: "vca_long"}
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityWarning, "audit.table", "stays disabled") {
		t.Fatalf("audit table without path: %+v", issues)
	}

	p = validPipeline()
	p.Reshape.Workers = -1
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "reshape.workers", "negative") {
		t.Fatalf("negative workers: %+v", issues)
	}
}

func TestHasErrors(t *testing.T) {
	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatalf("warnings are not errors")
	}
	if !HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Fatalf("error must be detected")
	}
}
