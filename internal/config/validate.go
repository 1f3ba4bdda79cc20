// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"github.com/rodgersmerokaosumo/VCA-PULA/internal/survey"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "source.kind",
// "pivot.dqc_cols[1]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the list is error-severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	var p config.Pipeline
//	if err := json.NewDecoder(r).Decode(&p); err != nil { ... }
//	issues := config.ValidatePipeline(p)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateReshape(p.Reshape)...)
	issues = append(issues, validatePivot(p.Pivot)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateAudit(p.Audit)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	// Unknown kinds are warnings, for forward compatibility.
	known := map[string]struct{}{
		"csv":      {},
		"postgres": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	switch s.Kind {
	case "csv":
		if strings.TrimSpace(s.CSV.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.csv.path",
				Message:  "csv source requires a non-empty path",
			})
		}
	case "postgres":
		// An empty DSN is allowed; it falls back to the DB_* environment at
		// run time, which cannot be checked statically.
		if strings.TrimSpace(s.Postgres.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.postgres.dsn",
				Message:  "dsn is empty; the DB_URL / DB_* environment must be set at run time",
			})
		}
		hasQuery := strings.TrimSpace(s.Postgres.Query) != ""
		hasFile := strings.TrimSpace(s.Postgres.QueryFile) != ""
		if hasQuery == hasFile {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.postgres.query",
				Message:  "exactly one of query and query_file must be set",
			})
		}
	}

	return issues
}

func validateReshape(r ReshapeConfig) []Issue {
	var issues []Issue
	if r.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "reshape.workers",
			Message:  "workers must not be negative",
		})
	}
	return issues
}

// validatePivot validates the re-pivot knobs against the engine vocabulary.
func validatePivot(p PivotConfig) []Issue {
	var issues []Issue

	switch survey.Granularity(p.Granularity) {
	case "", survey.GranularityQuestion, survey.GranularityQuestionCategory:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "pivot.granularity",
			Message: fmt.Sprintf("unknown granularity %q; expected %q or %q",
				p.Granularity, survey.GranularityQuestion, survey.GranularityQuestionCategory),
		})
	}

	knownDqc := map[string]struct{}{}
	for _, c := range survey.DqcCols {
		knownDqc[c] = struct{}{}
	}
	for i, c := range p.DqcCols {
		if _, ok := knownDqc[c]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("pivot.dqc_cols[%d]", i),
				Message:  fmt.Sprintf("unknown dqc column %q", c),
			})
		}
	}
	if len(p.DqcCols) > 0 && !p.IncludeDQC {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "pivot.dqc_cols",
			Message:  "dqc_cols is set but include_dqc is false; the filter has no effect",
		})
	}

	return issues
}

func validateOutput(o OutputConfig) []Issue {
	var issues []Issue
	if strings.TrimSpace(o.WidePath) == "" && strings.TrimSpace(o.LongPath) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output",
			Message:  "at least one of output.wide_path and output.long_path must be set",
		})
	}
	return issues
}

func validateAudit(a AuditConfig) []Issue {
	var issues []Issue
	if strings.TrimSpace(a.Path) == "" && strings.TrimSpace(a.Table) != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "audit.table",
			Message:  "audit.table is set but audit.path is empty; the sink stays disabled",
		})
	}
	return issues
}
