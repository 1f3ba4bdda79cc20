// Package config defines the canonical, JSON-serializable configuration model
// for the survey reshape pipeline. It is intentionally small and explicit so
// that pipeline files can be loaded from disk and passed through the program
// without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files under configs/*.json.
//  3. Minimalism: Decoding is performed by the standard library, with a light
//     Options helper for typed access to free-form source options.
//
// Example (trimmed):
//
//	{
//	  "job":    "vca_wide_2026q3",
//	  "source": { "kind": "csv", "csv": { "path": "extract.csv" } },
//	  "pivot":  { "granularity": "question_category", "include_dqc": true },
//	  "output": { "wide_path": "vca_wide.csv", "long_path": "vca_long.csv" }
//	}
package config

import "encoding/json"

// Pipeline describes one full reshape run in JSON. It is the top-level object
// decoded from a pipeline file.
type Pipeline struct {
	// Job names the run; it is used for metrics labeling and log prefixes.
	Job string `json:"job"`

	// Source describes where the wide input table comes from.
	Source Source `json:"source"`

	// Reshape configures the wide-to-long expansion pass.
	Reshape ReshapeConfig `json:"reshape"`

	// Pivot configures the long-to-wide re-pivot.
	Pivot PivotConfig `json:"pivot"`

	// Output names the CSV files to write.
	Output OutputConfig `json:"output"`

	// Audit optionally persists the long table to a local sqlite file for
	// ad-hoc inspection. Disabled when Path is empty.
	Audit AuditConfig `json:"audit"`
}

// Source identifies the input table provider.
type Source struct {
	// Kind selects the source implementation: "csv" or "postgres".
	Kind string `json:"kind"`

	// CSV carries options for the "csv" source kind.
	CSV SourceCSV `json:"csv"`

	// Postgres carries options for the "postgres" source kind.
	Postgres SourcePostgres `json:"postgres"`
}

// SourceCSV holds configuration for the "csv" source kind.
type SourceCSV struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`

	// Options is a free-form map interpreted by the CSV reader. Typical keys:
	//   comma (string), trim_space (bool), normalize_unicode (bool),
	//   header_map (object renaming raw headers)
	Options Options `json:"options"`
}

// SourcePostgres holds configuration for the "postgres" source kind. DSN may
// be left empty to fall back to the DB_* environment (see DSNFromEnv).
type SourcePostgres struct {
	DSN string `json:"dsn"`

	// Query is the extract SQL, inline. QueryFile names a .sql file instead;
	// exactly one of the two must be set.
	Query     string `json:"query"`
	QueryFile string `json:"query_file"`
}

// ReshapeConfig controls the expansion pass.
type ReshapeConfig struct {
	// LabelCategories prefixes category-scoped values with the category code.
	LabelCategories bool `json:"label_categories"`

	// FlattenNested promotes a legacy "responses" JSON blob column to flat
	// question columns before expansion.
	FlattenNested bool `json:"flatten_nested"`

	// Workers sets the expansion fan-out; <= 1 runs sequentially.
	Workers int `json:"workers"`
}

// PivotConfig controls the re-pivot. Zero values take the engine defaults.
type PivotConfig struct {
	// Granularity is "question" or "question_category" (the default).
	Granularity string `json:"granularity"`

	ColSep string `json:"col_sep"`
	Joiner string `json:"joiner"`

	// IncludeDQC adds the per-column validation flag blocks to the wide table.
	IncludeDQC bool `json:"include_dqc"`

	// DqcCols restricts which flag columns pivot; empty keeps all.
	DqcCols []string `json:"dqc_cols"`
}

// OutputConfig names the output files. At least one path must be set.
type OutputConfig struct {
	// WidePath receives the re-pivoted wide table.
	WidePath string `json:"wide_path"`

	// LongPath receives the normalized long table (with DQC columns).
	LongPath string `json:"long_path"`
}

// AuditConfig configures the optional sqlite audit sink.
type AuditConfig struct {
	// Path is the sqlite database file; empty disables the sink.
	Path string `json:"path"`

	// Table is the destination table name; defaults to "vca_long".
	Table string `json:"table"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character settings such as a
// CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object in JSON decodes to a non-nil, empty Options map. This
// simplifies call sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
