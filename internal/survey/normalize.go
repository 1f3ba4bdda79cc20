// Package survey implements the reshape-and-validate engine for VCA survey
// extracts: raw wide rows are expanded into normalized long records, checked
// against the data-quality rule set, and re-pivoted into a wide table with
// configurable column granularity.
//
// The package is pure and stateless: tables in, tables out. Database access,
// file I/O, and CLI concerns live outside (internal/source, internal/output,
// cmd/vcawide).
package survey

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind tags the shape of a normalized cell value.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindList
	KindObject
)

// Value is the tagged result of parsing one raw cell. Downstream code
// switches on Kind instead of doing runtime type tests on interface values.
type Value struct {
	Kind   Kind
	Scalar string
	List   []any
	Object map[string]any
}

// truthyTokens is the fixed vocabulary accepted as "true" by Truthy.
var truthyTokens = map[string]struct{}{
	"yes": {}, "true": {}, "1": {}, "y": {}, "on": {}, "checked": {},
}

// AsString normalizes any raw cell to its canonical scalar string form.
// ok is false for nil and for strings that are empty after trimming.
// Lists and objects serialize to compact JSON.
func AsString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		return s, true
	case []any, map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

// scalarOrNil adapts AsString to the nil-or-string cell convention.
func scalarOrNil(v any) any {
	if s, ok := AsString(v); ok {
		return s
	}
	return nil
}

// ParseStructured parses a raw cell into its structured form. Strings that
// look bracket/brace-delimited get a strict JSON parse first, then a
// permissive pass that rewrites Python literal syntax (single quotes,
// None/True/False) into JSON. Parse failure is not an error: the value
// degrades to an opaque scalar.
func ParseStructured(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{Kind: KindNull}
	case []any:
		return Value{Kind: KindList, List: t}
	case map[string]any:
		return Value{Kind: KindObject, Object: t}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return Value{Kind: KindNull}
		}
		delimited := (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
			(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"))
		if delimited {
			if out, ok := decodeJSON(s); ok {
				return out
			}
			if out, ok := decodeJSON(pythonToJSON(s)); ok {
				return out
			}
		}
		return Value{Kind: KindScalar, Scalar: s}
	default:
		if s, ok := AsString(v); ok {
			return Value{Kind: KindScalar, Scalar: s}
		}
		return Value{Kind: KindNull}
	}
}

func decodeJSON(s string) (Value, bool) {
	var any0 any
	if err := json.Unmarshal([]byte(s), &any0); err != nil {
		return Value{}, false
	}
	switch t := any0.(type) {
	case []any:
		return Value{Kind: KindList, List: t}, true
	case map[string]any:
		return Value{Kind: KindObject, Object: t}, true
	case nil:
		return Value{Kind: KindNull}, true
	default:
		if s2, ok := AsString(t); ok {
			return Value{Kind: KindScalar, Scalar: s2}, true
		}
		return Value{Kind: KindNull}, true
	}
}

// pythonToJSON rewrites the common Python literal forms seen in legacy
// extracts ("['a', 'b']", "{'k': None}") into JSON. It is intentionally
// simple: single-quoted strings become double-quoted, bare constants are
// mapped, and everything else passes through.
func pythonToJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSingle := false
	inDouble := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inSingle:
			if c == '\\' && i+1 < len(s) {
				// Preserve escapes; \' needs no escaping once double-quoted.
				if s[i+1] == '\'' {
					b.WriteByte('\'')
				} else {
					b.WriteByte(c)
					b.WriteByte(s[i+1])
				}
				i++
				continue
			}
			if c == '\'' {
				b.WriteByte('"')
				inSingle = false
				continue
			}
			if c == '"' {
				b.WriteString(`\"`)
				continue
			}
			b.WriteByte(c)
		case inDouble:
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(c)
				b.WriteByte(s[i+1])
				i++
				continue
			}
			if c == '"' {
				inDouble = false
			}
			b.WriteByte(c)
		default:
			if c == '\'' {
				b.WriteByte('"')
				inSingle = true
				continue
			}
			if c == '"' {
				b.WriteByte(c)
				inDouble = true
				continue
			}
			if rest := s[i:]; strings.HasPrefix(rest, "None") {
				b.WriteString("null")
				i += 3
				continue
			} else if strings.HasPrefix(rest, "True") {
				b.WriteString("true")
				i += 3
				continue
			} else if strings.HasPrefix(rest, "False") {
				b.WriteString("false")
				i += 4
				continue
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ToList normalizes a raw cell to a list of scalar strings. List elements
// map through AsString with nulls dropped; objects yield nothing (they are
// handled by object-specific builders such as the geo rule); a scalar yields
// a single-element list.
func ToList(v any) []string {
	parsed := ParseStructured(v)
	switch parsed.Kind {
	case KindNull, KindObject:
		return nil
	case KindList:
		out := make([]string, 0, len(parsed.List))
		for _, el := range parsed.List {
			if s, ok := AsString(el); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{parsed.Scalar}
	}
}

// Truthy reports whether the cell reads as an affirmative flag.
func Truthy(v any) bool {
	s, ok := AsString(v)
	if !ok {
		return false
	}
	_, hit := truthyTokens[strings.ToLower(s)]
	return hit
}

// CleanNumber extracts a float from messy numeric text: thousands separators
// become spaces and the first token is parsed; failing that, all characters
// outside [0-9.-] are stripped and the parse retried.
func CleanNumber(v any) (float64, bool) {
	s, ok := AsString(v)
	if !ok {
		return 0, false
	}
	if fields := strings.Fields(strings.ReplaceAll(s, ",", " ")); len(fields) > 0 {
		if f, err := strconv.ParseFloat(fields[0], 64); err == nil {
			return f, true
		}
	}
	stripped := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if stripped == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
