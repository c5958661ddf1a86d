package sheetdb

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindJSON
	kindBool
	kindInt
)

// Schema describes one table: its sheet name, the expected header row and
// the columns whose cells carry typed data.
type Schema struct {
	Table   string
	Headers []string

	JSONFields []string
	BoolFields []string
	IntFields  []string

	// ValidateCreate checks a full record before it is appended.
	ValidateCreate func(values map[string]interface{}) error
	// ValidateUpdate checks a partial record before it is merged.
	ValidateUpdate func(values map[string]interface{}) error

	once  sync.Once
	kinds map[string]fieldKind
}

// Validate checks that the schema itself is usable.
func (s *Schema) Validate() error {
	if s.Table == "" {
		return fmt.Errorf("schema has no table name")
	}
	if len(s.Headers) == 0 || s.Headers[0] != ColumnID {
		return fmt.Errorf("schema %s: first header must be %q", s.Table, ColumnID)
	}
	seen := make(map[string]bool, len(s.Headers))
	for _, h := range s.Headers {
		if h != NormalizeKey(h) {
			return fmt.Errorf("schema %s: header %q is not canonical", s.Table, h)
		}
		if seen[h] {
			return fmt.Errorf("schema %s: duplicate header %q", s.Table, h)
		}
		seen[h] = true
	}
	return nil
}

func (s *Schema) kind(col string) fieldKind {
	s.once.Do(func() {
		s.kinds = make(map[string]fieldKind)
		for _, f := range s.JSONFields {
			s.kinds[f] = kindJSON
		}
		for _, f := range s.BoolFields {
			s.kinds[f] = kindBool
		}
		for _, f := range s.IntFields {
			s.kinds[f] = kindInt
		}
		s.kinds[ColumnID] = kindInt
	})
	return s.kinds[col]
}

// ColumnIndex returns the 0-based position of col in the expected header,
// or -1.
func (s *Schema) ColumnIndex(col string) int {
	for i, h := range s.Headers {
		if h == col {
			return i
		}
	}
	return -1
}

// HasColumn reports whether col is part of the expected header.
func (s *Schema) HasColumn(col string) bool {
	return s.ColumnIndex(col) >= 0
}

// NormalizeKey converts a header or field name to the canonical snake_case
// form: "Assigned To", "assignedTo" and "assigned-to" all become
// "assigned_to".
func NormalizeKey(key string) string {
	runes := []rune(strings.TrimSpace(key))
	var b strings.Builder
	lastUnderscore := true
	for i, r := range runes {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case unicode.IsUpper(r):
			if !lastUnderscore && i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		default:
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// NormalizeValues returns a copy of values with canonical keys.
func NormalizeValues(values map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		out[NormalizeKey(k)] = v
	}
	return out
}
