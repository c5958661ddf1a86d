package sheetdb

import (
	"fmt"
	"strings"
)

// Query operators.
const (
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpIn           = "in"
	OpBetween      = "between"
	OpContains     = "contains"
)

var validOps = []string{
	OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpIn, OpBetween, OpContains,
}

// Condition represents a single query condition
type Condition struct {
	Column   string      // canonical column name
	Operator string      // one of the Op constants
	Value    interface{} // []interface{} for in, [2]interface{} for between
}

// Where builds a condition, normalizing the column name.
func Where(column, operator string, value interface{}) Condition {
	return Condition{Column: NormalizeKey(column), Operator: operator, Value: value}
}

// Query represents a query with multiple conditions
type Query struct {
	Conditions []Condition // all must hold
	Limit      int
	Offset     int
}

// evalCondition evaluates a single condition against a record
func evalCondition(record *Record, condition Condition) bool {
	// a missing column compares as nil
	value := record.Values[condition.Column]

	switch condition.Operator {
	case OpEqual:
		return compareEqual(value, condition.Value)
	case OpNotEqual:
		return !compareEqual(value, condition.Value)
	case OpGreater:
		c, ok := compareOrdered(value, condition.Value)
		return ok && c > 0
	case OpGreaterEqual:
		c, ok := compareOrdered(value, condition.Value)
		return ok && c >= 0
	case OpLess:
		c, ok := compareOrdered(value, condition.Value)
		return ok && c < 0
	case OpLessEqual:
		c, ok := compareOrdered(value, condition.Value)
		return ok && c <= 0
	case OpIn:
		return compareIn(value, condition.Value)
	case OpBetween:
		return compareBetween(value, condition.Value)
	case OpContains:
		return compareContains(value, condition.Value)
	default:
		return false
	}
}

// MatchesQuery checks if a record matches all conditions in the query
func (r *Record) MatchesQuery(query Query) bool {
	for _, condition := range query.Conditions {
		if !evalCondition(r, condition) {
			return false
		}
	}
	return true
}

// compareEqual compares two values for equality
func compareEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if isNumeric(a) && isNumeric(b) {
		return toFloat64(a) == toFloat64(b)
	}

	// booleans match their cell spelling in any case
	_, aBool := a.(bool)
	_, bBool := b.(bool)
	if aBool || bBool {
		return strings.EqualFold(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
	}

	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// compareOrdered compares numbers numerically, timestamps chronologically
// and other strings lexically. ok is false when the values are not
// comparable.
func compareOrdered(a, b interface{}) (c int, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if isNumeric(a) && isNumeric(b) {
		return compareFloat(toFloat64(a), toFloat64(b)), true
	}

	as, aString := a.(string)
	bs, bString := b.(string)
	if !aString || !bString {
		return 0, false
	}
	if at, aok := ParseTime(as); aok {
		if bt, bok := ParseTime(bs); bok {
			return at.Compare(bt), true
		}
	}
	return strings.Compare(as, bs), true
}

// compareIn checks if a is in the list b
func compareIn(a, b interface{}) bool {
	list, ok := b.([]interface{})
	if !ok {
		return false
	}

	for _, item := range list {
		if compareEqual(a, item) {
			return true
		}
	}
	return false
}

// compareBetween checks if a is between b[0] and b[1], inclusive
func compareBetween(a, b interface{}) bool {
	var lo, hi interface{}

	switch v := b.(type) {
	case [2]interface{}:
		lo, hi = v[0], v[1]
	case []interface{}:
		if len(v) != 2 {
			return false
		}
		lo, hi = v[0], v[1]
	default:
		return false
	}

	cLo, ok := compareOrdered(a, lo)
	if !ok {
		return false
	}
	cHi, ok := compareOrdered(a, hi)
	if !ok {
		return false
	}
	return cLo >= 0 && cHi <= 0
}

// compareContains checks whether a string contains b case-insensitively,
// or whether a decoded JSON array holds b.
func compareContains(a, b interface{}) bool {
	switch v := a.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), strings.ToLower(fmt.Sprintf("%v", b)))
	case []interface{}:
		for _, item := range v {
			if compareEqual(item, b) {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if compareEqual(item, b) {
				return true
			}
		}
	}
	return false
}

// isNumeric checks if a value is numeric
func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// toFloat64 converts a numeric value to float64
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	default:
		return 0
	}
}

// ApplyQuery filters records, then applies Offset and Limit. The input
// order is preserved and the result is never nil.
func ApplyQuery(records []*Record, query Query) []*Record {
	results := make([]*Record, 0, len(records))
	for _, record := range records {
		if record.MatchesQuery(query) {
			results = append(results, record)
		}
	}

	if query.Offset > 0 {
		if query.Offset >= len(results) {
			return []*Record{}
		}
		results = results[query.Offset:]
	}

	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}

	return results
}

// ValidateQuery validates query structure
func ValidateQuery(query Query) error {
	for i, cond := range query.Conditions {
		valid := false
		for _, op := range validOps {
			if cond.Operator == op {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid operator '%s' in condition %d", cond.Operator, i)
		}

		if cond.Operator == OpIn {
			if _, ok := cond.Value.([]interface{}); !ok {
				return fmt.Errorf("operator 'in' requires []interface{} value in condition %d", i)
			}
		}

		if cond.Operator == OpBetween {
			valid := false
			switch v := cond.Value.(type) {
			case [2]interface{}:
				valid = true
			case []interface{}:
				if len(v) == 2 {
					valid = true
				}
			}
			if !valid {
				return fmt.Errorf("operator 'between' requires [2]interface{} or []interface{} with 2 elements in condition %d", i)
			}
		}

		if cond.Column == "" {
			return fmt.Errorf("empty column name in condition %d", i)
		}
	}

	if query.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if query.Offset < 0 {
		return fmt.Errorf("offset must be non-negative")
	}

	return nil
}
