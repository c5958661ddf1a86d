package sheetdb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Conventional column names shared by every table.
const (
	ColumnID        = "id"
	ColumnGroupID   = "group_id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

// DisplayTimeFormat is the day/month/year layout written into timestamp cells.
const DisplayTimeFormat = "02/01/2006 15:04:05"

// Record is one data row decoded into canonical column names.
// A nil value means the cell was empty.
type Record struct {
	Values map[string]interface{}
}

// NewRecord creates a record holding a copy of values.
func NewRecord(values map[string]interface{}) *Record {
	r := &Record{Values: make(map[string]interface{}, len(values))}
	for k, v := range values {
		r.Values[k] = v
	}
	return r
}

// ID returns the synthetic identifier, or 0 when the record has none.
func (r *Record) ID() int64 {
	return r.GetAsInt64(ColumnID, 0)
}

// Copy returns a shallow copy of the record.
func (r *Record) Copy() *Record {
	return NewRecord(r.Values)
}

// MarshalJSON encodes the record as a plain object.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Values)
}

// GetAsString returns the value as string or defaultValue if not found
func (r *Record) GetAsString(col string, defaultValue string) string {
	v, ok := r.Values[col]
	if !ok || v == nil {
		return defaultValue
	}

	switch val := v.(type) {
	case string:
		return val
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []string:
		return strings.Join(val, ",")
	case time.Time:
		return val.Format(DisplayTimeFormat)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// GetAsInt64 returns the value as int64 or defaultValue if not found
func (r *Record) GetAsInt64(col string, defaultValue int64) int64 {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetAsFloat64 returns the value as float64 or defaultValue if not found
func (r *Record) GetAsFloat64(col string, defaultValue float64) float64 {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetAsStrings returns the value as []string or defaultValue if not found.
// JSON arrays decoded by the codec come back as []interface{}.
func (r *Record) GetAsStrings(col string, defaultValue []string) []string {
	v, ok := r.Values[col]
	if !ok || v == nil {
		return defaultValue
	}

	switch val := v.(type) {
	case []string:
		return val
	case string:
		if val == "" {
			return []string{}
		}
		return strings.Split(val, ",")
	case []interface{}:
		result := make([]string, len(val))
		for i, item := range val {
			result[i] = fmt.Sprintf("%v", item)
		}
		return result
	}
	return defaultValue
}

// GetAsBool returns the value as bool or defaultValue if not found.
// String values compare case-insensitively against "TRUE".
func (r *Record) GetAsBool(col string, defaultValue bool) bool {
	v, ok := r.Values[col]
	if !ok || v == nil {
		return defaultValue
	}

	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(strings.TrimSpace(val), "TRUE")
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	}
	return defaultValue
}

// timeLayouts are tried in order when a timestamp cell is parsed.
var timeLayouts = []string{
	DisplayTimeFormat,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseTime parses a timestamp cell written in any of the accepted layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GetAsTime returns the value as time.Time or defaultValue if not found
func (r *Record) GetAsTime(col string, defaultValue time.Time) time.Time {
	v, ok := r.Values[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case time.Time:
		return val
	case string:
		if t, ok := ParseTime(val); ok {
			return t
		}
	}
	return defaultValue
}

// Set stores a value under its canonical column name.
func (r *Record) Set(col string, value interface{}) {
	if r.Values == nil {
		r.Values = make(map[string]interface{})
	}
	r.Values[NormalizeKey(col)] = value
}
