package sheetdb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DecodeRow maps a header-labeled row of cells to a record. Empty cells
// decode to nil, except JSON columns which decode to an empty array.
// Malformed typed cells never abort decoding; they are reported as warnings.
func (s *Schema) DecodeRow(headers, cells []string) (*Record, []DecodeWarning) {
	rec := &Record{Values: make(map[string]interface{}, len(headers))}
	var warnings []DecodeWarning

	for i, h := range headers {
		key := NormalizeKey(h)
		if key == "" {
			continue
		}
		raw := ""
		if i < len(cells) {
			raw = cells[i]
		}

		v, w := s.decodeCell(key, raw)
		rec.Values[key] = v
		if w != nil {
			warnings = append(warnings, *w)
		}
	}

	return rec, warnings
}

func (s *Schema) decodeCell(key, raw string) (interface{}, *DecodeWarning) {
	trimmed := strings.TrimSpace(raw)

	switch s.kind(key) {
	case kindJSON:
		if trimmed == "" || trimmed == "null" {
			return []interface{}{}, nil
		}
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			var v interface{}
			if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
				return raw, &DecodeWarning{Column: key, Value: raw, Reason: "invalid JSON"}
			}
			return v, nil
		}
		return raw, nil

	case kindBool:
		switch {
		case trimmed == "":
			return nil, nil
		case strings.EqualFold(trimmed, "TRUE"):
			return true, nil
		case strings.EqualFold(trimmed, "FALSE"):
			return false, nil
		default:
			return false, &DecodeWarning{Column: key, Value: raw, Reason: "not a boolean"}
		}

	case kindInt:
		if trimmed == "" {
			return nil, nil
		}
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && f == float64(int64(f)) {
			return int64(f), nil
		}
		return raw, &DecodeWarning{Column: key, Value: raw, Reason: "not an integer"}

	default:
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	}
}

// EncodeRecord lays a record out along headers. Columns the record does not
// carry are written as empty cells.
func (s *Schema) EncodeRecord(headers []string, rec *Record) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = EncodeValue(rec.Values[NormalizeKey(h)])
	}
	return row
}

// EncodeValue converts a Go value to a cell value.
func EncodeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case json.Number:
		return val.String()
	case time.Time:
		return val.Format(DisplayTimeFormat)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
