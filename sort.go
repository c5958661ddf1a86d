package sheetdb

import (
	"sort"
	"strconv"
	"strings"
)

// SortKind selects how a column is compared.
type SortKind int

const (
	SortText SortKind = iota
	SortNumber
	SortTime
)

// SortKey orders records by one column. Empty values always sort last.
type SortKey struct {
	Column string
	Desc   bool
	Kind   SortKind
}

// NewestFirst orders by created_at, most recent first.
var NewestFirst = SortKey{Column: ColumnCreatedAt, Desc: true, Kind: SortTime}

// SortRecords sorts records in place by keys, keeping the original order
// of records that compare equal.
func SortRecords(records []*Record, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, key := range keys {
			c := compareForSort(records[i], records[j], key)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// compareForSort returns -1 when a sorts before b.
func compareForSort(a, b *Record, key SortKey) int {
	av, aok := sortValue(a, key)
	bv, bok := sortValue(b, key)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}

	var c int
	switch key.Kind {
	case SortNumber:
		c = compareFloat(av.(float64), bv.(float64))
	case SortTime:
		c = compareFloat(av.(float64), bv.(float64))
	default:
		c = strings.Compare(av.(string), bv.(string))
	}
	if key.Desc {
		c = -c
	}
	return c
}

func sortValue(r *Record, key SortKey) (interface{}, bool) {
	v, ok := r.Values[key.Column]
	if !ok || v == nil {
		return nil, false
	}
	switch key.Kind {
	case SortNumber:
		if !isNumeric(v) {
			s, isString := v.(string)
			if !isString {
				return nil, false
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, false
			}
			return f, true
		}
		return toFloat64(v), true
	case SortTime:
		t, ok := ParseTime(r.GetAsString(key.Column, ""))
		if !ok {
			return nil, false
		}
		return float64(t.UnixNano()), true
	default:
		s := r.GetAsString(key.Column, "")
		if s == "" {
			return nil, false
		}
		return strings.ToLower(s), true
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
