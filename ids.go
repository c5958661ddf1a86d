package sheetdb

import (
	"strconv"
	"strings"
)

// NextID returns max(parsed ids)+1, skipping empty and unparsable values.
// Identifiers are never reused: deleting the highest id still leaves every
// later allocation above any id that remains.
func NextID(existing []string) int64 {
	var highest int64
	for _, v := range existing {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			if f, ferr := strconv.ParseFloat(strings.TrimSpace(v), 64); ferr == nil {
				id = int64(f)
			} else {
				continue
			}
		}
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

// NextIDs allocates n contiguous identifiers following NextID.
func NextIDs(existing []string, n int) []int64 {
	if n <= 0 {
		return nil
	}
	first := NextID(existing)
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = first + int64(i)
	}
	return ids
}
