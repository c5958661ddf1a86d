package sheetdb

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxColumn bounds whole-table reads ("A:ZZ").
const maxColumn = "ZZ"

// Range is a parsed A1 range. Rows and columns are 1-based; zero means
// the range is open on that side.
type Range struct {
	Sheet    string
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ColumnName converts a column number to its letter name (1 -> A, 27 -> AA).
func ColumnName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return ""
	}
	return name
}

// TableRange addresses every column of a table up to ZZ.
func TableRange(sheet string) string {
	return fmt.Sprintf("%s!A:%s", quoteSheet(sheet), maxColumn)
}

// HeaderRange addresses row 1.
func HeaderRange(sheet string) string {
	return RowRange(sheet, 1, 0)
}

// RowRange addresses one physical row. A zero width spans up to ZZ.
func RowRange(sheet string, row, width int) string {
	last := maxColumn
	if width > 0 {
		last = ColumnName(width)
	}
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, last, row)
}

// CellRange addresses a single cell.
func CellRange(sheet string, col, row int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(sheet), ColumnName(col), row)
}

// ColumnRange addresses one column from fromRow to the end of the sheet.
func ColumnRange(sheet string, col, fromRow int) string {
	name := ColumnName(col)
	return fmt.Sprintf("%s!%s%d:%s", quoteSheet(sheet), name, fromRow, name)
}

func quoteSheet(sheet string) string {
	for _, r := range sheet {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
		}
	}
	return sheet
}

// ParseRange parses "Sheet!A1:C3", "Sheet!A:ZZ", "Sheet!C5" and "Sheet!B2:B".
func ParseRange(s string) (Range, error) {
	idx := strings.LastIndex(s, "!")
	if idx <= 0 {
		return Range{}, fmt.Errorf("range %q has no sheet name", s)
	}

	rng := Range{Sheet: s[:idx]}
	if strings.HasPrefix(rng.Sheet, "'") && strings.HasSuffix(rng.Sheet, "'") && len(rng.Sheet) >= 2 {
		rng.Sheet = strings.ReplaceAll(rng.Sheet[1:len(rng.Sheet)-1], "''", "'")
	}

	ref := s[idx+1:]
	start, end, isSpan := strings.Cut(ref, ":")

	var err error
	rng.StartCol, rng.StartRow, err = parseRef(start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	if !isSpan {
		rng.EndCol, rng.EndRow = rng.StartCol, rng.StartRow
		return rng, nil
	}

	rng.EndCol, rng.EndRow, err = parseRef(end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	return rng, nil
}

// parseRef parses "C5", "C" or "5".
func parseRef(ref string) (col, row int, err error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return 0, 0, fmt.Errorf("empty reference")
	}
	letters := strings.TrimRight(ref, "0123456789")
	switch {
	case letters == ref:
		col, err = excelize.ColumnNameToNumber(ref)
		return col, 0, err
	case letters == "":
		_, err = fmt.Sscanf(ref, "%d", &row)
		return 0, row, err
	default:
		return excelize.CellNameToCoordinates(ref)
	}
}

// String renders the range back into A1 notation.
func (r Range) String() string {
	ref := func(col, row int) string {
		s := ""
		if col > 0 {
			s = ColumnName(col)
		}
		if row > 0 {
			s += fmt.Sprintf("%d", row)
		}
		return s
	}
	start := ref(r.StartCol, r.StartRow)
	end := ref(r.EndCol, r.EndRow)
	if start == end {
		return quoteSheet(r.Sheet) + "!" + start
	}
	return quoteSheet(r.Sheet) + "!" + start + ":" + end
}

// Contains reports whether the 1-based cell lies inside the range.
func (r Range) Contains(col, row int) bool {
	if r.StartCol > 0 && col < r.StartCol || r.EndCol > 0 && col > r.EndCol {
		return false
	}
	if r.StartRow > 0 && row < r.StartRow || r.EndRow > 0 && row > r.EndRow {
		return false
	}
	return true
}
