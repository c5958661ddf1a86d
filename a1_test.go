package sheetdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sheetdb "github.com/ideamans/go-sheetdb"
)

func TestRangeBuilders(t *testing.T) {
	assert.Equal(t, "tasks!A:ZZ", sheetdb.TableRange("tasks"))
	assert.Equal(t, "tasks!A1:ZZ1", sheetdb.HeaderRange("tasks"))
	assert.Equal(t, "tasks!A7:C7", sheetdb.RowRange("tasks", 7, 3))
	assert.Equal(t, "tasks!D4", sheetdb.CellRange("tasks", 4, 4))
	assert.Equal(t, "tasks!A2:A", sheetdb.ColumnRange("tasks", 1, 2))
	assert.Equal(t, "'my tasks'!A:ZZ", sheetdb.TableRange("my tasks"))
	assert.Equal(t, "AA", sheetdb.ColumnName(27))
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in   string
		want sheetdb.Range
	}{
		{"tasks!A:ZZ", sheetdb.Range{Sheet: "tasks", StartCol: 1, EndCol: 702}},
		{"tasks!A1:ZZ1", sheetdb.Range{Sheet: "tasks", StartCol: 1, StartRow: 1, EndCol: 702, EndRow: 1}},
		{"tasks!C5", sheetdb.Range{Sheet: "tasks", StartCol: 3, StartRow: 5, EndCol: 3, EndRow: 5}},
		{"tasks!B2:B", sheetdb.Range{Sheet: "tasks", StartCol: 2, StartRow: 2, EndCol: 2}},
		{"'it''s here'!A1", sheetdb.Range{Sheet: "it's here", StartCol: 1, StartRow: 1, EndCol: 1, EndRow: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := sheetdb.ParseRange(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}

	_, err := sheetdb.ParseRange("A1:B2")
	assert.Error(t, err, "range without sheet")
}

func TestRange_Contains(t *testing.T) {
	r, err := sheetdb.ParseRange("tasks!B2:B")
	require.NoError(t, err)

	assert.True(t, r.Contains(2, 2))
	assert.True(t, r.Contains(2, 500))
	assert.False(t, r.Contains(1, 2))
	assert.False(t, r.Contains(2, 1))
}
