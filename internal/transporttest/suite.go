// Package transporttest checks that a sheetdb.Transport behaves like the
// Google Sheets values API in the ways the table layer depends on.
package transporttest

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// Factory returns an empty transport for one subtest.
type Factory func(t *testing.T) sheetdb.Transport

// Run exercises every Transport method against fresh transports.
func Run(t *testing.T, newTransport Factory) {
	t.Run("MissingSheet", func(t *testing.T) {
		tr := newTransport(t)
		_, err := tr.GetValues(context.Background(), sheetdb.TableRange("nope"))
		assert.ErrorIs(t, err, sheetdb.ErrTableMissing)

		err = tr.UpdateValues(context.Background(), sheetdb.HeaderRange("nope"), [][]interface{}{{"id"}})
		assert.ErrorIs(t, err, sheetdb.ErrTableMissing)
	})

	t.Run("AddSheet", func(t *testing.T) {
		ctx := context.Background()
		tr := newTransport(t)
		addSheet(t, tr, "people")

		meta, err := tr.Metadata(ctx)
		require.NoError(t, err)
		_, ok := meta.Sheet("people")
		assert.True(t, ok)

		values, err := tr.GetValues(ctx, sheetdb.TableRange("people"))
		require.NoError(t, err)
		assert.Empty(t, values)

		err = tr.BatchUpdate(ctx, []sheetdb.Request{{Type: sheetdb.RequestAddSheet, Title: "people"}})
		assert.Error(t, err, "adding a duplicate sheet")
	})

	t.Run("AppendAndRead", func(t *testing.T) {
		ctx := context.Background()
		tr := newPeople(t, newTransport, 3)

		values, err := tr.GetValues(ctx, sheetdb.TableRange("people"))
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"id", "name", "team"},
			{"1", "person-1", "ops"},
			{"2", "person-2", "ops"},
			{"3", "person-3", "ops"},
		}, values)
	})

	t.Run("TrailingCellsTrimmed", func(t *testing.T) {
		ctx := context.Background()
		tr := newPeople(t, newTransport, 1)

		err := tr.AppendValues(ctx, sheetdb.TableRange("people"), [][]interface{}{{"2", "", ""}})
		require.NoError(t, err)

		values, err := tr.GetValues(ctx, sheetdb.RowRange("people", 3, 0))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"2"}}, values)

		values, err = tr.GetValues(ctx, sheetdb.RowRange("people", 10, 0))
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("UpdateRow", func(t *testing.T) {
		ctx := context.Background()
		tr := newPeople(t, newTransport, 3)

		err := tr.UpdateValues(ctx, sheetdb.RowRange("people", 3, 3), [][]interface{}{{"2", "renamed", "sales"}})
		require.NoError(t, err)

		values, err := tr.GetValues(ctx, sheetdb.TableRange("people"))
		require.NoError(t, err)
		require.Len(t, values, 4)
		assert.Equal(t, []string{"2", "renamed", "sales"}, values[2])
		assert.Equal(t, []string{"3", "person-3", "ops"}, values[3])
	})

	t.Run("UpdateCell", func(t *testing.T) {
		ctx := context.Background()
		tr := newPeople(t, newTransport, 2)

		err := tr.UpdateValues(ctx, sheetdb.CellRange("people", 3, 2), [][]interface{}{{"qa"}})
		require.NoError(t, err)

		values, err := tr.GetValues(ctx, sheetdb.TableRange("people"))
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "person-1", "qa"}, values[1])
		assert.Equal(t, []string{"2", "person-2", "ops"}, values[2])
	})

	t.Run("BatchUpdateValues", func(t *testing.T) {
		ctx := context.Background()
		tr := newPeople(t, newTransport, 3)

		err := tr.BatchUpdateValues(ctx, []sheetdb.ValueRange{
			{Range: sheetdb.RowRange("people", 2, 3), Values: [][]interface{}{{"1", "a", "x"}}},
			{Range: sheetdb.RowRange("people", 4, 3), Values: [][]interface{}{{"3", "c", "x"}}},
		})
		require.NoError(t, err)

		values, err := tr.GetValues(ctx, sheetdb.ColumnRange("people", 2, 2))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a"}, {"person-2"}, {"c"}}, values)
	})

	t.Run("DeleteRows", func(t *testing.T) {
		ctx := context.Background()
		tr := newPeople(t, newTransport, 5)

		meta, err := tr.Metadata(ctx)
		require.NoError(t, err)
		info, ok := meta.Sheet("people")
		require.True(t, ok)

		// physical rows 5 and 3, highest first
		err = tr.BatchUpdate(ctx, []sheetdb.Request{
			{Type: sheetdb.RequestDeleteRows, SheetID: info.SheetID, StartIndex: 4, EndIndex: 5},
			{Type: sheetdb.RequestDeleteRows, SheetID: info.SheetID, StartIndex: 2, EndIndex: 3},
		})
		require.NoError(t, err)

		ids, err := tr.GetValues(ctx, sheetdb.ColumnRange("people", 1, 2))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"1"}, {"3"}, {"5"}}, ids)
	})

	t.Run("NumericCells", func(t *testing.T) {
		ctx := context.Background()
		tr := newPeople(t, newTransport, 0)

		err := tr.AppendValues(ctx, sheetdb.TableRange("people"), [][]interface{}{{int64(7), "seven", ""}})
		require.NoError(t, err)

		values, err := tr.GetValues(ctx, sheetdb.ColumnRange("people", 1, 2))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"7"}}, values)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		tr := newTransport(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := tr.Metadata(ctx)
		assert.Error(t, err)
	})
}

func addSheet(t *testing.T, tr sheetdb.Transport, title string) {
	t.Helper()
	err := tr.BatchUpdate(context.Background(), []sheetdb.Request{{Type: sheetdb.RequestAddSheet, Title: title}})
	require.NoError(t, err)
}

// newPeople creates a "people" sheet holding a header and n rows.
func newPeople(t *testing.T, newTransport Factory, n int) sheetdb.Transport {
	t.Helper()
	ctx := context.Background()
	tr := newTransport(t)
	addSheet(t, tr, "people")

	err := tr.UpdateValues(ctx, sheetdb.HeaderRange("people"), [][]interface{}{{"id", "name", "team"}})
	require.NoError(t, err)

	if n == 0 {
		return tr
	}
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{
			strconv.Itoa(i + 1),
			"person-" + strconv.Itoa(i+1),
			"ops",
		}
	}
	require.NoError(t, tr.AppendValues(ctx, sheetdb.TableRange("people"), rows))
	return tr
}
