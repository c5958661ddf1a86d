// Package memory provides an in-process sheetdb.Transport. A Document holds
// a set of sheets as plain string grids and follows the observable behavior
// of the Google Sheets values API closely enough for tests and demos.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// Call records one transport call.
type Call struct {
	Method string
	Range  string
}

type sheet struct {
	title string
	id    int64
	rows  [][]string
}

// Document is an in-memory spreadsheet
type Document struct {
	mu          sync.RWMutex
	id          string
	sheets      []*sheet
	nextSheetID int64
	calls       []Call
	failures    map[string]error
}

// New creates an empty document.
func New(documentID string) *Document {
	return &Document{
		id:          documentID,
		nextSheetID: 1,
		failures:    make(map[string]error),
	}
}

func (d *Document) find(title string) *sheet {
	for _, s := range d.sheets {
		if s.title == title {
			return s
		}
	}
	return nil
}

// begin records the call and returns an injected failure, if any.
// Callers hold d.mu.
func (d *Document) begin(ctx context.Context, method, rng string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.calls = append(d.calls, Call{Method: method, Range: rng})
	if err, ok := d.failures[method]; ok {
		delete(d.failures, method)
		return err
	}
	return nil
}

func (d *Document) resolve(rng string) (*sheet, sheetdb.Range, error) {
	r, err := sheetdb.ParseRange(rng)
	if err != nil {
		return nil, r, err
	}
	s := d.find(r.Sheet)
	if s == nil {
		return nil, r, fmt.Errorf("%w: %s", sheetdb.ErrTableMissing, r.Sheet)
	}
	return s, r, nil
}

// GetValues returns the cells of rng as text.
func (d *Document) GetValues(ctx context.Context, rng string) ([][]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.begin(ctx, "GetValues", rng); err != nil {
		return nil, err
	}
	s, r, err := d.resolve(rng)
	if err != nil {
		return nil, err
	}

	startRow, endRow := bounds(r.StartRow, r.EndRow, len(s.rows))
	values := make([][]string, 0)
	for row := startRow; row <= endRow; row++ {
		cells := s.rows[row-1]
		startCol, endCol := bounds(r.StartCol, r.EndCol, len(cells))
		out := make([]string, 0)
		for col := startCol; col <= endCol; col++ {
			out = append(out, cells[col-1])
		}
		values = append(values, trimCells(out))
	}

	for len(values) > 0 && len(values[len(values)-1]) == 0 {
		values = values[:len(values)-1]
	}
	return values, nil
}

// bounds clips a 1-based [start, end] span to n, treating zero as open.
func bounds(start, end, n int) (int, int) {
	if start <= 0 {
		start = 1
	}
	if end <= 0 || end > n {
		end = n
	}
	return start, end
}

func trimCells(cells []string) []string {
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// UpdateValues overwrites the cells of rng.
func (d *Document) UpdateValues(ctx context.Context, rng string, values [][]interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.begin(ctx, "UpdateValues", rng); err != nil {
		return err
	}
	return d.write(rng, values, false)
}

// BatchUpdateValues overwrites several ranges atomically.
func (d *Document) BatchUpdateValues(ctx context.Context, data []sheetdb.ValueRange) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.begin(ctx, "BatchUpdateValues", ""); err != nil {
		return err
	}
	for _, vr := range data {
		if _, _, err := d.resolve(vr.Range); err != nil {
			return err
		}
	}
	for _, vr := range data {
		if err := d.write(vr.Range, vr.Values, false); err != nil {
			return err
		}
	}
	return nil
}

// AppendValues writes rows below the last non-empty row.
func (d *Document) AppendValues(ctx context.Context, rng string, values [][]interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.begin(ctx, "AppendValues", rng); err != nil {
		return err
	}
	return d.write(rng, values, true)
}

func (d *Document) write(rng string, values [][]interface{}, appending bool) error {
	s, r, err := d.resolve(rng)
	if err != nil {
		return err
	}

	startCol := r.StartCol
	if startCol <= 0 {
		startCol = 1
	}
	startRow := r.StartRow
	if startRow <= 0 {
		startRow = 1
	}
	if appending {
		startRow = lastNonEmpty(s.rows) + 1
	}

	for i, rowValues := range values {
		row := startRow + i
		if !appending && r.EndRow > 0 && row > r.EndRow {
			return fmt.Errorf("values exceed range %s", rng)
		}
		for len(s.rows) < row {
			s.rows = append(s.rows, []string{})
		}
		for j, v := range rowValues {
			col := startCol + j
			if !appending && r.EndCol > 0 && col > r.EndCol {
				return fmt.Errorf("values exceed range %s", rng)
			}
			for len(s.rows[row-1]) < col {
				s.rows[row-1] = append(s.rows[row-1], "")
			}
			s.rows[row-1][col-1] = formatCell(v)
		}
	}
	return nil
}

func lastNonEmpty(rows [][]string) int {
	for i := len(rows) - 1; i >= 0; i-- {
		if len(trimCells(append([]string(nil), rows[i]...))) > 0 {
			return i + 1
		}
	}
	return 0
}

// BatchUpdate applies structural requests in order. Either all requests
// apply or none do.
func (d *Document) BatchUpdate(ctx context.Context, requests []sheetdb.Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.begin(ctx, "BatchUpdate", ""); err != nil {
		return err
	}

	// work on a copy so a failing request leaves the document untouched
	sheets := make([]*sheet, len(d.sheets))
	for i, s := range d.sheets {
		cp := *s
		cp.rows = append([][]string(nil), s.rows...)
		sheets[i] = &cp
	}
	nextID := d.nextSheetID
	lookup := func(id int64) *sheet {
		for _, s := range sheets {
			if s.id == id {
				return s
			}
		}
		return nil
	}

	for _, req := range requests {
		switch req.Type {
		case sheetdb.RequestAddSheet:
			for _, s := range sheets {
				if s.title == req.Title {
					return fmt.Errorf("sheet %q already exists", req.Title)
				}
			}
			sheets = append(sheets, &sheet{title: req.Title, id: nextID})
			nextID++

		case sheetdb.RequestDeleteRows:
			s := lookup(req.SheetID)
			if s == nil {
				return fmt.Errorf("%w: sheet id %d", sheetdb.ErrTableMissing, req.SheetID)
			}
			start, end := int(req.StartIndex), int(req.EndIndex)
			if start < 0 || end < start {
				return fmt.Errorf("invalid row span [%d, %d)", start, end)
			}
			if start >= len(s.rows) {
				continue
			}
			if end > len(s.rows) {
				end = len(s.rows)
			}
			s.rows = append(s.rows[:start:start], s.rows[end:]...)

		default:
			return fmt.Errorf("unsupported request type %d", req.Type)
		}
	}

	d.sheets = sheets
	d.nextSheetID = nextID
	return nil
}

// Metadata lists the sheets of the document.
func (d *Document) Metadata(ctx context.Context) (*sheetdb.DocumentMetadata, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.begin(ctx, "Metadata", ""); err != nil {
		return nil, err
	}
	meta := &sheetdb.DocumentMetadata{DocumentID: d.id}
	for _, s := range d.sheets {
		meta.Sheets = append(meta.Sheets, sheetdb.SheetInfo{Title: s.title, SheetID: s.id})
	}
	return meta, nil
}

// Load replaces the content of a sheet, creating it when missing.
func (d *Document) Load(title string, rows [][]string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.find(title)
	if s == nil {
		s = &sheet{title: title, id: d.nextSheetID}
		d.nextSheetID++
		d.sheets = append(d.sheets, s)
	}
	s.rows = make([][]string, len(rows))
	for i, row := range rows {
		s.rows[i] = append([]string(nil), row...)
	}
}

// Rows returns a copy of every row of a sheet, or nil when it is missing.
func (d *Document) Rows(title string) [][]string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := d.find(title)
	if s == nil {
		return nil
	}
	rows := make([][]string, len(s.rows))
	for i, row := range s.rows {
		rows[i] = append([]string(nil), row...)
	}
	return rows
}

// Calls returns the calls made so far.
func (d *Document) Calls() []Call {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Call(nil), d.calls...)
}

// ResetCalls clears the call log.
func (d *Document) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// FailNext makes the next call of method return err.
func (d *Document) FailNext(method string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[method] = err
}

func formatCell(v interface{}) string {
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
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", val)
	}
}

var _ sheetdb.Transport = (*Document)(nil)
