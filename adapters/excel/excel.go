package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/xuri/excelize/v2"
)

// defaultSheet is the sheet excelize puts in a new workbook
const defaultSheet = "Sheet1"

// Transport implements sheetdb.Transport over a local .xlsx workbook.
// The workbook is opened and saved around every call, so other programs
// may edit it between calls.
type Transport struct {
	config *Config
	mu     sync.Mutex
}

// New creates a new Excel transport with the given configuration
func New(config *Config) (*Transport, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create a copy of config to avoid external modifications
	configCopy := *config

	return &Transport{
		config: &configCopy,
	}, nil
}

// open loads the workbook. A missing file yields a new empty workbook
// with created set.
func (t *Transport) open() (f *excelize.File, created bool, err error) {
	f, err = excelize.OpenFile(t.config.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return excelize.NewFile(), true, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidFileFormat, err)
	}
	return f, false, nil
}

func (t *Transport) save(f *excelize.File) error {
	dir := filepath.Dir(t.config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(t.config.FilePath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

// withWorkbook runs fn against the workbook and saves it when write is set
// and fn succeeded.
func (t *Transport) withWorkbook(ctx context.Context, write bool, fn func(f *excelize.File, created bool) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	f, created, err := t.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fn(f, created); err != nil {
		return err
	}
	if !write {
		return nil
	}
	return t.save(f)
}

// parseRange resolves rng and checks that its sheet exists
func parseRange(f *excelize.File, created bool, rng string) (sheetdb.Range, error) {
	r, err := sheetdb.ParseRange(rng)
	if err != nil {
		return r, err
	}
	if created || !hasSheet(f, r.Sheet) {
		return r, fmt.Errorf("%w: %s", sheetdb.ErrTableMissing, r.Sheet)
	}
	return r, nil
}

func hasSheet(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// GetValues reads the formatted text of rng
func (t *Transport) GetValues(ctx context.Context, rng string) ([][]string, error) {
	var values [][]string
	err := t.withWorkbook(ctx, false, func(f *excelize.File, created bool) error {
		r, err := parseRange(f, created, rng)
		if err != nil {
			return err
		}

		rows, err := f.GetRows(r.Sheet)
		if err != nil {
			return fmt.Errorf("failed to get rows: %w", err)
		}
		values = crop(rows, r)
		return nil
	})
	return values, err
}

// crop cuts rows down to r, dropping trailing empty cells and rows
func crop(rows [][]string, r sheetdb.Range) [][]string {
	startRow, startCol := max(r.StartRow, 1), max(r.StartCol, 1)
	endRow := len(rows)
	if r.EndRow > 0 && r.EndRow < endRow {
		endRow = r.EndRow
	}

	out := [][]string{}
	for i := startRow; i <= endRow; i++ {
		row := rows[i-1]
		endCol := len(row)
		if r.EndCol > 0 && r.EndCol < endCol {
			endCol = r.EndCol
		}

		cells := []string{}
		for j := startCol; j <= endCol; j++ {
			cells = append(cells, row[j-1])
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		out = append(out, cells)
	}

	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

// writeBlock writes values with their top-left cell at (col, row)
func writeBlock(f *excelize.File, sheet string, col, row int, values [][]interface{}) error {
	for i, rowValues := range values {
		for j, v := range rowValues {
			cell, err := excelize.CoordinatesToCellName(col+j, row+i)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s: %w", cell, err)
			}
		}
	}
	return nil
}

// UpdateValues overwrites the cells of rng
func (t *Transport) UpdateValues(ctx context.Context, rng string, values [][]interface{}) error {
	return t.withWorkbook(ctx, true, func(f *excelize.File, created bool) error {
		r, err := parseRange(f, created, rng)
		if err != nil {
			return err
		}
		return writeBlock(f, r.Sheet, max(r.StartCol, 1), max(r.StartRow, 1), values)
	})
}

// BatchUpdateValues overwrites several ranges and saves once
func (t *Transport) BatchUpdateValues(ctx context.Context, data []sheetdb.ValueRange) error {
	return t.withWorkbook(ctx, true, func(f *excelize.File, created bool) error {
		for _, vr := range data {
			r, err := parseRange(f, created, vr.Range)
			if err != nil {
				return err
			}
			if err := writeBlock(f, r.Sheet, max(r.StartCol, 1), max(r.StartRow, 1), vr.Values); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendValues writes rows below the last non-empty row of the sheet
func (t *Transport) AppendValues(ctx context.Context, rng string, values [][]interface{}) error {
	return t.withWorkbook(ctx, true, func(f *excelize.File, created bool) error {
		r, err := parseRange(f, created, rng)
		if err != nil {
			return err
		}

		rows, err := f.GetRows(r.Sheet)
		if err != nil {
			return fmt.Errorf("failed to get rows: %w", err)
		}
		last := len(crop(rows, sheetdb.Range{Sheet: r.Sheet}))
		return writeBlock(f, r.Sheet, max(r.StartCol, 1), last+1, values)
	})
}

// BatchUpdate applies structural requests. Nothing is saved unless every
// request succeeds.
func (t *Transport) BatchUpdate(ctx context.Context, requests []sheetdb.Request) error {
	return t.withWorkbook(ctx, true, func(f *excelize.File, created bool) error {
		for _, req := range requests {
			switch req.Type {
			case sheetdb.RequestAddSheet:
				if !created && hasSheet(f, req.Title) {
					return fmt.Errorf("%w: %s", ErrSheetExists, req.Title)
				}
				if _, err := f.NewSheet(req.Title); err != nil {
					return fmt.Errorf("failed to create sheet: %w", err)
				}
				if created && req.Title != defaultSheet {
					if err := f.DeleteSheet(defaultSheet); err != nil {
						return fmt.Errorf("failed to remove default sheet: %w", err)
					}
				}
				created = false

			case sheetdb.RequestDeleteRows:
				name, ok := f.GetSheetMap()[int(req.SheetID)]
				if created || !ok {
					return fmt.Errorf("%w: %d", ErrUnknownSheetID, req.SheetID)
				}
				// remove bottom-up so earlier indexes stay valid
				for row := req.EndIndex; row > req.StartIndex; row-- {
					if err := f.RemoveRow(name, int(row)); err != nil {
						return fmt.Errorf("failed to remove row %d: %w", row, err)
					}
				}

			default:
				return fmt.Errorf("unsupported request type %d", req.Type)
			}
		}
		return nil
	})
}

// Metadata lists the sheets of the workbook in tab order. A workbook that
// does not exist yet has no sheets.
func (t *Transport) Metadata(ctx context.Context) (*sheetdb.DocumentMetadata, error) {
	meta := &sheetdb.DocumentMetadata{DocumentID: filepath.Base(t.config.FilePath)}
	err := t.withWorkbook(ctx, false, func(f *excelize.File, created bool) error {
		if created {
			return nil
		}

		ids := make(map[string]int, len(f.GetSheetMap()))
		for id, name := range f.GetSheetMap() {
			ids[name] = id
		}
		for _, name := range f.GetSheetList() {
			meta.Sheets = append(meta.Sheets, sheetdb.SheetInfo{Title: name, SheetID: int64(ids[name])})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

var _ sheetdb.Transport = (*Transport)(nil)
