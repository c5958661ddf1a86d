package sheetdb

import "context"

// RequestType represents the type of a structural request
type RequestType int

const (
	// RequestAddSheet creates a new sheet titled Title.
	RequestAddSheet RequestType = iota
	// RequestDeleteRows removes rows [StartIndex, EndIndex) of SheetID,
	// shifting every later row up.
	RequestDeleteRows
)

// Request is a single structural change submitted through BatchUpdate.
// Row indexes are 0-based, so physical row n has StartIndex n-1.
type Request struct {
	Type       RequestType
	Title      string
	SheetID    int64
	StartIndex int64
	EndIndex   int64
}

// ValueRange is a block of cells written by BatchUpdateValues.
type ValueRange struct {
	Range  string
	Values [][]interface{}
}

// SheetInfo names one table of a document.
type SheetInfo struct {
	Title   string
	SheetID int64
}

// DocumentMetadata lists the tables of a document.
type DocumentMetadata struct {
	DocumentID string
	Sheets     []SheetInfo
}

// Sheet finds a sheet by title.
func (m *DocumentMetadata) Sheet(title string) (SheetInfo, bool) {
	for _, s := range m.Sheets {
		if s.Title == title {
			return s, true
		}
	}
	return SheetInfo{}, false
}

// Transport performs raw grid operations against one document.
// Ranges use A1 notation. Authentication belongs to the implementation.
type Transport interface {
	// GetValues returns the cells of a range as text, without trailing
	// empty cells or trailing empty rows.
	GetValues(ctx context.Context, rng string) ([][]string, error)

	// UpdateValues overwrites the cells of a range.
	UpdateValues(ctx context.Context, rng string, values [][]interface{}) error

	// BatchUpdateValues overwrites several ranges in a single request.
	BatchUpdateValues(ctx context.Context, data []ValueRange) error

	// AppendValues writes rows after the last non-empty row of the table.
	AppendValues(ctx context.Context, rng string, values [][]interface{}) error

	// BatchUpdate applies structural requests in order, atomically.
	BatchUpdate(ctx context.Context, requests []Request) error

	// Metadata lists the sheets of the document.
	Metadata(ctx context.Context) (*DocumentMetadata, error)
}
