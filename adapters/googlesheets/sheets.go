package googlesheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sheetdb "github.com/ideamans/go-sheetdb"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputOption = "RAW"
	insertDataOption = "INSERT_ROWS"
	metadataFields   = "spreadsheetId,sheets.properties(sheetId,title)"
)

// Transport implements sheetdb.Transport for one Google spreadsheet
type Transport struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewTransport creates a new Google Sheets transport with provided options
func NewTransport(ctx context.Context, config Config, opts ...option.ClientOption) (*Transport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Transport{
		service:       service,
		spreadsheetID: config.SpreadsheetID,
	}, nil
}

// GetValues retrieves the formatted text of every cell in rng
func (t *Transport) GetValues(ctx context.Context, rng string) ([][]string, error) {
	resp, err := t.service.Spreadsheets.Values.Get(t.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", rng, mapError(err))
	}

	values := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		values[i] = make([]string, len(row))
		for j, cell := range row {
			values[i][j] = cellText(cell)
		}
	}
	return values, nil
}

// UpdateValues overwrites the cells of rng
func (t *Transport) UpdateValues(ctx context.Context, rng string, values [][]interface{}) error {
	vr := &sheets.ValueRange{Values: values}
	_, err := t.service.Spreadsheets.Values.Update(t.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, mapError(err))
	}
	return nil
}

// BatchUpdateValues overwrites several ranges in a single request
func (t *Transport) BatchUpdateValues(ctx context.Context, data []sheetdb.ValueRange) error {
	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             make([]*sheets.ValueRange, len(data)),
	}
	for i, vr := range data {
		req.Data[i] = &sheets.ValueRange{
			MajorDimension: "ROWS",
			Range:          vr.Range,
			Values:         vr.Values,
		}
	}

	_, err := t.service.Spreadsheets.Values.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to batch update values: %w", mapError(err))
	}
	return nil
}

// AppendValues inserts rows after the table found in rng
func (t *Transport) AppendValues(ctx context.Context, rng string, values [][]interface{}) error {
	vr := &sheets.ValueRange{Values: values}
	_, err := t.service.Spreadsheets.Values.Append(t.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", rng, mapError(err))
	}
	return nil
}

// BatchUpdate performs structural requests in a single spreadsheet update
func (t *Transport) BatchUpdate(ctx context.Context, requests []sheetdb.Request) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: make([]*sheets.Request, len(requests)),
	}
	for i, r := range requests {
		switch r.Type {
		case sheetdb.RequestAddSheet:
			req.Requests[i] = &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: r.Title},
				},
			}
		case sheetdb.RequestDeleteRows:
			req.Requests[i] = &sheets.Request{
				DeleteDimension: &sheets.DeleteDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:    r.SheetID,
						Dimension:  "ROWS",
						StartIndex: r.StartIndex,
						EndIndex:   r.EndIndex,
						// sheet id and start index 0 are valid values
						ForceSendFields: []string{"SheetId", "StartIndex"},
					},
				},
			}
		default:
			return fmt.Errorf("unsupported request type %d", r.Type)
		}
	}

	_, err := t.service.Spreadsheets.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to batch update spreadsheet: %w", mapError(err))
	}
	return nil
}

// Metadata lists the sheets of the spreadsheet
func (t *Transport) Metadata(ctx context.Context) (*sheetdb.DocumentMetadata, error) {
	resp, err := t.service.Spreadsheets.Get(t.spreadsheetID).
		Fields(metadataFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet: %w", mapError(err))
	}

	meta := &sheetdb.DocumentMetadata{DocumentID: resp.SpreadsheetId}
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		meta.Sheets = append(meta.Sheets, sheetdb.SheetInfo{
			Title:   s.Properties.Title,
			SheetID: s.Properties.SheetId,
		})
	}
	return meta, nil
}

// mapError turns "Unable to parse range" into sheetdb.ErrTableMissing,
// which is what the API answers for a sheet that does not exist.
func mapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest &&
		strings.Contains(apiErr.Message, "Unable to parse range") {
		return fmt.Errorf("%w: %v", sheetdb.ErrTableMissing, err)
	}
	return err
}

// cellText converts a cell returned by the API to text
func cellText(v interface{}) string {
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
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

var _ sheetdb.Transport = (*Transport)(nil)
