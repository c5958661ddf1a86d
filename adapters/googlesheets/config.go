package googlesheets

import (
	"errors"
	"time"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// ErrMissingSpreadsheetID is returned when no spreadsheet is configured.
var ErrMissingSpreadsheetID = errors.New("spreadsheet id is required")

// Config represents configuration specific to the Google Sheets transport
type Config struct {
	SpreadsheetID string
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.SpreadsheetID == "" {
		return ErrMissingSpreadsheetID
	}
	return nil
}

// DefaultStoreConfig returns the recommended store configuration for
// Google Sheets, whose quota errors clear after about a second.
func DefaultStoreConfig() *sheetdb.Config {
	return &sheetdb.Config{
		MaxRetries:    3,
		RetryInterval: 1 * time.Second,
	}
}
