package excel

import (
	"time"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// Config holds configuration for the Excel transport
type Config struct {
	FilePath string // Path to the workbook; created on the first AddSheet
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return ErrMissingFilePath
	}
	return nil
}

// DefaultStoreConfig returns the recommended store configuration for a
// local workbook. File access fails fast, so retries are short.
func DefaultStoreConfig() *sheetdb.Config {
	return &sheetdb.Config{
		MaxRetries:    1,
		RetryInterval: 50 * time.Millisecond,
	}
}
