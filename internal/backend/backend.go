// Package backend opens the sheetdb transport selected in the configuration.
package backend

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/ideamans/go-sheetdb/adapters/excel"
	"github.com/ideamans/go-sheetdb/adapters/googlesheets"
	"github.com/ideamans/go-sheetdb/adapters/memory"
	"github.com/ideamans/go-sheetdb/internal/config"
)

// MemoryDocumentID names the in-process document of the memory backend.
const MemoryDocumentID = "opsheet"

// Open returns the transport for cfg.Backend.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (sheetdb.Transport, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Backend {
	case config.BackendSheets:
		sc := googlesheets.Config{SpreadsheetID: cfg.SpreadsheetID}
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		if cfg.CredentialsFile != "" || os.Getenv(googlesheets.CredentialsEnv) != "" {
			log.Info("opening google sheets with a service account key", zap.String("spreadsheet_id", cfg.SpreadsheetID))
			return googlesheets.NewWithJSONKeyFile(ctx, sc, cfg.CredentialsFile)
		}
		log.Info("opening google sheets with default credentials", zap.String("spreadsheet_id", cfg.SpreadsheetID))
		return googlesheets.NewWithDefaultCredentials(ctx, sc)

	case config.BackendExcel:
		log.Info("opening excel workbook", zap.String("path", cfg.ExcelPath))
		return excel.New(&excel.Config{FilePath: cfg.ExcelPath})

	case config.BackendMemory:
		log.Warn("using the in-memory backend; data is lost on exit")
		return memory.New(MemoryDocumentID), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
