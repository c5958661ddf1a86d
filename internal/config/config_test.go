package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/ideamans/go-sheetdb/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.BackendMemory, cfg.Backend)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, "extend", cfg.Migration)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryInterval)
	assert.Equal(t, sheetdb.DisplayTimeFormat, cfg.TimeFormat)
	assert.Equal(t, "admin", cfg.PrivilegedRole)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("OPSHEET_PORT", "9090")
	t.Setenv("OPSHEET_BACKEND", "SHEETS")
	t.Setenv("OPSHEET_SPREADSHEET_ID", "sheet-123")
	t.Setenv("OPSHEET_CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("OPSHEET_RETRY_INTERVAL", "250ms")
	t.Setenv("OPSHEET_MIGRATION", "Strict")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, config.BackendSheets, cfg.Backend)
	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryInterval)
	assert.Equal(t, sheetdb.MigrationStrict, cfg.StoreConfig(nil).Migration)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opsheet.yaml")
	content := `
environment: prod
backend: excel
excel_path: /tmp/ops.xlsx
cors_origins:
  - https://ops.example
max_retries: 0
log_level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("OPSHEET_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, config.BackendExcel, cfg.Backend)
	assert.Equal(t, "/tmp/ops.xlsx", cfg.ExcelPath)
	assert.Equal(t, []string{"https://ops.example"}, cfg.CORSOrigins)
	assert.Equal(t, "debug", cfg.LogLevel, "environment wins over the file")

	sc := cfg.StoreConfig(nil)
	assert.Equal(t, -1, sc.MaxRetries, "zero retries is kept as no retries")

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := config.Config{Port: "8080", Backend: config.BackendMemory, LogLevel: "info", Migration: "extend", PrivilegedRole: "admin"}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"unknown backend", func(c *config.Config) { c.Backend = "postgres" }},
		{"sheets without id", func(c *config.Config) { c.Backend = config.BackendSheets }},
		{"excel without path", func(c *config.Config) { c.Backend = config.BackendExcel }},
		{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"bad migration", func(c *config.Config) { c.Migration = "drop" }},
		{"negative retries", func(c *config.Config) { c.MaxRetries = -2 }},
		{"no port", func(c *config.Config) { c.Port = "" }},
		{"no privileged role", func(c *config.Config) { c.PrivilegedRole = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
