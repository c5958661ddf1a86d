// Package config loads the opsheet application settings from an optional
// YAML file, a .env file and OPSHEET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// EnvPrefix prefixes every environment variable: OPSHEET_PORT, ...
const EnvPrefix = "OPSHEET"

// Backends.
const (
	BackendSheets = "sheets"
	BackendExcel  = "excel"
	BackendMemory = "memory"
)

const (
	keyEnvironment     = "environment"
	keyPort            = "port"
	keyBackend         = "backend"
	keySpreadsheetID   = "spreadsheet_id"
	keyCredentialsFile = "credentials_file"
	keyExcelPath       = "excel_path"
	keyCORSOrigins     = "cors_origins"
	keyLogLevel        = "log_level"
	keyMigration       = "migration"
	keyMaxRetries      = "max_retries"
	keyRetryInterval   = "retry_interval"
	keyTimeFormat      = "time_format"
	keyPrivilegedRole  = "privileged_role"
)

type Config struct {
	Environment     string
	Port            string
	Backend         string
	SpreadsheetID   string
	CredentialsFile string
	ExcelPath       string
	CORSOrigins     []string
	LogLevel        string
	Migration       string
	MaxRetries      int
	RetryInterval   time.Duration
	TimeFormat      string
	PrivilegedRole  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyEnvironment, "dev")
	v.SetDefault(keyPort, "8080")
	v.SetDefault(keyBackend, BackendMemory)
	v.SetDefault(keyCORSOrigins, "http://localhost:3000")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyMigration, "extend")
	v.SetDefault(keyMaxRetries, 3)
	v.SetDefault(keyRetryInterval, time.Second)
	v.SetDefault(keyTimeFormat, sheetdb.DisplayTimeFormat)
	v.SetDefault(keyPrivilegedRole, "admin")
}

// Load reads the configuration. path names a YAML file; when empty,
// opsheet.yaml is looked up in the working directory and may be absent.
// Environment variables override the file.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("opsheet")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Environment:     v.GetString(keyEnvironment),
		Port:            v.GetString(keyPort),
		Backend:         strings.ToLower(v.GetString(keyBackend)),
		SpreadsheetID:   v.GetString(keySpreadsheetID),
		CredentialsFile: v.GetString(keyCredentialsFile),
		ExcelPath:       v.GetString(keyExcelPath),
		CORSOrigins:     stringList(v, keyCORSOrigins),
		LogLevel:        strings.ToLower(v.GetString(keyLogLevel)),
		Migration:       strings.ToLower(v.GetString(keyMigration)),
		MaxRetries:      v.GetInt(keyMaxRetries),
		RetryInterval:   v.GetDuration(keyRetryInterval),
		TimeFormat:      v.GetString(keyTimeFormat),
		PrivilegedRole:  v.GetString(keyPrivilegedRole),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// stringList accepts a YAML list or a comma separated string.
func stringList(v *viper.Viper, key string) []string {
	raw, ok := v.Get(key).(string)
	if !ok {
		return v.GetStringSlice(key)
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.Backend, validation.Required, validation.In(BackendSheets, BackendExcel, BackendMemory)),
		validation.Field(&c.SpreadsheetID, validation.When(c.Backend == BackendSheets, validation.Required)),
		validation.Field(&c.ExcelPath, validation.When(c.Backend == BackendExcel, validation.Required)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Migration, validation.In("strict", "extend", "overwrite")),
		validation.Field(&c.MaxRetries, validation.Min(0)),
		validation.Field(&c.PrivilegedRole, validation.Required),
	)
}

// Logger builds the process logger: console output in dev, JSON elsewhere.
func (c *Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Environment == "dev" {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zc.Level = level
	return zc.Build()
}

// StoreConfig translates the settings into a sheetdb.Config.
func (c *Config) StoreConfig(log *zap.Logger) *sheetdb.Config {
	policy, _ := sheetdb.ParseMigrationPolicy(c.Migration)
	maxRetries := c.MaxRetries
	if maxRetries == 0 {
		// sheetdb treats zero as "use the default"
		maxRetries = -1
	}
	return &sheetdb.Config{
		MaxRetries:    maxRetries,
		RetryInterval: c.RetryInterval,
		TimeFormat:    c.TimeFormat,
		Migration:     policy,
		Logger:        log,
	}
}
