package sheetdb

import (
	"time"

	"go.uber.org/zap"
)

// MigrationPolicy decides what the ensurer does with an existing header row
// that differs from the expected one.
type MigrationPolicy int

const (
	// MigrationExtend appends missing trailing columns when the existing
	// header is a prefix of the expected one, and fails otherwise.
	MigrationExtend MigrationPolicy = iota
	// MigrationStrict never writes an existing header row.
	MigrationStrict
	// MigrationOverwrite replaces row 1 with the expected header. Data in
	// relabeled columns keeps its position.
	MigrationOverwrite
)

// ParseMigrationPolicy maps "extend", "strict" and "overwrite" to a policy.
func ParseMigrationPolicy(s string) (MigrationPolicy, bool) {
	switch s {
	case "", "extend":
		return MigrationExtend, true
	case "strict":
		return MigrationStrict, true
	case "overwrite":
		return MigrationOverwrite, true
	}
	return MigrationExtend, false
}

// Clock supplies the time written into timestamp columns.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Config represents configuration for the Store
type Config struct {
	MaxRetries    int             // Retries of reads and of read-then-write sequences (default: 3)
	RetryInterval time.Duration   // Base interval for exponential backoff (default: 100ms)
	TimeFormat    string          // Layout of created_at/updated_at (default: DisplayTimeFormat)
	Migration     MigrationPolicy // Header policy for existing tables (default: MigrationExtend)
	EnsureTTL     time.Duration   // How long a successful ensure is trusted (default: forever)
	Clock         Clock           // Time source (default: SystemClock)
	Logger        *zap.Logger     // Logger (default: no-op)
}

func (c *Config) withDefaults() Config {
	cfg := Config{}
	if c != nil {
		cfg = *c
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 100 * time.Millisecond
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = DisplayTimeFormat
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}
