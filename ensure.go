package sheetdb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Ensurer guarantees that a table exists and starts with the expected
// header row. Successful checks are cached per table name until they expire
// or are invalidated.
type Ensurer struct {
	transport Transport
	policy    MigrationPolicy
	clock     Clock
	ttl       time.Duration
	log       *zap.Logger

	group   singleflight.Group
	mu      sync.Mutex
	ensured map[string]time.Time
}

// NewEnsurer creates an ensurer. A zero ttl trusts a successful check for
// the lifetime of the ensurer.
func NewEnsurer(transport Transport, policy MigrationPolicy, clock Clock, ttl time.Duration, log *zap.Logger) *Ensurer {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ensurer{
		transport: transport,
		policy:    policy,
		clock:     clock,
		ttl:       ttl,
		log:       log,
		ensured:   make(map[string]time.Time),
	}
}

// Ensure creates the sheet and header row of schema when missing.
func (e *Ensurer) Ensure(ctx context.Context, schema *Schema) (err error) {
	defer mon.Task()(&ctx)(&err)

	if e.Ensured(schema.Table) {
		return nil
	}

	// The check is shared by every concurrent caller, so it must outlive
	// the caller that happened to start it.
	shared := context.WithoutCancel(ctx)
	ch := e.group.DoChan(schema.Table, func() (interface{}, error) {
		if e.Ensured(schema.Table) {
			return nil, nil
		}
		if err := e.ensure(shared, schema); err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.ensured[schema.Table] = e.clock.Now()
		e.mu.Unlock()
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ensured reports whether table has a valid cached check.
func (e *Ensurer) Ensured(table string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	at, ok := e.ensured[table]
	if !ok {
		return false
	}
	if e.ttl > 0 && e.clock.Now().Sub(at) >= e.ttl {
		delete(e.ensured, table)
		return false
	}
	return true
}

// Invalidate forgets the cached check for table.
func (e *Ensurer) Invalidate(table string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.ensured, table)
}

// InvalidateAll forgets every cached check.
func (e *Ensurer) InvalidateAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ensured = make(map[string]time.Time)
}

func (e *Ensurer) ensure(ctx context.Context, schema *Schema) error {
	meta, err := e.transport.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("failed to read document metadata: %w", err)
	}

	if _, ok := meta.Sheet(schema.Table); !ok {
		err := e.transport.BatchUpdate(ctx, []Request{{Type: RequestAddSheet, Title: schema.Table}})
		if err != nil {
			return fmt.Errorf("failed to create table %s: %w", schema.Table, err)
		}
		e.log.Info("table created", zap.String("table", schema.Table))
	}

	rows, err := e.transport.GetValues(ctx, HeaderRange(schema.Table))
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", schema.Table, err)
	}
	var existing []string
	if len(rows) > 0 {
		existing = trimHeader(rows[0])
	}

	expected := schema.Headers
	switch {
	case len(existing) == 0:
		return e.writeHeader(ctx, schema.Table, 1, expected, "header created")
	case hasPrefix(existing, expected):
		return nil
	}

	switch e.policy {
	case MigrationOverwrite:
		e.log.Warn("overwriting header row",
			zap.String("table", schema.Table),
			zap.Strings("existing", existing),
			zap.Strings("expected", expected))
		return e.writeHeader(ctx, schema.Table, 1, expected, "header overwritten")
	case MigrationExtend:
		if hasPrefix(expected, existing) {
			return e.writeHeader(ctx, schema.Table, len(existing)+1, expected[len(existing):], "header extended")
		}
	}

	return fmt.Errorf("%w: table %s has [%s], expected [%s]", ErrHeaderMismatch,
		schema.Table, strings.Join(existing, ", "), strings.Join(expected, ", "))
}

// writeHeader writes labels into row 1 starting at column startCol.
func (e *Ensurer) writeHeader(ctx context.Context, table string, startCol int, labels []string, msg string) error {
	row := make([]interface{}, len(labels))
	for i, l := range labels {
		row[i] = l
	}
	rng := fmt.Sprintf("%s!%s1:%s1", quoteSheet(table), ColumnName(startCol), ColumnName(startCol+len(labels)-1))
	if err := e.transport.UpdateValues(ctx, rng, [][]interface{}{row}); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", table, err)
	}
	e.log.Info(msg, zap.String("table", table), zap.Strings("columns", labels))
	return nil
}

// trimHeader normalizes header cells and drops trailing blanks.
func trimHeader(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = NormalizeKey(c)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// hasPrefix reports whether s starts with prefix.
func hasPrefix(s, prefix []string) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}
