package sheetdb

import (
	"context"
	"sync"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var mon = monkit.Package()

// Store binds tables to one document reached through a Transport.
//
// The store keeps no copy of table contents: every operation re-reads the
// rows it needs. Concurrent writers are not isolated from each other; the
// last write to a row wins.
type Store struct {
	config    Config
	transport Transport
	retry     backoff
	ensurer   *Ensurer
	log       *zap.Logger

	mu     sync.Mutex
	closed bool
}

// New creates a new Store with the given transport and configuration
func New(transport Transport, config *Config) *Store {
	cfg := config.withDefaults()

	retry := backoff{
		maxRetries: cfg.MaxRetries,
		interval:   cfg.RetryInterval,
		log:        cfg.Logger,
	}
	resilient := &resilientTransport{next: transport, retry: retry}

	return &Store{
		config:    cfg,
		transport: resilient,
		retry:     retry,
		ensurer:   NewEnsurer(resilient, cfg.Migration, cfg.Clock, cfg.EnsureTTL, cfg.Logger),
		log:       cfg.Logger,
	}
}

// Table returns the CRUD engine for schema.
func (s *Store) Table(schema *Schema) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Table{
		store:  s,
		schema: schema,
		log:    s.log.With(zap.String("table", schema.Table)),
	}, nil
}

// Ensure checks every schema concurrently.
func (s *Store) Ensure(ctx context.Context, schemas ...*Schema) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := s.checkOpen(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, schema := range schemas {
		schema := schema
		g.Go(func() error {
			return s.ensurer.Ensure(ctx, schema)
		})
	}
	return g.Wait()
}

// Ensurer exposes the header cache, mainly so tests can invalidate it.
func (s *Store) Ensurer() *Ensurer {
	return s.ensurer
}

// Now returns the current time in the configured timestamp layout.
func (s *Store) Now() string {
	return s.config.Clock.Now().Format(s.config.TimeFormat)
}

// Logger returns the store's logger.
func (s *Store) Logger() *zap.Logger {
	return s.log
}

// Close rejects further operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}
