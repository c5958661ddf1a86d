package sheetdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const maxBackoff = 2 * time.Second

// backoff repeats a call with capped exponential delays.
type backoff struct {
	maxRetries int
	interval   time.Duration
	log        *zap.Logger
}

// run calls call until it succeeds, shouldRetry rejects its error or the
// retries are used up.
func (b backoff) run(ctx context.Context, op string, call func() error, shouldRetry func(error) bool) error {
	var err error
	attempts := 0
	for i := 0; i <= b.maxRetries; i++ {
		attempts++
		err = call()
		if err == nil || !shouldRetry(err) {
			break
		}

		if i < b.maxRetries {
			delay := b.interval << uint(i)
			if delay > maxBackoff {
				delay = maxBackoff
			}
			b.log.Debug("retrying transport call",
				zap.String("op", op),
				zap.Int("attempt", attempts),
				zap.Duration("backoff", delay),
				zap.Error(err))

			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	if err != nil && attempts > 1 {
		err = fmt.Errorf("%s failed after %d attempts: %w", op, attempts, err)
	}
	return err
}

// resilientTransport classifies transport failures and retries the reads.
// Writes address rows by position and are never repeated here: a row can
// move between two attempts. Table retries a whole read and write sequence
// instead.
type resilientTransport struct {
	next  Transport
	retry backoff
}

func (t *resilientTransport) GetValues(ctx context.Context, rng string) (rows [][]string, err error) {
	defer mon.Task()(&ctx)(&err)
	err = t.retry.run(ctx, "get values", func() error {
		var callErr error
		rows, callErr = t.next.GetValues(ctx, rng)
		return callErr
	}, retryable)
	return rows, classify(err)
}

func (t *resilientTransport) UpdateValues(ctx context.Context, rng string, values [][]interface{}) (err error) {
	defer mon.Task()(&ctx)(&err)
	return classify(t.next.UpdateValues(ctx, rng, values))
}

func (t *resilientTransport) BatchUpdateValues(ctx context.Context, data []ValueRange) (err error) {
	defer mon.Task()(&ctx)(&err)
	return classify(t.next.BatchUpdateValues(ctx, data))
}

func (t *resilientTransport) AppendValues(ctx context.Context, rng string, values [][]interface{}) (err error) {
	defer mon.Task()(&ctx)(&err)
	return classify(t.next.AppendValues(ctx, rng, values))
}

func (t *resilientTransport) BatchUpdate(ctx context.Context, requests []Request) (err error) {
	defer mon.Task()(&ctx)(&err)
	return classify(t.next.BatchUpdate(ctx, requests))
}

func (t *resilientTransport) Metadata(ctx context.Context) (meta *DocumentMetadata, err error) {
	defer mon.Task()(&ctx)(&err)
	err = t.retry.run(ctx, "metadata", func() error {
		var callErr error
		meta, callErr = t.next.Metadata(ctx)
		return callErr
	}, retryable)
	return meta, classify(err)
}

func retryable(err error) bool {
	return !errors.Is(err, ErrTableMissing) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// writeFailure marks the positional write of a rewrite attempt as the step
// that failed. Only those attempts are repeated; a failed read has already
// been retried by the transport.
type writeFailure struct{ err error }

func (w *writeFailure) Error() string { return w.err.Error() }
func (w *writeFailure) Unwrap() error { return w.err }

func failedWrite(err error) bool {
	var wf *writeFailure
	return errors.As(err, &wf) && retryable(err)
}

// rewrite runs attempt, which reads the table, resolves rows and writes,
// repeating the whole attempt when its write fails. Each attempt resolves
// physical rows afresh.
func (t *Table) rewrite(ctx context.Context, op string, attempt func() error) error {
	return t.store.retry.run(ctx, op, attempt, failedWrite)
}

// classify marks err as a TransportError while keeping it matchable
// with errors.Is.
func classify(err error) error {
	if err == nil || TransportError.Has(err) {
		return err
	}
	return TransportError.Wrap(err)
}
