// Package fetch bounds reads from external data sources with a timeout and
// retries them with exponential backoff.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Policy controls how a single source read is attempted.
type Policy struct {
	// Timeout bounds each attempt. Zero disables the per-attempt timeout.
	Timeout time.Duration

	// Retries is the number of additional attempts after the first failure.
	Retries uint64

	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
}

// DefaultPolicy is used when the configuration does not override it.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:         10 * time.Second,
		Retries:         2,
		InitialInterval: 200 * time.Millisecond,
	}
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs fn until it succeeds, the retries are exhausted, or ctx ends.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	const op = "fetch.Do"

	var b backoff.BackOff
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	exp.MaxElapsedTime = 0
	b = backoff.WithContext(backoff.WithMaxRetries(exp, p.Retries), ctx)

	attempt := func() (T, error) {
		attemptCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}
		return fn(attemptCtx)
	}

	result, err := backoff.RetryWithData(attempt, b)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Failures records which sources degraded during a request.
type Failures struct {
	mu      sync.Mutex
	sources []string
}

func (f *Failures) add(source string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = append(f.sources, source)
}

// Sources returns the names of failed sources in the order they failed.
func (f *Failures) Sources() []string {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sources))
	copy(out, f.sources)
	return out
}

// OrEmpty runs Do and, on failure, logs the error and returns the zero value
// so the caller can continue with an empty contribution for that source.
// Cancellation of ctx is still reported as an error.
func OrEmpty[T any](ctx context.Context, p Policy, log zerolog.Logger, failures *Failures, source string, fn func(ctx context.Context) (T, error)) (T, error) {
	result, err := Do(ctx, p, fn)
	if err == nil {
		log.Debug().Str("source", source).Msg("Source fetched")
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		var zero T
		return zero, err
	}

	log.Warn().
		Err(err).
		Str("source", source).
		Msg("Source unavailable, continuing with empty contribution")
	failures.add(source)

	var zero T
	return zero, nil
}
