package shared

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	domain "github.com/retailcore/backend/internal/domain/shared"
)

// RetryPolicy bounds how often a transaction is re-run after a write conflict.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy allows four attempts with 20ms to 200ms jittered backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     4,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

// SingleRetry allows exactly one re-run.
func SingleRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, InitialInterval: 10 * time.Millisecond, MaxInterval: 10 * time.Millisecond}
}

// RetryNotify is called before each re-run with the conflict that caused it.
type RetryNotify func(err error, nextAttempt int, wait time.Duration)

// Run calls fn until it succeeds, returns an error other than
// TRANSACTION_CONFLICT, the attempts are used up, or ctx is done.
// The returned error is fn's last error, or ctx.Err().
func (p RetryPolicy) Run(ctx context.Context, fn func(ctx context.Context, attempt int) error, notify RetryNotify) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.InitialInterval
	exp.MaxInterval = p.MaxInterval
	exp.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithMaxRetries(exp, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := fn(ctx, attempt)
		if err == nil || domain.IsConflict(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		if notify != nil {
			notify(err, attempt+1, wait)
		}
	})
}
