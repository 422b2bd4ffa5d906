package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/retailcore/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestRetryPolicy_SucceedsAfterConflicts(t *testing.T) {
	var notified []int
	calls := 0

	err := fastPolicy(4).Run(context.Background(), func(_ context.Context, attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 3 {
			return domain.ErrTransactionConflict
		}
		return nil
	}, func(err error, next int, _ time.Duration) {
		assert.True(t, domain.IsConflict(err))
		notified = append(notified, next)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{2, 3}, notified)
}

func TestRetryPolicy_ExhaustedReturnsLastConflict(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Run(context.Background(), func(context.Context, int) error {
		calls++
		return domain.ErrTransactionConflict
	}, nil)

	assert.Equal(t, 3, calls)
	assert.True(t, domain.IsConflict(err))
}

func TestRetryPolicy_BusinessErrorsAreNotRetried(t *testing.T) {
	calls := 0
	stockErr := domain.NewInsufficientStockError("p1", "Coffee", 3, 2)

	err := fastPolicy(4).Run(context.Background(), func(context.Context, int) error {
		calls++
		return stockErr
	}, nil)

	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
}

func TestRetryPolicy_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := RetryPolicy{MaxAttempts: 5, InitialInterval: 50 * time.Millisecond, MaxInterval: 50 * time.Millisecond}.
		Run(ctx, func(context.Context, int) error {
			calls++
			cancel()
			return domain.ErrTransactionConflict
		}, nil)

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoOpUnitOfWork_PassesRepositories(t *testing.T) {
	uow := NewNoOpUnitOfWork(RepositorySet{})
	var got Repositories
	require.NoError(t, uow.Execute(context.Background(), func(repos Repositories) error {
		got = repos
		return nil
	}))
	assert.NotNil(t, got)
	assert.Nil(t, got.Products())

	boom := errors.New("boom")
	assert.ErrorIs(t, uow.Execute(context.Background(), func(Repositories) error { return boom }), boom)
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, at, FixedClock(at)())
	assert.Equal(t, time.UTC, SystemClock().Location())
}
