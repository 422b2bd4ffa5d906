package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewInsufficientStockError("p-1", "Mug", 3, 2)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrProductNotFound))

	wrapped := fmt.Errorf("creating order: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))

	var de *DomainError
	require.True(t, errors.As(wrapped, &de))
	assert.Equal(t, 1, de.Details["shortfall"])
	assert.Equal(t, "Mug", de.Details["product_name"])
}

func TestDomainError_WithDetailCopies(t *testing.T) {
	a := ErrNotFound.WithDetail("id", "1")
	b := a.WithDetail("kind", "order")

	assert.Nil(t, ErrNotFound.Details)
	assert.Len(t, a.Details, 1)
	assert.Len(t, b.Details, 2)
}

func TestDomainError_WithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrStorageFailure.WithCause(cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrStorageFailure))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, ErrStorageFailure.Unwrap())
}

func TestRetryableAndConflict(t *testing.T) {
	assert.True(t, IsRetryable(ErrTransactionConflict))
	assert.True(t, IsRetryable(fmt.Errorf("x: %w", ErrOrderCreationFailed)))
	assert.False(t, IsRetryable(ErrValidation))
	assert.False(t, IsRetryable(errors.New("plain")))

	assert.True(t, IsConflict(ErrTransactionConflict.WithDetail("table", "products")))
	assert.False(t, IsConflict(ErrStorageFailure))
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 1000, OrderDir: "sideways"}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
	assert.Equal(t, "created_at", f.OrderBy)
	assert.NotNil(t, f.Filters)

	f = Filter{Page: 3, PageSize: 10}.Normalize()
	assert.Equal(t, 20, f.Offset())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 1, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPaginated([]int{}, 0, 1, 0).TotalPages)
}
