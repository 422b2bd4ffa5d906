package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
)

// StockMovementRepository is append-only: there is no update or delete.
type StockMovementRepository interface {
	// Create appends a movement
	Create(ctx context.Context, movement *StockMovement) error

	// CreateBatch appends multiple movements
	CreateBatch(ctx context.Context, movements []*StockMovement) error

	// FindByProduct lists movements for a product, newest first
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)

	// FindByOrder lists movements linked to an order
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]StockMovement, error)

	// SumDeltaByProduct returns the signed sum of all movements of a product
	SumDeltaByProduct(ctx context.Context, tenantID, productID uuid.UUID) (int, int64, error)
}
