package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the product persistence the core depends on
type ProductRepository interface {
	// FindByIDForTenant finds a product by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs. Missing ids are simply absent.
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Product, error)

	// Save creates a product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock updates a product only if the stored version is product.Version-1
	SaveWithLock(ctx context.Context, product *Product) error
}
