package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByIDForTenant finds an order with its items
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)

	// FindAllForTenant lists orders. Filters: "status", "origin", "customer_id".
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// Save creates an order together with its items
	Save(ctx context.Context, order *Order) error

	// SaveWithLock updates order header fields only if the stored version is order.Version-1
	SaveWithLock(ctx context.Context, order *Order) error

	// SumByPaymentMethod totals orders of origin created in [from, to], grouped by payment method
	SumByPaymentMethod(ctx context.Context, tenantID uuid.UUID, origin Origin, from, to time.Time) (map[PaymentMethod]decimal.Decimal, error)
}
