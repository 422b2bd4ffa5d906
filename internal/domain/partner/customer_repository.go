package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByIDForTenant finds a customer by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// FindByPhone finds a customer by normalized phone number within a tenant
	FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*Customer, error)

	// Save creates a customer
	Save(ctx context.Context, customer *Customer) error

	// SaveWithLock updates a customer only if the stored version is customer.Version-1
	SaveWithLock(ctx context.Context, customer *Customer) error
}
