package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
)

// DebtRepository defines the interface for debt persistence
type DebtRepository interface {
	// FindByIDForTenant finds a debt with its installments
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Debt, error)

	// FindAllForTenant lists debts. Filters: "status", "customer_id".
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Debt, int64, error)

	// FindOutstanding returns every unpaid debt of a tenant with installments
	FindOutstanding(ctx context.Context, tenantID uuid.UUID) ([]Debt, error)

	// Save creates a debt together with its installments
	Save(ctx context.Context, debt *Debt) error

	// SaveWithLock updates the debt and its installment statuses only if the
	// stored version is debt.Version-1
	SaveWithLock(ctx context.Context, debt *Debt) error
}

// CashSessionRepository defines the interface for cash session persistence
type CashSessionRepository interface {
	// FindByIDForTenant finds a session by ID
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CashSession, error)

	// FindActive returns the OPEN or REOPENED session of a tenant,
	// or shared.ErrSessionNotFound when there is none
	FindActive(ctx context.Context, tenantID uuid.UUID) (*CashSession, error)

	// FindAllForTenant lists sessions. Filters: "status".
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CashSession, int64, error)

	// Save creates a session
	Save(ctx context.Context, session *CashSession) error

	// SaveWithLock updates a session only if the stored version is session.Version-1
	SaveWithLock(ctx context.Context, session *CashSession) error
}
