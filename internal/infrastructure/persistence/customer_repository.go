package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/partner"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByIDForTenant finds a customer by ID within a tenant
func (r *GormCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err, shared.ErrNotFound.WithDetail("customer_id", id.String()))
	}
	return model.ToDomain(), nil
}

// FindByPhone finds a customer by normalized phone within a tenant
func (r *GormCustomerRepository) FindByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND phone = ?", tenantID, phone).
		First(&model).Error; err != nil {
		return nil, translateError(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// Save creates a customer. Two transactions racing on the same phone end
// with one unique violation, reported as a conflict.
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	return translateError(r.db.WithContext(ctx).Create(model).Error, shared.ErrNotFound)
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormCustomerRepository) SaveWithLock(ctx context.Context, customer *partner.Customer) error {
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", customer.ID, customer.TenantID, customer.Version-1).
		Updates(map[string]interface{}{
			"name":       customer.Name,
			"email":      customer.Email,
			"address":    customer.Address,
			"version":    customer.Version,
			"updated_at": customer.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error, shared.ErrNotFound)
	}
	if result.RowsAffected == 0 {
		return versionConflict("customer", customer.ID, customer.Version)
	}
	return nil
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
