package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDebtRepository implements DebtRepository using GORM
type GormDebtRepository struct {
	db *gorm.DB
}

// NewGormDebtRepository creates a new GormDebtRepository
func NewGormDebtRepository(db *gorm.DB) *GormDebtRepository {
	return &GormDebtRepository{db: db}
}

func preloadInstallments(db *gorm.DB) *gorm.DB {
	return db.Order("number ASC")
}

// FindByIDForTenant finds a debt with its installments
func (r *GormDebtRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.Debt, error) {
	var model models.DebtModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", preloadInstallments).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err, shared.ErrNotFound.WithDetail("debt_id", id.String()))
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists debts with their installments
func (r *GormDebtRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.Debt, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DebtModel{}).Where("tenant_id = ?", tenantID)
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, shared.ErrNotFound)
	}

	var rows []models.DebtModel
	if err := paginate(query, filter, DebtSortFields).
		Preload("Installments", preloadInstallments).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, shared.ErrNotFound)
	}
	return debtsToDomain(rows), total, nil
}

// FindOutstanding returns every unpaid debt of a tenant
func (r *GormDebtRepository) FindOutstanding(ctx context.Context, tenantID uuid.UUID) ([]finance.Debt, error) {
	var rows []models.DebtModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", preloadInstallments).
		Where("tenant_id = ? AND status = ?", tenantID, finance.DebtStatusPending).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, shared.ErrNotFound)
	}
	return debtsToDomain(rows), nil
}

// Save creates a debt together with its installments
func (r *GormDebtRepository) Save(ctx context.Context, debt *finance.Debt) error {
	model := models.DebtModelFromDomain(debt)
	return translateError(r.db.WithContext(ctx).Create(model).Error, shared.ErrNotFound)
}

// SaveWithLock writes the debt status and every installment's paid state.
// The header update carries the version guard; installment rows are only
// touched once it matched.
func (r *GormDebtRepository) SaveWithLock(ctx context.Context, debt *finance.Debt) error {
	db := r.db.WithContext(ctx)
	result := db.
		Model(&models.DebtModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", debt.ID, debt.TenantID, debt.Version-1).
		Updates(map[string]interface{}{
			"status":     debt.Status,
			"paid_at":    debt.PaidAt,
			"version":    debt.Version,
			"updated_at": debt.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error, shared.ErrNotFound)
	}
	if result.RowsAffected == 0 {
		return versionConflict("debt", debt.ID, debt.Version)
	}

	for _, inst := range debt.Installments {
		if err := db.
			Model(&models.DebtInstallmentModel{}).
			Where("id = ? AND debt_id = ?", inst.ID, debt.ID).
			Updates(map[string]interface{}{
				"status":  inst.Status,
				"paid_at": inst.PaidAt,
			}).Error; err != nil {
			return translateError(err, shared.ErrNotFound)
		}
	}
	return nil
}

func debtsToDomain(rows []models.DebtModel) []finance.Debt {
	debts := make([]finance.Debt, len(rows))
	for i := range rows {
		debts[i] = *rows[i].ToDomain()
	}
	return debts
}

var _ finance.DebtRepository = (*GormDebtRepository)(nil)
