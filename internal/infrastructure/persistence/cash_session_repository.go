package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCashSessionRepository implements CashSessionRepository using GORM
type GormCashSessionRepository struct {
	db *gorm.DB
}

// NewGormCashSessionRepository creates a new GormCashSessionRepository
func NewGormCashSessionRepository(db *gorm.DB) *GormCashSessionRepository {
	return &GormCashSessionRepository{db: db}
}

var activeSessionStatuses = []finance.SessionStatus{finance.SessionStatusOpen, finance.SessionStatusReopened}

// FindByIDForTenant finds a session by ID
func (r *GormCashSessionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.CashSession, error) {
	var model models.CashSessionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err, shared.ErrSessionNotFound.WithDetail("session_id", id.String()))
	}
	return model.ToDomain(), nil
}

// FindActive returns the OPEN or REOPENED session of a tenant
func (r *GormCashSessionRepository) FindActive(ctx context.Context, tenantID uuid.UUID) (*finance.CashSession, error) {
	var model models.CashSessionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID, activeSessionStatuses).
		Order("starting_open DESC").
		First(&model).Error; err != nil {
		return nil, translateError(err, shared.ErrSessionNotFound)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists sessions
func (r *GormCashSessionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.CashSession, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CashSessionModel{}).Where("tenant_id = ?", tenantID)
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, shared.ErrSessionNotFound)
	}

	var rows []models.CashSessionModel
	if err := paginate(query, filter, CashSessionSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, shared.ErrSessionNotFound)
	}
	sessions := make([]finance.CashSession, len(rows))
	for i := range rows {
		sessions[i] = *rows[i].ToDomain()
	}
	return sessions, total, nil
}

// Save creates a session. A concurrent open that slipped past the
// in-transaction check hits the partial unique index.
func (r *GormCashSessionRepository) Save(ctx context.Context, session *finance.CashSession) error {
	model := models.CashSessionModelFromDomain(session)
	return translateError(r.db.WithContext(ctx).Create(model).Error, shared.ErrSessionNotFound)
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormCashSessionRepository) SaveWithLock(ctx context.Context, session *finance.CashSession) error {
	model := models.CashSessionModelFromDomain(session)
	result := r.db.WithContext(ctx).
		Model(&models.CashSessionModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", session.ID, session.TenantID, session.Version-1).
		Updates(map[string]interface{}{
			"status":               model.Status,
			"closing_date":         model.ClosingDate,
			"counted_cash_amount":  model.CountedCashAmount,
			"expected_cash_amount": model.ExpectedCashAmount,
			"difference":           model.Difference,
			"sales_by_method":      model.SalesByMethod,
			"notes":                model.Notes,
			"audit_log":            model.AuditLog,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error, shared.ErrSessionNotFound)
	}
	if result.RowsAffected == 0 {
		return versionConflict("cash_session", session.ID, session.Version)
	}
	return nil
}

var _ finance.CashSessionRepository = (*GormCashSessionRepository)(nil)
