package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements the append-only ledger using GORM.
// It has no update or delete path.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a movement
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	model := models.StockMovementModelFromDomain(movement)
	return translateError(r.db.WithContext(ctx).Create(model).Error, shared.ErrNotFound)
}

// CreateBatch appends multiple movements
func (r *GormStockMovementRepository) CreateBatch(ctx context.Context, movements []*inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([]*models.StockMovementModel, len(movements))
	for i, m := range movements {
		rows[i] = models.StockMovementModelFromDomain(m)
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(rows, 100).Error, shared.ErrNotFound)
}

// FindByProduct lists movements for a product
func (r *GormStockMovementRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, shared.ErrNotFound)
	}

	var rows []models.StockMovementModel
	if err := paginate(query, filter, StockMovementSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, shared.ErrNotFound)
	}
	return movementsToDomain(rows), total, nil
}

// FindByOrder lists movements linked to an order
func (r *GormStockMovementRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err, shared.ErrNotFound)
	}
	return movementsToDomain(rows), nil
}

// SumDeltaByProduct returns the signed ledger balance and the number of entries
func (r *GormStockMovementRepository) SumDeltaByProduct(ctx context.Context, tenantID, productID uuid.UUID) (int, int64, error) {
	var result struct {
		Balance int
		Entries int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select("COALESCE(SUM(CASE WHEN direction = ? THEN quantity ELSE -quantity END), 0) AS balance, COUNT(*) AS entries", inventory.DirectionIn).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, translateError(err, shared.ErrNotFound)
	}
	return result.Balance, result.Entries, nil
}

func movementsToDomain(rows []models.StockMovementModel) []inventory.StockMovement {
	movements := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		movements[i] = *rows[i].ToDomain()
	}
	return movements
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
