package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/trade"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByIDForTenant finds an order with its items
func (r *GormOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_sku ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err, shared.ErrNotFound.WithDetail("order_id", id.String()))
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists orders with their items
func (r *GormOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.Order, int64, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("tenant_id = ?", tenantID),
		filter,
	).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, shared.ErrNotFound)
	}

	var rows []models.OrderModel
	if err := paginate(query, filter, OrderSortFields).Preload("Items").Find(&rows).Error; err != nil {
		return nil, 0, translateError(err, shared.ErrNotFound)
	}
	orders := make([]trade.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "origin":
			query = query.Where("origin = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}
	return query
}

// Save creates an order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, order *trade.Order) error {
	model := models.OrderModelFromDomain(order)
	return translateError(r.db.WithContext(ctx).Create(model).Error, shared.ErrNotFound)
}

// SaveWithLock updates the status only; items and totals are immutable
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *trade.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", order.ID, order.TenantID, order.Version-1).
		Updates(map[string]interface{}{
			"status":     order.Status,
			"version":    order.Version,
			"updated_at": order.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error, shared.ErrNotFound)
	}
	if result.RowsAffected == 0 {
		return versionConflict("order", order.ID, order.Version)
	}
	return nil
}

// SumByPaymentMethod totals the orders of origin created in [from, to].
// Cancelled and refunded orders brought no money into the drawer.
func (r *GormOrderRepository) SumByPaymentMethod(ctx context.Context, tenantID uuid.UUID, origin trade.Origin, from, to time.Time) (map[trade.PaymentMethod]decimal.Decimal, error) {
	var rows []struct {
		PaymentMethod trade.PaymentMethod
		Total         decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("payment_method, COALESCE(SUM(total_amount), 0) AS total").
		Where("tenant_id = ? AND origin = ? AND created_at BETWEEN ? AND ?", tenantID, origin, from, to).
		Where("status NOT IN ?", []trade.OrderStatus{trade.OrderStatusCancelled, trade.OrderStatusRefunded}).
		Group("payment_method").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err, shared.ErrNotFound)
	}

	totals := make(map[trade.PaymentMethod]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.PaymentMethod] = row.Total
	}
	return totals, nil
}

var _ trade.OrderRepository = (*GormOrderRepository)(nil)
