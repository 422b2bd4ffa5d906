package models

import (
	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockMovementModel is the persistence model for ledger entries.
// Rows are inserted and never updated or deleted.
type StockMovementModel struct {
	BaseModel
	TenantID     uuid.UUID           `gorm:"type:uuid;not null;index:idx_stock_movements_tenant_product,priority:1"`
	ProductID    uuid.UUID           `gorm:"type:uuid;not null;index:idx_stock_movements_tenant_product,priority:2"`
	Direction    inventory.Direction `gorm:"type:varchar(3);not null"`
	Quantity     int                 `gorm:"not null;check:quantity > 0"`
	Reason       inventory.Reason    `gorm:"type:varchar(20);not null"`
	ProductName  string              `gorm:"type:varchar(200);not null"`
	ProductSKU   string              `gorm:"column:product_sku;type:varchar(64);not null"`
	UnitPrice    decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	OrderID      *uuid.UUID          `gorm:"type:uuid;index"`
	BalanceAfter int                 `gorm:"not null"`
	Note         string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		BaseEntity:   shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TenantID:     m.TenantID,
		ProductID:    m.ProductID,
		Direction:    m.Direction,
		Quantity:     m.Quantity,
		Reason:       m.Reason,
		ProductName:  m.ProductName,
		ProductSKU:   m.ProductSKU,
		UnitPrice:    m.UnitPrice,
		OrderID:      m.OrderID,
		BalanceAfter: m.BalanceAfter,
		Note:         m.Note,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	m := &StockMovementModel{
		TenantID:     mv.TenantID,
		ProductID:    mv.ProductID,
		Direction:    mv.Direction,
		Quantity:     mv.Quantity,
		Reason:       mv.Reason,
		ProductName:  mv.ProductName,
		ProductSKU:   mv.ProductSKU,
		UnitPrice:    mv.UnitPrice,
		OrderID:      mv.OrderID,
		BalanceAfter: mv.BalanceAfter,
		Note:         mv.Note,
	}
	m.FromDomainBaseEntity(mv.BaseEntity)
	return m
}
