package models

import (
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product domain entity.
// (tenant_id, sku) is unique; see migrations.
type ProductModel struct {
	TenantAggregateModel
	SKU           string          `gorm:"column:sku;type:varchar(64);not null"`
	Name          string          `gorm:"type:varchar(200);not null"`
	StockQuantity int             `gorm:"not null;default:0;check:stock_quantity >= 0"`
	MinStock      int             `gorm:"not null;default:0"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Active        bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		SKU:                 m.SKU,
		Name:                m.Name,
		StockQuantity:       m.StockQuantity,
		MinStock:            m.MinStock,
		SalePrice:           m.SalePrice,
		PurchasePrice:       m.PurchasePrice,
		Active:              m.Active,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.SKU = p.SKU
	m.Name = p.Name
	m.StockQuantity = p.StockQuantity
	m.MinStock = p.MinStock
	m.SalePrice = p.SalePrice
	m.PurchasePrice = p.PurchasePrice
	m.Active = p.Active
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
