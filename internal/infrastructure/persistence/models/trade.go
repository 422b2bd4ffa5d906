package models

import (
	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	TenantAggregateModel
	OrderNumber   string              `gorm:"type:varchar(40);not null;uniqueIndex"`
	Status        trade.OrderStatus   `gorm:"type:varchar(20);not null;index"`
	Origin        trade.Origin        `gorm:"type:varchar(20);not null"`
	PaymentMethod trade.PaymentMethod `gorm:"type:varchar(20);not null"`
	CustomerID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Shipping      string              `gorm:"type:jsonb"`
	TotalQuantity int                 `gorm:"not null"`
	TotalAmount   decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Notes         string              `gorm:"type:text"`
	Items         []OrderItemModel    `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is an immutable order line
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	ProductSKU  string          `gorm:"column:product_sku;type:varchar(64);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order.
func (m *OrderModel) ToDomain() *trade.Order {
	o := &trade.Order{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		OrderNumber:         m.OrderNumber,
		Status:              m.Status,
		Origin:              m.Origin,
		PaymentMethod:       m.PaymentMethod,
		CustomerID:          m.CustomerID,
		TotalQuantity:       m.TotalQuantity,
		TotalAmount:         m.TotalAmount,
		Notes:               m.Notes,
		Items:               make([]trade.OrderItem, len(m.Items)),
	}
	if m.Shipping != "" && m.Shipping != "null" {
		var addr trade.ShippingAddress
		fromJSON(m.Shipping, &addr)
		o.Shipping = &addr
	}
	for i, it := range m.Items {
		o.Items[i] = trade.OrderItem{
			ID:          it.ID,
			OrderID:     it.OrderID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
	}
	return o
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *trade.Order) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.Status = o.Status
	m.Origin = o.Origin
	m.PaymentMethod = o.PaymentMethod
	m.CustomerID = o.CustomerID
	m.Shipping = ""
	if o.Shipping != nil {
		m.Shipping = toJSON(o.Shipping)
	}
	m.TotalQuantity = o.TotalQuantity
	m.TotalAmount = o.TotalAmount
	m.Notes = o.Notes
	m.Items = make([]OrderItemModel, len(o.Items))
	for i, it := range o.Items {
		m.Items[i] = OrderItemModel{
			ID:          it.ID,
			OrderID:     o.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}
