package trade

import (
	"strings"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailcore/backend/internal/application/shared"
	"github.com/retailcore/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderLineInput is one requested line of a sale
type OrderLineInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Customer      appshared.ContactInput `json:"customer" binding:"required"`
	Items         []OrderLineInput       `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string                 `json:"payment_method" binding:"required"`
	Origin        string                 `json:"origin" binding:"required"`
	Shipping      *trade.ShippingAddress `json:"shipping"`
	Notes         string                 `json:"notes" binding:"max=1000"`
	// IdempotencyKey comes from the Idempotency-Key header
	IdempotencyKey string `json:"-"`
}

// ToDraft converts the request to a sale draft
func (r CreateOrderRequest) ToDraft() *trade.SaleDraft {
	lines := make([]trade.DraftLine, len(r.Items))
	for i, item := range r.Items {
		lines[i] = trade.DraftLine{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	return &trade.SaleDraft{
		Customer:       r.Customer.Contact(),
		Lines:          lines,
		PaymentMethod:  trade.PaymentMethod(strings.ToUpper(strings.TrimSpace(r.PaymentMethod))),
		Shipping:       r.Shipping,
		Origin:         trade.Origin(strings.ToUpper(strings.TrimSpace(r.Origin))),
		Notes:          r.Notes,
		IdempotencyKey: strings.TrimSpace(r.IdempotencyKey),
	}
}

// CreateOrderResponse is the result of a committed sale
type CreateOrderResponse struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	Status        string          `json:"status"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CustomerID    uuid.UUID       `json:"customer_id"`
}

// UpdateOrderStatusRequest represents a request to move an order to a new status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderListFilter represents filter options for listing orders
type OrderListFilter struct {
	appshared.ListParams
	Status     string     `form:"status"`
	Origin     string     `form:"origin"`
	CustomerID *uuid.UUID `form:"customer_id"`
}

// OrderItemResponse represents one order line
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID            uuid.UUID              `json:"id"`
	TenantID      uuid.UUID              `json:"tenant_id"`
	OrderNumber   string                 `json:"order_number"`
	Status        string                 `json:"status"`
	Origin        string                 `json:"origin"`
	PaymentMethod string                 `json:"payment_method"`
	CustomerID    uuid.UUID              `json:"customer_id"`
	Shipping      *trade.ShippingAddress `json:"shipping,omitempty"`
	Items         []OrderItemResponse    `json:"items"`
	TotalQuantity int                    `json:"total_quantity"`
	TotalAmount   decimal.Decimal        `json:"total_amount"`
	Notes         string                 `json:"notes,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	Version       int                    `json:"version"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *trade.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
	}
	return OrderResponse{
		ID:            o.ID,
		TenantID:      o.TenantID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status.String(),
		Origin:        string(o.Origin),
		PaymentMethod: string(o.PaymentMethod),
		CustomerID:    o.CustomerID,
		Shipping:      o.Shipping,
		Items:         items,
		TotalQuantity: o.TotalQuantity,
		TotalAmount:   o.TotalAmount,
		Notes:         o.Notes,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Version:       o.Version,
	}
}
