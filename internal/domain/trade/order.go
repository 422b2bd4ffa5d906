package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderItem is an immutable snapshot of one sold line
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	ProductSKU  string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Order is a sale. Items and totals are fixed at creation; only the status
// changes afterwards.
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber   string
	Status        OrderStatus
	Origin        Origin
	PaymentMethod PaymentMethod
	CustomerID    uuid.UUID
	Shipping      *ShippingAddress
	Items         []OrderItem
	TotalQuantity int
	TotalAmount   decimal.Decimal
	Notes         string
}

// NewOrder builds an order from a validated draft and the product snapshots
// read inside the same transaction.
func NewOrder(tenantID, customerID uuid.UUID, draft *SaleDraft, products map[uuid.UUID]catalog.Snapshot, now time.Time) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "Customer is required")
	}
	if len(draft.Lines) == 0 {
		return nil, shared.NewValidationError("items", "Order must have at least one item")
	}

	root := shared.NewTenantAggregateRoot(tenantID)
	root.CreatedAt = now
	root.UpdatedAt = now

	order := &Order{
		TenantAggregateRoot: root,
		OrderNumber:         GenerateOrderNumber(draft.Origin, root.ID, now),
		Status:              draft.Origin.InitialStatus(),
		Origin:              draft.Origin,
		PaymentMethod:       draft.PaymentMethod,
		CustomerID:          customerID,
		Shipping:            draft.Shipping,
		Items:               make([]OrderItem, 0, len(draft.Lines)),
		TotalAmount:         decimal.Zero,
		Notes:               strings.TrimSpace(draft.Notes),
	}

	for _, line := range draft.Lines {
		snap, ok := products[line.ProductID]
		if !ok {
			return nil, shared.ErrProductNotFound.WithDetail("product_id", line.ProductID.String())
		}
		subtotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Items = append(order.Items, OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: snap.Name,
			ProductSKU:  snap.SKU,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    subtotal,
		})
		order.TotalQuantity += line.Quantity
		order.TotalAmount = order.TotalAmount.Add(subtotal)
	}

	return order, nil
}

// UpdateStatus moves the order to a new status without any stock effect
func (o *Order) UpdateStatus(status OrderStatus, now time.Time) error {
	if !status.IsValid() {
		return shared.NewValidationError("status", fmt.Sprintf("Invalid order status %q", status))
	}
	if !o.Status.CanTransitionTo(status) {
		return shared.NewValidationError("status", fmt.Sprintf("Order is already %s", o.Status))
	}
	o.Status = status
	o.Touch(now)
	return nil
}

// GenerateOrderNumber builds a human-readable order number such as
// POS-20240310-1A2B3C. The suffix comes from the order id so it is unique
// without a sequence table.
func GenerateOrderNumber(origin Origin, id uuid.UUID, now time.Time) string {
	prefix := "ORD"
	if origin == OriginPOS {
		prefix = "POS"
	}
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), suffix)
}
