package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Direction says whether a movement adds to or removes from stock
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Sign returns +1 for IN and -1 for OUT
func (d Direction) Sign() int {
	if d == DirectionOut {
		return -1
	}
	return 1
}

// Reason records why stock moved
type Reason string

const (
	ReasonSale       Reason = "SALE"
	ReasonRestock    Reason = "RESTOCK"
	ReasonAdjustment Reason = "ADJUSTMENT"
	ReasonReturn     Reason = "RETURN"
	ReasonInitial    Reason = "INITIAL"
)

// IsValid returns true if the reason is valid
func (r Reason) IsValid() bool {
	switch r {
	case ReasonSale, ReasonRestock, ReasonAdjustment, ReasonReturn, ReasonInitial:
		return true
	}
	return false
}

// StockMovement is an immutable ledger entry.
// Once created it is never updated or deleted; corrections are new movements.
type StockMovement struct {
	shared.BaseEntity
	TenantID     uuid.UUID
	ProductID    uuid.UUID
	Direction    Direction
	Quantity     int
	Reason       Reason
	ProductName  string
	ProductSKU   string
	UnitPrice    decimal.Decimal
	OrderID      *uuid.UUID
	BalanceAfter int
	Note         string
}

// NewStockMovement creates a ledger entry carrying a snapshot of the product
func NewStockMovement(
	tenantID uuid.UUID,
	snapshot catalog.Snapshot,
	direction Direction,
	quantity int,
	reason Reason,
	balanceAfter int,
	now time.Time,
) (*StockMovement, error) {
	if !direction.IsValid() {
		return nil, shared.NewValidationError("direction", "Direction must be IN or OUT")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "Movement quantity must be positive")
	}
	if !reason.IsValid() {
		return nil, shared.NewValidationError("reason", "Unknown movement reason")
	}
	if snapshot.ProductID == uuid.Nil {
		return nil, shared.NewValidationError("product_id", "Product ID cannot be empty")
	}

	return &StockMovement{
		BaseEntity:   shared.NewBaseEntityAt(now),
		TenantID:     tenantID,
		ProductID:    snapshot.ProductID,
		Direction:    direction,
		Quantity:     quantity,
		Reason:       reason,
		ProductName:  snapshot.Name,
		ProductSKU:   snapshot.SKU,
		UnitPrice:    snapshot.UnitPrice,
		BalanceAfter: balanceAfter,
	}, nil
}

// Delta returns the signed change this movement applies to stock
func (m *StockMovement) Delta() int {
	return m.Direction.Sign() * m.Quantity
}

// LinkOrder attaches the order that caused the movement
func (m *StockMovement) LinkOrder(orderID uuid.UUID) {
	m.OrderID = &orderID
}
