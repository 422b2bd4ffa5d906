package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailcore/backend/internal/application/shared"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// RecordMovementRequest is an explicit restock, return or adjustment
type RecordMovementRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Direction string    `json:"direction" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
	Reason    string    `json:"reason" binding:"required"`
	Note      string    `json:"note" binding:"max=500"`
}

func (r RecordMovementRequest) direction() inventory.Direction {
	return inventory.Direction(strings.ToUpper(strings.TrimSpace(r.Direction)))
}

func (r RecordMovementRequest) reason() inventory.Reason {
	return inventory.Reason(strings.ToUpper(strings.TrimSpace(r.Reason)))
}

// MovementListFilter represents filter options for listing ledger entries
type MovementListFilter struct {
	appshared.ListParams
}

// StockMovementResponse represents a ledger entry in API responses
type StockMovementResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	Direction    string          `json:"direction"`
	Quantity     int             `json:"quantity"`
	Reason       string          `json:"reason"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	OrderID      *uuid.UUID      `json:"order_id,omitempty"`
	BalanceAfter int             `json:"balance_after"`
	Note         string          `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToStockMovementResponse converts a ledger entry to a response
func ToStockMovementResponse(m *inventory.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:           m.ID,
		ProductID:    m.ProductID,
		ProductName:  m.ProductName,
		ProductSKU:   m.ProductSKU,
		Direction:    string(m.Direction),
		Quantity:     m.Quantity,
		Reason:       string(m.Reason),
		UnitPrice:    m.UnitPrice,
		OrderID:      m.OrderID,
		BalanceAfter: m.BalanceAfter,
		Note:         m.Note,
		CreatedAt:    m.CreatedAt,
	}
}

// RecordMovementResponse carries the new entry and the resulting counter
type RecordMovementResponse struct {
	Movement StockMovementResponse `json:"movement"`
	Stock    int                   `json:"stock"`
	LowStock bool                  `json:"low_stock"`
}
