package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/shared"
)

// Apply mutates the product stock counter and returns the matching ledger entry.
// Counter and entry are produced together so callers persist them in one unit.
func Apply(product *catalog.Product, direction Direction, quantity int, reason Reason, now time.Time) (*StockMovement, error) {
	if product == nil {
		return nil, shared.ErrProductNotFound
	}
	if !direction.IsValid() {
		return nil, shared.NewValidationError("direction", "Direction must be IN or OUT")
	}

	var err error
	if direction == DirectionOut {
		err = product.DecreaseStock(quantity, now)
	} else {
		err = product.IncreaseStock(quantity, now)
	}
	if err != nil {
		return nil, err
	}

	return NewStockMovement(product.TenantID, product.Snapshot(), direction, quantity, reason, product.StockQuantity, now)
}

// ApplySale takes stock out for the order lines of one product. The counter
// moves once by the summed quantity; every line still gets its own ledger
// entry, linked to the order and carrying the running balance.
func ApplySale(product *catalog.Product, quantities []int, orderID uuid.UUID, now time.Time) ([]*StockMovement, error) {
	if product == nil {
		return nil, shared.ErrProductNotFound
	}
	total := 0
	for _, q := range quantities {
		if q <= 0 {
			return nil, shared.NewValidationError("quantity", "Quantity must be positive")
		}
		total += q
	}

	balance := product.StockQuantity
	if err := product.DecreaseStock(total, now); err != nil {
		return nil, err
	}

	snapshot := product.Snapshot()
	movements := make([]*StockMovement, 0, len(quantities))
	for _, q := range quantities {
		balance -= q
		m, err := NewStockMovement(product.TenantID, snapshot, DirectionOut, q, ReasonSale, balance, now)
		if err != nil {
			return nil, err
		}
		m.LinkOrder(orderID)
		movements = append(movements, m)
	}
	return movements, nil
}

// AuditResult compares a product counter with the running sum of its ledger
type AuditResult struct {
	ProductID     uuid.UUID `json:"product_id"`
	Stock         int       `json:"stock"`
	LedgerBalance int       `json:"ledger_balance"`
	Movements     int       `json:"movements"`
	Consistent    bool      `json:"consistent"`
}

// Audit sums the ledger deltas of a product and checks them against its counter.
// An inconsistent result indicates a bug, not a normal runtime state.
func Audit(product *catalog.Product, movements []StockMovement) AuditResult {
	balance := 0
	count := 0
	for i := range movements {
		if movements[i].ProductID != product.ID {
			continue
		}
		balance += movements[i].Delta()
		count++
	}
	return AuditBalance(product, balance, count)
}

// AuditBalance checks a precomputed ledger balance against the product counter
func AuditBalance(product *catalog.Product, balance, movements int) AuditResult {
	return AuditResult{
		ProductID:     product.ID,
		Stock:         product.StockQuantity,
		LedgerBalance: balance,
		Movements:     movements,
		Consistent:    balance == product.StockQuantity,
	}
}
