package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry the fulfillment core reads prices from and
// whose stock counter it mutates. Catalog CRUD lives outside this service;
// only the stock counter is changed here.
type Product struct {
	shared.TenantAggregateRoot
	SKU           string
	Name          string
	StockQuantity int
	MinStock      int
	SalePrice     decimal.Decimal
	PurchasePrice decimal.Decimal
	Active        bool
}

// NewProduct creates a new active product with zero stock
func NewProduct(tenantID uuid.UUID, sku, name string, salePrice decimal.Decimal) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	name = strings.TrimSpace(name)
	if sku == "" {
		return nil, shared.NewValidationError("sku", "Product SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewValidationError("name", "Product name cannot be empty")
	}
	if salePrice.IsNegative() {
		return nil, shared.NewValidationError("sale_price", "Sale price cannot be negative")
	}

	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 sku,
		Name:                name,
		SalePrice:           salePrice,
		PurchasePrice:       decimal.Zero,
		Active:              true,
	}, nil
}

// CanSupply reports whether quantity units can be taken from stock
func (p *Product) CanSupply(quantity int) bool {
	return p.Active && quantity > 0 && quantity <= p.StockQuantity
}

// DecreaseStock takes quantity units out of stock.
// The counter never goes negative.
func (p *Product) DecreaseStock(quantity int, now time.Time) error {
	if quantity <= 0 {
		return shared.NewValidationError("quantity", "Quantity must be positive")
	}
	if quantity > p.StockQuantity {
		return shared.NewInsufficientStockError(p.ID.String(), p.Name, quantity, p.StockQuantity)
	}
	p.StockQuantity -= quantity
	p.Touch(now)
	return nil
}

// IncreaseStock puts quantity units back into stock
func (p *Product) IncreaseStock(quantity int, now time.Time) error {
	if quantity <= 0 {
		return shared.NewValidationError("quantity", "Quantity must be positive")
	}
	p.StockQuantity += quantity
	p.Touch(now)
	return nil
}

// IsLowStock reports whether stock is at or below the minimum threshold
func (p *Product) IsLowStock() bool {
	return p.MinStock > 0 && p.StockQuantity <= p.MinStock
}

// Snapshot returns the denormalized fields copied onto ledger entries and order lines
func (p *Product) Snapshot() Snapshot {
	return Snapshot{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.SalePrice,
	}
}

// Snapshot is a value copy of product identity and price at a point in time
type Snapshot struct {
	ProductID uuid.UUID
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
}
