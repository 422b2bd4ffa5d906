package trade

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/partner"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DraftLine is one requested line of a sale
type DraftLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// ShippingAddress is where a storefront order goes.
// Pickup orders carry Pickup=true and may leave the address empty.
type ShippingAddress struct {
	Pickup     bool   `json:"pickup"`
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// SaleDraft is the input of order creation
type SaleDraft struct {
	Customer       partner.Contact
	Lines          []DraftLine
	PaymentMethod  PaymentMethod
	Shipping       *ShippingAddress
	Origin         Origin
	Notes          string
	IdempotencyKey string
}

// Validate rejects malformed drafts before anything is read from storage
func (d *SaleDraft) Validate() error {
	if len(d.Lines) == 0 {
		return shared.NewValidationError("items", "Order must have at least one item")
	}
	for i, l := range d.Lines {
		field := fmt.Sprintf("items[%d]", i)
		if l.ProductID == uuid.Nil {
			return shared.NewValidationError(field+".product_id", "Product ID cannot be empty")
		}
		if l.Quantity <= 0 {
			return shared.NewValidationError(field+".quantity", "Quantity must be positive")
		}
		if l.UnitPrice.IsNegative() {
			return shared.NewValidationError(field+".unit_price", "Unit price cannot be negative")
		}
	}
	if !d.PaymentMethod.IsValid() {
		return shared.NewValidationError("payment_method", "Invalid payment method")
	}
	if !d.Origin.IsValid() {
		return shared.NewValidationError("origin", "Origin must be STOREFRONT or POS")
	}
	if d.Shipping != nil && !d.Shipping.Pickup && strings.TrimSpace(d.Shipping.Street) == "" {
		return shared.NewValidationError("shipping.street", "Street is required for delivery")
	}
	if _, err := d.Customer.Validate(); err != nil {
		return err
	}
	return nil
}

// RequestedQuantities sums the quantity per product across all lines, so two
// lines for the same product are checked against stock together. The returned
// ids keep first-seen order.
func (d *SaleDraft) RequestedQuantities() ([]uuid.UUID, map[uuid.UUID]int) {
	ids := make([]uuid.UUID, 0, len(d.Lines))
	qty := make(map[uuid.UUID]int, len(d.Lines))
	for _, l := range d.Lines {
		if _, seen := qty[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		qty[l.ProductID] += l.Quantity
	}
	return ids, qty
}
