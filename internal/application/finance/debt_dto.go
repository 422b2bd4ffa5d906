package finance

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailcore/backend/internal/application/shared"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// DebtItemInput is one line sold on credit
type DebtItemInput struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	Description string          `json:"description" binding:"max=200"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// InstallmentPlanInput describes how an installment debt is split
type InstallmentPlanInput struct {
	Count        int       `json:"count" binding:"required,min=1,max=120"`
	IntervalDays int       `json:"interval_days" binding:"required,min=1"`
	FirstDueDate time.Time `json:"first_due_date" binding:"required"`
}

// CreateDebtRequest represents a request to record a deferred-payment sale.
// The customer is given either by id or by contact data, which is upserted by phone.
type CreateDebtRequest struct {
	CustomerID *uuid.UUID              `json:"customer_id"`
	Customer   *appshared.ContactInput `json:"customer"`
	OrderID    *uuid.UUID              `json:"order_id"`
	Items      []DebtItemInput         `json:"items" binding:"omitempty,dive"`
	TotalSale  decimal.Decimal         `json:"total_sale"`
	Mode       string                  `json:"mode" binding:"required"`
	DueDate    *time.Time              `json:"due_date"`
	Plan       *InstallmentPlanInput   `json:"plan"`
	Notes      string                  `json:"notes" binding:"max=1000"`
}

// draft converts the request for a resolved customer
func (r CreateDebtRequest) draft(customerID uuid.UUID) finance.DebtDraft {
	items := make([]finance.DebtItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = finance.DebtItem{
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}
	d := finance.DebtDraft{
		CustomerID: customerID,
		OrderID:    r.OrderID,
		Items:      items,
		TotalSale:  r.TotalSale,
		Mode:       finance.DebtMode(strings.ToUpper(strings.TrimSpace(r.Mode))),
		Notes:      r.Notes,
	}
	if r.DueDate != nil {
		d.DueDate = *r.DueDate
	}
	if r.Plan != nil {
		d.Plan = &finance.InstallmentPlan{
			Count:        r.Plan.Count,
			IntervalDays: r.Plan.IntervalDays,
			FirstDueDate: r.Plan.FirstDueDate,
		}
	}
	return d
}

// PaymentTarget names what is being paid: the single cash payment or an
// installment number. In JSON it is either "cash" or a number.
type PaymentTarget struct {
	Cash   bool
	Number int
}

var errPaymentTarget = errors.New(`installment must be a number or "cash"`)

// UnmarshalJSON accepts 2, "2" and "cash"
func (t *PaymentTarget) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*t = PaymentTarget{Number: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errPaymentTarget
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "cash" {
		*t = PaymentTarget{Cash: true}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return errPaymentTarget
	}
	*t = PaymentTarget{Number: n}
	return nil
}

// MarshalJSON writes the same forms UnmarshalJSON reads
func (t PaymentTarget) MarshalJSON() ([]byte, error) {
	if t.Cash {
		return json.Marshal("cash")
	}
	return json.Marshal(t.Number)
}

// ConfirmPaymentRequest marks one payment of a debt as received
type ConfirmPaymentRequest struct {
	Installment PaymentTarget `json:"installment"`
}

// DebtListFilter represents filter options for listing debts
type DebtListFilter struct {
	appshared.ListParams
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"customer_id"`
}

// InstallmentResponse represents one scheduled payment
type InstallmentResponse struct {
	Number  int             `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
	Status  string          `json:"status"`
	PaidAt  *time.Time      `json:"paid_at,omitempty"`
	Overdue bool            `json:"overdue"`
}

// DebtItemResponse represents one line sold on credit
type DebtItemResponse struct {
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// DebtResponse represents a debt in API responses
type DebtResponse struct {
	ID            uuid.UUID             `json:"id"`
	TenantID      uuid.UUID             `json:"tenant_id"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	OrderID       *uuid.UUID            `json:"order_id,omitempty"`
	Mode          string                `json:"mode"`
	Status        string                `json:"status"`
	TotalSale     decimal.Decimal       `json:"total_sale"`
	TotalOwed     decimal.Decimal       `json:"total_owed"`
	OverdueAmount decimal.Decimal       `json:"overdue_amount"`
	DueDate       *time.Time            `json:"due_date,omitempty"`
	Items         []DebtItemResponse    `json:"items"`
	Installments  []InstallmentResponse `json:"installments"`
	PaidAt        *time.Time            `json:"paid_at,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// ToDebtResponse converts a debt to a response, computing owed and overdue at now
func ToDebtResponse(d *finance.Debt, now time.Time) DebtResponse {
	cutoff := finance.StartOfDay(now)
	installments := make([]InstallmentResponse, len(d.Installments))
	for i, inst := range d.Installments {
		installments[i] = InstallmentResponse{
			Number:  inst.Number,
			Amount:  inst.Amount,
			DueDate: inst.DueDate,
			Status:  string(inst.Status),
			PaidAt:  inst.PaidAt,
			Overdue: !inst.IsPaid() && inst.DueDate.Before(cutoff),
		}
	}
	items := make([]DebtItemResponse, len(d.Items))
	for i, it := range d.Items {
		items[i] = DebtItemResponse{
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
	}
	return DebtResponse{
		ID:            d.ID,
		TenantID:      d.TenantID,
		CustomerID:    d.CustomerID,
		OrderID:       d.OrderID,
		Mode:          string(d.Mode),
		Status:        string(d.Status),
		TotalSale:     d.TotalSale,
		TotalOwed:     finance.TotalOwed(d),
		OverdueAmount: finance.OverdueAmount(d, now),
		DueDate:       d.DueDate,
		Items:         items,
		Installments:  installments,
		PaidAt:        d.PaidAt,
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Version:       d.Version,
	}
}

// DebtSummaryResponse aggregates a tenant's receivables
type DebtSummaryResponse struct {
	TotalToReceive decimal.Decimal `json:"total_to_receive"`
	TotalOverdue   decimal.Decimal `json:"total_overdue"`
	CustomersOwing int             `json:"customers_owing"`
	OpenDebts      int             `json:"open_debts"`
	MonthSales     decimal.Decimal `json:"month_sales"`
	GeneratedAt    time.Time       `json:"generated_at"`
}
