package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DebtMode selects how a deferred sale is paid back
type DebtMode string

const (
	// DebtModeCash is a single payment at one due date
	DebtModeCash DebtMode = "CASH"
	// DebtModeInstallment splits the total over N periodic installments
	DebtModeInstallment DebtMode = "INSTALLMENT"
)

// IsValid returns true if the mode is valid
func (m DebtMode) IsValid() bool {
	return m == DebtModeCash || m == DebtModeInstallment
}

// DebtStatus represents the status of a debt
type DebtStatus string

const (
	DebtStatusPending DebtStatus = "PENDING"
	DebtStatusPaid    DebtStatus = "PAID"
)

// InstallmentStatus represents the status of a single installment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
)

// MaxInstallments caps the size of a plan
const MaxInstallments = 120

// Installment is one scheduled payment of a debt
type Installment struct {
	ID      uuid.UUID
	DebtID  uuid.UUID
	Number  int
	Amount  decimal.Decimal
	DueDate time.Time
	Status  InstallmentStatus
	PaidAt  *time.Time
}

// IsPaid reports whether the installment is settled
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// InstallmentPlan describes an installment-mode debt
type InstallmentPlan struct {
	Count        int
	IntervalDays int
	FirstDueDate time.Time
}

// DebtItem is a snapshot of what was sold on credit
type DebtItem struct {
	ProductID   *uuid.UUID
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// DebtDraft is the input of debt creation
type DebtDraft struct {
	CustomerID uuid.UUID
	OrderID    *uuid.UUID
	Items      []DebtItem
	TotalSale  decimal.Decimal
	Mode       DebtMode
	DueDate    time.Time
	Plan       *InstallmentPlan
	Notes      string
}

// Debt is a deferred-payment sale. Installments are generated once at
// creation and afterwards only their paid flags change.
type Debt struct {
	shared.TenantAggregateRoot
	CustomerID   uuid.UUID
	OrderID      *uuid.UUID
	Items        []DebtItem
	TotalSale    decimal.Decimal
	Mode         DebtMode
	DueDate      *time.Time
	Plan         *InstallmentPlan
	Installments []Installment
	Status       DebtStatus
	PaidAt       *time.Time
	Notes        string
}

// NewDebt validates the draft and pre-generates the installment schedule
func NewDebt(tenantID uuid.UUID, draft DebtDraft, now time.Time) (*Debt, error) {
	if draft.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "Customer is required")
	}
	if !draft.Mode.IsValid() {
		return nil, shared.NewValidationError("mode", "Mode must be CASH or INSTALLMENT")
	}

	items, itemsTotal, err := normalizeDebtItems(draft.Items)
	if err != nil {
		return nil, err
	}
	total := draft.TotalSale
	if total.IsZero() && len(items) > 0 {
		total = itemsTotal
	}
	if !total.IsPositive() {
		return nil, shared.NewValidationError("total_sale", "Total sale must be positive")
	}
	if len(items) > 0 && !itemsTotal.Equal(total) {
		return nil, shared.NewValidationError("total_sale", "Total sale does not match the items")
	}

	root := shared.NewTenantAggregateRoot(tenantID)
	root.CreatedAt = now
	root.UpdatedAt = now

	debt := &Debt{
		TenantAggregateRoot: root,
		CustomerID:          draft.CustomerID,
		OrderID:             draft.OrderID,
		Items:               items,
		TotalSale:           total,
		Mode:                draft.Mode,
		Status:              DebtStatusPending,
		Notes:               strings.TrimSpace(draft.Notes),
	}

	switch draft.Mode {
	case DebtModeCash:
		if draft.DueDate.IsZero() {
			return nil, shared.NewValidationError("due_date", "Due date is required for cash mode")
		}
		due := draft.DueDate
		debt.DueDate = &due
		debt.Installments = []Installment{debt.newInstallment(1, total, due)}
	case DebtModeInstallment:
		if draft.Plan == nil {
			return nil, shared.NewValidationError("plan", "Installment plan is required")
		}
		if err := validatePlan(*draft.Plan); err != nil {
			return nil, err
		}
		plan := *draft.Plan
		debt.Plan = &plan
		amounts := SplitAmount(total, plan.Count)
		debt.Installments = make([]Installment, 0, plan.Count)
		for i := 0; i < plan.Count; i++ {
			due := plan.FirstDueDate.AddDate(0, 0, i*plan.IntervalDays)
			debt.Installments = append(debt.Installments, debt.newInstallment(i+1, amounts[i], due))
		}
	}

	return debt, nil
}

func (d *Debt) newInstallment(number int, amount decimal.Decimal, due time.Time) Installment {
	return Installment{
		ID:      uuid.New(),
		DebtID:  d.ID,
		Number:  number,
		Amount:  amount,
		DueDate: due,
		Status:  InstallmentStatusPending,
	}
}

// SplitAmount divides total into n parts truncated to cents. The remainder
// goes to the last part so the parts always add up to total; this replaces
// plain per-part truncation, which loses cents.
func SplitAmount(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	part := total.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	parts := make([]decimal.Decimal, n)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = part
		allocated = allocated.Add(part)
	}
	parts[n-1] = total.Sub(allocated)
	return parts
}

func validatePlan(p InstallmentPlan) error {
	if p.Count < 1 || p.Count > MaxInstallments {
		return shared.NewValidationError("plan.count", fmt.Sprintf("Installment count must be between 1 and %d", MaxInstallments))
	}
	if p.IntervalDays < 1 {
		return shared.NewValidationError("plan.interval_days", "Interval must be at least one day")
	}
	if p.FirstDueDate.IsZero() {
		return shared.NewValidationError("plan.first_due_date", "First due date is required")
	}
	return nil
}

func normalizeDebtItems(items []DebtItem) ([]DebtItem, decimal.Decimal, error) {
	total := decimal.Zero
	out := make([]DebtItem, 0, len(items))
	for i, it := range items {
		if it.Quantity <= 0 {
			return nil, decimal.Zero, shared.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "Quantity must be positive")
		}
		if it.UnitPrice.IsNegative() {
			return nil, decimal.Zero, shared.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "Unit price cannot be negative")
		}
		it.Description = strings.TrimSpace(it.Description)
		it.Subtotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(it.Subtotal)
		out = append(out, it)
	}
	return out, total, nil
}

// IsPaid reports whether the whole debt is settled
func (d *Debt) IsPaid() bool {
	return d.Status == DebtStatusPaid
}

// Installment returns the installment with the given number
func (d *Debt) Installment(number int) (*Installment, bool) {
	for i := range d.Installments {
		if d.Installments[i].Number == number {
			return &d.Installments[i], true
		}
	}
	return nil, false
}

// ConfirmCashPaid settles a cash-mode debt
func (d *Debt) ConfirmCashPaid(now time.Time) error {
	if d.Mode != DebtModeCash {
		return shared.ErrInvalidState.WithDetail("reason", "debt is not in cash mode")
	}
	return d.confirm(1, now)
}

// ConfirmInstallmentPaid settles installment number of an installment-mode debt
func (d *Debt) ConfirmInstallmentPaid(number int, now time.Time) error {
	if d.Mode != DebtModeInstallment {
		return shared.ErrInvalidState.WithDetail("reason", "debt is not in installment mode")
	}
	return d.confirm(number, now)
}

func (d *Debt) confirm(number int, now time.Time) error {
	if d.IsPaid() {
		return shared.ErrInvalidState.WithDetail("reason", "debt is already paid")
	}
	inst, ok := d.Installment(number)
	if !ok {
		return shared.NewValidationError("installment", fmt.Sprintf("Installment %d does not exist", number))
	}
	if inst.IsPaid() {
		return shared.ErrInvalidState.WithDetail("reason", fmt.Sprintf("installment %d is already paid", number))
	}

	paidAt := now
	inst.Status = InstallmentStatusPaid
	inst.PaidAt = &paidAt

	if d.allInstallmentsPaid() {
		d.Status = DebtStatusPaid
		d.PaidAt = &paidAt
	}
	d.Touch(now)
	return nil
}

func (d *Debt) allInstallmentsPaid() bool {
	for i := range d.Installments {
		if !d.Installments[i].IsPaid() {
			return false
		}
	}
	return true
}
