package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// DebtModel is the persistence model for the Debt aggregate.
// The installment plan is flattened into plan_* columns.
type DebtModel struct {
	TenantAggregateModel
	CustomerID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	OrderID          *uuid.UUID             `gorm:"type:uuid;index"`
	Items            string                 `gorm:"type:jsonb"`
	TotalSale        decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Mode             finance.DebtMode       `gorm:"type:varchar(20);not null"`
	DueDate          *time.Time
	PlanCount        *int                   `gorm:"column:plan_count"`
	PlanIntervalDays *int                   `gorm:"column:plan_interval_days"`
	PlanFirstDueDate *time.Time             `gorm:"column:plan_first_due_date"`
	Status           finance.DebtStatus     `gorm:"type:varchar(20);not null;index"`
	PaidAt           *time.Time
	Notes            string                 `gorm:"type:text"`
	Installments     []DebtInstallmentModel `gorm:"foreignKey:DebtID;references:ID"`
}

// TableName returns the table name for GORM
func (DebtModel) TableName() string {
	return "debts"
}

// DebtInstallmentModel is one scheduled payment. Only status and paid_at change.
type DebtInstallmentModel struct {
	ID      uuid.UUID                 `gorm:"type:uuid;primary_key"`
	DebtID  uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_debt_installments_number,priority:1"`
	Number  int                       `gorm:"not null;uniqueIndex:idx_debt_installments_number,priority:2"`
	Amount  decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	DueDate time.Time                 `gorm:"not null;index"`
	Status  finance.InstallmentStatus `gorm:"type:varchar(20);not null"`
	PaidAt  *time.Time
}

// TableName returns the table name for GORM
func (DebtInstallmentModel) TableName() string {
	return "debt_installments"
}

type debtItemJSON struct {
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ToDomain converts the persistence model to a domain Debt.
func (m *DebtModel) ToDomain() *finance.Debt {
	d := &finance.Debt{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		CustomerID:          m.CustomerID,
		OrderID:             m.OrderID,
		TotalSale:           m.TotalSale,
		Mode:                m.Mode,
		DueDate:             m.DueDate,
		Status:              m.Status,
		PaidAt:              m.PaidAt,
		Notes:               m.Notes,
		Installments:        make([]finance.Installment, len(m.Installments)),
	}
	if m.PlanCount != nil && m.PlanIntervalDays != nil && m.PlanFirstDueDate != nil {
		d.Plan = &finance.InstallmentPlan{
			Count:        *m.PlanCount,
			IntervalDays: *m.PlanIntervalDays,
			FirstDueDate: *m.PlanFirstDueDate,
		}
	}

	var items []debtItemJSON
	fromJSON(m.Items, &items)
	d.Items = make([]finance.DebtItem, len(items))
	for i, it := range items {
		d.Items[i] = finance.DebtItem{
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		}
	}

	for i, inst := range m.Installments {
		d.Installments[i] = finance.Installment{
			ID:      inst.ID,
			DebtID:  inst.DebtID,
			Number:  inst.Number,
			Amount:  inst.Amount,
			DueDate: inst.DueDate,
			Status:  inst.Status,
			PaidAt:  inst.PaidAt,
		}
	}
	return d
}

// FromDomain populates the persistence model from a domain Debt.
func (m *DebtModel) FromDomain(d *finance.Debt) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.CustomerID = d.CustomerID
	m.OrderID = d.OrderID
	m.TotalSale = d.TotalSale
	m.Mode = d.Mode
	m.DueDate = d.DueDate
	m.Status = d.Status
	m.PaidAt = d.PaidAt
	m.Notes = d.Notes
	m.PlanCount, m.PlanIntervalDays, m.PlanFirstDueDate = nil, nil, nil
	if d.Plan != nil {
		count, interval, first := d.Plan.Count, d.Plan.IntervalDays, d.Plan.FirstDueDate
		m.PlanCount, m.PlanIntervalDays, m.PlanFirstDueDate = &count, &interval, &first
	}

	items := make([]debtItemJSON, len(d.Items))
	for i, it := range d.Items {
		items[i] = debtItemJSON(it)
	}
	m.Items = toJSON(items)

	m.Installments = make([]DebtInstallmentModel, len(d.Installments))
	for i, inst := range d.Installments {
		m.Installments[i] = DebtInstallmentModel{
			ID:      inst.ID,
			DebtID:  d.ID,
			Number:  inst.Number,
			Amount:  inst.Amount,
			DueDate: inst.DueDate,
			Status:  inst.Status,
			PaidAt:  inst.PaidAt,
		}
	}
}

// DebtModelFromDomain creates a new persistence model from a domain Debt.
func DebtModelFromDomain(d *finance.Debt) *DebtModel {
	m := &DebtModel{}
	m.FromDomain(d)
	return m
}

// CashSessionModel is the persistence model for the CashSession aggregate.
// A partial unique index on tenant_id allows one OPEN or REOPENED row; see migrations.
type CashSessionModel struct {
	TenantAggregateModel
	Status             finance.SessionStatus `gorm:"type:varchar(20);not null;index"`
	OperatorID         uuid.UUID             `gorm:"type:uuid;not null"`
	OpeningBalance     decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	StartingOpen       time.Time             `gorm:"not null"`
	ClosingDate        *time.Time
	CountedCashAmount  *decimal.Decimal      `gorm:"type:decimal(18,2)"`
	ExpectedCashAmount *decimal.Decimal      `gorm:"type:decimal(18,2)"`
	Difference         *decimal.Decimal      `gorm:"type:decimal(18,2)"`
	SalesByMethod      string                `gorm:"type:jsonb"`
	Notes              string                `gorm:"type:text"`
	AuditLog           string                `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (CashSessionModel) TableName() string {
	return "cash_sessions"
}

// ToDomain converts the persistence model to a domain CashSession.
func (m *CashSessionModel) ToDomain() *finance.CashSession {
	s := &finance.CashSession{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Status:              m.Status,
		OperatorID:          m.OperatorID,
		OpeningBalance:      m.OpeningBalance,
		StartingOpen:        m.StartingOpen,
		ClosingDate:         m.ClosingDate,
		CountedCashAmount:   m.CountedCashAmount,
		ExpectedCashAmount:  m.ExpectedCashAmount,
		Difference:          m.Difference,
		Notes:               m.Notes,
		SalesByMethod:       make(map[trade.PaymentMethod]decimal.Decimal),
	}
	fromJSON(m.SalesByMethod, &s.SalesByMethod)
	fromJSON(m.AuditLog, &s.AuditLog)
	return s
}

// FromDomain populates the persistence model from a domain CashSession.
func (m *CashSessionModel) FromDomain(s *finance.CashSession) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Status = s.Status
	m.OperatorID = s.OperatorID
	m.OpeningBalance = s.OpeningBalance
	m.StartingOpen = s.StartingOpen
	m.ClosingDate = s.ClosingDate
	m.CountedCashAmount = s.CountedCashAmount
	m.ExpectedCashAmount = s.ExpectedCashAmount
	m.Difference = s.Difference
	m.SalesByMethod = toJSON(s.SalesByMethod)
	m.Notes = s.Notes
	m.AuditLog = toJSON(s.AuditLog)
}

// CashSessionModelFromDomain creates a new persistence model from a domain CashSession.
func CashSessionModelFromDomain(s *finance.CashSession) *CashSessionModel {
	m := &CashSessionModel{}
	m.FromDomain(s)
	return m
}
