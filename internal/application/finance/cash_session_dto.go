package finance

import (
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailcore/backend/internal/application/shared"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// OpenSessionRequest represents a request to open the cash drawer
type OpenSessionRequest struct {
	OperatorID     uuid.UUID       `json:"operator_id" binding:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// CloseSessionRequest carries the cash counted in the drawer
type CloseSessionRequest struct {
	CountedCashAmount decimal.Decimal `json:"counted_cash_amount"`
	Notes             string          `json:"notes" binding:"max=1000"`
}

// SessionListFilter represents filter options for listing sessions
type SessionListFilter struct {
	appshared.ListParams
	Status string `form:"status"`
}

// CashSessionResponse represents a cash session in API responses
type CashSessionResponse struct {
	ID                 uuid.UUID                  `json:"id"`
	TenantID           uuid.UUID                  `json:"tenant_id"`
	Status             string                     `json:"status"`
	OperatorID         uuid.UUID                  `json:"operator_id"`
	OpeningBalance     decimal.Decimal            `json:"opening_balance"`
	StartingOpen       time.Time                  `json:"starting_open"`
	ClosingDate        *time.Time                 `json:"closing_date,omitempty"`
	CountedCashAmount  *decimal.Decimal           `json:"counted_cash_amount,omitempty"`
	ExpectedCashAmount *decimal.Decimal           `json:"expected_cash_amount,omitempty"`
	Difference         *decimal.Decimal           `json:"difference,omitempty"`
	SalesByMethod      map[string]decimal.Decimal `json:"sales_by_method"`
	TotalSales         decimal.Decimal            `json:"total_sales"`
	Notes              string                     `json:"notes,omitempty"`
	AuditLog           []string                   `json:"audit_log"`
	Version            int                        `json:"version"`
}

// ToCashSessionResponse converts a session to a response
func ToCashSessionResponse(s *finance.CashSession) CashSessionResponse {
	sales := make(map[string]decimal.Decimal, len(s.SalesByMethod))
	for m, v := range s.SalesByMethod {
		sales[string(m)] = v
	}
	return CashSessionResponse{
		ID:                 s.ID,
		TenantID:           s.TenantID,
		Status:             string(s.Status),
		OperatorID:         s.OperatorID,
		OpeningBalance:     s.OpeningBalance,
		StartingOpen:       s.StartingOpen,
		ClosingDate:        s.ClosingDate,
		CountedCashAmount:  s.CountedCashAmount,
		ExpectedCashAmount: s.ExpectedCashAmount,
		Difference:         s.Difference,
		SalesByMethod:      sales,
		TotalSales:         s.TotalSales(),
		Notes:              s.Notes,
		AuditLog:           s.AuditLog,
		Version:            s.Version,
	}
}
