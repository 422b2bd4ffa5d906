package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// SessionStatus represents the state of a cash drawer session
type SessionStatus string

const (
	SessionStatusOpen      SessionStatus = "OPEN"
	SessionStatusFinalized SessionStatus = "FINALIZED"
	SessionStatusReopened  SessionStatus = "REOPENED"
)

// IsActive reports whether the drawer is accepting sales in this state
func (s SessionStatus) IsActive() bool {
	return s == SessionStatusOpen || s == SessionStatusReopened
}

// CashSession is the operating window of a cash drawer. At most one session
// per tenant is active at any time.
type CashSession struct {
	shared.TenantAggregateRoot
	Status             SessionStatus
	OperatorID         uuid.UUID
	OpeningBalance     decimal.Decimal
	StartingOpen       time.Time
	ClosingDate        *time.Time
	CountedCashAmount  *decimal.Decimal
	ExpectedCashAmount *decimal.Decimal
	Difference         *decimal.Decimal
	SalesByMethod      map[trade.PaymentMethod]decimal.Decimal
	Notes              string
	AuditLog           []string
}

// OpenCashSession starts a new session at now
func OpenCashSession(tenantID, operatorID uuid.UUID, openingBalance decimal.Decimal, now time.Time) (*CashSession, error) {
	if operatorID == uuid.Nil {
		return nil, shared.NewValidationError("operator_id", "Operator is required")
	}
	if openingBalance.IsNegative() {
		return nil, shared.NewValidationError("opening_balance", "Opening balance cannot be negative")
	}

	root := shared.NewTenantAggregateRoot(tenantID)
	root.CreatedAt = now
	root.UpdatedAt = now

	return &CashSession{
		TenantAggregateRoot: root,
		Status:              SessionStatusOpen,
		OperatorID:          operatorID,
		OpeningBalance:      openingBalance,
		StartingOpen:        now,
		SalesByMethod:       make(map[trade.PaymentMethod]decimal.Decimal),
		AuditLog:            []string{fmt.Sprintf("opened at %s", now.UTC().Format(time.RFC3339))},
	}, nil
}

// IsActive reports whether the session is OPEN or REOPENED
func (s *CashSession) IsActive() bool {
	return s.Status.IsActive()
}

// Close reconciles the drawer. salesByMethod holds the point-of-sale totals
// for [StartingOpen, now]; only the CASH entry feeds the expected amount.
func (s *CashSession) Close(counted decimal.Decimal, notes string, salesByMethod map[trade.PaymentMethod]decimal.Decimal, now time.Time) error {
	if !s.IsActive() {
		return shared.ErrInvalidSessionTransition.
			WithDetail("status", string(s.Status)).
			WithDetail("action", "close")
	}
	if counted.IsNegative() {
		return shared.NewValidationError("counted_cash_amount", "Counted cash cannot be negative")
	}

	breakdown := make(map[trade.PaymentMethod]decimal.Decimal, len(salesByMethod))
	for m, v := range salesByMethod {
		breakdown[m] = v
	}
	cashSales := breakdown[trade.PaymentMethodCash]

	expected := s.OpeningBalance.Add(cashSales)
	diff := counted.Sub(expected)
	closedAt := now

	s.SalesByMethod = breakdown
	s.CountedCashAmount = &counted
	s.ExpectedCashAmount = &expected
	s.Difference = &diff
	s.ClosingDate = &closedAt
	if n := strings.TrimSpace(notes); n != "" {
		s.Notes = n
	}
	s.Status = SessionStatusFinalized
	s.AuditLog = append(s.AuditLog, fmt.Sprintf("closed at %s", now.UTC().Format(time.RFC3339)))
	s.Touch(now)
	return nil
}

// Reopen puts a finalized session back in use. Opening balance and start
// time stay as they were, so the next close covers the whole original window.
func (s *CashSession) Reopen(now time.Time) error {
	if s.Status != SessionStatusFinalized {
		return shared.ErrInvalidSessionTransition.
			WithDetail("status", string(s.Status)).
			WithDetail("action", "reopen")
	}
	s.Status = SessionStatusReopened
	s.AuditLog = append(s.AuditLog, fmt.Sprintf("reopened at %s", now.UTC().Format(time.RFC3339)))
	s.Touch(now)
	return nil
}

// TotalSales sums the per-method breakdown of the last close
func (s *CashSession) TotalSales() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.SalesByMethod {
		total = total.Add(v)
	}
	return total
}
