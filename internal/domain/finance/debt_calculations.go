package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StartOfDay returns midnight of t's day in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TotalOwed is what is still to be received on a debt
func TotalOwed(d *Debt) decimal.Decimal {
	if d.IsPaid() {
		return decimal.Zero
	}
	if d.Mode == DebtModeCash {
		return d.TotalSale
	}
	owed := decimal.Zero
	for i := range d.Installments {
		if !d.Installments[i].IsPaid() {
			owed = owed.Add(d.Installments[i].Amount)
		}
	}
	return owed
}

// OverdueAmount is the unpaid amount whose due date is before the start of now's day
func OverdueAmount(d *Debt, now time.Time) decimal.Decimal {
	if d.IsPaid() {
		return decimal.Zero
	}
	cutoff := StartOfDay(now)
	if d.Mode == DebtModeCash {
		if d.DueDate != nil && d.DueDate.Before(cutoff) {
			return d.TotalSale
		}
		return decimal.Zero
	}
	overdue := decimal.Zero
	for i := range d.Installments {
		inst := &d.Installments[i]
		if !inst.IsPaid() && inst.DueDate.Before(cutoff) {
			overdue = overdue.Add(inst.Amount)
		}
	}
	return overdue
}

// DebtSummary aggregates a tenant's receivables
type DebtSummary struct {
	TotalToReceive decimal.Decimal
	TotalOverdue   decimal.Decimal
	CustomersOwing int
	OpenDebts      int
	MonthSales     decimal.Decimal
}

// Summarize folds debts into a summary. A customer with several open debts
// counts once. MonthSales adds the totals of debts created in now's calendar month.
func Summarize(debts []Debt, now time.Time) DebtSummary {
	s := DebtSummary{
		TotalToReceive: decimal.Zero,
		TotalOverdue:   decimal.Zero,
		MonthSales:     decimal.Zero,
	}
	owing := make(map[uuid.UUID]struct{})
	monthStart, monthEnd := MonthBounds(now)

	for i := range debts {
		d := &debts[i]
		if owed := TotalOwed(d); owed.IsPositive() {
			s.TotalToReceive = s.TotalToReceive.Add(owed)
			s.OpenDebts++
			owing[d.CustomerID] = struct{}{}
		}
		s.TotalOverdue = s.TotalOverdue.Add(OverdueAmount(d, now))
		if !d.CreatedAt.Before(monthStart) && d.CreatedAt.Before(monthEnd) {
			s.MonthSales = s.MonthSales.Add(d.TotalSale)
		}
	}
	s.CustomersOwing = len(owing)
	return s
}

// MonthBounds returns [first instant of now's month, first instant of next month)
func MonthBounds(now time.Time) (time.Time, time.Time) {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}
