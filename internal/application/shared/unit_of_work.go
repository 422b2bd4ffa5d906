// Package shared holds the transaction and retry plumbing used by the
// application services.
package shared

import (
	"context"
	"time"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/partner"
	"github.com/retailcore/backend/internal/domain/trade"
)

// UnitOfWork runs fn inside one database transaction. Every repository
// handed to fn shares that transaction; fn returning an error rolls it back.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
	// ExecuteSnapshot runs fn in a read-only transaction whose reads all see
	// the same committed state.
	ExecuteSnapshot(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides the repositories scoped to the current transaction.
type Repositories interface {
	Products() catalog.ProductRepository
	Movements() inventory.StockMovementRepository
	Customers() partner.CustomerRepository
	Orders() trade.OrderRepository
	Debts() finance.DebtRepository
	CashSessions() finance.CashSessionRepository
}

// RepositorySet is a plain Repositories implementation.
type RepositorySet struct {
	ProductRepo     catalog.ProductRepository
	MovementRepo    inventory.StockMovementRepository
	CustomerRepo    partner.CustomerRepository
	OrderRepo       trade.OrderRepository
	DebtRepo        finance.DebtRepository
	CashSessionRepo finance.CashSessionRepository
}

func (r RepositorySet) Products() catalog.ProductRepository          { return r.ProductRepo }
func (r RepositorySet) Movements() inventory.StockMovementRepository { return r.MovementRepo }
func (r RepositorySet) Customers() partner.CustomerRepository        { return r.CustomerRepo }
func (r RepositorySet) Orders() trade.OrderRepository                { return r.OrderRepo }
func (r RepositorySet) Debts() finance.DebtRepository                { return r.DebtRepo }
func (r RepositorySet) CashSessions() finance.CashSessionRepository  { return r.CashSessionRepo }

// NoOpUnitOfWork calls fn with fixed repositories and no transaction.
// It is meant for tests.
type NoOpUnitOfWork struct {
	repos RepositorySet
}

// NewNoOpUnitOfWork creates a NoOpUnitOfWork over repos.
func NewNoOpUnitOfWork(repos RepositorySet) *NoOpUnitOfWork {
	return &NoOpUnitOfWork{repos: repos}
}

// Execute runs fn directly.
func (u *NoOpUnitOfWork) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(u.repos)
}

// ExecuteSnapshot runs fn directly.
func (u *NoOpUnitOfWork) ExecuteSnapshot(_ context.Context, fn func(repos Repositories) error) error {
	return fn(u.repos)
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
