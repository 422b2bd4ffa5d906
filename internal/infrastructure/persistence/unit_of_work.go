package persistence

import (
	"context"
	"database/sql"

	appshared "github.com/retailcore/backend/internal/application/shared"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/partner"
	"github.com/retailcore/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormUnitOfWork implements UnitOfWork using GORM transactions.
// Every repository handed to fn shares the transaction.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
// A failed commit is translated like any other driver error, so a
// serialization failure surfaces as a conflict.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos appshared.Repositories) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx})
	})
	return translateError(err, err)
}

// ExecuteSnapshot runs fn in a read-only REPEATABLE READ transaction, so
// every statement in fn reads from one snapshot. Commits by other
// transactions in between are not visible.
func (u *GormUnitOfWork) ExecuteSnapshot(ctx context.Context, fn func(repos appshared.Repositories) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx})
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	return translateError(err, err)
}

// gormRepositories provides access to all repositories within a transaction.
type gormRepositories struct {
	tx *gorm.DB
}

func (r *gormRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormRepositories) Movements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormRepositories) Orders() trade.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormRepositories) Debts() finance.DebtRepository {
	return NewGormDebtRepository(r.tx)
}

func (r *gormRepositories) CashSessions() finance.CashSessionRepository {
	return NewGormCashSessionRepository(r.tx)
}

// Ensure GormUnitOfWork implements UnitOfWork
var _ appshared.UnitOfWork = (*GormUnitOfWork)(nil)

// Ensure gormRepositories implements Repositories
var _ appshared.Repositories = (*gormRepositories)(nil)
