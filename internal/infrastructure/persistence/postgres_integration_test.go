//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appfinance "github.com/retailcore/backend/internal/application/finance"
	appinventory "github.com/retailcore/backend/internal/application/inventory"
	appshared "github.com/retailcore/backend/internal/application/shared"
	apptrade "github.com/retailcore/backend/internal/application/trade"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/migration"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
	"github.com/retailcore/backend/migrations"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newPostgres starts a disposable PostgreSQL container with the schema migrated
func newPostgres(t *testing.T) (*gorm.DB, *sql.DB) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("retail_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrations.FS, ".", nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return db, sqlDB
}

func seedStockedProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, stock int) *catalog.Product {
	t.Helper()
	ctx := context.Background()
	p, err := catalog.NewProduct(tenantID, "SKU-"+uuid.NewString()[:8], "Notebook", decimal.NewFromInt(25))
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(ctx, p))

	ledger := appinventory.NewStockService(NewGormUnitOfWork(db), NewGormStockMovementRepository(db))
	_, err = ledger.RecordMovement(ctx, tenantID, appinventory.RecordMovementRequest{
		ProductID: p.ID, Direction: "IN", Quantity: stock, Reason: "INITIAL",
	})
	require.NoError(t, err)
	return p
}

func TestPostgres_ConcurrentSalesNeverOversell(t *testing.T) {
	db, _ := newPostgres(t)
	ctx := context.Background()
	tenantID := uuid.New()
	product := seedStockedProduct(t, db, tenantID, 5)

	orders := apptrade.NewOrderFulfillmentService(NewGormUnitOfWork(db), NewGormOrderRepository(db))
	// every conflict is retried until the buyer either fits or sees the stock gone
	orders.SetRetryPolicy(appshared.RetryPolicy{
		MaxAttempts:     100,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
	})

	const buyers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  = map[string]int{}
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := orders.CreateOrder(ctx, tenantID, apptrade.CreateOrderRequest{
				Customer:      appshared.ContactInput{Name: "Buyer", Phone: fmt.Sprintf("119876543%02d", i)},
				Items:         []apptrade.OrderLineInput{{ProductID: product.ID, Quantity: 1}},
				PaymentMethod: "CASH",
				Origin:        "POS",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures[appshared.ErrorCode(err)]++
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, map[string]int{shared.CodeInsufficientStock: buyers - 5}, failures)

	stored, err := NewGormProductRepository(db).FindByIDForTenant(ctx, tenantID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.StockQuantity)

	var linked int64
	require.NoError(t, db.Model(&models.StockMovementModel{}).
		Where("tenant_id = ? AND product_id = ? AND order_id IS NOT NULL", tenantID, product.ID).
		Count(&linked).Error)
	assert.Equal(t, int64(succeeded), linked)

	stock := appinventory.NewStockService(NewGormUnitOfWork(db), NewGormStockMovementRepository(db))
	audit, err := stock.AuditProduct(ctx, tenantID, product.ID)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
	assert.Equal(t, 1+succeeded, audit.Movements)
}

func TestPostgres_NegativeStockRejectedByConstraint(t *testing.T) {
	db, _ := newPostgres(t)
	tenantID := uuid.New()
	product := seedStockedProduct(t, db, tenantID, 1)

	err := db.Exec("UPDATE products SET stock_quantity = -1 WHERE id = ?", product.ID).Error
	assert.Error(t, err)
}

func TestPostgres_LedgerIsAppendOnly(t *testing.T) {
	db, _ := newPostgres(t)
	tenantID := uuid.New()
	product := seedStockedProduct(t, db, tenantID, 3)

	assert.Error(t, db.Exec("UPDATE stock_movements SET quantity = 99 WHERE product_id = ?", product.ID).Error)
	assert.Error(t, db.Exec("DELETE FROM stock_movements WHERE product_id = ?", product.ID).Error)
}

func TestPostgres_SameNewPhoneCreatesOneCustomer(t *testing.T) {
	db, _ := newPostgres(t)
	ctx := context.Background()
	tenantID := uuid.New()
	product := seedStockedProduct(t, db, tenantID, 10)
	orders := apptrade.NewOrderFulfillmentService(NewGormUnitOfWork(db), NewGormOrderRepository(db))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = orders.CreateOrder(ctx, tenantID, apptrade.CreateOrderRequest{
				Customer:      appshared.ContactInput{Name: "Ana Souza", Phone: "(21) 99876-5432"},
				Items:         []apptrade.OrderLineInput{{ProductID: product.ID, Quantity: 1}},
				PaymentMethod: "PIX",
				Origin:        "STOREFRONT",
			})
		}(i)
	}
	wg.Wait()

	var customers int64
	require.NoError(t, db.Model(&models.CustomerModel{}).Where("tenant_id = ?", tenantID).Count(&customers).Error)
	assert.Equal(t, int64(1), customers)

	var placed int64
	require.NoError(t, db.Model(&models.OrderModel{}).Where("tenant_id = ?", tenantID).Count(&placed).Error)
	committed := 0
	for _, err := range errs {
		if err == nil {
			committed++
		}
	}
	assert.Equal(t, int64(committed), placed)
}

func TestPostgres_OneActiveCashSessionPerTenant(t *testing.T) {
	db, _ := newPostgres(t)
	ctx := context.Background()
	tenantID := uuid.New()
	sessions := appfinance.NewCashSessionService(NewGormUnitOfWork(db), NewGormCashSessionRepository(db))

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = sessions.Open(ctx, tenantID, appfinance.OpenSessionRequest{
				OperatorID:     uuid.New(),
				OpeningBalance: decimal.NewFromInt(100),
			})
		}(i)
	}
	wg.Wait()

	opened := 0
	for _, err := range errs {
		if err == nil {
			opened++
			continue
		}
		assert.True(t, errors.Is(err, shared.ErrSessionAlreadyOpen), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, opened)

	current, err := sessions.Current(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, "OPEN", current.Status)
}

func TestPostgres_DebtSalesBetween(t *testing.T) {
	db, sqlDB := newPostgres(t)
	ctx := context.Background()
	tenantID := uuid.New()
	debts := appfinance.NewDebtService(NewGormUnitOfWork(db), NewGormDebtRepository(db))

	_, err := debts.CreateDebt(ctx, tenantID, appfinance.CreateDebtRequest{
		Customer:  &appshared.ContactInput{Name: "Carlos", Phone: "11912345678"},
		TotalSale: decimal.NewFromInt(300),
		Mode:      "INSTALLMENT",
		Plan: &appfinance.InstallmentPlanInput{
			Count: 3, IntervalDays: 30, FirstDueDate: time.Now().AddDate(0, 0, 10),
		},
	})
	require.NoError(t, err)

	reader := NewReportingReader(sqlDB)
	total, err := reader.DebtSalesBetween(ctx, tenantID, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "300.00", total.StringFixed(2))
}
