package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailcore/backend/internal/application/shared"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/partner"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/trade"
	"github.com/retailcore/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

type fulfillmentFixture struct {
	tenantID    uuid.UUID
	products    *testutil.MockProductRepository
	movements   *testutil.MockStockMovementRepository
	customers   *testutil.MockCustomerRepository
	orders      *testutil.MockOrderRepository
	idempotency *testutil.MockIdempotencyStore
	service     *OrderFulfillmentService
}

func newFulfillmentFixture() *fulfillmentFixture {
	f := &fulfillmentFixture{
		tenantID:    testutil.NewTestUUID("tenant"),
		products:    new(testutil.MockProductRepository),
		movements:   new(testutil.MockStockMovementRepository),
		customers:   new(testutil.MockCustomerRepository),
		orders:      new(testutil.MockOrderRepository),
		idempotency: new(testutil.MockIdempotencyStore),
	}
	uow := appshared.NewNoOpUnitOfWork(appshared.RepositorySet{
		ProductRepo:  f.products,
		MovementRepo: f.movements,
		CustomerRepo: f.customers,
		OrderRepo:    f.orders,
	})
	f.service = NewOrderFulfillmentService(uow, f.orders)
	f.service.SetClock(appshared.FixedClock(fixedNow))
	f.service.SetRetryPolicy(appshared.RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	})
	f.service.SetIdempotencyStore(f.idempotency, time.Hour)
	return f
}

func (f *fulfillmentFixture) product(t *testing.T, stock int) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(f.tenantID, "SKU-001", "Blue Mug", decimal.NewFromFloat(5))
	require.NoError(t, err)
	p.StockQuantity = stock
	return *p
}

// expectNewCustomer sets up a first-time buyer lookup and insert
func (f *fulfillmentFixture) expectNewCustomer(times int) {
	f.customers.On("FindByPhone", mock.Anything, f.tenantID, "11987654321").
		Return(nil, shared.ErrNotFound).Times(times)
	f.customers.On("Save", mock.Anything, mock.AnythingOfType("*partner.Customer")).
		Return(nil).Times(times)
}

func saleRequest(productID uuid.UUID, quantities ...int) CreateOrderRequest {
	items := make([]OrderLineInput, len(quantities))
	for i, q := range quantities {
		items[i] = OrderLineInput{ProductID: productID, Quantity: q, UnitPrice: decimal.NewFromFloat(5)}
	}
	return CreateOrderRequest{
		Customer:      appshared.ContactInput{Name: "maria silva", Phone: "(11) 98765-4321"},
		Items:         items,
		PaymentMethod: "pix",
		Origin:        "pos",
	}
}

func TestCreateOrder_Success(t *testing.T) {
	f := newFulfillmentFixture()
	p := f.product(t, 10)
	f.expectNewCustomer(1)
	f.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{p.ID}).
		Return([]catalog.Product{p}, nil).Once()
	f.products.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(saved *catalog.Product) bool {
		return saved.ID == p.ID && saved.StockQuantity == 7 && saved.Version == p.Version+1
	})).Return(nil).Once()
	f.movements.On("CreateBatch", mock.Anything, mock.MatchedBy(func(ms []*inventory.StockMovement) bool {
		return len(ms) == 1 &&
			ms[0].Direction == inventory.DirectionOut &&
			ms[0].Reason == inventory.ReasonSale &&
			ms[0].Quantity == 3 &&
			ms[0].BalanceAfter == 7 &&
			ms[0].OrderID != nil
	})).Return(nil).Once()
	f.orders.On("Save", mock.Anything, mock.AnythingOfType("*trade.Order")).Return(nil).Once()

	resp, err := f.service.CreateOrder(context.Background(), f.tenantID, saleRequest(p.ID, 3))

	require.NoError(t, err)
	assert.Equal(t, trade.OrderStatusCompleted.String(), resp.Status)
	assert.Equal(t, 3, resp.TotalQuantity)
	assert.True(t, decimal.NewFromInt(15).Equal(resp.TotalAmount))
	assert.Contains(t, resp.OrderNumber, "POS-20240310-")
	assert.NotEqual(t, uuid.Nil, resp.CustomerID)
	f.products.AssertExpectations(t)
	f.movements.AssertExpectations(t)
	f.customers.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestCreateOrder_RepeatedProductKeepsEveryLine(t *testing.T) {
	f := newFulfillmentFixture()
	p := f.product(t, 5)
	f.expectNewCustomer(1)
	f.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{p.ID}).
		Return([]catalog.Product{p}, nil).Once()
	f.products.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(saved *catalog.Product) bool {
		return saved.StockQuantity == 0 && saved.Version == p.Version+1
	})).Return(nil).Once()
	f.movements.On("CreateBatch", mock.Anything, mock.MatchedBy(func(ms []*inventory.StockMovement) bool {
		return len(ms) == 2 &&
			ms[0].Quantity == 2 && ms[0].BalanceAfter == 3 && ms[0].UnitPrice.Equal(decimal.NewFromInt(10)) &&
			ms[1].Quantity == 3 && ms[1].BalanceAfter == 0 && ms[1].UnitPrice.Equal(decimal.NewFromInt(8))
	})).Return(nil).Once()
	f.orders.On("Save", mock.Anything, mock.MatchedBy(func(o *trade.Order) bool {
		return len(o.Items) == 2 && o.TotalQuantity == 5
	})).Return(nil).Once()

	req := saleRequest(p.ID, 2, 3)
	req.Items[0].UnitPrice = decimal.NewFromInt(10)
	req.Items[1].UnitPrice = decimal.NewFromInt(8)
	resp, err := f.service.CreateOrder(context.Background(), f.tenantID, req)

	require.NoError(t, err)
	assert.Equal(t, 5, resp.TotalQuantity)
	assert.Equal(t, "44.00", resp.TotalAmount.StringFixed(2))
	f.products.AssertExpectations(t)
	f.movements.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFulfillmentFixture()
	p := f.product(t, 2)
	f.expectNewCustomer(1)
	f.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{p.ID}).
		Return([]catalog.Product{p}, nil).Once()

	resp, err := f.service.CreateOrder(context.Background(), f.tenantID, saleRequest(p.ID, 2, 1))

	assert.Nil(t, resp)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 3, de.Details["requested"])
	assert.Equal(t, 2, de.Details["available"])
	f.products.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.movements.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateOrder_UnknownOrInactiveProduct(t *testing.T) {
	tests := []struct {
		name     string
		products func(p catalog.Product) []catalog.Product
	}{
		{
			name:     "missing",
			products: func(catalog.Product) []catalog.Product { return []catalog.Product{} },
		},
		{
			name: "inactive",
			products: func(p catalog.Product) []catalog.Product {
				p.Active = false
				return []catalog.Product{p}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFulfillmentFixture()
			p := f.product(t, 10)
			f.expectNewCustomer(1)
			f.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{p.ID}).
				Return(tt.products(p), nil).Once()

			_, err := f.service.CreateOrder(context.Background(), f.tenantID, saleRequest(p.ID, 1))

			assert.ErrorIs(t, err, shared.ErrProductNotFound)
			f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateOrder_ValidationRejectedBeforeStorage(t *testing.T) {
	f := newFulfillmentFixture()
	productID := uuid.New()

	tests := []struct {
		name   string
		mutate func(r *CreateOrderRequest)
		field  string
	}{
		{"no items", func(r *CreateOrderRequest) { r.Items = nil }, "items"},
		{"zero quantity", func(r *CreateOrderRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"bad payment method", func(r *CreateOrderRequest) { r.PaymentMethod = "barter" }, "payment_method"},
		{"bad origin", func(r *CreateOrderRequest) { r.Origin = "phone" }, "origin"},
		{"bad phone", func(r *CreateOrderRequest) { r.Customer.Phone = "abc" }, "phone"},
		{"conflicting prices", func(r *CreateOrderRequest) {
			r.Items = append(r.Items, OrderLineInput{ProductID: productID, Quantity: 1, UnitPrice: decimal.NewFromInt(9)})
		}, "items[1].unit_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := saleRequest(productID, 1)
			tt.mutate(&req)

			_, err := f.service.CreateOrder(context.Background(), f.tenantID, req)

			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, shared.CodeValidation, de.Code)
			assert.Equal(t, tt.field, de.Details["field"])
		})
	}
	f.customers.AssertNotCalled(t, "FindByPhone", mock.Anything, mock.Anything, mock.Anything)
	f.products.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_RetriesOnConflict(t *testing.T) {
	f := newFulfillmentFixture()
	p := f.product(t, 10)
	f.expectNewCustomer(2)
	// each attempt reads a fresh copy, as a new transaction would
	f.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{p.ID}).
		Return([]catalog.Product{p}, nil).Once()
	f.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{p.ID}).
		Return([]catalog.Product{p}, nil).Once()
	f.products.On("SaveWithLock", mock.Anything, mock.Anything).Return(shared.ErrTransactionConflict).Once()
	f.products.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(saved *catalog.Product) bool {
		return saved.StockQuantity == 9
	})).Return(nil).Once()
	f.movements.On("CreateBatch", mock.Anything, mock.Anything).Return(nil).Once()
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	resp, err := f.service.CreateOrder(context.Background(), f.tenantID, saleRequest(p.ID, 1))

	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalQuantity)
	f.products.AssertNumberOfCalls(t, "FindByIDs", 2)
	f.orders.AssertExpectations(t)
}

func TestCreateOrder_ConflictsExhausted(t *testing.T) {
	f := newFulfillmentFixture()
	p := f.product(t, 10)
	f.expectNewCustomer(3)
	for i := 0; i < 3; i++ {
		f.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{p.ID}).
			Return([]catalog.Product{p}, nil).Once()
	}
	f.products.On("SaveWithLock", mock.Anything, mock.Anything).Return(shared.ErrTransactionConflict).Times(3)
	f.idempotency.On("Claim", mock.Anything, "order:"+f.tenantID.String()+":abc-123", time.Hour).Return(true, nil).Once()
	f.idempotency.On("Release", mock.Anything, "order:"+f.tenantID.String()+":abc-123").Return(nil).Once()

	req := saleRequest(p.ID, 1)
	req.IdempotencyKey = "abc-123"
	_, err := f.service.CreateOrder(context.Background(), f.tenantID, req)

	require.ErrorIs(t, err, shared.ErrOrderCreationFailed)
	assert.True(t, shared.IsRetryable(err))
	f.products.AssertNumberOfCalls(t, "SaveWithLock", 3)
	f.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.idempotency.AssertExpectations(t)
}

func TestCreateOrder_DuplicateIdempotencyKey(t *testing.T) {
	f := newFulfillmentFixture()
	f.idempotency.On("Claim", mock.Anything, mock.Anything, time.Hour).Return(false, nil).Once()

	req := saleRequest(uuid.New(), 1)
	req.IdempotencyKey = "abc-123"
	_, err := f.service.CreateOrder(context.Background(), f.tenantID, req)

	assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
	f.customers.AssertNotCalled(t, "FindByPhone", mock.Anything, mock.Anything, mock.Anything)
	f.idempotency.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestCreateOrder_IdempotencyStoreDown(t *testing.T) {
	f := newFulfillmentFixture()
	f.idempotency.On("Claim", mock.Anything, mock.Anything, time.Hour).Return(false, errors.New("dial tcp: refused")).Once()

	req := saleRequest(uuid.New(), 1)
	req.IdempotencyKey = "abc-123"
	_, err := f.service.CreateOrder(context.Background(), f.tenantID, req)

	assert.ErrorIs(t, err, shared.ErrStorageFailure)
}

func TestCreateOrder_UpdatesReturningCustomer(t *testing.T) {
	f := newFulfillmentFixture()
	p := f.product(t, 10)
	existing, err := partner.NewCustomer(f.tenantID, partner.Contact{Name: "Maria", Phone: "11987654321"}, fixedNow.Add(-time.Hour))
	require.NoError(t, err)

	f.customers.On("FindByPhone", mock.Anything, f.tenantID, "11987654321").Return(existing, nil).Once()
	f.customers.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(c *partner.Customer) bool {
		return c.Name == "Maria Silva"
	})).Return(nil).Once()
	f.products.On("FindByIDs", mock.Anything, f.tenantID, []uuid.UUID{p.ID}).Return([]catalog.Product{p}, nil).Once()
	f.products.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil).Once()
	f.movements.On("CreateBatch", mock.Anything, mock.Anything).Return(nil).Once()
	f.orders.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	resp, err := f.service.CreateOrder(context.Background(), f.tenantID, saleRequest(p.ID, 1))

	require.NoError(t, err)
	assert.Equal(t, existing.ID, resp.CustomerID)
	f.customers.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.customers.AssertExpectations(t)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFulfillmentFixture()
	orderID := uuid.New()
	order := &trade.Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(f.tenantID),
		Status:              trade.OrderStatusPending,
		Origin:              trade.OriginStorefront,
	}
	order.ID = orderID

	f.orders.On("FindByIDForTenant", mock.Anything, f.tenantID, orderID).Return(order, nil).Once()
	f.orders.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(o *trade.Order) bool {
		return o.Status == trade.OrderStatusConfirmed && o.Version == 2
	})).Return(nil).Once()

	resp, err := f.service.UpdateOrderStatus(context.Background(), f.tenantID, orderID, UpdateOrderStatusRequest{Status: "confirmed"})

	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)
	f.movements.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	f.products.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.orders.AssertExpectations(t)
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	f := newFulfillmentFixture()
	orderID := uuid.New()
	order := &trade.Order{TenantAggregateRoot: shared.NewTenantAggregateRoot(f.tenantID), Status: trade.OrderStatusPending}
	f.orders.On("FindByIDForTenant", mock.Anything, f.tenantID, orderID).Return(order, nil).Once()

	_, err := f.service.UpdateOrderStatus(context.Background(), f.tenantID, orderID, UpdateOrderStatusRequest{Status: "LOST"})

	assert.ErrorIs(t, err, shared.ErrValidation)
	f.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestListOrders_MapsFilters(t *testing.T) {
	f := newFulfillmentFixture()
	customerID := uuid.New()
	f.orders.On("FindAllForTenant", mock.Anything, f.tenantID, mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Page == 2 &&
			filter.PageSize == 10 &&
			filter.Filters["status"] == "SHIPPED" &&
			filter.Filters["origin"] == "STOREFRONT" &&
			filter.Filters["customer_id"] == customerID
	})).Return([]trade.Order{{Status: trade.OrderStatusShipped}}, int64(11), nil).Once()

	filter := OrderListFilter{Status: "shipped", Origin: "storefront", CustomerID: &customerID}
	filter.Page = 2
	filter.PageSize = 10
	orders, total, err := f.service.ListOrders(context.Background(), f.tenantID, filter)

	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int64(11), total)
}
