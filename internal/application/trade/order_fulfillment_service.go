package trade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailcore/backend/internal/application/shared"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/trade"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MaxIdempotencyKeyLength bounds the Idempotency-Key header
const MaxIdempotencyKeyLength = 128

// OrderFulfillmentService turns sale drafts into committed orders. Each
// attempt decrements stock, appends the ledger, upserts the customer and
// inserts the order in one transaction.
type OrderFulfillmentService struct {
	uow            appshared.UnitOfWork
	orderRepo      trade.OrderRepository
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	retry          appshared.RetryPolicy
	metrics        *telemetry.BusinessMetrics
	clock          appshared.Clock
	logger         *zap.Logger
}

// NewOrderFulfillmentService creates a new OrderFulfillmentService
func NewOrderFulfillmentService(uow appshared.UnitOfWork, orderRepo trade.OrderRepository) *OrderFulfillmentService {
	return &OrderFulfillmentService{
		uow:            uow,
		orderRepo:      orderRepo,
		idempotencyTTL: shared.DefaultIdempotencyTTL,
		retry:          appshared.DefaultRetryPolicy(),
		clock:          appshared.SystemClock,
		logger:         zap.NewNop(),
	}
}

// SetIdempotencyStore enables replay detection for requests carrying a key
func (s *OrderFulfillmentService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetRetryPolicy overrides the conflict retry policy
func (s *OrderFulfillmentService) SetRetryPolicy(policy appshared.RetryPolicy) {
	s.retry = policy
}

// SetMetrics sets the business metrics recorder
func (s *OrderFulfillmentService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// SetClock sets the time source
func (s *OrderFulfillmentService) SetClock(clock appshared.Clock) {
	s.clock = clock
}

// SetLogger sets the base logger
func (s *OrderFulfillmentService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

// CreateOrder validates the request and commits the sale, retrying the whole
// transaction on write conflicts. When every attempt conflicts the caller gets
// ORDER_CREATION_FAILED and nothing is persisted.
func (s *OrderFulfillmentService) CreateOrder(ctx context.Context, tenantID uuid.UUID, req CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_fulfillment", "create_order",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrOrigin, strings.ToUpper(req.Origin)),
		telemetry.WithAttribute(telemetry.SpanAttrItemsCount, len(req.Items)),
	)
	defer span.End()
	log := logger.Enrich(ctx, s.logger)

	draft := req.ToDraft()
	if err := s.prepare(draft); err != nil {
		s.metrics.RecordOrderRejected(ctx, tenantID, appshared.ErrorCode(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	key := ""
	if draft.IdempotencyKey != "" && s.idempotency != nil {
		key = fmt.Sprintf("order:%s:%s", tenantID, draft.IdempotencyKey)
		claimed, err := s.idempotency.Claim(ctx, key, s.idempotencyTTL)
		if err != nil {
			err = shared.ErrStorageFailure.WithCause(err)
			telemetry.RecordError(span, err)
			return nil, err
		}
		if !claimed {
			err := shared.ErrDuplicateRequest.WithDetail("idempotency_key", draft.IdempotencyKey)
			s.metrics.RecordOrderRejected(ctx, tenantID, shared.CodeDuplicateRequest)
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	var order *trade.Order
	var err error
	telemetry.ProfileOperation(ctx, "create_order", tenantID.String(), func(ctx context.Context) {
		err = s.retry.Run(ctx, func(ctx context.Context, attempt int) error {
			telemetry.SetAttributes(span, telemetry.SpanAttrAttempt, attempt)
			o, ferr := s.fulfill(ctx, tenantID, draft)
			if ferr != nil {
				return ferr
			}
			order = o
			return nil
		}, func(cerr error, next int, wait time.Duration) {
			s.metrics.RecordConflictRetry(ctx, "create_order")
			telemetry.AddEvent(span, "conflict_retry", telemetry.SpanAttrAttempt, next)
			log.Warn("Order transaction conflicted, retrying",
				zap.Int("next_attempt", next),
				zap.Duration("backoff", wait),
				zap.Error(cerr))
		})
	})
	if err != nil {
		if key != "" {
			if rerr := s.idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
				log.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(rerr))
			}
		}
		if shared.IsConflict(err) {
			err = shared.ErrOrderCreationFailed.WithCause(err)
		}
		s.metrics.RecordOrderRejected(ctx, tenantID, appshared.ErrorCode(err))
		telemetry.RecordError(span, err)
		log.Info("Order rejected", zap.String("code", appshared.ErrorCode(err)), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordOrderCreated(ctx, tenantID, string(order.Origin), string(order.PaymentMethod), order.TotalAmount)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, order.ID.String(),
		telemetry.SpanAttrOrderNumber, order.OrderNumber,
		telemetry.SpanAttrCustomerID, order.CustomerID.String(),
	)
	log.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("origin", string(order.Origin)),
		zap.Int("total_quantity", order.TotalQuantity),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)))

	return &CreateOrderResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status.String(),
		TotalQuantity: order.TotalQuantity,
		TotalAmount:   order.TotalAmount,
		CustomerID:    order.CustomerID,
	}, nil
}

func (s *OrderFulfillmentService) prepare(draft *trade.SaleDraft) error {
	if len(draft.IdempotencyKey) > MaxIdempotencyKeyLength {
		return shared.NewValidationError("idempotency_key", "Idempotency key is too long")
	}
	return draft.Validate()
}

// fulfill is one transactional attempt
func (s *OrderFulfillmentService) fulfill(ctx context.Context, tenantID uuid.UUID, draft *trade.SaleDraft) (*trade.Order, error) {
	now := s.clock()
	var order *trade.Order

	err := s.uow.Execute(ctx, func(repos appshared.Repositories) error {
		customer, err := appshared.UpsertCustomer(ctx, repos.Customers(), tenantID, draft.Customer, now)
		if err != nil {
			return err
		}

		ids, requested := draft.RequestedQuantities()
		products, err := repos.Products().FindByIDs(ctx, tenantID, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*catalog.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}

		snapshots := make(map[uuid.UUID]catalog.Snapshot, len(ids))
		for _, id := range ids {
			p, ok := byID[id]
			if !ok || !p.Active {
				return shared.ErrProductNotFound.WithDetail("product_id", id.String())
			}
			if !p.CanSupply(requested[id]) {
				return shared.NewInsufficientStockError(id.String(), p.Name, requested[id], p.StockQuantity)
			}
			snapshots[id] = p.Snapshot()
		}

		o, err := trade.NewOrder(tenantID, customer.ID, draft, snapshots, now)
		if err != nil {
			return err
		}

		// one decrement per product, one ledger entry per order line
		movements := make([]*inventory.StockMovement, 0, len(o.Items))
		for _, id := range ids {
			var lines []trade.OrderItem
			var quantities []int
			for _, item := range o.Items {
				if item.ProductID == id {
					lines = append(lines, item)
					quantities = append(quantities, item.Quantity)
				}
			}
			ms, err := inventory.ApplySale(byID[id], quantities, o.ID, now)
			if err != nil {
				return err
			}
			for i, m := range ms {
				m.UnitPrice = lines[i].UnitPrice
			}
			movements = append(movements, ms...)
		}

		for _, id := range ids {
			if err := repos.Products().SaveWithLock(ctx, byID[id]); err != nil {
				return err
			}
		}
		if err := repos.Movements().CreateBatch(ctx, movements); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus moves an order to a new status. Stock is never touched.
func (s *OrderFulfillmentService) UpdateOrderStatus(ctx context.Context, tenantID, orderID uuid.UUID, req UpdateOrderStatusRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_fulfillment", "update_order_status",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()),
	)
	defer span.End()

	status := trade.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	var order *trade.Order
	err := s.uow.Execute(ctx, func(repos appshared.Repositories) error {
		o, err := repos.Orders().FindByIDForTenant(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := o.UpdateStatus(status, s.clock()); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrOrderStatus, order.Status.String())
	logger.Enrich(ctx, s.logger).Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", order.Status.String()),
		zap.Bool("terminal", order.Status.IsTerminal()))

	response := ToOrderResponse(order)
	return &response, nil
}

// GetOrder retrieves an order with its items
func (s *OrderFulfillmentService) GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// ListOrders retrieves a page of orders
func (s *OrderFulfillmentService) ListOrders(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	f := filter.Filter()
	if filter.Status != "" {
		f.Filters["status"] = strings.ToUpper(filter.Status)
	}
	if filter.Origin != "" {
		f.Filters["origin"] = strings.ToUpper(filter.Origin)
	}
	if filter.CustomerID != nil {
		f.Filters["customer_id"] = *filter.CustomerID
	}

	orders, total, err := s.orderRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses, total, nil
}
