package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailcore/backend/internal/application/shared"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StockService handles stock changes that do not come from a sale
type StockService struct {
	uow          appshared.UnitOfWork
	movementRepo inventory.StockMovementRepository
	retry        appshared.RetryPolicy
	metrics      *telemetry.BusinessMetrics
	clock        appshared.Clock
	logger       *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(uow appshared.UnitOfWork, movementRepo inventory.StockMovementRepository) *StockService {
	return &StockService{
		uow:          uow,
		movementRepo: movementRepo,
		retry:        appshared.DefaultRetryPolicy(),
		clock:        appshared.SystemClock,
		logger:       zap.NewNop(),
	}
}

// SetRetryPolicy overrides the conflict retry policy
func (s *StockService) SetRetryPolicy(policy appshared.RetryPolicy) {
	s.retry = policy
}

// SetMetrics sets the business metrics recorder
func (s *StockService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// SetClock sets the time source
func (s *StockService) SetClock(clock appshared.Clock) {
	s.clock = clock
}

// SetLogger sets the base logger
func (s *StockService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

// RecordMovement applies an explicit movement to the product counter and
// appends it to the ledger in one transaction. Sales are recorded only
// through order creation.
func (s *StockService) RecordMovement(ctx context.Context, tenantID uuid.UUID, req RecordMovementRequest) (*RecordMovementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "record_movement",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, req.Quantity),
	)
	defer span.End()
	log := logger.Enrich(ctx, s.logger)

	direction, reason := req.direction(), req.reason()
	if err := validateMovement(req, direction, reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var resp *RecordMovementResponse
	err := s.retry.Run(ctx, func(ctx context.Context, attempt int) error {
		now := s.clock()
		return s.uow.Execute(ctx, func(repos appshared.Repositories) error {
			product, err := repos.Products().FindByIDForTenant(ctx, tenantID, req.ProductID)
			if err != nil {
				return err
			}
			movement, err := inventory.Apply(product, direction, req.Quantity, reason, now)
			if err != nil {
				return err
			}
			movement.Note = strings.TrimSpace(req.Note)

			if err := repos.Products().SaveWithLock(ctx, product); err != nil {
				return err
			}
			if err := repos.Movements().Create(ctx, movement); err != nil {
				return err
			}
			resp = &RecordMovementResponse{
				Movement: ToStockMovementResponse(movement),
				Stock:    product.StockQuantity,
				LowStock: product.IsLowStock(),
			}
			return nil
		})
	}, func(cerr error, next int, wait time.Duration) {
		s.metrics.RecordConflictRetry(ctx, "record_movement")
		log.Warn("Stock movement conflicted, retrying",
			zap.Int("next_attempt", next),
			zap.Duration("backoff", wait),
			zap.Error(cerr))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Info("Stock movement recorded",
		zap.String("product_id", req.ProductID.String()),
		zap.String("direction", string(direction)),
		zap.String("reason", string(reason)),
		zap.Int("quantity", req.Quantity),
		zap.Int("balance_after", resp.Stock))
	if resp.LowStock {
		log.Warn("Product below minimum stock", zap.String("product_id", req.ProductID.String()), zap.Int("stock", resp.Stock))
	}
	return resp, nil
}

func validateMovement(req RecordMovementRequest, direction inventory.Direction, reason inventory.Reason) error {
	if req.ProductID == uuid.Nil {
		return shared.NewValidationError("product_id", "Product ID cannot be empty")
	}
	if !direction.IsValid() {
		return shared.NewValidationError("direction", "Direction must be IN or OUT")
	}
	if req.Quantity <= 0 {
		return shared.NewValidationError("quantity", "Quantity must be positive")
	}
	if !reason.IsValid() {
		return shared.NewValidationError("reason", "Unknown movement reason")
	}
	if reason == inventory.ReasonSale {
		return shared.NewValidationError("reason", "Sales are recorded through orders")
	}
	return nil
}

// ListMovements lists the ledger of one product, newest first
func (s *StockService) ListMovements(ctx context.Context, tenantID, productID uuid.UUID, filter MovementListFilter) ([]StockMovementResponse, int64, error) {
	movements, total, err := s.movementRepo.FindByProduct(ctx, tenantID, productID, filter.Filter())
	if err != nil {
		return nil, 0, err
	}
	responses := make([]StockMovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToStockMovementResponse(&movements[i])
	}
	return responses, total, nil
}

// AuditProduct checks the product counter against the sum of its ledger.
// Both are read from one snapshot, so a sale committing between the two
// reads cannot show up as a mismatch.
func (s *StockService) AuditProduct(ctx context.Context, tenantID, productID uuid.UUID) (*inventory.AuditResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "audit_product",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrProductID, productID.String()),
	)
	defer span.End()

	var result inventory.AuditResult
	err := s.uow.ExecuteSnapshot(ctx, func(repos appshared.Repositories) error {
		product, err := repos.Products().FindByIDForTenant(ctx, tenantID, productID)
		if err != nil {
			return err
		}
		balance, count, err := repos.Movements().SumDeltaByProduct(ctx, tenantID, productID)
		if err != nil {
			return err
		}
		result = inventory.AuditBalance(product, balance, int(count))
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !result.Consistent {
		logger.Enrich(ctx, s.logger).Error("Stock ledger out of balance",
			zap.String("product_id", productID.String()),
			zap.Int("stock", result.Stock),
			zap.Int("ledger_balance", result.LedgerBalance))
	}
	return &result, nil
}
