package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailcore/backend/internal/application/shared"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultSummaryTTL is how long a cached debt summary is served
const DefaultSummaryTTL = 30 * time.Second

// DebtSalesReader totals the debts created in a time window, paid or not
type DebtSalesReader interface {
	DebtSalesBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

// DebtService handles deferred-payment sales and their installments
type DebtService struct {
	uow        appshared.UnitOfWork
	debtRepo   finance.DebtRepository
	sales      DebtSalesReader
	cache      shared.Cache
	summaryTTL time.Duration
	retry      appshared.RetryPolicy
	metrics    *telemetry.BusinessMetrics
	clock      appshared.Clock
	logger     *zap.Logger
}

// NewDebtService creates a new DebtService
func NewDebtService(uow appshared.UnitOfWork, debtRepo finance.DebtRepository) *DebtService {
	return &DebtService{
		uow:        uow,
		debtRepo:   debtRepo,
		summaryTTL: DefaultSummaryTTL,
		retry:      appshared.SingleRetry(),
		clock:      appshared.SystemClock,
		logger:     zap.NewNop(),
	}
}

// SetSalesReader sets the reporting reader used for month sales
func (s *DebtService) SetSalesReader(reader DebtSalesReader) {
	s.sales = reader
}

// SetSummaryCache enables caching of the per-tenant summary
func (s *DebtService) SetSummaryCache(cache shared.Cache, ttl time.Duration) {
	s.cache = cache
	if ttl > 0 {
		s.summaryTTL = ttl
	}
}

// SetRetryPolicy overrides the conflict retry policy
func (s *DebtService) SetRetryPolicy(policy appshared.RetryPolicy) {
	s.retry = policy
}

// SetMetrics sets the business metrics recorder
func (s *DebtService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// SetClock sets the time source
func (s *DebtService) SetClock(clock appshared.Clock) {
	s.clock = clock
}

// SetLogger sets the base logger
func (s *DebtService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

// CreateDebt records a debt and generates its installment schedule
func (s *DebtService) CreateDebt(ctx context.Context, tenantID uuid.UUID, req CreateDebtRequest) (*DebtResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "debt", "create_debt",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
	)
	defer span.End()

	if req.CustomerID == nil && req.Customer == nil {
		err := shared.NewValidationError("customer", "Customer id or contact is required")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var debt *finance.Debt
	err := s.retry.Run(ctx, func(ctx context.Context, attempt int) error {
		now := s.clock()
		return s.uow.Execute(ctx, func(repos appshared.Repositories) error {
			customerID, err := s.resolveCustomer(ctx, repos, tenantID, req, now)
			if err != nil {
				return err
			}
			d, err := finance.NewDebt(tenantID, req.draft(customerID), now)
			if err != nil {
				return err
			}
			if err := repos.Debts().Save(ctx, d); err != nil {
				return err
			}
			debt = d
			return nil
		})
	}, s.notifyRetry(ctx, "create_debt"))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.invalidateSummary(ctx, tenantID)
	telemetry.SetAttributes(span, telemetry.SpanAttrDebtID, debt.ID.String())
	logger.Enrich(ctx, s.logger).Info("Debt created",
		zap.String("debt_id", debt.ID.String()),
		zap.String("customer_id", debt.CustomerID.String()),
		zap.String("mode", string(debt.Mode)),
		zap.Int("installments", len(debt.Installments)),
		zap.String("total_sale", debt.TotalSale.StringFixed(2)))

	response := ToDebtResponse(debt, s.clock())
	return &response, nil
}

func (s *DebtService) resolveCustomer(ctx context.Context, repos appshared.Repositories, tenantID uuid.UUID, req CreateDebtRequest, now time.Time) (uuid.UUID, error) {
	if req.Customer != nil {
		customer, err := appshared.UpsertCustomer(ctx, repos.Customers(), tenantID, req.Customer.Contact(), now)
		if err != nil {
			return uuid.Nil, err
		}
		return customer.ID, nil
	}
	customer, err := repos.Customers().FindByIDForTenant(ctx, tenantID, *req.CustomerID)
	if err != nil {
		return uuid.Nil, err
	}
	return customer.ID, nil
}

// ConfirmInstallmentPaid marks the cash payment or one installment as paid.
// The debt flips to PAID with its last installment. A conflicting concurrent
// payment is retried once and then surfaced.
func (s *DebtService) ConfirmInstallmentPaid(ctx context.Context, tenantID, debtID uuid.UUID, req ConfirmPaymentRequest) (*DebtResponse, error) {
	target := req.Installment
	ctx, span := telemetry.StartServiceSpan(ctx, "debt", "confirm_installment_paid",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrDebtID, debtID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrInstallment, target.Number),
	)
	defer span.End()

	if !target.Cash && target.Number < 1 {
		err := shared.NewValidationError("installment", `Installment must be a positive number or "cash"`)
		telemetry.RecordError(span, err)
		return nil, err
	}

	var debt *finance.Debt
	err := s.retry.Run(ctx, func(ctx context.Context, attempt int) error {
		now := s.clock()
		return s.uow.Execute(ctx, func(repos appshared.Repositories) error {
			d, err := repos.Debts().FindByIDForTenant(ctx, tenantID, debtID)
			if err != nil {
				return err
			}
			if target.Cash {
				err = d.ConfirmCashPaid(now)
			} else {
				err = d.ConfirmInstallmentPaid(target.Number, now)
			}
			if err != nil {
				return err
			}
			if err := repos.Debts().SaveWithLock(ctx, d); err != nil {
				return err
			}
			debt = d
			return nil
		})
	}, s.notifyRetry(ctx, "confirm_installment_paid"))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.invalidateSummary(ctx, tenantID)
	s.metrics.RecordDebtPayment(ctx, tenantID, string(debt.Mode), debt.IsPaid())
	logger.Enrich(ctx, s.logger).Info("Debt payment confirmed",
		zap.String("debt_id", debt.ID.String()),
		zap.Bool("cash", target.Cash),
		zap.Int("installment", target.Number),
		zap.String("status", string(debt.Status)))

	response := ToDebtResponse(debt, s.clock())
	return &response, nil
}

// Summary aggregates the tenant's outstanding debts at the current time
func (s *DebtService) Summary(ctx context.Context, tenantID uuid.UUID) (*DebtSummaryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "debt", "summary",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
	)
	defer span.End()
	log := logger.Enrich(ctx, s.logger)
	key, cacheable := s.summaryCacheKey(ctx, tenantID, log)

	if cacheable {
		raw, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn("Debt summary cache read failed", zap.Error(err))
		} else if ok {
			var cached DebtSummaryResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				telemetry.AddEvent(span, "summary_cache_hit")
				return &cached, nil
			}
		}
	}

	now := s.clock()
	outstanding, err := s.debtRepo.FindOutstanding(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	summary := finance.Summarize(outstanding, now)

	// Outstanding debts miss the ones already paid this month
	if s.sales != nil {
		from, to := finance.MonthBounds(now)
		monthSales, err := s.sales.DebtSalesBetween(ctx, tenantID, from, to)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		summary.MonthSales = monthSales
	}

	resp := &DebtSummaryResponse{
		TotalToReceive: summary.TotalToReceive,
		TotalOverdue:   summary.TotalOverdue,
		CustomersOwing: summary.CustomersOwing,
		OpenDebts:      summary.OpenDebts,
		MonthSales:     summary.MonthSales,
		GeneratedAt:    now,
	}

	if cacheable {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.summaryTTL); err != nil {
				log.Warn("Debt summary cache write failed", zap.Error(err))
			}
		}
	}
	return resp, nil
}

// GetDebt retrieves a debt with its installments
func (s *DebtService) GetDebt(ctx context.Context, tenantID, debtID uuid.UUID) (*DebtResponse, error) {
	debt, err := s.debtRepo.FindByIDForTenant(ctx, tenantID, debtID)
	if err != nil {
		return nil, err
	}
	response := ToDebtResponse(debt, s.clock())
	return &response, nil
}

// ListDebts retrieves a page of debts
func (s *DebtService) ListDebts(ctx context.Context, tenantID uuid.UUID, filter DebtListFilter) ([]DebtResponse, int64, error) {
	f := filter.Filter()
	if filter.Status != "" {
		f.Filters["status"] = strings.ToUpper(filter.Status)
	}
	if filter.CustomerID != nil {
		f.Filters["customer_id"] = *filter.CustomerID
	}

	debts, total, err := s.debtRepo.FindAllForTenant(ctx, tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	now := s.clock()
	responses := make([]DebtResponse, len(debts))
	for i := range debts {
		responses[i] = ToDebtResponse(&debts[i], now)
	}
	return responses, total, nil
}

// summaryCacheKey names the cached summary for the tenant's current
// generation. A summary computed before a write lands under the old
// generation, which no reader asks for once the write bumps it.
func (s *DebtService) summaryCacheKey(ctx context.Context, tenantID uuid.UUID, log *zap.Logger) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	gen, err := s.cache.Generation(ctx, summaryGenerationKey(tenantID))
	if err != nil {
		log.Warn("Debt summary cache generation read failed", zap.Error(err))
		return "", false
	}
	return fmt.Sprintf("debt-summary:%s:%d", tenantID, gen), true
}

func (s *DebtService) invalidateSummary(ctx context.Context, tenantID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.BumpGeneration(ctx, summaryGenerationKey(tenantID)); err != nil {
		logger.Enrich(ctx, s.logger).Warn("Debt summary cache invalidation failed", zap.Error(err))
	}
}

func (s *DebtService) notifyRetry(ctx context.Context, operation string) appshared.RetryNotify {
	return func(err error, next int, wait time.Duration) {
		s.metrics.RecordConflictRetry(ctx, operation)
		logger.Enrich(ctx, s.logger).Warn("Debt update conflicted, retrying",
			zap.String("operation", operation),
			zap.Int("next_attempt", next),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}
}

func summaryGenerationKey(tenantID uuid.UUID) string {
	return "debt-summary-gen:" + tenantID.String()
}
