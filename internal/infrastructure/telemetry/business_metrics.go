package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics tracks order, debt and cash-session activity.
// A nil *BusinessMetrics is valid and records nothing.
type BusinessMetrics struct {
	ordersCreated    *Counter
	orderAmountCents *Counter
	ordersRejected   *Counter
	conflictRetries  *Counter
	debtPayments     *Counter
	sessionsClosed   *Counter
	cashVariance     *Histogram
}

// NewBusinessMetrics registers the business instruments on meter.
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{}
	var err error

	if bm.ordersCreated, err = NewCounter(meter, "retail_order_created_total", "Orders committed", "{orders}"); err != nil {
		return nil, err
	}
	if bm.orderAmountCents, err = NewCounter(meter, "retail_order_amount_total", "Committed order amount in cents", "{cents}"); err != nil {
		return nil, err
	}
	if bm.ordersRejected, err = NewCounter(meter, "retail_order_rejected_total", "Orders rejected by business rules or conflicts", "{orders}"); err != nil {
		return nil, err
	}
	if bm.conflictRetries, err = NewCounter(meter, "retail_conflict_retry_total", "Transactions retried after a write conflict", "{retries}"); err != nil {
		return nil, err
	}
	if bm.debtPayments, err = NewCounter(meter, "retail_debt_payment_total", "Debt payment confirmations", "{payments}"); err != nil {
		return nil, err
	}
	if bm.sessionsClosed, err = NewCounter(meter, "retail_cash_session_closed_total", "Cash sessions finalized", "{sessions}"); err != nil {
		return nil, err
	}
	if bm.cashVariance, err = NewHistogram(meter, "retail_cash_session_variance", "Counted minus expected cash at close", "{currency}",
		-100, -20, -5, -1, 0, 1, 5, 20, 100); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordOrderCreated counts a committed order and its amount.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, tenantID uuid.UUID, origin, paymentMethod string, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrOrigin.String(origin),
		AttrPaymentMethod.String(paymentMethod),
	}
	bm.ordersCreated.Inc(ctx, attrs...)
	bm.orderAmountCents.Add(ctx, amount.Shift(2).IntPart(), attrs...)
}

// RecordOrderRejected counts a failed order creation by error code.
func (bm *BusinessMetrics) RecordOrderRejected(ctx context.Context, tenantID uuid.UUID, code string) {
	if bm == nil {
		return
	}
	bm.ordersRejected.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrOutcome.String(code))
}

// RecordConflictRetry counts a retried transaction for operation.
func (bm *BusinessMetrics) RecordConflictRetry(ctx context.Context, operation string) {
	if bm == nil {
		return
	}
	bm.conflictRetries.Inc(ctx, attribute.String("operation", operation))
}

// RecordDebtPayment counts a confirmed installment or cash payment.
func (bm *BusinessMetrics) RecordDebtPayment(ctx context.Context, tenantID uuid.UUID, mode string, settled bool) {
	if bm == nil {
		return
	}
	outcome := "partial"
	if settled {
		outcome = "settled"
	}
	bm.debtPayments.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDebtMode.String(mode),
		AttrOutcome.String(outcome),
	)
}

// RecordSessionClosed counts a finalized session and records its cash variance.
func (bm *BusinessMetrics) RecordSessionClosed(ctx context.Context, tenantID uuid.UUID, difference decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.sessionsClosed.Inc(ctx, AttrTenantID.String(tenantID.String()))
	bm.cashVariance.Record(ctx, difference.InexactFloat64(), AttrTenantID.String(tenantID.String()))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
