package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReportingReader runs read-only aggregate queries outside the GORM
// repositories. It never takes part in a unit of work.
type ReportingReader struct {
	db *sqlx.DB
}

// NewReportingReader wraps an existing connection pool
func NewReportingReader(db *sql.DB) *ReportingReader {
	return &ReportingReader{db: sqlx.NewDb(db, "postgres")}
}

const debtSalesQuery = `
SELECT COALESCE(SUM(total_sale), 0) AS total
FROM debts
WHERE tenant_id = ? AND created_at >= ? AND created_at < ?`

// DebtSalesBetween totals the debts created in [from, to), paid or not
func (r *ReportingReader) DebtSalesBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(debtSalesQuery), tenantID, from, to); err != nil {
		return decimal.Zero, shared.ErrStorageFailure.WithCause(err)
	}
	return total, nil
}
