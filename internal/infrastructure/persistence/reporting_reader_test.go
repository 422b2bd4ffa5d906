package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportingReader_DebtSalesBetween(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reader := NewReportingReader(db)
	tenantID := uuid.New()
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	t.Run("sums the window", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(total_sale), 0) AS total FROM debts WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3")).
			WithArgs(tenantID, from, to).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("345.50"))

		total, err := reader.DebtSalesBetween(context.Background(), tenantID, from, to)

		require.NoError(t, err)
		assert.Equal(t, "345.50", total.StringFixed(2))
	})

	t.Run("database failure", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE").WillReturnError(errors.New("connection reset"))

		_, err := reader.DebtSalesBetween(context.Background(), tenantID, from, to)

		assert.ErrorIs(t, err, shared.ErrStorageFailure)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
