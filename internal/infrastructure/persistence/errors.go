package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/retailcore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes the repositories react to
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// Constraint names created by the migrations
const (
	constraintCustomerPhone     = "idx_customers_tenant_phone"
	constraintActiveCashSession = "idx_cash_sessions_one_active"
)

// translateError maps driver errors to domain errors at the repository
// boundary. notFound is returned for gorm.ErrRecordNotFound.
func translateError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return shared.ErrTransactionConflict.
				WithDetail("sqlstate", pgErr.Code).
				WithCause(err)
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case constraintCustomerPhone:
				return shared.ErrTransactionConflict.
					WithDetail("constraint", pgErr.ConstraintName).
					WithCause(err)
			case constraintActiveCashSession:
				return shared.ErrSessionAlreadyOpen.WithCause(err)
			}
			return shared.ErrInvalidState.
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		}
	}
	return shared.ErrStorageFailure.WithCause(fmt.Errorf("database: %w", err))
}

// versionConflict is returned when a version-guarded update matched no row
func versionConflict(entity string, id fmt.Stringer, version int) error {
	return shared.ErrTransactionConflict.
		WithDetail("entity", entity).
		WithDetail("id", id.String()).
		WithDetail("expected_version", version-1)
}
