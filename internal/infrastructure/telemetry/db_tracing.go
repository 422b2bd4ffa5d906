package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in spans; dev only
	SlowQueryThresh time.Duration
	DBName          string
}

// DefaultDBTracingConfig returns the secure defaults.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "retailcore",
	}
}

type queryStartKey struct{}

// InstrumentGorm installs the otelgorm plugin plus callbacks that flag slow
// statements and version-guarded updates that matched no row.
func InstrumentGorm(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateStatement(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	type hook struct {
		name     string
		register func(name string, fn func(*gorm.DB)) error
		before   func(name string, fn func(*gorm.DB)) error
	}
	hooks := []hook{
		{"create", cb.Create().After("gorm:create").Register, cb.Create().Before("gorm:create").Register},
		{"query", cb.Query().After("gorm:query").Register, cb.Query().Before("gorm:query").Register},
		{"update", cb.Update().After("gorm:update").Register, cb.Update().Before("gorm:update").Register},
		{"delete", cb.Delete().After("gorm:delete").Register, cb.Delete().Before("gorm:delete").Register},
		{"row", cb.Row().After("gorm:row").Register, cb.Row().Before("gorm:row").Register},
		{"raw", cb.Raw().After("gorm:raw").Register, cb.Raw().Before("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("retailcore:before_"+h.name, before); err != nil {
			return err
		}
		if err := h.register("retailcore:after_"+h.name, after); err != nil {
			return err
		}
	}

	// Registered after the timing hooks so the span is still open when
	// annotateStatement runs.
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotateStatement(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}
	if tx.Error == nil && tx.Statement.RowsAffected == 0 && isUpdate(tx.Statement.SQL.String()) {
		span.AddEvent("version_guard_miss")
	}

	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok && slow > 0 {
		if elapsed := time.Since(start); elapsed > slow {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}

func isUpdate(sql string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(sql)), "UPDATE")
}
