package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_FileOutputAndExtraCore(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := New(Config{Level: "info", Format: "json", Output: path}, core)
	require.NoError(t, err)
	l.Info("session opened", zap.String("session_id", "s1"))
	l.Debug("dropped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "session opened", logs.All()[0].Message)
}

func TestNew_UnwritableFile(t *testing.T) {
	_, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestEnrich_AddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tp := trace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTenantID(ctx, "tenant-1")
	ctx = WithContext(ctx, zap.New(core))

	L(ctx).Info("hello")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "tenant-1", fields["tenant_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)), Recovery(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/conflict", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	for _, p := range []string{"/ok", "/conflict", "/panic"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
	}

	levels := map[string]zapcore.Level{}
	for _, e := range logs.FilterMessage("HTTP Request").All() {
		levels[e.ContextMap()["path"].(string)] = e.Level
	}
	assert.Equal(t, zapcore.InfoLevel, levels["/ok"])
	assert.Equal(t, zapcore.WarnLevel, levels["/conflict"])
	assert.Equal(t, zapcore.ErrorLevel, levels["/panic"])
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))
	ctx := WithRequestID(context.Background(), "req-9")

	gl.Trace(ctx, time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, nil)
	gl.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 2", 0 }, gormlogger.ErrRecordNotFound)
	gl.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 3", 1 }, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "req-9", entry.ContextMap()["request_id"])
	assert.Equal(t, "SELECT", entry.ContextMap()["statement"])
	assert.Equal(t, "system", entry.ContextMap()["scope"])
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel(" ERROR "))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("bogus"))
}

func TestGormLogger_TenantStatements(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Hour))
	ctx := WithTenantID(context.Background(), "tenant-7")

	gl.Trace(ctx, time.Now(), func() (string, int64) {
		return `UPDATE "products" SET "stock_quantity"=4,"version"=3 WHERE id = 'p' AND version = 2`, 0
	}, nil)
	gl.Trace(ctx, time.Now(), func() (string, int64) {
		return `UPDATE "products" SET "stock_quantity"=4,"version"=3 WHERE id = 'p' AND version = 2`, 1
	}, nil)
	gl.Trace(ctx, time.Now(), func() (string, int64) { return `INSERT INTO "stock_movements"`, 0 }, assert.AnError)

	require.Equal(t, 2, logs.Len())
	miss := logs.All()[0]
	assert.Equal(t, "Version guard matched no row", miss.Message)
	assert.Equal(t, "tenant-7", miss.ContextMap()["tenant_id"])
	assert.NotContains(t, miss.ContextMap(), "scope")

	failed := logs.All()[1]
	assert.Equal(t, zapcore.ErrorLevel, failed.Level)
	assert.Equal(t, "INSERT", failed.ContextMap()["statement"])
	assert.Equal(t, "tenant-7", failed.ContextMap()["tenant_id"])
}
