package telemetry_test

import (
	"context"
	"testing"

	"github.com/retailcore/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestNewZapOTELCore_DisabledIsNop(t *testing.T) {
	core := telemetry.NewZapOTELCore(nil, "retailcore", zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	core = telemetry.NewZapOTELCore(lp, "retailcore", zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_LevelFilter(t *testing.T) {
	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:4317",
		ServiceName:       "retailcore-test",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = lp.Shutdown(ctx)
	})

	core := telemetry.NewZapOTELCore(lp, "retailcore", zapcore.WarnLevel)
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	child := core.With([]zapcore.Field{zap.String("tenant_id", "t1")})
	assert.False(t, child.Enabled(zapcore.DebugLevel))
}
