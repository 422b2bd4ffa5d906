package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func metricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(Tenant(DefaultTenantConfig()))
	router.Use(HTTPMetricsWithMeter(mp.Meter("test"), true))
	router.GET("/api/v1/orders/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/api/v1/orders", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "INSUFFICIENT_STOCK"})
	})
	return router, reader
}

func serve(router *gin.Engine, method, path string, tenantID uuid.UUID) {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(TenantHeaderKey, tenantID.String())
	router.ServeHTTP(httptest.NewRecorder(), req)
}

func TestHTTPMetrics_Disabled(t *testing.T) {
	for name, cfg := range map[string]HTTPMetricsConfig{
		"disabled": {Enabled: false},
		"no meter": {Enabled: true},
	} {
		t.Run(name, func(t *testing.T) {
			router := gin.New()
			router.Use(HTTPMetrics(cfg))
			router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestHTTPMetrics_RequestCounterUsesRoutePattern(t *testing.T) {
	router, reader := metricsRouter(t)
	tenantID := uuid.New()

	serve(router, http.MethodGet, "/api/v1/orders/"+uuid.NewString(), tenantID)
	serve(router, http.MethodGet, "/api/v1/orders/"+uuid.NewString(), tenantID)
	serve(router, http.MethodPost, "/api/v1/orders", tenantID)

	m := findMetricByName(collectMetrics(t, reader), "http_server_request_total")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(attrHTTPRoute)
		status, _ := dp.Attributes.Value(attrHTTPStatus)
		tenant, _ := dp.Attributes.Value(attribute.Key("tenant_id"))
		assert.Equal(t, tenantID.String(), tenant.AsString())
		counts[route.AsString()+" "+status.Emit()] += dp.Value
	}
	assert.Equal(t, int64(2), counts["/api/v1/orders/:id 200"])
	assert.Equal(t, int64(1), counts["/api/v1/orders 422"])
}

func TestHTTPMetrics_DurationAndSize(t *testing.T) {
	router, reader := metricsRouter(t)
	serve(router, http.MethodGet, "/api/v1/orders/abc", uuid.New())

	rm := collectMetrics(t, reader)

	duration := findMetricByName(rm, "http_server_request_duration_seconds")
	require.NotNil(t, duration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	size := findMetricByName(rm, "http_server_response_size_bytes")
	require.NotNil(t, size)
	sizeHist, ok := size.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, sizeHist.DataPoints, 1)
	assert.Greater(t, sizeHist.DataPoints[0].Sum, float64(0))
}

func TestHTTPMetrics_ActiveRequestsReturnToZero(t *testing.T) {
	router, reader := metricsRouter(t)
	serve(router, http.MethodGet, "/api/v1/orders/abc", uuid.New())

	m := findMetricByName(collectMetrics(t, reader), "http_server_active_requests")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestHTTPMetrics_UnmatchedRoute(t *testing.T) {
	router, reader := metricsRouter(t)
	serve(router, http.MethodGet, "/nowhere", uuid.New())

	m := findMetricByName(collectMetrics(t, reader), "http_server_request_total")
	require.NotNil(t, m)
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	route, _ := sum.DataPoints[0].Attributes.Value(attrHTTPRoute)
	assert.Equal(t, "unknown", route.AsString())
}
