package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/retailcore/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBodyLimitEngine(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), BodyLimit(limit))
	r.POST("/orders", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusBadRequest, "truncated")
			return
		}
		c.String(http.StatusCreated, "ok")
	})
	r.GET("/orders", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestBodyLimit_WithinLimit(t *testing.T) {
	r := newBodyLimitEngine(1024)
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"origin":"POS"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBodyLimit_DeclaredLengthTooLarge(t *testing.T) {
	r := newBodyLimitEngine(64)
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(strings.Repeat("x", 200)))
	req.Header.Set(RequestIDHeader, "req-big")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRequestTooLarge, resp.Error.Code)
	assert.Equal(t, "req-big", resp.Error.RequestID)
}

func TestBodyLimit_StreamedBodyIsCapped(t *testing.T) {
	r := newBodyLimitEngine(50)
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(strings.Repeat("x", 100)))
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "truncated", w.Body.String())
}

func TestBodyLimit_IgnoresBodylessRequests(t *testing.T) {
	r := newBodyLimitEngine(1)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
