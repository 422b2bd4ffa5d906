package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeProductNotFound, http.StatusNotFound},
		{shared.CodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeCustomerConflict, http.StatusConflict},
		{shared.CodeSessionAlreadyOpen, http.StatusConflict},
		{shared.CodeSessionNotFound, http.StatusNotFound},
		{shared.CodeInvalidSessionTransition, http.StatusConflict},
		{shared.CodeTransactionConflict, http.StatusConflict},
		{shared.CodeOrderCreationFailed, http.StatusServiceUnavailable},
		{shared.CodeStorageFailure, http.StatusInternalServerError},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeInvalidState, http.StatusConflict},
		{shared.CodeDuplicateRequest, http.StatusConflict},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		pageSize   int
		totalPages int
	}{
		{"exact pages", 40, 20, 2},
		{"partial last page", 41, 20, 3},
		{"empty", 0, 20, 0},
		{"zero page size", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta([]int{}, tt.total, 1, tt.pageSize)
			require.NotNil(t, resp.Meta)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.totalPages, resp.Meta.TotalPages)
		})
	}
}

func TestErrorEnvelopeJSON(t *testing.T) {
	resp := NewDetailedErrorResponse(shared.CodeInsufficientStock, "Insufficient stock", "req-1",
		map[string]any{"product_id": "p-1", "shortfall": 2})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "INSUFFICIENT_STOCK",
			"message": "Insufficient stock",
			"details": {"product_id": "p-1", "shortfall": 2},
			"request_id": "req-1"
		}
	}`, string(raw))
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
		{Field: "customer.phone", Message: "Invalid phone number"},
	})

	assert.False(t, resp.Success)
	assert.Equal(t, shared.CodeValidation, resp.Error.Code)
	assert.Len(t, resp.Error.Fields, 1)
	assert.Empty(t, resp.Error.RequestID)
}
