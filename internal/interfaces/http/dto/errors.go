package dto

import (
	"net/http"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Codes produced by the HTTP layer itself. Domain codes come from domain/shared.
const (
	ErrCodeValidation      = shared.CodeValidation
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Input errors -> 400 Bad Request
	shared.CodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,

	// Missing resources -> 404 Not Found
	shared.CodeNotFound:        http.StatusNotFound,
	shared.CodeProductNotFound: http.StatusNotFound,
	shared.CodeSessionNotFound: http.StatusNotFound,

	// Conflicting state -> 409 Conflict
	shared.CodeCustomerConflict:         http.StatusConflict,
	shared.CodeSessionAlreadyOpen:       http.StatusConflict,
	shared.CodeInvalidSessionTransition: http.StatusConflict,
	shared.CodeTransactionConflict:      http.StatusConflict,
	shared.CodeInvalidState:             http.StatusConflict,
	shared.CodeDuplicateRequest:         http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	shared.CodeInsufficientStock: http.StatusUnprocessableEntity,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Retryable after contention -> 503 Service Unavailable
	shared.CodeOrderCreationFailed: http.StatusServiceUnavailable,
	ErrCodeUnavailable:             http.StatusServiceUnavailable,

	// Everything else -> 500
	shared.CodeStorageFailure: http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
