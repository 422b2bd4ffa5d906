package shared

import (
	"errors"
	"fmt"
)

// Error codes understood by every layer. The HTTP layer maps them to status codes.
const (
	CodeValidation               = "VALIDATION_ERROR"
	CodeNotFound                 = "NOT_FOUND"
	CodeProductNotFound          = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock        = "INSUFFICIENT_STOCK"
	CodeCustomerConflict         = "CUSTOMER_CONFLICT"
	CodeSessionAlreadyOpen       = "SESSION_ALREADY_OPEN"
	CodeSessionNotFound          = "SESSION_NOT_FOUND"
	CodeInvalidSessionTransition = "INVALID_SESSION_TRANSITION"
	CodeTransactionConflict      = "TRANSACTION_CONFLICT"
	CodeOrderCreationFailed      = "ORDER_CREATION_FAILED"
	CodeStorageFailure           = "STORAGE_FAILURE"
	CodeInvalidState             = "INVALID_STATE"
	CodeDuplicateRequest         = "DUPLICATE_REQUEST"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
	cause     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets callers write errors.Is(err, shared.ErrTransactionConflict).
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of the error carrying an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// WithCause returns a copy of the error wrapping cause
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.cause = cause
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a domain error the caller may resubmit
func NewRetryableError(code, message string) *DomainError {
	return &DomainError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// Common domain errors
var (
	ErrNotFound                 = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation               = NewDomainError(CodeValidation, "Invalid input provided")
	ErrProductNotFound          = NewDomainError(CodeProductNotFound, "Product not found")
	ErrInsufficientStock        = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrCustomerConflict         = NewDomainError(CodeCustomerConflict, "Contact does not match customer")
	ErrSessionAlreadyOpen       = NewDomainError(CodeSessionAlreadyOpen, "A cash session is already open")
	ErrSessionNotFound          = NewDomainError(CodeSessionNotFound, "Cash session not found")
	ErrInvalidSessionTransition = NewDomainError(CodeInvalidSessionTransition, "Cash session transition not allowed")
	ErrTransactionConflict      = NewRetryableError(CodeTransactionConflict, "Resource was modified by another transaction")
	ErrOrderCreationFailed      = NewRetryableError(CodeOrderCreationFailed, "Order could not be created, please retry")
	ErrStorageFailure           = NewDomainError(CodeStorageFailure, "Storage is unavailable")
	ErrInvalidState             = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrDuplicateRequest         = NewDomainError(CodeDuplicateRequest, "Request was already submitted")
)

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *DomainError {
	return NewDomainError(CodeValidation, message).WithDetail("field", field)
}

// NewInsufficientStockError names the product and how many units are missing
func NewInsufficientStockError(productID, productName string, requested, available int) *DomainError {
	return &DomainError{
		Code:    CodeInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", productName, requested, available),
		Details: map[string]any{
			"product_id":   productID,
			"product_name": productName,
			"requested":    requested,
			"available":    available,
			"shortfall":    requested - available,
		},
	}
}

// IsRetryable reports whether err is a domain error flagged as retryable
func IsRetryable(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// IsConflict reports whether err is a write conflict detected at commit time
func IsConflict(err error) bool {
	return errors.Is(err, ErrTransactionConflict)
}
