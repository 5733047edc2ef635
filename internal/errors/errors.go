package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a funnel error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrUpstreamFailed     ErrorCode = "UPSTREAM_FAILED"     // 502
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE" // 503
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// FunnelError represents a structured error with code, status, and details.
type FunnelError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *FunnelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *FunnelError {
	return &FunnelError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(resource, identifier string) *FunnelError {
	return &FunnelError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewUpstreamFailed creates a 502 error for a failed third-party call.
func NewUpstreamFailed(service string, err error) *FunnelError {
	msg := fmt.Sprintf("%s request failed", service)
	if err != nil {
		msg = fmt.Sprintf("%s request failed: %v", service, err)
	}
	return &FunnelError{
		Code:    ErrUpstreamFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"service": service},
	}
}

// NewServiceUnavailable creates a 503 error for a feature whose upstream
// credentials are absent.
func NewServiceUnavailable(msg string) *FunnelError {
	return &FunnelError{
		Code:    ErrServiceUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *FunnelError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &FunnelError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a FunnelError with the given code, unwrapping as
// needed.
func Is(err error, code ErrorCode) bool {
	var fErr *FunnelError
	if stderrors.As(err, &fErr) {
		return fErr.Code == code
	}
	return false
}
