// internal/apperrors/errors.go
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type ErrorType string

const (
	TypeValidation        ErrorType = "validation"
	TypeNotFound          ErrorType = "not_found"
	TypeTimeout           ErrorType = "timeout"
	TypeUpstream          ErrorType = "upstream"
	TypeRateLimited       ErrorType = "rate_limited"
	TypePaymentRequired   ErrorType = "payment_required"
	TypeMalformedResponse ErrorType = "malformed_response"
	TypeConflict          ErrorType = "conflict"
	TypeUnauthorized      ErrorType = "unauthorized"
	TypeForbidden         ErrorType = "forbidden"
	TypeServerSlow        ErrorType = "server_slow"
	TypeInternal          ErrorType = "internal"
)

// AppError carries a type for status mapping and an i18n key for the
// user-facing message. Err keeps the transport error for logs only.
type AppError struct {
	Type    ErrorType
	Key     string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(errType ErrorType, key, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Key:     key,
		Message: message,
		Err:     err,
	}
}

func Validation(key, message string) *AppError {
	return New(TypeValidation, key, message, nil)
}

func NotFound(key, message string, err error) *AppError {
	return New(TypeNotFound, key, message, err)
}

func Timeout(key, message string, err error) *AppError {
	return New(TypeTimeout, key, message, err)
}

func Upstream(key, message string, err error) *AppError {
	return New(TypeUpstream, key, message, err)
}

func Malformed(key, message string, err error) *AppError {
	return New(TypeMalformedResponse, key, message, err)
}

func Conflict(key, message string) *AppError {
	return New(TypeConflict, key, message, nil)
}

func Internal(message string, err error) *AppError {
	return New(TypeInternal, "error.internal", message, err)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func TypeOf(err error) ErrorType {
	if appErr, ok := As(err); ok {
		return appErr.Type
	}
	return TypeInternal
}

func Is(err error, errType ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == errType
}

func IsNotFound(err error) bool {
	return Is(err, TypeNotFound)
}

func IsTimeout(err error) bool {
	return Is(err, TypeTimeout)
}

// IsDeadline reports whether err came from an expired context or a network
// timeout, as opposed to a cancellation or a remote failure.
func IsDeadline(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
