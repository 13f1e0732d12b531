package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeInvalid        ErrorCode = "INVALID"
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodeForbidden      ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeUpstream       ErrorCode = "UPSTREAM"
	ErrCodeUpstreamConfig ErrorCode = "UPSTREAM_CONFIG"
	ErrCodeInternal       ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Only Message is meant for clients.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches domain errors by code and message so that sentinel values keep
// working after being wrapped with a cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid is a shorthand for validation failures.
func Invalid(message string) *Error {
	return NewError(ErrCodeInvalid, message)
}

// Common domain errors.
var (
	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrProjectNotFound = NewError(ErrCodeNotFound, "project not found")
	ErrTaskNotFound    = NewError(ErrCodeNotFound, "task not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")

	ErrUsernameTaken      = NewError(ErrCodeConflict, "Username already exists")
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "Invalid credentials")
	ErrTokenMissing       = NewError(ErrCodeUnauthorized, "Authentication required")
	ErrTokenExpired       = NewError(ErrCodeUnauthorized, "Token has expired")
	ErrTokenInvalid       = NewError(ErrCodeUnauthorized, "Invalid token")
	ErrForbidden          = NewError(ErrCodeForbidden, "Insufficient permissions")

	ErrNoData         = NewError(ErrCodeInvalid, "No data provided")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
