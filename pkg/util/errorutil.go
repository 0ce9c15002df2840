package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the CLI and HTTP surfaces.
const (
	CodeValidationFailed             = "VALIDATION_FAILED"
	CodeNotFound                     = "NOT_FOUND"
	CodeConflict                     = "CONFLICT"
	CodeUnauthorized                 = "UNAUTHORIZED"
	CodeForbidden                    = "FORBIDDEN"
	CodeAuthenticationRequired       = "AUTHENTICATION_REQUIRED"
	CodeAuthenticationFailed         = "AUTHENTICATION_FAILED"
	CodeUnknownUser                  = "UNKNOWN_USER"
	CodeInsufficientRole             = "INSUFFICIENT_ROLE"
	CodeCredentialInvalid            = "CREDENTIAL_INVALID"
	CodePermissionModelMisconfigured = "PERMISSION_MODEL_MISCONFIGURED"
	CodeTooManyAttempts              = "TOO_MANY_ATTEMPTS"
	CodeInternal                     = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError carrying the same code, so
// sentinel values match copies that wrap a cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of e wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of e with a replaced message.
func (e *DomainError) WithMessage(message string) *DomainError {
	cp := *e
	cp.Message = message
	return &cp
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewTooManyAttempts(message string) error {
	return NewDomainError(CodeTooManyAttempts, message, http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
