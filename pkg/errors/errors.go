package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = NewError("NOT_FOUND", "resource not found", http.StatusNotFound)
	ErrValidation    = NewError("VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	ErrNotAcceptable = NewError("NOT_ACCEPTABLE", "request not acceptable", http.StatusNotAcceptable)
	ErrForbidden     = NewError("FORBIDDEN", "forbidden", http.StatusForbidden)
	ErrConflict      = NewError("CONFLICT", "resource conflict", http.StatusConflict)
	ErrInternal      = NewError("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
)

type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Cause   error
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		if detailMsg, ok := e.Details["message"].(string); ok && detailMsg != "" {
			msg = detailMsg
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	err.Details = details
	return &err
}

func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	return e.WithDetail("message", fmt.Sprintf(format, args...))
}

// Wrap attaches appErr's classification to err unless err already carries one.
func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return appErr.WithCause(err)
}

func is(err error, appErr *Error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == appErr.Code
	}
	return false
}

func IsNotFound(err error) bool      { return is(err, ErrNotFound) }
func IsValidation(err error) bool    { return is(err, ErrValidation) }
func IsForbidden(err error) bool     { return is(err, ErrForbidden) }
func IsConflict(err error) bool      { return is(err, ErrConflict) }
func IsNotAcceptable(err error) bool { return is(err, ErrNotAcceptable) }

// IsInternal reports whether err is a backend failure rather than a client
// error. Unclassified errors count as internal.
func IsInternal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrInternal.Code
	}
	return true
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

func ToErrorResponse(err error) map[string]interface{} {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	response := map[string]interface{}{
		"error":      appErr.Message,
		"error_code": appErr.Code,
	}

	if len(appErr.Details) > 0 {
		response["details"] = appErr.Details
	}

	return response
}
