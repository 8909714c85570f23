// Package errors carries the API error model: a stable code, a message for
// the caller and the HTTP status it is served with.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeUnavailable        = "UNAVAILABLE"
	CodeUnprocessable      = "UNPROCESSABLE"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
)

// statusByCode is the status each code is served with. Refused station work
// (CodeUnavailable) is a conflict with the current warehouse state.
var statusByCode = map[string]int{
	CodeValidationError:    http.StatusBadRequest,
	CodeBadRequest:         http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeConflict:           http.StatusConflict,
	CodeUnavailable:        http.StatusConflict,
	CodeUnprocessable:      http.StatusUnprocessableEntity,
	CodeInternalError:      http.StatusInternalServerError,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
	CodeTimeout:            http.StatusGatewayTimeout,
}

// AppError is an error ready to be served
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetails replaces the details map
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// Wrap records the cause; it is logged but never served
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError builds an error with an explicit status
func NewAppError(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func withCode(code, message string) *AppError {
	return NewAppError(code, message, statusByCode[code])
}

func ErrValidation(message string) *AppError { return withCode(CodeValidationError, message) }

func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	return ErrValidation(message).WithDetails(fields)
}

func ErrBadRequest(message string) *AppError { return withCode(CodeBadRequest, message) }

func ErrNotFound(resource string) *AppError {
	return withCode(CodeNotFound, resource+" not found")
}

func ErrNotFoundWithID(resource, id string) *AppError {
	return ErrNotFound(resource).WithDetail("id", id)
}

func ErrConflict(message string) *AppError { return withCode(CodeConflict, message) }

// ErrUnavailable reports station work or stock that is not available yet
func ErrUnavailable(message string) *AppError { return withCode(CodeUnavailable, message) }

// ErrUnprocessable rejects well formed input the pipeline cannot act on
func ErrUnprocessable(message string) *AppError { return withCode(CodeUnprocessable, message) }

// ErrInternal hides the cause behind a generic message when message is empty
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return withCode(CodeInternalError, message)
}

func ErrServiceUnavailable(service string) *AppError {
	return withCode(CodeServiceUnavailable, service+" is temporarily unavailable")
}

func ErrTimeout(operation string) *AppError {
	return withCode(CodeTimeout, operation+" timed out")
}

// AsAppError finds an AppError anywhere in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

type mapping struct {
	target error
	build  func(msg string) *AppError
}

var (
	mappingsMu sync.RWMutex
	mappings   []mapping
)

// RegisterDomainError maps a domain sentinel to an AppError constructor.
// Registered sentinels are matched with errors.Is, in registration order.
func RegisterDomainError(target error, build func(msg string) *AppError) {
	mappingsMu.Lock()
	defer mappingsMu.Unlock()
	mappings = append(mappings, mapping{target: target, build: build})
}

func registered(err error) (func(string) *AppError, bool) {
	mappingsMu.RLock()
	defer mappingsMu.RUnlock()
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.build, true
		}
	}
	return nil, false
}

// MapDomainError converts any error into an AppError. Errors already in the
// chain win, then registered sentinels, then a match on the message text.
// Unknown errors become internal errors.
func MapDomainError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	msg := err.Error()
	if build, ok := registered(err); ok {
		return build(msg).Wrap(err)
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not found"):
		return ErrNotFound("resource").Wrap(err)
	case strings.Contains(lower, "already exists"):
		return ErrConflict(msg).Wrap(err)
	case strings.Contains(lower, "invalid"), strings.Contains(lower, "required"):
		return ErrValidation(msg).Wrap(err)
	case strings.Contains(lower, "timeout"):
		return ErrTimeout("operation").Wrap(err)
	}
	return ErrInternal("").Wrap(err)
}
