// Package errors carries typed, context-rich errors across the HTTP boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Type string

const (
	TypeValidation Type = "validation"
	TypeNotFound   Type = "not_found"
	TypeInternal   Type = "internal"
	TypeExternal   Type = "external"
)

// Error is rendered to clients as ErrorResponse; Cause is logged, never sent.
type Error struct {
	Type    Type
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: map[string]any{}}
}

func Validation(message string) *Error {
	return newError(TypeValidation, message, nil)
}

func NotFound(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

func Internal(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

func External(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

// With attaches a context field and returns e for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    Type           `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Type: e.Type, Context: e.Context}
}

// From returns err as an *Error, wrapping anything unstructured as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	return Internal("internal server error", err)
}

// FromStatus maps a bare HTTP status code back onto an error type.
func FromStatus(code int, message string) *Error {
	switch {
	case code == http.StatusNotFound:
		return NotFound(message)
	case code == http.StatusBadGateway || code == http.StatusServiceUnavailable:
		return External(message, nil)
	case code >= 400 && code < 500:
		return Validation(message)
	default:
		return Internal(message, nil)
	}
}
