// Package errors defines the API error type. Every error that reaches a
// handler is rendered from an *Error: Code is the stable machine value,
// Status the HTTP status and Message the human text.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed API error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error with the same Code, so errors.Is(err, ErrNotFound)
// holds for clones and wrapped copies of the sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if e == nil || !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
}

// With returns a copy of e carrying cause and, when non-empty, message.
func (e *Error) With(cause error, message string) *Error {
	out := Clone(e, message)
	if out != nil {
		out.Err = cause
	}
	return out
}

// New creates an Error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap builds an Error around err with an explicit code and status.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Request and auth failures.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrPayloadTooLarge    = New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "payload too large")
	ErrUnsupportedMedia   = New("UNSUPPORTED_MEDIA", http.StatusUnsupportedMediaType, "unsupported media type")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// Backup documents.
var ErrBackupVersion = New("UNSUPPORTED_BACKUP_VERSION", http.StatusUnprocessableEntity, "unsupported backup version")

// Model calls made with the caller's key.
var (
	ErrMissingAPIKey     = New("MISSING_API_KEY", http.StatusBadRequest, "a Gemini API key is required for AI features")
	ErrAIUnavailable     = New("AI_UNAVAILABLE", http.StatusBadGateway, "AI provider request failed")
	ErrAIInvalidResponse = New("AI_RESPONSE_INVALID", http.StatusBadGateway, "AI provider returned an unusable response")
)

// ErrCacheMiss is returned by cache repositories when a key is absent. It is
// internal and never rendered.
var ErrCacheMiss = errors.New("cache miss")

// FromError returns the *Error inside err, or an INTERNAL_ERROR wrapping it.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.With(err, "")
}

// Clone copies err, replacing Message when message is non-empty.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
