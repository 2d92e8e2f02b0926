// Package apperr holds the error taxonomy shared by the order and payment
// workflows and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a user-correctable input problem detected before any side effect.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%d invalid fields)", e.Message, len(e.Fields))
}

func Validation(msg string, fields ...FieldError) *ValidationError {
	return &ValidationError{Message: msg, Fields: fields}
}

// AuthError is a missing or rejected credential (Forbidden=false) or a
// caller lacking the required role (Forbidden=true).
type AuthError struct {
	Message   string
	Forbidden bool
}

func (e *AuthError) Error() string { return e.Message }

// NotFoundError reports an absent product or order.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// GatewayError wraps a failed or unusable call to an external payment or courier API.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return "gateway: " + e.Op
	}
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func Gateway(op string, err error) *GatewayError {
	return &GatewayError{Op: op, Err: err}
}

// SignatureError is a webhook payload whose authenticity check failed.
type SignatureError struct {
	OrderID string
}

func (e *SignatureError) Error() string {
	return "invalid notification signature for order " + e.OrderID
}

// HTTPStatus maps an error from the taxonomy onto a response code.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		auth       *AuthError
		notFound   *NotFoundError
		signature  *SignatureError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &auth):
		if auth.Forbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case errors.As(err, &signature):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
