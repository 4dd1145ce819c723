// Package ragcore implements a retrieval-augmented generation serving
// core: dataset ingestion (load, chunk, embed, upsert), chat serving
// (retrieve, ground, generate), and batch evaluation against a labeled
// question set.
package ragcore

import (
	"errors"
	"fmt"
)

// Kind is a stable, client-visible classification of a service error.
// The HTTP layer maps each Kind to a status code without inspecting
// error strings.
type Kind string

const (
	KindValidation      Kind = "validation"       // 400
	KindNotFound        Kind = "not-found"         // 404
	KindForbidden       Kind = "forbidden"         // 403
	KindUnprocessable   Kind = "unprocessable"     // 422
	KindAuth            Kind = "auth"              // 401
	KindPaymentRequired Kind = "payment-required"  // 402
	KindUpstream        Kind = "upstream"          // 502
	KindInternal        Kind = "internal"          // 500
	KindServiceConfig   Kind = "service-config"     // 500
)

// ServiceError carries a Kind alongside a safe, user-visible message.
// Internal causes are wrapped separately so they never leak into the
// message surfaced to callers.
type ServiceError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ragcore: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("ragcore: %s: %s", e.Kind, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewError builds a ServiceError with the given kind and message.
func NewError(kind Kind, message string) *ServiceError {
	return &ServiceError{Kind: kind, Message: message}
}

// Wrap builds a ServiceError that preserves the original error for
// logging while keeping Message as the only client-visible text.
func Wrap(kind Kind, message string, err error) *ServiceError {
	return &ServiceError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// errors that were not raised as a *ServiceError.
func KindOf(err error) Kind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// SafeMessage returns the client-visible text for err: a ServiceError's
// Message field, which never carries a wrapped cause, a credential, or
// a path outside the upload root. Anything else collapses to a generic
// string so stack traces and driver errors never reach a caller.
func SafeMessage(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Message
	}
	return "internal server error"
}
