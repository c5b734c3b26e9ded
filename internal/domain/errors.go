// Package domain holds the entities, state machines and error taxonomy
// shared by services, storage and the HTTP layer.
package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an application error. The string value doubles as the
// machine-readable code returned to API clients.
type Kind string

const (
	KindValidation      Kind = "ValidationError"
	KindNotFound        Kind = "NotFoundError"
	KindConflict        Kind = "ConflictError"
	KindAuthentication  Kind = "AuthenticationError"
	KindAuthorization   Kind = "AuthorizationError"
	KindExternalService Kind = "ExternalServiceError"
	KindProcessing      Kind = "ProcessingError"
	KindStorage         Kind = "StorageError"
	KindQueue           Kind = "QueueError"
	KindInternal        Kind = "InternalServerError"
)

// Error is an application error with a kind, a human message and optional
// structured details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// WithDetail returns a copy of e carrying an extra detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	cp := *e
	cp.Details = details
	return &cp
}

// Kind sentinels for errors.Is.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrAuthentication  = &Error{Kind: KindAuthentication}
	ErrAuthorization   = &Error{Kind: KindAuthorization}
	ErrExternalService = &Error{Kind: KindExternalService}
	ErrProcessing      = &Error{Kind: KindProcessing}
	ErrStorage         = &Error{Kind: KindStorage}
	ErrQueue           = &Error{Kind: KindQueue}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func NewNotFoundError(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func NewConflictError(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func NewQueueError(format string, args ...any) *Error {
	return newError(KindQueue, format, args...)
}

// NewStorageError wraps a backend failure.
func NewStorageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// NewExternalServiceError wraps a failure from a remote provider.
func NewExternalServiceError(service string, err error) *Error {
	return &Error{
		Kind:    KindExternalService,
		Message: service + " request failed",
		Details: map[string]any{"service": service},
		Err:     err,
	}
}

// NewProcessingError wraps an unexpected failure inside a service operation.
func NewProcessingError(op string, err error) *Error {
	return &Error{Kind: KindProcessing, Message: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Passthrough reports whether a service should return err unchanged rather
// than wrapping it as a processing error.
func Passthrough(err error) bool {
	switch KindOf(err) {
	case KindNotFound, KindValidation, KindConflict:
		return true
	}
	return false
}

// WrapService returns err unchanged when it is a client-facing kind and
// wraps everything else as a ProcessingError.
func WrapService(op string, err error) error {
	if err == nil {
		return nil
	}
	if Passthrough(err) {
		return err
	}
	return NewProcessingError(op, err)
}
