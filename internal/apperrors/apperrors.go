// Package apperrors defines the tagged error taxonomy shared by the service
// layer. Handlers translate kinds to HTTP statuses in exactly one place.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	// Internal is the default for unclassified failures.
	Internal Kind = iota
	// Validation indicates bad input shape or range.
	Validation
	// Unauthenticated indicates a missing or invalid credential.
	Unauthenticated
	// Forbidden indicates a valid identity with insufficient rights.
	Forbidden
	// NotFound indicates an absent entity, or one deliberately
	// indistinguishable from absent (e.g. an expired share token).
	NotFound
	// Conflict indicates a uniqueness or state collision.
	Conflict
)

// Error carries a kind, an optional machine-readable code, and a message
// safe to return to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Coded constructs an error carrying a machine-readable code alongside the
// message, for callers that branch on more than the HTTP status.
func Coded(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap annotates an underlying error with a kind and caller-safe message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// CodeOf extracts the machine-readable code from an error chain, if any.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf returns the caller-safe message for classified errors and a
// generic message for everything else.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
