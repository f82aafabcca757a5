/**
 * @description
 * This file defines the error taxonomy shared by the wizard, the platform
 * client, and the HTTP layer. Every remote-call failure is wrapped into one
 * of these kinds at the call site; nothing here is fatal to the process.
 *
 * @notes
 * - Message carries the human-readable text shown to the user. When the
 *   platform returns a structured error payload its message is used,
 *   otherwise a generic fallback.
 */
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for retry and presentation decisions.
type ErrorKind string

const (
	// ErrInput: local validation failed before any network call.
	ErrInput ErrorKind = "input"
	// ErrUpload: the file could not be stored remotely.
	ErrUpload ErrorKind = "upload"
	// ErrProviderRejected: the verification provider declined the account
	// or document (e.g. account not resolvable).
	ErrProviderRejected ErrorKind = "provider_rejected"
	// ErrValidation: the platform rejected the payload server-side.
	ErrValidation ErrorKind = "validation"
	// ErrNetwork: transient transport failure; retry-eligible.
	ErrNetwork ErrorKind = "network"
	// ErrConflict: an operation raced with an in-flight one and was refused.
	ErrConflict ErrorKind = "conflict"
	// ErrNotFound: the referenced session or entity does not exist.
	ErrNotFound ErrorKind = "not_found"
)

// Error is a classified, user-presentable failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error with a presentable message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError attaches a cause to a classified error.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, defaulting to ErrNetwork for
// unclassified failures so they stay retry-eligible.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrNetwork
}

// MessageOf extracts the presentable message from err, falling back to a
// generic one for unclassified failures.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return "Something went wrong. Please try again."
}
