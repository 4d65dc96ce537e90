package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected command.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation_error"
	KindUnknownRun        ErrorKind = "unknown_run"
	KindUnknownTrace      ErrorKind = "unknown_trace"
	KindUnknownApproval   ErrorKind = "unknown_approval"
	KindPolicyDenied      ErrorKind = "policy_denied"
	KindInvalidState      ErrorKind = "invalid_state"
	KindInvalidCommand    ErrorKind = "invalid_command"
	KindCommandNotAllowed ErrorKind = "command_not_allowed"
	KindPathTraversal     ErrorKind = "path_traversal"
)

// Error is the structured reason every rejected command returns.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches errors of the same kind, so callers can compare against a
// bare kind sentinel: errors.Is(err, &Error{Kind: KindUnknownRun}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Message == "" && other.Kind == e.Kind
}

// Errf builds a structured command error.
func Errf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, or empty for non-command errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
