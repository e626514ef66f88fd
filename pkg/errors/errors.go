// Package errors provides a single typed error value used across the
// engine, adapted from the host application's own error package: one
// struct with a stable Code, an application Status, a human Message and
// an optional wrapped cause.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is a typed, wrappable engine error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Clone returns a copy of err, optionally overriding its message.
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

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Status codes are application-level, not HTTP status codes: the core
// has no transport of its own, so these are just stable small integers
// a host can map however it likes.
const (
	StatusBadInput    = 400
	StatusConflict    = 409
	StatusNotFound    = 404
	StatusPrecondition = 412
	StatusCancelled   = 499
	StatusTimeout     = 504
	StatusInternal    = 500
)

// Sentinel errors, one per failure kind the core distinguishes.
var (
	// ErrConfig: malformed RuleSnapshot, impossible timeRules, or
	// mutually conflicting fixed-time entries under strict.
	ErrConfig = New("CONFIG_ERROR", StatusBadInput, "invalid scheduling configuration")

	// ErrInfeasibleInput: teaching plan demand exceeds available slots.
	ErrInfeasibleInput = New("INFEASIBLE_INPUT", StatusPrecondition, "teaching plan demand exceeds available capacity")

	// ErrConflictRejection: a manual edit was rejected by the detector.
	ErrConflictRejection = New("CONFLICT_REJECTION", StatusConflict, "candidate placement has unresolved critical conflicts")

	// ErrCancelled: the task was cancelled before completion.
	ErrCancelled = New("CANCELLED", StatusCancelled, "task was cancelled")

	// ErrTimeout: the task's time budget expired before a complete
	// assignment was reached.
	ErrTimeout = New("TIMEOUT", StatusTimeout, "task exceeded its time budget")

	// ErrInternal: a solver/detector invariant was violated.
	ErrInternal = New("INTERNAL_ERROR", StatusInternal, "internal scheduling engine error")

	// ErrValidation: a control-surface request failed input validation.
	ErrValidation = New("VALIDATION_ERROR", StatusBadInput, "request failed validation")

	// ErrNotFound: a requested task/session/schedule id is unknown.
	ErrNotFound = New("NOT_FOUND", StatusNotFound, "resource not found")
)
