// Package dErrors provides coded domain errors for the registry core.
//
// Stores and infrastructure return sentinel errors (pkg/platform/sentinel);
// services translate those into coded errors here so transports can map them
// onto the wire status taxonomy without inspecting error strings.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	CodeInvalidInput       Code = "invalid_input"
	CodeInvalidPattern     Code = "invalid_pattern"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
)

// Wire status values returned alongside responses. OK is the zero status for
// successful operations; errors map onto the negative range.
const (
	StatusOK             = 0
	StatusInvalidInput   = -1
	StatusInvalidPattern = -2
)

// Error is a domain error with a classification code and an optional Key
// naming the first offending input field.
type Error struct {
	Code    Code
	Key     string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s (key=%s)", e.Code, e.Message, e.Key)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// NewWithKey constructs a domain error that identifies the failing field.
func NewWithKey(code Code, key, message string) error {
	return &Error{Code: code, Key: key, Message: message}
}

// Wrap annotates err with a code and message while preserving the cause chain.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (anywhere in its chain) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readable alias for HasCode at call sites that test a single code.
func Is(err error, code Code) bool { return HasCode(err, code) }

// Key returns the failing field name carried by err, or "".
func Key(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Key
	}
	return ""
}

// Status maps err onto the wire status taxonomy. A nil error is StatusOK;
// unclassified errors fall back to StatusInvalidInput so callers never leak a
// zero status for a failed operation.
func Status(err error) int {
	if err == nil {
		return StatusOK
	}
	var de *Error
	if errors.As(err, &de) && de.Code == CodeInvalidPattern {
		return StatusInvalidPattern
	}
	return StatusInvalidInput
}
