package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryReactive  Category = "reactive"
	CategoryReconcile Category = "reconcile"
	CategoryProtocol  Category = "protocol"
	CategoryStorage   Category = "storage"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// ReactorError is a structured error with an explanation and a hint.
type ReactorError struct {
	// Code is a unique error identifier (e.g., "R001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Hint suggests how to fix the error.
	Hint string

	// Subject names what the error is about, such as a watcher label, a file
	// or a log name.
	Subject string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ReactorError) Error() string {
	msg := e.Message
	if e.Subject != "" {
		msg = e.Subject + ": " + msg
	}
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		if msg == "" {
			return e.Wrapped.Error()
		}
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ReactorError) Unwrap() error {
	return e.Wrapped
}

// WithSubject sets what the error is about.
func (e *ReactorError) WithSubject(s string) *ReactorError {
	e.Subject = s
	return e
}

// WithHint replaces the registered hint.
func (e *ReactorError) WithHint(h string) *ReactorError {
	e.Hint = h
	return e
}

// WithDetail replaces the registered explanation.
func (e *ReactorError) WithDetail(d string) *ReactorError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *ReactorError) Wrap(err error) *ReactorError {
	e.Wrapped = err
	return e
}

// New creates a ReactorError from a registered error code.
func New(code string) *ReactorError {
	template, ok := GetTemplate(code)
	if !ok {
		return &ReactorError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ReactorError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		Hint:     template.Hint,
	}
}

// Newf creates a new ReactorError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ReactorError {
	return &ReactorError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a ReactorError with the given code.
// A ReactorError is returned as is.
func FromError(err error, code string) *ReactorError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*ReactorError); ok {
		return re
	}
	return New(code).Wrap(err)
}
