package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// PermissionError denies an operation to the calling user.
type PermissionError struct {
	message string
}

func NewPermissionError(msg string) error {
	return &PermissionError{message: msg}
}

func (err PermissionError) Error() string {
	return err.message
}

// ConflictError rejects an operation whose preconditions are not met yet.
// Required/Current/Missing describe the quorum shortfall so a caller can
// render "waiting on N more members"; Missing holds the user IDs still due.
type ConflictError struct {
	Err      error
	Required int      `json:"required"`
	Current  int      `json:"current"`
	Missing  []string `json:"missing,omitempty"`
}

func NewConflictError(err error, required, current int, missing []string) error {
	return &ConflictError{Err: err, Required: required, Current: current, Missing: missing}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
