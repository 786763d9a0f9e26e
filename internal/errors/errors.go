package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field problem found in a request.
type ValidationError struct {
	Fields []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// HasField reports whether the given field has at least one error.
func (e ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// Conflict reasons
const (
	ReasonInsufficientSeats = "insufficient_seats"
	ReasonAlreadyCancelled  = "already_cancelled"
	ReasonAlreadyRefunded   = "already_refunded"
	ReasonPackageInUse      = "package_in_use"
)

// ConflictError is a business-rule rejection with a user-visible message.
type ConflictError struct {
	Reason string
	Msg    string
	Err    error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Reason != "":
		return strings.ReplaceAll(e.Reason, "_", " ")
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// PersistenceError wraps an unexpected storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("persistence error: %v", e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target ValidationError
	return stderrors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return stderrors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return stderrors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target PersistenceError
	return stderrors.As(err, &target)
}

// AsValidation extracts the ValidationError from err.
func AsValidation(err error) (ValidationError, bool) {
	var target ValidationError
	ok := stderrors.As(err, &target)
	return target, ok
}

// AsConflict extracts the ConflictError from err.
func AsConflict(err error) (ConflictError, bool) {
	var target ConflictError
	ok := stderrors.As(err, &target)
	return target, ok
}
