// Package errs defines the error taxonomy shared by the ledger and task
// services. Validation and gate errors are always raised before any write;
// store errors may describe a partially applied sequence and carry enough
// context for the caller to report the inconsistency.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies a rejection reason in machine-readable form
type Code string

const (
	// Validation codes
	CodeInvalidQty    Code = "INVALID_QTY"
	CodeActionEmpty   Code = "ACTION_EMPTY"
	CodeMissingFields Code = "MISSING_FIELDS"

	// Store codes
	CodeConflict     Code = "CONFLICT"
	CodeInconsistent Code = "INCONSISTENT"
)

// ValidationError rejects a request before any mutation happens.
type ValidationError struct {
	Code Code
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Validation builds a ValidationError with a formatted message.
func Validation(code Code, format string, args ...interface{}) error {
	return &ValidationError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NotFound builds a NotFoundError for the given entity kind and id.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// StoreError wraps a failed persistence call. Code is CodeInconsistent
// when an earlier write in the same sequence already succeeded, so the
// stored state no longer matches the ledger.
type StoreError struct {
	Op   string
	Code Code
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("store: %s (%s)", e.Op, e.Code)
	}
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError for operation op.
func Store(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// GateViolation reports a task-done precondition that is not met. No
// writes happen when it is returned.
type GateViolation struct {
	TaskID     string
	EmployeeID string
	Reason     string
}

func (e *GateViolation) Error() string {
	return fmt.Sprintf("task %s not completable by %s: %s", e.TaskID, e.EmployeeID, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// IsGateViolation reports whether err is a GateViolation.
func IsGateViolation(err error) bool {
	var g *GateViolation
	return errors.As(err, &g)
}

// CodeOf extracts the machine-readable code from err, if it carries one.
func CodeOf(err error) (Code, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Code, true
	}
	var s *StoreError
	if errors.As(err, &s) && s.Code != "" {
		return s.Code, true
	}
	return "", false
}
