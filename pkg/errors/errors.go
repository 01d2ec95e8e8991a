package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
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

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Allocation and cascade errors specific to hostel occupancy flows.
var (
	ErrInvalidStructure  = New("INVALID_STRUCTURAL_DEFINITION", http.StatusBadRequest, "hostel has neither blocks nor a positive room count")
	ErrNoCapacity        = New("NO_CAPACITY_AVAILABLE", http.StatusConflict, "no room with free capacity available")
	ErrSourceUnavailable = New("EXTERNAL_SOURCE_UNAVAILABLE", http.StatusBadGateway, "occupancy data source unavailable")
	ErrCascadeFailed     = New("CASCADE_STEP_FAILED", http.StatusInternalServerError, "cascade step failed")
)

// CascadeStep identifies a sub-step of a delete cascade.
type CascadeStep string

const (
	CascadeStepChallans    CascadeStep = "challans"
	CascadeStepOccupancy   CascadeStep = "occupancy"
	CascadeStepAuditSweep  CascadeStep = "audit_sweep"
	CascadeStepAuditRecord CascadeStep = "audit_record"
)

// CascadeError carries the failed sub-step and subject entity so callers can
// log it and an operator can retry manually. Fatal sub-steps abort the parent
// operation; non-fatal ones are logged and skipped.
type CascadeError struct {
	Step     CascadeStep
	EntityID string
	Fatal    bool
	Err      error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade step %s failed for %s: %v", e.Step, e.EntityID, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

// NewCascadeError builds a CascadeError wrapping the underlying failure.
func NewCascadeError(step CascadeStep, entityID string, fatal bool, err error) *CascadeError {
	return &CascadeError{Step: step, EntityID: entityID, Fatal: fatal, Err: err}
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var ce *CascadeError
	if errors.As(err, &ce) {
		return Wrap(ce, ErrCascadeFailed.Code, ErrCascadeFailed.Status, ce.Error())
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
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
