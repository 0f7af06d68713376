/*
errors.go - Centralized error kinds for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every failure a caller can see is one of a small set of kinds; each
  structured error unwraps to its sentinel so callers switch on kind
  with errors.Is and read details with errors.As.

ERROR KINDS:
  ValidationError          Malformed or missing input (bad dates, empty reason)
  InsufficientBalanceError A deduction would exceed the available days
  InvalidTransitionError   The request is not in a state that allows the action
  ConflictError            Business-rule clash (replacement unavailable, duplicate)
  NotFoundError            Referenced employee/leave type/request/bucket missing
  ForbiddenError           The actor's role or team does not allow the action

  None of these are fatal. Every operation that returns one leaves
  persisted state unchanged.

USAGE:
  if errors.Is(err, generic.ErrInsufficientBalance) {
      var ib *generic.InsufficientBalanceError
      errors.As(err, &ib)
      fmt.Println(ib.Shortfall)
  }

SEE ALSO:
  - ledger.go: Returns InsufficientBalanceError
  - timeoff/workflow.go: Returns InvalidTransitionError
  - api/handlers.go: Maps kinds to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")

	// ErrConcurrentModification is returned by stores when a conditional
	// update finds the row no longer in the expected state.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a bad or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	EntityID   EntityID
	ResourceID ResourceID
	Available  Amount
	Requested  Amount
	Shortfall  Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %v, requested %v, shortfall %v",
		e.Available.Value, e.Requested.Value, e.Shortfall.Value)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InvalidTransitionError is returned when a (status, action) pair is not allowed.
type InvalidTransitionError struct {
	From   string
	Action string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s a request in status %s", e.Action, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ConflictError reports a business-rule clash with existing data.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }
func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %q not found", e.Kind, e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ForbiddenError reports an actor acting outside their role or team.
type ForbiddenError struct {
	ActorID string
	Action  string
	Reason  string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("actor %s may not %s: %s", e.ActorID, e.Action, e.Reason)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid client input
// or a business rule, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
