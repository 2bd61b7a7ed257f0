package domain

import "fmt"

// Error types for consistent error handling across the BFF.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrBackendRejected is a non-success answer from the budgeting backend.
// Message is what the backend said, kept verbatim for the user.
type ErrBackendRejected struct {
	StatusCode int
	Message    string
}

func (e *ErrBackendRejected) Error() string {
	return e.Message
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrConflict indicates a resource already exists (e.g. duplicate email).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrStepTransition is returned when the wizard refuses to move between steps.
type ErrStepTransition struct {
	From   Step
	To     Step
	Reason string
}

func (e *ErrStepTransition) Error() string {
	return fmt.Sprintf("cannot move from %s to %s: %s", e.From, e.To, e.Reason)
}

// ErrSubmitBlocked is returned when the draft does not pass the submit gate.
type ErrSubmitBlocked struct {
	NetIncome float64
	Allocated float64
}

func (e *ErrSubmitBlocked) Error() string {
	if e.NetIncome <= 0 {
		return "net income must be greater than zero"
	}
	return fmt.Sprintf("allocated %.2f exceeds net income %.2f", e.Allocated, e.NetIncome)
}

// ErrSubmitInFlight is returned when a submission is already outstanding.
type ErrSubmitInFlight struct{}

func (e *ErrSubmitInFlight) Error() string {
	return "a submission is already in progress"
}
