package domain

import (
	"errors"
	"fmt"
)

// ErrStaleResponse is returned when a response arrives after the owning session
// was disposed. The response has been discarded and callers should ignore it.
var ErrStaleResponse = errors.New("stale response discarded")

// ErrSubmitInFlight is returned when a turn is submitted while another one is pending.
var ErrSubmitInFlight = errors.New("a submission is already in flight")

// ErrInvalidTransition is returned when an operation is not allowed in the current phase.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrInvalidResponse is returned when the evaluator answers with a payload that
// breaks the exchange contract (e.g. critical items that were not missed).
var ErrInvalidResponse = errors.New("invalid evaluator response")

// ErrDeviceNotFound is returned by a device store that holds no identifier yet.
var ErrDeviceNotFound = errors.New("device id not found")

// ValidationError is raised before any network exchange when an input or a
// required route parameter is unusable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError reports a failed exchange with the evaluator.
// Status is zero for network failures and contract violations.
type TransportError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: API error %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TransitionError wraps ErrInvalidTransition with the rejected operation and phase.
type TransitionError struct {
	Op    string
	Phase Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not allowed while %s: %v", e.Op, e.Phase, ErrInvalidTransition)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}
