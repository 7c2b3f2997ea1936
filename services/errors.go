package services

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the stores and services. Repositories translate
// driver-level errors (mongo.ErrNoDocuments, duplicate key) into these so the
// services never see driver types.
var (
	// ErrNotFound means the referenced referrer/earning/payout does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate means a unique index rejected an insert.
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidTransition means the payout request is already in a state the
	// requested transition is not allowed from.
	ErrInvalidTransition = errors.New("invalid payout status transition")
)

// ValidationError reports a malformed request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientFundsError is returned when a payout request exceeds the
// referrer's currently eligible total. Eligible is included so the client can
// show what is actually requestable.
type InsufficientFundsError struct {
	Requested float64
	Eligible  float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient eligible funds: requested %.2f, eligible %.2f",
		e.Requested, e.Eligible)
}
