// Package service contains the reservation core: request validation,
// the idempotency guard, the atomic check-lock-insert transaction and
// the post-commit notifier hook.
package service

import (
	"errors"
	"fmt"

	"github.com/ticketry/ticket-platform/internal/model"
)

// Kind classifies reservation failures.  The values double as the
// errorKind strings in HTTP responses.
type Kind string

const (
	// KindInvalidInput marks malformed or missing request fields.
	// Detected before any storage access; the client must fix the
	// request, retrying as-is will never succeed.
	KindInvalidInput Kind = "InvalidInput"
	// KindDuplicateTransaction marks a payment transaction identifier
	// that is already registered.  Clients should treat the original
	// reservation as succeeded.
	KindDuplicateTransaction Kind = "DuplicateTransaction"
	// KindInsufficientCapacity marks business-rule stock exhaustion.
	// Terminal for the request; the caller must reduce the quantity or
	// pick another tier.
	KindInsufficientCapacity Kind = "InsufficientCapacity"
	// KindEventNotFound marks a missing event row.  An operator
	// problem, not something the purchaser can fix.
	KindEventNotFound Kind = "EventNotFound"
	// KindPersistenceError marks transient storage failures, including
	// lock wait timeouts.  The transaction rolled back, so the whole
	// operation is safe to retry.
	KindPersistenceError Kind = "PersistenceError"
)

// CapacityDetails carries the observed stock numbers returned with an
// InsufficientCapacity failure for client display.
type CapacityDetails struct {
	Tier      model.Tier `json:"tier"`
	Requested uint32     `json:"requested"`
	Available int64      `json:"available"`
	Total     uint32     `json:"total"`
	Sold      uint32     `json:"sold"`
}

// Error is the typed failure returned by the reservation path.
type Error struct {
	Kind     Kind
	Message  string
	Capacity *CapacityDetails
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// AsError unwraps err into a *Error when possible.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func invalidInput(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func duplicateTransaction(transactionID string) *Error {
	return &Error{
		Kind:    KindDuplicateTransaction,
		Message: fmt.Sprintf("transaction %s is already registered", transactionID),
	}
}

func insufficientCapacity(requested uint32, av model.Availability) *Error {
	return &Error{
		Kind:    KindInsufficientCapacity,
		Message: fmt.Sprintf("%d seats requested, %d available", requested, av.Available),
		Capacity: &CapacityDetails{
			Tier:      av.Tier,
			Requested: requested,
			Available: av.Available,
			Total:     av.Total,
			Sold:      av.Sold,
		},
	}
}

func eventNotFound(eventID uint64) *Error {
	return &Error{Kind: KindEventNotFound, Message: fmt.Sprintf("event %d does not exist", eventID)}
}

func persistence(msg string, cause error) *Error {
	return &Error{Kind: KindPersistenceError, Message: msg, cause: cause}
}
