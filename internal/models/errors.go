package models

import (
	"errors"
	"fmt"
)

// Domain errors surfaced to callers. Precondition failures are detected
// before any write and never retried; transient persistence conflicts are
// retried inside the store/service and never reach the caller unless
// exhausted.
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventNotActive   = errors.New("event is not active")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidMethod    = errors.New("unsupported payment method")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrCodeSpaceExhausted means the generate-check loop hit its retry
	// ceiling. With 62^11 ticket codes this is effectively impossible; the
	// ceiling exists to distinguish "astronomically unlikely" from
	// "silently infinite".
	ErrCodeSpaceExhausted = errors.New("unable to generate a unique code")
)

// CapacityExceededError is returned when a purchase would push an event past
// its capacity. Remaining carries the inventory left at decision time.
type CapacityExceededError struct {
	EventID   int64
	Requested int
	Remaining int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("not enough tickets remaining for event %d: requested %d, remaining %d",
		e.EventID, e.Requested, e.Remaining)
}
