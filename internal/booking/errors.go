package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")

	ErrBookingNotFound = errors.New("booking not found")
	// ErrStatusChanged means a conditional status update found the booking in another state.
	ErrStatusChanged = errors.New("booking status changed concurrently")
	ErrDayNotLocked  = errors.New("trainer day not locked in this transaction")
)

// ConflictError reports an existing booking overlapping the requested interval.
type ConflictError struct {
	Conflicting Booking
}

func (e *ConflictError) Error() string {
	b := e.Conflicting
	return fmt.Sprintf("conflicts with booking %s on %s %s-%s", b.ID, b.Date, b.StartTime, b.EndTime)
}

// PolicyError reports a lifecycle action refused by the booking rules.
type PolicyError struct {
	Action    string
	Reason    string
	Required  time.Duration
	Remaining time.Duration
}

func (e *PolicyError) Error() string {
	if e.Required > 0 {
		return fmt.Sprintf("cannot %s booking: %s (required %s, remaining %s)",
			e.Action, e.Reason, e.Required, e.Remaining.Truncate(time.Second))
	}
	return fmt.Sprintf("cannot %s booking: %s", e.Action, e.Reason)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
