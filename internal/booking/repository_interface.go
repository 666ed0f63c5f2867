package booking

import (
	"context"

	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

type Repository interface {
	GetBookingByID(ctx context.Context, id string) (*Booking, error)
	ListByTrainerAndDate(ctx context.Context, trainerID string, date schedule.Date) ([]Booking, error)
	// ListByTrainerBetween returns bookings with from <= date <= to.
	ListByTrainerBetween(ctx context.Context, trainerID string, from, to schedule.Date) ([]Booking, error)
	ListByClient(ctx context.Context, clientID string) ([]Booking, error)
	// UpdateStatus moves a booking from one status to another and fails with
	// ErrStatusChanged when it is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to Status) (*Booking, error)
	// WithTrainerDays runs fn holding exclusive locks on every (trainerID, date)
	// pair. Writes made through tx commit only if fn returns nil.
	WithTrainerDays(ctx context.Context, trainerID string, dates []schedule.Date, fn func(tx Tx) error) error
}

// Tx is the write side of a locked trainer day.
type Tx interface {
	GetBookingByID(ctx context.Context, id string) (*Booking, error)
	ListByTrainerAndDate(ctx context.Context, trainerID string, date schedule.Date) ([]Booking, error)
	CreateBooking(ctx context.Context, b *Booking) (*Booking, error)
	UpdateSlot(ctx context.Context, id string, date schedule.Date, start, end schedule.TimeOfDay) (*Booking, error)
}
