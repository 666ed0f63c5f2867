package booking

import (
	"time"

	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no-show"
)

type Type string

const (
	TypePersonal     Type = "personal"
	TypeGroup        Type = "group"
	TypeConsultation Type = "consultation"
)

func (t Type) Valid() bool {
	switch t {
	case TypePersonal, TypeGroup, TypeConsultation:
		return true
	}
	return false
}

type Booking struct {
	ID        string             `db:"id" json:"id"`
	TrainerID string             `db:"trainer_id" json:"trainer_id"`
	ClientID  string             `db:"client_id" json:"client_id"`
	Date      schedule.Date      `db:"date" json:"date"`
	StartTime schedule.TimeOfDay `db:"start_time" json:"start_time"`
	EndTime   schedule.TimeOfDay `db:"end_time" json:"end_time"`
	Type      Type               `db:"type" json:"type"`
	Status    Status             `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
}

func (b Booking) Interval() schedule.Interval {
	return schedule.Interval{Start: b.StartTime, End: b.EndTime}
}

func (b Booking) DurationMinutes() int {
	return b.Interval().Minutes()
}

// StartsAt is the start instant of the session in loc.
func (b Booking) StartsAt(loc *time.Location) time.Time {
	return b.Date.At(b.StartTime, loc)
}

func (b Booking) EndsAt(loc *time.Location) time.Time {
	return b.Date.At(b.EndTime, loc)
}

// Blocking reports whether the booking occupies its interval. Only cancelled
// bookings free their time.
func (b Booking) Blocking() bool {
	return b.Status != StatusCancelled
}

// BusyIntervals returns the intervals occupied by the blocking bookings.
func BusyIntervals(bookings []Booking) []schedule.Interval {
	busy := make([]schedule.Interval, 0, len(bookings))
	for _, b := range bookings {
		if b.Blocking() {
			busy = append(busy, b.Interval())
		}
	}
	return busy
}

type CreateBookingRequest struct {
	TrainerID string `json:"trainer_id" validate:"required"`
	ClientID  string `json:"client_id"`
	Date      string `json:"date" example:"2030-01-07"`
	StartTime string `json:"start_time" example:"10:00"`
	EndTime   string `json:"end_time" example:"11:00"`
	Type      Type   `json:"type" validate:"omitempty,oneof=personal group consultation"`
}

type ValidateBookingRequest struct {
	Date      string `json:"date" example:"2030-01-07"`
	StartTime string `json:"start_time" example:"10:00"`
	EndTime   string `json:"end_time" example:"11:00"`
}

type RescheduleBookingRequest struct {
	Date      string `json:"date" example:"2030-01-08"`
	StartTime string `json:"start_time" example:"14:00"`
	EndTime   string `json:"end_time" example:"15:00"`
}

type ValidateBookingResponse struct {
	Valid      bool                 `json:"valid"`
	Violations []schedule.Violation `json:"violations"`
}

type ConflictResponse struct {
	Conflict bool     `json:"conflict"`
	Booking  *Booking `json:"booking,omitempty"`
}

type ConflictErrorResponse struct {
	Error       string   `json:"error"`
	Conflicting *Booking `json:"conflicting_booking"`
}

// PolicyErrorResponse explains a refused lifecycle action. Durations are in seconds.
type PolicyErrorResponse struct {
	Error            string `json:"error"`
	Action           string `json:"action"`
	Reason           string `json:"reason"`
	RequiredSeconds  int64  `json:"required_seconds,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}
