package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roma-frontend/fitAccess-sub002/internal/clock"
	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
	"github.com/roma-frontend/fitAccess-sub002/internal/trainer"
)

type Service interface {
	ValidateBooking(ctx context.Context, date, start, end string) error
	FindConflict(ctx context.Context, trainerID, date, start, end, excludeID string) (*Booking, error)
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*Booking, error)
	GetBooking(ctx context.Context, id string) (*Booking, error)
	ListClientBookings(ctx context.Context, clientID string) ([]Booking, error)
	ListTrainerBookings(ctx context.Context, trainerID, date string) ([]Booking, error)
	CancelBooking(ctx context.Context, id string) (*Booking, error)
	RescheduleBooking(ctx context.Context, id string, req RescheduleBookingRequest) (*Booking, error)
	MarkCompleted(ctx context.Context, id string) (*Booking, error)
	MarkNoShow(ctx context.Context, id string) (*Booking, error)
	AvailableSlots(ctx context.Context, trainerID, date string, durationMinutes int) ([]schedule.Slot, error)
	RecommendedSlots(ctx context.Context, trainerID, date string, durationMinutes int) ([]schedule.RankedSlot, error)
}

type service struct {
	repo     Repository
	trainers trainer.Repository
	clock    clock.Clock
	policy   schedule.Policy
}

func NewService(repo Repository, trainers trainer.Repository, clk clock.Clock, policy schedule.Policy) Service {
	return &service{
		repo:     repo,
		trainers: trainers,
		clock:    clk,
		policy:   policy.Normalize(),
	}
}

func (s *service) ValidateBooking(_ context.Context, date, start, end string) error {
	_, err := schedule.Validate(s.today(), date, start, end, s.policy)
	return err
}

// FindConflict reports the booking of trainerID that overlaps the interval,
// or nil when the interval is free.
func (s *service) FindConflict(ctx context.Context, trainerID, date, start, end, excludeID string) (*Booking, error) {
	if _, err := s.trainer(ctx, trainerID); err != nil {
		return nil, err
	}

	day, err := schedule.ParseDate(date)
	if err != nil {
		return nil, schedule.Invalid("date", schedule.TagDateFormat, fmt.Sprintf("date %q must be YYYY-MM-DD", date))
	}
	verr := &schedule.ValidationError{}
	startTime, startErr := schedule.ParseTimeOfDay(start)
	if startErr != nil {
		verr.Add("start_time", schedule.TagTimeFormat, fmt.Sprintf("start time %q must be HH:MM", start))
	}
	endTime, endErr := schedule.ParseTimeOfDay(end)
	if endErr != nil {
		verr.Add("end_time", schedule.TagTimeFormat, fmt.Sprintf("end time %q must be HH:MM", end))
	}
	if startErr == nil && endErr == nil && startTime >= endTime {
		verr.Add("end_time", schedule.TagTimeOrder, "start time must be before end time")
	}
	if len(verr.Violations) > 0 {
		return nil, verr
	}

	existing, err := s.repo.ListByTrainerAndDate(ctx, trainerID, day)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return FindConflict(existing, schedule.Interval{Start: startTime, End: endTime}, excludeID), nil
}

func (s *service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	t, err := s.trainer(ctx, req.TrainerID)
	if err != nil {
		return nil, err
	}

	r, err := s.checkRequest(t, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	typ := req.Type
	if typ == "" {
		typ = TypePersonal
	}
	verr := &schedule.ValidationError{}
	if req.ClientID == "" {
		verr.Add("client_id", schedule.TagRequired, "client id is required")
	}
	if !typ.Valid() {
		verr.Add("type", "oneof", "type must be one of: personal group consultation")
	}
	if len(verr.Violations) > 0 {
		return nil, verr
	}

	now := s.clock.Now()
	b := &Booking{
		ID:        uuid.NewString(),
		TrainerID: t.ID,
		ClientID:  req.ClientID,
		Date:      r.Date,
		StartTime: r.Start,
		EndTime:   r.End,
		Type:      typ,
		Status:    StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var created *Booking
	err = s.repo.WithTrainerDays(ctx, t.ID, []schedule.Date{r.Date}, func(tx Tx) error {
		existing, err := tx.ListByTrainerAndDate(ctx, t.ID, r.Date)
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		if conflict := FindConflict(existing, r.Interval(), ""); conflict != nil {
			return &ConflictError{Conflicting: *conflict}
		}

		created, err = tx.CreateBooking(ctx, b)
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *service) GetBooking(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, &NotFoundError{Resource: "booking", ID: id}
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *service) ListClientBookings(ctx context.Context, clientID string) ([]Booking, error) {
	bookings, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list client bookings: %w", err)
	}
	return bookings, nil
}

// ListTrainerBookings returns the trainer's bookings on date, today when date is empty.
func (s *service) ListTrainerBookings(ctx context.Context, trainerID, date string) ([]Booking, error) {
	day := s.today()
	if date != "" {
		var err error
		day, err = schedule.ParseDate(date)
		if err != nil {
			return nil, schedule.Invalid("date", schedule.TagDateFormat, fmt.Sprintf("date %q must be YYYY-MM-DD", date))
		}
	}

	if _, err := s.trainer(ctx, trainerID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListByTrainerAndDate(ctx, trainerID, day)
	if err != nil {
		return nil, fmt.Errorf("list trainer bookings: %w", err)
	}
	return bookings, nil
}

func (s *service) CancelBooking(ctx context.Context, id string) (*Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkCancel(b, s.clock.Now(), s.policy); err != nil {
		return nil, err
	}

	return s.transition(ctx, ActionCancel, b, StatusCancelled)
}

func (s *service) RescheduleBooking(ctx context.Context, id string, req RescheduleBookingRequest) (*Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkReschedule(b, s.clock.Now(), s.policy); err != nil {
		return nil, err
	}

	t, err := s.trainer(ctx, b.TrainerID)
	if err != nil {
		return nil, err
	}
	r, err := s.checkRequest(t, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	var updated *Booking
	err = s.repo.WithTrainerDays(ctx, b.TrainerID, []schedule.Date{b.Date, r.Date}, func(tx Tx) error {
		current, err := tx.GetBookingByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reload booking: %w", err)
		}
		if !current.Date.Equal(b.Date) {
			return fmt.Errorf("booking %s moved: %w", id, ErrStatusChanged)
		}
		if err := checkReschedule(current, s.clock.Now(), s.policy); err != nil {
			return err
		}

		existing, err := tx.ListByTrainerAndDate(ctx, b.TrainerID, r.Date)
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		if conflict := FindConflict(existing, r.Interval(), id); conflict != nil {
			return &ConflictError{Conflicting: *conflict}
		}

		updated, err = tx.UpdateSlot(ctx, id, r.Date, r.Start, r.End)
		if err != nil {
			return fmt.Errorf("update booking slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *service) MarkCompleted(ctx context.Context, id string) (*Booking, error) {
	return s.markAttendance(ctx, id, ActionComplete, StatusCompleted)
}

func (s *service) MarkNoShow(ctx context.Context, id string) (*Booking, error) {
	return s.markAttendance(ctx, id, ActionNoShow, StatusNoShow)
}

func (s *service) markAttendance(ctx context.Context, id, action string, to Status) (*Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkAttendance(action, b, to, s.clock.Now()); err != nil {
		return nil, err
	}

	return s.transition(ctx, action, b, to)
}

// transition applies a conditional status update. Losing a race to another
// transition is reported the same way as finding the booking already moved.
func (s *service) transition(ctx context.Context, action string, b *Booking, to Status) (*Booking, error) {
	updated, err := s.repo.UpdateStatus(ctx, b.ID, StatusScheduled, to)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, ErrBookingNotFound):
		return nil, &NotFoundError{Resource: "booking", ID: b.ID}
	case errors.Is(err, ErrStatusChanged):
		current, getErr := s.GetBooking(ctx, b.ID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, notScheduled(action, current)
	default:
		return nil, fmt.Errorf("update booking status: %w", err)
	}
}

func (s *service) AvailableSlots(ctx context.Context, trainerID, date string, durationMinutes int) ([]schedule.Slot, error) {
	slots, _, err := s.slots(ctx, trainerID, date, durationMinutes)
	return slots, err
}

func (s *service) RecommendedSlots(ctx context.Context, trainerID, date string, durationMinutes int) ([]schedule.RankedSlot, error) {
	slots, existing, err := s.slots(ctx, trainerID, date, durationMinutes)
	if err != nil {
		return nil, err
	}
	return schedule.Rank(slots, BusyIntervals(existing)), nil
}

func (s *service) slots(ctx context.Context, trainerID, date string, durationMinutes int) ([]schedule.Slot, []Booking, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return nil, nil, schedule.Invalid("date", schedule.TagDateFormat, fmt.Sprintf("date %q must be YYYY-MM-DD", date))
	}
	duration := time.Duration(durationMinutes) * time.Minute
	switch {
	case duration < s.policy.MinDuration:
		return nil, nil, schedule.Invalid("duration", schedule.TagMinDuration,
			fmt.Sprintf("duration must be at least %d minutes", int(s.policy.MinDuration.Minutes())))
	case duration > s.policy.MaxDuration:
		return nil, nil, schedule.Invalid("duration", schedule.TagMaxDuration,
			fmt.Sprintf("duration must be at most %d minutes", int(s.policy.MaxDuration.Minutes())))
	}

	t, err := s.trainer(ctx, trainerID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	today := schedule.DateOf(now)
	if day.Before(today) {
		return []schedule.Slot{}, []Booking{}, nil
	}

	existing, err := s.repo.ListByTrainerAndDate(ctx, trainerID, day)
	if err != nil {
		return nil, nil, fmt.Errorf("list bookings: %w", err)
	}

	q := schedule.SlotQuery{Date: day, Duration: duration, Busy: BusyIntervals(existing)}
	if day.Equal(today) {
		// Only starts strictly after now.
		q.Earliest = schedule.NewTimeOfDay(now.Hour(), now.Minute()) + 1
	}
	return schedule.AvailableSlots(t.WorkingHours, q, s.policy), existing, nil
}

// checkRequest validates a proposed interval for trainer t: the request rules,
// a start that has not already passed, and the trainer's working hours.
func (s *service) checkRequest(t *trainer.Trainer, date, start, end string) (schedule.Request, error) {
	now := s.clock.Now()
	r, err := schedule.Validate(schedule.DateOf(now), date, start, end, s.policy)
	if err != nil {
		return schedule.Request{}, err
	}

	verr := &schedule.ValidationError{}
	if !r.Date.At(r.Start, now.Location()).After(now) {
		verr.Add("start_time", schedule.TagPastDate, fmt.Sprintf("start time %s on %s has already passed", r.Start, r.Date))
	}
	if !t.WorkingHours.IsOpen(r.Date, r.Start, r.End) {
		verr.Add("start_time", schedule.TagWorkingHours,
			fmt.Sprintf("%s-%s on %s is outside the trainer's working hours", r.Start, r.End, r.Date))
	}
	if len(verr.Violations) > 0 {
		return schedule.Request{}, verr
	}
	return r, nil
}

func (s *service) trainer(ctx context.Context, id string) (*trainer.Trainer, error) {
	t, err := s.trainers.GetTrainerByID(ctx, id)
	if err != nil {
		if errors.Is(err, trainer.ErrTrainerNotFound) {
			return nil, &NotFoundError{Resource: "trainer", ID: id}
		}
		return nil, fmt.Errorf("get trainer: %w", err)
	}
	return t, nil
}

func (s *service) today() schedule.Date {
	return schedule.DateOf(s.clock.Now())
}
