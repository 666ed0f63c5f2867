package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/roma-frontend/fitAccess-sub002/internal/booking"
	"github.com/roma-frontend/fitAccess-sub002/internal/clock"
	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
	"github.com/roma-frontend/fitAccess-sub002/internal/trainer"
)

const (
	MaxWindowDays  = 366
	MaxHorizonDays = 90

	DefaultForecastSlotMinutes = 60
)

type Service interface {
	EfficiencyStats(ctx context.Context, trainerID string, windowDays int) (*Stats, error)
	EfficiencyReport(ctx context.Context, trainerID string, windowDays int) (*Report, error)
	WorkloadForecast(ctx context.Context, trainerID string, horizonDays int) (*Forecast, error)
}

type service struct {
	bookings    booking.Repository
	trainers    trainer.Repository
	clock       clock.Clock
	policy      schedule.Policy
	slotMinutes int
}

// NewService reads committed bookings without taking day locks. slotMinutes
// is the session length the forecast counts free slots for.
func NewService(bookings booking.Repository, trainers trainer.Repository, clk clock.Clock, policy schedule.Policy, slotMinutes int) Service {
	if slotMinutes <= 0 {
		slotMinutes = DefaultForecastSlotMinutes
	}
	return &service{
		bookings:    bookings,
		trainers:    trainers,
		clock:       clk,
		policy:      policy.Normalize(),
		slotMinutes: slotMinutes,
	}
}

func (s *service) EfficiencyStats(ctx context.Context, trainerID string, windowDays int) (*Stats, error) {
	_, stats, _, err := s.window(ctx, trainerID, windowDays)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *service) EfficiencyReport(ctx context.Context, trainerID string, windowDays int) (*Report, error) {
	t, stats, bookings, err := s.window(ctx, trainerID, windowDays)
	if err != nil {
		return nil, err
	}

	return &Report{
		Stats:     *stats,
		Weekdays:  weekdayCounts(bookings),
		PeakHours: peakHours(bookings),
		Monthly:   monthlyTrend(bookings, t.HourlyRateCents),
	}, nil
}

// window loads the trainer and the bookings of the windowDays days ending
// today and computes the window's stats.
func (s *service) window(ctx context.Context, trainerID string, windowDays int) (*trainer.Trainer, *Stats, []booking.Booking, error) {
	if err := checkDays("window_days", windowDays, MaxWindowDays); err != nil {
		return nil, nil, nil, err
	}
	t, err := s.trainer(ctx, trainerID)
	if err != nil {
		return nil, nil, nil, err
	}

	to := schedule.DateOf(s.clock.Now())
	from := to.AddDays(-(windowDays - 1))
	bookings, err := s.bookings.ListByTrainerBetween(ctx, trainerID, from, to)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list bookings: %w", err)
	}

	stats := &Stats{
		TrainerID:     trainerID,
		From:          from,
		To:            to,
		WindowDays:    windowDays,
		TotalBookings: len(bookings),
	}
	for d := from; !d.After(to); d = d.AddDays(1) {
		stats.WorkingMinutes += t.WorkingHours.WorkingMinutes(d)
	}

	var completed, cancelled, noShow int
	for _, b := range bookings {
		switch b.Status {
		case booking.StatusCompleted:
			completed++
			stats.CompletedMinutes += b.DurationMinutes()
		case booking.StatusCancelled:
			cancelled++
		case booking.StatusNoShow:
			noShow++
		}
	}

	stats.UtilizationRate = ratio(stats.CompletedMinutes, stats.WorkingMinutes)
	stats.CancellationRate = ratio(cancelled, len(bookings))
	stats.NoShowRate = ratio(noShow, len(bookings))
	stats.CompletionRate = ratio(completed, len(bookings))
	return t, stats, bookings, nil
}

func (s *service) WorkloadForecast(ctx context.Context, trainerID string, horizonDays int) (*Forecast, error) {
	if err := checkDays("horizon_days", horizonDays, MaxHorizonDays); err != nil {
		return nil, err
	}
	t, err := s.trainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	from := schedule.DateOf(now)
	to := from.AddDays(horizonDays - 1)
	bookings, err := s.bookings.ListByTrainerBetween(ctx, trainerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	byDate := make(map[string][]booking.Booking)
	for _, b := range bookings {
		byDate[b.Date.String()] = append(byDate[b.Date.String()], b)
	}

	forecast := &Forecast{
		TrainerID:   trainerID,
		HorizonDays: horizonDays,
		SlotMinutes: s.slotMinutes,
		Days:        make([]ForecastDay, 0, horizonDays),
	}
	for d := from; !d.After(to); d = d.AddDays(1) {
		day := byDate[d.String()]

		var scheduled, scheduledMinutes int
		for _, b := range day {
			if b.Status == booking.StatusScheduled {
				scheduled++
				scheduledMinutes += b.DurationMinutes()
			}
		}

		q := schedule.SlotQuery{
			Date:     d,
			Duration: time.Duration(s.slotMinutes) * time.Minute,
			Busy:     booking.BusyIntervals(day),
		}
		if d.Equal(from) {
			q.Earliest = schedule.NewTimeOfDay(now.Hour(), now.Minute()) + 1
		}

		var pct float64
		if working := t.WorkingHours.WorkingMinutes(d); working > 0 {
			pct = round(100*float64(scheduledMinutes)/float64(working), 1)
		}

		forecast.Days = append(forecast.Days, ForecastDay{
			Date:                   d,
			ScheduledCount:         scheduled,
			AvailableSlotCount:     len(schedule.AvailableSlots(t.WorkingHours, q, s.policy)),
			UtilizationForecastPct: pct,
		})
	}
	return forecast, nil
}

func (s *service) trainer(ctx context.Context, id string) (*trainer.Trainer, error) {
	t, err := s.trainers.GetTrainerByID(ctx, id)
	if err != nil {
		if errors.Is(err, trainer.ErrTrainerNotFound) {
			return nil, &booking.NotFoundError{Resource: "trainer", ID: id}
		}
		return nil, fmt.Errorf("get trainer: %w", err)
	}
	return t, nil
}

func checkDays(field string, days, limit int) error {
	if days < 1 || days > limit {
		return schedule.Invalid(field, "range", fmt.Sprintf("%s must be between 1 and %d", field, limit))
	}
	return nil
}

// weekdayCounts counts non-cancelled bookings per weekday, Monday first.
func weekdayCounts(bookings []booking.Booking) []WeekdayCount {
	var counts [7]int
	for _, b := range bookings {
		if b.Blocking() {
			counts[b.Date.Weekday()]++
		}
	}

	out := make([]WeekdayCount, 0, 7)
	for i := 1; i <= 7; i++ {
		wd := time.Weekday(i % 7)
		out = append(out, WeekdayCount{Weekday: schedule.WeekdayKey(wd), Sessions: counts[wd]})
	}
	return out
}

// peakHours histograms non-cancelled bookings by start hour, busiest first.
func peakHours(bookings []booking.Booking) []HourCount {
	var counts [24]int
	for _, b := range bookings {
		if b.Blocking() {
			counts[b.StartTime.Hour()]++
		}
	}

	out := []HourCount{}
	for h, n := range counts {
		if n > 0 {
			out = append(out, HourCount{Hour: h, Sessions: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sessions > out[j].Sessions
	})
	return out
}

// monthlyTrend aggregates completed bookings per month in ascending order.
// Revenue is only computed when the trainer has an hourly rate.
func monthlyTrend(bookings []booking.Booking, hourlyRateCents *int64) []MonthTrend {
	index := map[string]int{}
	out := []MonthTrend{}
	for _, b := range bookings {
		if b.Status != booking.StatusCompleted {
			continue
		}
		key := b.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, MonthTrend{Month: key})
		}
		out[i].Sessions++
		out[i].Minutes += b.DurationMinutes()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	for i := range out {
		if hourlyRateCents != nil {
			out[i].RevenueCents = *hourlyRateCents * int64(out[i].Minutes) / 60
		}
		if i > 0 && out[i-1].Sessions > 0 {
			prev := float64(out[i-1].Sessions)
			change := round(100*(float64(out[i].Sessions)-prev)/prev, 1)
			out[i].SessionChangePct = &change
		}
	}
	return out
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(n)/float64(total), 4)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
