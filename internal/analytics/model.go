package analytics

import "github.com/roma-frontend/fitAccess-sub002/internal/schedule"

// Stats summarizes a trainer's bookings over a trailing window of days.
// Rates are fractions in [0, 1].
type Stats struct {
	TrainerID        string        `json:"trainer_id"`
	From             schedule.Date `json:"from"`
	To               schedule.Date `json:"to"`
	WindowDays       int           `json:"window_days"`
	TotalBookings    int           `json:"total_bookings"`
	WorkingMinutes   int           `json:"working_minutes"`
	CompletedMinutes int           `json:"completed_minutes"`
	UtilizationRate  float64       `json:"utilization_rate"`
	CancellationRate float64       `json:"cancellation_rate"`
	NoShowRate       float64       `json:"no_show_rate"`
	CompletionRate   float64       `json:"completion_rate"`
}

type WeekdayCount struct {
	Weekday  string `json:"weekday"`
	Sessions int    `json:"sessions"`
}

type HourCount struct {
	Hour     int `json:"hour"`
	Sessions int `json:"sessions"`
}

// MonthTrend aggregates completed sessions of one calendar month.
// SessionChangePct is nil for the first month and after a month with no sessions.
type MonthTrend struct {
	Month            string   `json:"month"`
	Sessions         int      `json:"sessions"`
	Minutes          int      `json:"minutes"`
	RevenueCents     int64    `json:"revenue_cents"`
	SessionChangePct *float64 `json:"session_change_pct"`
}

type Report struct {
	Stats
	Weekdays  []WeekdayCount `json:"weekdays"`
	PeakHours []HourCount    `json:"peak_hours"`
	Monthly   []MonthTrend   `json:"monthly"`
}

// ForecastDay projects one future day from what is already booked. It is a
// plain ratio of booked to working time.
type ForecastDay struct {
	Date                   schedule.Date `json:"date"`
	ScheduledCount         int           `json:"scheduled_count"`
	AvailableSlotCount     int           `json:"available_slot_count"`
	UtilizationForecastPct float64       `json:"utilization_forecast_pct"`
}

type Forecast struct {
	TrainerID   string        `json:"trainer_id"`
	HorizonDays int           `json:"horizon_days"`
	SlotMinutes int           `json:"slot_minutes"`
	Days        []ForecastDay `json:"days"`
}
