package trainer

import (
	"time"

	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

type Trainer struct {
	ID              string                `db:"id" json:"id"`
	Name            string                `db:"name" json:"name"`
	WorkingHours    schedule.WorkingHours `db:"working_hours" json:"working_hours"`
	HourlyRateCents *int64                `db:"hourly_rate_cents" json:"hourly_rate_cents,omitempty"`
	CreatedAt       time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time             `db:"updated_at" json:"updated_at"`
}

type CreateTrainerRequest struct {
	Name            string                `json:"name" validate:"required,min=2,max=100"`
	WorkingHours    schedule.WorkingHours `json:"working_hours" validate:"required"`
	HourlyRateCents *int64                `json:"hourly_rate_cents" validate:"omitempty,gte=0"`
}

type UpdateWorkingHoursRequest struct {
	WorkingHours schedule.WorkingHours `json:"working_hours" validate:"required"`
}
