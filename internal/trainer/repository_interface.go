package trainer

import (
	"context"

	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

type Repository interface {
	CreateTrainer(ctx context.Context, t *Trainer) (*Trainer, error)
	GetTrainerByID(ctx context.Context, id string) (*Trainer, error)
	GetAllTrainers(ctx context.Context) ([]Trainer, error)
	UpdateWorkingHours(ctx context.Context, id string, hours schedule.WorkingHours) (*Trainer, error)
}
