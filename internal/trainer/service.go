package trainer

import (
	"context"
	"errors"
	"fmt"
)

var ErrWorkingHoursInvalid = errors.New("invalid working hours")

type Service interface {
	CreateTrainer(ctx context.Context, req CreateTrainerRequest) (*Trainer, error)
	GetTrainer(ctx context.Context, id string) (*Trainer, error)
	ListTrainers(ctx context.Context) ([]Trainer, error)
	UpdateWorkingHours(ctx context.Context, id string, req UpdateWorkingHoursRequest) (*Trainer, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateTrainer(ctx context.Context, req CreateTrainerRequest) (*Trainer, error) {
	hours, err := req.WorkingHours.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkingHoursInvalid, err)
	}

	return s.repo.CreateTrainer(ctx, &Trainer{
		Name:            req.Name,
		WorkingHours:    hours,
		HourlyRateCents: req.HourlyRateCents,
	})
}

func (s *service) GetTrainer(ctx context.Context, id string) (*Trainer, error) {
	return s.repo.GetTrainerByID(ctx, id)
}

func (s *service) ListTrainers(ctx context.Context) ([]Trainer, error) {
	return s.repo.GetAllTrainers(ctx)
}

func (s *service) UpdateWorkingHours(ctx context.Context, id string, req UpdateWorkingHoursRequest) (*Trainer, error) {
	hours, err := req.WorkingHours.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkingHoursInvalid, err)
	}

	return s.repo.UpdateWorkingHours(ctx, id, hours)
}
