package trainer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

var ErrTrainerNotFound = errors.New("trainer not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTrainer(ctx context.Context, t *Trainer) (*Trainer, error) {
	query := `
		INSERT INTO trainers (id, name, working_hours, hourly_rate_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, working_hours, hourly_rate_cents, created_at, updated_at
	`

	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}

	var created Trainer
	err := r.db.GetContext(ctx, &created, query, id, t.Name, t.WorkingHours, t.HourlyRateCents)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetTrainerByID(ctx context.Context, id string) (*Trainer, error) {
	query := `
		SELECT id, name, working_hours, hourly_rate_cents, created_at, updated_at
		FROM trainers
		WHERE id = $1
	`

	var t Trainer
	err := r.db.GetContext(ctx, &t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}

	return &t, nil
}

func (r *repository) GetAllTrainers(ctx context.Context) ([]Trainer, error) {
	query := `
		SELECT id, name, working_hours, hourly_rate_cents, created_at, updated_at
		FROM trainers
		ORDER BY name ASC
	`

	trainers := []Trainer{}
	err := r.db.SelectContext(ctx, &trainers, query)
	if err != nil {
		return nil, err
	}

	return trainers, nil
}

func (r *repository) UpdateWorkingHours(ctx context.Context, id string, hours schedule.WorkingHours) (*Trainer, error) {
	query := `
		UPDATE trainers
		SET working_hours = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, working_hours, hourly_rate_cents, created_at, updated_at
	`

	var t Trainer
	err := r.db.GetContext(ctx, &t, query, id, hours)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}

	return &t, nil
}
