package trainer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

type memoryRepository struct {
	mu       sync.RWMutex
	trainers map[string]Trainer
}

// NewMemoryRepository returns a Repository kept in process memory.
func NewMemoryRepository() Repository {
	return &memoryRepository{trainers: make(map[string]Trainer)}
}

func (r *memoryRepository) CreateTrainer(_ context.Context, t *Trainer) (*Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *t
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := time.Now()
	created.CreatedAt, created.UpdatedAt = now, now
	created.WorkingHours = copyHours(t.WorkingHours)
	r.trainers[created.ID] = created

	out := created
	return &out, nil
}

func (r *memoryRepository) GetTrainerByID(_ context.Context, id string) (*Trainer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trainers[id]
	if !ok {
		return nil, ErrTrainerNotFound
	}
	t.WorkingHours = copyHours(t.WorkingHours)
	return &t, nil
}

func (r *memoryRepository) GetAllTrainers(_ context.Context) ([]Trainer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trainers := make([]Trainer, 0, len(r.trainers))
	for _, t := range r.trainers {
		t.WorkingHours = copyHours(t.WorkingHours)
		trainers = append(trainers, t)
	}
	sort.Slice(trainers, func(i, j int) bool { return trainers[i].Name < trainers[j].Name })
	return trainers, nil
}

func (r *memoryRepository) UpdateWorkingHours(_ context.Context, id string, hours schedule.WorkingHours) (*Trainer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trainers[id]
	if !ok {
		return nil, ErrTrainerNotFound
	}
	t.WorkingHours = copyHours(hours)
	t.UpdatedAt = time.Now()
	r.trainers[id] = t

	out := t
	return &out, nil
}

func copyHours(h schedule.WorkingHours) schedule.WorkingHours {
	out := make(schedule.WorkingHours, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
