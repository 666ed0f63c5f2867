package booking

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/roma-frontend/fitAccess-sub002/internal/clock"
	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

type memoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]Booking
	clock    clock.Clock

	locksMu  sync.Mutex
	dayLocks map[string]*dayLock
}

// dayLock is dropped from dayLocks once no transaction holds or waits on it.
type dayLock struct {
	mu   sync.Mutex
	refs int
}

// NewMemoryRepository returns a Repository kept in process memory. Day locks
// are per-key mutexes, so it is safe for concurrent use within one process.
// clk stamps updated_at; nil means the system clock.
func NewMemoryRepository(clk clock.Clock) Repository {
	if clk == nil {
		clk = clock.New(nil)
	}
	return &memoryRepository{
		bookings: make(map[string]Booking),
		clock:    clk,
		dayLocks: make(map[string]*dayLock),
	}
}

func (r *memoryRepository) GetBookingByID(_ context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (r *memoryRepository) ListByTrainerAndDate(_ context.Context, trainerID string, date schedule.Date) ([]Booking, error) {
	return r.filter(func(b Booking) bool {
		return b.TrainerID == trainerID && b.Date.Equal(date)
	}), nil
}

func (r *memoryRepository) ListByTrainerBetween(_ context.Context, trainerID string, from, to schedule.Date) ([]Booking, error) {
	return r.filter(func(b Booking) bool {
		return b.TrainerID == trainerID && !b.Date.Before(from) && !b.Date.After(to)
	}), nil
}

func (r *memoryRepository) ListByClient(_ context.Context, clientID string) ([]Booking, error) {
	bookings := r.filter(func(b Booking) bool { return b.ClientID == clientID })
	// Newest first, like the Postgres query.
	for i, j := 0, len(bookings)-1; i < j; i, j = i+1, j-1 {
		bookings[i], bookings[j] = bookings[j], bookings[i]
	}
	return bookings, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id string, from, to Status) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	if b.Status != from {
		return nil, ErrStatusChanged
	}
	b.Status = to
	b.UpdatedAt = r.clock.Now()
	r.bookings[id] = b
	return &b, nil
}

func (r *memoryRepository) WithTrainerDays(ctx context.Context, trainerID string, dates []schedule.Date, fn func(tx Tx) error) error {
	keys := dayLockKeys(trainerID, dates)
	for _, key := range keys {
		r.lockDay(key)
		defer r.unlockDay(key)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{
		repo:   r,
		locked: make(map[string]struct{}, len(keys)),
		staged: make(map[string]Booking),
	}
	for _, key := range keys {
		tx.locked[key] = struct{}{}
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (r *memoryRepository) lockDay(key string) {
	r.locksMu.Lock()
	lock, ok := r.dayLocks[key]
	if !ok {
		lock = &dayLock{}
		r.dayLocks[key] = lock
	}
	lock.refs++
	r.locksMu.Unlock()

	lock.mu.Lock()
}

func (r *memoryRepository) unlockDay(key string) {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	lock := r.dayLocks[key]
	lock.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(r.dayLocks, key)
	}
}

func (r *memoryRepository) filter(keep func(Booking) bool) []Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bookings := []Booking{}
	for _, b := range r.bookings {
		if keep(b) {
			bookings = append(bookings, b)
		}
	}
	sortBookings(bookings)
	return bookings
}

func sortBookings(bookings []Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].Date.Equal(bookings[j].Date) {
			return bookings[i].Date.Before(bookings[j].Date)
		}
		if bookings[i].StartTime != bookings[j].StartTime {
			return bookings[i].StartTime < bookings[j].StartTime
		}
		return bookings[i].ID < bookings[j].ID
	})
}

// memoryTx buffers writes until WithTrainerDays commits them.
type memoryTx struct {
	repo   *memoryRepository
	locked map[string]struct{}
	staged map[string]Booking
	// created marks staged ids that are inserts rather than slot updates.
	created []string
}

func (t *memoryTx) requireLock(trainerID string, date schedule.Date) error {
	if _, ok := t.locked["booking:"+trainerID+":"+date.String()]; !ok {
		return ErrDayNotLocked
	}
	return nil
}

func (t *memoryTx) GetBookingByID(ctx context.Context, id string) (*Booking, error) {
	if b, ok := t.staged[id]; ok {
		return &b, nil
	}
	return t.repo.GetBookingByID(ctx, id)
}

func (t *memoryTx) ListByTrainerAndDate(_ context.Context, trainerID string, date schedule.Date) ([]Booking, error) {
	match := func(b Booking) bool {
		return b.TrainerID == trainerID && b.Date.Equal(date)
	}

	bookings := t.repo.filter(func(b Booking) bool {
		_, shadowed := t.staged[b.ID]
		return !shadowed && match(b)
	})
	for _, b := range t.staged {
		if match(b) {
			bookings = append(bookings, b)
		}
	}
	sortBookings(bookings)
	return bookings, nil
}

func (t *memoryTx) CreateBooking(_ context.Context, b *Booking) (*Booking, error) {
	if err := t.requireLock(b.TrainerID, b.Date); err != nil {
		return nil, err
	}

	created := *b
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	t.staged[created.ID] = created
	t.created = append(t.created, created.ID)
	return &created, nil
}

func (t *memoryTx) UpdateSlot(ctx context.Context, id string, date schedule.Date, start, end schedule.TimeOfDay) (*Booking, error) {
	b, err := t.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusScheduled {
		return nil, ErrStatusChanged
	}
	if err := t.requireLock(b.TrainerID, b.Date); err != nil {
		return nil, err
	}
	if err := t.requireLock(b.TrainerID, date); err != nil {
		return nil, err
	}

	b.Date, b.StartTime, b.EndTime = date, start, end
	b.UpdatedAt = t.repo.clock.Now()
	t.staged[id] = *b
	return b, nil
}

func (t *memoryTx) commit() error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	isNew := make(map[string]bool, len(t.created))
	for _, id := range t.created {
		isNew[id] = true
	}

	// Status changes do not take day locks; refuse to overwrite one.
	for id := range t.staged {
		if isNew[id] {
			continue
		}
		current, ok := t.repo.bookings[id]
		if !ok {
			return ErrBookingNotFound
		}
		if current.Status != StatusScheduled {
			return ErrStatusChanged
		}
	}

	for id, b := range t.staged {
		if !isNew[id] {
			current := t.repo.bookings[id]
			current.Date, current.StartTime, current.EndTime = b.Date, b.StartTime, b.EndTime
			current.UpdatedAt = b.UpdatedAt
			b = current
		}
		t.repo.bookings[id] = b
	}
	return nil
}
