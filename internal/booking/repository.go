package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

const bookingColumns = `id, trainer_id, client_id, date, start_time, end_time, type, status, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetBookingByID(ctx context.Context, id string) (*Booking, error) {
	return getBooking(ctx, r.db, id)
}

func (r *repository) ListByTrainerAndDate(ctx context.Context, trainerID string, date schedule.Date) ([]Booking, error) {
	return listByTrainerAndDate(ctx, r.db, trainerID, date)
}

func (r *repository) ListByTrainerBetween(ctx context.Context, trainerID string, from, to schedule.Date) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE trainer_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC, start_time ASC
	`

	bookings := []Booking{}
	err := r.db.SelectContext(ctx, &bookings, query, trainerID, from, to)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) ListByClient(ctx context.Context, clientID string) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE client_id = $1
		ORDER BY date DESC, start_time DESC
	`

	bookings := []Booking{}
	err := r.db.SelectContext(ctx, &bookings, query, clientID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status) (*Booking, error) {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns

	var b Booking
	err := r.db.GetContext(ctx, &b, query, id, from, to)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Distinguish a missing booking from one that moved on.
	if _, err := r.GetBookingByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrStatusChanged
}

// WithTrainerDays serializes writers per trainer day with transaction-scoped
// advisory locks. Locks are taken in key order and released on commit or rollback.
func (r *repository) WithTrainerDays(ctx context.Context, trainerID string, dates []schedule.Date, fn func(tx Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range dayLockKeys(trainerID, dates) {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
	}

	if err := fn(&txRepository{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking transaction: %w", err)
	}
	return nil
}

type txRepository struct {
	tx *sqlx.Tx
}

func (t *txRepository) GetBookingByID(ctx context.Context, id string) (*Booking, error) {
	return getBooking(ctx, t.tx, id)
}

func (t *txRepository) ListByTrainerAndDate(ctx context.Context, trainerID string, date schedule.Date) ([]Booking, error) {
	return listByTrainerAndDate(ctx, t.tx, trainerID, date)
}

func (t *txRepository) CreateBooking(ctx context.Context, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (id, trainer_id, client_id, date, start_time, end_time, type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + bookingColumns

	var created Booking
	err := t.tx.GetContext(ctx, &created, query,
		b.ID, b.TrainerID, b.ClientID, b.Date, b.StartTime, b.EndTime, b.Type, b.Status, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (t *txRepository) UpdateSlot(ctx context.Context, id string, date schedule.Date, start, end schedule.TimeOfDay) (*Booking, error) {
	query := `
		UPDATE bookings
		SET date = $2, start_time = $3, end_time = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING ` + bookingColumns

	var b Booking
	err := t.tx.GetContext(ctx, &b, query, id, date, start, end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, err
	}

	return &b, nil
}

func getBooking(ctx context.Context, q sqlx.QueryerContext, id string) (*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`

	var b Booking
	err := sqlx.GetContext(ctx, q, &b, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &b, nil
}

func listByTrainerAndDate(ctx context.Context, q sqlx.QueryerContext, trainerID string, date schedule.Date) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE trainer_id = $1 AND date = $2
		ORDER BY start_time ASC
	`

	bookings := []Booking{}
	err := sqlx.SelectContext(ctx, q, &bookings, query, trainerID, date)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

// dayLockKeys returns the distinct lock keys for the dates, sorted.
func dayLockKeys(trainerID string, dates []schedule.Date) []string {
	seen := make(map[string]struct{}, len(dates))
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		key := "booking:" + trainerID + ":" + d.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
