package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roma-frontend/fitAccess-sub002/internal/clock"
	"github.com/roma-frontend/fitAccess-sub002/internal/logger"
	"github.com/roma-frontend/fitAccess-sub002/internal/metrics"
)

const (
	BookingCreated     = "booking.created"
	BookingCancelled   = "booking.cancelled"
	BookingRescheduled = "booking.rescheduled"
	BookingCompleted   = "booking.completed"
	BookingNoShow      = "booking.no_show"

	// TrainerHoursUpdated carries only TrainerID.
	TrainerHoursUpdated = "trainer.hours_updated"
)

const (
	QueueKey  = "booking:events"
	FailedKey = "booking:events:failed"

	maxTries = 3
)

// Event is one booking lifecycle change as seen by downstream consumers.
type Event struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	TrainerID string    `json:"trainer_id"`
	ClientID  string    `json:"client_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Status    string    `json:"status"`
	Tries     int       `json:"tries"`
	Created   time.Time `json:"created"`
}

// Handler processes one event taken off the queue.
type Handler func(ctx context.Context, e Event) error

// Queue is a Redis list of booking events: producers LPUSH, a worker BRPOPs.
type Queue struct {
	redis       *redis.Client
	clock       clock.Clock
	pollTimeout time.Duration
	retryDelay  time.Duration
}

// New returns a queue on client. clk stamps events and dead letters; nil
// means the system clock.
func New(client *redis.Client, clk clock.Clock) *Queue {
	if clk == nil {
		clk = clock.New(nil)
	}
	return &Queue{
		redis:       client,
		clock:       clk,
		pollTimeout: 2 * time.Second,
		retryDelay:  5 * time.Second,
	}
}

func (q *Queue) Publish(ctx context.Context, e Event) error {
	if e.Created.IsZero() {
		e.Created = q.clock.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		metrics.RecordEvent(e.Type, "failed")
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := q.redis.LPush(ctx, QueueKey, string(data)).Err(); err != nil {
		metrics.RecordEvent(e.Type, "failed")
		return fmt.Errorf("queue %s for booking %s: %w", e.Type, e.BookingID, err)
	}

	metrics.RecordEvent(e.Type, "queued")
	logger.Debug("Booking event queued", "type", e.Type, "booking_id", e.BookingID)
	return nil
}

// Start consumes events until ctx is cancelled.
func (q *Queue) Start(ctx context.Context, handle Handler) {
	logger.Info("Booking event worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Booking event worker stopped")
			return
		default:
			q.processNext(ctx, handle)
		}
	}
}

// processNext handles at most one event. It returns false when nothing was taken.
func (q *Queue) processNext(ctx context.Context, handle Handler) bool {
	result, err := q.redis.BRPop(ctx, q.pollTimeout, QueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.WithError(err).Warn("Booking event poll failed")
			select {
			case <-ctx.Done():
			case <-time.After(q.retryDelay):
			}
		}
		return false
	}

	var e Event
	if err := json.Unmarshal([]byte(result[1]), &e); err != nil {
		logger.Error("Bad booking event data", "error", err)
		return true
	}

	e.Tries++
	if err := handle(ctx, e); err != nil {
		if e.Tries < maxTries {
			logger.Warn("Booking event handler failed, retrying", "type", e.Type, "booking_id", e.BookingID, "attempt", e.Tries, "error", err)
			time.Sleep(q.retryDelay)
			q.push(QueueKey, e)
		} else {
			logger.Error("Booking event failed after retries", "type", e.Type, "booking_id", e.BookingID, "error", err)
			q.saveFailed(e, err)
		}
		return true
	}

	metrics.RecordEvent(e.Type, "handled")
	return true
}

func (q *Queue) push(key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := q.redis.LPush(context.Background(), key, string(data)).Err(); err != nil {
		logger.WithError(err).Error("Failed to requeue booking event")
	}
}

func (q *Queue) saveFailed(e Event, err error) {
	q.push(FailedKey, map[string]interface{}{
		"event": e,
		"error": err.Error(),
		"time":  q.clock.Now(),
	})
	metrics.RecordEvent(e.Type, "dead")
}

func (q *Queue) QueueLength(ctx context.Context) int64 {
	length, _ := q.redis.LLen(ctx, QueueKey).Result()
	metrics.EventQueueLength.Set(float64(length))
	return length
}

func (q *Queue) Close() error {
	return q.redis.Close()
}
