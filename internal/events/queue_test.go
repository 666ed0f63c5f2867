package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roma-frontend/fitAccess-sub002/internal/clock"
)

var queueNow = time.Date(2030, 1, 6, 8, 0, 0, 0, time.UTC)

func newTestQueue(rdb *redis.Client) *Queue {
	q := New(rdb, clock.NewFixed(queueNow))
	q.retryDelay = 0
	return q
}

func encode(t *testing.T, e Event) string {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return string(data)
}

func TestPublish(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(QueueKey, `"type":"booking.created".*"created":"2030-01-06T08:00:00Z"`).SetVal(1)

	err := newTestQueue(db).Publish(context.Background(), Event{Type: BookingCreated, BookingID: "b-1"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishKeepsCreated(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(QueueKey, `"created":"2029-12-31T23:00:00Z"`).SetVal(1)

	err := newTestQueue(db).Publish(context.Background(), Event{
		Type:      TrainerHoursUpdated,
		TrainerID: "t-1",
		Created:   time.Date(2029, 12, 31, 23, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(QueueKey, `.*`).SetErr(assert.AnError)

	err := newTestQueue(db).Publish(context.Background(), Event{Type: BookingCancelled, BookingID: "b-1"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLLen(QueueKey).SetVal(5)

	assert.Equal(t, int64(5), newTestQueue(db).QueueLength(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextHandlesEvent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := newTestQueue(db)
	mock.ExpectBRPop(q.pollTimeout, QueueKey).
		SetVal([]string{QueueKey, encode(t, Event{Type: BookingCreated, BookingID: "b-1"})})

	var got Event
	ok := q.processNext(context.Background(), func(_ context.Context, e Event) error {
		got = e
		return nil
	})

	assert.True(t, ok)
	assert.Equal(t, "b-1", got.BookingID)
	assert.Equal(t, 1, got.Tries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextRequeuesOnFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := newTestQueue(db)
	mock.ExpectBRPop(q.pollTimeout, QueueKey).
		SetVal([]string{QueueKey, encode(t, Event{Type: BookingCreated, BookingID: "b-1"})})
	mock.Regexp().ExpectLPush(QueueKey, `"tries":1`).SetVal(1)

	q.processNext(context.Background(), func(context.Context, Event) error {
		return errors.New("downstream unavailable")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextDeadLettersAfterMaxTries(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := newTestQueue(db)
	mock.ExpectBRPop(q.pollTimeout, QueueKey).
		SetVal([]string{QueueKey, encode(t, Event{Type: BookingNoShow, BookingID: "b-1", Tries: maxTries - 1})})
	mock.Regexp().ExpectLPush(FailedKey, `downstream unavailable.*"time":"2030-01-06T08:00:00Z"`).SetVal(1)

	q.processNext(context.Background(), func(context.Context, Event) error {
		return errors.New("downstream unavailable")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextEmptyQueue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	q := newTestQueue(db)
	mock.ExpectBRPop(q.pollTimeout, QueueKey).RedisNil()

	called := false
	ok := q.processNext(context.Background(), func(context.Context, Event) error {
		called = true
		return nil
	})

	assert.False(t, ok)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartStopsOnCancel(t *testing.T) {
	db, _ := redismock.NewClientMock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		newTestQueue(db).Start(ctx, func(context.Context, Event) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
