package booking_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roma-frontend/fitAccess-sub002/internal/auth"
	"github.com/roma-frontend/fitAccess-sub002/internal/booking"
	"github.com/roma-frontend/fitAccess-sub002/internal/clock"
	"github.com/roma-frontend/fitAccess-sub002/internal/events"
	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
	"github.com/roma-frontend/fitAccess-sub002/internal/trainer"
)

const secret = "handler-test-secret"

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testServer struct {
	router    *gin.Engine
	clock     *clock.Fixed
	publisher *recordingPublisher
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	trainers := trainer.NewMemoryRepository()
	_, err := trainers.CreateTrainer(context.Background(), &trainer.Trainer{
		ID:   "t-1",
		Name: "Alex",
		WorkingHours: schedule.WorkingHours{
			"monday": {IsWorking: true, Start: schedule.NewTimeOfDay(9, 0), End: schedule.NewTimeOfDay(17, 0)},
		},
	})
	require.NoError(t, err)

	clk := clock.NewFixed(time.Date(2030, 1, 6, 8, 0, 0, 0, time.UTC))
	pub := &recordingPublisher{}
	h := booking.NewHandler(booking.NewService(booking.NewMemoryRepository(clk), trainers, clk, schedule.DefaultPolicy()), pub)

	router := gin.New()
	api := router.Group("/", auth.AuthMiddleware(secret))
	api.POST("/bookings/validate", h.ValidateBooking)
	api.POST("/bookings", h.CreateBooking)
	api.GET("/bookings", h.ListMyBookings)
	api.GET("/bookings/:bookingID", h.GetBooking)
	api.POST("/bookings/:bookingID/cancel", h.CancelBooking)
	api.POST("/bookings/:bookingID/reschedule", h.RescheduleBooking)
	staff := api.Group("/", auth.RequireRole(auth.RoleTrainer, auth.RoleAdmin))
	staff.POST("/bookings/:bookingID/complete", h.MarkCompleted)
	staff.POST("/bookings/:bookingID/no-show", h.MarkNoShow)
	staff.GET("/trainers/:trainerID/bookings", h.ListTrainerBookings)
	api.GET("/trainers/:trainerID/slots", h.AvailableSlots)
	api.GET("/trainers/:trainerID/slots/recommended", h.RecommendedSlots)
	api.GET("/trainers/:trainerID/conflicts", h.CheckConflict)

	return &testServer{router: router, clock: clk, publisher: pub}
}

func token(t *testing.T, userID, role, trainerID string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(userID, role, trainerID, secret)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, tok, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) create(t *testing.T, tok, start, end string) booking.Booking {
	t.Helper()
	w := s.do(t, http.MethodPost, "/bookings", tok,
		`{"trainer_id":"t-1","date":"2030-01-07","start_time":"`+start+`","end_time":"`+end+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var b booking.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestCreateBooking_Handler(t *testing.T) {
	s := setupServer(t)
	client := token(t, "c-1", auth.RoleClient, "")

	b := s.create(t, client, "10:00", "11:00")
	assert.Equal(t, "c-1", b.ClientID, "clients always book for themselves")
	assert.Equal(t, booking.StatusScheduled, b.Status)
	assert.Equal(t, []string{events.BookingCreated}, s.publisher.types())

	t.Run("conflict", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/bookings", token(t, "c-2", auth.RoleClient, ""),
			`{"trainer_id":"t-1","date":"2030-01-07","start_time":"10:30","end_time":"11:30"}`)
		require.Equal(t, http.StatusConflict, w.Code)

		var resp booking.ConflictErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Conflicting)
		assert.Equal(t, b.ID, resp.Conflicting.ID)
	})

	t.Run("validation details", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/bookings", client,
			`{"trainer_id":"t-1","date":"2030-01-07","start_time":"14:00","end_time":"14:20"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"tag":"min_duration"`)
	})

	t.Run("missing trainer", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/bookings", client,
			`{"trainer_id":"nobody","date":"2030-01-07","start_time":"12:00","end_time":"13:00"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("trainer booking another trainer", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/bookings", token(t, "u-9", auth.RoleTrainer, "t-2"),
			`{"trainer_id":"t-1","client_id":"c-3","date":"2030-01-07","start_time":"12:00","end_time":"13:00"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(`{}`))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestValidateBooking_Handler(t *testing.T) {
	s := setupServer(t)
	client := token(t, "c-1", auth.RoleClient, "")

	w := s.do(t, http.MethodPost, "/bookings/validate", client,
		`{"date":"2030-01-05","start_time":"14:00","end_time":"14:20"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp booking.ValidateBookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Len(t, resp.Violations, 2)

	w = s.do(t, http.MethodPost, "/bookings/validate", client,
		`{"date":"2030-01-07","start_time":"14:00","end_time":"15:00"}`)
	assert.JSONEq(t, `{"valid":true,"violations":[]}`, w.Body.String())
}

func TestCancelBooking_Handler(t *testing.T) {
	s := setupServer(t)
	owner := token(t, "c-1", auth.RoleClient, "")
	b := s.create(t, owner, "10:00", "11:00")

	w := s.do(t, http.MethodPost, "/bookings/"+b.ID+"/cancel", token(t, "c-2", auth.RoleClient, ""), "")
	assert.Equal(t, http.StatusNotFound, w.Code, "other clients cannot see the booking")

	s.clock.Set(time.Date(2030, 1, 6, 10, 1, 0, 0, time.UTC))
	w = s.do(t, http.MethodPost, "/bookings/"+b.ID+"/cancel", owner, "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var policy booking.PolicyErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &policy))
	assert.Equal(t, booking.ActionCancel, policy.Action)
	assert.Equal(t, int64(24*3600), policy.RequiredSeconds)
	assert.Equal(t, int64(23*3600+59*60), policy.RemainingSeconds)

	s.clock.Set(time.Date(2030, 1, 6, 8, 0, 0, 0, time.UTC))
	w = s.do(t, http.MethodPost, "/bookings/"+b.ID+"/cancel", owner, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)
	assert.Equal(t, []string{events.BookingCreated, events.BookingCancelled}, s.publisher.types())
}

func TestRescheduleBooking_Handler(t *testing.T) {
	s := setupServer(t)
	owner := token(t, "c-1", auth.RoleClient, "")
	b := s.create(t, owner, "10:00", "11:00")

	w := s.do(t, http.MethodPost, "/bookings/"+b.ID+"/reschedule", owner,
		`{"date":"2030-01-07","start_time":"15:00","end_time":"16:00"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"start_time":"15:00"`)
	assert.Contains(t, s.publisher.types(), events.BookingRescheduled)
}

func TestMarkAttendance_Handler(t *testing.T) {
	s := setupServer(t)
	b := s.create(t, token(t, "c-1", auth.RoleClient, ""), "10:00", "11:00")
	s.clock.Set(time.Date(2030, 1, 7, 11, 30, 0, 0, time.UTC))

	w := s.do(t, http.MethodPost, "/bookings/"+b.ID+"/complete", token(t, "c-1", auth.RoleClient, ""), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/bookings/"+b.ID+"/complete", token(t, "u-9", auth.RoleTrainer, "t-2"), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/bookings/"+b.ID+"/complete", token(t, "u-1", auth.RoleTrainer, "t-1"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)

	w = s.do(t, http.MethodPost, "/bookings/"+b.ID+"/no-show", token(t, "admin", auth.RoleAdmin, ""), "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSlots_Handler(t *testing.T) {
	s := setupServer(t)
	client := token(t, "c-1", auth.RoleClient, "")
	s.create(t, client, "10:00", "11:00")

	w := s.do(t, http.MethodGet, "/trainers/t-1/slots?date=2030-01-07&duration=60", client, "")
	require.Equal(t, http.StatusOK, w.Code)
	var slots []schedule.Slot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	assert.Len(t, slots, 12)
	assert.Equal(t, "09:00", slots[0].Time.String())

	w = s.do(t, http.MethodGet, "/trainers/t-1/slots/recommended?date=2030-01-07", client, "")
	require.Equal(t, http.StatusOK, w.Code)
	var ranked []schedule.RankedSlot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranked))
	require.NotEmpty(t, ranked)
	assert.Equal(t, "09:00", ranked[0].Time.String())

	w = s.do(t, http.MethodGet, "/trainers/t-1/slots?date=2030-01-07&duration=abc", client, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/trainers/t-1/slots?date=2030-01-07&duration=15", client, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConflicts_Handler(t *testing.T) {
	s := setupServer(t)
	client := token(t, "c-1", auth.RoleClient, "")
	b := s.create(t, client, "10:00", "11:00")

	w := s.do(t, http.MethodGet, "/trainers/t-1/conflicts?date=2030-01-07&start=10:30&end=11:30", client, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp booking.ConflictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Conflict)
	assert.Equal(t, b.ID, resp.Booking.ID)

	w = s.do(t, http.MethodGet, "/trainers/t-1/conflicts?date=2030-01-07&start=10:30&end=11:30&exclude="+b.ID, client, "")
	assert.JSONEq(t, `{"conflict":false}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/trainers/ghost/conflicts?date=2030-01-07&start=10:30&end=11:30", client, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/trainers/t-1/conflicts?date=2030-01-07&start=11:30&end=10:30", client, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), schedule.TagTimeOrder)
}

func TestListBookings_Handler(t *testing.T) {
	s := setupServer(t)
	client := token(t, "c-1", auth.RoleClient, "")
	s.create(t, client, "10:00", "11:00")
	s.create(t, token(t, "c-2", auth.RoleClient, ""), "12:00", "13:00")

	w := s.do(t, http.MethodGet, "/bookings", client, "")
	require.Equal(t, http.StatusOK, w.Code)
	var mine []booking.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	w = s.do(t, http.MethodGet, "/trainers/t-1/bookings?date=2030-01-07", client, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/trainers/t-1/bookings?date=2030-01-07", token(t, "u-1", auth.RoleTrainer, "t-1"), "")
	require.Equal(t, http.StatusOK, w.Code)
	var day []booking.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &day))
	assert.Len(t, day, 2)
}
