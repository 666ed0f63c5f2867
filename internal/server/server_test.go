package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roma-frontend/fitAccess-sub002/internal/analytics"
	"github.com/roma-frontend/fitAccess-sub002/internal/api"
	"github.com/roma-frontend/fitAccess-sub002/internal/auth"
	"github.com/roma-frontend/fitAccess-sub002/internal/booking"
	"github.com/roma-frontend/fitAccess-sub002/internal/clock"
	"github.com/roma-frontend/fitAccess-sub002/internal/config"
	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
	"github.com/roma-frontend/fitAccess-sub002/internal/trainer"
)

const testSecret = "server-test-secret"

func testConfig() *config.Config {
	return &config.Config{
		Env:            config.EnvDevelopment,
		Port:           "0",
		Storage:        config.StorageMemory,
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"*"},
		RequestTimeout: 5 * time.Second,
		Location:       time.UTC,
		Policy:         schedule.DefaultPolicy(),
	}
}

func newTestServer(t *testing.T, checks ...HealthCheck) *Server {
	t.Helper()

	trainers := trainer.NewMemoryRepository()
	clk := clock.NewFixed(time.Date(2030, 1, 6, 8, 0, 0, 0, time.UTC))
	bookings := booking.NewMemoryRepository(clk)
	policy := schedule.DefaultPolicy()

	return New(testConfig(), Deps{
		Bookings:     booking.NewService(bookings, trainers, clk, policy),
		Trainers:     trainer.NewService(trainers),
		Analytics:    analytics.NewService(bookings, trainers, clk, policy, 60),
		HealthChecks: checks,
	})
}

func call(t *testing.T, s *Server, method, path, role, trainerID, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		tok, err := auth.GenerateAccessToken("u-"+role, role, trainerID, testSecret)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, HealthCheck{Name: "database", Check: func(context.Context) error { return nil }})

	w := call(t, s, http.MethodGet, "/health", "", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
}

func TestHealth_Degraded(t *testing.T) {
	s := newTestServer(t,
		HealthCheck{Name: "database", Check: func(context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	)

	w := call(t, s, http.MethodGet, "/health", "", "", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unavailable", resp.Checks["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	call(t, s, http.MethodGet, "/health", "", "", "")

	w := call(t, s, http.MethodGet, "/metrics", "", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fitaccess_http_requests_total")
}

func TestRoutes_RequireAuth(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, call(t, s, http.MethodGet, "/bookings", "", "", "").Code)
	assert.Equal(t, http.StatusForbidden, call(t, s, http.MethodGet, "/admin/trainers", auth.RoleClient, "", "").Code)
	assert.Equal(t, http.StatusForbidden, call(t, s, http.MethodGet, "/trainers/t-1/stats", auth.RoleClient, "", "").Code)
	assert.Equal(t, http.StatusForbidden,
		call(t, s, http.MethodPost, "/bookings/b-1/complete", auth.RoleClient, "", "").Code)
}

func TestRoutes_BookingFlow(t *testing.T) {
	s := newTestServer(t)

	w := call(t, s, http.MethodPost, "/admin/trainers", auth.RoleAdmin, "",
		`{"name":"Alex","working_hours":{"monday":{"is_working":true,"start":"09:00","end":"17:00"}}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tr trainer.Trainer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tr))

	w = call(t, s, http.MethodGet, "/trainers/"+tr.ID+"/slots?date=2030-01-07", auth.RoleClient, "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var slots []schedule.Slot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	assert.Len(t, slots, 15)

	body := `{"trainer_id":"` + tr.ID + `","date":"2030-01-07","start_time":"10:00","end_time":"11:00"}`
	w = call(t, s, http.MethodPost, "/bookings", auth.RoleClient, "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, s, http.MethodPost, "/bookings", auth.RoleClient, "", body)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.True(t, strings.Contains(w.Body.String(), "conflicting_booking"))

	w = call(t, s, http.MethodGet, "/trainers/"+tr.ID+"/forecast?horizon_days=2", auth.RoleTrainer, tr.ID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var forecast analytics.Forecast
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forecast))
	require.Len(t, forecast.Days, 2)
	assert.Equal(t, 1, forecast.Days[1].ScheduledCount)
}
