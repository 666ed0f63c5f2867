package trainer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roma-frontend/fitAccess-sub002/internal/events"
	"github.com/roma-frontend/fitAccess-sub002/internal/trainer"
)

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func setupRouter() *gin.Engine {
	return setupRouterWithPublisher(nil)
}

func setupRouterWithPublisher(pub trainer.Publisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := trainer.NewHandler(trainer.NewService(trainer.NewMemoryRepository()), pub)

	router := gin.New()
	router.POST("/admin/trainers", h.CreateTrainer)
	router.GET("/admin/trainers", h.ListTrainers)
	router.GET("/trainers/:trainerID", h.GetTrainer)
	router.PUT("/admin/trainers/:trainerID/working-hours", h.UpdateWorkingHours)
	return router
}

func TestTrainerHandler_CreateAndGet(t *testing.T) {
	router := setupRouter()

	body := `{"name":"Alex","working_hours":{"monday":{"is_working":true,"start":"09:00","end":"17:00"}},"hourly_rate_cents":6000}`
	req := httptest.NewRequest(http.MethodPost, "/admin/trainers", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created trainer.Trainer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Alex", created.Name)

	req = httptest.NewRequest(http.MethodGet, "/trainers/"+created.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"start":"09:00"`)
}

func TestTrainerHandler_CreateValidation(t *testing.T) {
	router := setupRouter()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"name": "invalid}`, http.StatusBadRequest},
		{"missing name", `{"working_hours":{}}`, http.StatusBadRequest},
		{"bad time in hours", `{"name":"Alex","working_hours":{"monday":{"is_working":true,"start":"9:00","end":"17:00"}}}`, http.StatusBadRequest},
		{"inverted window", `{"name":"Alex","working_hours":{"monday":{"is_working":true,"start":"17:00","end":"09:00"}}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/trainers", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestTrainerHandler_NotFound(t *testing.T) {
	router := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/trainers/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodPut, "/admin/trainers/unknown/working-hours", bytes.NewBufferString(`{"working_hours":{}}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func createTrainer(t *testing.T, router *gin.Engine, body string) trainer.Trainer {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/admin/trainers", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created trainer.Trainer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created
}

func TestTrainerHandler_CreateNormalizesWeekdayKeys(t *testing.T) {
	router := setupRouter()

	created := createTrainer(t, router, `{"name":"Alex","working_hours":{"Monday":{"is_working":true,"start":"09:00","end":"17:00"}}}`)
	assert.Contains(t, created.WorkingHours, "monday")
	assert.NotContains(t, created.WorkingHours, "Monday")

	req := httptest.NewRequest(http.MethodPost, "/admin/trainers", bytes.NewBufferString(
		`{"name":"Alex","working_hours":{"Monday":{"is_working":true,"start":"09:00","end":"17:00"},"monday":{"is_working":false}}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrainerHandler_UpdateWorkingHoursPublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	router := setupRouterWithPublisher(pub)
	created := createTrainer(t, router, `{"name":"Alex","working_hours":{"monday":{"is_working":true,"start":"09:00","end":"17:00"}}}`)

	req := httptest.NewRequest(http.MethodPut, "/admin/trainers/"+created.ID+"/working-hours",
		bytes.NewBufferString(`{"working_hours":{"tuesday":{"is_working":true,"start":"12:00","end":"20:00"}}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TrainerHoursUpdated, pub.events[0].Type)
	assert.Equal(t, created.ID, pub.events[0].TrainerID)

	// Failed updates publish nothing and a publish error does not fail the request.
	req = httptest.NewRequest(http.MethodPut, "/admin/trainers/unknown/working-hours", bytes.NewBufferString(`{"working_hours":{}}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, pub.events, 1)

	pub.err = errors.New("redis down")
	req = httptest.NewRequest(http.MethodPut, "/admin/trainers/"+created.ID+"/working-hours", bytes.NewBufferString(`{"working_hours":{}}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, pub.events, 2)
}
