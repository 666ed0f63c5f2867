package trainer

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roma-frontend/fitAccess-sub002/internal/api"
	"github.com/roma-frontend/fitAccess-sub002/internal/events"
	"github.com/roma-frontend/fitAccess-sub002/internal/logger"
)

// Publisher receives trainer change events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type Handler struct {
	service   Service
	publisher Publisher
}

// NewHandler wires the trainer endpoints. publisher may be nil.
func NewHandler(service Service, publisher Publisher) *Handler {
	return &Handler{service: service, publisher: publisher}
}

// CreateTrainer godoc
// @Summary      Create trainer
// @Description  Registers a trainer with weekly working hours. Admin only.
// @Tags         trainers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateTrainerRequest  true  "Trainer"
// @Success      201      {object}  Trainer
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/trainers [post]
func (h *Handler) CreateTrainer(c *gin.Context) {
	var req CreateTrainerRequest
	if !api.BindJSON(c, &req) {
		return
	}

	t, err := h.service.CreateTrainer(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, t)
}

// GetTrainer godoc
// @Summary      Get trainer
// @Tags         trainers
// @Security     BearerAuth
// @Produce      json
// @Param        trainerID  path      string  true  "Trainer ID"
// @Success      200        {object}  Trainer
// @Failure      404        {object}  api.ErrorResponse
// @Router       /trainers/{trainerID} [get]
func (h *Handler) GetTrainer(c *gin.Context) {
	t, err := h.service.GetTrainer(c.Request.Context(), c.Param("trainerID"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

// ListTrainers godoc
// @Summary      List trainers
// @Tags         trainers
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Trainer
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/trainers [get]
func (h *Handler) ListTrainers(c *gin.Context) {
	trainers, err := h.service.ListTrainers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trainers)
}

// UpdateWorkingHours godoc
// @Summary      Replace working hours
// @Tags         trainers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        trainerID  path      string                     true  "Trainer ID"
// @Param        request    body      UpdateWorkingHoursRequest  true  "Working hours"
// @Success      200        {object}  Trainer
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /admin/trainers/{trainerID}/working-hours [put]
func (h *Handler) UpdateWorkingHours(c *gin.Context) {
	var req UpdateWorkingHoursRequest
	if !api.BindJSON(c, &req) {
		return
	}

	t, err := h.service.UpdateWorkingHours(c.Request.Context(), c.Param("trainerID"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.publishHoursUpdated(c, t.ID)
	c.JSON(http.StatusOK, t)
}

func (h *Handler) publishHoursUpdated(c *gin.Context, trainerID string) {
	if h.publisher == nil {
		return
	}

	err := h.publisher.Publish(c.Request.Context(), events.Event{
		Type:      events.TrainerHoursUpdated,
		TrainerID: trainerID,
	})
	if err != nil {
		logger.WithError(err).Warnw("Failed to publish trainer event", "trainer_id", trainerID)
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTrainerNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Trainer not found"})
	case errors.Is(err, ErrWorkingHoursInvalid):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error"})
	}
}
