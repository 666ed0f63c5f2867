package analytics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roma-frontend/fitAccess-sub002/internal/api"
	"github.com/roma-frontend/fitAccess-sub002/internal/auth"
	"github.com/roma-frontend/fitAccess-sub002/internal/booking"
	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

const (
	defaultWindowDays  = 30
	defaultHorizonDays = 7
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Stats godoc
// @Summary      Efficiency stats
// @Description  Utilization, cancellation, no-show and completion rates over the trailing window ending today.
// @Tags         analytics
// @Security     BearerAuth
// @Produce      json
// @Param        trainerID    path      string  true   "Trainer ID"
// @Param        window_days  query     int     false  "Window length in days (default 30)"
// @Success      200          {object}  Stats
// @Failure      400          {object}  api.ValidationErrorResponse
// @Failure      403          {object}  api.ErrorResponse
// @Failure      404          {object}  api.ErrorResponse
// @Router       /trainers/{trainerID}/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	trainerID, days, ok := h.params(c, "window_days", defaultWindowDays)
	if !ok {
		return
	}

	stats, err := h.service.EfficiencyStats(c.Request.Context(), trainerID, days)
	if err != nil {
		booking.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Report godoc
// @Summary      Efficiency report
// @Description  Stats plus weekday counts, peak hours and the monthly trend of completed sessions.
// @Tags         analytics
// @Security     BearerAuth
// @Produce      json
// @Param        trainerID    path      string  true   "Trainer ID"
// @Param        window_days  query     int     false  "Window length in days (default 30)"
// @Success      200          {object}  Report
// @Router       /trainers/{trainerID}/report [get]
func (h *Handler) Report(c *gin.Context) {
	trainerID, days, ok := h.params(c, "window_days", defaultWindowDays)
	if !ok {
		return
	}

	report, err := h.service.EfficiencyReport(c.Request.Context(), trainerID, days)
	if err != nil {
		booking.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Forecast godoc
// @Summary      Workload forecast
// @Description  Booked sessions, free slots and booked share of working time for each upcoming day.
// @Tags         analytics
// @Security     BearerAuth
// @Produce      json
// @Param        trainerID     path      string  true   "Trainer ID"
// @Param        horizon_days  query     int     false  "Days ahead starting today (default 7)"
// @Success      200           {object}  Forecast
// @Router       /trainers/{trainerID}/forecast [get]
func (h *Handler) Forecast(c *gin.Context) {
	trainerID, days, ok := h.params(c, "horizon_days", defaultHorizonDays)
	if !ok {
		return
	}

	forecast, err := h.service.WorkloadForecast(c.Request.Context(), trainerID, days)
	if err != nil {
		booking.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// params checks the caller may read the trainer's figures and parses the
// day count query parameter.
func (h *Handler) params(c *gin.Context, name string, def int) (string, int, bool) {
	trainerID := c.Param("trainerID")
	if !auth.CanActForTrainer(c, trainerID) {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Insufficient permissions"})
		return "", 0, false
	}

	raw := c.Query(name)
	if raw == "" {
		return trainerID, def, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		api.RespondWithValidationErrors(c, []schedule.Violation{{
			Field: name, Tag: "numeric", Message: name + " must be a whole number of days",
		}})
		return "", 0, false
	}
	return trainerID, days, true
}
