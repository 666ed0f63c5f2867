package booking

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roma-frontend/fitAccess-sub002/internal/api"
	"github.com/roma-frontend/fitAccess-sub002/internal/auth"
	"github.com/roma-frontend/fitAccess-sub002/internal/events"
	"github.com/roma-frontend/fitAccess-sub002/internal/logger"
	"github.com/roma-frontend/fitAccess-sub002/internal/metrics"
	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

const defaultSlotMinutes = 60

// Publisher receives booking lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type Handler struct {
	service   Service
	publisher Publisher
}

// NewHandler wires the booking endpoints. publisher may be nil.
func NewHandler(service Service, publisher Publisher) *Handler {
	return &Handler{service: service, publisher: publisher}
}

// ValidateBooking godoc
// @Summary      Validate booking request
// @Description  Checks date, time format, order and duration rules without touching any schedule.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      ValidateBookingRequest  true  "Proposed interval"
// @Success      200      {object}  ValidateBookingResponse
// @Router       /bookings/validate [post]
func (h *Handler) ValidateBooking(c *gin.Context) {
	var req ValidateBookingRequest
	if !api.BindJSON(c, &req) {
		return
	}

	err := h.service.ValidateBooking(c.Request.Context(), req.Date, req.StartTime, req.EndTime)
	var verr *schedule.ValidationError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, ValidateBookingResponse{Valid: true, Violations: []schedule.Violation{}})
	case errors.As(err, &verr):
		c.JSON(http.StatusOK, ValidateBookingResponse{Valid: false, Violations: verr.Violations})
	default:
		RespondError(c, err)
	}
}

// CreateBooking godoc
// @Summary      Book a session
// @Description  Books a trainer interval. Clients always book for themselves; trainers and admins pass client_id.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateBookingRequest  true  "Booking"
// @Success      201      {object}  Booking
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  ConflictErrorResponse
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if !api.BindJSON(c, &req) {
		return
	}

	userID, _ := auth.GetUserID(c)
	role, _ := auth.GetRole(c)
	switch role {
	case auth.RoleClient:
		req.ClientID = userID
	case auth.RoleTrainer:
		if !auth.CanActForTrainer(c, req.TrainerID) {
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Trainers can only book their own schedule"})
			return
		}
	}

	b, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}

	metrics.RecordBooking(string(b.Type))
	h.publish(c, events.BookingCreated, b)
	c.JSON(http.StatusCreated, b)
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Booking
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	bookings, err := h.service.ListClientBookings(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// GetBooking godoc
// @Summary      Get booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking ID"
// @Success      200        {object}  Booking
// @Failure      404        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	b, ok := h.authorizedBooking(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, b)
}

// CancelBooking godoc
// @Summary      Cancel booking
// @Description  Allowed while at least the configured lead time (24h by default) remains before the session.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking ID"
// @Success      200        {object}  Booking
// @Failure      404        {object}  api.ErrorResponse
// @Failure      422        {object}  PolicyErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	if _, ok := h.authorizedBooking(c); !ok {
		return
	}

	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		RespondError(c, err)
		return
	}

	metrics.RecordTransition(string(b.Status))
	h.publish(c, events.BookingCancelled, b)
	c.JSON(http.StatusOK, b)
}

// RescheduleBooking godoc
// @Summary      Reschedule booking
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bookingID  path      string                    true  "Booking ID"
// @Param        request    body      RescheduleBookingRequest  true  "New interval"
// @Success      200        {object}  Booking
// @Failure      400        {object}  api.ValidationErrorResponse
// @Failure      409        {object}  ConflictErrorResponse
// @Failure      422        {object}  PolicyErrorResponse
// @Router       /bookings/{bookingID}/reschedule [post]
func (h *Handler) RescheduleBooking(c *gin.Context) {
	var req RescheduleBookingRequest
	if !api.BindJSON(c, &req) {
		return
	}
	if _, ok := h.authorizedBooking(c); !ok {
		return
	}

	b, err := h.service.RescheduleBooking(c.Request.Context(), c.Param("bookingID"), req)
	if err != nil {
		RespondError(c, err)
		return
	}

	metrics.RecordReschedule()
	h.publish(c, events.BookingRescheduled, b)
	c.JSON(http.StatusOK, b)
}

// MarkCompleted godoc
// @Summary      Mark session completed
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking ID"
// @Success      200        {object}  Booking
// @Failure      422        {object}  PolicyErrorResponse
// @Router       /bookings/{bookingID}/complete [post]
func (h *Handler) MarkCompleted(c *gin.Context) {
	h.markAttendance(c, h.service.MarkCompleted, events.BookingCompleted)
}

// MarkNoShow godoc
// @Summary      Mark client no-show
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking ID"
// @Success      200        {object}  Booking
// @Failure      422        {object}  PolicyErrorResponse
// @Router       /bookings/{bookingID}/no-show [post]
func (h *Handler) MarkNoShow(c *gin.Context) {
	h.markAttendance(c, h.service.MarkNoShow, events.BookingNoShow)
}

func (h *Handler) markAttendance(c *gin.Context, mark func(context.Context, string) (*Booking, error), event string) {
	current, ok := h.authorizedBooking(c)
	if !ok {
		return
	}
	if !auth.CanActForTrainer(c, current.TrainerID) {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Insufficient permissions"})
		return
	}

	b, err := mark(c.Request.Context(), current.ID)
	if err != nil {
		RespondError(c, err)
		return
	}

	metrics.RecordTransition(string(b.Status))
	h.publish(c, event, b)
	c.JSON(http.StatusOK, b)
}

// AvailableSlots godoc
// @Summary      Available slots
// @Description  Conflict-free starts on the slot grid inside the trainer's working hours.
// @Tags         slots
// @Security     BearerAuth
// @Produce      json
// @Param        trainerID  path      string  true   "Trainer ID"
// @Param        date       query     string  true   "Date (YYYY-MM-DD)"
// @Param        duration   query     int     false  "Session length in minutes (default 60)"
// @Success      200        {array}   schedule.Slot
// @Failure      400        {object}  api.ValidationErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /trainers/{trainerID}/slots [get]
func (h *Handler) AvailableSlots(c *gin.Context) {
	duration, ok := durationParam(c)
	if !ok {
		return
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), c.Param("trainerID"), c.Query("date"), duration)
	if err != nil {
		RespondError(c, err)
		return
	}

	metrics.RecordSlotQuery("available", len(slots))
	c.JSON(http.StatusOK, slots)
}

// RecommendedSlots godoc
// @Summary      Recommended slots
// @Description  Available slots ranked by preferred hours and adjacency to existing bookings.
// @Tags         slots
// @Security     BearerAuth
// @Produce      json
// @Param        trainerID  path      string  true   "Trainer ID"
// @Param        date       query     string  true   "Date (YYYY-MM-DD)"
// @Param        duration   query     int     false  "Session length in minutes (default 60)"
// @Success      200        {array}   schedule.RankedSlot
// @Router       /trainers/{trainerID}/slots/recommended [get]
func (h *Handler) RecommendedSlots(c *gin.Context) {
	duration, ok := durationParam(c)
	if !ok {
		return
	}

	ranked, err := h.service.RecommendedSlots(c.Request.Context(), c.Param("trainerID"), c.Query("date"), duration)
	if err != nil {
		RespondError(c, err)
		return
	}

	metrics.RecordSlotQuery("recommended", len(ranked))
	c.JSON(http.StatusOK, ranked)
}

// CheckConflict godoc
// @Summary      Check interval for conflicts
// @Tags         slots
// @Security     BearerAuth
// @Produce      json
// @Param        trainerID  path      string  true   "Trainer ID"
// @Param        date       query     string  true   "Date (YYYY-MM-DD)"
// @Param        start      query     string  true   "Start (HH:MM)"
// @Param        end        query     string  true   "End (HH:MM)"
// @Param        exclude    query     string  false  "Booking ID to ignore"
// @Success      200        {object}  ConflictResponse
// @Failure      400        {object}  api.ValidationErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /trainers/{trainerID}/conflicts [get]
func (h *Handler) CheckConflict(c *gin.Context) {
	conflict, err := h.service.FindConflict(c.Request.Context(),
		c.Param("trainerID"), c.Query("date"), c.Query("start"), c.Query("end"), c.Query("exclude"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ConflictResponse{Conflict: conflict != nil, Booking: conflict})
}

// ListTrainerBookings godoc
// @Summary      Trainer day schedule
// @Tags         trainers
// @Security     BearerAuth
// @Produce      json
// @Param        trainerID  path      string  true   "Trainer ID"
// @Param        date       query     string  false  "Date (YYYY-MM-DD), today when omitted"
// @Success      200        {array}   Booking
// @Failure      403        {object}  api.ErrorResponse
// @Router       /trainers/{trainerID}/bookings [get]
func (h *Handler) ListTrainerBookings(c *gin.Context) {
	trainerID := c.Param("trainerID")
	if !auth.CanActForTrainer(c, trainerID) {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Insufficient permissions"})
		return
	}

	bookings, err := h.service.ListTrainerBookings(c.Request.Context(), trainerID, c.Query("date"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// authorizedBooking loads the path booking and checks the caller may see it.
// It writes the error response itself.
func (h *Handler) authorizedBooking(c *gin.Context) (*Booking, bool) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		RespondError(c, err)
		return nil, false
	}

	userID, _ := auth.GetUserID(c)
	role, _ := auth.GetRole(c)
	allowed := role == auth.RoleAdmin ||
		(role == auth.RoleClient && b.ClientID == userID) ||
		(role == auth.RoleTrainer && auth.CanActForTrainer(c, b.TrainerID))
	if !allowed {
		// Other clients' bookings are reported as missing.
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
		return nil, false
	}
	return b, true
}

func (h *Handler) publish(c *gin.Context, eventType string, b *Booking) {
	if h.publisher == nil {
		return
	}

	err := h.publisher.Publish(c.Request.Context(), events.Event{
		Type:      eventType,
		BookingID: b.ID,
		TrainerID: b.TrainerID,
		ClientID:  b.ClientID,
		Date:      b.Date.String(),
		StartTime: b.StartTime.String(),
		EndTime:   b.EndTime.String(),
		Status:    string(b.Status),
	})
	if err != nil {
		logger.WithError(err).Warnw("Failed to publish booking event", "type", eventType, "booking_id", b.ID)
	}
}

func durationParam(c *gin.Context) (int, bool) {
	raw := c.Query("duration")
	if raw == "" {
		return defaultSlotMinutes, true
	}

	minutes, err := strconv.Atoi(raw)
	if err != nil {
		api.RespondWithValidationErrors(c, []schedule.Violation{{
			Field: "duration", Tag: "numeric", Message: "duration must be a whole number of minutes",
		}})
		return 0, false
	}
	return minutes, true
}

// RespondError maps engine errors onto HTTP responses.
func RespondError(c *gin.Context, err error) {
	var (
		verr     *schedule.ValidationError
		conflict *ConflictError
		policy   *PolicyError
		notFound *NotFoundError
	)

	switch {
	case errors.As(err, &verr):
		for _, v := range verr.Violations {
			metrics.RecordValidationFailure(v.Tag)
		}
		api.RespondWithValidationErrors(c, verr.Violations)
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: notFound.Error()})
	case errors.As(err, &conflict):
		metrics.RecordConflict()
		b := conflict.Conflicting
		c.JSON(http.StatusConflict, ConflictErrorResponse{Error: conflict.Error(), Conflicting: &b})
	case errors.As(err, &policy):
		metrics.RecordPolicyRejection(policy.Action)
		c.JSON(http.StatusUnprocessableEntity, PolicyErrorResponse{
			Error:            policy.Error(),
			Action:           policy.Action,
			Reason:           policy.Reason,
			RequiredSeconds:  int64(policy.Required.Seconds()),
			RemainingSeconds: int64(policy.Remaining.Seconds()),
		})
	case errors.Is(err, ErrStatusChanged):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Booking was modified concurrently, retry"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, api.ErrorResponse{Error: "Request timed out"})
	default:
		logger.WithError(err).Errorw("Booking request failed", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
	}
}
