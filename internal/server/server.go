package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roma-frontend/fitAccess-sub002/internal/analytics"
	"github.com/roma-frontend/fitAccess-sub002/internal/auth"
	"github.com/roma-frontend/fitAccess-sub002/internal/booking"
	"github.com/roma-frontend/fitAccess-sub002/internal/config"
	"github.com/roma-frontend/fitAccess-sub002/internal/trainer"
)

// Deps are the services the HTTP layer exposes.
type Deps struct {
	Bookings  booking.Service
	Trainers  trainer.Service
	Analytics analytics.Service
	// Publisher may be nil when no event queue is configured.
	Publisher    booking.Publisher
	HealthChecks []HealthCheck
}

type Server struct {
	router  *gin.Engine
	http    *http.Server
	limiter *RateLimiter
}

func New(cfg *config.Config, deps Deps) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	var limiter *RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 3*time.Minute)
		router.Use(limiter.Middleware())
	}

	router.GET("/health", Health(deps.HealthChecks...))
	router.GET("/metrics", Metrics())

	bookingHandler := booking.NewHandler(deps.Bookings, deps.Publisher)
	trainerHandler := trainer.NewHandler(deps.Trainers, deps.Publisher)
	analyticsHandler := analytics.NewHandler(deps.Analytics)

	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware(cfg.JWTSecret), TimeoutMiddleware(cfg.RequestTimeout))
	{
		protected.POST("/bookings/validate", bookingHandler.ValidateBooking)
		protected.POST("/bookings", bookingHandler.CreateBooking)
		protected.GET("/bookings", bookingHandler.ListMyBookings)
		protected.GET("/bookings/:bookingID", bookingHandler.GetBooking)
		protected.POST("/bookings/:bookingID/cancel", bookingHandler.CancelBooking)
		protected.POST("/bookings/:bookingID/reschedule", bookingHandler.RescheduleBooking)

		protected.GET("/trainers/:trainerID", trainerHandler.GetTrainer)
		protected.GET("/trainers/:trainerID/slots", bookingHandler.AvailableSlots)
		protected.GET("/trainers/:trainerID/slots/recommended", bookingHandler.RecommendedSlots)
		protected.GET("/trainers/:trainerID/conflicts", bookingHandler.CheckConflict)
	}

	staff := protected.Group("/")
	staff.Use(auth.RequireRole(auth.RoleTrainer, auth.RoleAdmin))
	{
		staff.POST("/bookings/:bookingID/complete", bookingHandler.MarkCompleted)
		staff.POST("/bookings/:bookingID/no-show", bookingHandler.MarkNoShow)
		staff.GET("/trainers/:trainerID/bookings", bookingHandler.ListTrainerBookings)
		staff.GET("/trainers/:trainerID/stats", analyticsHandler.Stats)
		staff.GET("/trainers/:trainerID/report", analyticsHandler.Report)
		staff.GET("/trainers/:trainerID/forecast", analyticsHandler.Forecast)
	}

	admin := protected.Group("/admin")
	admin.Use(auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/trainers", trainerHandler.CreateTrainer)
		admin.GET("/trainers", trainerHandler.ListTrainers)
		admin.PUT("/trainers/:trainerID/working-hours", trainerHandler.UpdateWorkingHours)
	}

	return &Server{
		router:  router,
		limiter: limiter,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.http.Shutdown(ctx)
}
