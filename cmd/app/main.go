package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roma-frontend/fitAccess-sub002/internal/analytics"
	"github.com/roma-frontend/fitAccess-sub002/internal/booking"
	"github.com/roma-frontend/fitAccess-sub002/internal/clock"
	"github.com/roma-frontend/fitAccess-sub002/internal/config"
	"github.com/roma-frontend/fitAccess-sub002/internal/db"
	"github.com/roma-frontend/fitAccess-sub002/internal/events"
	"github.com/roma-frontend/fitAccess-sub002/internal/logger"
	"github.com/roma-frontend/fitAccess-sub002/internal/server"
	"github.com/roma-frontend/fitAccess-sub002/internal/trainer"
)

// @title FitAccess Booking API
// @version 1.0
// @description Trainer scheduling: slot discovery, conflict-free booking, lifecycle policies and workload analytics.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting FitAccess booking service", "env", cfg.Env, "storage", cfg.Storage, "timezone", cfg.Location.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.New(cfg.Location)

	var (
		bookingRepo booking.Repository
		trainerRepo trainer.Repository
		checks      []server.HealthCheck
	)
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		bookingRepo = booking.NewMemoryRepository(clk)
		trainerRepo = trainer.NewMemoryRepository()
	default:
		logger.Info("Connecting to database...")
		database, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Migrations completed")

		bookingRepo = booking.NewRepository(database)
		trainerRepo = trainer.NewRepository(database)
		checks = append(checks, server.HealthCheck{Name: "database", Check: func(ctx context.Context) error {
			ready, err := db.SchemaReady(ctx, database)
			if err != nil {
				return err
			}
			if !ready {
				return fmt.Errorf("bookings table missing")
			}
			return nil
		}})
	}

	bookingService := booking.NewService(bookingRepo, trainerRepo, clk, cfg.Policy)
	analyticsService := analytics.NewService(bookingRepo, trainerRepo, clk, cfg.Policy, cfg.ForecastSlotMinutes)

	deps := server.Deps{
		Bookings:  bookingService,
		Trainers:  trainer.NewService(trainerRepo),
		Analytics: analyticsService,
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warnw("Redis not reachable at startup", "addr", cfg.Redis.Addr)
		}

		queue := events.New(rdb, clk)
		defer queue.Close()
		cache := analytics.NewCache(rdb)

		deps.Publisher = queue
		deps.Analytics = analytics.NewCachedService(analyticsService, cache, clk, cfg.AnalyticsCacheTTL)
		deps.HealthChecks = append(checks, server.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})

		go queue.Start(ctx, func(ctx context.Context, e events.Event) error {
			logger.Info("Event", "type", e.Type, "booking_id", e.BookingID, "trainer_id", e.TrainerID, "status", e.Status)
			return cache.HandleEvent(ctx, e)
		})
		go watchQueue(ctx, queue)
		logger.Info("Redis event queue and analytics cache enabled", "addr", cfg.Redis.Addr)
	} else {
		deps.HealthChecks = checks
		logger.Info("REDIS_ADDR not set, events and analytics cache disabled")
	}

	srv := server.New(cfg, deps)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

// watchQueue refreshes the queue length gauge.
func watchQueue(ctx context.Context, queue *events.Queue) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			queue.QueueLength(ctx)
		}
	}
}
