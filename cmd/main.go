package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "customer-api/docs"
	"customer-api/internal/api"
	"customer-api/internal/batch"
	"customer-api/internal/config"
	"customer-api/internal/domain/customer"
	"customer-api/internal/event"
	"customer-api/internal/infrastructure/database/gormstore"
	"customer-api/internal/infrastructure/database/migrations"
	"customer-api/internal/infrastructure/database/postgres"
	"customer-api/internal/infrastructure/logging"
	"customer-api/internal/seed"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Customer API
// @version 1.0
// @description REST CRUD service for customer records with email-uniqueness validation.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
func main() {
	cfg, logger := initializeApp()

	if cfg.Database.Migrate {
		runMigrations(cfg, logger)
	}

	repo, closeStore := initializeStore(cfg, logger)
	defer closeStore()

	publisher, closePublisher := initializePublisher(cfg, logger)
	defer closePublisher()

	customerService := customer.NewCustomerService(repo, publisher, logger)

	if cfg.Seed.Enabled {
		if err := seed.Apply(context.Background(), cfg.Seed, customerService, logger); err != nil {
			logger.Error("Failed to seed customer data", slog.Any("error", err))
			os.Exit(1)
		}
	}

	metricsJob := batch.NewCustomerMetricsJob(customerService, logger)
	cronScheduler := startBatchJobs(cfg, logger, metricsJob)

	router := api.SetupRouter(customerService, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func runMigrations(cfg *config.Config, logger *slog.Logger) {
	logger.Info("Applying database migrations...")
	if err := migrations.Apply(context.Background(), cfg.Database.URL); err != nil {
		logger.Error("Failed to apply database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Database migrations up to date.")
}

// initializeStore builds the customer repository for the configured backend
// and returns it along with a cleanup function for the underlying connection.
func initializeStore(cfg *config.Config, logger *slog.Logger) (customer.Repository, func()) {
	switch cfg.Database.Backend {
	case "postgres", "":
		logger.Info("Initializing database connection pool...", "backend", "postgres")
		dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
		if err != nil {
			logger.Error("Failed to initialize database connection pool", "error", err)
			os.Exit(1)
		}
		repo := postgres.NewCustomerRepository(dbPool, logger)
		return repo, func() {
			logger.Info("Closing database connection pool...")
			dbPool.Close()
		}
	case "gorm":
		logger.Info("Initializing database connection...", "backend", "gorm")
		db, err := gormstore.NewConnection(cfg.Database, logger)
		if err != nil {
			logger.Error("Failed to initialize database connection", "error", err)
			os.Exit(1)
		}
		repo := gormstore.NewCustomerRepository(db, logger)
		return repo, func() {
			logger.Info("Closing database connection...")
			sqlDB, err := db.DB()
			if err != nil {
				logger.Warn("Failed to access underlying database handle", "error", err)
				return
			}
			if err := sqlDB.Close(); err != nil {
				logger.Warn("Failed to close database connection", "error", err)
			}
		}
	default:
		slog.Error("Unknown database backend", "backend", cfg.Database.Backend)
		os.Exit(1)
		return nil, nil
	}
}

func initializePublisher(cfg *config.Config, logger *slog.Logger) (event.Publisher, func()) {
	if !cfg.Events.Enabled {
		logger.Info("Event publishing disabled, using noop publisher.")
		return event.NewNoopPublisher(), func() {}
	}

	logger.Info("Connecting to RabbitMQ...", "exchange", cfg.Events.ExchangeName)
	conn, err := amqp.Dial(cfg.Events.URL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", slog.Any("error", err))
		os.Exit(1)
	}

	publisher, err := event.NewRabbitMQPublisher(conn, cfg.Events.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to initialize RabbitMQ publisher", slog.Any("error", err))
		os.Exit(1)
	}

	return publisher, func() {
		logger.Info("Closing RabbitMQ connection...")
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to close RabbitMQ connection", "error", err)
		}
	}
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		} else {
			logger.Info("HTTP server shutdown initiated.")
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}
	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, metricsJob *batch.CustomerMetricsJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Batch.MetricsRefreshSchedule
	if scheduleSpec == "" {
		scheduleSpec = "*/5 * * * *"
		logger.Warn("Batch metrics refresh schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Batch.MetricsRefreshTimeout
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "CustomerMetricsRefresh")
		jobLogger.Info("Cron triggered: Running customer metrics refresh job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := metricsJob.Run(ctx); runErr != nil {
			jobLogger.Error("Customer metrics refresh job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Customer metrics refresh job finished successfully.")
		}
	}))

	if err != nil {
		logger.Error("Failed to schedule customer metrics refresh job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled customer metrics refresh job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
