package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"

	"ms-request/internal/config"
	"ms-request/internal/database"
	"ms-request/internal/database/migrations"
	"ms-request/internal/kafka"
	"ms-request/internal/logger"
	request_db "ms-request/internal/request/db"
	"ms-request/internal/request/request_api"
	requests "ms-request/internal/request/service"
)

func prepareSchema(ctx context.Context, cfg *config.Config, bunDB *bun.DB, log *logger.Logger) error {
	if !cfg.Database.AutoMigrate {
		log.Info("MIGRATION", "Automatic migrations disabled")
		return nil
	}
	if cfg.Database.Driver == config.DriverSQLite {
		log.LogMigration("SCHEMA", "Creating sqlite schema from table definitions")
		return database.CreateSchema(ctx, bunDB)
	}
	return migrations.NewRunner(bunDB, log).RunMigrations()
}

func setupNotifier(cfg *config.Config, log *logger.Logger) (*kafka.Producer, requests.Notifier) {
	if !cfg.Kafka.Enabled {
		log.Info("KAFKA", "Kafka disabled, request changes will not be published")
		return nil, nil
	}

	topic := cfg.Kafka.Topics.RequestChanges
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{topic}, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}
	producer := kafka.NewProducer(cfg.Kafka.Brokers, topic, log)
	log.LogKafka("INIT", topic, fmt.Sprintf("producer ready on %v", cfg.Kafka.Brokers))
	return producer, producer
}

func main() {
	cfg := config.Load()
	log := logger.NewLogger(cfg.Log.Dir, cfg.Log.Service)
	defer log.Close()

	log.Info("APP", "Starting Request Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
		cfg = config.Load()
	}

	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := prepareSchema(ctx, cfg, bunDB, log); err != nil {
		log.Fatal("MIGRATION", err.Error())
	}

	producer, notifier := setupNotifier(cfg, log)
	if producer != nil {
		defer producer.Close()
	}

	repo := &request_db.DB{
		Bun:                    bunDB,
		AllowExcessWheelchairs: !cfg.Request.EnforceWheelchairLimit,
	}
	service := requests.NewRequestService(repo, notifier, log)
	handler := request_api.NewHandler(service, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(handler.LogRequests)

	r.Get("/health", request_api.Health)
	r.Route("/api", handler.RegisterRoutes)
	log.Info("ROUTER", "Request routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Request Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Request Service shutdown complete")
	}
}
