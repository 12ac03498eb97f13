package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"notification-orchestrator/internal/api"
	"notification-orchestrator/internal/config"
	"notification-orchestrator/internal/db"
	"notification-orchestrator/internal/kafka"
	"notification-orchestrator/internal/logging"
	"notification-orchestrator/internal/services"
	"notification-orchestrator/internal/store"
	"notification-orchestrator/internal/store/memstore"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Choose the notification log
	var repo store.Repository
	if cfg.DB.DSN == "" {
		logger.Warnf("DB_DSN not set, using in-memory notification log")
		repo = memstore.New()
	} else {
		dbConn, err := db.New(cfg.DB.DSN)
		if err != nil {
			logger.Fatalf("Database connection failed: %v", err)
		}
		if err := dbConn.EnsureSchema(ctx); err != nil {
			dbConn.Close()
			logger.Fatalf("Database schema setup failed: %v", err)
		}
		repo = dbConn
	}
	defer repo.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize notification service
	svc := services.New(repo, logger, cfg, services.NewMetrics(reg))
	var wg sync.WaitGroup
	svc.Start(&wg)

	// Initialize Kafka consumer
	var consumer *kafka.Consumer
	if cfg.Kafka.Broker != "" {
		consumer = kafka.NewConsumer([]string{cfg.Kafka.Broker}, cfg.Kafka.Topic, cfg.Kafka.GroupID, svc, logger)
		consumer.Start(ctx, &wg)
	} else {
		logger.Infof("KAFKA_BROKER not set, ingesting over HTTP only")
	}

	// Start API server
	server := &http.Server{
		Addr:              cfg.API.Port,
		Handler:           api.NewRouter(svc, logger, cfg, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API server shutdown failed: %v", err)
	}
	svc.Stop()
	if consumer != nil {
		consumer.Close()
	}
	wg.Wait()
}
