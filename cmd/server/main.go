package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/scholarsrs/internal/api"
	"github.com/vytor/scholarsrs/internal/config"
	"github.com/vytor/scholarsrs/internal/db"
	"github.com/vytor/scholarsrs/internal/jobs"
	"github.com/vytor/scholarsrs/internal/logger"
	"github.com/vytor/scholarsrs/internal/repository/sqlite"
	"github.com/vytor/scholarsrs/internal/services"
	"github.com/vytor/scholarsrs/internal/session"
	"github.com/vytor/scholarsrs/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("ScholarSRS Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("archive_worker_count=%d", cfg.ArchiveWorkerCount)
	log.Debug("archive_queue_size=%d", cfg.ArchiveQueueSize)
	log.Debug("break_interval=%s break_duration=%s", cfg.BreakInterval, cfg.BreakDuration)
	log.Debug("poll_interval=%s", cfg.PollInterval)
	log.Debug("min_session_hours=%.2f", cfg.MinSessionHours)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Initialize services
	reportRepo := sqlite.NewReportRepository(database.DB)
	reportService := services.NewReportService(reportRepo)

	archivePool := worker.NewPool(cfg.ArchiveWorkerCount, cfg.ArchiveQueueSize)
	archiveQueue := jobs.NewWorkerQueue(archivePool, reportService)

	manager := session.NewManager(session.Config{
		MinHours:      cfg.MinSessionHours,
		BreakInterval: cfg.BreakInterval,
		BreakDuration: cfg.BreakDuration,
		PollInterval:  cfg.PollInterval,
		Logger:        log,
	})
	unsubscribe := services.ArchiveCompletedSessions(manager.Bus(), archiveQueue, log)
	defer unsubscribe()

	srv := &api.Server{
		DB:            database,
		StudyService:  services.NewStudyService(manager),
		ReportService: reportService,
		RateLimiter:   api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	ctx, cancel := context.WithCancel(context.Background())
	archivePool.Start(ctx)

	// WriteTimeout stays zero so the event stream is not cut off; JSON
	// routes carry their own timeout. Open streams end when shutdown starts.
	streamCtx, closeStreams := context.WithCancel(context.Background())
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return streamCtx },
	}
	httpServer.RegisterOnShutdown(closeStreams)

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// An unfinished session is dropped, never archived.
	if err := manager.Stop(); err == nil {
		log.Info("discarded running session")
	}

	log.Debug("stopping archive pool")
	archivePool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("ScholarSRS Server Stopped")
	log.Info("===========================================")
}
