package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/examstack/examhall-backend/internal/answercache"
	"github.com/examstack/examhall-backend/internal/config"
	"github.com/examstack/examhall-backend/internal/database"
	"github.com/examstack/examhall-backend/internal/exam"
	"github.com/examstack/examhall-backend/internal/grading"
	"github.com/examstack/examhall-backend/internal/handler"
	"github.com/examstack/examhall-backend/internal/logger"
	"github.com/examstack/examhall-backend/internal/repository"
	"github.com/examstack/examhall-backend/internal/router"
	"github.com/examstack/examhall-backend/internal/session"
	"github.com/examstack/examhall-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExamHall session coordinator")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.MaxDBConns, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	attemptRepo := repository.NewAttemptRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	snapshotRepo := repository.NewSnapshotRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)

	// ─── Initialize Core Components ────────────────────────────────────
	// The cache and registry are the only long-lived shared mutable
	// structures. Both are built once here and injected; nothing reaches
	// for them as globals.
	cache := answercache.New()
	registry := session.NewRegistry()

	examService := exam.NewService(examRepo, snapshotRepo, rdb, log)
	auditSink := grading.NewRedisAuditSink(rdb)
	grader := grading.NewGrader(attemptRepo, examService, cache, auditSink, log)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		WS: handler.NewWSHandler(
			attemptRepo, examService, grader,
			cache, registry,
			cfg.GradingTimeout, log, cfg.AllowedOrigins,
		),
		System: handler.NewSystemHandler(registry),
	}

	// ─── Start Background Workers ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	auditWorker := worker.NewAnswerAuditWorker(answerRepo, rdb, log)
	go auditWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ──────────────────────────────────────────
	// Load every active exam's answer key BEFORE accepting traffic so the
	// first grading run never races a lazy load.
	if err := examService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new connections (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the audit worker and let it flush its batch.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
