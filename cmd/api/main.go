package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turnera/turnos-ai-platform/internal/api/router"
	"github.com/turnera/turnos-ai-platform/internal/app/bootstrap"
	appconfig "github.com/turnera/turnos-ai-platform/internal/config"
	"github.com/turnera/turnos-ai-platform/internal/conversation"
	"github.com/turnera/turnos-ai-platform/internal/messaging"
	"github.com/turnera/turnos-ai-platform/internal/observability/metrics"
	"github.com/turnera/turnos-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting turnos API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if strings.TrimSpace(cfg.OrgID) == "" {
		logger.Error("ORG_ID is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue, err := bootstrap.BuildQueue(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build conversation queue", "error", err)
		os.Exit(1)
	}
	publisher := conversation.NewPublisher(queue, logger)

	m := metrics.NewConversationMetrics(nil)

	authToken := cfg.TwilioAuthToken
	if !cfg.ValidateWebhooks {
		logger.Warn("twilio signature validation disabled")
		authToken = ""
	}
	webhook := messaging.NewWebhookHandler(publisher, cfg.OrgID, authToken, cfg.PublicBaseURL, logger, m)

	r := router.New(router.Config{
		Logger:               logger,
		WhatsAppWebhook:      webhook,
		MetricsHandler:       promhttp.Handler(),
		WebhookRatePerSecond: 10,
		WebhookBurst:         30,
	})

	// With the memory queue the consumer has to live in this process, so
	// the full conversation runtime is wired alongside the HTTP server.
	var worker *conversation.Worker
	if cfg.UseMemoryQueue {
		worker = startInProcessWorker(ctx, cfg, queue, m, logger)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	cancel()
	if worker != nil {
		worker.Wait()
	}

	logger.Info("server stopped")
}

func startInProcessWorker(ctx context.Context, cfg *appconfig.Config, queue conversation.Queue, m *metrics.ConversationMetrics, logger *logging.Logger) *conversation.Worker {
	pool, err := bootstrap.BuildPgxPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to open database pool", "error", err)
		os.Exit(1)
	}
	sqlDB, err := bootstrap.BuildSQLDB(cfg)
	if err != nil {
		logger.Error("failed to open sql database", "error", err)
		os.Exit(1)
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)

	sender, err := messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom, logger)
	if err != nil {
		logger.Error("failed to build whatsapp sender", "error", err)
		os.Exit(1)
	}

	service, err := bootstrap.BuildConversationService(cfg, pool, sqlDB, redisClient, sender, m, logger)
	if err != nil {
		logger.Error("failed to build conversation service", "error", err)
		os.Exit(1)
	}

	worker := conversation.NewWorker(
		service,
		queue,
		logger,
		conversation.WithWorkerCount(cfg.WorkerCount),
	)
	worker.Start(ctx)
	logger.Info("in-process conversation worker started", "workers", cfg.WorkerCount)
	return worker
}
