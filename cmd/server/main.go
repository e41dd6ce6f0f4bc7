package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/devdattatalele/zapmygoal/internal/config"
	"github.com/devdattatalele/zapmygoal/internal/ftp"
	"github.com/devdattatalele/zapmygoal/internal/gemini"
	"github.com/devdattatalele/zapmygoal/internal/handler"
	"github.com/devdattatalele/zapmygoal/internal/lock"
	"github.com/devdattatalele/zapmygoal/internal/repository"
	"github.com/devdattatalele/zapmygoal/internal/retry"
	"github.com/devdattatalele/zapmygoal/internal/service"
	"github.com/devdattatalele/zapmygoal/pkg/db"
	"github.com/devdattatalele/zapmygoal/pkg/logger"
	"github.com/devdattatalele/zapmygoal/pkg/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.LoadConfig()
	appLogger := logger.NewLogger("zapmygoal")
	appMetrics := metrics.NewMetrics("api")

	// Database
	conn, err := db.NewConnection(db.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()
	appLogger.Info("Connected to database")

	// Redis, for per-challenge submission claims
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var submissionLock lock.SubmissionLock
	if pingErr := redisClient.Ping(context.Background()).Err(); pingErr != nil {
		appLogger.Warnf("Redis unavailable (%v), using in-process submission claims", pingErr)
		submissionLock = lock.NewMemoryLock()
	} else {
		submissionLock = lock.NewRedisLock(redisClient, 2*time.Minute)
	}

	// Gemini classifier
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout)
	cancel()
	if err != nil {
		appLogger.Fatalf("Failed to initialize Gemini client: %v", err)
	}

	// FTP media storage
	var ftpClient ftp.Client
	if cfg.Storage.Host == "" {
		appLogger.Warn("FTP storage not configured, keeping proof media in memory")
		ftpClient = ftp.NewMockClient(cfg.Storage.BaseURL)
	} else {
		ftpClient = ftp.NewFTPClient(
			cfg.Storage.Host, cfg.Storage.Port,
			cfg.Storage.User, cfg.Storage.Password,
			cfg.Storage.BaseURL,
		)
	}
	defer ftpClient.Close()

	// Repositories
	challengeRepo := repository.NewChallengeRepository(conn.DB)
	submissionRepo := repository.NewSubmissionRepository(conn.DB)
	walletRepo := repository.NewWalletRepository(conn.DB)
	transactionRepo := repository.NewTransactionRepository(conn.DB)
	reminderRepo := repository.NewReminderRepository(conn.DB)
	profileRepo := repository.NewProfileRepository(conn.DB)

	// Outbound channels: WhatsApp primary, SMS fallback
	whatsappChannel := service.NewWhatsAppChannel(cfg.WhatsApp.GatewayURL, cfg.WhatsApp.APIKey)
	smsChannel := service.NewKavenegarChannel(cfg.SMS.APIKey, cfg.SMS.Sender)

	transportRetry := retry.DefaultPolicy()
	notifier := service.NewNotifier(whatsappChannel, smsChannel, profileRepo, transportRetry, appMetrics, appLogger)

	// Core engine
	pipeline := service.NewVerificationPipeline(service.NewTimestampCheck(), geminiClient, transportRetry)
	states := service.NewStateMachine(challengeRepo)
	settlement := service.NewSettlementEngine(walletRepo, transactionRepo, appMetrics, appLogger)
	mediaStore := service.NewFTPMediaStore(ftpClient, cfg.Storage.BasePath, transportRetry)
	mediaFetcher := service.NewHTTPMediaFetcher(30 * time.Second)

	challengeService := service.NewChallengeService(challengeRepo, geminiClient, appLogger)
	submissionService := service.NewSubmissionService(
		challengeRepo, submissionRepo, profileRepo,
		pipeline, states, settlement,
		mediaStore, mediaFetcher, submissionLock, notifier,
		appMetrics, appLogger,
	)
	walletService := service.NewWalletService(walletRepo, transactionRepo, appLogger)
	reminderService := service.NewReminderService(reminderRepo, challengeRepo, geminiClient, notifier, appLogger)
	sweepService := service.NewSweepService(challengeRepo, states, settlement, notifier, appLogger)

	// HTTP surface
	router := handler.NewRouter(handler.Handlers{
		Challenges:  handler.NewChallengeHandler(challengeService, appLogger),
		Submissions: handler.NewSubmissionHandler(submissionService, appLogger),
		Wallet:      handler.NewWalletHandler(walletService, appLogger),
		Reminders:   handler.NewReminderHandler(reminderService, appLogger),
		Webhook:     handler.NewWebhookHandler(profileRepo, challengeService, submissionService, reminderService, walletService, appLogger),
	}, conn.DB, appMetrics, appLogger)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Background loops
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go runLoop(workerCtx, cfg.Worker.ReminderInterval, func(ctx context.Context) {
		if _, err := reminderService.DispatchPending(ctx); err != nil {
			appLogger.WithField("error", err.Error()).Error("reminder dispatch failed")
		}
	})
	go runLoop(workerCtx, cfg.Worker.SweepInterval, func(ctx context.Context) {
		if _, err := sweepService.Sweep(ctx); err != nil {
			appLogger.WithField("error", err.Error()).Error("deadline sweep failed")
		}
	})
	go runLoop(workerCtx, 15*time.Second, func(context.Context) {
		appMetrics.CollectDBStats(conn.DB)
	})

	go func() {
		appLogger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down...")

	stopWorkers()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("Forced shutdown: %v", err)
	}
	appLogger.Info("Server stopped")
}

func runLoop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
