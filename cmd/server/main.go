package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlawrence/jobscout/internal"
	"github.com/mlawrence/jobscout/internal/ai"
	"github.com/mlawrence/jobscout/internal/ai/anthropic"
	"github.com/mlawrence/jobscout/internal/ai/mock"
	"github.com/mlawrence/jobscout/internal/billing"
	"github.com/mlawrence/jobscout/internal/email"
	"github.com/mlawrence/jobscout/internal/handler"
	"github.com/mlawrence/jobscout/internal/jobsearch"
	"github.com/mlawrence/jobscout/internal/metrics"
	"github.com/mlawrence/jobscout/internal/middleware"
	"github.com/mlawrence/jobscout/internal/repository"
	"github.com/mlawrence/jobscout/internal/service"
	"github.com/mlawrence/jobscout/internal/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	repo := repository.New(db)

	// Initialize file storage
	fileStorage, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize email delivery
	emailService, err := newEmailService(cfg, logger)
	if err != nil {
		return fmt.Errorf("email initialization failed: %w", err)
	}
	logger.Info("Email ready", "provider", cfg.EmailProvider)

	// Initialize AI provider
	aiProvider, err := newAIProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("ai initialization failed: %w", err)
	}
	logger.Info("AI ready", "provider", cfg.AIProvider)

	// Initialize job search client
	searchClient := jobsearch.New(cfg.JobSearchBaseURL, cfg.JobSearchAPIKey, logger)

	// Initialize billing; nil when Stripe is not configured, in which case
	// the billing handlers respond 503 and webhooks acknowledge without work.
	var billingService billing.Service
	if cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
			BasicMonthlyPriceID:      cfg.StripeBasicMonthlyPriceID,
			BasicYearlyPriceID:       cfg.StripeBasicYearlyPriceID,
			ProMonthlyPriceID:        cfg.StripeProMonthlyPriceID,
			ProYearlyPriceID:         cfg.StripeProYearlyPriceID,
			EnterpriseMonthlyPriceID: cfg.StripeEnterpriseMonthlyPriceID,
			EnterpriseYearlyPriceID:  cfg.StripeEnterpriseYearlyPriceID,
		})
		logger.Info("Billing ready")
	} else {
		logger.Warn("Stripe not configured, billing disabled")
	}

	// Initialize services
	quotaService := service.NewQuotaService(repo, logger)
	userService := service.NewUserService(repo, logger)
	subscriptionService := service.NewSubscriptionService(repo, billingService, logger)
	bookmarkService := service.NewBookmarkService(repo, quotaService, logger)
	alertService := service.NewAlertService(repo, quotaService, logger)
	resumeService := service.NewResumeService(repo, fileStorage, quotaService, logger)
	careerService := service.NewCareerService(resumeService, fileStorage, aiProvider, quotaService, logger)
	applicationService := service.NewApplicationService(repo, userService, quotaService, logger)
	searchService := service.NewSearchService(searchClient, quotaService, logger)

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, emailService, logger, isSecure)
	entitlementHandler := handler.NewEntitlementHandler(quotaService, logger)
	billingHandler := handler.NewBillingHandler(billingService, userService, cfg.BaseURL, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, subscriptionService, logger)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarkService, logger)
	alertHandler := handler.NewAlertHandler(alertService, logger)
	jobHandler := handler.NewJobHandler(searchService, applicationService, careerService, logger)
	resumeHandler := handler.NewResumeHandler(resumeService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when configured)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Public routes
	authHandler.RegisterRoutes(mux)
	webhookHandler.RegisterRoutes(mux)

	// Authenticated routes
	entitlementHandler.RegisterRoutes(mux, authMw.Protect)
	billingHandler.RegisterRoutes(mux, authMw.Protect)
	bookmarkHandler.RegisterRoutes(mux, authMw.Protect)
	alertHandler.RegisterRoutes(mux, authMw.Protect)
	jobHandler.RegisterRoutes(mux, authMw.Protect)
	resumeHandler.RegisterRoutes(mux, authMw.Protect)

	root := loggingMw.Handler(metrics.Middleware(mux))

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case storage.ProviderR2:
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	case storage.ProviderLocal:
		return storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
	}
}

func newEmailService(cfg *internal.Config, logger *slog.Logger) (email.EmailService, error) {
	switch cfg.EmailProvider {
	case email.ProviderSendGrid:
		return email.NewSendGridEmailService(cfg.SendGridKey, cfg.EmailFrom, cfg.EmailFromName, logger)
	case email.ProviderSMTP:
		return email.NewSMTPEmailService(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}
}

func newAIProvider(cfg *internal.Config, logger *slog.Logger) (ai.Provider, error) {
	switch cfg.AIProvider {
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
			ProviderConfig: ai.ProviderConfig{
				MaxRetries:     cfg.AIMaxRetries,
				RetryBaseDelay: cfg.AIRetryBaseDelay,
				RequestTimeout: cfg.AIRequestTimeout,
			},
		}, logger)
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AIProvider)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
