// Command sweeper runs one pass over active job alerts, emailing digests for
// alerts whose schedule is due. It is intended to be invoked from cron.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mlawrence/jobscout/internal"
	"github.com/mlawrence/jobscout/internal/alerts"
	"github.com/mlawrence/jobscout/internal/email"
	"github.com/mlawrence/jobscout/internal/jobsearch"
	"github.com/mlawrence/jobscout/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	repo := repository.New(db)
	searchClient := jobsearch.New(cfg.JobSearchBaseURL, cfg.JobSearchAPIKey, logger)

	var sender email.EmailService
	switch cfg.EmailProvider {
	case email.ProviderSendGrid:
		sender, err = email.NewSendGridEmailService(cfg.SendGridKey, cfg.EmailFrom, cfg.EmailFromName, logger)
		if err != nil {
			return fmt.Errorf("email initialization failed: %w", err)
		}
	case email.ProviderSMTP:
		sender = email.NewSMTPEmailService(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
		}, logger)
	default:
		return fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}

	sweeper, err := alerts.New(repo, searchClient, sender, alerts.Config{
		SearchTimeout: cfg.SweeperSearchTimeout,
		SendDelay:     cfg.SweeperSendDelay,
		BaseURL:       cfg.BaseURL,
	}, logger)
	if err != nil {
		return fmt.Errorf("sweeper initialization failed: %w", err)
	}

	summary, err := sweeper.Run(ctx)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	logger.Info("Sweep complete",
		"total", summary.Total,
		"processed", summary.Processed,
		"errors", summary.Errors,
	)
	if summary.Errors > 0 {
		return fmt.Errorf("sweep finished with %d alert errors", summary.Errors)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
