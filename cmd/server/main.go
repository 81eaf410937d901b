package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kgrigsby59/courtly/internal/api/auth"
	"github.com/kgrigsby59/courtly/internal/booking"
	"github.com/kgrigsby59/courtly/internal/config"
	"github.com/kgrigsby59/courtly/internal/crypto"
	"github.com/kgrigsby59/courtly/internal/db"
	"github.com/kgrigsby59/courtly/internal/email"
	"github.com/kgrigsby59/courtly/internal/maintenance"
	"github.com/kgrigsby59/courtly/internal/notify"
	"github.com/kgrigsby59/courtly/internal/ratelimit"
	"github.com/kgrigsby59/courtly/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	codec, err := crypto.NewCodec(cfg.App.PIIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PII codec")
	}

	var sender email.EmailSender
	if cfg.Email.Enabled {
		sesClient, err := email.NewSESClient(
			cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize email client")
		}
		sender = sesClient
		log.Info().Str("region", cfg.Email.Region).Msg("Email delivery enabled")
	}

	notifier := notify.NewService(database, sender)
	bookingSvc := booking.NewService(database, notifier)
	maintenanceSvc := maintenance.NewService(database)
	sessions := auth.NewSessions(database)
	limiter := ratelimit.New(nil)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if cfg.Scheduler.EnableReminders {
		if err := scheduler.RegisterBookingReminderJob(database, notifier); err != nil {
			log.Fatal().Err(err).Msg("Failed to register booking reminder job")
		}
	}
	if cfg.Scheduler.EnableEscalation {
		if err := scheduler.RegisterEscalationJob(database, notifier); err != nil {
			log.Fatal().Err(err).Msg("Failed to register escalation job")
		}
	}
	if err := scheduler.RegisterSessionCleanupJob(database); err != nil {
		log.Fatal().Err(err).Msg("Failed to register session cleanup job")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	server := newServer(cfg, &dependencies{
		db:             database,
		codec:          codec,
		sessions:       sessions,
		limiter:        limiter,
		bookingSvc:     bookingSvc,
		maintenanceSvc: maintenanceSvc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
