package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkruchkov/accountd/internal/account"
	"github.com/mkruchkov/accountd/internal/api"
	"github.com/mkruchkov/accountd/internal/config"
	"github.com/mkruchkov/accountd/internal/database"
	"github.com/mkruchkov/accountd/internal/identity"
	"github.com/mkruchkov/accountd/internal/jobs"
	"github.com/mkruchkov/accountd/internal/logging"
	"github.com/mkruchkov/accountd/internal/mail"
	"github.com/mkruchkov/accountd/internal/session"
	"github.com/mkruchkov/accountd/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Environment)

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get database connection")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	accounts := store.NewAccountStore(db)
	identities := store.NewIdentityStore(db)
	oauthSessions := store.NewOAuthSessionStore(db)
	resetTokens := store.NewResetTokenStore(db)

	mailer := mail.NewSMTPMailer(cfg.SMTP, logger)
	issuer := session.NewIssuer(cfg.JWTSecret)

	resolver := account.NewResolver(accounts, identities, logger)
	gate := account.NewGate(accounts, logger)
	svc := account.NewService(accounts, identities, resetTokens, mailer, logger, cfg.AppURL, cfg.ResetTokenTTL)

	// Initialize the OIDC client when configured
	var oauthClient *identity.Client
	if cfg.OAuth.Enabled() {
		oauthClient, err = identity.NewClient(&cfg.OAuth)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize OIDC client")
		}
	}

	// Start maintenance jobs
	scheduler := jobs.NewScheduler(oauthSessions, resetTokens, logger)
	scheduler.Start()
	defer scheduler.Stop()

	// Setup API router
	router := api.NewRouter(cfg, logger, resolver, svc, gate, issuer, oauthClient, accounts, oauthSessions)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}
