package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/securepay/gateway/internal/config"
	"github.com/securepay/gateway/internal/flow"
	"github.com/securepay/gateway/internal/handlers"
	"github.com/securepay/gateway/internal/ledger"
	"github.com/securepay/gateway/internal/services"
	"github.com/securepay/gateway/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.Logging)

	log.Info().Msg("Starting SecurePay client gateway")
	log.Info().Str("ledgerUrl", cfg.Ledger.BaseURL).Msg("Remote ledger service")

	ledgerClient := ledger.NewClient(cfg.Ledger)
	sessionStore := session.NewStore(ledgerClient, cfg.Session)
	flowManager := flow.NewManager(ledgerClient, sessionStore)
	viewService := services.NewViewService(ledgerClient, sessionStore)

	handler := handlers.NewHandler(viewService, flowManager, sessionStore, ledgerClient)

	router := handler.Router(cfg.Server.Mode, sessionStore)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}

	if level <= zerolog.DebugLevel {
		log.Logger = log.With().Caller().Logger()
	}
}
