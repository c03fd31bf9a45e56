package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"lina-server/internal/auth"
	"lina-server/internal/gate"
	"lina-server/internal/http/handlers"
	"lina-server/internal/http/httpapi"
	"lina-server/internal/infra"
	"lina-server/internal/ledger"
	"lina-server/internal/metrics"
	"lina-server/internal/payments"
	"lina-server/internal/relay"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		// Missing secrets are fatal: never serve traffic half-configured.
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	tokens := auth.NewTokens(cfg.TokenSecret, cfg.TokenTTL)
	store := ledger.NewMemoryStore(cfg.FreeQuota)

	var completer relay.Completer
	switch cfg.RelayProvider {
	case "gemini":
		completer, err = relay.NewGeminiCompleter(relay.GeminiOptions{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
	case "openai":
		completer, err = relay.NewOpenAICompleter(relay.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
		})
	default:
		completer = relay.NewStaticCompleter()
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build completion relay")
	}

	var bold *payments.BoldClient
	if cfg.PaymentMode == "live" {
		bold, err = payments.NewBoldClient(payments.BoldOptions{
			APIKey:  cfg.BoldAPIKey,
			BaseURL: cfg.BoldBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build payment client")
		}
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	app := &handlers.App{
		Logger:    logger,
		Cfg:       cfg,
		Tokens:    tokens,
		Store:     store,
		Gate:      gate.New(tokens, store),
		Relay:     completer,
		RelayName: cfg.RelayProvider,
		Payments:  bold,
		Metrics:   collector,
		Now:       time.Now,
	}

	router := httpapi.NewRouter(app, registry)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s (provider=%s, model=%s)", cfg.Port, cfg.RelayProvider, cfg.ModelName())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
