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

	"server/internal/history"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/identity"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/infra/geoip"
	"server/internal/infra/google"
	"server/internal/middleware"
	"server/internal/providers/prompt"
	"server/internal/usage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	creds := credentials.NewStore(runner)

	enhancer, err := buildEnhancer(ctx, cfg, creds)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure prompt provider")
	}

	profiles := identity.NewStore(runner)
	ledger := usage.NewLedger(runner, logger)

	app := &handlers.App{
		SQL:            runner,
		Logger:         logger,
		Enhancer:       enhancer,
		Gate:           usage.NewGate(ledger, profiles, logger),
		Profiles:       profiles,
		History:        history.NewStore(runner),
		GoogleVerifier: google.NewVerifier(cfg.GoogleIssuer, cfg.GoogleClientID),
		JWTSecret:      cfg.JWTSecret,
	}

	var geoLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, country detection disabled")
	} else if resolver != nil {
		geoLookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, cfg, logger, geoLookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("provider", cfg.PromptProvider).Msg("api listening")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildEnhancer selects the upstream provider once at startup. The API key
// comes from the environment, falling back to the credentials table; an empty
// key is allowed and surfaces as a per-call configuration error.
func buildEnhancer(ctx context.Context, cfg *infra.Config, creds *credentials.Store) (prompt.Enhancer, error) {
	keyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(cfg.PromptProvider)) {
	case "", credentials.ProviderGemini:
		key := cfg.GeminiAPIKey
		if key == "" {
			stored, err := creds.GeminiAPIKey(keyCtx)
			if err == nil {
				key = stored
			}
		}
		return prompt.NewGeminiEnhancer(prompt.GeminiOptions{
			APIKey:  key,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		}), nil
	case credentials.ProviderOpenAI:
		key := cfg.OpenAIAPIKey
		if key == "" {
			stored, err := creds.OpenAIAPIKey(keyCtx)
			if err == nil {
				key = stored
			}
		}
		return prompt.NewOpenAIEnhancer(prompt.OpenAIOptions{
			APIKey:       key,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
		}), nil
	}
	return nil, errUnsupportedProvider(cfg.PromptProvider)
}

type errUnsupportedProvider string

func (e errUnsupportedProvider) Error() string {
	return "unsupported prompt provider: " + string(e)
}
