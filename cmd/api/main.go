package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"promptcraft/internal/adapter/repo"
	"promptcraft/internal/generation"
	"promptcraft/internal/http/handlers"
	httpapi "promptcraft/internal/http/httpapi"
	"promptcraft/internal/infra"
	"promptcraft/internal/storage"
)

func main() {
	// .env is optional
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

	store, err := storage.NewFileStore(cfg.MediaDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize media store")
	}

	service := generation.NewService(generation.ServiceOptions{
		Store:  store,
		Logger: logger,
	})
	configureFromEnv(service, logger)

	jobs := repo.NewJobRepository(dbpool)
	scenes := repo.NewSceneRepository(dbpool)

	processor := generation.NewProcessor(generation.ProcessorOptions{
		Jobs:    jobs,
		Scenes:  scenes,
		Service: service,
		Logger:  logger,
	})
	processor.Start(ctx)
	defer processor.Stop()

	app := &handlers.App{
		Workflows:  repo.NewWorkflowRepository(dbpool),
		Scenes:     scenes,
		Jobs:       jobs,
		Versions:   repo.NewVersionRepository(dbpool),
		Generation: service,
		Logger:     logger,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
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

// configureFromEnv seeds provider credentials from environment variables so a
// deployment can come up fully configured without configure calls.
func configureFromEnv(service *generation.Service, logger infra.Logger) {
	keys := map[string]string{
		"openai":    "OPENAI_API_KEY",
		"anthropic": "ANTHROPIC_API_KEY",
		"google":    "GOOGLE_API_KEY",
		"grok":      "GROK_API_KEY",
	}
	for provider, env := range keys {
		if key := os.Getenv(env); key != "" {
			if err := service.ConfigureProvider(provider, key); err != nil {
				logger.Warn().Err(err).Str("provider", provider).Msg("provider configuration failed")
			}
		}
	}

	urls := map[string]string{
		"a1111":    "A1111_API_URL",
		"comfyui":  "COMFYUI_API_URL",
		"invokeai": "INVOKEAI_API_URL",
	}
	for provider, env := range urls {
		if apiURL := os.Getenv(env); apiURL != "" {
			if err := service.ConfigureLocalProvider(provider, apiURL); err != nil {
				logger.Warn().Err(err).Str("provider", provider).Msg("provider configuration failed")
			}
		}
	}
}
