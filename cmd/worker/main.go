package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"promptcraft/internal/adapter/repo"
	"promptcraft/internal/generation"
	"promptcraft/internal/infra"
	"promptcraft/internal/storage"
)

// The worker runs the job processor without the HTTP API, for deployments
// that split the serving and processing roles.
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

	store, err := storage.NewFileStore(cfg.MediaDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize media store")
	}

	service := generation.NewService(generation.ServiceOptions{
		Store:  store,
		Logger: logger,
	})
	configureFromEnv(service, logger)

	processor := generation.NewProcessor(generation.ProcessorOptions{
		Jobs:    repo.NewJobRepository(dbpool),
		Scenes:  repo.NewSceneRepository(dbpool),
		Service: service,
		Logger:  logger,
	})
	processor.Start(ctx)
	logger.Info().Msg("worker started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	processor.Stop()
	logger.Info().Msg("worker stopped")
}

// configureFromEnv seeds provider credentials from environment variables.
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
