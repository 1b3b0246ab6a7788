package main

import (
	"context"
	"os"

	"configurator-shopify-layer/internal/bootstrap"
	"configurator-shopify-layer/internal/config"
	"configurator-shopify-layer/internal/infrastructure/api"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
)

// Wiring runs once per container so warm invocations reuse connections and caches.
func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger = logger.Level(cfg.LogLevel)

	app, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize services")
	}

	lambda.Start(api.NewLambdaAdapter(app.Router).Handle)
}
