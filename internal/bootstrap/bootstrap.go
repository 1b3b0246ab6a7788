package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"configurator-shopify-layer/internal/application"
	"configurator-shopify-layer/internal/application/webhook_handlers"
	"configurator-shopify-layer/internal/config"
	"configurator-shopify-layer/internal/infrastructure/api"
	"configurator-shopify-layer/internal/infrastructure/cache"
	"configurator-shopify-layer/internal/infrastructure/encryption"
	"configurator-shopify-layer/internal/infrastructure/metrics"
	"configurator-shopify-layer/internal/infrastructure/pubsub"
	"configurator-shopify-layer/internal/infrastructure/repository"
	shopifyinfra "configurator-shopify-layer/internal/infrastructure/shopify"
	"configurator-shopify-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SwaggerSpecPath is where the OpenAPI document is served from
const SwaggerSpecPath = "./docs/swagger.json"

// App is a fully wired service
type App struct {
	Router http.Handler
	Events *pubsub.CatalogPubSub

	closers []func(context.Context) error
}

// Close releases storage and cache connections
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type stores struct {
	shops       ports.ShopConnectionRepository
	designs     ports.DesignRepository
	sessions    ports.SessionRepository
	idempotency ports.IdempotencyStore
	variants    ports.VariantCache
}

// New wires repositories, caches, the Shopify client and application services into the HTTP router
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	app := &App{}

	st, err := app.openStorage(ctx, cfg, logger)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	if err := app.openCache(ctx, cfg, st, logger); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	var encryptionService ports.EncryptionService
	if cfg.EncryptionKey != "" {
		svc, err := encryption.NewService(cfg.EncryptionKey)
		if err != nil {
			_ = app.Close(ctx)
			return nil, fmt.Errorf("failed to initialize encryption service: %w", err)
		}
		encryptionService = svc
	} else {
		logger.Warn().Msg("ENCRYPTION_KEY not set, shop access tokens are stored unencrypted")
	}
	tokenManager := shopifyinfra.NewTokenManager(encryptionService, logger)

	shopifyClient := shopifyinfra.NewClientWithOptions(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, shopifyinfra.ClientOptions{
		APIVersion: cfg.ShopifyAPIVersion,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Logger:     logger,
	})

	prom := metrics.NewPrometheus()
	app.Events = pubsub.NewCatalogPubSub(logger)

	catalog := application.NewCatalogService(shopifyClient, st.shops, tokenManager, st.variants, logger)

	dispatcher := application.NewWebhookDispatcher(st.idempotency, prom, logger)
	dispatcher.RegisterHandler(webhook_handlers.NewProductHandler(catalog, app.Events, logger))
	dispatcher.RegisterHandler(webhook_handlers.NewInventoryHandler(app.Events, logger))
	dispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(st.shops, logger))

	svc := api.Services{
		Catalog:   catalog,
		Cart:      application.NewCartService(catalog, prom, logger),
		Designs:   application.NewDesignService(st.designs, prom, logger),
		Colorways: application.NewColorwayService(shopifyClient, st.shops, tokenManager, logger),
		Proxy:     application.NewStorefrontProxyService(shopifyClient, st.shops, tokenManager, cfg.ShopifyStorefrontToken, prom, logger),
		Auth: application.NewAuthService(shopifyClient, st.shops, st.sessions, tokenManager, application.AuthConfig{
			Scopes:      cfg.ShopifyScopes,
			RedirectURI: cfg.RedirectURI(),
			AppURL:      cfg.AppURL,
		}, logger),
		Webhooks: dispatcher,
		Verifier: shopifyinfra.NewWebhookVerifier(cfg.ShopifyWebhookSecret),
		Events:   app.Events,
		Metrics:  prom,
	}

	app.Router = api.NewRouter(svc, api.RouterOptions{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SwaggerSpecPath:    SwaggerSpecPath,
	}, logger)

	logger.Info().
		Str("storage", cfg.StorageDriver).
		Bool("redis", cfg.RedisURL != "").
		Bool("encryption", encryptionService != nil).
		Msg("Configurator services initialized")

	return app, nil
}

func (a *App) openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	memory := repository.NewMemoryRepository()
	st := &stores{sessions: memory, idempotency: memory}

	switch cfg.StorageDriver {
	case config.StorageSupabase:
		repo, err := repository.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize supabase repository: %w", err)
		}
		st.shops, st.designs = repo, repo

	case config.StorageMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, client.Disconnect)

		repo := repository.NewMongoRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure MongoDB indexes: %w", err)
		}
		st.shops, st.designs = repo, repo

	default:
		logger.Warn().Msg("Using in-memory storage, data is lost on restart")
		st.shops, st.designs = memory, memory
	}

	return st, nil
}

func (a *App) openCache(ctx context.Context, cfg *config.Config, st *stores, logger zerolog.Logger) error {
	if cfg.RedisURL == "" {
		st.variants = cache.NewMemoryVariantCache(cfg.VariantCacheTTL)
		logger.Info().Msg("REDIS_URL not set, using in-process caches")
		return nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	a.closers = append(a.closers, closeRedis(client))

	st.variants = cache.NewRedisVariantCache(client, cfg.VariantCacheTTL)
	st.sessions = cache.NewRedisSessionStore(client)
	st.idempotency = cache.NewRedisIdempotencyStore(client)
	return nil
}

func closeRedis(client *redis.Client) func(context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}
