package api

import (
	"encoding/json"
	"net/http"

	"configurator-shopify-layer/internal/application"
	"configurator-shopify-layer/internal/infrastructure/metrics"
	securitymiddleware "configurator-shopify-layer/internal/infrastructure/middleware"
	"configurator-shopify-layer/internal/infrastructure/pubsub"
	"configurator-shopify-layer/internal/infrastructure/shopify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Services are the application services behind the HTTP surface
type Services struct {
	Catalog   *application.CatalogService
	Cart      *application.CartService
	Designs   *application.DesignService
	Colorways *application.ColorwayService
	Proxy     *application.StorefrontProxyService
	Auth      *application.AuthService
	Webhooks  *application.WebhookDispatcher
	Verifier  *shopify.WebhookVerifier
	Events    *pubsub.CatalogPubSub
	Metrics   *metrics.Prometheus // optional
}

// RouterOptions tunes the router
type RouterOptions struct {
	CORSAllowedOrigins []string
	SwaggerSpecPath    string // served at /swagger/doc.json
}

// Handler serves the configurator API
type Handler struct {
	svc      Services
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc Services, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		validate: newValidator(),
		logger:   logger,
	}
}

// NewRouter builds the chi router with the full middleware stack and every route
func NewRouter(svc Services, opts RouterOptions, logger zerolog.Logger) chi.Router {
	h := NewHandler(svc, logger)

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(securitymiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if svc.Metrics != nil {
		r.Use(svc.Metrics.Middleware)
	}
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", securitymiddleware.ShopDomainHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if svc.Metrics != nil {
		r.Handle("/metrics", svc.Metrics.Handler())
	}

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if opts.SwaggerSpecPath != "" {
		r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, r, opts.SwaggerSpecPath)
		})
	}

	// OAuth routes
	r.Get("/auth/shopify", h.BeginInstall)
	r.Get("/auth/callback", h.CompleteInstall)

	// Webhook endpoint
	r.Post("/webhooks/shopify", h.ReceiveWebhook)

	// Storefront API, scoped to the shop in X-Shopify-Shop-Domain or ?shop=
	r.Route("/api", func(r chi.Router) {
		r.Use(securitymiddleware.ShopDomainMiddleware(logger))

		r.Post("/storefront", h.ProxyStorefront)
		r.Get("/products/{productID}", h.GetProduct)
		r.Get("/products/{productID}/inventory", h.GetInventory)
		r.Get("/colorways", h.ListColorways)
		r.Post("/cart", h.BuildCart)
		r.Post("/cart/validate", h.ValidateCartURL)
		r.Post("/designs", h.SaveDesign)
		r.Get("/designs/{token}", h.LoadDesign)
		r.Get("/events", h.StreamEvents)
	})

	return r
}
