package middleware

import (
	"net/http"
	"strings"

	"configurator-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
)

// ShopDomainHeader carries the shop the storefront is calling for
const ShopDomainHeader = "X-Shopify-Shop-Domain"

// SecurityHeadersMiddleware sets conservative response headers on every route
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			// The configurator runs inside the Shopify admin and storefront iframes.
			h.Set("Content-Security-Policy", "frame-ancestors https://*.myshopify.com https://admin.shopify.com")
			if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ShopDomainMiddleware resolves the shop from the X-Shopify-Shop-Domain header or the shop query
// parameter, normalizes it and stores it in the request context. Requests with a malformed shop are
// rejected; requests without one pass through.
func ShopDomainMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(ShopDomainHeader)
			if raw == "" {
				raw = r.URL.Query().Get("shop")
			}
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			shop := domain.NormalizeShopDomain(raw)
			if !domain.IsValidShopDomain(shop) {
				logger.Warn().Str("shop", raw).Str("path", r.URL.Path).Msg("Rejected request with invalid shop domain")
				http.Error(w, "invalid shop domain", http.StatusBadRequest)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithShopDomain(r.Context(), shop)))
		})
	}
}
