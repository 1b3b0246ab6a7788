package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"configurator-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func shopEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(domain.GetShopDomainFromContext(r.Context())))
	})
}

func TestShopDomainMiddleware(t *testing.T) {
	h := ShopDomainMiddleware(zerolog.Nop())(shopEcho())

	tests := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{name: "header", header: "https://Kicks.myshopify.com/", status: http.StatusOK, body: "kicks.myshopify.com"},
		{name: "query", query: "?shop=kicks.myshopify.com", status: http.StatusOK, body: "kicks.myshopify.com"},
		{name: "header wins", header: "a.myshopify.com", query: "?shop=b.myshopify.com", status: http.StatusOK, body: "a.myshopify.com"},
		{name: "absent", status: http.StatusOK, body: ""},
		{name: "invalid", header: "not a shop", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/colorways"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set(ShopDomainHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	h := SecurityHeadersMiddleware()(shopEcho())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"path":"/health"`)
}
