package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"configurator-shopify-layer/internal/application"
	"configurator-shopify-layer/internal/application/webhook_handlers"
	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/infrastructure/cache"
	"configurator-shopify-layer/internal/infrastructure/metrics"
	"configurator-shopify-layer/internal/infrastructure/pubsub"
	"configurator-shopify-layer/internal/infrastructure/repository"
	"configurator-shopify-layer/internal/infrastructure/shopify"
	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShop = "kicks.myshopify.com"

type stubCommerce struct {
	variants    []domain.VariantDescriptor
	variantsErr error
	forwardErr  error
}

func (s *stubCommerce) GenerateAuthURL(shop string, scopes []string, redirectURI string, state string) (string, error) {
	return "https://" + shop + "/admin/oauth/authorize?state=" + url.QueryEscape(state), nil
}

func (s *stubCommerce) VerifyCallback(query url.Values) (bool, error) {
	return query.Get("hmac") == "valid", nil
}

func (s *stubCommerce) ExchangeToken(context.Context, string, string, string) (string, error) {
	return "shpat_installed", nil
}

func (s *stubCommerce) GetProductVariants(context.Context, string, string, string) ([]domain.VariantDescriptor, error) {
	return s.variants, s.variantsErr
}

func (s *stubCommerce) ListColorways(context.Context, string, string) ([]domain.Colorway, error) {
	return nil, nil
}

func (s *stubCommerce) ForwardGraphQL(_ context.Context, req ports.GraphQLRequest) (*ports.GraphQLResponse, error) {
	if s.forwardErr != nil {
		return nil, s.forwardErr
	}
	return &ports.GraphQLResponse{StatusCode: http.StatusOK, Body: []byte(`{"data":{"shop":{"name":"Kicks"}}}`)}, nil
}

type testEnv struct {
	router   http.Handler
	repo     *repository.MemoryRepository
	commerce *stubCommerce
	events   *pubsub.CatalogPubSub
	verifier *shopify.WebhookVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.UpsertShopConnection(context.Background(), &domain.ShopConnection{ShopDomain: testShop, AccessToken: "shpat_test"}))

	commerce := &stubCommerce{variants: []domain.VariantDescriptor{
		{ID: "gid://shopify/ProductVariant/11", SelectedOptions: []domain.SelectedOption{{Name: "Size", Value: "M9"}}, InventoryQuantity: 2, AvailableForSale: true},
		{ID: "gid://shopify/ProductVariant/12", SelectedOptions: []domain.SelectedOption{{Name: "Size", Value: "M10"}}, InventoryQuantity: 0},
	}}
	codec := shopify.NewTokenManager(nil, logger)
	prom := metrics.NewPrometheus()
	events := pubsub.NewCatalogPubSub(logger)
	verifier := shopify.NewWebhookVerifier("whsec")

	catalog := application.NewCatalogService(commerce, repo, codec, cache.NewMemoryVariantCache(time.Minute), logger)
	dispatcher := application.NewWebhookDispatcher(repo, prom, logger)
	dispatcher.RegisterHandler(webhook_handlers.NewProductHandler(catalog, events, logger))
	dispatcher.RegisterHandler(webhook_handlers.NewInventoryHandler(events, logger))
	dispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(repo, logger))

	svc := Services{
		Catalog:   catalog,
		Cart:      application.NewCartService(catalog, prom, logger),
		Designs:   application.NewDesignService(repo, prom, logger),
		Colorways: application.NewColorwayService(commerce, repo, codec, logger),
		Proxy:     application.NewStorefrontProxyService(commerce, repo, codec, "", prom, logger),
		Auth: application.NewAuthService(commerce, repo, repo, codec, application.AuthConfig{
			Scopes:      []string{"read_products"},
			RedirectURI: "https://app.example.com/auth/callback",
			AppURL:      "https://app.example.com",
		}, logger),
		Webhooks: dispatcher,
		Verifier: verifier,
		Events:   events,
		Metrics:  prom,
	}

	return &testEnv{
		router:   NewRouter(svc, RouterOptions{}, logger),
		repo:     repo,
		commerce: commerce,
		events:   events,
		verifier: verifier,
	}
}

func (e *testEnv) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

var shopHeader = map[string]string{"X-Shopify-Shop-Domain": testShop}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "configurator_http_requests_total")
}

func TestGetProductAndInventory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/products/42", "", shopHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	var product application.ProductSizes
	decodeBody(t, rec, &product)
	assert.Equal(t, domain.VariantMapping{"M9": "11", "M10": "12"}, product.Mapping)
	assert.Equal(t, []domain.SizeCode{"M9", "M10"}, product.Sizes)

	rec = env.do(http.MethodGet, "/api/products/42/inventory?shop="+testShop, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inv struct {
		Inventory []domain.SizeInventory `json:"inventory"`
	}
	decodeBody(t, rec, &inv)
	require.Len(t, inv.Inventory, 2)
	assert.Equal(t, 2, inv.Inventory[0].Quantity)

	rec = env.do(http.MethodGet, "/api/products/42", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/products/42", "", map[string]string{"X-Shopify-Shop-Domain": "other.myshopify.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProduct_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.commerce.variantsErr = fmt.Errorf("failed to get product variants: %w",
		&ports.APIError{Service: "shopify graphql", StatusCode: http.StatusUnauthorized, Body: "Invalid API key or access token"})

	rec := env.do(http.MethodGet, "/api/products/42", "", shopHeader)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	var body ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, http.StatusUnauthorized, body.Status)
	assert.Contains(t, body.Detail, "Invalid API key")
}

func TestBuildCart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/cart", `{
		"product_id": "42",
		"sizes": {"M10": 2, "M9": 1, "W7": 1},
		"configuration": {"colorwayName": "Midnight", "upper": {"baseColor": "#000000"}},
		"notes": "Rush"
	}`, shopHeader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result application.CheckoutResult
	decodeBody(t, rec, &result)
	assert.True(t, strings.HasPrefix(result.Cart.URL, "https://kicks.myshopify.com/cart/11:1,12:2?attributes[Colorway]=Midnight"))
	assert.Contains(t, result.Cart.URL, "attributes[Special Notes]=Rush")
	assert.Equal(t, []domain.SizeCode{"W7"}, result.Cart.Skipped)
	assert.True(t, result.Validation.IsValid)
}

func TestBuildCart_Errors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/cart", `{"product_id":"42","sizes":{"W7":1}}`, shopHeader)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(http.MethodPost, "/api/cart", `{"sizes":{"M9":1}}`, shopHeader)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Details)
	assert.Equal(t, "product_id", resp.Details[0].Field)

	rec = env.do(http.MethodPost, "/api/cart", `{"product_id":"42","sizes":{"M9":-1}}`, shopHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/cart", `not json`, shopHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateCartURL(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/cart/validate", `{"url":"https://kicks.myshopify.com/cart/1:1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isValid":true,"length":36,"maxLength":2048}`, rec.Body.String())
}

func TestDesignsRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	cfg := domain.DesignConfiguration{
		ColorwayID:   "midnight",
		ColorwayName: "Midnight",
		Upper: domain.RegionStyle{
			BaseColor:       "#111111",
			HasSplatter:     true,
			SplatterColor:   "#FFFFFF",
			UseDualSplatter: true,
			SplatterColor2:  "#FF0000",
		},
		Sole:  domain.RegionStyle{HasGradient: true, GradientColors: []string{"#000000", "#333333"}},
		Laces: domain.RegionStyle{BaseColor: "#FFFFFF"},
		SideLogo: &domain.Logo{
			URL:       "https://cdn.example.com/side.png",
			Color:     "#FFD700",
			Transform: &domain.LogoTransform{X: 0.1, Y: 0.2, Scale: 1.25, Rotation: 15},
		},
	}
	body, err := json.Marshal(map[string]interface{}{"name": "Night run", "is_public": true, "configuration": cfg})
	require.NoError(t, err)

	rec := env.do(http.MethodPost, "/api/designs", string(body), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var saved domain.SavedDesign
	decodeBody(t, rec, &saved)
	require.Len(t, saved.ShareToken, 24)

	rec = env.do(http.MethodGet, "/api/designs/"+saved.ShareToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loaded domain.SavedDesign
	decodeBody(t, rec, &loaded)
	assert.Equal(t, saved.ID, loaded.ID)
	assert.Equal(t, 1, loaded.ViewCount)
	assert.Equal(t, cfg, loaded.Configuration)

	rec = env.do(http.MethodGet, "/api/designs/doesnotexist000", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/api/designs", `{"name":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListColorways_FallsBackToStatic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/colorways", "", shopHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Colorways []domain.Colorway `json:"colorways"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Colorways, len(domain.StaticColorways))
	assert.Equal(t, domain.StaticColorways[0].ID, resp.Colorways[0].ID)
}

func TestProxyStorefront(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/storefront", `{"query":"{ shop { name } }"}`, shopHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"shop":{"name":"Kicks"}}}`, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/storefront", `{"query":"mutation { x }"}`, shopHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/storefront", `{}`, shopHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.commerce.forwardErr = &ports.APIError{Service: "shopify graphql", StatusCode: http.StatusUnauthorized, Body: "bad token"}
	rec = env.do(http.MethodPost, "/api/storefront", `{"action":"product","variables":{"id":"42"}}`, shopHeader)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, "bad token", resp.Detail)
}

func TestOAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	const shop = "new-shop.myshopify.com"

	rec := env.do(http.MethodGet, "/auth/shopify?shop="+shop+"&return_url="+url.QueryEscape("https://app.example.com/done"), "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	rec = env.do(http.MethodGet, "/auth/callback?shop="+shop+"&code=abc&state="+state+"&hmac=invalid", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/auth/callback?shop="+shop+"&code=abc&state="+state+"&hmac=valid", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://app.example.com/done?shop=new-shop.myshopify.com&shopify_oauth=success", rec.Header().Get("Location"))

	conn, err := env.repo.GetShopConnection(context.Background(), shop)
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, "shpat_installed", conn.AccessToken)

	rec = env.do(http.MethodGet, "/auth/shopify", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveWebhook(t *testing.T) {
	env := newTestEnv(t)
	payload := `{"id":42,"title":"Runner"}`

	headers := map[string]string{
		"X-Shopify-Topic":       domain.TopicProductsUpdate,
		"X-Shopify-Hmac-Sha256": env.verifier.Sign([]byte(payload)),
		"X-Shopify-Shop-Domain": testShop,
		"X-Shopify-Webhook-Id":  "wh-1",
	}

	sub := env.events.Subscribe(context.Background(), &pubsub.CatalogEventFilter{Shop: testShop})
	defer env.events.Unsubscribe(sub.ID)

	rec := env.do(http.MethodPost, "/webhooks/shopify", payload, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case event := <-sub.Events:
		assert.Equal(t, domain.CatalogProductUpdated, event.Type)
		assert.Equal(t, "42", event.ProductID)
	case <-time.After(time.Second):
		t.Fatal("expected a catalog event")
	}

	// Redelivery of the same webhook is acknowledged without a second event.
	rec = env.do(http.MethodPost, "/webhooks/shopify", payload, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	select {
	case event := <-sub.Events:
		t.Fatalf("unexpected event %+v", event)
	default:
	}

	headers["X-Shopify-Hmac-Sha256"] = "forged"
	rec = env.do(http.MethodPost, "/webhooks/shopify", payload, headers)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	delete(headers, "X-Shopify-Topic")
	rec = env.do(http.MethodPost, "/webhooks/shopify", payload, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveWebhook_AppUninstalled(t *testing.T) {
	env := newTestEnv(t)
	payload := `{"myshopify_domain":"kicks.myshopify.com"}`

	rec := env.do(http.MethodPost, "/webhooks/shopify", payload, map[string]string{
		"X-Shopify-Topic":       domain.TopicAppUninstalled,
		"X-Shopify-Hmac-Sha256": env.verifier.Sign([]byte(payload)),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	conn, err := env.repo.GetShopConnection(context.Background(), testShop)
	require.NoError(t, err)
	assert.Nil(t, conn)
}

func TestStreamEvents(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/events?shop="+testShop+"&types=inventory_updated", nil)
	require.NoError(t, err)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return env.events.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	available := 3
	env.events.Publish(&domain.CatalogEvent{ID: "e0", Type: domain.CatalogProductUpdated, Shop: testShop, ProductID: "1"})
	env.events.Publish(&domain.CatalogEvent{ID: "e1", Type: domain.CatalogInventoryUpdated, Shop: testShop, InventoryItemID: "9", Available: &available})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "retry:") || strings.HasPrefix(line, ":") {
			continue
		}
		lines = append(lines, line)
	}
	assert.Equal(t, "id: e1", lines[0])
	assert.Equal(t, "event: inventory_updated", lines[1])
	assert.Contains(t, lines[2], `"inventory_item_id":"9"`)
}
