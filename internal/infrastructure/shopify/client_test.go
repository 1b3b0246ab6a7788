package shopify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (ports.CommerceClient, string) {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)
	c := NewClientWithOptions("key", "secret", ClientOptions{
		APIVersion: "2024-10",
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
	return c, strings.TrimPrefix(server.URL, "https://")
}

func TestGenerateAuthURL(t *testing.T) {
	c := NewClient("my-key", "secret")

	authURL, err := c.GenerateAuthURL("shop.myshopify.com", []string{"read_products", "read_inventory"}, "https://app.example.com/auth/callback", "abc123")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "shop.myshopify.com", u.Host)
	assert.Equal(t, "/admin/oauth/authorize", u.Path)
	assert.Equal(t, "my-key", u.Query().Get("client_id"))
	assert.Equal(t, "read_products,read_inventory", u.Query().Get("scope"))
	assert.Equal(t, "https://app.example.com/auth/callback", u.Query().Get("redirect_uri"))
	assert.Equal(t, "abc123", u.Query().Get("state"))
}

func TestGenerateAuthURL_MissingKey(t *testing.T) {
	c := NewClient("", "secret")
	_, err := c.GenerateAuthURL("shop.myshopify.com", nil, "https://x", "s")
	assert.Error(t, err)
}

func signQuery(t *testing.T, q url.Values, secret string) string {
	t.Helper()
	message, err := url.QueryUnescape(q.Encode())
	require.NoError(t, err)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyCallback(t *testing.T) {
	c := NewClient("key", "secret")

	q := url.Values{}
	q.Set("code", "the-code")
	q.Set("shop", "shop.myshopify.com")
	q.Set("state", "abc")
	q.Set("timestamp", "1700000000")
	q.Set("hmac", signQuery(t, q, "secret"))

	ok, err := c.VerifyCallback(q)
	require.NoError(t, err)
	assert.True(t, ok)

	q.Set("code", "tampered")
	ok, err = c.VerifyCallback(q)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyCallback_MissingHMAC(t *testing.T) {
	c := NewClient("key", "secret")
	ok, err := c.VerifyCallback(url.Values{"shop": {"shop.myshopify.com"}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExchangeToken(t *testing.T) {
	c, shop := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/oauth/access_token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "key", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "https://app.example.com/auth/callback", r.PostForm.Get("redirect_uri"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"shpat_123","scope":"read_products"}`))
	})

	token, err := c.ExchangeToken(context.Background(), shop, "the-code", "https://app.example.com/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "shpat_123", token)
}

func TestExchangeToken_Rejected(t *testing.T) {
	c, shop := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
	})

	_, err := c.ExchangeToken(context.Background(), shop, "bad", "https://app.example.com/auth/callback")
	require.Error(t, err)
	var apiErr *ports.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestForwardGraphQL_Storefront(t *testing.T) {
	c, shop := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2024-10/graphql.json", r.URL.Path)
		assert.Equal(t, "public-token", r.Header.Get("X-Shopify-Storefront-Access-Token"))
		assert.Empty(t, r.Header.Get("X-Shopify-Access-Token"))

		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "{ shop { name } }", payload["query"])

		_, _ = w.Write([]byte(`{"data":{"shop":{"name":"Kicks"}}}`))
	})

	resp, err := c.ForwardGraphQL(context.Background(), ports.GraphQLRequest{
		Shop:       shop,
		Query:      "{ shop { name } }",
		Token:      "public-token",
		Storefront: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":{"shop":{"name":"Kicks"}}}`, string(resp.Body))
}

func TestForwardGraphQL_AdminError(t *testing.T) {
	c, shop := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-10/graphql.json", r.URL.Path)
		assert.Equal(t, "shpat_1", r.Header.Get("X-Shopify-Access-Token"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":"Invalid API key or access token"}`))
	})

	_, err := c.ForwardGraphQL(context.Background(), ports.GraphQLRequest{
		Shop:  shop,
		Query: "{ shop { name } }",
		Token: "shpat_1",
	})
	require.Error(t, err)
	var apiErr *ports.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid API key")
}

func TestColorwayFromFields(t *testing.T) {
	cw := colorwayFromFields("midnight", "Midnight", []metaobjectField{
		{Key: "upper_base", Value: "#111111"},
		{Key: "upper_splatter", Value: "#FFFFFF"},
		{Key: "upper_splatter_2", Value: "#FF0000"},
		{Key: "sole_gradient", Value: `["#000000","#333333"]`},
		{Key: "laces_base", Value: "#FFFFFF"},
		{Key: "notes", Value: "ignored"},
	})

	assert.Equal(t, "midnight", cw.ID)
	assert.Equal(t, "Midnight", cw.Name)
	assert.Equal(t, "#111111", cw.Upper.Base)
	assert.Equal(t, "#FFFFFF", cw.Upper.Splatter)
	assert.Equal(t, "#FF0000", cw.Upper.Splatter2)
	assert.Equal(t, []string{"#000000", "#333333"}, cw.Sole.GradientStops)
	assert.Equal(t, "#FFFFFF", cw.Laces.Base)
}

func TestColorwayFromFields_NameFallsBackToHandle(t *testing.T) {
	cw := colorwayFromFields("plain", "", nil)
	assert.Equal(t, "plain", cw.Name)
}

const adminShop = "kicks.myshopify.com"

// rewriteTransport sends every request to the test server while remembering the host it was meant for
type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper

	mu    sync.Mutex
	hosts []string
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	rt.hosts = append(rt.hosts, req.URL.Host)
	rt.mu.Unlock()

	out := req.Clone(req.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	return rt.base.RoundTrip(out)
}

func newAdminClient(t *testing.T, handler http.HandlerFunc) (ports.CommerceClient, *rewriteTransport) {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)
	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	rt := &rewriteTransport{target: target, base: server.Client().Transport}
	c := NewClientWithOptions("key", "secret", ClientOptions{
		APIVersion: "2024-10",
		HTTPClient: &http.Client{Transport: rt},
		Logger:     zerolog.Nop(),
	})
	return c, rt
}

func graphQLPayload(t *testing.T, r *http.Request) (string, map[string]interface{}) {
	t.Helper()
	var payload struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	return payload.Query, payload.Variables
}

func TestGetProductVariants(t *testing.T) {
	c, rt := newAdminClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/api/2024-10/graphql.json", r.URL.Path)
		assert.Equal(t, "shpat_1", r.Header.Get("X-Shopify-Access-Token"))

		query, vars := graphQLPayload(t, r)
		assert.Contains(t, query, "ProductVariants")
		assert.Equal(t, "gid://shopify/Product/42", vars["id"])

		_, _ = w.Write([]byte(`{"data":{"product":{"id":"gid://shopify/Product/42","variants":{"nodes":[
			{"id":"gid://shopify/ProductVariant/1","title":"M9","sku":"AX-M9","inventoryQuantity":3,"availableForSale":true,
			 "selectedOptions":[{"name":"Size","value":"M9"}]},
			{"id":"gid://shopify/ProductVariant/2","title":"M10 / W11.5","sku":"","inventoryQuantity":0,"availableForSale":false,
			 "selectedOptions":[]}
		]}}}}`))
	})

	variants, err := c.GetProductVariants(context.Background(), adminShop, "shpat_1", "42")
	require.NoError(t, err)
	assert.Equal(t, []domain.VariantDescriptor{
		{
			ID:                "gid://shopify/ProductVariant/1",
			Title:             "M9",
			SKU:               "AX-M9",
			SelectedOptions:   []domain.SelectedOption{{Name: "Size", Value: "M9"}},
			InventoryQuantity: 3,
			AvailableForSale:  true,
		},
		{
			ID:              "gid://shopify/ProductVariant/2",
			Title:           "M10 / W11.5",
			SelectedOptions: []domain.SelectedOption{},
		},
	}, variants)
	assert.Equal(t, []string{adminShop}, rt.hosts)
}

func TestGetProductVariants_ProductNotFound(t *testing.T) {
	c, _ := newAdminClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"product":null}}`))
	})

	_, err := c.GetProductVariants(context.Background(), adminShop, "shpat_1", "404")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProductVariants_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantBody   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"errors":"[API] Invalid API key or access token"}`, http.StatusUnauthorized, "Invalid API key"},
		{"server error", http.StatusInternalServerError, `{"errors":"Internal Server Error"}`, http.StatusInternalServerError, "Internal Server Error"},
		{"rate limited", http.StatusTooManyRequests, `{"errors":"Exceeded 2 calls per second"}`, http.StatusTooManyRequests, "Exceeded"},
		{"graphql errors", http.StatusOK, `{"data":null,"errors":[{"message":"Field 'variantz' doesn't exist"}]}`, http.StatusBadGateway, "variantz"},
		{"throttled", http.StatusOK, `{"data":null,"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`, http.StatusTooManyRequests, "Throttled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newAdminClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.GetProductVariants(context.Background(), adminShop, "shpat_1", "42")
			require.Error(t, err)
			var apiErr *ports.APIError
			require.True(t, errors.As(err, &apiErr), "got %T: %v", err, err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, "shopify graphql", apiErr.Service)
			assert.Contains(t, apiErr.Body, tt.wantBody)
		})
	}
}

func TestListColorways(t *testing.T) {
	c, _ := newAdminClient(t, func(w http.ResponseWriter, r *http.Request) {
		query, _ := graphQLPayload(t, r)
		assert.Contains(t, query, `metaobjects(type: "colorway"`)

		_, _ = w.Write([]byte(`{"data":{"metaobjects":{"nodes":[
			{"handle":"midnight","displayName":"Midnight","fields":[
				{"key":"upper_base","value":"#111111"},
				{"key":"sole_gradient","value":"[\"#000000\",\"#333333\"]"}
			]},
			{"handle":"plain","displayName":"","fields":[]}
		]}}}`))
	})

	colorways, err := c.ListColorways(context.Background(), adminShop, "shpat_1")
	require.NoError(t, err)
	require.Len(t, colorways, 2)
	assert.Equal(t, "midnight", colorways[0].ID)
	assert.Equal(t, "#111111", colorways[0].Upper.Base)
	assert.Equal(t, []string{"#000000", "#333333"}, colorways[0].Sole.GradientStops)
	assert.Equal(t, "plain", colorways[1].Name)
}

func TestListColorways_UpstreamError(t *testing.T) {
	c, _ := newAdminClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":"Access denied for metaobjects field"}`))
	})

	_, err := c.ListColorways(context.Background(), adminShop, "shpat_1")
	var apiErr *ports.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestAdminQueriesRequireMyshopifyDomain(t *testing.T) {
	c, rt := newAdminClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.GetProductVariants(context.Background(), "shop.kicks.com", "shpat_1", "42")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = c.ListColorways(context.Background(), "shop.kicks.com", "shpat_1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, rt.hosts)
}
