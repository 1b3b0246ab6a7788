package application

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/infrastructure/repository"
	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorefrontProxy_UsesStorefrontToken(t *testing.T) {
	client := &fakeCommerce{}
	m := &recordingMetrics{}
	svc := NewStorefrontProxyService(client, repository.NewMemoryRepository(), plainCodec(), "public-token", m, zerolog.Nop())

	resp, err := svc.Forward(context.Background(), testShop, ProxyRequest{Query: "{ shop { name } }"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, client.forwarded, 1)
	assert.True(t, client.forwarded[0].Storefront)
	assert.Equal(t, "public-token", client.forwarded[0].Token)
	assert.Equal(t, testShop, client.forwarded[0].Shop)
	assert.Equal(t, []int{http.StatusOK}, m.proxy)
}

func TestStorefrontProxy_FallsBackToAdminToken(t *testing.T) {
	client := &fakeCommerce{}
	svc := NewStorefrontProxyService(client, connectedRepo(), plainCodec(), "", nil, zerolog.Nop())

	_, err := svc.Forward(context.Background(), testShop, ProxyRequest{
		Action:    ActionInventory,
		Variables: map[string]interface{}{"id": "42"},
	})
	require.NoError(t, err)

	require.Len(t, client.forwarded, 1)
	assert.False(t, client.forwarded[0].Storefront)
	assert.Equal(t, "shpat_test", client.forwarded[0].Token)
	assert.Contains(t, client.forwarded[0].Query, "inventoryQuantity")
	assert.Equal(t, "gid://shopify/Product/42", client.forwarded[0].Variables["id"])
}

func TestStorefrontProxy_BuiltInQueryMatchesTargetAPI(t *testing.T) {
	tests := []struct {
		name            string
		storefrontToken string
		action          string
		contains        string
		absent          string
	}{
		{"storefront inventory", "public-token", ActionInventory, "quantityAvailable", "inventoryQuantity"},
		{"admin inventory", "", ActionInventory, "inventoryQuantity", "quantityAvailable"},
		{"storefront product", "public-token", ActionProduct, "price { amount currencyCode }", ""},
		{"admin product", "", ActionProduct, "price\n", "currencyCode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeCommerce{}
			svc := NewStorefrontProxyService(client, connectedRepo(), plainCodec(), tt.storefrontToken, nil, zerolog.Nop())

			_, err := svc.Forward(context.Background(), testShop, ProxyRequest{
				Action:    tt.action,
				Variables: map[string]interface{}{"productId": "gid://shopify/Product/42"},
			})
			require.NoError(t, err)

			require.Len(t, client.forwarded, 1)
			assert.Equal(t, tt.storefrontToken != "", client.forwarded[0].Storefront)
			assert.Contains(t, client.forwarded[0].Query, tt.contains)
			if tt.absent != "" {
				assert.NotContains(t, client.forwarded[0].Query, tt.absent)
			}
		})
	}
}

func TestStorefrontProxy_ShopNotConnected(t *testing.T) {
	svc := NewStorefrontProxyService(&fakeCommerce{}, repository.NewMemoryRepository(), plainCodec(), "", nil, zerolog.Nop())

	_, err := svc.Forward(context.Background(), testShop, ProxyRequest{Query: "{ shop { name } }"})
	assert.ErrorIs(t, err, domain.ErrShopNotConnected)
}

func TestStorefrontProxy_RejectsInvalidDocuments(t *testing.T) {
	client := &fakeCommerce{}
	m := &recordingMetrics{}
	svc := NewStorefrontProxyService(client, connectedRepo(), plainCodec(), "tok", m, zerolog.Nop())

	for name, req := range map[string]ProxyRequest{
		"mutation":       {Query: `mutation { cartCreate { cart { id } } }`},
		"mixed":          {Query: `query A { shop { name } } mutation B { x }`},
		"syntax error":   {Query: `{ shop { name }`},
		"no query":       {},
		"unknown action": {Action: "orders"},
		"missing id":     {Action: ActionProduct},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Forward(context.Background(), testShop, req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Empty(t, client.forwarded)
	assert.Contains(t, m.proxy, http.StatusBadRequest)
}

func TestStorefrontProxy_SurfacesUpstreamStatus(t *testing.T) {
	client := &fakeCommerce{forwardErr: &ports.APIError{Service: "shopify graphql", StatusCode: 429, Body: "throttled"}}
	m := &recordingMetrics{}
	svc := NewStorefrontProxyService(client, connectedRepo(), plainCodec(), "tok", m, zerolog.Nop())

	_, err := svc.Forward(context.Background(), testShop, ProxyRequest{Action: ActionProduct, Variables: map[string]interface{}{"productId": "7"}})
	var apiErr *ports.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.StatusCode)
	assert.Equal(t, []int{429}, m.proxy)
	assert.Len(t, client.forwarded, 1)
}
