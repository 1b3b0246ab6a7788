package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"configurator-shopify-layer/internal/domain"
)

// CommerceClient defines the Shopify operations the configurator needs
type CommerceClient interface {
	// Authentication
	GenerateAuthURL(shop string, scopes []string, redirectURI string, state string) (string, error)
	VerifyCallback(query url.Values) (bool, error)
	ExchangeToken(ctx context.Context, shop string, code string, redirectURI string) (string, error)

	// Catalog (Admin API)
	GetProductVariants(ctx context.Context, shop string, accessToken string, productID string) ([]domain.VariantDescriptor, error)
	ListColorways(ctx context.Context, shop string, accessToken string) ([]domain.Colorway, error)

	// Pass-through GraphQL (Storefront or Admin API)
	ForwardGraphQL(ctx context.Context, req GraphQLRequest) (*GraphQLResponse, error)
}

// GraphQLRequest is a query forwarded on behalf of the storefront
type GraphQLRequest struct {
	Shop       string
	Query      string
	Variables  map[string]interface{}
	Token      string
	Storefront bool // Storefront API with a public token, otherwise Admin API
}

// GraphQLResponse is the raw body returned by Shopify
type GraphQLResponse struct {
	StatusCode int
	Body       json.RawMessage
}

// APIError is a non-2xx answer from an external service
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s request failed: status %d, body: %s", e.Service, e.StatusCode, e.Body)
}

// EncryptionService encrypts secrets at rest
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenCodec seals access tokens before they are persisted and opens them after reads
type TokenCodec interface {
	EncryptToken(token string) (string, error)
	DecryptToken(stored string) (string, error)
}

// VariantCache caches size mappings per shop/product. Get returns (nil, nil) on a miss.
type VariantCache interface {
	Get(ctx context.Context, shop, productID string) (domain.VariantMapping, error)
	Set(ctx context.Context, shop, productID string, mapping domain.VariantMapping) error
	Invalidate(ctx context.Context, shop, productID string) error
}

// Metrics records business counters
type Metrics interface {
	CartBuilt(result string, urlLength int)
	SizesSkipped(n int)
	DesignSaved(result string)
	DesignLoaded(result string)
	ProxyRequest(action string, status int)
	WebhookReceived(topic string)
}
