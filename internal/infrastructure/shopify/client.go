package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// DefaultAPIVersion is the Shopify API version used when none is configured
const DefaultAPIVersion = "2024-10"

// ClientOptions tunes the Shopify adapter
type ClientOptions struct {
	APIVersion string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type client struct {
	apiKey     string
	apiSecret  string
	apiVersion string
	app        goshopify.App
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Shopify client adapter
func NewClient(apiKey, apiSecret string) ports.CommerceClient {
	return NewClientWithOptions(apiKey, apiSecret, ClientOptions{Logger: zerolog.Nop()})
}

// NewClientWithOptions creates a client with an explicit API version, HTTP client and logger
func NewClientWithOptions(apiKey, apiSecret string, opts ClientOptions) ports.CommerceClient {
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	app := goshopify.App{
		ApiKey:    apiKey,
		ApiSecret: apiSecret,
	}
	return &client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		apiVersion: opts.APIVersion,
		app:        app,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// createClient is a helper to create a goshopify client. go-shopify appends .myshopify.com to any
// other host, so custom storefront domains are rejected instead of silently rewritten.
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	if !strings.HasSuffix(shopDomain, ".myshopify.com") {
		return nil, fmt.Errorf("%w: admin API calls need the shop's myshopify.com domain, got %q", domain.ErrInvalidInput, shopDomain)
	}
	client, err := goshopify.NewClient(c.app, shopDomain, accessToken,
		goshopify.WithVersion(c.apiVersion),
		goshopify.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// graphQLError turns go-shopify response errors into *ports.APIError so callers can report the
// upstream status. GraphQL-level errors arrive with HTTP 200 and are reported as 502.
func graphQLError(err error) error {
	var rateLimited goshopify.RateLimitError
	if errors.As(err, &rateLimited) {
		return responseAPIError(rateLimited.ResponseError, http.StatusTooManyRequests)
	}
	var respErr goshopify.ResponseError
	if errors.As(err, &respErr) {
		return responseAPIError(respErr, http.StatusBadGateway)
	}
	return err
}

func responseAPIError(e goshopify.ResponseError, fallback int) *ports.APIError {
	status := e.Status
	if status < http.StatusBadRequest {
		status = fallback
	}
	body := e.Message
	if len(e.Errors) > 0 {
		if body != "" {
			body += ": "
		}
		body += strings.Join(e.Errors, "; ")
	}
	return &ports.APIError{Service: "shopify graphql", StatusCode: status, Body: body}
}

// Authentication methods

func (c *client) GenerateAuthURL(shop string, scopes []string, redirectURI string, state string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("shopify api key is not configured")
	}
	// Shopify expects scopes to be comma-separated (no spaces)
	scopesStr := strings.Join(scopes, ",")

	authURL := fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		url.QueryEscape(c.apiKey),
		url.QueryEscape(scopesStr),
		url.QueryEscape(redirectURI),
		url.QueryEscape(state),
	)

	c.logger.Info().
		Str("shop", shop).
		Strs("scopes", scopes).
		Msg("Generated OAuth authorization URL")

	return authURL, nil
}

// VerifyCallback checks the hmac parameter Shopify signs the OAuth callback with
func (c *client) VerifyCallback(query url.Values) (bool, error) {
	if query.Get("hmac") == "" {
		return false, nil
	}
	ok, err := c.app.VerifyAuthorizationURL(&url.URL{RawQuery: query.Encode()})
	if err != nil {
		return false, fmt.Errorf("failed to verify callback: %w", err)
	}
	return ok, nil
}

func (c *client) ExchangeToken(ctx context.Context, shop string, code string, redirectURI string) (string, error) {
	// The go-shopify library's GetAccessToken doesn't expose redirect_uri, so we make a direct HTTP call
	if redirectURI != "" {
		tokenURL := fmt.Sprintf("https://%s/admin/oauth/access_token", shop)

		values := url.Values{}
		values.Set("client_id", c.apiKey)
		values.Set("client_secret", c.apiSecret)
		values.Set("code", code)
		values.Set("redirect_uri", redirectURI)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
		if err != nil {
			return "", fmt.Errorf("failed to create token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("failed to exchange token: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return "", &ports.APIError{Service: "shopify oauth", StatusCode: resp.StatusCode, Body: string(bodyBytes)}
		}

		var tokenResponse struct {
			AccessToken string `json:"access_token"`
			Scope       string `json:"scope"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
			return "", fmt.Errorf("failed to decode token response: %w", err)
		}
		if tokenResponse.AccessToken == "" {
			return "", fmt.Errorf("failed to exchange token: empty access token")
		}

		return tokenResponse.AccessToken, nil
	}

	token, err := c.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	return token, nil
}

// Catalog API

const productVariantsQuery = `query ProductVariants($id: ID!) {
  product(id: $id) {
    id
    variants(first: 100) {
      nodes {
        id
        title
        sku
        inventoryQuantity
        availableForSale
        selectedOptions { name value }
      }
    }
  }
}`

type productVariantsData struct {
	Product *struct {
		ID       string `json:"id"`
		Variants struct {
			Nodes []domain.VariantDescriptor `json:"nodes"`
		} `json:"variants"`
	} `json:"product"`
}

func (c *client) GetProductVariants(ctx context.Context, shopDomain string, accessToken string, productID string) ([]domain.VariantDescriptor, error) {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}

	var data productVariantsData
	vars := map[string]interface{}{"id": domain.ProductGID(productID)}
	if err := client.GraphQL.Query(ctx, productVariantsQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("failed to get product variants: %w", graphQLError(err))
	}
	if data.Product == nil {
		return nil, domain.ErrProductNotFound
	}
	return data.Product.Variants.Nodes, nil
}

const colorwaysQuery = `query Colorways {
  metaobjects(type: "colorway", first: 50) {
    nodes {
      handle
      displayName
      fields { key value }
    }
  }
}`

type metaobjectField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type colorwaysData struct {
	Metaobjects struct {
		Nodes []struct {
			Handle      string            `json:"handle"`
			DisplayName string            `json:"displayName"`
			Fields      []metaobjectField `json:"fields"`
		} `json:"nodes"`
	} `json:"metaobjects"`
}

func (c *client) ListColorways(ctx context.Context, shopDomain string, accessToken string) ([]domain.Colorway, error) {
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}

	var data colorwaysData
	if err := client.GraphQL.Query(ctx, colorwaysQuery, nil, &data); err != nil {
		return nil, fmt.Errorf("failed to list colorways: %w", graphQLError(err))
	}

	colorways := make([]domain.Colorway, 0, len(data.Metaobjects.Nodes))
	for _, node := range data.Metaobjects.Nodes {
		colorways = append(colorways, colorwayFromFields(node.Handle, node.DisplayName, node.Fields))
	}
	return colorways, nil
}

// colorwayFromFields maps metaobject fields such as upper_base or sole_splatter_2 onto a Colorway
func colorwayFromFields(handle, name string, fields []metaobjectField) domain.Colorway {
	cw := domain.Colorway{ID: handle, Name: name}
	for _, f := range fields {
		region, attr, ok := strings.Cut(f.Key, "_")
		if !ok {
			continue
		}
		var preset *domain.RegionPreset
		switch region {
		case "upper":
			preset = &cw.Upper
		case "sole":
			preset = &cw.Sole
		case "laces", "lace":
			preset = &cw.Laces
		default:
			continue
		}
		switch attr {
		case "base":
			preset.Base = f.Value
		case "splatter":
			preset.Splatter = f.Value
		case "splatter_2":
			preset.Splatter2 = f.Value
		case "gradient":
			var stops []string
			if err := json.Unmarshal([]byte(f.Value), &stops); err == nil {
				preset.GradientStops = stops
			}
		}
	}
	if cw.Name == "" {
		cw.Name = handle
	}
	return cw
}

// Pass-through GraphQL

func (c *client) ForwardGraphQL(ctx context.Context, gqlReq ports.GraphQLRequest) (*ports.GraphQLResponse, error) {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", gqlReq.Shop, c.apiVersion)
	tokenHeader := "X-Shopify-Access-Token"
	if gqlReq.Storefront {
		endpoint = fmt.Sprintf("https://%s/api/%s/graphql.json", gqlReq.Shop, c.apiVersion)
		tokenHeader = "X-Shopify-Storefront-Access-Token"
	}

	body, err := json.Marshal(map[string]interface{}{
		"query":     gqlReq.Query,
		"variables": gqlReq.Variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, gqlReq.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to forward graphql request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read graphql response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().
			Str("shop", gqlReq.Shop).
			Int("status", resp.StatusCode).
			Bool("storefront", gqlReq.Storefront).
			Msg("Shopify GraphQL request failed")
		return nil, &ports.APIError{Service: "shopify graphql", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return &ports.GraphQLResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}
