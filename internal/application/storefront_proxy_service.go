package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Built-in proxy actions, used when the caller sends no query of its own
const (
	ActionProduct   = "product"
	ActionInventory = "inventory"
)

const storefrontProductQuery = `query ConfiguratorProduct($id: ID!) {
  product(id: $id) {
    id
    title
    handle
    variants(first: 100) {
      nodes {
        id
        title
        sku
        availableForSale
        selectedOptions { name value }
        price { amount currencyCode }
      }
    }
  }
}`

const storefrontInventoryQuery = `query ConfiguratorInventory($id: ID!) {
  product(id: $id) {
    id
    variants(first: 100) {
      nodes {
        id
        title
        availableForSale
        quantityAvailable
      }
    }
  }
}`

// The Admin API exposes price as a scalar and stock as inventoryQuantity
const adminProductQuery = `query ConfiguratorProduct($id: ID!) {
  product(id: $id) {
    id
    title
    handle
    variants(first: 100) {
      nodes {
        id
        title
        sku
        availableForSale
        selectedOptions { name value }
        price
      }
    }
  }
}`

const adminInventoryQuery = `query ConfiguratorInventory($id: ID!) {
  product(id: $id) {
    id
    variants(first: 100) {
      nodes {
        id
        title
        availableForSale
        inventoryQuantity
      }
    }
  }
}`

// ProxyRequest is a GraphQL request sent by the storefront
type ProxyRequest struct {
	Query     string
	Variables map[string]interface{}
	Action    string
}

// StorefrontProxyService forwards read-only GraphQL from the storefront to Shopify
type StorefrontProxyService struct {
	client          ports.CommerceClient
	tokens          *shopTokens
	storefrontToken string
	metrics         ports.Metrics
	logger          zerolog.Logger
}

// NewStorefrontProxyService creates a new proxy. With a storefrontToken the Storefront API is
// used; otherwise requests go to the Admin API with the shop's stored token.
func NewStorefrontProxyService(
	client ports.CommerceClient,
	shops ports.ShopConnectionRepository,
	codec ports.TokenCodec,
	storefrontToken string,
	metrics ports.Metrics,
	logger zerolog.Logger,
) *StorefrontProxyService {
	return &StorefrontProxyService{
		client:          client,
		tokens:          &shopTokens{shops: shops, codec: codec},
		storefrontToken: storefrontToken,
		metrics:         metricsOrNop(metrics),
		logger:          logger,
	}
}

// Forward validates and forwards a request once. Non-2xx answers surface as *ports.APIError.
func (s *StorefrontProxyService) Forward(ctx context.Context, shop string, req ProxyRequest) (*ports.GraphQLResponse, error) {
	action := req.Action
	if action == "" {
		action = "custom"
	}

	resp, err := s.forward(ctx, shop, req)
	if err != nil {
		var apiErr *ports.APIError
		switch {
		case errors.As(err, &apiErr):
			s.metrics.ProxyRequest(action, apiErr.StatusCode)
		case errors.Is(err, domain.ErrInvalidInput):
			s.metrics.ProxyRequest(action, http.StatusBadRequest)
		default:
			s.metrics.ProxyRequest(action, http.StatusBadGateway)
		}
		return nil, err
	}
	s.metrics.ProxyRequest(action, resp.StatusCode)
	return resp, nil
}

func (s *StorefrontProxyService) forward(ctx context.Context, shop string, req ProxyRequest) (*ports.GraphQLResponse, error) {
	shop, err := requireShop(shop)
	if err != nil {
		return nil, err
	}

	storefront := s.storefrontToken != ""
	query, variables, err := resolveProxyQuery(req, storefront)
	if err != nil {
		return nil, err
	}
	if err := validateReadOnly(query); err != nil {
		return nil, err
	}

	gqlReq := ports.GraphQLRequest{
		Shop:      shop,
		Query:     query,
		Variables: variables,
	}
	if storefront {
		gqlReq.Token = s.storefrontToken
		gqlReq.Storefront = true
	} else {
		token, err := s.tokens.accessToken(ctx, shop)
		if err != nil {
			return nil, err
		}
		gqlReq.Token = token
	}

	resp, err := s.client.ForwardGraphQL(ctx, gqlReq)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Str("action", req.Action).Msg("Storefront proxy request failed")
		return nil, err
	}
	return resp, nil
}

// resolveProxyQuery picks the caller's query, or the built-in one for the product and inventory
// actions written against the API the request will reach
func resolveProxyQuery(req ProxyRequest, storefront bool) (string, map[string]interface{}, error) {
	if strings.TrimSpace(req.Query) != "" {
		return req.Query, req.Variables, nil
	}

	var query string
	switch req.Action {
	case ActionProduct:
		query = adminProductQuery
		if storefront {
			query = storefrontProductQuery
		}
	case ActionInventory:
		query = adminInventoryQuery
		if storefront {
			query = storefrontInventoryQuery
		}
	default:
		return "", nil, fmt.Errorf("%w: query or a known action is required", domain.ErrInvalidInput)
	}

	id, _ := req.Variables["id"].(string)
	if id == "" {
		id, _ = req.Variables["productId"].(string)
	}
	if id == "" {
		return "", nil, fmt.Errorf("%w: variables.id is required for action %q", domain.ErrInvalidInput, req.Action)
	}
	return query, map[string]interface{}{"id": domain.ProductGID(id)}, nil
}

// validateReadOnly parses the document and rejects anything but queries
func validateReadOnly(query string) error {
	doc, err := parser.ParseQuery(&ast.Source{Name: "proxy", Input: query})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if len(doc.Operations) == 0 {
		return fmt.Errorf("%w: document has no operation", domain.ErrInvalidInput)
	}
	for _, op := range doc.Operations {
		if op.Operation != ast.Query {
			return fmt.Errorf("%w: %s operations are not allowed", domain.ErrInvalidInput, op.Operation)
		}
	}
	return nil
}
