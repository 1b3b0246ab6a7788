package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// VariantMappingSource resolves the size mapping of a product
type VariantMappingSource interface {
	GetVariantMapping(ctx context.Context, shop, productID string) (domain.VariantMapping, error)
}

// CheckoutInput is a configured shoe order
type CheckoutInput struct {
	Shop          string
	ProductID     string
	Quantities    domain.OrderQuantities
	Configuration domain.DesignConfiguration
	Notes         string
	DesignID      string
}

// CheckoutResult is the cart URL together with its length check
type CheckoutResult struct {
	Cart       domain.CartURL       `json:"cart"`
	Validation domain.URLValidation `json:"validation"`
}

// CartService turns configured orders into storefront cart permalinks
type CartService struct {
	mappings VariantMappingSource
	metrics  ports.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// NewCartService creates a new cart service
func NewCartService(mappings VariantMappingSource, metrics ports.Metrics, logger zerolog.Logger) *CartService {
	return &CartService{
		mappings: mappings,
		metrics:  metricsOrNop(metrics),
		logger:   logger,
		now:      time.Now,
	}
}

// BuildCheckout builds the cart URL for an order. Sizes without a variant are skipped and
// logged; domain.ErrNoValidLineItems is returned when nothing remains.
func (s *CartService) BuildCheckout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	shop, err := requireShop(in.Shop)
	if err != nil {
		return nil, err
	}
	if in.ProductID == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}
	for size, qty := range in.Quantities {
		if qty < 0 {
			return nil, fmt.Errorf("%w: negative quantity for %s", domain.ErrInvalidInput, size)
		}
	}

	mapping, err := s.mappings.GetVariantMapping(ctx, shop, in.ProductID)
	if err != nil {
		s.metrics.CartBuilt("error", 0)
		return nil, err
	}

	attrs := domain.AttributesFromDesign(in.Configuration, in.Notes, in.DesignID, s.now())
	cart, err := domain.BuildCartURL(shop, in.Quantities, mapping, attrs)
	if len(cart.Skipped) > 0 {
		s.metrics.SizesSkipped(len(cart.Skipped))
		s.logger.Warn().
			Str("shop", shop).
			Str("productId", in.ProductID).
			Interface("sizes", cart.Skipped).
			Msg("No variant found for requested sizes")
	}
	if err != nil {
		if errors.Is(err, domain.ErrNoValidLineItems) {
			s.metrics.CartBuilt("empty", 0)
		}
		return nil, err
	}

	validation := domain.ValidateURLLength(cart.URL)
	result := "ok"
	if !validation.IsValid {
		result = "too_long"
		s.logger.Warn().
			Str("shop", shop).
			Int("length", validation.Length).
			Int("maxLength", validation.MaxLength).
			Msg("Cart URL exceeds maximum length")
	}
	s.metrics.CartBuilt(result, validation.Length)

	s.logger.Info().
		Str("shop", shop).
		Str("productId", in.ProductID).
		Int("lineItems", len(cart.LineItems)).
		Msg("Built cart URL")

	return &CheckoutResult{Cart: cart, Validation: validation}, nil
}

// ValidateURL checks a URL against the storefront length limit
func (s *CartService) ValidateURL(u string) domain.URLValidation {
	return domain.ValidateURLLength(u)
}
