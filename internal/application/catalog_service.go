package application

import (
	"context"
	"fmt"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// CatalogService reads product variants through the commerce API and keeps size mappings cached
type CatalogService struct {
	client      ports.CommerceClient
	tokens      *shopTokens
	cache       ports.VariantCache
	generations *generationTracker
	logger      zerolog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	client ports.CommerceClient,
	shops ports.ShopConnectionRepository,
	codec ports.TokenCodec,
	cache ports.VariantCache,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		client:      client,
		tokens:      &shopTokens{shops: shops, codec: codec},
		cache:       cache,
		generations: newGenerationTracker(),
		logger:      logger,
	}
}

// ProductSizes is a product's variants together with the mapping derived from them
type ProductSizes struct {
	ProductID string                     `json:"product_id"`
	Variants  []domain.VariantDescriptor `json:"variants"`
	Mapping   domain.VariantMapping      `json:"mapping"`
	Sizes     []domain.SizeCode          `json:"sizes"`
}

// GetProductVariants fetches the variants of a product. Every call goes to the commerce API.
func (s *CatalogService) GetProductVariants(ctx context.Context, shop, productID string) ([]domain.VariantDescriptor, error) {
	shop, err := requireShop(shop)
	if err != nil {
		return nil, err
	}
	productID = domain.NormalizeProductID(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrInvalidInput)
	}

	token, err := s.tokens.accessToken(ctx, shop)
	if err != nil {
		return nil, err
	}

	variants, err := s.client.GetProductVariants(ctx, shop, token, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Str("productId", productID).Msg("Failed to fetch product variants")
		return nil, err
	}
	return variants, nil
}

// GetProduct fetches variants, rebuilds the size mapping and refreshes the cache
func (s *CatalogService) GetProduct(ctx context.Context, shop, productID string) (*ProductSizes, error) {
	shop = domain.NormalizeShopDomain(shop)
	productID = domain.NormalizeProductID(productID)
	key := productKey(shop, productID)
	gen := s.generations.Begin(key)
	defer s.generations.Done(key)

	variants, err := s.GetProductVariants(ctx, shop, productID)
	if err != nil {
		return nil, err
	}

	mapping := s.buildMapping(shop, productID, variants)
	s.storeIfCurrent(ctx, key, gen, shop, productID, mapping)

	return &ProductSizes{
		ProductID: productID,
		Variants:  variants,
		Mapping:   mapping,
		Sizes:     mapping.Sizes(),
	}, nil
}

// GetVariantMapping returns the size mapping of a product, from cache when possible
func (s *CatalogService) GetVariantMapping(ctx context.Context, shop, productID string) (domain.VariantMapping, error) {
	shop = domain.NormalizeShopDomain(shop)
	productID = domain.NormalizeProductID(productID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, shop, productID)
		if err != nil {
			s.logger.Warn().Err(err).Str("shop", shop).Str("productId", productID).Msg("Variant cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	product, err := s.GetProduct(ctx, shop, productID)
	if err != nil {
		return nil, err
	}
	return product.Mapping, nil
}

// GetInventory returns per-size stock of a product
func (s *CatalogService) GetInventory(ctx context.Context, shop, productID string) ([]domain.SizeInventory, error) {
	variants, err := s.GetProductVariants(ctx, shop, productID)
	if err != nil {
		return nil, err
	}
	return domain.InventoryBySize(variants), nil
}

// InvalidateProduct drops the cached mapping and supersedes any fetch still in flight
func (s *CatalogService) InvalidateProduct(ctx context.Context, shop, productID string) error {
	shop = domain.NormalizeShopDomain(shop)
	productID = domain.NormalizeProductID(productID)
	s.generations.Supersede(productKey(shop, productID))

	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, shop, productID); err != nil {
		return fmt.Errorf("failed to invalidate product %s: %w", productID, err)
	}

	s.logger.Debug().Str("shop", shop).Str("productId", productID).Msg("Invalidated variant mapping")
	return nil
}

func productKey(shop, productID string) string {
	return shop + "/" + productID
}

func (s *CatalogService) buildMapping(shop, productID string, variants []domain.VariantDescriptor) domain.VariantMapping {
	mapping, unmatched := domain.BuildVariantMapping(variants)
	for _, v := range unmatched {
		s.logger.Warn().
			Str("shop", shop).
			Str("productId", productID).
			Str("variantId", v.ID).
			Str("title", v.Title).
			Str("sku", v.SKU).
			Msg("No size found for variant")
	}
	return mapping
}

func (s *CatalogService) storeIfCurrent(ctx context.Context, key string, gen uint64, shop, productID string, mapping domain.VariantMapping) {
	if s.cache == nil {
		return
	}
	if !s.generations.IsCurrent(key, gen) {
		s.logger.Debug().Str("shop", shop).Str("productId", productID).Msg("Discarding superseded variant mapping")
		return
	}
	if err := s.cache.Set(ctx, shop, productID, mapping); err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Str("productId", productID).Msg("Variant cache write failed")
	}
}
