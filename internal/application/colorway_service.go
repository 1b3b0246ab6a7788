package application

import (
	"context"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ColorwayService lists colorway presets, preferring the shop's metaobjects
type ColorwayService struct {
	client ports.CommerceClient
	tokens *shopTokens
	logger zerolog.Logger
}

// NewColorwayService creates a new colorway service
func NewColorwayService(client ports.CommerceClient, shops ports.ShopConnectionRepository, codec ports.TokenCodec, logger zerolog.Logger) *ColorwayService {
	return &ColorwayService{
		client: client,
		tokens: &shopTokens{shops: shops, codec: codec},
		logger: logger,
	}
}

// List returns the shop's colorways, or the static catalog when the shop has none or cannot be read
func (s *ColorwayService) List(ctx context.Context, shop string) []domain.Colorway {
	shop = domain.NormalizeShopDomain(shop)
	if !domain.IsValidShopDomain(shop) {
		return staticColorways()
	}

	token, err := s.tokens.accessToken(ctx, shop)
	if err != nil {
		s.logger.Debug().Err(err).Str("shop", shop).Msg("Serving static colorways")
		return staticColorways()
	}

	colorways, err := s.client.ListColorways(ctx, shop, token)
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Failed to read colorway metaobjects, serving static colorways")
		return staticColorways()
	}
	if len(colorways) == 0 {
		return staticColorways()
	}
	return colorways
}

func staticColorways() []domain.Colorway {
	out := make([]domain.Colorway, len(domain.StaticColorways))
	copy(out, domain.StaticColorways)
	return out
}
