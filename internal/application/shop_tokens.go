package application

import (
	"context"
	"fmt"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"
)

// shopTokens resolves the decrypted Admin API token of an installed shop
type shopTokens struct {
	shops ports.ShopConnectionRepository
	codec ports.TokenCodec
}

func (t *shopTokens) accessToken(ctx context.Context, shop string) (string, error) {
	conn, err := t.shops.GetShopConnection(ctx, shop)
	if err != nil {
		return "", fmt.Errorf("failed to load shop connection: %w", err)
	}
	if conn == nil || conn.AccessToken == "" {
		return "", domain.ErrShopNotConnected
	}
	token, err := t.codec.DecryptToken(conn.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	return token, nil
}

// requireShop normalizes and validates a shop domain taken from a request
func requireShop(shop string) (string, error) {
	shop = domain.NormalizeShopDomain(shop)
	if !domain.IsValidShopDomain(shop) {
		return "", fmt.Errorf("%w: invalid shop domain %q", domain.ErrInvalidInput, shop)
	}
	return shop, nil
}
