package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"configurator-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
)

// ShopConnectionRemover forgets an installed shop
type ShopConnectionRemover interface {
	DeleteShopConnection(ctx context.Context, shopDomain string) error
}

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	shops  ShopConnectionRemover
	logger zerolog.Logger
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(shops ShopConnectionRemover, logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		shops:  shops,
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle removes the stored credential of the uninstalling shop
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain := event.Shop
	if shopDomain == "" {
		var shopData struct {
			Domain          string `json:"domain"`
			MyshopifyDomain string `json:"myshopify_domain"`
		}
		if err := json.Unmarshal(event.Payload, &shopData); err != nil {
			return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
		}
		shopDomain = shopData.MyshopifyDomain
		if shopDomain == "" {
			shopDomain = shopData.Domain
		}
	}
	if shopDomain == "" {
		return fmt.Errorf("app uninstalled webhook has no shop domain")
	}

	if err := h.shops.DeleteShopConnection(ctx, shopDomain); err != nil {
		return fmt.Errorf("failed to delete shop connection: %w", err)
	}

	h.logger.Info().Str("shop", domain.NormalizeShopDomain(shopDomain)).Msg("App uninstalled, shop connection removed")
	return nil
}
