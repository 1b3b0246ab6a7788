package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"configurator-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
)

// InventoryHandler pushes stock changes to open configurator sessions
type InventoryHandler struct {
	publisher EventPublisher
	logger    zerolog.Logger
}

// NewInventoryHandler creates a new inventory webhook handler
func NewInventoryHandler(publisher EventPublisher, logger zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{
		publisher: publisher,
		logger:    logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *InventoryHandler) CanHandle(topic string) bool {
	return topic == domain.TopicInventoryLevelsUpdate
}

// Handle processes an inventory level webhook event
func (h *InventoryHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var level struct {
		InventoryItemID json.Number `json:"inventory_item_id"`
		LocationID      json.Number `json:"location_id"`
		Available       *int        `json:"available"`
	}
	if err := json.Unmarshal(event.Payload, &level); err != nil {
		return fmt.Errorf("failed to parse inventory webhook payload: %w", err)
	}

	itemID := numberString(level.InventoryItemID)
	h.logger.Debug().
		Str("shop", event.Shop).
		Str("inventoryItemId", itemID).
		Str("locationId", numberString(level.LocationID)).
		Msg("Processing inventory webhook event")

	h.publisher.Publish(&domain.CatalogEvent{
		ID:              catalogEventID(event),
		Type:            domain.CatalogInventoryUpdated,
		Shop:            domain.NormalizeShopDomain(event.Shop),
		InventoryItemID: itemID,
		Available:       level.Available,
		OccurredAt:      occurredAt(event),
	})
	return nil
}
