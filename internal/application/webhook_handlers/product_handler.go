package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"configurator-shopify-layer/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProductInvalidator drops cached size mappings of a product
type ProductInvalidator interface {
	InvalidateProduct(ctx context.Context, shop, productID string) error
}

// EventPublisher fans catalog events out to open configurator sessions
type EventPublisher interface {
	Publish(event *domain.CatalogEvent)
}

// ProductHandler handles product-related webhook events
type ProductHandler struct {
	catalog   ProductInvalidator
	publisher EventPublisher
	logger    zerolog.Logger
}

// NewProductHandler creates a new product webhook handler
func NewProductHandler(catalog ProductInvalidator, publisher EventPublisher, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == domain.TopicProductsUpdate || topic == domain.TopicProductsDelete
}

// Handle processes a product webhook event
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var productData struct {
		ID    json.Number `json:"id"`
		Title string      `json:"title"`
	}
	if err := json.Unmarshal(event.Payload, &productData); err != nil {
		return fmt.Errorf("failed to parse product webhook payload: %w", err)
	}
	productID := numberString(productData.ID)
	if productID == "" {
		return fmt.Errorf("product webhook payload has no id")
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Str("productId", productID).
		Str("title", productData.Title).
		Msg("Processing product webhook event")

	if err := h.catalog.InvalidateProduct(ctx, event.Shop, productID); err != nil {
		return err
	}

	eventType := domain.CatalogProductUpdated
	if event.Topic == domain.TopicProductsDelete {
		eventType = domain.CatalogProductDeleted
	}
	h.publisher.Publish(&domain.CatalogEvent{
		ID:         catalogEventID(event),
		Type:       eventType,
		Shop:       domain.NormalizeShopDomain(event.Shop),
		ProductID:  productID,
		OccurredAt: occurredAt(event),
	})
	return nil
}

func catalogEventID(event *domain.WebhookEvent) string {
	if event.ID != "" {
		return event.ID
	}
	return uuid.NewString()
}

func occurredAt(event *domain.WebhookEvent) time.Time {
	if event.ReceivedAt.IsZero() {
		return time.Now().UTC()
	}
	return event.ReceivedAt
}

// numberString renders Shopify's numeric ids without float formatting
func numberString(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	return n.String()
}
