package application

import (
	"context"
	"fmt"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// webhookDedupTTL covers Shopify's retry window for a failed delivery
const webhookDedupTTL = 48 * time.Hour

// WebhookHandler processes webhook events for the topics it accepts
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook deliveries to their handlers
type WebhookDispatcher struct {
	handlers    []WebhookHandler
	idempotency ports.IdempotencyStore
	metrics     ports.Metrics
	logger      zerolog.Logger
}

// NewWebhookDispatcher creates a new dispatcher. A nil idempotency store disables de-duplication.
func NewWebhookDispatcher(idempotency ports.IdempotencyStore, metrics ports.Metrics, logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		idempotency: idempotency,
		metrics:     metricsOrNop(metrics),
		logger:      logger,
	}
}

// RegisterHandler adds a handler. Every handler accepting a topic receives its events.
func (d *WebhookDispatcher) RegisterHandler(h WebhookHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch runs the handlers for an event. A delivery already seen under the same id is acknowledged
// without running them again.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	d.metrics.WebhookReceived(event.Topic)

	if d.idempotency != nil && event.ID != "" {
		first, err := d.idempotency.MarkProcessed(ctx, event.ID, webhookDedupTTL)
		if err != nil {
			d.logger.Warn().Err(err).Str("webhookId", event.ID).Msg("Webhook de-duplication unavailable")
		} else if !first {
			d.logger.Info().Str("webhookId", event.ID).Str("topic", event.Topic).Msg("Skipping duplicate webhook delivery")
			return nil
		}
	}

	handled := false
	for _, h := range d.handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled = true
		if err := h.Handle(ctx, event); err != nil {
			return fmt.Errorf("failed to handle %s webhook: %w", event.Topic, err)
		}
	}

	if !handled {
		d.logger.Debug().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler for webhook topic")
	}
	return nil
}
