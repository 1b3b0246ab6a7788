package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"configurator-shopify-layer/internal/domain"
)

// Webhook headers set by Shopify
const (
	headerTopic      = "X-Shopify-Topic"
	headerHMAC       = "X-Shopify-Hmac-Sha256"
	headerShopDomain = "X-Shopify-Shop-Domain"
	headerWebhookID  = "X-Shopify-Webhook-Id"
	headerEventID    = "X-Shopify-Event-Id"
)

// ReceiveWebhook verifies and dispatches a Shopify webhook delivery
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	topic := r.Header.Get(headerTopic)
	if topic == "" {
		h.logger.Warn().Msg("Missing X-Shopify-Topic header")
		http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read webhook payload")
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.Verifier.Verify(payload, r.Header.Get(headerHMAC)); err != nil {
		h.logger.Warn().Err(err).Str("topic", topic).Msg("Webhook signature verification failed")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	shop := r.Header.Get(headerShopDomain)
	if shop == "" {
		var webhookData struct {
			Domain     string `json:"domain"`
			ShopDomain string `json:"shop_domain"`
		}
		if err := json.Unmarshal(payload, &webhookData); err == nil {
			shop = webhookData.ShopDomain
			if shop == "" {
				shop = webhookData.Domain
			}
		}
	}

	id := r.Header.Get(headerWebhookID)
	if id == "" {
		id = r.Header.Get(headerEventID)
	}

	event := &domain.WebhookEvent{
		ID:         id,
		Topic:      topic,
		Shop:       shop,
		Payload:    payload,
		Verified:   true,
		ReceivedAt: time.Now().UTC(),
	}

	if err := h.svc.Webhooks.Dispatch(ctx, event); err != nil {
		h.logger.Error().
			Err(err).
			Str("topic", topic).
			Str("shop", shop).
			Msg("Failed to dispatch webhook event")

		// Return 500 to trigger Shopify retry
		http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
}
