package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/infrastructure/pubsub"
)

// sseHeartbeat keeps idle streams open through proxies
var sseHeartbeat = 25 * time.Second

// StreamEvents streams catalog events of the request's shop as server-sent events.
// Optional filters: product_id and types (comma separated).
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	shop, err := requireShop(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	filter := &pubsub.CatalogEventFilter{
		Shop:      shop,
		ProductID: r.URL.Query().Get("product_id"),
	}
	for _, t := range strings.Split(r.URL.Query().Get("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter.Types = append(filter.Types, domain.CatalogEventType(t))
		}
	}

	sub := h.svc.Events.Subscribe(r.Context(), filter)
	defer h.svc.Events.Unsubscribe(sub.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "retry: 5000\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error().Err(err).Msg("Failed to encode catalog event")
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, data)
			flusher.Flush()
		}
	}
}
