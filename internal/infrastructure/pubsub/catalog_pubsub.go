package pubsub

import (
	"context"
	"sync"

	"configurator-shopify-layer/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// subscriberBuffer is the number of events a slow subscriber may lag behind before drops start
const subscriberBuffer = 16

// CatalogEventChannel represents a subscription channel
type CatalogEventChannel struct {
	ID     string
	Filter *CatalogEventFilter
	Events chan *domain.CatalogEvent
	Done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// CatalogEventFilter filters catalog events
type CatalogEventFilter struct {
	Types     []domain.CatalogEventType
	Shop      string
	ProductID string
}

// CatalogPubSub fans catalog webhooks out to server-sent event streams
type CatalogPubSub struct {
	mu       sync.RWMutex
	channels map[string]*CatalogEventChannel
	logger   zerolog.Logger
}

// NewCatalogPubSub creates a new pub/sub
func NewCatalogPubSub(logger zerolog.Logger) *CatalogPubSub {
	return &CatalogPubSub{
		channels: make(map[string]*CatalogEventChannel),
		logger:   logger,
	}
}

// Subscribe creates a new subscription channel. It is removed when ctx is cancelled.
func (ps *CatalogPubSub) Subscribe(ctx context.Context, filter *CatalogEventFilter) *CatalogEventChannel {
	subCtx, cancel := context.WithCancel(ctx)

	channel := &CatalogEventChannel{
		ID:     uuid.NewString(),
		Filter: filter,
		Events: make(chan *domain.CatalogEvent, subscriberBuffer),
		Done:   make(chan struct{}),
		ctx:    subCtx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.channels[channel.ID] = channel
	ps.mu.Unlock()

	ps.logger.Debug().
		Str("channelId", channel.ID).
		Interface("filter", filter).
		Msg("Catalog subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(channel.ID)
	}()

	return channel
}

// Unsubscribe removes a subscription channel
func (ps *CatalogPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}

	close(channel.Events)
	close(channel.Done)
	channel.cancel()
	delete(ps.channels, channelID)

	ps.logger.Debug().
		Str("channelId", channelID).
		Msg("Catalog subscription removed")
}

// Publish broadcasts an event to all matching subscribers without blocking
func (ps *CatalogPubSub) Publish(event *domain.CatalogEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	publishedCount := 0
	for _, channel := range ps.channels {
		if !matchesFilter(event, channel.Filter) {
			continue
		}
		select {
		case channel.Events <- event:
			publishedCount++
		case <-channel.ctx.Done():
		default:
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Msg("Channel buffer full, dropping event")
		}
	}

	if publishedCount > 0 {
		ps.logger.Debug().
			Str("type", string(event.Type)).
			Str("shop", event.Shop).
			Int("subscribers", publishedCount).
			Msg("Published catalog event to subscribers")
	}
}

func matchesFilter(event *domain.CatalogEvent, filter *CatalogEventFilter) bool {
	if filter == nil {
		return true
	}

	if len(filter.Types) > 0 {
		typeMatch := false
		for _, t := range filter.Types {
			if event.Type == t {
				typeMatch = true
				break
			}
		}
		if !typeMatch {
			return false
		}
	}

	if filter.Shop != "" && event.Shop != filter.Shop {
		return false
	}

	// inventory events carry an inventory item, not a product, so they always pass the product filter
	if filter.ProductID != "" && event.ProductID != "" && event.ProductID != filter.ProductID {
		return false
	}

	return true
}

// Subscribers returns the number of active subscriptions
func (ps *CatalogPubSub) Subscribers() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.channels)
}
