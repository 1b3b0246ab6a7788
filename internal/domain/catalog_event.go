package domain

import "time"

// CatalogEventType classifies storefront-facing catalog changes
type CatalogEventType string

const (
	CatalogProductUpdated   CatalogEventType = "product_updated"
	CatalogProductDeleted   CatalogEventType = "product_deleted"
	CatalogInventoryUpdated CatalogEventType = "inventory_updated"
)

// CatalogEvent is pushed to open configurator sessions so they can refresh sizes and stock
type CatalogEvent struct {
	ID              string           `json:"id"`
	Type            CatalogEventType `json:"type"`
	Shop            string           `json:"shop"`
	ProductID       string           `json:"product_id,omitempty"`
	InventoryItemID string           `json:"inventory_item_id,omitempty"`
	Available       *int             `json:"available,omitempty"`
	OccurredAt      time.Time        `json:"occurred_at"`
}
