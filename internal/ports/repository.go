package ports

import (
	"context"
	"time"

	"configurator-shopify-layer/internal/domain"
)

// ShopConnectionRepository persists OAuth credentials keyed by normalized shop domain.
// Implementations return (nil, nil) when a shop is unknown.
type ShopConnectionRepository interface {
	UpsertShopConnection(ctx context.Context, conn *domain.ShopConnection) error
	GetShopConnection(ctx context.Context, shopDomain string) (*domain.ShopConnection, error)
	DeleteShopConnection(ctx context.Context, shopDomain string) error
}

// DesignRepository persists saved designs.
// CreateDesign returns domain.ErrDuplicateShareToken when the token is already taken.
// GetPublicDesignByToken returns (nil, nil) when no public design has the token.
type DesignRepository interface {
	CreateDesign(ctx context.Context, design *domain.SavedDesign) error
	GetPublicDesignByToken(ctx context.Context, token string) (*domain.SavedDesign, error)
	IncrementDesignView(ctx context.Context, id string, viewedAt time.Time) (int, error)
}

// SessionRepository stores pending OAuth installs keyed by state
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	// ConsumeSession returns and removes the session, or (nil, nil) when absent
	ConsumeSession(ctx context.Context, state string) (*domain.Session, error)
}

// IdempotencyStore de-duplicates webhook deliveries
type IdempotencyStore interface {
	// MarkProcessed returns true when id was not seen within ttl
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)
}
