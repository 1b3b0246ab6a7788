package repository

import (
	"context"
	"sync"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"
)

// MemoryRepository keeps shops, designs and OAuth sessions in process memory.
// It backs STORAGE_DRIVER=memory and the service tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	shops    map[string]domain.ShopConnection
	designs  map[string]domain.SavedDesign // by id
	tokens   map[string]string             // share token -> id
	sessions map[string]domain.Session
	seen     map[string]time.Time
	now      func() time.Time
}

var (
	_ ports.ShopConnectionRepository = (*MemoryRepository)(nil)
	_ ports.DesignRepository         = (*MemoryRepository)(nil)
	_ ports.SessionRepository        = (*MemoryRepository)(nil)
	_ ports.IdempotencyStore         = (*MemoryRepository)(nil)
)

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		shops:    make(map[string]domain.ShopConnection),
		designs:  make(map[string]domain.SavedDesign),
		tokens:   make(map[string]string),
		sessions: make(map[string]domain.Session),
		seen:     make(map[string]time.Time),
		now:      time.Now,
	}
}

func (r *MemoryRepository) UpsertShopConnection(_ context.Context, conn *domain.ShopConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *conn
	stored.ShopDomain = domain.NormalizeShopDomain(conn.ShopDomain)
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = r.now()
	}
	r.shops[stored.ShopDomain] = stored
	return nil
}

func (r *MemoryRepository) GetShopConnection(_ context.Context, shopDomain string) (*domain.ShopConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.shops[domain.NormalizeShopDomain(shopDomain)]
	if !ok {
		return nil, nil
	}
	return &conn, nil
}

func (r *MemoryRepository) DeleteShopConnection(_ context.Context, shopDomain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.shops, domain.NormalizeShopDomain(shopDomain))
	return nil
}

func (r *MemoryRepository) CreateDesign(_ context.Context, design *domain.SavedDesign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.tokens[design.ShareToken]; taken {
		return domain.ErrDuplicateShareToken
	}
	r.designs[design.ID] = cloneDesign(design)
	r.tokens[design.ShareToken] = design.ID
	return nil
}

func (r *MemoryRepository) GetPublicDesignByToken(_ context.Context, token string) (*domain.SavedDesign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.tokens[token]
	if !ok {
		return nil, nil
	}
	design := r.designs[id]
	if !design.IsPublic {
		return nil, nil
	}
	out := cloneDesign(&design)
	return &out, nil
}

func (r *MemoryRepository) IncrementDesignView(_ context.Context, id string, viewedAt time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	design, ok := r.designs[id]
	if !ok {
		return 0, domain.ErrDesignNotFound
	}
	design.ViewCount++
	design.LastViewedAt = &viewedAt
	r.designs[id] = design
	return design.ViewCount, nil
}

// cloneDesign copies a design so stored records share no slices or pointers with callers
func cloneDesign(d *domain.SavedDesign) domain.SavedDesign {
	out := *d
	out.Configuration = d.Configuration.Clone()
	if d.LastViewedAt != nil {
		viewed := *d.LastViewedAt
		out.LastViewedAt = &viewed
	}
	return out
}

func (r *MemoryRepository) CreateSession(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.State] = *session
	return nil
}

func (r *MemoryRepository) ConsumeSession(_ context.Context, state string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[state]
	if !ok {
		return nil, nil
	}
	delete(r.sessions, state)
	return &session, nil
}

func (r *MemoryRepository) MarkProcessed(_ context.Context, id string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if expires, ok := r.seen[id]; ok && now.Before(expires) {
		return false, nil
	}
	r.seen[id] = now.Add(ttl)
	return true, nil
}
