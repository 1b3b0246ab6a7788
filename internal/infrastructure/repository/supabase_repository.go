package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/infrastructure/repository/entity"
	"configurator-shopify-layer/internal/ports"

	postgrest "github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const (
	shopConnectionsTable = "shop_connections"
	savedDesignsTable    = "saved_designs"

	// increment_design_view(design_id uuid, viewed_at timestamptz) returns integer: the new
	// view_count, or null when no row has that id
	incrementDesignViewFunction = "increment_design_view"

	// postgres unique_violation, surfaced by PostgREST as "(23505) ..."
	uniqueViolationCode = "(23505)"
)

// tableClient is satisfied by both *supabase.Client and *postgrest.Client
type tableClient interface {
	From(table string) *postgrest.QueryBuilder
	Rpc(name, count string, rpcBody interface{}) string
}

// SupabaseRepository implements ShopConnectionRepository and DesignRepository on Supabase (PostgREST).
// postgrest-go has no context support; calls run to completion once started.
type SupabaseRepository struct {
	client tableClient
}

var (
	_ ports.ShopConnectionRepository = (*SupabaseRepository)(nil)
	_ ports.DesignRepository         = (*SupabaseRepository)(nil)
)

// NewSupabaseRepository connects to a Supabase project with a service-role key
func NewSupabaseRepository(url, serviceKey string) (*SupabaseRepository, error) {
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseRepository{client: client}, nil
}

// UpsertShopConnection saves or updates a shop's credentials, keyed by shop_domain
func (r *SupabaseRepository) UpsertShopConnection(ctx context.Context, conn *domain.ShopConnection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := entity.SupabaseShopConnectionRowFromDomain(conn)
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}

	_, _, err := r.client.From(shopConnectionsTable).
		Upsert(row, "shop_domain", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to save shop connection: %w", err)
	}
	return nil
}

// GetShopConnection retrieves a shop's credentials by domain
func (r *SupabaseRepository) GetShopConnection(ctx context.Context, shopDomain string) (*domain.ShopConnection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []entity.SupabaseShopConnectionRow
	_, err := r.client.From(shopConnectionsTable).
		Select("*", "", false).
		Eq("shop_domain", domain.NormalizeShopDomain(shopDomain)).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop connection: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// DeleteShopConnection removes a shop's credentials
func (r *SupabaseRepository) DeleteShopConnection(ctx context.Context, shopDomain string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := r.client.From(shopConnectionsTable).
		Delete("minimal", "").
		Eq("shop_domain", domain.NormalizeShopDomain(shopDomain)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete shop connection: %w", err)
	}
	return nil
}

// CreateDesign inserts a new design. A taken share token yields domain.ErrDuplicateShareToken.
func (r *SupabaseRepository) CreateDesign(ctx context.Context, design *domain.SavedDesign) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := entity.SupabaseDesignRowFromDomain(design)

	_, _, err := r.client.From(savedDesignsTable).
		Insert(row, false, "", "minimal", "").
		Execute()
	if err != nil {
		if strings.HasPrefix(err.Error(), uniqueViolationCode) {
			return domain.ErrDuplicateShareToken
		}
		return fmt.Errorf("failed to create design: %w", err)
	}
	return nil
}

// GetPublicDesignByToken retrieves a public design by share token
func (r *SupabaseRepository) GetPublicDesignByToken(ctx context.Context, token string) (*domain.SavedDesign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []entity.SupabaseDesignRow
	_, err := r.client.From(savedDesignsTable).
		Select("*", "", false).
		Eq("share_token", token).
		Eq("is_public", "true").
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get design: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// IncrementDesignView bumps view_count in the database and returns the new value.
// PostgREST has no update-with-increment, so the work happens in a SQL function.
func (r *SupabaseRepository) IncrementDesignView(ctx context.Context, id string, viewedAt time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	raw := r.client.Rpc(incrementDesignViewFunction, "", map[string]interface{}{
		"design_id": id,
		"viewed_at": viewedAt.UTC(),
	})

	var count *int
	if err := json.Unmarshal([]byte(raw), &count); err != nil {
		return 0, fmt.Errorf("failed to record design view: %s", rpcErrorMessage(raw))
	}
	if count == nil {
		return 0, domain.ErrDesignNotFound
	}
	return *count, nil
}

// rpcErrorMessage extracts the PostgREST error message from an rpc response body
func rpcErrorMessage(raw string) string {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err == nil && body.Message != "" {
		return fmt.Sprintf("(%s) %s", body.Code, body.Message)
	}
	if raw == "" {
		return "empty response"
	}
	return raw
}
