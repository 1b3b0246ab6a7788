package entity

import (
	"strings"
	"time"

	"configurator-shopify-layer/internal/domain"
)

// MongoDesignDoc represents a saved design in MongoDB. The uuid doubles as _id.
type MongoDesignDoc struct {
	ID            string                     `bson:"_id"`
	ShareToken    string                     `bson:"shareToken"`
	Name          string                     `bson:"name"`
	Description   string                     `bson:"description,omitempty"`
	IsPublic      bool                       `bson:"isPublic"`
	Configuration domain.DesignConfiguration `bson:"configuration"`
	ViewCount     int                        `bson:"viewCount"`
	CreatedAt     time.Time                  `bson:"createdAt"`
	UpdatedAt     time.Time                  `bson:"updatedAt"`
	LastViewedAt  *time.Time                 `bson:"lastViewedAt,omitempty"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoDesignDoc) ToDomain() *domain.SavedDesign {
	return &domain.SavedDesign{
		ID:            d.ID,
		ShareToken:    d.ShareToken,
		Name:          d.Name,
		Description:   d.Description,
		IsPublic:      d.IsPublic,
		Configuration: d.Configuration,
		ViewCount:     d.ViewCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		LastViewedAt:  d.LastViewedAt,
	}
}

// MongoDesignDocFromDomain converts a domain entity to a MongoDB document
func MongoDesignDocFromDomain(design *domain.SavedDesign) *MongoDesignDoc {
	return &MongoDesignDoc{
		ID:            design.ID,
		ShareToken:    design.ShareToken,
		Name:          design.Name,
		Description:   design.Description,
		IsPublic:      design.IsPublic,
		Configuration: design.Configuration,
		ViewCount:     design.ViewCount,
		CreatedAt:     design.CreatedAt,
		UpdatedAt:     design.UpdatedAt,
		LastViewedAt:  design.LastViewedAt,
	}
}

// SupabaseDesignRow is a row of the saved_designs table; configuration is a jsonb column
type SupabaseDesignRow struct {
	ID            string                     `json:"id"`
	ShareToken    string                     `json:"share_token"`
	Name          string                     `json:"name"`
	Description   *string                    `json:"description"`
	IsPublic      bool                       `json:"is_public"`
	Configuration domain.DesignConfiguration `json:"configuration"`
	ViewCount     int                        `json:"view_count"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
	LastViewedAt  *time.Time                 `json:"last_viewed_at,omitempty"`
}

// ToDomain converts the row to a domain entity
func (r *SupabaseDesignRow) ToDomain() *domain.SavedDesign {
	design := &domain.SavedDesign{
		ID:            r.ID,
		ShareToken:    r.ShareToken,
		Name:          r.Name,
		IsPublic:      r.IsPublic,
		Configuration: r.Configuration,
		ViewCount:     r.ViewCount,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		LastViewedAt:  r.LastViewedAt,
	}
	if r.Description != nil {
		design.Description = *r.Description
	}
	return design
}

// SupabaseDesignRowFromDomain converts a domain entity to a table row
func SupabaseDesignRowFromDomain(design *domain.SavedDesign) *SupabaseDesignRow {
	row := &SupabaseDesignRow{
		ID:            design.ID,
		ShareToken:    design.ShareToken,
		Name:          design.Name,
		IsPublic:      design.IsPublic,
		Configuration: design.Configuration,
		ViewCount:     design.ViewCount,
		CreatedAt:     design.CreatedAt.UTC(),
		UpdatedAt:     design.UpdatedAt.UTC(),
		LastViewedAt:  design.LastViewedAt,
	}
	if design.Description != "" {
		desc := design.Description
		row.Description = &desc
	}
	return row
}

func splitScopes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinScopes(scopes []string) string {
	return strings.Join(scopes, ",")
}
