package entity

import (
	"time"

	"configurator-shopify-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoShopConnectionDoc represents an installed shop in MongoDB
type MongoShopConnectionDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ShopDomain  string             `bson:"shopDomain"`
	AccessToken string             `bson:"accessToken"`
	Scopes      []string           `bson:"scopes,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopConnectionDoc) ToDomain() *domain.ShopConnection {
	return &domain.ShopConnection{
		ShopDomain:  d.ShopDomain,
		AccessToken: d.AccessToken,
		Scopes:      d.Scopes,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoShopConnectionDocFromDomain converts a domain entity to a MongoDB document
func MongoShopConnectionDocFromDomain(conn *domain.ShopConnection) *MongoShopConnectionDoc {
	return &MongoShopConnectionDoc{
		ShopDomain:  domain.NormalizeShopDomain(conn.ShopDomain),
		AccessToken: conn.AccessToken,
		Scopes:      conn.Scopes,
		UpdatedAt:   conn.UpdatedAt,
	}
}

// SupabaseShopConnectionRow is a row of the shop_connections table
type SupabaseShopConnectionRow struct {
	ShopDomain  string    `json:"shop_domain"`
	AccessToken string    `json:"access_token"`
	Scopes      string    `json:"scopes"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToDomain converts the row to a domain entity. Scopes are stored comma-separated, as Shopify returns them.
func (r *SupabaseShopConnectionRow) ToDomain() *domain.ShopConnection {
	return &domain.ShopConnection{
		ShopDomain:  r.ShopDomain,
		AccessToken: r.AccessToken,
		Scopes:      splitScopes(r.Scopes),
		UpdatedAt:   r.UpdatedAt,
	}
}

// SupabaseShopConnectionRowFromDomain converts a domain entity to a table row
func SupabaseShopConnectionRowFromDomain(conn *domain.ShopConnection) *SupabaseShopConnectionRow {
	return &SupabaseShopConnectionRow{
		ShopDomain:  domain.NormalizeShopDomain(conn.ShopDomain),
		AccessToken: conn.AccessToken,
		Scopes:      joinScopes(conn.Scopes),
		UpdatedAt:   conn.UpdatedAt.UTC(),
	}
}
