package domain

import (
	"regexp"
	"strings"
	"time"
)

// ShopConnection represents an installed shop and its Admin API credential.
// ShopDomain is always stored host-only (see NormalizeShopDomain).
type ShopConnection struct {
	ShopDomain  string    `json:"shop_domain" bson:"shop_domain"`
	AccessToken string    `json:"access_token" bson:"access_token"` // encrypted at rest when a key is configured
	Scopes      []string  `json:"scopes,omitempty" bson:"scopes,omitempty"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*(\.[a-z0-9-]+)+$`)

// NormalizeShopDomain strips the scheme, any path and trailing slashes, and lower-cases the host,
// so "https://My-Store.myshopify.com/" and "my-store.myshopify.com" resolve to the same key.
func NormalizeShopDomain(raw string) string {
	shop := strings.TrimSpace(strings.ToLower(raw))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	if i := strings.IndexAny(shop, "/?#"); i >= 0 {
		shop = shop[:i]
	}
	return strings.TrimRight(shop, "/")
}

// IsValidShopDomain reports whether a normalized shop domain looks like a host name.
func IsValidShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(shop)
}
