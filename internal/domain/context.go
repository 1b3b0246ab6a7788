package domain

import "context"

type contextKey string

const shopDomainKey contextKey = "shop_domain"

// WithShopDomain stores the normalized shop domain of the request
func WithShopDomain(ctx context.Context, shop string) context.Context {
	return context.WithValue(ctx, shopDomainKey, shop)
}

// GetShopDomainFromContext returns the shop domain set by WithShopDomain, or ""
func GetShopDomainFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(shopDomainKey).(string); ok {
		return v
	}
	return ""
}
