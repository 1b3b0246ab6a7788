package application

import (
	"context"
	"net/url"
	"sync"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/infrastructure/repository"
	"configurator-shopify-layer/internal/infrastructure/shopify"
	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

const testShop = "kicks.myshopify.com"

type fakeCommerce struct {
	mu sync.Mutex

	variants      []domain.VariantDescriptor
	variantsErr   error
	variantsCalls int
	beforeReturn  func()

	colorways    []domain.Colorway
	colorwaysErr error

	forwarded  []ports.GraphQLRequest
	forwardErr error

	callbackOK  bool
	token       string
	exchangeErr error
}

var _ ports.CommerceClient = (*fakeCommerce)(nil)

func (f *fakeCommerce) GenerateAuthURL(shop string, scopes []string, redirectURI string, state string) (string, error) {
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return "https://" + shop + "/admin/oauth/authorize?" + q.Encode(), nil
}

func (f *fakeCommerce) VerifyCallback(query url.Values) (bool, error) {
	return f.callbackOK, nil
}

func (f *fakeCommerce) ExchangeToken(ctx context.Context, shop string, code string, redirectURI string) (string, error) {
	return f.token, f.exchangeErr
}

func (f *fakeCommerce) GetProductVariants(ctx context.Context, shop string, accessToken string, productID string) ([]domain.VariantDescriptor, error) {
	f.mu.Lock()
	f.variantsCalls++
	variants, err := f.variants, f.variantsErr
	hook := f.beforeReturn
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return variants, err
}

func (f *fakeCommerce) ListColorways(ctx context.Context, shop string, accessToken string) ([]domain.Colorway, error) {
	return f.colorways, f.colorwaysErr
}

func (f *fakeCommerce) ForwardGraphQL(ctx context.Context, req ports.GraphQLRequest) (*ports.GraphQLResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwarded = append(f.forwarded, req)
	if f.forwardErr != nil {
		return nil, f.forwardErr
	}
	return &ports.GraphQLResponse{StatusCode: 200, Body: []byte(`{"data":{}}`)}, nil
}

func (f *fakeCommerce) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.variantsCalls
}

type recordingMetrics struct {
	nopMetrics
	mu      sync.Mutex
	carts   []string
	skipped int
	saved   []string
	loaded  []string
	proxy   []int
	hooks   []string
}

func (m *recordingMetrics) CartBuilt(result string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = append(m.carts, result)
}

func (m *recordingMetrics) SizesSkipped(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped += n
}

func (m *recordingMetrics) DesignSaved(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, result)
}

func (m *recordingMetrics) DesignLoaded(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = append(m.loaded, result)
}

func (m *recordingMetrics) ProxyRequest(_ string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proxy = append(m.proxy, status)
}

func (m *recordingMetrics) WebhookReceived(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, topic)
}

func plainCodec() ports.TokenCodec {
	return shopify.NewTokenManager(nil, zerolog.Nop())
}

func connectedRepo() *repository.MemoryRepository {
	repo := repository.NewMemoryRepository()
	_ = repo.UpsertShopConnection(context.Background(), &domain.ShopConnection{
		ShopDomain:  testShop,
		AccessToken: "shpat_test",
	})
	return repo
}

func sizeVariant(id, size string) domain.VariantDescriptor {
	return domain.VariantDescriptor{
		ID:                "gid://shopify/ProductVariant/" + id,
		Title:             size,
		SelectedOptions:   []domain.SelectedOption{{Name: "Size", Value: size}},
		InventoryQuantity: 5,
		AvailableForSale:  true,
	}
}
