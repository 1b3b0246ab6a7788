package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// installStateTTL is how long an OAuth install may take between redirect and callback
const installStateTTL = 10 * time.Minute

// AuthConfig holds the OAuth app settings
type AuthConfig struct {
	Scopes      []string
	RedirectURI string
	AppURL      string // default return target after install
}

// AuthService runs the Shopify OAuth install flow
type AuthService struct {
	client   ports.CommerceClient
	shops    ports.ShopConnectionRepository
	sessions ports.SessionRepository
	codec    ports.TokenCodec
	cfg      AuthConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	client ports.CommerceClient,
	shops ports.ShopConnectionRepository,
	sessions ports.SessionRepository,
	codec ports.TokenCodec,
	cfg AuthConfig,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		client:   client,
		shops:    shops,
		sessions: sessions,
		codec:    codec,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// BeginInstall stores a pending install and returns the Shopify authorize URL
func (s *AuthService) BeginInstall(ctx context.Context, shop, returnURL string) (string, error) {
	shop, err := requireShop(shop)
	if err != nil {
		return "", err
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	now := s.now().UTC()
	session := &domain.Session{
		State:     state,
		Shop:      shop,
		Scopes:    s.cfg.Scopes,
		ReturnURL: returnURL,
		ExpiresAt: now.Add(installStateTTL),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	authURL, err := s.client.GenerateAuthURL(shop, s.cfg.Scopes, s.cfg.RedirectURI, state)
	if err != nil {
		return "", fmt.Errorf("failed to generate auth URL: %w", err)
	}
	return authURL, nil
}

// CompleteInstall handles the OAuth callback and returns where to send the merchant
func (s *AuthService) CompleteInstall(ctx context.Context, query url.Values) (string, error) {
	ok, err := s.client.VerifyCallback(query)
	if err != nil {
		return "", err
	}
	if !ok {
		s.logger.Warn().Str("shop", query.Get("shop")).Msg("OAuth callback failed HMAC verification")
		return "", domain.ErrInvalidSignature
	}

	shop, err := requireShop(query.Get("shop"))
	if err != nil {
		return "", err
	}
	code := query.Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: missing code", domain.ErrInvalidInput)
	}

	session, err := s.sessions.ConsumeSession(ctx, query.Get("state"))
	if err != nil {
		return "", fmt.Errorf("failed to load oauth state: %w", err)
	}
	if session == nil || session.Expired(s.now()) || session.Shop != shop {
		return "", domain.ErrInvalidState
	}

	token, err := s.client.ExchangeToken(ctx, shop, code, s.cfg.RedirectURI)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to exchange OAuth code")
		return "", err
	}

	s.persistConnection(ctx, shop, token, session.Scopes)

	return s.redirectTarget(session.ReturnURL, shop), nil
}

// persistConnection stores the credential. Failures are logged: the install itself succeeded.
func (s *AuthService) persistConnection(ctx context.Context, shop, token string, scopes []string) {
	stored, err := s.codec.EncryptToken(token)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to encrypt access token")
		return
	}
	conn := &domain.ShopConnection{
		ShopDomain:  shop,
		AccessToken: stored,
		Scopes:      scopes,
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.shops.UpsertShopConnection(ctx, conn); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to save shop connection")
		return
	}
	s.logger.Info().Str("shop", shop).Msg("Shop connected")
}

func (s *AuthService) redirectTarget(returnURL, shop string) string {
	target := s.cfg.AppURL
	if s.allowedReturnURL(returnURL) {
		target = returnURL
	}
	u, err := url.Parse(target)
	if err != nil || target == "" {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("shopify_oauth", "success")
	q.Set("shop", shop)
	u.RawQuery = q.Encode()
	return u.String()
}

// allowedReturnURL accepts local paths and absolute URLs on the app's own origin
func (s *AuthService) allowedReturnURL(returnURL string) bool {
	if returnURL == "" {
		return false
	}
	u, err := url.Parse(returnURL)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return strings.HasPrefix(u.Path, "/") && !strings.HasPrefix(returnURL, "//") && !strings.HasPrefix(returnURL, "/\\")
	}
	app, err := url.Parse(s.cfg.AppURL)
	if err != nil || app.Host == "" {
		return false
	}
	return strings.EqualFold(u.Scheme, app.Scheme) && strings.EqualFold(u.Host, app.Host)
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
