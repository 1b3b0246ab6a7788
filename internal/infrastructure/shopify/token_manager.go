package shopify

import (
	"fmt"
	"strings"

	"configurator-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// encryptedPrefix marks tokens stored through an EncryptionService so plaintext rows written
// before a key was configured keep working
const encryptedPrefix = "enc:"

// TokenManager encrypts Shopify access tokens at rest
type TokenManager struct {
	encryptionSvc ports.EncryptionService
	logger        zerolog.Logger
}

// NewTokenManager creates a new token manager. A nil encryption service stores tokens as-is.
func NewTokenManager(encryptionSvc ports.EncryptionService, logger zerolog.Logger) *TokenManager {
	return &TokenManager{
		encryptionSvc: encryptionSvc,
		logger:        logger,
	}
}

// EncryptToken encrypts an access token before storage
func (tm *TokenManager) EncryptToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	if tm.encryptionSvc == nil {
		return token, nil
	}
	sealed, err := tm.encryptionSvc.Encrypt(token)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}
	return encryptedPrefix + sealed, nil
}

// DecryptToken decrypts an access token after retrieval
func (tm *TokenManager) DecryptToken(storedToken string) (string, error) {
	if storedToken == "" {
		return "", fmt.Errorf("encrypted token cannot be empty")
	}
	if !strings.HasPrefix(storedToken, encryptedPrefix) {
		return storedToken, nil
	}
	if tm.encryptionSvc == nil {
		return "", fmt.Errorf("token is encrypted but no encryption key is configured")
	}
	token, err := tm.encryptionSvc.Decrypt(strings.TrimPrefix(storedToken, encryptedPrefix))
	if err != nil {
		tm.logger.Error().Err(err).Msg("Failed to decrypt stored access token")
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return token, nil
}
