package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"configurator-shopify-layer/internal/domain"
)

// WebhookVerifier checks the X-Shopify-Hmac-Sha256 header of webhook deliveries
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for the app's webhook signing secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify returns domain.ErrInvalidSignature unless signature is the base64 HMAC-SHA256 of payload
func (v *WebhookVerifier) Verify(payload []byte, signature string) error {
	if len(v.secret) == 0 || strings.TrimSpace(signature) == "" {
		return domain.ErrInvalidSignature
	}
	expected, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return domain.ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// Sign computes the signature Shopify would send for payload
func (v *WebhookVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
