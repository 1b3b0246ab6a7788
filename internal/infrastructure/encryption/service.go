package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// aad binds ciphertexts to their purpose so a sealed token cannot be replayed as another secret
var aad = []byte("configurator:access-token:v1")

// Service seals secrets with AES-256-GCM. Output is base64(nonce || ciphertext).
type Service struct {
	gcm  cipher.AEAD
	rand io.Reader
}

// NewService builds a service from ENCRYPTION_KEY. A 64-character hex key is used as-is,
// any other non-empty value is stretched with SHA-256.
func NewService(key string) (*Service, error) {
	if key == "" {
		return nil, fmt.Errorf("encryption key is empty")
	}

	raw, err := hex.DecodeString(key)
	if err != nil || len(raw) != 32 {
		sum := sha256.Sum256([]byte(key))
		raw = sum[:]
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("aes cipher init failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aes-gcm init failed: %w", err)
	}

	return &Service{gcm: gcm, rand: rand.Reader}, nil
}

// Encrypt implements ports.EncryptionService
func (s *Service) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(s.rand, nonce); err != nil {
		return "", fmt.Errorf("nonce generation failed: %w", err)
	}
	sealed := s.gcm.Seal(nonce, nonce, []byte(plaintext), aad)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt implements ports.EncryptionService
func (s *Service) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	n := s.gcm.NonceSize()
	if len(data) < n {
		return "", fmt.Errorf("ciphertext too short")
	}
	plaintext, err := s.gcm.Open(nil, data[:n], data[n:], aad)
	if err != nil {
		return "", fmt.Errorf("aes-gcm decrypt failed: %w", err)
	}
	return string(plaintext), nil
}
