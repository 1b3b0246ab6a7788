package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	shareTokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	shareTokenHalf     = 12
)

// GenerateShareToken returns an opaque 24-character base-36 token built from two
// independently drawn halves. Uniqueness is enforced by the store, not here.
func GenerateShareToken() (string, error) {
	first, err := randomBase36(shareTokenHalf)
	if err != nil {
		return "", err
	}
	second, err := randomBase36(shareTokenHalf)
	if err != nil {
		return "", err
	}
	return first + second, nil
}

func randomBase36(n int) (string, error) {
	max := big.NewInt(int64(len(shareTokenAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate share token: %w", err)
		}
		buf[i] = shareTokenAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// IsValidShareToken reports whether s has the shape of a generated token
func IsValidShareToken(s string) bool {
	if len(s) < 8 || len(s) > 64 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
