package domain

import "time"

// Session represents a pending OAuth install, keyed by its CSRF state
type Session struct {
	State     string    `json:"state" bson:"state"`
	Shop      string    `json:"shop" bson:"shop"`
	Scopes    []string  `json:"scopes" bson:"scopes"`
	ReturnURL string    `json:"return_url" bson:"return_url"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Expired reports whether the session can no longer complete an install
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
