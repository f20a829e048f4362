package domain

import "time"

// Session is an issued credential proving a prior successful login. The
// client secret is returned to the caller exactly once; only its hash is
// stored here.
type Session struct {
	ClientID   string    `json:"client_id"`
	SecretHash string    `json:"-"`
	OwnerEmail string    `json:"owner_email"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// IsExpired reports whether the session TTL has elapsed at the given time.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
