package domain

import "time"

// Session represents a cached authentication session stored in Redis.
// The session manager is the only writer; only ExpiresAt is ever mutated.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// MaxExpiry returns the hard ceiling a sliding renewal may never pass.
func (s *Session) MaxExpiry(maxLifetime time.Duration) time.Time {
	return s.CreatedAt.Add(maxLifetime)
}
