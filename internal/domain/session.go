package domain

import "time"

// SessionTTL is fixed. Sessions are never refreshed; the caller logs in again.
const SessionTTL = time.Hour

// Session binds an opaque key to an authenticated identity. The registry owns
// the authoritative copy; callers only ever hold the key.
type Session struct {
	Key       string    `json:"-"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its fixed expiry
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Identity returns the identity the session stands in for
func (s *Session) Identity() Identity {
	return Identity{
		UserID:   s.UserID,
		Username: s.Username,
		IsAdmin:  s.IsAdmin,
	}
}
