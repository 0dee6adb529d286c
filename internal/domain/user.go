package domain

import "time"

// User represents a registered account. PasswordHash never leaves the
// repository layer; Identity is the outward-facing shape.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is what authentication resolves to. IsAdmin is derived from the
// administrators relation, it is not a column on users.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Identity strips the credential fields from a user
func (u *User) Identity(isAdmin bool) Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		IsAdmin:  isAdmin,
	}
}
