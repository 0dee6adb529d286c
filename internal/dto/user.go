package dto

import "github.com/petalworks/flowershop-backend/internal/domain"

// RegisterRequest creates a new account
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// LoginRequest authenticates an account
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the outward shape of an account. It never carries the
// password or its hash.
type UserResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

// NewUserResponse converts an identity
func NewUserResponse(identity domain.Identity, email string) *UserResponse {
	return &UserResponse{
		UserID:   identity.UserID,
		Username: identity.Username,
		Email:    email,
		IsAdmin:  identity.IsAdmin,
	}
}

// AuthResponse is returned on successful login or registration
type AuthResponse struct {
	SessionKey string        `json:"session_key"`
	ExpiresIn  int64         `json:"expires_in"`
	User       *UserResponse `json:"user"`
}
