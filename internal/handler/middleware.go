package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/internal/session"
	"github.com/petalworks/flowershop-backend/pkg/response"
)

// SessionKeyHeader carries the opaque session key on authenticated requests
const SessionKeyHeader = "X-Session-Key"

// Gin context keys set by the auth middleware
const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
	ctxIsAdmin  = "is_admin"
)

// Authenticator resolves session keys into identities for gin handlers
type Authenticator struct {
	sessions *session.Registry
}

// NewAuthenticator creates an auth middleware around a session registry
func NewAuthenticator(sessions *session.Registry) *Authenticator {
	return &Authenticator{sessions: sessions}
}

// Authenticate attaches the caller's identity to the request context when a
// session key is presented. Requests without a key pass through anonymous;
// a key that is unknown or expired is rejected outright.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(SessionKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		identity, err := a.sessions.Validate(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrSessionExpired) {
				response.Error(c, http.StatusUnauthorized, "SESSION_EXPIRED", "session has expired, log in again", "")
			} else {
				response.Unauthorized(c, "invalid session key")
			}
			c.Abort()
			return
		}

		c.Set(ctxUserID, identity.UserID)
		c.Set(ctxUsername, identity.Username)
		c.Set(ctxIsAdmin, identity.IsAdmin)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUserID); !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin callers
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUserID); !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		if !c.GetBool(ctxIsAdmin) {
			response.Forbidden(c, "admin privileges required")
			c.Abort()
			return
		}
		c.Next()
	}
}
