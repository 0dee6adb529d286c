package session

import (
	"context"

	"github.com/petalworks/flowershop-backend/internal/domain"
)

// Store persists sessions keyed by their opaque key. Implementations must
// treat missing keys as domain.ErrSessionNotFound and may drop expired
// entries eagerly or lazily; the registry re-checks expiry on every lookup.
type Store interface {
	// Save persists the session until its expiry
	Save(ctx context.Context, sess *domain.Session) error
	// Get returns the session for key or domain.ErrSessionNotFound
	Get(ctx context.Context, key string) (*domain.Session, error)
	// Delete removes the session for key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error
	// Close releases any resources held by the store
	Close() error
}
