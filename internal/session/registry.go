package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/internal/metrics"
	"github.com/petalworks/flowershop-backend/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// keyBytes of entropy per session key. Keys are random, not derived, so
// holding one proves nothing beyond having been issued it.
const keyBytes = 32

// Registry issues and validates opaque session keys with a fixed TTL of
// domain.SessionTTL. Expired or destroyed keys validate identically to keys
// that never existed, except for the error value.
type Registry struct {
	store Store
	now   func() time.Time
}

// NewRegistry creates a session registry on top of a store
func NewRegistry(store Store) *Registry {
	return &Registry{
		store: store,
		now:   time.Now,
	}
}

// Create issues a fresh session for the identity and returns it. Each call
// issues a distinct key; logging in twice yields two independent sessions.
func (r *Registry) Create(ctx context.Context, identity domain.Identity) (*domain.Session, error) {
	ctx, span := telemetry.StartSpan(ctx, "session.create")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", identity.UserID))

	key, err := newKey()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := r.now()
	sess := &domain.Session{
		Key:       key,
		UserID:    identity.UserID,
		Username:  identity.Username,
		IsAdmin:   identity.IsAdmin,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.SessionTTL),
	}

	if err := r.store.Save(ctx, sess); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if metrics.SessionsIssued != nil {
		metrics.SessionsIssued.Add(ctx, 1)
	}

	span.SetStatus(codes.Ok, "")
	return sess, nil
}

// Validate resolves a key to the identity it was issued for. An expired
// session is destroyed on sight and reported as domain.ErrSessionExpired;
// an unknown key is domain.ErrSessionNotFound.
func (r *Registry) Validate(ctx context.Context, key string) (domain.Identity, error) {
	ctx, span := telemetry.StartSpan(ctx, "session.validate")
	defer span.End()

	if key == "" {
		span.SetStatus(codes.Error, "empty key")
		return domain.Identity{}, domain.ErrSessionNotFound
	}

	sess, err := r.store.Get(ctx, key)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.Identity{}, err
	}

	if sess.Expired(r.now()) {
		// lazy cleanup; stores with native TTL already dropped it
		_ = r.store.Delete(ctx, key)
		span.SetStatus(codes.Error, "session expired")
		return domain.Identity{}, domain.ErrSessionExpired
	}

	span.SetAttributes(attribute.Int64("user_id", sess.UserID))
	span.SetStatus(codes.Ok, "")
	return sess.Identity(), nil
}

// Destroy revokes a key. Destroying an unknown or already destroyed key
// succeeds; logout is idempotent.
func (r *Registry) Destroy(ctx context.Context, key string) error {
	ctx, span := telemetry.StartSpan(ctx, "session.destroy")
	defer span.End()

	if key == "" {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	if err := r.store.Delete(ctx, key); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Close closes the underlying store
func (r *Registry) Close() error {
	return r.store.Close()
}

func newKey() (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
