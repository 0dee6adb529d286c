package session

import (
	"context"
	"sync"
	"time"

	"github.com/petalworks/flowershop-backend/internal/domain"
)

// MemoryStore keeps sessions in process memory. A background janitor sweeps
// expired entries so abandoned sessions do not accumulate.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session

	stopJanitor chan struct{}
	stopOnce    sync.Once
}

// NewMemoryStore creates an in-memory store and starts its janitor
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}

	s := &MemoryStore{
		sessions:    make(map[string]*domain.Session),
		stopJanitor: make(chan struct{}),
	}

	go s.janitor(sweepInterval)
	return s
}

// Save persists the session until its expiry
func (s *MemoryStore) Save(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	s.sessions[sess.Key] = &copied
	return nil
}

// Get returns the session for key or domain.ErrSessionNotFound
func (s *MemoryStore) Get(ctx context.Context, key string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := *sess
	return &copied, nil
}

// Delete removes the session for key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// Close stops the janitor
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopJanitor)
	})
	return nil
}

// Len returns the number of stored sessions, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopJanitor:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, key)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
