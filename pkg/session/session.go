// Package session keeps backend admin sessions in Redis. A session records
// that the configured admin signed in against the backend; tokens carry its
// id so a logout on one instance is seen by all.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/cache"
)

// DefaultTTL matches the admin token lifetime.
const DefaultTTL = 24 * time.Hour

// Session is one backend sign-in.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	cache *cache.Store
	ttl   time.Duration
}

func NewStore(c *cache.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl}
}

// newID generates a cryptographically random 32-byte hex session ID.
func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func key(id string) string { return "session:" + id }

// Create opens a session for email. It fails with cache.ErrUnavailable when
// Redis is not connected.
func (s *Store) Create(ctx context.Context, email, role string) (Session, error) {
	id, err := newID()
	if err != nil {
		return Session{}, fmt.Errorf("session: id: %w", err)
	}
	sess := Session{ID: id, Email: email, Role: role, CreatedAt: time.Now().UTC()}
	if err := s.cache.Set(ctx, key(id), sess, s.ttl); err != nil {
		return Session{}, fmt.Errorf("session: save: %w", err)
	}
	return sess, nil
}

// Get returns the session, or found=false when it expired or was destroyed.
func (s *Store) Get(ctx context.Context, id string) (sess Session, found bool, err error) {
	found, err = s.cache.Get(ctx, key(id), &sess)
	if err != nil {
		return Session{}, false, fmt.Errorf("session: load: %w", err)
	}
	return sess, found, nil
}

func (s *Store) Destroy(ctx context.Context, id string) error {
	if err := s.cache.Del(ctx, key(id)); err != nil {
		return fmt.Errorf("session: destroy: %w", err)
	}
	return nil
}
