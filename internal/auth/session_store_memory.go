package auth

import (
	"context"
	"sync"

	"github.com/vivatube/backend/internal/repositories"
)

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{tokens: make(map[string]string)}
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

// SetRefreshToken stores the current refresh token for a user, overwriting
// any prior value.
func (s *InMemorySessionStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	s.tokens[userID] = token
	s.mu.Unlock()
	return nil
}

// GetRefreshToken returns the stored refresh token, or an empty string when
// the user has no active session.
func (s *InMemorySessionStore) GetRefreshToken(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[userID], nil
}

// ClearRefreshToken removes the stored refresh token for a user.
func (s *InMemorySessionStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.tokens, userID)
	s.mu.Unlock()
	return nil
}

// SwapRefreshToken atomically replaces old with next.
func (s *InMemorySessionStore) SwapRefreshToken(_ context.Context, userID, old, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[userID] != old {
		return repositories.ErrConflict
	}
	s.tokens[userID] = next
	return nil
}

// Has reports whether a refresh token is stored for the user. Useful for tests.
func (s *InMemorySessionStore) Has(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[userID] != ""
}

var _ SessionStore = (*InMemorySessionStore)(nil)
