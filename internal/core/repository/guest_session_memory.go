package repository

import (
	"context"
	"sync"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/domain"
)

// MemoryGuestSessionRepository is a process-local implementation of
// domain.GuestSessionRepository. It backs the memory store driver and
// the tests; data does not survive a restart.
type MemoryGuestSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.GuestSession
}

// NewMemoryGuestSessionRepository creates an empty in-memory repository.
func NewMemoryGuestSessionRepository() *MemoryGuestSessionRepository {
	return &MemoryGuestSessionRepository{
		sessions: make(map[string]domain.GuestSession),
	}
}

// Get returns the session for the given guest id, or (nil, nil).
func (r *MemoryGuestSessionRepository) Get(ctx context.Context, guestID string) (*domain.GuestSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[guestID]
	if !ok {
		return nil, nil
	}
	cp := s
	cp.CartItems = append([]domain.CartItem(nil), s.CartItems...)
	return &cp, nil
}

// Save upserts the session record.
func (r *MemoryGuestSessionRepository) Save(ctx context.Context, s *domain.GuestSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *s
	cp.CartItems = append([]domain.CartItem(nil), s.CartItems...)
	r.sessions[s.GuestID] = cp
	return nil
}

// Delete removes the session; absent ids are ignored.
func (r *MemoryGuestSessionRepository) Delete(ctx context.Context, guestID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, guestID)
	return nil
}
