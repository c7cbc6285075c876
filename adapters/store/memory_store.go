package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/ports"
)

// MemorySessionStore is an in-memory implementation of the SessionStore interface.
// Expired sessions are kept until deleted; Lookup filters them out.
type MemorySessionStore struct {
	sessions map[string]core.Session
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMemorySessionStore creates a new in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]core.Session),
		now:      time.Now,
	}
}

var _ ports.SessionStore = (*MemorySessionStore)(nil)

// Create stores a new session for the wallet
func (s *MemorySessionStore) Create(ctx context.Context, walletAddress string, ttl time.Duration) (core.Session, error) {
	now := s.now()
	session := core.Session{
		ID:            uuid.NewString(),
		WalletAddress: strings.ToLower(walletAddress),
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session

	return session, nil
}

// Lookup returns a live session by id
func (s *MemorySessionStore) Lookup(ctx context.Context, sessionID string) (core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.Expired(s.now()) {
		return core.Session{}, core.ErrSessionNotFound
	}

	return session, nil
}

// Delete removes a session
func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// MemoryNonceRegistry is an in-memory implementation of the NonceRegistry interface
type MemoryNonceRegistry struct {
	consumed map[string]time.Time
	mu       sync.Mutex
	now      func() time.Time
}

// NewMemoryNonceRegistry creates a new in-memory nonce registry
func NewMemoryNonceRegistry() *MemoryNonceRegistry {
	return &MemoryNonceRegistry{
		consumed: make(map[string]time.Time),
		now:      time.Now,
	}
}

var _ ports.NonceRegistry = (*MemoryNonceRegistry)(nil)

// Consume marks a nonce as used until ttl elapses
func (r *MemoryNonceRegistry) Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	// Drop stale entries while we hold the lock.
	for n, exp := range r.consumed {
		if !now.Before(exp) {
			delete(r.consumed, n)
		}
	}

	if _, used := r.consumed[nonce]; used {
		return false, nil
	}
	r.consumed[nonce] = now.Add(ttl)
	return true, nil
}
