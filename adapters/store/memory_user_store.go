package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/ports"
)

// MemoryUserStore is an in-memory implementation of the UserStore interface
type MemoryUserStore struct {
	users map[string]core.User
	mu    sync.RWMutex
	now   func() time.Time
}

// NewMemoryUserStore creates a new in-memory user store
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[string]core.User),
		now:   time.Now,
	}
}

var _ ports.UserStore = (*MemoryUserStore)(nil)

func (s *MemoryUserStore) Get(ctx context.Context, walletAddress string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[strings.ToLower(walletAddress)]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) CreateIfAbsent(ctx context.Context, walletAddress string) (core.User, bool, error) {
	key := strings.ToLower(walletAddress)

	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[key]; ok {
		return u, false, nil
	}
	now := s.now().UTC()
	u := core.User{
		WalletAddress: key,
		KYCStatus:     core.KYCPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.users[key] = u
	return u, true, nil
}

func (s *MemoryUserStore) ApproveKYC(ctx context.Context, walletAddress string) (core.User, error) {
	return s.update(walletAddress, func(u *core.User) { u.KYCStatus = core.KYCApproved })
}

func (s *MemoryUserStore) CompleteOnboarding(ctx context.Context, walletAddress string) (core.User, error) {
	return s.update(walletAddress, func(u *core.User) { u.OnboardingCompleted = true })
}

func (s *MemoryUserStore) update(walletAddress string, mutate func(*core.User)) (core.User, error) {
	key := strings.ToLower(walletAddress)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[key]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	mutate(&u)
	u.UpdatedAt = s.now().UTC()
	s.users[key] = u
	return u, nil
}
