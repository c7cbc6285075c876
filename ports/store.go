package ports

import (
	"context"
	"time"

	"github.com/layer-3/goldencity/core"
)

// SessionStore persists login sessions
type SessionStore interface {
	// Create issues a new session for the wallet that expires after ttl.
	Create(ctx context.Context, walletAddress string, ttl time.Duration) (core.Session, error)
	// Lookup returns core.ErrSessionNotFound when the id is unknown or expired.
	Lookup(ctx context.Context, sessionID string) (core.Session, error)
	// Delete removes a session. Unknown ids are not an error.
	Delete(ctx context.Context, sessionID string) error
}

// UserStore persists one onboarding record per wallet
type UserStore interface {
	Get(ctx context.Context, walletAddress string) (core.User, error)
	// CreateIfAbsent inserts a pending user. created is false when a row already existed,
	// in which case the existing row is returned unchanged.
	CreateIfAbsent(ctx context.Context, walletAddress string) (user core.User, created bool, err error)
	ApproveKYC(ctx context.Context, walletAddress string) (core.User, error)
	CompleteOnboarding(ctx context.Context, walletAddress string) (core.User, error)
}

// NonceRegistry remembers consumed SIWE nonces
type NonceRegistry interface {
	// Consume marks nonce as used for ttl. It returns false if it was already used.
	Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}
