package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/ports"
	"github.com/redis/go-redis/v9"
)

// RedisSessionStore is a Redis implementation of the SessionStore interface
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisSessionStore creates a new Redis session store
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		prefix: "goldencity:session:",
		now:    time.Now,
	}
}

var _ ports.SessionStore = (*RedisSessionStore)(nil)

type redisSession struct {
	WalletAddress string    `json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Create stores a session with the key expiring together with the session
func (s *RedisSessionStore) Create(ctx context.Context, walletAddress string, ttl time.Duration) (core.Session, error) {
	now := s.now()
	session := core.Session{
		ID:            uuid.NewString(),
		WalletAddress: strings.ToLower(walletAddress),
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}

	payload, err := json.Marshal(redisSession{
		WalletAddress: session.WalletAddress,
		CreatedAt:     session.CreatedAt,
		ExpiresAt:     session.ExpiresAt,
	})
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+session.ID, payload, ttl).Err(); err != nil {
		return core.Session{}, fmt.Errorf("failed to create session: %w", errors.Join(core.ErrStore, err))
	}

	return session, nil
}

// Lookup returns a live session by id
func (s *RedisSessionStore) Lookup(ctx context.Context, sessionID string) (core.Session, error) {
	b, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.Session{}, core.ErrSessionNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to lookup session: %w", errors.Join(core.ErrStore, err))
	}

	var rs redisSession
	if err := json.Unmarshal(b, &rs); err != nil {
		return core.Session{}, fmt.Errorf("failed to decode session: %w", errors.Join(core.ErrStore, err))
	}

	session := core.Session{
		ID:            sessionID,
		WalletAddress: rs.WalletAddress,
		CreatedAt:     rs.CreatedAt,
		ExpiresAt:     rs.ExpiresAt,
	}
	// The key TTL normally removes it first; this covers clock skew.
	if session.Expired(s.now()) {
		return core.Session{}, core.ErrSessionNotFound
	}

	return session, nil
}

// Delete removes a session
func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.prefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", errors.Join(core.ErrStore, err))
	}
	return nil
}

// RedisNonceRegistry is a Redis implementation of the NonceRegistry interface
type RedisNonceRegistry struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisNonceRegistry creates a new Redis nonce registry
func NewRedisNonceRegistry(client redis.UniversalClient) *RedisNonceRegistry {
	return &RedisNonceRegistry{
		client: client,
		prefix: "goldencity:nonce:",
	}
}

var _ ports.NonceRegistry = (*RedisNonceRegistry)(nil)

// Consume atomically marks a nonce as used
func (r *RedisNonceRegistry) Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+nonce, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume nonce: %w", errors.Join(core.ErrStore, err))
	}
	return ok, nil
}
