package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/ports"
)

// SessionRepo implements ports.SessionStore using PostgreSQL.
type SessionRepo struct {
	db  *DB
	now func() time.Time
}

// NewSessionRepo constructs a session repository.
func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db, now: time.Now} }

var _ ports.SessionStore = (*SessionRepo)(nil)

// Create inserts a new session row.
func (r *SessionRepo) Create(ctx context.Context, walletAddress string, ttl time.Duration) (core.Session, error) {
	const q = `
INSERT INTO sessions (session_id, wallet_address, created_at, expires_at)
VALUES ($1, $2, $3, $4)`
	now := r.now().UTC()
	s := core.Session{
		ID:            uuid.NewString(),
		WalletAddress: strings.ToLower(walletAddress),
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if _, err := r.db.Pool.Exec(ctx, q, s.ID, s.WalletAddress, s.CreatedAt, s.ExpiresAt); err != nil {
		return core.Session{}, storeErr("insert session", err)
	}
	return s, nil
}

// Lookup selects a session that has not expired yet. Expired rows stay in the table.
func (r *SessionRepo) Lookup(ctx context.Context, sessionID string) (core.Session, error) {
	const q = `
SELECT wallet_address, created_at, expires_at
FROM sessions WHERE session_id=$1 AND expires_at > $2`
	s := core.Session{ID: sessionID}
	err := r.db.Pool.QueryRow(ctx, q, sessionID, r.now().UTC()).Scan(&s.WalletAddress, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Session{}, core.ErrSessionNotFound
		}
		return core.Session{}, storeErr("select session", err)
	}
	return s, nil
}

// Delete removes a session row if present.
func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	const q = `DELETE FROM sessions WHERE session_id=$1`
	if _, err := r.db.Pool.Exec(ctx, q, sessionID); err != nil {
		return storeErr("delete session", err)
	}
	return nil
}
