package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/ports"
)

const userColumns = `wallet_address, kyc_status, onboarding_completed, created_at, updated_at`

// UserRepo implements ports.UserStore using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

var _ ports.UserStore = (*UserRepo)(nil)

// Get selects a user by wallet address.
func (r *UserRepo) Get(ctx context.Context, walletAddress string) (core.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users WHERE wallet_address=$1`
	return r.scanOne("select user", r.db.Pool.QueryRow(ctx, q, strings.ToLower(walletAddress)))
}

// CreateIfAbsent inserts a pending user, returning the existing row on conflict.
func (r *UserRepo) CreateIfAbsent(ctx context.Context, walletAddress string) (core.User, bool, error) {
	const q = `
INSERT INTO users (wallet_address, kyc_status, onboarding_completed)
VALUES ($1, $2, false)
ON CONFLICT (wallet_address) DO NOTHING
RETURNING ` + userColumns
	u, err := r.scanOne("insert user", r.db.Pool.QueryRow(ctx, q, strings.ToLower(walletAddress), string(core.KYCPending)))
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, core.ErrUserNotFound) {
		return core.User{}, false, err
	}
	// DO NOTHING returns no row: somebody created it first.
	u, err = r.Get(ctx, walletAddress)
	if err != nil {
		return core.User{}, false, err
	}
	return u, false, nil
}

// ApproveKYC sets kyc_status to approved.
func (r *UserRepo) ApproveKYC(ctx context.Context, walletAddress string) (core.User, error) {
	const q = `
UPDATE users
SET kyc_status = $2, updated_at = now()
WHERE wallet_address = $1
RETURNING ` + userColumns
	return r.scanOne("approve kyc", r.db.Pool.QueryRow(ctx, q, strings.ToLower(walletAddress), string(core.KYCApproved)))
}

// CompleteOnboarding sets onboarding_completed.
func (r *UserRepo) CompleteOnboarding(ctx context.Context, walletAddress string) (core.User, error) {
	const q = `
UPDATE users
SET onboarding_completed = true, updated_at = now()
WHERE wallet_address = $1
RETURNING ` + userColumns
	return r.scanOne("complete onboarding", r.db.Pool.QueryRow(ctx, q, strings.ToLower(walletAddress)))
}

func (r *UserRepo) scanOne(op string, row pgx.Row) (core.User, error) {
	var u core.User
	var status string
	if err := row.Scan(&u.WalletAddress, &status, &u.OnboardingCompleted, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.User{}, core.ErrUserNotFound
		}
		return core.User{}, storeErr(op, err)
	}
	u.KYCStatus = core.KYCStatus(status)
	return u, nil
}
