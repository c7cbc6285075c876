package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/layer-3/goldencity/adapters/store"
	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/ports"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Nonce(t *testing.T) {
	svc, _ := newAuthService(t, false)

	res, err := svc.Nonce(context.Background())
	require.NoError(t, err)
	require.Regexp(t, `^[A-Za-z0-9]{16}$`, res.Nonce)
	require.NotEmpty(t, res.Ticket)

	other, err := svc.Nonce(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, res.Nonce, other.Nonce)
}

func TestAuthService_LoginAndReplay(t *testing.T) {
	ctx := context.Background()
	svc, pub := newAuthService(t, false)
	w := newWallet(t)

	msg, sig := w.signIn(t, "AbCd1234EfGh5678")

	first, err := svc.Login(ctx, msg, sig, "")
	require.NoError(t, err)
	require.Equal(t, w.lower(), first.WalletAddress)

	// Without single-use nonces the same pair is accepted again and opens a second session.
	second, err := svc.Login(ctx, msg, sig, "")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	id, err := svc.Authenticate(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, core.Identity{SessionID: first.ID, WalletAddress: w.lower()}, id)

	require.Equal(t, []string{ports.TopicSessionCreated, ports.TopicSessionCreated}, pub.topics())
}

func TestAuthService_SingleUseNonce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t, true)
	w := newWallet(t)

	nonce, err := svc.Nonce(ctx)
	require.NoError(t, err)
	msg, sig := w.signIn(t, nonce.Nonce)

	_, err = svc.Login(ctx, msg, sig, "")
	require.ErrorIs(t, err, core.ErrInvalidTicket)

	_, err = svc.Login(ctx, msg, sig, nonce.Ticket)
	require.NoError(t, err)

	_, err = svc.Login(ctx, msg, sig, nonce.Ticket)
	require.ErrorIs(t, err, core.ErrNonceReused)
	require.Equal(t, core.KindUnauthorized, core.AsError(err).Kind)
}

func TestAuthService_SingleUseNonce_TicketForOtherNonce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t, true)
	w := newWallet(t)

	issued, err := svc.Nonce(ctx)
	require.NoError(t, err)
	msg, sig := w.signIn(t, "ZZZZ1234EfGh5678")

	_, err = svc.Login(ctx, msg, sig, issued.Ticket)
	require.ErrorIs(t, err, core.ErrInvalidTicket)
}

func TestAuthService_LoginRejects(t *testing.T) {
	ctx := context.Background()
	svc, pub := newAuthService(t, false)
	w := newWallet(t)
	msg, sig := w.signIn(t, "AbCd1234EfGh5678")

	_, err := svc.Login(ctx, "not a siwe message", sig, "")
	require.ErrorIs(t, err, core.ErrMalformedMessage)

	_, err = svc.Login(ctx, msg, "0x1234", "")
	require.ErrorIs(t, err, core.ErrInvalidSignature)

	// Signed by somebody else.
	_, otherSig := newWallet(t).signIn(t, "AbCd1234EfGh5678")
	_, err = svc.Login(ctx, msg, otherSig, "")
	require.ErrorIs(t, err, core.ErrInvalidSignature)

	require.Empty(t, pub.topics())
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, pub := newAuthService(t, false)
	w := newWallet(t)
	msg, sig := w.signIn(t, "AbCd1234EfGh5678")

	session, err := svc.Login(ctx, msg, sig, "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.ID))
	_, err = svc.Authenticate(ctx, session.ID)
	require.ErrorIs(t, err, core.ErrSessionNotFound)
	require.Equal(t, []string{ports.TopicSessionCreated, ports.TopicSessionDeleted}, pub.topics())
	require.Equal(t, session.ID, pub.events[1].SessionID)

	// Idempotent for unknown and empty ids.
	require.NoError(t, svc.Logout(ctx, session.ID))
	require.NoError(t, svc.Logout(ctx, ""))
}

type failingDeleteStore struct {
	*store.MemorySessionStore
}

func (failingDeleteStore) Delete(context.Context, string) error {
	return fmt.Errorf("del: %w", core.ErrStore)
}

func TestAuthService_LogoutStoreError(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewAuthService(AuthConfig{Domain: testDomain, SessionTTL: time.Hour},
		failingDeleteStore{store.NewMemorySessionStore()}, nil, nil, pub, nil)

	err := svc.Logout(ctx, "sid")
	require.ErrorIs(t, err, core.ErrStore)
	require.Empty(t, pub.topics())
}

func TestAuthService_AuthenticateUnknown(t *testing.T) {
	svc, _ := newAuthService(t, false)

	_, err := svc.Authenticate(context.Background(), "")
	require.ErrorIs(t, err, core.ErrSessionNotFound)
	_, err = svc.Authenticate(context.Background(), "no-such-session")
	require.ErrorIs(t, err, core.ErrSessionNotFound)
}
