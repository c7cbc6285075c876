package service

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/goldencity/adapters/store"
	"github.com/layer-3/goldencity/adapters/tokenizer"
	"github.com/layer-3/goldencity/challenge"
	"github.com/layer-3/goldencity/ports"
	"github.com/stretchr/testify/require"
)

const testDomain = "app.goldencity.example"

type wallet struct {
	key     *ecdsa.PrivateKey
	address string // checksummed
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return wallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey).Hex()}
}

func (w wallet) lower() string { return strings.ToLower(w.address) }

// signIn builds a SIWE message for nonce and signs it the way wallets do.
func (w wallet) signIn(t *testing.T, nonce string) (message, signature string) {
	t.Helper()
	message, err := challenge.NewCodec(testDomain).Build(challenge.BuildParams{
		Address:   w.address,
		Statement: "Sign in to Golden City",
		URI:       "https://" + testDomain,
		ChainID:   1,
		Nonce:     nonce,
		IssuedAt:  time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), w.key)
	require.NoError(t, err)
	sig[64] += 27
	return message, hexutil.Encode(sig)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e ports.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Topic)
	}
	return out
}

func newAuthService(t *testing.T, singleUse bool) (*AuthService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := NewAuthService(
		AuthConfig{
			Domain:         testDomain,
			SessionTTL:     7 * 24 * time.Hour,
			NonceTTL:       10 * time.Minute,
			SingleUseNonce: singleUse,
		},
		store.NewMemorySessionStore(),
		tokenizer.NewJWTTokenizer([]byte("test-secret"), "goldencity"),
		store.NewMemoryNonceRegistry(),
		pub,
		nil,
	)
	return svc, pub
}
