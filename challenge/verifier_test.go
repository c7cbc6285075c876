package challenge

import (
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/goldencity/core"
	"github.com/stretchr/testify/require"
)

func buildSigned(t *testing.T, p BuildParams) (*Message, string, string) {
	t.Helper()
	key := newKey(t)
	if p.Address == "" {
		p.Address = crypto.PubkeyToAddress(key.PublicKey).Hex()
	}
	if p.URI == "" {
		p.URI = "https://app.goldencity.example"
	}
	if p.Nonce == "" {
		p.Nonce = MustNonce()
	}
	if p.ChainID == 0 {
		p.ChainID = 1
	}
	text, err := NewCodec(testDomain).Build(p)
	require.NoError(t, err)
	msg, err := Parse(text)
	require.NoError(t, err)
	return msg, text, personalSign(t, key, text)
}

func TestVerify_OK(t *testing.T) {
	msg, _, sig := buildSigned(t, BuildParams{Statement: "Sign in with Ethereum to GoldenCity"})
	require.NoError(t, NewVerifier(testDomain).Verify(msg, sig))
}

func TestVerify_SingleBitMutation(t *testing.T) {
	msg, _, sig := buildSigned(t, BuildParams{Statement: "Sign in with Ethereum to GoldenCity"})
	v := NewVerifier(testDomain)
	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)

	for i := 0; i < len(raw)*8; i++ {
		mutated := append([]byte(nil), raw...)
		mutated[i/8] ^= 1 << (i % 8)
		err := v.Verify(msg, hexutil.Encode(mutated))
		require.ErrorIs(t, err, core.ErrInvalidSignature, "bit %d", i)
	}
}

func TestVerify_ForgedAddress(t *testing.T) {
	victim := crypto.PubkeyToAddress(newKey(t).PublicKey).Hex()
	attacker := newKey(t)

	text, err := NewCodec(testDomain).Build(BuildParams{Address: victim, URI: "https://a.example", ChainID: 1, Nonce: MustNonce()})
	require.NoError(t, err)
	msg, err := Parse(text)
	require.NoError(t, err)

	err = NewVerifier(testDomain).Verify(msg, personalSign(t, attacker, text))
	require.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestVerify_DomainMismatch(t *testing.T) {
	msg, _, sig := buildSigned(t, BuildParams{})
	err := NewVerifier("evil.example").Verify(msg, sig)
	require.ErrorIs(t, err, core.ErrInvalidSignature)
	require.Contains(t, err.Error(), "domain mismatch")
}

func TestVerify_Expired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	expires := issued.Add(time.Hour)
	msg, _, sig := buildSigned(t, BuildParams{IssuedAt: issued, ExpirationTime: &expires})

	err := NewVerifier(testDomain).Verify(msg, sig)
	require.ErrorIs(t, err, core.ErrInvalidSignature)
	require.Contains(t, err.Error(), "expired")
}

func TestVerify_NotYetValid(t *testing.T) {
	msg, _, sig := buildSigned(t, BuildParams{})
	future := time.Now().Add(time.Hour)
	msg.NotBefore = &future

	err := NewVerifier(testDomain).Verify(msg, sig)
	require.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestVerify_BadEncoding(t *testing.T) {
	msg, _, sig := buildSigned(t, BuildParams{})
	v := NewVerifier(testDomain)

	for _, bad := range []string{"", "nothex", strings.TrimPrefix(sig, "0x"), sig[:len(sig)-2], sig + "00"} {
		require.ErrorIs(t, v.Verify(msg, bad), core.ErrInvalidSignature, bad)
	}
	require.ErrorIs(t, v.Verify(nil, sig), core.ErrInvalidSignature)
}

func TestVerify_MessageTextMustMatch(t *testing.T) {
	msg, text, sig := buildSigned(t, BuildParams{Statement: "Sign in please"})
	// Same signature over a different statement.
	other, err := Parse(strings.Replace(text, "Sign in please", "Sign in later", 1))
	require.NoError(t, err)

	v := NewVerifier(testDomain)
	require.NoError(t, v.Verify(msg, sig))
	require.ErrorIs(t, v.Verify(other, sig), core.ErrInvalidSignature)
}
