package challenge

import (
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/goldencity/core"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec(testDomain)
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(time.Hour)

	cases := []BuildParams{
		{Statement: "Sign in with Ethereum to GoldenCity", URI: "https://app.goldencity.example", ChainID: 1, Nonce: "AbCd1234EfGh5678", IssuedAt: issued},
		{URI: "https://app.goldencity.example/onboarding", ChainID: 11155111, Nonce: "zzzzzzzz00000000", IssuedAt: issued, ExpirationTime: &expires},
		{Statement: "hello", URI: "http://localhost:5173", ChainID: 137, Nonce: MustNonce()},
	}
	for _, p := range cases {
		addr := crypto.PubkeyToAddress(newKey(t).PublicKey)
		// Lower-case input is accepted and checksummed on the way out.
		p.Address = strings.ToLower(addr.Hex())

		text, err := codec.Build(p)
		require.NoError(t, err)
		require.Contains(t, text, addr.Hex())

		msg, err := codec.Parse(text)
		require.NoError(t, err)
		require.Equal(t, addr, msg.Address)
		require.Equal(t, strings.ToLower(addr.Hex()), msg.WalletAddress())
		require.Equal(t, p.ChainID, msg.ChainID)
		require.Equal(t, p.Nonce, msg.Nonce)
		require.Equal(t, p.Statement, msg.Statement)
		require.Equal(t, testDomain, msg.Domain)
		require.Equal(t, Version, msg.Version)
		require.Equal(t, text, msg.String())
		if p.ExpirationTime != nil {
			require.NotNil(t, msg.ExpirationTime)
			require.True(t, p.ExpirationTime.Equal(*msg.ExpirationTime))
		}
		if !p.IssuedAt.IsZero() {
			require.True(t, p.IssuedAt.Equal(msg.IssuedAt))
		}
	}
}

func TestCodec_BuildRejectsBadAddress(t *testing.T) {
	codec := NewCodec(testDomain)
	_, err := codec.Build(BuildParams{Address: "0x1234", URI: "https://a.example", ChainID: 1, Nonce: "AbCd1234EfGh5678"})
	require.ErrorIs(t, err, core.ErrInvalidAddress)
}

func TestParse_Malformed(t *testing.T) {
	codec := NewCodec(testDomain)
	addr := crypto.PubkeyToAddress(newKey(t).PublicKey).Hex()
	text, err := codec.Build(BuildParams{Address: addr, Statement: "hi", URI: "https://a.example", ChainID: 1, Nonce: "AbCd1234EfGh5678"})
	require.NoError(t, err)

	lines := strings.Split(text, "\n")
	withoutAddress := strings.Join(append([]string{lines[0]}, lines[2:]...), "\n")

	cases := map[string]string{
		"empty":             "",
		"garbage":           "hello world",
		"missing address":   withoutAddress,
		"malformed address": strings.Replace(text, addr, "0x1234", 1),
		"bad issued at":     replaceLine(text, "Issued At: ", "Issued At: yesterday"),
		"missing nonce":     replaceLine(text, "Nonce: ", ""),
	}
	for name, input := range cases {
		_, err := Parse(input)
		require.ErrorIs(t, err, core.ErrMalformedMessage, name)
	}
}

func replaceLine(text, prefix, with string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			if with == "" {
				continue
			}
			l = with
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
