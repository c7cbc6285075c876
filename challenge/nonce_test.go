package challenge

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var alnum16 = regexp.MustCompile(`^[A-Za-z0-9]{16}$`)

func TestNewNonce_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := NewNonce()
		require.NoError(t, err)
		require.Regexp(t, alnum16, n)
	}
	require.Regexp(t, alnum16, MustNonce())
}

func TestNewNonce_Unique(t *testing.T) {
	const samples = 10000
	seen := make(map[string]struct{}, samples)
	for i := 0; i < samples; i++ {
		n, err := NewNonce()
		require.NoError(t, err)
		_, dup := seen[n]
		require.False(t, dup, "collision on %q after %d samples", n, i)
		seen[n] = struct{}{}
	}
}

func TestNewNonce_UsesWholeAlphabet(t *testing.T) {
	counts := map[byte]int{}
	for i := 0; i < 2000; i++ {
		n, err := newNonce(NonceLength)
		require.NoError(t, err)
		for j := 0; j < len(n); j++ {
			counts[n[j]]++
		}
	}
	// 32000 draws over 62 symbols; a missing symbol means a biased mapping.
	require.Len(t, counts, len(nonceAlphabet))
}
