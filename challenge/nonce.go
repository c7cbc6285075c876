// Package challenge implements the Sign-In with Ethereum (EIP-4361) exchange:
// nonce generation, message encoding and signature verification.
package challenge

import (
	"crypto/rand"
	"fmt"
)

const (
	// NonceLength is the number of characters in a generated nonce.
	NonceLength = 16

	nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// Largest multiple of len(nonceAlphabet) that fits in a byte; bytes at or
	// above it are rejected so every character stays uniform.
	nonceByteLimit = 256 - 256%len(nonceAlphabet)
)

// NewNonce returns a fresh alphanumeric nonce drawn from crypto/rand.
func NewNonce() (string, error) {
	return newNonce(NonceLength)
}

// MustNonce is NewNonce for callers that treat a broken random source as fatal.
func MustNonce() string {
	n, err := NewNonce()
	if err != nil {
		panic(err)
	}
	return n
}

func newNonce(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= nonceByteLimit {
				continue
			}
			out = append(out, nonceAlphabet[int(b)%len(nonceAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
