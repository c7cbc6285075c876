package challenge

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/layer-3/goldencity/core"
)

// signatureLength is the size of an [R || S || V] secp256k1 signature.
const signatureLength = 65

// Verifier checks signed SIWE messages against the expected domain.
type Verifier struct {
	domain string
	now    func() time.Time
}

// NewVerifier creates a verifier that only accepts messages for domain.
func NewVerifier(domain string) *Verifier {
	return &Verifier{domain: domain, now: time.Now}
}

// Verify confirms that signature is an EIP-191 personal_sign signature over the
// exact text of msg made by the key controlling msg.Address, and that the
// domain and validity window of msg are acceptable.
func (v *Verifier) Verify(msg *Message, signature string) error {
	if msg == nil || msg.raw == nil {
		return fmt.Errorf("nil message: %w", core.ErrInvalidSignature)
	}
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(sig) != signatureLength {
		return fmt.Errorf("signature must be %d bytes, got %d: %w", signatureLength, len(sig), core.ErrInvalidSignature)
	}
	if msg.Domain != v.domain {
		return fmt.Errorf("domain mismatch: got %q, expected %q: %w", msg.Domain, v.domain, core.ErrInvalidSignature)
	}
	now := v.now()
	if msg.ExpirationTime != nil && !now.Before(*msg.ExpirationTime) {
		return fmt.Errorf("message expired at %s: %w", msg.ExpirationTime.Format(time.RFC3339), core.ErrInvalidSignature)
	}
	if msg.NotBefore != nil && now.Before(*msg.NotBefore) {
		return fmt.Errorf("message not valid before %s: %w", msg.NotBefore.Format(time.RFC3339), core.ErrInvalidSignature)
	}
	// Recovers the signer and compares it with the declared address.
	if _, err := msg.raw.VerifyEIP191(signature); err != nil {
		return fmt.Errorf("%v: %w", err, core.ErrInvalidSignature)
	}
	return nil
}
