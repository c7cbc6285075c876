package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/ports"
)

const AudienceNonce = "siwe:nonce"

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs
type JWTTokenizer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTTokenizer creates a new JWT tokenizer keyed by the session secret
func NewJWTTokenizer(secret []byte, issuer string) ports.Tokenizer {
	return &JWTTokenizer{secret: secret, issuer: issuer, now: time.Now}
}

// NonceToTicket converts a nonce to a signed ticket
func (j *JWTTokenizer) NonceToTicket(nonce string, ttl time.Duration) (string, error) {
	if nonce == "" {
		return "", fmt.Errorf("empty nonce: %w", core.ErrInvalidTicket)
	}
	now := j.now()
	claims := NonceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  jwt.ClaimStrings{AudienceNonce},
		},
		Nonce: nonce,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign nonce ticket: %w", err)
	}

	return signed, nil
}

// TicketToNonce verifies a ticket and returns its nonce
func (j *JWTTokenizer) TicketToNonce(ticket string) (string, error) {
	token, err := jwt.ParseWithClaims(ticket, &NonceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithAudience(AudienceNonce),
		jwt.WithIssuer(j.issuer),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", errors.Join(core.ErrInvalidTicket, err)
	}

	claims, ok := token.Claims.(*NonceClaims)
	if !ok || !token.Valid || claims.Nonce == "" {
		return "", core.ErrInvalidTicket
	}

	return claims.Nonce, nil
}
