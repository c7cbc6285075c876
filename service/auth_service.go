package service

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/goldencity/challenge"
	"github.com/layer-3/goldencity/core"
	"github.com/layer-3/goldencity/ports"
	"go.uber.org/zap"
)

// AuthConfig holds the authentication settings derived from configuration.
type AuthConfig struct {
	Domain         string        // Expected SIWE domain
	SessionTTL     time.Duration // Lifetime of a server-side session
	NonceTTL       time.Duration // Lifetime of a nonce ticket
	SingleUseNonce bool          // Require a ticket and reject reused nonces
}

// NonceResult is returned to clients requesting a challenge nonce.
type NonceResult struct {
	Nonce  string
	Ticket string // Empty when no tokenizer is configured
}

// AuthService handles authentication business logic
type AuthService struct {
	verifier  *challenge.Verifier
	sessions  ports.SessionStore
	tokenizer ports.Tokenizer
	nonces    ports.NonceRegistry
	eventPub  ports.EventPublisher
	log       *zap.Logger

	cfg AuthConfig
}

// NewAuthService creates a new authentication service. tokenizer and nonces
// may be nil when cfg.SingleUseNonce is false, eventPub may be nil.
func NewAuthService(
	cfg AuthConfig,
	sessions ports.SessionStore,
	tokenizer ports.Tokenizer,
	nonces ports.NonceRegistry,
	eventPub ports.EventPublisher,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		verifier:  challenge.NewVerifier(cfg.Domain),
		sessions:  sessions,
		tokenizer: tokenizer,
		nonces:    nonces,
		eventPub:  eventPub,
		log:       log,
		cfg:       cfg,
	}
}

// Nonce generates a fresh challenge nonce and, if possible, a ticket binding it.
func (s *AuthService) Nonce(ctx context.Context) (NonceResult, error) {
	nonce, err := challenge.NewNonce()
	if err != nil {
		return NonceResult{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	res := NonceResult{Nonce: nonce}
	if s.tokenizer != nil {
		res.Ticket, err = s.tokenizer.NonceToTicket(nonce, s.cfg.NonceTTL)
		if err != nil {
			return NonceResult{}, fmt.Errorf("failed to create nonce ticket: %w", err)
		}
	}

	return res, nil
}

// Login verifies a signed SIWE message and opens a session for its address.
func (s *AuthService) Login(ctx context.Context, message, signature, ticket string) (core.Session, error) {
	msg, err := challenge.Parse(message)
	if err != nil {
		return core.Session{}, err
	}

	if err := s.verifier.Verify(msg, signature); err != nil {
		return core.Session{}, err
	}

	if s.cfg.SingleUseNonce {
		if err := s.consumeNonce(ctx, msg.Nonce, ticket); err != nil {
			return core.Session{}, err
		}
	}

	session, err := s.sessions.Create(ctx, msg.WalletAddress(), s.cfg.SessionTTL)
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	s.publish(ctx, ports.Event{
		Topic:         ports.TopicSessionCreated,
		WalletAddress: session.WalletAddress,
		SessionID:     session.ID,
		Attributes:    map[string]string{"chain_id": fmt.Sprint(msg.ChainID)},
	})

	return session, nil
}

func (s *AuthService) consumeNonce(ctx context.Context, nonce, ticket string) error {
	if ticket == "" || s.tokenizer == nil || s.nonces == nil {
		return fmt.Errorf("missing nonce ticket: %w", core.ErrInvalidTicket)
	}

	issued, err := s.tokenizer.TicketToNonce(ticket)
	if err != nil {
		return err
	}
	if issued != nonce {
		return fmt.Errorf("ticket was issued for another nonce: %w", core.ErrInvalidTicket)
	}

	fresh, err := s.nonces.Consume(ctx, nonce, s.cfg.NonceTTL)
	if err != nil {
		return fmt.Errorf("failed to consume nonce: %w", err)
	}
	if !fresh {
		return core.ErrNonceReused
	}

	return nil
}

// Logout deletes the session. Unknown or empty ids are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.publish(ctx, ports.Event{
		Topic:     ports.TopicSessionDeleted,
		SessionID: sessionID,
	})

	return nil
}

// Authenticate resolves a session id to the caller identity.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (core.Identity, error) {
	if sessionID == "" {
		return core.Identity{}, core.ErrSessionNotFound
	}

	session, err := s.sessions.Lookup(ctx, sessionID)
	if err != nil {
		return core.Identity{}, err
	}

	return core.Identity{SessionID: session.ID, WalletAddress: session.WalletAddress}, nil
}

// publish sends an event, logging failures. The state change already happened.
func (s *AuthService) publish(ctx context.Context, event ports.Event) {
	publish(ctx, s.eventPub, s.log, event)
}

func publish(ctx context.Context, pub ports.EventPublisher, log *zap.Logger, event ports.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event",
			zap.String("topic", event.Topic),
			zap.String("wallet", event.WalletAddress),
			zap.Error(err))
	}
}
