package ports

import (
	"context"
	"time"
)

// Event topics
const (
	TopicUserCreated         = "user.created"
	TopicSessionCreated      = "session.created"
	TopicSessionDeleted      = "session.deleted"
	TopicKYCApproved         = "kyc.approved"
	TopicOnboardingCompleted = "onboarding.completed"
)

// Event is a domain notification about a wallet.
type Event struct {
	Topic         string            `json:"topic"`
	WalletAddress string            `json:"wallet_address"`
	SessionID     string            `json:"session_id,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
