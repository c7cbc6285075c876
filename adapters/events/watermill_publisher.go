package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/layer-3/goldencity/ports"
)

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	prefix    string
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher. Topics are
// published as prefix + event topic, e.g. "goldencity.session.created".
func NewWatermillPublisher(publisher message.Publisher, prefix string) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		prefix:    prefix,
		now:       time.Now,
	}
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// Topic returns the broker topic for an event topic.
func (p *WatermillPublisher) Topic(topic string) string {
	return p.prefix + topic
}

// Publish marshals the event as JSON and sends it to the broker.
func (p *WatermillPublisher) Publish(ctx context.Context, event ports.Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("wallet_address", event.WalletAddress)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.Topic(event.Topic), msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Topic, err)
	}

	return nil
}

// Close closes the underlying publisher.
func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}
