package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Topic is the in-process bus topic carrying every assistant event.
const Topic = "assistant.events"

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// BusPublisher puts events on a watermill publisher, usually the in-process
// gochannel. Consumers decode them with Decode.
type BusPublisher struct {
	publisher message.Publisher
	topic     string
}

func NewBusPublisher(publisher message.Publisher, topic string) *BusPublisher {
	return &BusPublisher{publisher: publisher, topic: topic}
}

func (p *BusPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := Encode(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.EventType(), err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", event.EventType())
	msg.SetContext(ctx)
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}
	return nil
}

// NopPublisher drops everything.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
