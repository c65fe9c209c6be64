package service

import (
	"context"

	"fleet-assistant-be/internal/pkg/logger"
	"fleet-assistant-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const notifierModule = "NotifierService"

// EventForwarder appends events to an external log. nil disables forwarding.
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

// LiveFeed pushes a frame to the websocket connections of one user.
type LiveFeed interface {
	Send(userID uuid.UUID, eventType string, payload []byte)
}

type INotifierService interface {
	Consume(ctx context.Context) error
}

type notifierService struct {
	subscriber message.Subscriber
	topicName  string
	forwarder  EventForwarder
	feed       LiveFeed
	logger     logger.ILogger
}

func NewNotifierService(
	subscriber message.Subscriber,
	topicName string,
	forwarder EventForwarder,
	feed LiveFeed,
	log logger.ILogger,
) INotifierService {
	return &notifierService{
		subscriber: subscriber,
		topicName:  topicName,
		forwarder:  forwarder,
		feed:       feed,
		logger:     log,
	}
}

func (ns *notifierService) Consume(ctx context.Context) error {
	messages, err := ns.subscriber.Subscribe(ctx, ns.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ns.processMessage(msg)
		}
	}()

	return nil
}

// processMessage always acks: delivery to the feed is best effort and a
// retry would only duplicate frames for the user.
func (ns *notifierService) processMessage(msg *message.Message) {
	defer msg.Ack()

	event, err := events.Decode(msg.Payload)
	if err != nil {
		ns.logger.Error(notifierModule, "Failed to decode event", map[string]interface{}{
			"message_uuid": msg.UUID,
			"error":        err.Error(),
		})
		return
	}

	if ns.forwarder != nil {
		if err := ns.forwarder.Publish(msg.Context(), event); err != nil {
			ns.logger.Warn(notifierModule, "Failed to forward event", map[string]interface{}{
				"event_type": event.Type,
				"error":      err.Error(),
			})
		}
	}

	userID, ok := events.UserID(event)
	if !ok {
		ns.logger.Debug(notifierModule, "Event has no recipient", map[string]interface{}{"event_type": event.Type})
		return
	}
	if ns.feed != nil {
		ns.feed.Send(userID, event.Type, msg.Payload)
	}
}
