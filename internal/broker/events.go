package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"ticket-service/internal/models"
	"ticket-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishTicketsPurchased publishes a TicketsPurchased event, keyed by the
// ticketed event so per-event ordering is preserved.
func (ep *EventPublisher) PublishTicketsPurchased(ctx context.Context, event *models.TicketsPurchasedEvent) error {
	key := fmt.Sprintf("event-%d", event.TicketEventID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming broker messages to registered handlers
type EventHandler struct {
	onTicketsPurchased func(context.Context, *models.TicketsPurchasedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnTicketsPurchased registers a handler for TicketsPurchased events
func (eh *EventHandler) OnTicketsPurchased(handler func(context.Context, *models.TicketsPurchasedEvent) error) {
	eh.onTicketsPurchased = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeTicketsPurchased:
		if eh.onTicketsPurchased != nil {
			var event models.TicketsPurchasedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal TicketsPurchased event: %w", err)
			}
			return eh.onTicketsPurchased(ctx, &event)
		}

	default:
		util.GetLogger().Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
