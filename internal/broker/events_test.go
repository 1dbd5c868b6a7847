package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ticket-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageRoutesTicketsPurchased(t *testing.T) {
	eh := NewEventHandler()

	var received *models.TicketsPurchasedEvent
	eh.OnTicketsPurchased(func(_ context.Context, event *models.TicketsPurchasedEvent) error {
		received = event
		return nil
	})

	payload := &models.TicketsPurchasedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeTicketsPurchased,
			Timestamp: time.Now(),
		},
		PaymentID:     42,
		ReferenceCode: "4E07408562BEDB8B",
		TicketEventID: 7,
		Quantity:      2,
		TotalAmount:   30.00,
		TicketCodes:   []string{"Ab3dE6gH9jK", "Zz1xC2vB3nM"},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	err = eh.HandleMessage(context.Background(), kafka.Message{Value: raw})
	require.NoError(t, err)

	require.NotNil(t, received)
	assert.Equal(t, int64(42), received.PaymentID)
	assert.Equal(t, 2, received.Quantity)
	assert.Equal(t, payload.TicketCodes, received.TicketCodes)
}

func TestHandleMessageIgnoresUnknownType(t *testing.T) {
	eh := NewEventHandler()

	called := false
	eh.OnTicketsPurchased(func(context.Context, *models.TicketsPurchasedEvent) error {
		called = true
		return nil
	})

	raw, err := json.Marshal(models.BaseEvent{EventID: "evt-2", EventType: "SOMETHING_ELSE"})
	require.NoError(t, err)

	err = eh.HandleMessage(context.Background(), kafka.Message{Value: raw})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestHandleMessageRejectsMalformedPayload(t *testing.T) {
	eh := NewEventHandler()

	err := eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}
