package worker

import (
	"context"

	"ticket-service/internal/broker"
	"ticket-service/internal/models"
	"ticket-service/internal/redisclient"
	"ticket-service/internal/store"
	"ticket-service/internal/util"

	"go.uber.org/zap"
)

// SalesWorker consumes TicketsPurchased events and maintains the per-day
// sales counters behind the dashboard sparkline. It is analytics only: the
// database row count stays authoritative for capacity, and notification
// delivery is deliberately absent.
type SalesWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	redis        *redisclient.Client
	logger       *zap.Logger
}

// NewSalesWorker creates a new sales analytics worker
func NewSalesWorker(consumer *broker.Consumer, st *store.Store, redis *redisclient.Client) *SalesWorker {
	w := &SalesWorker{
		consumer: consumer,
		store:    st,
		redis:    redis,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnTicketsPurchased(w.handleTicketsPurchased)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *SalesWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting sales worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *SalesWorker) Stop() error {
	w.logger.Info("Stopping sales worker")
	return w.consumer.Close()
}

// handleTicketsPurchased records one purchase into the daily sales counters,
// deduplicated through the processed_events table so broker redeliveries
// never double-count. The increment and the processed mark are separate
// writes with no shared transaction, so a crash between them re-counts the
// event on redelivery: the counters are at-least-once presentation data, not
// the capacity ledger.
func (w *SalesWorker) handleTicketsPurchased(ctx context.Context, event *models.TicketsPurchasedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		util.SalesEventsConsumedTotal.WithLabelValues("error").Inc()
		return err
	}
	if processed {
		util.SalesEventsConsumedTotal.WithLabelValues("duplicate").Inc()
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	day := event.PurchasedAt.UTC().Format("2006-01-02")
	if err := w.redis.IncrDailySales(ctx, event.TicketEventID, day, event.Quantity); err != nil {
		util.SalesEventsConsumedTotal.WithLabelValues("error").Inc()
		return err
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed",
			zap.String("event_id", event.EventID), zap.Error(err))
	}

	util.SalesEventsConsumedTotal.WithLabelValues("ok").Inc()
	w.logger.Info("Recorded sale",
		zap.Int64("ticket_event_id", event.TicketEventID),
		zap.Int("quantity", event.Quantity),
		zap.String("day", day))
	return nil
}
