package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-service/internal/models"
	"ticket-service/internal/store"
	"ticket-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseStore is the persistence contract the orchestrator needs. The
// Postgres store satisfies it; tests use an in-memory fake.
type PurchaseStore interface {
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	CountTicketsByEventID(ctx context.Context, eventID int64) (int, error)
	CreatePurchase(ctx context.Context, params *store.PurchaseParams, gen store.CodeGenerator) (*models.Payment, []models.Ticket, error)
	GetPaymentByReference(ctx context.Context, refCode string) (*models.Payment, error)
	ListTicketsByPayment(ctx context.Context, paymentID int64) ([]models.Ticket, error)
}

// ReceiptCache stores idempotency mappings from client retry keys to payment
// reference codes. Implementations must tolerate being unavailable: a cache
// miss or error only costs a duplicate-detection opportunity, never
// correctness of a single call.
type ReceiptCache interface {
	GetIdempotentReference(ctx context.Context, key string) (string, error)
	SetIdempotentReference(ctx context.Context, key, refCode string) error
}

// PurchasePublisher publishes the post-commit domain event.
type PurchasePublisher interface {
	PublishTicketsPurchased(ctx context.Context, event *models.TicketsPurchasedEvent) error
}

// PurchaseService is the purchase transaction orchestrator: it validates
// preconditions, drives the atomic payment+tickets transaction with bounded
// retries on transient conflicts, and composes the receipt.
type PurchaseService struct {
	store       PurchaseStore
	cache       ReceiptCache
	publisher   PurchasePublisher
	codes       store.CodeGenerator
	maxAttempts int
	logger      *zap.Logger
}

// NewPurchaseService creates a new purchase service. cache and publisher may
// be nil; the corresponding side concerns are then skipped.
func NewPurchaseService(
	st PurchaseStore,
	cache ReceiptCache,
	publisher PurchasePublisher,
	codes store.CodeGenerator,
	maxAttempts int,
) *PurchaseService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PurchaseService{
		store:       st,
		cache:       cache,
		publisher:   publisher,
		codes:       codes,
		maxAttempts: maxAttempts,
		logger:      util.GetLogger(),
	}
}

// PurchaseRequest represents a request to buy tickets for an event. The
// customer ID comes from the authentication collaborator and is trusted
// unchecked.
type PurchaseRequest struct {
	EventID        int64  `json:"event_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required"`
	PaymentMethod  string `json:"payment_method" binding:"required"`
	BuyerName      string `json:"buyer_name" binding:"required"`
	BuyerEmail     string `json:"buyer_email" binding:"required,email"`
	BuyerTaxID     string `json:"buyer_tax_id" binding:"required"`
	CustomerID     int64  `json:"-"`
	IdempotencyKey string `json:"-"`
}

// PurchaseReceipt is the composed result of a successful purchase: the
// immutable payment record and the tickets it created, in creation order.
type PurchaseReceipt struct {
	Payment *models.Payment `json:"payment"`
	Tickets []models.Ticket `json:"tickets"`
}

// TicketCodes returns the ordered list of issued ticket codes.
func (r *PurchaseReceipt) TicketCodes() []string {
	codes := make([]string, len(r.Tickets))
	for i, t := range r.Tickets {
		codes[i] = t.Code
	}
	return codes
}

// Purchase buys req.Quantity tickets for req.EventID. On success exactly one
// payment row and exactly Quantity ticket rows exist, committed as one unit.
// Any failure leaves no partial rows.
func (s *PurchaseService) Purchase(ctx context.Context, req *PurchaseRequest) (*PurchaseReceipt, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.Purchase")
	defer span.End()

	start := time.Now()
	defer func() {
		util.PurchaseLatency.Observe(time.Since(start).Seconds())
	}()

	if !models.ValidPaymentMethod(req.PaymentMethod) {
		util.PurchasesFailedTotal.WithLabelValues("invalid_method").Inc()
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidMethod, req.PaymentMethod)
	}

	if receipt, ok := s.replayIdempotent(ctx, req); ok {
		return receipt, nil
	}

	// Fast-path precondition checks, before any write. The purchase
	// transaction re-validates all of this under the event row lock; these
	// reads only exist to reject hopeless requests without opening a
	// transaction.
	event, err := s.store.GetEventByID(ctx, req.EventID)
	if err != nil {
		util.PurchasesFailedTotal.WithLabelValues("event_not_found").Inc()
		return nil, err
	}
	if !event.Active {
		util.PurchasesFailedTotal.WithLabelValues("event_inactive").Inc()
		return nil, models.ErrEventNotActive
	}

	// Precondition order is part of the contract: existence and active state
	// are reported before quantity problems.
	if req.Quantity < 1 {
		util.PurchasesFailedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, models.ErrInvalidQuantity
	}

	sold, err := s.store.CountTicketsByEventID(ctx, req.EventID)
	if err != nil {
		util.PurchasesFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to count issued tickets: %w", err)
	}
	if sold+req.Quantity > event.Capacity {
		util.PurchasesFailedTotal.WithLabelValues("capacity_exceeded").Inc()
		return nil, &models.CapacityExceededError{
			EventID:   req.EventID,
			Requested: req.Quantity,
			Remaining: event.Capacity - sold,
		}
	}

	params := &store.PurchaseParams{
		EventID:       req.EventID,
		CustomerID:    req.CustomerID,
		Quantity:      req.Quantity,
		PaymentMethod: req.PaymentMethod,
		BuyerName:     req.BuyerName,
		BuyerEmail:    req.BuyerEmail,
		BuyerTaxID:    req.BuyerTaxID,
	}

	payment, tickets, err := s.purchaseWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	receipt := &PurchaseReceipt{Payment: payment, Tickets: tickets}

	util.PurchasesTotal.Inc()
	util.TicketsIssuedTotal.Add(float64(len(tickets)))
	s.logger.Info("Purchase completed",
		zap.Int64("payment_id", payment.ID),
		zap.String("reference_code", payment.ReferenceCode),
		zap.Int64("event_id", req.EventID),
		zap.Int("quantity", req.Quantity))

	s.afterCommit(ctx, req, receipt)

	return receipt, nil
}

// purchaseWithRetry drives the atomic transaction, retrying transient
// conflicts (serialization failures, deadlocks, code unique violations) from
// the top. Retries are invisible to the caller.
func (s *PurchaseService) purchaseWithRetry(ctx context.Context, params *store.PurchaseParams) (*models.Payment, []models.Ticket, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		payment, tickets, err := s.store.CreatePurchase(ctx, params, s.codes)
		if err == nil {
			return payment, tickets, nil
		}

		var capErr *models.CapacityExceededError
		switch {
		case errors.Is(err, models.ErrEventNotFound):
			util.PurchasesFailedTotal.WithLabelValues("event_not_found").Inc()
			return nil, nil, err
		case errors.Is(err, models.ErrEventNotActive):
			util.PurchasesFailedTotal.WithLabelValues("event_inactive").Inc()
			return nil, nil, err
		case errors.As(err, &capErr):
			util.PurchasesFailedTotal.WithLabelValues("capacity_exceeded").Inc()
			return nil, nil, err
		case store.IsRetryable(err):
			lastErr = err
			util.PurchaseRetriesTotal.Inc()
			s.logger.Warn("Transient purchase conflict, retrying",
				zap.Int64("event_id", params.EventID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		default:
			util.PurchasesFailedTotal.WithLabelValues("db_error").Inc()
			return nil, nil, fmt.Errorf("purchase failed: %w", err)
		}
	}

	util.PurchasesFailedTotal.WithLabelValues("retries_exhausted").Inc()
	return nil, nil, fmt.Errorf("purchase failed after %d attempts: %w", s.maxAttempts, lastErr)
}

// replayIdempotent returns the original receipt when the request carries an
// idempotency key that already completed. Cache errors are logged and
// treated as a miss.
func (s *PurchaseService) replayIdempotent(ctx context.Context, req *PurchaseRequest) (*PurchaseReceipt, bool) {
	if s.cache == nil || req.IdempotencyKey == "" {
		return nil, false
	}

	refCode, err := s.cache.GetIdempotentReference(ctx, req.IdempotencyKey)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed", zap.Error(err))
		return nil, false
	}
	if refCode == "" {
		return nil, false
	}

	payment, err := s.store.GetPaymentByReference(ctx, refCode)
	if err != nil {
		s.logger.Warn("Failed to load payment for idempotent replay",
			zap.String("reference_code", refCode), zap.Error(err))
		return nil, false
	}
	tickets, err := s.store.ListTicketsByPayment(ctx, payment.ID)
	if err != nil {
		s.logger.Warn("Failed to load tickets for idempotent replay",
			zap.Int64("payment_id", payment.ID), zap.Error(err))
		return nil, false
	}

	s.logger.Info("Replaying idempotent purchase",
		zap.String("idempotency_key", req.IdempotencyKey),
		zap.Int64("payment_id", payment.ID))
	return &PurchaseReceipt{Payment: payment, Tickets: tickets}, true
}

// afterCommit runs the non-transactional side effects of a committed
// purchase. Failures here are logged, never surfaced: the purchase is done.
func (s *PurchaseService) afterCommit(ctx context.Context, req *PurchaseRequest, receipt *PurchaseReceipt) {
	if s.cache != nil && req.IdempotencyKey != "" {
		if err := s.cache.SetIdempotentReference(ctx, req.IdempotencyKey, receipt.Payment.ReferenceCode); err != nil {
			s.logger.Warn("Failed to store idempotency mapping", zap.Error(err))
		}
	}

	if s.publisher == nil {
		return
	}

	event := &models.TicketsPurchasedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeTicketsPurchased,
			Timestamp: time.Now(),
		},
		PaymentID:     receipt.Payment.ID,
		ReferenceCode: receipt.Payment.ReferenceCode,
		TicketEventID: receipt.Payment.EventID,
		CustomerID:    receipt.Payment.CustomerID,
		Quantity:      receipt.Payment.Quantity,
		TotalAmount:   receipt.Payment.TotalAmount,
		TicketCodes:   receipt.TicketCodes(),
		PurchasedAt:   receipt.Payment.CreatedAt,
	}

	if err := s.publisher.PublishTicketsPurchased(ctx, event); err != nil {
		s.logger.Error("Failed to publish TicketsPurchased event",
			zap.Int64("payment_id", receipt.Payment.ID), zap.Error(err))
	}
}
