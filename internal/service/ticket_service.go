package service

import (
	"context"
	"fmt"

	"ticket-service/internal/models"
	"ticket-service/internal/util"

	"go.uber.org/zap"
)

// TicketStore is the read-side persistence contract for ticket lookups.
type TicketStore interface {
	GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error)
	GetTicketByID(ctx context.Context, id, customerID int64) (*models.Ticket, error)
	ListTicketsByCustomer(ctx context.Context, customerID int64) ([]models.Ticket, error)
	ListTicketsByPayment(ctx context.Context, paymentID int64) ([]models.Ticket, error)
	ListPaymentsByCustomer(ctx context.Context, customerID int64) ([]models.Payment, error)
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	CountTicketsByEventID(ctx context.Context, eventID int64) (int, error)
}

// TicketCache caches immutable tickets for the public verify lookup.
// Tickets never change once issued, so cached entries can never go stale.
type TicketCache interface {
	GetCachedTicket(ctx context.Context, code string) (*models.Ticket, error)
	CacheTicket(ctx context.Context, ticket *models.Ticket) error
}

// TicketService serves ticket and payment read paths: the public
// verify-by-code lookup and the customer-scoped listings.
type TicketService struct {
	store  TicketStore
	cache  TicketCache
	logger *zap.Logger
}

// NewTicketService creates a new ticket read service. cache may be nil.
func NewTicketService(st TicketStore, cache TicketCache) *TicketService {
	return &TicketService{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// VerifyTicket resolves a ticket by its public code, with its event and the
// event's sold count attached. Codes are immutable once issued, so repeated
// lookups return identical data forever.
func (s *TicketService) VerifyTicket(ctx context.Context, code string) (*models.TicketDetail, error) {
	ctx, span := util.StartSpan(ctx, "TicketService.VerifyTicket")
	defer span.End()

	ticket, err := s.lookupTicket(ctx, code)
	if err != nil {
		util.TicketVerificationsTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	detail, err := s.withEvent(ctx, ticket)
	if err != nil {
		util.TicketVerificationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	util.TicketVerificationsTotal.WithLabelValues("ok").Inc()
	return detail, nil
}

// lookupTicket reads through the cache. Cache failures fall back to the
// database silently; the store is always authoritative.
func (s *TicketService) lookupTicket(ctx context.Context, code string) (*models.Ticket, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCachedTicket(ctx, code); err != nil {
			s.logger.Warn("Ticket cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	ticket, err := s.store.GetTicketByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheTicket(ctx, ticket); err != nil {
			s.logger.Warn("Ticket cache write failed", zap.Error(err))
		}
	}
	return ticket, nil
}

// GetTicket retrieves one of the customer's tickets with event detail.
func (s *TicketService) GetTicket(ctx context.Context, ticketID, customerID int64) (*models.TicketDetail, error) {
	ctx, span := util.StartSpan(ctx, "TicketService.GetTicket")
	defer span.End()

	ticket, err := s.store.GetTicketByID(ctx, ticketID, customerID)
	if err != nil {
		return nil, err
	}
	return s.withEvent(ctx, ticket)
}

// ListCustomerTickets retrieves the customer's tickets, newest first, each
// with event detail.
func (s *TicketService) ListCustomerTickets(ctx context.Context, customerID int64) ([]models.TicketDetail, error) {
	ctx, span := util.StartSpan(ctx, "TicketService.ListCustomerTickets")
	defer span.End()

	tickets, err := s.store.ListTicketsByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	details := make([]models.TicketDetail, 0, len(tickets))
	for i := range tickets {
		detail, err := s.withEvent(ctx, &tickets[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// ListCustomerPayments retrieves the customer's payments, newest first, each
// with the tickets it created.
func (s *TicketService) ListCustomerPayments(ctx context.Context, customerID int64) ([]models.PaymentWithTickets, error) {
	ctx, span := util.StartSpan(ctx, "TicketService.ListCustomerPayments")
	defer span.End()

	payments, err := s.store.ListPaymentsByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	result := make([]models.PaymentWithTickets, 0, len(payments))
	for _, p := range payments {
		tickets, err := s.store.ListTicketsByPayment(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load tickets for payment %d: %w", p.ID, err)
		}
		result = append(result, models.PaymentWithTickets{Payment: p, Tickets: tickets})
	}
	return result, nil
}

func (s *TicketService) withEvent(ctx context.Context, ticket *models.Ticket) (*models.TicketDetail, error) {
	event, err := s.store.GetEventByID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}
	sold, err := s.store.CountTicketsByEventID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}
	return &models.TicketDetail{
		Ticket: *ticket,
		Event:  models.EventSummary{Event: *event, TicketsSold: sold},
	}, nil
}
