package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ticket-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// Generous ceiling for the generate-check loops. The identifier spaces make
// a single collision astronomically unlikely; hitting the ceiling means the
// generator is broken, not that we were unlucky.
const maxCodeAttempts = 64

// CodeGenerator mints candidate identifiers. Uniqueness is enforced here,
// against the persisted set, not by the generator.
type CodeGenerator interface {
	TicketCode() string
	PaymentReference() string
}

// PurchaseParams carries everything needed to materialize one payment plus
// N tickets. The buyer fields are snapshotted verbatim onto both.
type PurchaseParams struct {
	EventID       int64
	CustomerID    int64
	Quantity      int
	PaymentMethod string
	BuyerName     string
	BuyerEmail    string
	BuyerTaxID    string
}

// CreatePurchase atomically issues tickets for an event. Inside a single
// transaction it locks the event row (FOR UPDATE), re-validates the active
// flag and remaining capacity against the live ticket count, then inserts
// one payment and quantity tickets. The row lock serializes purchases per
// event, so the capacity check and the inserts behave as one linearizable
// step; purchases for different events proceed in parallel.
//
// Either the payment and all tickets commit together or nothing does.
func (s *Store) CreatePurchase(ctx context.Context, params *PurchaseParams, gen CodeGenerator) (*models.Payment, []models.Ticket, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var event models.Event
	err = tx.GetContext(ctx, &event,
		"SELECT * FROM events WHERE id = $1 FOR UPDATE", params.EventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock event: %w", err)
	}

	if !event.Active {
		return nil, nil, models.ErrEventNotActive
	}

	var sold int
	err = tx.GetContext(ctx, &sold,
		"SELECT COUNT(*) FROM tickets WHERE event_id = $1", params.EventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count issued tickets: %w", err)
	}

	if sold+params.Quantity > event.Capacity {
		return nil, nil, &models.CapacityExceededError{
			EventID:   params.EventID,
			Requested: params.Quantity,
			Remaining: event.Capacity - sold,
		}
	}

	refCode, err := uniqueCode(ctx, gen.PaymentReference, func(code string) (bool, error) {
		return codeExists(ctx, tx, "SELECT EXISTS(SELECT 1 FROM payments WHERE reference_code = $1)", code)
	})
	if err != nil {
		return nil, nil, err
	}

	payment := &models.Payment{
		ReferenceCode: refCode,
		Quantity:      params.Quantity,
		TotalAmount:   float64(event.UnitPrice) / 100 * float64(params.Quantity),
		PaymentMethod: params.PaymentMethod,
		BuyerName:     params.BuyerName,
		BuyerEmail:    params.BuyerEmail,
		BuyerTaxID:    params.BuyerTaxID,
		CustomerID:    params.CustomerID,
		EventID:       params.EventID,
	}

	// Insert and read back the generated ID before the tickets reference it.
	err = tx.GetContext(ctx, payment, `
		INSERT INTO payments (reference_code, quantity, total_amount, payment_method,
			buyer_name, buyer_email, buyer_tax_id, customer_id, event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		payment.ReferenceCode, payment.Quantity, payment.TotalAmount, payment.PaymentMethod,
		payment.BuyerName, payment.BuyerEmail, payment.BuyerTaxID, payment.CustomerID, payment.EventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create payment: %w", err)
	}

	tickets := make([]models.Ticket, 0, params.Quantity)
	for i := 0; i < params.Quantity; i++ {
		code, err := uniqueCode(ctx, gen.TicketCode, func(code string) (bool, error) {
			return codeExists(ctx, tx, "SELECT EXISTS(SELECT 1 FROM tickets WHERE code = $1)", code)
		})
		if err != nil {
			return nil, nil, err
		}

		ticket := models.Ticket{
			Code:          code,
			Quantity:      1, // each row is exactly one ticket
			PaymentMethod: params.PaymentMethod,
			BuyerName:     params.BuyerName,
			BuyerEmail:    params.BuyerEmail,
			BuyerTaxID:    params.BuyerTaxID,
			CustomerID:    params.CustomerID,
			EventID:       params.EventID,
			PaymentID:     payment.ID,
		}

		err = tx.GetContext(ctx, &ticket, `
			INSERT INTO tickets (code, quantity, payment_method, buyer_name, buyer_email,
				buyer_tax_id, customer_id, event_id, payment_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, purchased_at`,
			ticket.Code, ticket.Quantity, ticket.PaymentMethod, ticket.BuyerName, ticket.BuyerEmail,
			ticket.BuyerTaxID, ticket.CustomerID, ticket.EventID, ticket.PaymentID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create ticket: %w", err)
		}

		tickets = append(tickets, ticket)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	return payment, tickets, nil
}

// uniqueCode runs the generate-check-retry loop. The in-transaction check is
// advisory; the unique indexes on payments.reference_code and tickets.code
// remain the final authority, and a violation there surfaces as a retryable
// error to the caller.
func uniqueCode(ctx context.Context, generate func() string, exists func(string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := generate()
		taken, err := exists(code)
		if err != nil {
			return "", fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", models.ErrCodeSpaceExhausted
}

func codeExists(ctx context.Context, tx *sqlx.Tx, query, code string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, query, code)
	return exists, err
}

// GetTicketByCode retrieves a ticket by its public code. Tickets are
// immutable once issued, so this lookup is stable forever.
func (s *Store) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.GetContext(ctx, &ticket, "SELECT * FROM tickets WHERE code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetTicketByID retrieves a ticket owned by a customer
func (s *Store) GetTicketByID(ctx context.Context, id, customerID int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.GetContext(ctx, &ticket,
		"SELECT * FROM tickets WHERE id = $1 AND customer_id = $2", id, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListTicketsByCustomer retrieves a customer's tickets, newest first
func (s *Store) ListTicketsByCustomer(ctx context.Context, customerID int64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.db.SelectContext(ctx, &tickets,
		"SELECT * FROM tickets WHERE customer_id = $1 ORDER BY purchased_at DESC", customerID)
	return tickets, err
}

// ListTicketsByPayment retrieves the tickets created by a payment
func (s *Store) ListTicketsByPayment(ctx context.Context, paymentID int64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.db.SelectContext(ctx, &tickets,
		"SELECT * FROM tickets WHERE payment_id = $1 ORDER BY id", paymentID)
	return tickets, err
}

// GetPaymentByReference retrieves a payment by its reference code
func (s *Store) GetPaymentByReference(ctx context.Context, refCode string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE reference_code = $1", refCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListPaymentsByCustomer retrieves a customer's payments, newest first
func (s *Store) ListPaymentsByCustomer(ctx context.Context, customerID int64) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.SelectContext(ctx, &payments,
		"SELECT * FROM payments WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	return payments, err
}

// CountEventsByOrganizer returns total and active event counts for an organizer
func (s *Store) CountEventsByOrganizer(ctx context.Context, organizerID int64) (total, active int, err error) {
	err = s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM events WHERE organizer_id = $1", organizerID)
	if err != nil {
		return 0, 0, err
	}
	err = s.db.GetContext(ctx, &active,
		"SELECT COUNT(*) FROM events WHERE organizer_id = $1 AND active = TRUE", organizerID)
	if err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

// CountTicketsByOrganizer returns the number of tickets sold across all of an
// organizer's events, using the same row-count definition as the per-event
// ledger.
func (s *Store) CountTicketsByOrganizer(ctx context.Context, organizerID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM tickets t
		JOIN events e ON e.id = t.event_id
		WHERE e.organizer_id = $1`, organizerID)
	return count, err
}

// SumRevenueByOrganizer returns gross revenue in minor currency units: the
// sum of the owning event's unit price over every issued ticket.
func (s *Store) SumRevenueByOrganizer(ctx context.Context, organizerID int64) (int64, error) {
	var revenue int64
	err := s.db.GetContext(ctx, &revenue, `
		SELECT COALESCE(SUM(e.unit_price), 0) FROM tickets t
		JOIN events e ON e.id = t.event_id
		WHERE e.organizer_id = $1`, organizerID)
	return revenue, err
}

// SalesByDay returns per-day ticket sale counts for an organizer within the
// given window. Days without sales are absent; the service zero-fills them.
func (s *Store) SalesByDay(ctx context.Context, organizerID int64, from, to string) ([]models.SalesPoint, error) {
	var points []models.SalesPoint
	err := s.db.SelectContext(ctx, &points, `
		SELECT TO_CHAR(t.purchased_at, 'YYYY-MM-DD') AS date, COUNT(*) AS quantity
		FROM tickets t
		JOIN events e ON e.id = t.event_id
		WHERE e.organizer_id = $1
		  AND t.purchased_at >= $2::date
		  AND t.purchased_at < $3::date + INTERVAL '1 day'
		GROUP BY 1
		ORDER BY 1`, organizerID, from, to)
	return points, err
}
