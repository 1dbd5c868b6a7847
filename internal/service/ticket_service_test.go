package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ticket-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTicketStore is an in-memory TicketStore
type memTicketStore struct {
	events   map[int64]*models.Event
	tickets  []models.Ticket
	payments []models.Payment
	reads    int
}

func (m *memTicketStore) GetTicketByCode(_ context.Context, code string) (*models.Ticket, error) {
	m.reads++
	for i := range m.tickets {
		if m.tickets[i].Code == code {
			copied := m.tickets[i]
			return &copied, nil
		}
	}
	return nil, models.ErrTicketNotFound
}

func (m *memTicketStore) GetTicketByID(_ context.Context, id, customerID int64) (*models.Ticket, error) {
	for i := range m.tickets {
		if m.tickets[i].ID == id && m.tickets[i].CustomerID == customerID {
			copied := m.tickets[i]
			return &copied, nil
		}
	}
	return nil, models.ErrTicketNotFound
}

func (m *memTicketStore) ListTicketsByCustomer(_ context.Context, customerID int64) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, t := range m.tickets {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTicketStore) ListTicketsByPayment(_ context.Context, paymentID int64) ([]models.Ticket, error) {
	var out []models.Ticket
	for _, t := range m.tickets {
		if t.PaymentID == paymentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTicketStore) ListPaymentsByCustomer(_ context.Context, customerID int64) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memTicketStore) GetEventByID(_ context.Context, id int64) (*models.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (m *memTicketStore) CountTicketsByEventID(_ context.Context, eventID int64) (int, error) {
	count := 0
	for _, t := range m.tickets {
		if t.EventID == eventID {
			count++
		}
	}
	return count, nil
}

// memTicketCache is an in-memory TicketCache
type memTicketCache struct {
	mu      sync.Mutex
	entries map[string]models.Ticket
}

func newMemTicketCache() *memTicketCache {
	return &memTicketCache{entries: make(map[string]models.Ticket)}
}

func (c *memTicketCache) GetCachedTicket(_ context.Context, code string) (*models.Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.entries[code]; ok {
		return &t, nil
	}
	return nil, nil
}

func (c *memTicketCache) CacheTicket(_ context.Context, ticket *models.Ticket) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ticket.Code] = *ticket
	return nil
}

func fixtureTicketStore() *memTicketStore {
	return &memTicketStore{
		events: map[int64]*models.Event{
			1: {ID: 1, Name: "Synthwave Night", Location: "Warehouse 9",
				EndsAt: time.Now().Add(48 * time.Hour), UnitPrice: 2500, Capacity: 100, Active: true},
		},
		tickets: []models.Ticket{
			{ID: 10, Code: "Ab3dE6gH9jK", Quantity: 1, PaymentMethod: models.PaymentMethodCard,
				BuyerName: "Ada Lovelace", BuyerEmail: "ada@example.com", BuyerTaxID: "123.456.789-00",
				CustomerID: 7, EventID: 1, PaymentID: 100, PurchasedAt: time.Now()},
			{ID: 11, Code: "Zz1xC2vB3nM", Quantity: 1, PaymentMethod: models.PaymentMethodCard,
				BuyerName: "Ada Lovelace", BuyerEmail: "ada@example.com", BuyerTaxID: "123.456.789-00",
				CustomerID: 7, EventID: 1, PaymentID: 100, PurchasedAt: time.Now()},
		},
		payments: []models.Payment{
			{ID: 100, ReferenceCode: "4E07408562BEDB8B", Quantity: 2, TotalAmount: 50.00,
				PaymentMethod: models.PaymentMethodCard, CustomerID: 7, EventID: 1},
		},
	}
}

func TestVerifyTicket(t *testing.T) {
	st := fixtureTicketStore()
	svc := NewTicketService(st, nil)

	detail, err := svc.VerifyTicket(context.Background(), "Ab3dE6gH9jK")
	require.NoError(t, err)

	assert.Equal(t, int64(10), detail.ID)
	assert.Equal(t, 1, detail.Quantity)
	assert.Equal(t, "Synthwave Night", detail.Event.Name)
	assert.Equal(t, 2, detail.Event.TicketsSold)
}

func TestVerifyTicketNotFound(t *testing.T) {
	svc := NewTicketService(fixtureTicketStore(), nil)

	_, err := svc.VerifyTicket(context.Background(), "nosuchcode0")
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}

func TestVerifyTicketIdempotentRead(t *testing.T) {
	// Tickets are immutable once issued: repeated lookups return identical
	// data no matter when they happen.
	st := fixtureTicketStore()
	svc := NewTicketService(st, nil)

	first, err := svc.VerifyTicket(context.Background(), "Ab3dE6gH9jK")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.VerifyTicket(context.Background(), "Ab3dE6gH9jK")
		require.NoError(t, err)
		assert.Equal(t, first.Ticket, again.Ticket)
	}
}

func TestVerifyTicketUsesCache(t *testing.T) {
	st := fixtureTicketStore()
	cache := newMemTicketCache()
	svc := NewTicketService(st, cache)

	first, err := svc.VerifyTicket(context.Background(), "Ab3dE6gH9jK")
	require.NoError(t, err)
	dbReads := st.reads

	second, err := svc.VerifyTicket(context.Background(), "Ab3dE6gH9jK")
	require.NoError(t, err)

	assert.Equal(t, first.Ticket, second.Ticket)
	assert.Equal(t, dbReads, st.reads, "second lookup should be served from cache")
}

func TestGetTicketScopedToOwner(t *testing.T) {
	svc := NewTicketService(fixtureTicketStore(), nil)

	_, err := svc.GetTicket(context.Background(), 10, 7)
	assert.NoError(t, err)

	_, err = svc.GetTicket(context.Background(), 10, 8)
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}

func TestListCustomerPayments(t *testing.T) {
	svc := NewTicketService(fixtureTicketStore(), nil)

	payments, err := svc.ListCustomerPayments(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, payments, 1)

	assert.Equal(t, "4E07408562BEDB8B", payments[0].ReferenceCode)
	assert.Equal(t, 50.00, payments[0].TotalAmount)
	require.Len(t, payments[0].Tickets, 2)
	assert.Equal(t, 2, payments[0].Quantity)
}

func TestListCustomerTickets(t *testing.T) {
	svc := NewTicketService(fixtureTicketStore(), nil)

	tickets, err := svc.ListCustomerTickets(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	for _, detail := range tickets {
		assert.Equal(t, "Synthwave Night", detail.Event.Name)
		assert.Equal(t, 2, detail.Event.TicketsSold)
	}
}
