package service

import (
	"context"
	"testing"
	"time"

	"ticket-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memEventStore is an in-memory EventStore
type memEventStore struct {
	events  map[int64]*models.Event
	tickets []models.Ticket
	sales   []models.SalesPoint
}

func (m *memEventStore) GetEventByID(_ context.Context, id int64) (*models.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (m *memEventStore) ListActiveEvents(_ context.Context) ([]models.Event, error) {
	var out []models.Event
	for _, e := range m.events {
		if e.Active {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memEventStore) CountTicketsByEventID(_ context.Context, eventID int64) (int, error) {
	count := 0
	for _, t := range m.tickets {
		if t.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (m *memEventStore) CountEventsByOrganizer(_ context.Context, organizerID int64) (int, int, error) {
	var total, active int
	for _, e := range m.events {
		if e.OrganizerID != organizerID {
			continue
		}
		total++
		if e.Active {
			active++
		}
	}
	return total, active, nil
}

func (m *memEventStore) CountTicketsByOrganizer(_ context.Context, organizerID int64) (int, error) {
	count := 0
	for _, t := range m.tickets {
		if e, ok := m.events[t.EventID]; ok && e.OrganizerID == organizerID {
			count++
		}
	}
	return count, nil
}

func (m *memEventStore) SumRevenueByOrganizer(_ context.Context, organizerID int64) (int64, error) {
	var revenue int64
	for _, t := range m.tickets {
		if e, ok := m.events[t.EventID]; ok && e.OrganizerID == organizerID {
			revenue += e.UnitPrice
		}
	}
	return revenue, nil
}

func (m *memEventStore) SalesByDay(_ context.Context, _ int64, _, _ string) ([]models.SalesPoint, error) {
	return m.sales, nil
}

func TestGetEventDerivedSoldCount(t *testing.T) {
	st := &memEventStore{
		events: map[int64]*models.Event{
			1: {ID: 1, Name: "Gig", UnitPrice: 1500, Capacity: 50, Active: true, OrganizerID: 3},
		},
		tickets: []models.Ticket{
			{ID: 1, EventID: 1}, {ID: 2, EventID: 1}, {ID: 3, EventID: 1},
		},
	}
	svc := NewEventService(st)

	summary, err := svc.GetEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TicketsSold)
	assert.Equal(t, 50, summary.Capacity)
}

func TestDashboardStats(t *testing.T) {
	st := &memEventStore{
		events: map[int64]*models.Event{
			1: {ID: 1, UnitPrice: 1500, Capacity: 50, Active: true, OrganizerID: 3},
			2: {ID: 2, UnitPrice: 3000, Capacity: 20, Active: false, OrganizerID: 3},
			3: {ID: 3, UnitPrice: 9999, Capacity: 10, Active: true, OrganizerID: 4},
		},
		tickets: []models.Ticket{
			{ID: 1, EventID: 1}, {ID: 2, EventID: 1}, {ID: 3, EventID: 2}, {ID: 4, EventID: 3},
		},
		sales: []models.SalesPoint{
			{Date: "2026-08-02", Quantity: 2},
			{Date: "2026-08-04", Quantity: 1},
		},
	}
	svc := NewEventService(st)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)

	stats, err := svc.DashboardStats(context.Background(), 3, from, to)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalEvents)
	assert.Equal(t, 1, stats.ActiveEvents)
	assert.Equal(t, 3, stats.TicketsSold)
	assert.Equal(t, int64(2*1500+3000), stats.TotalRevenue)

	// Dense series with zero-filled gaps.
	require.Len(t, stats.SalesOverTime, 5)
	expected := []models.SalesPoint{
		{Date: "2026-08-01", Quantity: 0},
		{Date: "2026-08-02", Quantity: 2},
		{Date: "2026-08-03", Quantity: 0},
		{Date: "2026-08-04", Quantity: 1},
		{Date: "2026-08-05", Quantity: 0},
	}
	assert.Equal(t, expected, stats.SalesOverTime)
}

func TestFillMissingDaysEmpty(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	series := fillMissingDays(nil, from, to)
	require.Len(t, series, 3)
	for _, p := range series {
		assert.Zero(t, p.Quantity)
	}
}
