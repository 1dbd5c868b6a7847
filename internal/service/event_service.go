package service

import (
	"context"
	"time"

	"ticket-service/internal/models"
	"ticket-service/internal/util"
)

// EventStore is the read-side persistence contract for the event listings
// and the organizer dashboard.
type EventStore interface {
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	ListActiveEvents(ctx context.Context) ([]models.Event, error)
	CountTicketsByEventID(ctx context.Context, eventID int64) (int, error)
	CountEventsByOrganizer(ctx context.Context, organizerID int64) (total, active int, err error)
	CountTicketsByOrganizer(ctx context.Context, organizerID int64) (int, error)
	SumRevenueByOrganizer(ctx context.Context, organizerID int64) (int64, error)
	SalesByDay(ctx context.Context, organizerID int64, from, to string) ([]models.SalesPoint, error)
}

// EventService serves the event read side. Events are owned and mutated by
// the organizer platform; this service only reads them and derives sold
// counts.
type EventService struct {
	store EventStore
}

// NewEventService creates a new event read service
func NewEventService(st EventStore) *EventService {
	return &EventService{store: st}
}

// GetEvent retrieves an event with its derived sold count
func (s *EventService) GetEvent(ctx context.Context, id int64) (*models.EventSummary, error) {
	ctx, span := util.StartSpan(ctx, "EventService.GetEvent")
	defer span.End()

	event, err := s.store.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sold, err := s.store.CountTicketsByEventID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.EventSummary{Event: *event, TicketsSold: sold}, nil
}

// ListActiveEvents retrieves all active events with sold counts
func (s *EventService) ListActiveEvents(ctx context.Context) ([]models.EventSummary, error) {
	ctx, span := util.StartSpan(ctx, "EventService.ListActiveEvents")
	defer span.End()

	events, err := s.store.ListActiveEvents(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.EventSummary, 0, len(events))
	for _, e := range events {
		sold, err := s.store.CountTicketsByEventID(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.EventSummary{Event: e, TicketsSold: sold})
	}
	return summaries, nil
}

// DashboardStats aggregates the organizer's sales figures over [from, to],
// zero-filling days without sales. Defaults to the last 30 days.
func (s *EventService) DashboardStats(ctx context.Context, organizerID int64, from, to time.Time) (*models.DashboardStats, error) {
	ctx, span := util.StartSpan(ctx, "EventService.DashboardStats")
	defer span.End()

	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}

	total, active, err := s.store.CountEventsByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	sold, err := s.store.CountTicketsByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	revenue, err := s.store.SumRevenueByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}

	fromDay := from.Format("2006-01-02")
	toDay := to.Format("2006-01-02")
	points, err := s.store.SalesByDay(ctx, organizerID, fromDay, toDay)
	if err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		TotalEvents:   total,
		ActiveEvents:  active,
		TicketsSold:   sold,
		TotalRevenue:  revenue,
		SalesOverTime: fillMissingDays(points, from, to),
	}, nil
}

// fillMissingDays expands sparse per-day counts into a dense series with
// zeroes for days without sales.
func fillMissingDays(points []models.SalesPoint, from, to time.Time) []models.SalesPoint {
	byDay := make(map[string]int, len(points))
	for _, p := range points {
		byDay[p.Date] = p.Quantity
	}

	var series []models.SalesPoint
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		series = append(series, models.SalesPoint{Date: key, Quantity: byDay[key]})
	}
	return series
}
