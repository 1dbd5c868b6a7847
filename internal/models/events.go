package models

import "time"

// Broker event types
const (
	EventTypeTicketsPurchased = "TICKETS_PURCHASED"
)

// BaseEvent contains common fields for all broker events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketsPurchasedEvent is published after a purchase transaction commits.
// It carries everything the analytics worker needs so consumers never have
// to read the database.
type TicketsPurchasedEvent struct {
	BaseEvent
	PaymentID     int64     `json:"payment_id"`
	ReferenceCode string    `json:"reference_code"`
	TicketEventID int64     `json:"ticket_event_id"`
	CustomerID    int64     `json:"customer_id"`
	Quantity      int       `json:"quantity"`
	TotalAmount   float64   `json:"total_amount"`
	TicketCodes   []string  `json:"ticket_codes"`
	PurchasedAt   time.Time `json:"purchased_at"`
}
