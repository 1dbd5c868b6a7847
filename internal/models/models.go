package models

import "time"

// Payment methods
const (
	PaymentMethodPix  = "PIX"
	PaymentMethodCard = "CARD"
)

// ValidPaymentMethod reports whether m is a supported payment method.
func ValidPaymentMethod(m string) bool {
	return m == PaymentMethodPix || m == PaymentMethodCard
}

// Event represents a ticketed event. Capacity is fixed by the organizer and
// never decremented by purchases; remaining inventory is always derived as
// capacity minus the count of issued tickets.
type Event struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Location    string    `db:"location" json:"location"`
	Description string    `db:"description" json:"description,omitempty"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	UnitPrice   int64     `db:"unit_price" json:"unit_price"` // minor currency units (cents)
	Capacity    int       `db:"capacity" json:"capacity"`
	Active      bool      `db:"active" json:"active"`
	OrganizerID int64     `db:"organizer_id" json:"organizer_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// EventSummary is an Event enriched with the derived sold count.
type EventSummary struct {
	Event
	TicketsSold int `json:"tickets_sold"`
}

// Customer is the buyer identity. Its CRUD is owned by another service; the
// purchase flow only references it.
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Payment is one purchase transaction covering one or more tickets. Created
// once, immutable afterward. The buyer fields are a snapshot taken at
// purchase time so receipts stay valid even if the customer profile changes.
type Payment struct {
	ID            int64     `db:"id" json:"id"`
	ReferenceCode string    `db:"reference_code" json:"reference_code"`
	Quantity      int       `db:"quantity" json:"quantity"`
	TotalAmount   float64   `db:"total_amount" json:"total_amount"` // decimal currency value
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	BuyerName     string    `db:"buyer_name" json:"buyer_name"`
	BuyerEmail    string    `db:"buyer_email" json:"buyer_email"`
	BuyerTaxID    string    `db:"buyer_tax_id" json:"buyer_tax_id"`
	CustomerID    int64     `db:"customer_id" json:"customer_id"`
	EventID       int64     `db:"event_id" json:"event_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Ticket is one individually redeemable admission unit. Quantity is always 1:
// each row is exactly one physical ticket, the requested count lives on the
// parent payment. Buyer fields are the same snapshot carried by the payment.
type Ticket struct {
	ID            int64     `db:"id" json:"id"`
	Code          string    `db:"code" json:"code"`
	Quantity      int       `db:"quantity" json:"quantity"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	BuyerName     string    `db:"buyer_name" json:"buyer_name"`
	BuyerEmail    string    `db:"buyer_email" json:"buyer_email"`
	BuyerTaxID    string    `db:"buyer_tax_id" json:"buyer_tax_id"`
	CustomerID    int64     `db:"customer_id" json:"customer_id"`
	EventID       int64     `db:"event_id" json:"event_id"`
	PaymentID     int64     `db:"payment_id" json:"payment_id"`
	PurchasedAt   time.Time `db:"purchased_at" json:"purchased_at"`
}

// TicketDetail is a Ticket with its event attached, as returned by the
// verify-by-code and owner lookups.
type TicketDetail struct {
	Ticket
	Event EventSummary `json:"event"`
}

// PaymentWithTickets groups a payment with the tickets it created.
type PaymentWithTickets struct {
	Payment
	Tickets []Ticket `json:"tickets"`
}

// SalesPoint is one day of ticket sales for the dashboard series.
type SalesPoint struct {
	Date     string `db:"date" json:"date"`
	Quantity int    `db:"quantity" json:"quantity"`
}

// DashboardStats aggregates an organizer's sales figures.
type DashboardStats struct {
	TotalEvents   int          `json:"total_events"`
	ActiveEvents  int          `json:"active_events"`
	TicketsSold   int          `json:"tickets_sold"`
	TotalRevenue  int64        `json:"total_revenue"` // minor currency units
	SalesOverTime []SalesPoint `json:"sales_over_time"`
}

// ProcessedEvent records a consumed broker message for idempotency.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
