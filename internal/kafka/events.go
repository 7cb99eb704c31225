package kafka

import (
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/google/uuid"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingCanceled  = "booking_canceled"
	EventBookingCheckedIn = "booking_checked_in"
	EventFlightStatus     = "flight_status_changed"
)

type BookingEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	PNR           string    `json:"pnr"`
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username"`
	FlightID      int64     `json:"flight_id"`
	Route         string    `json:"route"`
	Seats         []string  `json:"seats"`
	FareClass     string    `json:"fare_class"`
	TotalCents    int64     `json:"total_cents"`
	PaymentMethod string    `json:"payment_method"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking) BookingEvent {
	return BookingEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		PNR:           b.PNR,
		UserID:        b.UserID,
		Username:      b.Username,
		FlightID:      b.Flight.ID,
		Route:         b.Flight.Route,
		Seats:         append([]string(nil), b.Seats...),
		FareClass:     string(b.Fare.Class),
		TotalCents:    b.TotalCents,
		PaymentMethod: b.PaymentMethod,
		OccurredAt:    time.Now().UTC(),
	}
}

type FlightStatusEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	FlightID   int64     `json:"flight_id"`
	Route      string    `json:"route"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewFlightStatusEvent(f *domain.Flight, from domain.FlightStatus, actor string) FlightStatusEvent {
	return FlightStatusEvent{
		ID:         uuid.NewString(),
		Type:       EventFlightStatus,
		FlightID:   f.ID,
		Route:      f.Route,
		From:       string(from),
		To:         string(f.Status),
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

// Notification is what the worker publishes for downstream delivery channels.
type Notification struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
