package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	SystemActor     = "System"
	MaxAuditEntries = 200
)

type AuditEntry struct {
	ID        int64
	Timestamp time.Time
	Message   string
	Actor     string
}

type Stats struct {
	TotalBookings    int
	RevenueCents     int64
	OccupancyPercent float64
	CheckedIn        int
}

// Occupancy returns booked / capacity * 100, or 0 when there is no capacity.
func Occupancy(bookedSeats, capacity int64) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(bookedSeats) / float64(capacity) * 100
}

type WeatherReport struct {
	Route              string    `json:"route"`
	Departure          string    `json:"departure"`
	Arrival            string    `json:"arrival"`
	DepartureCondition string    `json:"departure_condition"`
	ArrivalCondition   string    `json:"arrival_condition"`
	GeneratedAt        time.Time `json:"generated_at"`
}

const bookingCompletedPrefix = "Booking completed. PNR: "

// BookingCompletedMessage is the audit line written when a booking commits. Its prefix
// is also how historical PNRs of canceled bookings are found.
func BookingCompletedMessage(b *Booking) string {
	return fmt.Sprintf("%s%s, User: %s, Flight: %s, Amount: %s, Payment: %s",
		bookingCompletedPrefix, b.PNR, b.Username, b.Flight.Route, FormatCents(b.TotalCents), b.PaymentMethod)
}

// BookingCompletedPattern is a SQL LIKE pattern matching the audit line for pnr.
func BookingCompletedPattern(pnr string) string {
	return bookingCompletedPrefix + pnr + ",%"
}

// BookingCompletedPNR extracts the PNR from a booking completion line.
func BookingCompletedPNR(message string) (string, bool) {
	rest, ok := strings.CutPrefix(message, bookingCompletedPrefix)
	if !ok {
		return "", false
	}
	pnr, _, ok := strings.Cut(rest, ",")
	if !ok || !ValidPNR(pnr) {
		return "", false
	}
	return pnr, true
}
