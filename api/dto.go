package api

import (
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
)

type flightResponse struct {
	ID            int64    `json:"id"`
	Route         string   `json:"route"`
	Region        string   `json:"region"`
	BaseFareCents int64    `json:"base_fare_cents"`
	BaseFare      string   `json:"base_fare"`
	TotalSeats    int      `json:"total_seats"`
	Status        string   `json:"status"`
	OccupiedSeats []string `json:"occupied_seats,omitempty"`
}

func newFlightResponse(f domain.Flight) flightResponse {
	resp := flightResponse{
		ID:            f.ID,
		Route:         f.Route,
		Region:        string(f.Region),
		BaseFareCents: f.BaseFareCents,
		BaseFare:      domain.FormatCents(f.BaseFareCents),
		TotalSeats:    f.TotalSeats,
		Status:        string(f.Status),
	}
	if len(f.Occupied) > 0 {
		resp.OccupiedSeats = f.Occupied.Sorted()
	}
	return resp
}

func newFlightsResponse(flights []domain.Flight) []flightResponse {
	out := make([]flightResponse, 0, len(flights))
	for _, f := range flights {
		out = append(out, newFlightResponse(f))
	}
	return out
}

type bookingResponse struct {
	PNR           string    `json:"pnr"`
	Username      string    `json:"username"`
	FlightID      int64     `json:"flight_id"`
	Route         string    `json:"route"`
	FlightStatus  string    `json:"flight_status"`
	FareClass     string    `json:"fare_class"`
	Seats         []string  `json:"seats"`
	Persons       int       `json:"persons"`
	TotalCents    int64     `json:"total_cents"`
	Total         string    `json:"total"`
	PointsEarned  int       `json:"points_earned"`
	PaymentMethod string    `json:"payment_method"`
	CheckedIn     bool      `json:"checked_in"`
	CreatedAt     time.Time `json:"created_at"`
}

func newBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		PNR:           b.PNR,
		Username:      b.Username,
		FlightID:      b.Flight.ID,
		Route:         b.Flight.Route,
		FlightStatus:  string(b.Flight.Status),
		FareClass:     b.Fare.Label(),
		Seats:         b.Seats,
		Persons:       b.Persons,
		TotalCents:    b.TotalCents,
		Total:         domain.FormatCents(b.TotalCents),
		PointsEarned:  b.PointsEarned(),
		PaymentMethod: b.PaymentMethod,
		CheckedIn:     b.CheckedIn,
		CreatedAt:     b.CreatedAt,
	}
}

type userResponse struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	Role          string   `json:"role"`
	LoyaltyPoints int      `json:"loyalty_points"`
	Bookings      []string `json:"bookings"`
}

func newUserResponse(u *domain.User) userResponse {
	pnrs := u.BookingPNRs
	if pnrs == nil {
		pnrs = []string{}
	}
	return userResponse{
		ID:            u.ID,
		Username:      u.Username,
		Role:          string(u.Role),
		LoyaltyPoints: u.LoyaltyPoints,
		Bookings:      pnrs,
	}
}

type auditResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Message   string    `json:"message"`
}

type statsResponse struct {
	TotalBookings    int     `json:"total_bookings"`
	RevenueCents     int64   `json:"revenue_cents"`
	Revenue          string  `json:"revenue"`
	OccupancyPercent float64 `json:"occupancy_percent"`
	CheckedIn        int     `json:"checked_in"`
}
