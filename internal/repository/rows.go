package repository

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
)

// Rows are scanned flat and turned into domain values by the pure functions below,
// so the mapping can be tested without a database.

type UserRow struct {
	ID            int64
	Username      string
	PasswordHash  string
	Role          string
	LoyaltyPoints int
	CreatedAt     time.Time
}

func UserFromRow(r UserRow, pnrs []string) (domain.User, error) {
	role := domain.Role(r.Role)
	if role != domain.RoleAdmin && role != domain.RoleCustomer {
		return domain.User{}, fmt.Errorf("user %d: unknown role %q", r.ID, r.Role)
	}
	return domain.User{
		ID:            r.ID,
		Username:      r.Username,
		PasswordHash:  r.PasswordHash,
		Role:          role,
		LoyaltyPoints: r.LoyaltyPoints,
		BookingPNRs:   pnrs,
		CreatedAt:     r.CreatedAt,
	}, nil
}

type FlightRow struct {
	ID            int64
	Route         string
	Region        string
	BaseFareCents int64
	TotalSeats    int
	Status        string
	UpdatedAt     time.Time
}

func FlightFromRow(r FlightRow, occupied []string) (domain.Flight, error) {
	status := domain.FlightStatus(r.Status)
	if !status.Valid() {
		return domain.Flight{}, fmt.Errorf("flight %d: unknown status %q", r.ID, r.Status)
	}
	region, ok := domain.ParseRegion(r.Region)
	if !ok || region == "" {
		return domain.Flight{}, fmt.Errorf("flight %d: unknown region %q", r.ID, r.Region)
	}
	return domain.Flight{
		ID:            r.ID,
		Route:         r.Route,
		Region:        region,
		BaseFareCents: r.BaseFareCents,
		TotalSeats:    r.TotalSeats,
		Status:        status,
		Occupied:      domain.NewSeatSet(occupied...),
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

type BookingRow struct {
	ID             int64
	PNR            string
	UserID         int64
	Username       string
	FareClass      string
	FareMultiplier float64
	TotalCents     int64
	Persons        int
	PaymentMethod  string
	CheckedIn      bool
	CreatedAt      time.Time
	Flight         FlightRow
}

func BookingFromRow(r BookingRow, seats []string) (domain.Booking, error) {
	flight, err := FlightFromRow(r.Flight, nil)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("booking %s: %w", r.PNR, err)
	}
	fare, err := domain.ParseFareClass(r.FareClass)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("booking %s: %w", r.PNR, err)
	}
	// the stored multiplier is the one the customer paid, keep it over the current table
	fare.MultiplierTenths = int(math.Round(r.FareMultiplier * 10))

	sorted := append([]string(nil), seats...)
	sort.Strings(sorted)
	return domain.Booking{
		ID:            r.ID,
		PNR:           r.PNR,
		UserID:        r.UserID,
		Username:      r.Username,
		Flight:        flight,
		Fare:          fare,
		TotalCents:    r.TotalCents,
		Seats:         sorted,
		Persons:       r.Persons,
		PaymentMethod: r.PaymentMethod,
		CheckedIn:     r.CheckedIn,
		CreatedAt:     r.CreatedAt,
	}, nil
}

type AuditRow struct {
	ID       int64
	LoggedAt time.Time
	Message  string
	Username *string
}

func AuditFromRow(r AuditRow) domain.AuditEntry {
	actor := domain.SystemActor
	if r.Username != nil && *r.Username != "" {
		actor = *r.Username
	}
	return domain.AuditEntry{ID: r.ID, Timestamp: r.LoggedAt, Message: r.Message, Actor: actor}
}
