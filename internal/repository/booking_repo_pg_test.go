package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewBookingRepository(pool)
	assert.NotNil(t, repo)
}

func TestSchemaIsEmbedded(t *testing.T) {
	for _, table := range []string{"users", "flights", "bookings", "reserved_seats", "audit_log"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	for name := range constraintErrors {
		assert.Contains(t, schema, name)
	}
}

func TestMapWriteErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"seat taken", &pgconn.PgError{Code: "23505", ConstraintName: "reserved_seats_flight_seat_key"}, domain.ErrSeatConflict},
		{"pnr taken", &pgconn.PgError{Code: "23505", ConstraintName: "bookings_pnr_key"}, domain.ErrDuplicatePNR},
		{"username taken", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, domain.ErrDuplicateUsername},
		{"unknown flight", &pgconn.PgError{Code: "23503", ConstraintName: "reserved_seats_flight_id_fkey"}, domain.ErrFlightNotFound},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "bookings_pnr_key"}), domain.ErrDuplicatePNR},
		{"other constraint", &pgconn.PgError{Code: "23505", ConstraintName: "something_else"}, domain.ErrPersistence},
		{"check violation", &pgconn.PgError{Code: "23514", ConstraintName: "bookings_pnr_key"}, domain.ErrPersistence},
		{"connection", errors.New("connection refused"), domain.ErrPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapWriteErr("op", tt.err), tt.want)
		})
	}
	assert.NoError(t, mapWriteErr("op", nil))
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := persistence("list flights", cause)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "list flights")
}

func TestBookingFromRow(t *testing.T) {
	now := time.Now()
	row := BookingRow{
		ID:             7,
		PNR:            "AB12CD",
		UserID:         3,
		Username:       "alice",
		FareClass:      "Business Class",
		FareMultiplier: 2.0,
		TotalCents:     1400000,
		Persons:        2,
		PaymentMethod:  "GCash",
		CreatedAt:      now,
		Flight: FlightRow{
			ID: 1, Route: "MNL → CEB", Region: "LOCAL", BaseFareCents: 350000, TotalSeats: 60, Status: "ON_TIME", UpdatedAt: now,
		},
	}

	b, err := BookingFromRow(row, []string{"2B", "1A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1A", "2B"}, b.Seats)
	assert.Equal(t, domain.FareBusiness, b.Fare.Class)
	assert.Equal(t, 20, b.Fare.MultiplierTenths)
	assert.Equal(t, "MNL → CEB", b.Flight.Route)
	assert.Equal(t, domain.RegionLocal, b.Flight.Region)
	assert.Equal(t, 140, b.PointsEarned())
}

func TestBookingFromRowKeepsStoredMultiplier(t *testing.T) {
	row := BookingRow{
		PNR: "ZZ99ZZ", FareClass: "Economy Plus (x1.5)", FareMultiplier: 1.4,
		Flight: FlightRow{Route: "MNL → NRT", Region: "INTERNATIONAL", Status: "DELAYED"},
	}
	b, err := BookingFromRow(row, nil)
	require.NoError(t, err)
	assert.Equal(t, 14, b.Fare.MultiplierTenths)
	assert.Empty(t, b.Seats)
}

func TestBookingFromRowRejectsUnknownValues(t *testing.T) {
	_, err := BookingFromRow(BookingRow{FareClass: "Cargo", Flight: FlightRow{Region: "LOCAL", Status: "ON_TIME"}}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidFareClass)

	_, err = BookingFromRow(BookingRow{FareClass: "Economy", Flight: FlightRow{Region: "LOCAL", Status: "BOARDING"}}, nil)
	assert.Error(t, err)
}

func TestFlightFromRow(t *testing.T) {
	f, err := FlightFromRow(FlightRow{ID: 2, Route: "MNL → DVO", Region: "LOCAL", Status: "CANCELED"}, []string{"1A"})
	require.NoError(t, err)
	assert.False(t, f.Bookable())
	assert.True(t, f.Occupied.Contains("1A"))

	_, err = FlightFromRow(FlightRow{ID: 3, Region: "MARS", Status: "ON_TIME"}, nil)
	assert.Error(t, err)
}

func TestUserFromRow(t *testing.T) {
	u, err := UserFromRow(UserRow{ID: 1, Username: "admin", Role: "ADMIN"}, []string{"AAAAAA"})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, []string{"AAAAAA"}, u.BookingPNRs)

	_, err = UserFromRow(UserRow{ID: 2, Role: "PILOT"}, nil)
	assert.Error(t, err)
}

func TestAuditFromRow(t *testing.T) {
	bob := "bob"
	empty := ""
	assert.Equal(t, "bob", AuditFromRow(AuditRow{Username: &bob}).Actor)
	assert.Equal(t, domain.SystemActor, AuditFromRow(AuditRow{}).Actor)
	assert.Equal(t, domain.SystemActor, AuditFromRow(AuditRow{Username: &empty}).Actor)
}
