package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*Store, domain.Flight, *domain.User) {
	t.Helper()
	s := NewStore()
	f := s.AddFlight(domain.Flight{Route: "MNL → CEB", Region: domain.RegionLocal, BaseFareCents: 350000, TotalSeats: 60})
	u := &domain.User{Username: "alice", PasswordHash: "x", Role: domain.RoleCustomer}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return s, f, u
}

func booking(pnr string, f domain.Flight, u *domain.User, seats ...string) *domain.Booking {
	fare, _ := domain.ParseFareClass("Economy")
	return &domain.Booking{
		PNR:           pnr,
		UserID:        u.ID,
		Flight:        f,
		Fare:          fare,
		TotalCents:    domain.PriceCents(f.BaseFareCents, fare, len(seats)),
		Seats:         seats,
		Persons:       len(seats),
		PaymentMethod: "GCash",
	}
}

func TestAddFlightIsIdempotentPerRoute(t *testing.T) {
	s := NewStore()
	a := s.AddFlight(domain.Flight{Route: "MNL → CEB", Region: domain.RegionLocal, TotalSeats: 60})
	b := s.AddFlight(domain.Flight{Route: "MNL → CEB", Region: domain.RegionLocal, TotalSeats: 10})
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, 60, b.TotalSeats)
	assert.Equal(t, domain.FlightStatusOnTime, a.Status)
}

func TestUsersDuplicateUsername(t *testing.T) {
	s, _, _ := seed(t)
	err := s.Users().Create(context.Background(), &domain.User{Username: "alice", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

	_, err = s.Users().GetByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestFlightsListFiltersAndSorts(t *testing.T) {
	s := NewStore()
	s.AddFlight(domain.Flight{Route: "MNL → NRT", Region: domain.RegionInternational, TotalSeats: 10})
	s.AddFlight(domain.Flight{Route: "MNL → DVO", Region: domain.RegionLocal, TotalSeats: 10})
	s.AddFlight(domain.Flight{Route: "MNL → CEB", Region: domain.RegionLocal, TotalSeats: 10})

	all, err := s.Flights().List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "MNL → CEB", all[0].Route)

	local, err := s.Flights().List(context.Background(), domain.RegionLocal)
	require.NoError(t, err)
	assert.Len(t, local, 2)
}

func TestCreateBookingWritesEverything(t *testing.T) {
	s, f, u := seed(t)
	ctx := context.Background()
	b := booking("AAAAAA", f, u, "1A", "1B")

	require.NoError(t, s.Bookings().Create(ctx, b))
	assert.NotZero(t, b.ID)

	occ, err := s.Seats().Occupied(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1A", "1B"}, occ.Sorted())

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, b.PointsEarned(), got.LoyaltyPoints)
	assert.Equal(t, []string{"AAAAAA"}, got.BookingPNRs)

	loaded, err := s.Bookings().GetByPNR(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Username)
	assert.Equal(t, f.Route, loaded.Flight.Route)
}

func TestCreateBookingConflictsLeaveNoTrace(t *testing.T) {
	s, f, u := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Bookings().Create(ctx, booking("AAAAAA", f, u, "1A")))

	err := s.Bookings().Create(ctx, booking("BBBBBB", f, u, "1B", "1A"))
	assert.ErrorIs(t, err, domain.ErrSeatConflict)

	err = s.Bookings().Create(ctx, booking("AAAAAA", f, u, "2A"))
	assert.ErrorIs(t, err, domain.ErrDuplicatePNR)

	occ, _ := s.Seats().Occupied(ctx, f.ID)
	assert.Equal(t, []string{"1A"}, occ.Sorted())
	_, err = s.Bookings().GetByPNR(ctx, "BBBBBB")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestCreateBookingFaultRollsBack(t *testing.T) {
	for _, step := range []string{StepInsertBooking, StepReserveSeats, StepCreditPoints, StepRecordBooking} {
		t.Run(step, func(t *testing.T) {
			s, f, u := seed(t)
			ctx := context.Background()
			s.SetFault(func(name string) error {
				if name == step {
					return errors.New("disk full")
				}
				return nil
			})

			err := s.Bookings().Create(ctx, booking("CCCCCC", f, u, "3C"))
			assert.ErrorIs(t, err, domain.ErrPersistence)

			occ, _ := s.Seats().Occupied(ctx, f.ID)
			assert.Empty(t, occ)
			got, _ := s.Users().GetByID(ctx, u.ID)
			assert.Zero(t, got.LoyaltyPoints)
			exists, _ := s.Bookings().PNRExists(ctx, "CCCCCC")
			assert.False(t, exists)
		})
	}
}

func TestCreateBookingOnCanceledFlight(t *testing.T) {
	s, f, u := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Flights().UpdateStatus(ctx, f.ID, domain.FlightStatusCanceled))

	err := s.Bookings().Create(ctx, booking("DDDDDD", f, u, "1A"))
	assert.ErrorIs(t, err, domain.ErrFlightUnavailable)
}

func TestDeleteChecksOwnerAndReleasesSeats(t *testing.T) {
	s, f, u := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Bookings().Create(ctx, booking("EEEEEE", f, u, "4D", "4E")))

	_, err := s.Bookings().Delete(ctx, "EEEEEE", u.ID+100)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	released, err := s.Bookings().Delete(ctx, "EEEEEE", u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"4D", "4E"}, released)

	_, err = s.Bookings().Delete(ctx, "EEEEEE", u.ID)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	got, _ := s.Users().GetByID(ctx, u.ID)
	assert.Equal(t, domain.LoyaltyPoints(domain.PriceCents(f.BaseFareCents, domain.Fare{Class: domain.FareEconomy, MultiplierTenths: 10}, 2)), got.LoyaltyPoints)
}

func TestMarkCheckedInFlipsOnce(t *testing.T) {
	s, f, u := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Bookings().Create(ctx, booking("FFFFFF", f, u, "1A")))

	changed, err := s.Bookings().MarkCheckedIn(ctx, "FFFFFF")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Bookings().MarkCheckedIn(ctx, "FFFFFF")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = s.Bookings().MarkCheckedIn(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestPNRExistsSeesCanceledBookings(t *testing.T) {
	s, f, u := seed(t)
	ctx := context.Background()
	b := booking("GGGGGG", f, u, "1A")
	require.NoError(t, s.Bookings().Create(ctx, b))
	assert.Equal(t, "alice", b.Username)

	entries, err := s.Audit().Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.BookingCompletedMessage(b), entries[0].Message)
	assert.Equal(t, "alice", entries[0].Actor)

	_, err = s.Bookings().Delete(ctx, "GGGGGG", u.ID)
	require.NoError(t, err)

	exists, err := s.Bookings().PNRExists(ctx, "GGGGGG")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Bookings().PNRExists(ctx, "GGGGG1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHoldAndRelease(t *testing.T) {
	s, f, u := seed(t)
	ctx := context.Background()
	require.NoError(t, s.Bookings().Create(ctx, booking("HHHHHH", f, u, "1A")))

	assert.ErrorIs(t, s.Seats().Hold(ctx, f.ID, []string{"2A", "1A"}), domain.ErrSeatConflict)
	require.NoError(t, s.Seats().Hold(ctx, f.ID, []string{"2A", "2B"}))

	n, err := s.Seats().ReleaseHold(ctx, f.ID, []string{"2A", "1A", "9F"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Seats().ReleaseHold(ctx, f.ID, []string{"2A"})
	require.NoError(t, err)
	assert.Zero(t, n)

	occ, _ := s.Seats().Occupied(ctx, f.ID)
	assert.Equal(t, []string{"1A", "2B"}, occ.Sorted())
}

func TestAuditRecentAndStats(t *testing.T) {
	s, f, u := seed(t)
	ctx := context.Background()
	for i := 0; i < domain.MaxAuditEntries+5; i++ {
		require.NoError(t, s.Audit().Append(ctx, "tick", ""))
	}
	require.NoError(t, s.Audit().Append(ctx, "last", "alice"))

	entries, err := s.Audit().Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, domain.MaxAuditEntries)
	assert.Equal(t, "last", entries[0].Message)
	assert.Equal(t, "alice", entries[0].Actor)
	assert.Equal(t, domain.SystemActor, entries[1].Actor)

	require.NoError(t, s.Bookings().Create(ctx, booking("IIIIII", f, u, "1A", "1B", "1C")))
	_, err = s.Bookings().MarkCheckedIn(ctx, "IIIIII")
	require.NoError(t, err)

	st, err := s.Audit().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalBookings)
	assert.Equal(t, 1, st.CheckedIn)
	assert.EqualValues(t, 1050000, st.RevenueCents)
	assert.InDelta(t, 5.0, st.OccupancyPercent, 1e-9)
}

func TestListByUserNewestFirst(t *testing.T) {
	s, f, u := seed(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	for i, pnr := range []string{"OLD111", "MID222", "NEW333"} {
		at := base.Add(time.Duration(i) * time.Hour)
		s.SetClock(func() time.Time { return at })
		require.NoError(t, s.Bookings().Create(ctx, booking(pnr, f, u, fmt.Sprintf("%dA", i+1))))
	}

	list, err := s.Bookings().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "NEW333", list[0].PNR)
	assert.Equal(t, "OLD111", list[2].PNR)
	assert.True(t, list[0].CreatedAt.Equal(base.Add(2*time.Hour)))
}
