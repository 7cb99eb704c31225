package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository/memory"
	"github.com/Domenick1991/airreservation/internal/service/audit"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type world struct {
	store   *memory.Store
	service *BookingService
	audit   *audit.AuditService
	flight  domain.Flight
	alice   *domain.User
	bob     *domain.User
}

func newWorld(t *testing.T, opts ...BookingServiceOption) *world {
	t.Helper()
	log, _ := test.NewNullLogger()
	store := memory.NewStore()
	ctx := context.Background()

	w := &world{store: store}
	w.flight = store.AddFlight(domain.Flight{
		Route: "MNL → CEB", Region: domain.RegionLocal, BaseFareCents: 350000, TotalSeats: 60,
	})
	w.alice = &domain.User{Username: "alice", PasswordHash: "x", Role: domain.RoleCustomer}
	w.bob = &domain.User{Username: "bob", PasswordHash: "x", Role: domain.RoleCustomer}
	require.NoError(t, store.Users().Create(ctx, w.alice))
	require.NoError(t, store.Users().Create(ctx, w.bob))

	w.audit = audit.NewAuditService(store.Audit(), store.Audit(), log)
	w.service = NewBookingService(store.Bookings(), store.Flights(), store.Users(), w.audit, log, opts...)
	return w
}

func (w *world) book(user *domain.User, fare string, seats ...string) (*domain.Booking, error) {
	return w.service.CreateBooking(context.Background(), CreateBookingInput{
		UserID:        user.ID,
		FlightID:      w.flight.ID,
		FareClass:     fare,
		Seats:         seats,
		Persons:       len(seats),
		PaymentMethod: "GCash",
	})
}

func (w *world) occupied(t *testing.T) []string {
	t.Helper()
	occ, err := w.store.Seats().Occupied(context.Background(), w.flight.ID)
	require.NoError(t, err)
	return occ.Sorted()
}

func (w *world) points(t *testing.T, user *domain.User) int {
	t.Helper()
	u, err := w.store.Users().GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	return u.LoyaltyPoints
}

func TestBookingLifecycle(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	b, err := w.book(w.alice, "Business Class (x2.0)", "1A", "1B")
	require.NoError(t, err)
	assert.EqualValues(t, 1400000, b.TotalCents)
	assert.Equal(t, "14000.00", domain.FormatCents(b.TotalCents))
	assert.Equal(t, 140, w.points(t, w.alice))
	assert.Equal(t, []string{"1A", "1B"}, w.occupied(t))

	entries, err := w.audit.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Booking completed. PNR: "+b.PNR+", User: alice, Flight: MNL → CEB, Amount: 14000.00, Payment: GCash", entries[0].Message)
	assert.Equal(t, "alice", entries[0].Actor)

	_, err = w.book(w.bob, "Economy", "1A")
	assert.ErrorIs(t, err, domain.ErrSeatConflict)
	assert.Zero(t, w.points(t, w.bob))

	assert.ErrorIs(t, w.service.CancelBooking(ctx, b.PNR, w.bob.ID), domain.ErrNotOwner)

	checked, err := w.service.CheckIn(ctx, b.PNR, w.alice.ID)
	require.NoError(t, err)
	assert.True(t, checked.CheckedIn)
	_, err = w.service.CheckIn(ctx, b.PNR, w.alice.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCheckedIn)

	pass, err := w.service.BoardingPass(ctx, b.PNR, w.alice.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pass)

	require.NoError(t, w.service.CancelBooking(ctx, b.PNR, w.alice.ID))
	assert.Empty(t, w.occupied(t))
	assert.Equal(t, 140, w.points(t, w.alice), "points stay credited after a cancel")
	_, err = w.service.GetBooking(ctx, b.PNR)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = w.book(w.bob, "Economy", "1A")
	assert.NoError(t, err, "released seats are bookable again")
}

func TestListBookingsNewestFirst(t *testing.T) {
	w := newWorld(t)
	first, err := w.book(w.alice, "Economy", "1A")
	require.NoError(t, err)
	second, err := w.book(w.alice, "Economy", "2A")
	require.NoError(t, err)
	_, err = w.book(w.bob, "Economy", "3A")
	require.NoError(t, err)

	list, err := w.service.ListBookings(context.Background(), w.alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.PNR, list[0].PNR)
	assert.Equal(t, first.PNR, list[1].PNR)
}

func TestPNRsStayUniqueAcrossCollisions(t *testing.T) {
	const (
		bookings  = 10000
		perFlight = 100
	)
	w := newWorld(t, WithPNRGenerator(domain.NewPNRGenerator(rand.New(rand.NewSource(42)))))
	layout := domain.DefaultSeatLayout()
	ctx := context.Background()

	flights := make([]domain.Flight, bookings/perFlight)
	for i := range flights {
		flights[i] = w.store.AddFlight(domain.Flight{
			Route: fmt.Sprintf("MNL → X%03d", i), Region: domain.RegionInternational, BaseFareCents: 100, TotalSeats: perFlight,
		})
	}

	seen := make(map[string]struct{}, bookings)
	for i := 0; i < bookings; i++ {
		n := i % perFlight
		b, err := w.service.CreateBooking(ctx, CreateBookingInput{
			UserID: w.alice.ID, FlightID: flights[i/perFlight].ID, FareClass: "Economy",
			Seats: []string{layout.SeatID(n/layout.SeatsPerRow+1, n%layout.SeatsPerRow)}, Persons: 1, PaymentMethod: "Maya",
		})
		require.NoError(t, err)
		_, dup := seen[b.PNR]
		require.False(t, dup, "pnr %s issued twice", b.PNR)
		seen[b.PNR] = struct{}{}

		// a canceled booking keeps its PNR reserved
		if i%100 == 0 {
			require.NoError(t, w.service.CancelBooking(ctx, b.PNR, w.alice.ID))
		}
	}

	// a generator with the same seed replays every issued PNR first
	replay := NewBookingService(w.store.Bookings(), w.store.Flights(), w.store.Users(), w.audit, w.service.log,
		WithPNRGenerator(domain.NewPNRGenerator(rand.New(rand.NewSource(42)))),
		WithMaxPNRAttempts(bookings+100))
	b, err := replay.CreateBooking(ctx, CreateBookingInput{
		UserID: w.alice.ID, FlightID: w.flight.ID, FareClass: "Economy",
		Seats: []string{"9F"}, Persons: 1, PaymentMethod: "Maya",
	})
	require.NoError(t, err)
	_, dup := seen[b.PNR]
	assert.False(t, dup)
}

func TestConcurrentBookingsOfOneSeat(t *testing.T) {
	w := newWorld(t)
	const contenders = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < contenders; i++ {
		user := w.alice
		if i%2 == 1 {
			user = w.bob
		}
		wg.Add(1)
		go func(user *domain.User) {
			defer wg.Done()
			_, err := w.book(user, "Economy", "5C")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrSeatConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(user)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, contenders-1, conflicts)
	assert.Equal(t, []string{"5C"}, w.occupied(t))
}

func TestFailedBookingWritesNothing(t *testing.T) {
	w := newWorld(t, WithPNRGenerator(domain.NewPNRGenerator(rand.New(rand.NewSource(3)))))
	w.store.SetFault(func(step string) error {
		if step == memory.StepCreditPoints {
			return errors.New("connection reset")
		}
		return nil
	})

	_, err := w.book(w.alice, "First Class", "1A", "1B", "1C")
	assert.ErrorIs(t, err, domain.ErrPersistence)

	assert.Empty(t, w.occupied(t))
	assert.Zero(t, w.points(t, w.alice))
	list, err := w.service.ListBookings(context.Background(), w.alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	attempted := domain.NewPNRGenerator(rand.New(rand.NewSource(3))).Next()
	exists, err := w.store.Bookings().PNRExists(context.Background(), attempted)
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := w.audit.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPriceIsDeterministic(t *testing.T) {
	w := newWorld(t)
	flight := &domain.Flight{BaseFareCents: 500000}
	for i := 0; i < 50; i++ {
		price, err := w.service.PriceItinerary(flight, "Business Class", 3)
		require.NoError(t, err)
		require.EqualValues(t, 3000000, price)
	}
}

func TestFlightStatusGatesBooking(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	require.NoError(t, w.store.Flights().UpdateStatus(ctx, w.flight.ID, domain.FlightStatusDelayed))
	b, err := w.book(w.alice, "Economy", "1A")
	require.NoError(t, err)

	require.NoError(t, w.store.Flights().UpdateStatus(ctx, w.flight.ID, domain.FlightStatusCanceled))
	_, err = w.book(w.alice, "Economy", "2A")
	assert.ErrorIs(t, err, domain.ErrFlightUnavailable)
	_, err = w.service.CheckIn(ctx, b.PNR, w.alice.ID)
	assert.ErrorIs(t, err, domain.ErrFlightUnavailable)
}

func TestConcurrentCheckInFlipsOnce(t *testing.T) {
	w := newWorld(t)
	b, err := w.book(w.alice, "Economy", "1A")
	require.NoError(t, err)

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.service.CheckIn(context.Background(), b.PNR, w.alice.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, already int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrAlreadyCheckedIn):
			already++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, already)

	entries, err := w.audit.Recent(context.Background(), 0)
	require.NoError(t, err)
	var checkIns int
	for _, e := range entries {
		if e.Message == "Checked in for PNR: "+b.PNR+", User: alice" {
			checkIns++
		}
	}
	assert.Equal(t, 1, checkIns)
}

func TestCanceledContextDuringPaymentWritesNothing(t *testing.T) {
	w := newWorld(t, WithPaymentDelay(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.service.CreateBooking(ctx, CreateBookingInput{
		UserID: w.alice.ID, FlightID: w.flight.ID, FareClass: "Economy",
		Seats: []string{"1A"}, Persons: 1, PaymentMethod: "PayPal",
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, w.occupied(t))
	assert.Zero(t, w.points(t, w.alice))
}

type unreachableAuditor struct{}

func (unreachableAuditor) Record(context.Context, string, string) error {
	return errors.New("audit store unreachable")
}

func TestCanceledPNRStaysTakenWhenAuditIsDown(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	seeded := func() BookingServiceOption {
		return WithPNRGenerator(domain.NewPNRGenerator(rand.New(rand.NewSource(7))))
	}

	first := NewBookingService(w.store.Bookings(), w.store.Flights(), w.store.Users(), unreachableAuditor{}, w.service.log, seeded())
	input := CreateBookingInput{
		UserID: w.alice.ID, FlightID: w.flight.ID, FareClass: "Economy",
		Seats: []string{"1A"}, Persons: 1, PaymentMethod: "GCash",
	}
	b, err := first.CreateBooking(ctx, input)
	require.NoError(t, err)
	require.NoError(t, first.CancelBooking(ctx, b.PNR, w.alice.ID))

	exists, err := w.store.Bookings().PNRExists(ctx, b.PNR)
	require.NoError(t, err)
	assert.True(t, exists)

	second := NewBookingService(w.store.Bookings(), w.store.Flights(), w.store.Users(), unreachableAuditor{}, w.service.log, seeded())
	again, err := second.CreateBooking(ctx, input)
	require.NoError(t, err)
	assert.NotEqual(t, b.PNR, again.PNR)
}

func TestFailedCompletionRecordRollsBackBooking(t *testing.T) {
	w := newWorld(t)
	w.store.SetFault(func(step string) error {
		if step == memory.StepRecordBooking {
			return errors.New("disk full")
		}
		return nil
	})

	_, err := w.book(w.alice, "Economy", "1A")
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, w.occupied(t))
	assert.Zero(t, w.points(t, w.alice))

	entries, err := w.audit.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
