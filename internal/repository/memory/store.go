// Package memory keeps every repository in process memory. It backs the
// "memory" database driver and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository"
)

// Steps of a booking write that a fault hook can fail.
const (
	StepInsertBooking = "insert booking"
	StepReserveSeats  = "reserve seats"
	StepCreditPoints  = "credit loyalty points"
	StepRecordBooking = "record booking"
)

type Store struct {
	mu sync.Mutex

	nextID    int64
	users     map[int64]domain.User
	usernames map[string]int64
	flights   map[int64]domain.Flight
	routes    map[string]int64
	// seats maps flight id -> seat id -> owning booking id, 0 for an operator hold
	seats    map[int64]map[string]int64
	bookings map[string]domain.Booking
	audit    []domain.AuditEntry
	// issued holds every PNR ever committed, canceled ones included
	issued map[string]struct{}

	now   func() time.Time
	fault func(step string) error
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]domain.User),
		usernames: make(map[string]int64),
		flights:   make(map[int64]domain.Flight),
		routes:    make(map[string]int64),
		seats:     make(map[int64]map[string]int64),
		bookings:  make(map[string]domain.Booking),
		issued:    make(map[string]struct{}),
		now:       time.Now,
	}
}

// SetFault installs a hook consulted at each booking write step. A non-nil
// error aborts the booking and nothing it wrote is kept.
func (s *Store) SetFault(fault func(step string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = fault
}

// SetClock replaces the time source used for created and updated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddFlight registers a flight and returns it with its id. An existing route is returned unchanged.
func (s *Store) AddFlight(f domain.Flight) domain.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.routes[f.Route]; ok {
		return s.flightLocked(id)
	}
	f.ID = s.id()
	if f.Status == "" {
		f.Status = domain.FlightStatusOnTime
	}
	f.Occupied = nil
	f.UpdatedAt = s.now()
	s.flights[f.ID] = f
	s.routes[f.Route] = f.ID
	s.seats[f.ID] = make(map[string]int64)
	return s.flightLocked(f.ID)
}

func (s *Store) flightLocked(id int64) domain.Flight {
	f := s.flights[id]
	occupied := domain.NewSeatSet()
	for seat := range s.seats[id] {
		occupied[seat] = struct{}{}
	}
	f.Occupied = occupied
	return f
}

// Users

type UserRepository struct{ s *Store }

func (s *Store) Users() repository.UserRepository { return UserRepository{s} }

func (r UserRepository) Create(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usernames[user.Username]; ok {
		return domain.ErrDuplicateUsername
	}
	user.ID = s.id()
	user.CreatedAt = s.now()
	stored := *user
	stored.BookingPNRs = nil
	s.users[user.ID] = stored
	s.usernames[user.Username] = user.ID
	return nil
}

func (r UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usernames[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return s.userLocked(id), nil
}

func (r UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return nil, domain.ErrUserNotFound
	}
	return s.userLocked(id), nil
}

func (s *Store) userLocked(id int64) *domain.User {
	u := s.users[id]
	for _, b := range s.bookingsOfLocked(id) {
		u.BookingPNRs = append(u.BookingPNRs, b.PNR)
	}
	return &u
}

// Flights

type FlightRepository struct{ s *Store }

func (s *Store) Flights() repository.FlightRepository { return FlightRepository{s} }

func (r FlightRepository) List(_ context.Context, region domain.Region) ([]domain.Flight, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	flights := make([]domain.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		if region != "" && f.Region != region {
			continue
		}
		f.Occupied = nil
		flights = append(flights, f)
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].Route < flights[j].Route })
	return flights, nil
}

func (r FlightRepository) GetByID(_ context.Context, id int64) (*domain.Flight, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flights[id]; !ok {
		return nil, domain.ErrFlightNotFound
	}
	f := s.flightLocked(id)
	return &f, nil
}

func (r FlightRepository) GetByRoute(_ context.Context, route string) (*domain.Flight, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.routes[route]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	f := s.flightLocked(id)
	return &f, nil
}

func (r FlightRepository) UpdateStatus(_ context.Context, id int64, status domain.FlightStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[id]
	if !ok {
		return domain.ErrFlightNotFound
	}
	f.Status = status
	f.UpdatedAt = s.now()
	s.flights[id] = f
	return nil
}

// Seats

type SeatRepository struct{ s *Store }

func (s *Store) Seats() repository.SeatRepository { return SeatRepository{s} }

func (r SeatRepository) Occupied(_ context.Context, flightID int64) (domain.SeatSet, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flightLocked(flightID).Occupied, nil
}

func (r SeatRepository) Hold(_ context.Context, flightID int64, seats []string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	taken, ok := s.seats[flightID]
	if !ok {
		return domain.ErrFlightNotFound
	}
	if err := checkFree(taken, seats); err != nil {
		return err
	}
	for _, seat := range seats {
		taken[seat] = 0
	}
	return nil
}

func (r SeatRepository) ReleaseHold(_ context.Context, flightID int64, seats []string) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var released int64
	taken := s.seats[flightID]
	for _, seat := range seats {
		if owner, ok := taken[seat]; ok && owner == 0 {
			delete(taken, seat)
			released++
		}
	}
	return released, nil
}

func checkFree(taken map[string]int64, seats []string) error {
	seen := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		if _, ok := taken[seat]; ok {
			return domain.ErrSeatConflict
		}
		if _, ok := seen[seat]; ok {
			return domain.ErrSeatConflict
		}
		seen[seat] = struct{}{}
	}
	return nil
}

// Bookings

type BookingRepository struct{ s *Store }

func (s *Store) Bookings() repository.BookingRepository { return BookingRepository{s} }

// Create checks every step before writing, so a failure leaves the store untouched.
func (r BookingRepository) Create(_ context.Context, booking *domain.Booking) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[booking.Flight.ID]
	if !ok || f.Status == domain.FlightStatusCanceled {
		return domain.ErrFlightUnavailable
	}
	if err := s.step(StepInsertBooking); err != nil {
		return err
	}
	if _, ok := s.bookings[booking.PNR]; ok {
		return domain.ErrDuplicatePNR
	}
	user, ok := s.users[booking.UserID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if err := s.step(StepReserveSeats); err != nil {
		return err
	}
	taken := s.seats[f.ID]
	if err := checkFree(taken, booking.Seats); err != nil {
		return err
	}
	if err := s.step(StepCreditPoints); err != nil {
		return err
	}
	if err := s.step(StepRecordBooking); err != nil {
		return err
	}

	booking.ID = s.id()
	booking.CreatedAt = s.now()
	booking.Username = user.Username
	stored := *booking
	stored.Seats = append([]string(nil), booking.Seats...)
	sort.Strings(stored.Seats)
	s.bookings[booking.PNR] = stored
	for _, seat := range booking.Seats {
		taken[seat] = booking.ID
	}
	user.LoyaltyPoints += booking.PointsEarned()
	s.users[user.ID] = user
	s.appendLocked(domain.BookingCompletedMessage(booking), user.Username)
	return nil
}

func (s *Store) step(name string) error {
	if s.fault == nil {
		return nil
	}
	if err := s.fault(name); err != nil {
		return repositoryErr(name, err)
	}
	return nil
}

func repositoryErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}

func (r BookingRepository) GetByPNR(_ context.Context, pnr string) (*domain.Booking, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[pnr]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	b = s.viewLocked(b)
	return &b, nil
}

func (r BookingRepository) ListByUser(_ context.Context, userID int64) ([]domain.Booking, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookingsOfLocked(userID), nil
}

func (s *Store) bookingsOfLocked(userID int64) []domain.Booking {
	out := make([]domain.Booking, 0)
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, s.viewLocked(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// viewLocked joins the current flight and username the way the SQL store does.
func (s *Store) viewLocked(b domain.Booking) domain.Booking {
	f := s.flights[b.Flight.ID]
	f.Occupied = nil
	b.Flight = f
	b.Username = s.users[b.UserID].Username
	b.Seats = append([]string(nil), b.Seats...)
	return b
}

func (r BookingRepository) Delete(_ context.Context, pnr string, userID int64) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[pnr]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if b.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	taken := s.seats[b.Flight.ID]
	var released []string
	for seat, owner := range taken {
		if owner == b.ID {
			delete(taken, seat)
			released = append(released, seat)
		}
	}
	sort.Strings(released)
	delete(s.bookings, pnr)
	return released, nil
}

func (r BookingRepository) MarkCheckedIn(_ context.Context, pnr string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[pnr]
	if !ok {
		return false, domain.ErrBookingNotFound
	}
	if b.CheckedIn {
		return false, nil
	}
	b.CheckedIn = true
	s.bookings[pnr] = b
	return true, nil
}

func (r BookingRepository) PNRExists(_ context.Context, pnr string) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[pnr]; ok {
		return true, nil
	}
	_, ok := s.issued[pnr]
	return ok, nil
}

// Audit and stats

type AuditRepository struct{ s *Store }

func (s *Store) Audit() AuditRepository { return AuditRepository{s} }

func (r AuditRepository) Append(_ context.Context, message, actor string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(message, actor)
	return nil
}

func (s *Store) appendLocked(message, actor string) {
	if strings.TrimSpace(actor) == "" {
		actor = domain.SystemActor
	}
	s.audit = append(s.audit, domain.AuditEntry{ID: s.id(), Timestamp: s.now(), Message: message, Actor: actor})
	if pnr, ok := domain.BookingCompletedPNR(message); ok {
		s.issued[pnr] = struct{}{}
	}
}

func (r AuditRepository) Recent(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > domain.MaxAuditEntries {
		limit = domain.MaxAuditEntries
	}
	out := make([]domain.AuditEntry, 0, limit)
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

func (r AuditRepository) Stats(_ context.Context) (domain.Stats, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var st domain.Stats
	var persons, capacity int64
	for _, b := range s.bookings {
		st.TotalBookings++
		st.RevenueCents += b.TotalCents
		persons += int64(b.Persons)
		if b.CheckedIn {
			st.CheckedIn++
		}
	}
	for _, f := range s.flights {
		if f.Status != domain.FlightStatusCanceled {
			capacity += int64(f.TotalSeats)
		}
	}
	st.OccupancyPercent = domain.Occupancy(persons, capacity)
	return st, nil
}

var (
	_ repository.UserRepository    = UserRepository{}
	_ repository.FlightRepository  = FlightRepository{}
	_ repository.SeatRepository    = SeatRepository{}
	_ repository.BookingRepository = BookingRepository{}
	_ repository.AuditRepository   = AuditRepository{}
	_ repository.StatsRepository   = AuditRepository{}
)
