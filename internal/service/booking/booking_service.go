package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airreservation/internal/boardingpass"
	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/sirupsen/logrus"
)

const defaultMaxPNRAttempts = 10

type BookingUseCase interface {
	PriceItinerary(flight *domain.Flight, fareClass string, persons int) (int64, error)
	Quote(ctx context.Context, flightID int64, fareClass string, persons int) (*Quote, error)
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, pnr string, userID int64) error
	CheckIn(ctx context.Context, pnr string, userID int64) (*domain.Booking, error)
	GetBooking(ctx context.Context, pnr string) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	BoardingPass(ctx context.Context, pnr string, userID int64) ([]byte, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Auditor interface {
	Record(ctx context.Context, message, actor string) error
}

type BookingService struct {
	bookings       repository.BookingRepository
	flights        repository.FlightRepository
	users          repository.UserRepository
	audit          Auditor
	producer       Producer
	bookingTopic   string
	layout         domain.SeatLayout
	pnr            *domain.PNRGenerator
	paymentDelay   time.Duration
	maxPNRAttempts int
	log            *logrus.Logger
	now            func() time.Time
}

type CreateBookingInput struct {
	UserID        int64    `json:"-"`
	FlightID      int64    `json:"flight_id"`
	FareClass     string   `json:"fare_class"`
	Seats         []string `json:"seats"`
	Persons       int      `json:"persons"`
	PaymentMethod string   `json:"payment_method"`
}

type Quote struct {
	FlightID   int64  `json:"flight_id"`
	Route      string `json:"route"`
	FareClass  string `json:"fare_class"`
	Persons    int    `json:"persons"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
	Points     int    `json:"points"`
}

type BookingServiceOption func(*BookingService)

func WithEvents(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = topic
	}
}

func WithPaymentDelay(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.paymentDelay = d
	}
}

func WithPNRGenerator(g *domain.PNRGenerator) BookingServiceOption {
	return func(s *BookingService) {
		s.pnr = g
	}
}

func WithSeatLayout(l domain.SeatLayout) BookingServiceOption {
	return func(s *BookingService) {
		s.layout = l
	}
}

func WithMaxPNRAttempts(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.maxPNRAttempts = n
		}
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	users repository.UserRepository,
	audit Auditor,
	log *logrus.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		flights:        flights,
		users:          users,
		audit:          audit,
		layout:         domain.DefaultSeatLayout(),
		pnr:            domain.NewPNRGenerator(nil),
		maxPNRAttempts: defaultMaxPNRAttempts,
		log:            log,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// PriceItinerary is base fare × class multiplier × persons, in cents.
func (s *BookingService) PriceItinerary(flight *domain.Flight, fareClass string, persons int) (int64, error) {
	if flight == nil {
		return 0, domain.ErrFlightNotFound
	}
	if persons < domain.MinPersons || persons > domain.MaxPersons {
		return 0, domain.ErrInvalidPersons
	}
	fare, err := domain.ParseFareClass(fareClass)
	if err != nil {
		return 0, err
	}
	return domain.PriceCents(flight.BaseFareCents, fare, persons), nil
}

func (s *BookingService) Quote(ctx context.Context, flightID int64, fareClass string, persons int) (*Quote, error) {
	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	total, err := s.PriceItinerary(flight, fareClass, persons)
	if err != nil {
		return nil, err
	}
	fare, _ := domain.ParseFareClass(fareClass)
	return &Quote{
		FlightID:   flight.ID,
		Route:      flight.Route,
		FareClass:  fare.Label(),
		Persons:    persons,
		TotalCents: total,
		Total:      domain.FormatCents(total),
		Points:     domain.LoyaltyPoints(total),
	}, nil
}

func (s *BookingService) validate(input CreateBookingInput) (domain.Fare, error) {
	if input.Persons < domain.MinPersons || input.Persons > domain.MaxPersons {
		return domain.Fare{}, domain.ErrInvalidPersons
	}
	fare, err := domain.ParseFareClass(input.FareClass)
	if err != nil {
		return domain.Fare{}, err
	}
	if !domain.ValidPaymentMethod(input.PaymentMethod) {
		return domain.Fare{}, domain.ErrInvalidPaymentMethod
	}
	if len(input.Seats) != input.Persons {
		return domain.Fare{}, domain.ErrSeatCountMismatch
	}
	if domain.HasDuplicates(input.Seats) {
		return domain.Fare{}, fmt.Errorf("%w: duplicate seat", domain.ErrInvalidSeat)
	}
	for _, seat := range input.Seats {
		if _, _, err := s.layout.Parse(seat); err != nil {
			return domain.Fare{}, err
		}
	}
	return fare, nil
}

// CreateBooking validates, re-checks availability and writes the booking atomically
// together with its completion audit line. Nothing is written when it returns an error.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	fare, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		if errors.Is(err, domain.ErrFlightNotFound) {
			return nil, domain.ErrFlightUnavailable
		}
		return nil, err
	}
	if !flight.Bookable() {
		return nil, domain.ErrFlightUnavailable
	}
	if err := s.layout.Validate(flight.TotalSeats, input.Seats); err != nil {
		return nil, err
	}
	if taken := flight.Occupied.Overlap(input.Seats); len(taken) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSeatConflict, strings.Join(taken, ", "))
	}

	if err := sleepContext(ctx, s.paymentDelay); err != nil {
		return nil, err
	}

	seats := append([]string(nil), input.Seats...)
	booking := &domain.Booking{
		UserID:        user.ID,
		Username:      user.Username,
		Flight:        *flight,
		Fare:          fare,
		TotalCents:    domain.PriceCents(flight.BaseFareCents, fare, input.Persons),
		Seats:         seats,
		Persons:       input.Persons,
		PaymentMethod: input.PaymentMethod,
	}
	booking.Flight.Occupied = nil

	if err := s.insertWithUniquePNR(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			s.log.WithError(err).WithFields(logrus.Fields{"user_id": user.ID, "flight_id": flight.ID}).Error("failed to create booking")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"pnr": booking.PNR, "user_id": user.ID, "flight_id": flight.ID}).Info("booking completed")
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// insertWithUniquePNR draws PNRs until one is unused and the insert accepts it.
func (s *BookingService) insertWithUniquePNR(ctx context.Context, booking *domain.Booking) error {
	for attempt := 0; attempt < s.maxPNRAttempts; attempt++ {
		pnr := s.pnr.Next()
		exists, err := s.bookings.PNRExists(ctx, pnr)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		booking.PNR = pnr
		err = s.bookings.Create(ctx, booking)
		if errors.Is(err, domain.ErrDuplicatePNR) {
			continue
		}
		return err
	}
	booking.PNR = ""
	return fmt.Errorf("%w: no free pnr after %d attempts", domain.ErrDuplicatePNR, s.maxPNRAttempts)
}

func (s *BookingService) owned(ctx context.Context, pnr string, userID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByPNR(ctx, normalizePNR(pnr))
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return b, nil
}

// CancelBooking releases the seats and deletes the booking. Loyalty points stay credited.
func (s *BookingService) CancelBooking(ctx context.Context, pnr string, userID int64) error {
	b, err := s.owned(ctx, pnr, userID)
	if err != nil {
		return err
	}
	released, err := s.bookings.Delete(ctx, b.PNR, userID)
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			s.log.WithError(err).WithField("pnr", b.PNR).Error("failed to cancel booking")
		}
		return err
	}
	b.Seats = released

	s.record(ctx, fmt.Sprintf("Booking canceled. PNR: %s, User: %s", b.PNR, b.Username), b.Username)
	s.publish(ctx, kafka.EventBookingCanceled, b)
	return nil
}

func (s *BookingService) CheckIn(ctx context.Context, pnr string, userID int64) (*domain.Booking, error) {
	b, err := s.owned(ctx, pnr, userID)
	if err != nil {
		return nil, err
	}
	if b.CheckedIn {
		return nil, domain.ErrAlreadyCheckedIn
	}
	if !b.Flight.Bookable() {
		return nil, domain.ErrFlightUnavailable
	}

	changed, err := s.bookings.MarkCheckedIn(ctx, b.PNR)
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			s.log.WithError(err).WithField("pnr", b.PNR).Error("failed to check in")
		}
		return nil, err
	}
	if !changed {
		return nil, domain.ErrAlreadyCheckedIn
	}
	b.CheckedIn = true

	s.record(ctx, fmt.Sprintf("Checked in for PNR: %s, User: %s", b.PNR, b.Username), b.Username)
	s.publish(ctx, kafka.EventBookingCheckedIn, b)
	return b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, pnr string) (*domain.Booking, error) {
	return s.bookings.GetByPNR(ctx, normalizePNR(pnr))
}

// ListBookings returns the user's bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) BoardingPass(ctx context.Context, pnr string, userID int64) ([]byte, error) {
	b, err := s.owned(ctx, pnr, userID)
	if err != nil {
		return nil, err
	}
	if !b.CheckedIn {
		return nil, domain.ErrNotCheckedIn
	}
	return boardingpass.Render(b, s.now())
}

func (s *BookingService) record(ctx context.Context, message, actor string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, message, actor)
}

// publish never fails the caller; a lost event is only logged.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, booking)
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.PNR, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"pnr": booking.PNR, "topic": s.bookingTopic}).Warn("failed to publish " + eventType)
	}
}

func normalizePNR(pnr string) string {
	return strings.ToUpper(strings.TrimSpace(pnr))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ BookingUseCase = (*BookingService)(nil)
