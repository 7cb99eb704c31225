package seats

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/sirupsen/logrus"
)

type SeatUseCase interface {
	IsAvailable(ctx context.Context, flightID int64, seats []string) (bool, error)
	Reserve(ctx context.Context, flightID int64, seats []string) error
	Release(ctx context.Context, flightID int64, seats []string) error
	SeatMap(ctx context.Context, flightID int64) (domain.SeatMap, error)
}

type SeatService struct {
	seats   repository.SeatRepository
	flights repository.FlightRepository
	layout  domain.SeatLayout
	log     *logrus.Logger
}

func NewSeatService(seats repository.SeatRepository, flights repository.FlightRepository, layout domain.SeatLayout, log *logrus.Logger) *SeatService {
	return &SeatService{seats: seats, flights: flights, layout: layout, log: log}
}

func (s *SeatService) Layout() domain.SeatLayout {
	return s.layout
}

// IsAvailable is true when none of the seats is occupied right now.
func (s *SeatService) IsAvailable(ctx context.Context, flightID int64, seats []string) (bool, error) {
	occupied, err := s.seats.Occupied(ctx, flightID)
	if err != nil {
		s.log.WithError(err).WithField("flight_id", flightID).Error("failed to read occupied seats")
		return false, err
	}
	return len(occupied.Overlap(seats)) == 0, nil
}

// Reserve places an operator hold on every seat or on none of them.
func (s *SeatService) Reserve(ctx context.Context, flightID int64, seats []string) error {
	if len(seats) == 0 {
		return domain.ErrInvalidSeat
	}
	if domain.HasDuplicates(seats) {
		return fmt.Errorf("%w: duplicate seat", domain.ErrInvalidSeat)
	}
	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return err
	}
	if err := s.layout.Validate(flight.TotalSeats, seats); err != nil {
		return err
	}
	if taken := flight.Occupied.Overlap(seats); len(taken) > 0 {
		return domain.ErrSeatConflict
	}

	if err := s.seats.Hold(ctx, flightID, seats); err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			s.log.WithError(err).WithField("flight_id", flightID).Error("failed to hold seats")
		}
		return err
	}
	return nil
}

// Release drops operator holds. Seats that are not held are ignored.
func (s *SeatService) Release(ctx context.Context, flightID int64, seats []string) error {
	released, err := s.seats.ReleaseHold(ctx, flightID, seats)
	if err != nil {
		s.log.WithError(err).WithField("flight_id", flightID).Error("failed to release seats")
		return err
	}
	s.log.WithFields(logrus.Fields{"flight_id": flightID, "released": released}).Debug("released seat holds")
	return nil
}

func (s *SeatService) SeatMap(ctx context.Context, flightID int64) (domain.SeatMap, error) {
	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return domain.SeatMap{}, err
	}
	return s.layout.Map(flight), nil
}

var _ SeatUseCase = (*SeatService)(nil)
