package flights

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	List(ctx context.Context, region domain.Region) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetByRoute(ctx context.Context, route string) (*domain.Flight, error)
	UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus, actor string) (bool, error)
	SearchByDestination(ctx context.Context, text string) ([]domain.Flight, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context, region domain.Region) ([]domain.Flight, error)
	SetFlights(ctx context.Context, region domain.Region, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Auditor interface {
	Record(ctx context.Context, message, actor string) error
}

type FlightService struct {
	repo        repository.FlightRepository
	cache       FlightCache
	audit       Auditor
	producer    Producer
	statusTopic string
	log         *logrus.Logger
}

type FlightServiceOption func(*FlightService)

func WithCache(cache FlightCache) FlightServiceOption {
	return func(s *FlightService) {
		s.cache = cache
	}
}

func WithStatusEvents(producer Producer, topic string) FlightServiceOption {
	return func(s *FlightService) {
		s.producer = producer
		s.statusTopic = topic
	}
}

func NewFlightService(repo repository.FlightRepository, audit Auditor, log *logrus.Logger, opts ...FlightServiceOption) *FlightService {
	service := &FlightService{repo: repo, audit: audit, log: log}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// List serves from the cache when it can. A failing cache is bypassed.
func (s *FlightService) List(ctx context.Context, region domain.Region) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx, region); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx, region)
	if err != nil {
		s.log.WithError(err).WithField("region", region).Error("failed to list flights")
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, region, flights); err != nil {
			s.log.WithError(err).Debug("flight cache write failed")
		}
	}
	return flights, nil
}

// GetByID always reads the store so the occupied seats are current.
func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) GetByRoute(ctx context.Context, route string) (*domain.Flight, error) {
	return s.repo.GetByRoute(ctx, strings.TrimSpace(route))
}

// UpdateStatus writes only when the status actually changes and reports whether it did.
func (s *FlightService) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus, actor string) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if flight.Status == status {
		return false, nil
	}

	previous := flight.Status
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			s.log.WithError(err).WithField("flight_id", id).Error("failed to update flight status")
		}
		return false, err
	}
	flight.Status = status

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.WithError(err).Warn("failed to invalidate flight cache")
		}
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, fmt.Sprintf("Flight %s status changed from %s to %s", flight.Route, previous, status), actor)
	}
	if s.producer != nil && s.statusTopic != "" {
		event := kafka.NewFlightStatusEvent(flight, previous, actor)
		if err := s.producer.Publish(ctx, s.statusTopic, flight.Route, event); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"flight_id": id, "topic": s.statusTopic}).Warn("failed to publish flight status event")
		}
	}
	return true, nil
}

// SearchByDestination matches text against routes, ignoring case.
func (s *FlightService) SearchByDestination(ctx context.Context, text string) ([]domain.Flight, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	all, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	matches := make([]domain.Flight, 0)
	if needle == "" {
		return matches, nil
	}
	for _, f := range all {
		if strings.Contains(strings.ToLower(f.Route), needle) {
			matches = append(matches, f)
		}
	}
	return matches, nil
}

var _ FlightUseCase = (*FlightService)(nil)
