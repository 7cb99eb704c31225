package simulator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/sirupsen/logrus"
)

// Conditions are the weather conditions a report can carry.
var Conditions = []string{"Sunny", "Cloudy", "Light Rain", "Rainy", "Stormy", "Foggy", "Windy"}

const (
	cancelBelow       = 5
	delayBelow        = 20
	maxChangesPerTick = 3
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus, actor string) (bool, error)
}

type WeatherCache interface {
	GetWeather(ctx context.Context, route string) (*domain.WeatherReport, error)
	SetWeather(ctx context.Context, report domain.WeatherReport) error
}

type WeatherProvider interface {
	Current(ctx context.Context, route string) (domain.WeatherReport, error)
}

type StatusChange struct {
	FlightID int64               `json:"flight_id"`
	Route    string              `json:"route"`
	From     domain.FlightStatus `json:"from"`
	To       domain.FlightStatus `json:"to"`
}

// Simulator perturbs flight statuses and regenerates weather on every tick.
type Simulator struct {
	flights repository.FlightRepository
	catalog StatusUpdater
	weather WeatherCache
	log     *logrus.Logger
	now     func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

type SimulatorOption func(*Simulator)

func WithWeatherCache(cache WeatherCache) SimulatorOption {
	return func(s *Simulator) {
		s.weather = cache
	}
}

func WithRand(rng *rand.Rand) SimulatorOption {
	return func(s *Simulator) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// NewSimulator reads flights straight from the repository and writes statuses through
// catalog, so status changes are audited and published the same way as admin edits.
func NewSimulator(flights repository.FlightRepository, catalog StatusUpdater, log *logrus.Logger, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		flights: flights,
		catalog: catalog,
		log:     log,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// DrawStatus is CANCELED 5% of the time, DELAYED 15% and ON_TIME otherwise.
func (s *Simulator) DrawStatus() domain.FlightStatus {
	r := s.intn(100)
	switch {
	case r < cancelBelow:
		return domain.FlightStatusCanceled
	case r < delayBelow:
		return domain.FlightStatusDelayed
	default:
		return domain.FlightStatusOnTime
	}
}

func (s *Simulator) pick(flights []domain.Flight) []domain.Flight {
	if len(flights) == 0 {
		return nil
	}
	s.mu.Lock()
	n := 1 + s.rng.Intn(maxChangesPerTick)
	order := s.rng.Perm(len(flights))
	s.mu.Unlock()

	if n > len(flights) {
		n = len(flights)
	}
	picked := make([]domain.Flight, 0, n)
	for _, i := range order[:n] {
		picked = append(picked, flights[i])
	}
	return picked
}

// Tick re-draws the status of one to three random flights and refreshes the weather
// of every route. A failed status write is logged and skipped.
func (s *Simulator) Tick(ctx context.Context) ([]StatusChange, error) {
	all, err := s.flights.List(ctx, "")
	if err != nil {
		return nil, err
	}

	var changes []StatusChange
	for _, f := range s.pick(all) {
		to := s.DrawStatus()
		if to == f.Status {
			continue
		}
		changed, err := s.catalog.UpdateStatus(ctx, f.ID, to, domain.SystemActor)
		if err != nil {
			s.log.WithError(err).WithField("flight_id", f.ID).Warn("simulator failed to update status")
			continue
		}
		if changed {
			changes = append(changes, StatusChange{FlightID: f.ID, Route: f.Route, From: f.Status, To: to})
		}
	}

	s.refreshWeather(ctx, all)
	if len(changes) > 0 {
		s.log.WithField("changes", len(changes)).Info("simulator updated flight statuses")
	}
	return changes, nil
}

func (s *Simulator) refreshWeather(ctx context.Context, flights []domain.Flight) {
	if s.weather == nil {
		return
	}
	for _, f := range flights {
		if err := s.weather.SetWeather(ctx, s.Weather(f.Route)); err != nil {
			s.log.WithError(err).WithField("route", f.Route).Warn("failed to cache weather")
			return
		}
	}
}

// Weather draws a fresh report for both ends of route.
func (s *Simulator) Weather(route string) domain.WeatherReport {
	from, to := domain.RouteEndpoints(route)
	return domain.WeatherReport{
		Route:              route,
		Departure:          from,
		Arrival:            to,
		DepartureCondition: Conditions[s.intn(len(Conditions))],
		ArrivalCondition:   Conditions[s.intn(len(Conditions))],
		GeneratedAt:        s.now().UTC(),
	}
}

// Current returns the cached report for route, generating and caching one on a miss.
func (s *Simulator) Current(ctx context.Context, route string) (domain.WeatherReport, error) {
	if s.weather != nil {
		cached, err := s.weather.GetWeather(ctx, route)
		if err != nil {
			s.log.WithError(err).WithField("route", route).Debug("weather cache unavailable")
		} else if cached != nil {
			return *cached, nil
		}
	}

	report := s.Weather(route)
	if s.weather != nil {
		if err := s.weather.SetWeather(ctx, report); err != nil {
			s.log.WithError(err).WithField("route", route).Debug("failed to cache weather")
		}
	}
	return report, nil
}

var _ WeatherProvider = (*Simulator)(nil)
