package simulator

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository/memory"
	"github.com/Domenick1991/airreservation/internal/service/audit"
	"github.com/Domenick1991/airreservation/internal/service/flights"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type weatherStore struct {
	mu      sync.Mutex
	reports map[string]domain.WeatherReport
	err     error
}

func newWeatherStore() *weatherStore {
	return &weatherStore{reports: make(map[string]domain.WeatherReport)}
}

func (w *weatherStore) GetWeather(_ context.Context, route string) (*domain.WeatherReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return nil, w.err
	}
	r, ok := w.reports[route]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (w *weatherStore) SetWeather(_ context.Context, report domain.WeatherReport) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.reports[report.Route] = report
	return nil
}

func newSimulator(t *testing.T, seed int64) (*Simulator, *memory.Store, *weatherStore) {
	t.Helper()
	log, _ := test.NewNullLogger()
	store := memory.NewStore()
	for _, route := range []string{"MNL → CEB", "MNL → DVO", "MNL → NRT", "MNL → ICN"} {
		store.AddFlight(domain.Flight{Route: route, Region: domain.RegionLocal, BaseFareCents: 100000, TotalSeats: 60})
	}
	auditService := audit.NewAuditService(store.Audit(), store.Audit(), log)
	catalog := flights.NewFlightService(store.Flights(), auditService, log)
	weather := newWeatherStore()
	sim := NewSimulator(store.Flights(), catalog, log, WithWeatherCache(weather), WithRand(rand.New(rand.NewSource(seed))))
	return sim, store, weather
}

func TestDrawStatusDistribution(t *testing.T) {
	sim, _, _ := newSimulator(t, 11)
	counts := map[domain.FlightStatus]int{}
	const draws = 20000
	for i := 0; i < draws; i++ {
		counts[sim.DrawStatus()]++
	}
	assert.InDelta(t, 0.05, float64(counts[domain.FlightStatusCanceled])/draws, 0.01)
	assert.InDelta(t, 0.15, float64(counts[domain.FlightStatusDelayed])/draws, 0.015)
	assert.InDelta(t, 0.80, float64(counts[domain.FlightStatusOnTime])/draws, 0.015)
}

func TestTickChangesAtMostThreeFlights(t *testing.T) {
	sim, store, weather := newSimulator(t, 5)
	ctx := context.Background()

	total := 0
	for i := 0; i < 50; i++ {
		before, err := store.Flights().List(ctx, "")
		require.NoError(t, err)

		changes, err := sim.Tick(ctx)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(changes), maxChangesPerTick)
		total += len(changes)

		after, err := store.Flights().List(ctx, "")
		require.NoError(t, err)
		diff := 0
		for j := range before {
			if before[j].Status != after[j].Status {
				diff++
			}
		}
		assert.Equal(t, len(changes), diff)
		for _, c := range changes {
			assert.NotEqual(t, c.From, c.To)
		}
	}
	assert.Positive(t, total)
	assert.Len(t, weather.reports, 4)

	entries, err := store.Audit().Recent(ctx, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.True(t, strings.HasPrefix(entries[0].Message, "Flight "))
	assert.Equal(t, domain.SystemActor, entries[0].Actor)
}

func TestTickWithoutFlights(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := memory.NewStore()
	sim := NewSimulator(store.Flights(), flights.NewFlightService(store.Flights(), nil, log), log)

	changes, err := sim.Tick(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, changes)
}

type failingCatalog struct{}

func (failingCatalog) UpdateStatus(context.Context, int64, domain.FlightStatus, string) (bool, error) {
	return false, errors.New("database is down")
}

func TestTickSkipsFailedWrites(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := memory.NewStore()
	store.AddFlight(domain.Flight{Route: "MNL → CEB", TotalSeats: 10})
	store.AddFlight(domain.Flight{Route: "MNL → DVO", TotalSeats: 10})
	weather := newWeatherStore()
	sim := NewSimulator(store.Flights(), failingCatalog{}, log, WithWeatherCache(weather), WithRand(rand.New(rand.NewSource(1))))

	for i := 0; i < 20; i++ {
		changes, err := sim.Tick(context.Background())
		require.NoError(t, err)
		assert.Empty(t, changes)
	}
	assert.Len(t, weather.reports, 2)
}

func TestWeather(t *testing.T) {
	sim, _, _ := newSimulator(t, 2)
	report := sim.Weather("MNL → CEB")
	assert.Equal(t, "MNL", report.Departure)
	assert.Equal(t, "CEB", report.Arrival)
	assert.Contains(t, Conditions, report.DepartureCondition)
	assert.Contains(t, Conditions, report.ArrivalCondition)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestCurrentUsesCache(t *testing.T) {
	sim, _, weather := newSimulator(t, 3)
	ctx := context.Background()

	first, err := sim.Current(ctx, "MNL → CEB")
	require.NoError(t, err)
	second, err := sim.Current(ctx, "MNL → CEB")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, weather.reports, "MNL → CEB")

	weather.err = errors.New("redis down")
	report, err := sim.Current(ctx, "MNL → DVO")
	require.NoError(t, err)
	assert.Equal(t, "DVO", report.Arrival)
}

type MockTicker struct {
	mock.Mock
}

func (m *MockTicker) Tick(ctx context.Context) ([]StatusChange, error) {
	args := m.Called(ctx)
	return nil, args.Error(0)
}

type countingLocker struct {
	granted bool
	calls   atomic.Int32
}

func (l *countingLocker) AcquireLock(context.Context, string, time.Duration) (bool, error) {
	l.calls.Add(1)
	return l.granted, nil
}

type chanTicker chan struct{}

func (c chanTicker) Tick(context.Context) ([]StatusChange, error) {
	select {
	case c <- struct{}{}:
	default:
	}
	return nil, nil
}

func TestSchedulerTicks(t *testing.T) {
	log, _ := test.NewNullLogger()
	ticks := make(chanTicker, 1)

	s := NewScheduler(ticks, time.Second, log)
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-ticks:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not tick")
	}
}

func TestSchedulerSkipsWithoutLock(t *testing.T) {
	log, _ := test.NewNullLogger()
	ticker := &MockTicker{}
	locker := &countingLocker{}

	s := NewScheduler(ticker, time.Second, log, WithLocker(locker))
	s.run()
	assert.EqualValues(t, 1, locker.calls.Load())
	ticker.AssertNotCalled(t, "Tick", mock.Anything)

	locker.granted = true
	ticker.On("Tick", mock.Anything).Return(nil).Once()
	s.run()
	ticker.AssertExpectations(t)
}
