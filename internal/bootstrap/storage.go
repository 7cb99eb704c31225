package bootstrap

import (
	"context"
	"fmt"
	"math"

	"github.com/Domenick1991/airreservation/config"
	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/Domenick1991/airreservation/internal/repository/memory"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Storage groups the repositories of one backend.
type Storage struct {
	Users    repository.UserRepository
	Flights  repository.FlightRepository
	Seats    repository.SeatRepository
	Bookings repository.BookingRepository
	Audit    repository.AuditRepository
	Stats    repository.StatsRepository

	close func()
}

func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage connects the configured backend, applies the schema and seeds the flight catalog.
func OpenStorage(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Storage, error) {
	flights, err := SeedCatalog(cfg.Seed.Flights)
	if err != nil {
		return nil, err
	}

	if cfg.Database.InMemory() {
		store := memory.NewStore()
		for _, f := range flights {
			store.AddFlight(f)
		}
		log.WithField("flights", len(flights)).Info("using in-memory storage")
		return &Storage{
			Users:    store.Users(),
			Flights:  store.Flights(),
			Seats:    store.Seats(),
			Bookings: store.Bookings(),
			Audit:    store.Audit(),
			Stats:    store.Audit(),
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	added, err := repository.SeedFlights(ctx, pool, flights)
	if err != nil {
		pool.Close()
		return nil, err
	}
	log.WithField("added", added).Info("flight catalog seeded")

	auditRepo := repository.NewAuditRepository(pool)
	return &Storage{
		Users:    repository.NewUserRepository(pool),
		Flights:  repository.NewFlightRepository(pool),
		Seats:    repository.NewSeatRepository(pool),
		Bookings: repository.NewBookingRepository(pool),
		Audit:    auditRepo,
		Stats:    auditRepo,
		close:    pool.Close,
	}, nil
}

// SeedCatalog converts configured flights to domain flights. Fares are rounded to whole cents.
func SeedCatalog(seed []config.SeedFlight) ([]domain.Flight, error) {
	out := make([]domain.Flight, 0, len(seed))
	for _, s := range seed {
		region, ok := domain.ParseRegion(s.Region)
		if !ok || region == "" {
			return nil, fmt.Errorf("seed flight %q: unknown region %q", s.Route, s.Region)
		}
		if s.Route == "" || s.TotalSeats <= 0 || s.BaseFare <= 0 {
			return nil, fmt.Errorf("seed flight %q: route, base fare and seats are required", s.Route)
		}
		if s.TotalSeats > domain.MaxTotalSeats {
			return nil, fmt.Errorf("seed flight %q: %d seats exceeds the limit of %d", s.Route, s.TotalSeats, domain.MaxTotalSeats)
		}
		out = append(out, domain.Flight{
			Route:         s.Route,
			Region:        region,
			BaseFareCents: int64(math.Round(s.BaseFare * 100)),
			TotalSeats:    s.TotalSeats,
			Status:        domain.FlightStatusOnTime,
		})
	}
	return out, nil
}
