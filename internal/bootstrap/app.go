package bootstrap

import (
	"context"
	"math/rand"
	"time"

	"github.com/Domenick1991/airreservation/api"
	"github.com/Domenick1991/airreservation/config"
	"github.com/Domenick1991/airreservation/internal/auth"
	"github.com/Domenick1991/airreservation/internal/cache"
	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/Domenick1991/airreservation/internal/service/assistant"
	"github.com/Domenick1991/airreservation/internal/service/audit"
	"github.com/Domenick1991/airreservation/internal/service/booking"
	"github.com/Domenick1991/airreservation/internal/service/flights"
	"github.com/Domenick1991/airreservation/internal/service/identity"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"github.com/Domenick1991/airreservation/internal/service/simulator"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const weatherTTL = 5 * time.Minute

// App holds every service of one process.
type App struct {
	Config   *config.Config
	Log      *logrus.Logger
	Storage  *Storage
	Cache    *cache.RedisCache
	Producer *kafka.Producer
	// Events is the producer, or kafka.Discard when no brokers are configured.
	Events kafka.Publisher

	Tokens    *auth.Issuer
	Audit     *audit.AuditService
	Identity  *identity.IdentityService
	Flights   *flights.FlightService
	Seats     *seats.SeatService
	Bookings  *booking.BookingService
	Simulator *simulator.Simulator
	Assistant *assistant.Assistant
}

// NewApp opens storage and wires the services. Redis and Kafka are optional:
// without them flight lists are not cached and events are discarded.
func NewApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	storage, err := OpenStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log, Storage: storage, Events: kafka.Discard{}}

	if cfg.Redis.Addr != "" {
		c := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second, weatherTTL)
		if err := c.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unavailable, caching disabled")
		} else {
			app.Cache = c
		}
	}
	if len(cfg.Kafka.Brokers) > 0 {
		app.Producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		if err := app.Producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka unavailable, events may be lost")
		}
		app.Events = app.Producer
	}

	layout := domain.SeatLayout{SeatsPerRow: cfg.Booking.SeatsPerRow, AisleAfter: cfg.Booking.AisleAfter}

	app.Tokens = auth.NewIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	app.Audit = audit.NewAuditService(storage.Audit, storage.Stats, log)
	app.Identity = identity.NewIdentityService(storage.Users, app.Audit, log, identity.WithBcryptCost(cfg.Auth.BcryptCost))

	flightOpts := []flights.FlightServiceOption{
		flights.WithStatusEvents(app.Events, cfg.Kafka.FlightStatusTopic),
	}
	bookingOpts := []booking.BookingServiceOption{
		booking.WithEvents(app.Events, cfg.Kafka.BookingTopic),
		booking.WithPaymentDelay(time.Duration(cfg.Booking.PaymentDelayMS) * time.Millisecond),
		booking.WithSeatLayout(layout),
		booking.WithMaxPNRAttempts(cfg.Booking.MaxPNRAttempts),
	}
	simOpts := []simulator.SimulatorOption{}
	if app.Cache != nil {
		flightOpts = append(flightOpts, flights.WithCache(app.Cache))
		simOpts = append(simOpts, simulator.WithWeatherCache(app.Cache))
	}
	if cfg.Simulator.Seed != 0 {
		simOpts = append(simOpts, simulator.WithRand(rand.New(rand.NewSource(cfg.Simulator.Seed))))
	}

	app.Flights = flights.NewFlightService(storage.Flights, app.Audit, log, flightOpts...)
	app.Seats = seats.NewSeatService(storage.Seats, storage.Flights, layout, log)
	app.Bookings = booking.NewBookingService(storage.Bookings, storage.Flights, storage.Users, app.Audit, log, bookingOpts...)
	app.Simulator = simulator.NewSimulator(storage.Flights, app.Flights, log, simOpts...)
	app.Assistant = assistant.NewAssistant(app.Flights, app.Bookings, log)

	if err := app.Identity.EnsureAdmin(ctx, cfg.Seed.Admin.Username, cfg.Seed.Admin.Password); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) Router() *gin.Engine {
	return api.NewRouter(api.Handlers{
		Auth:      api.NewAuthHandler(a.Identity, a.Tokens),
		Flights:   api.NewFlightHandler(a.Flights, a.Seats, a.Simulator),
		Bookings:  api.NewBookingHandler(a.Bookings),
		Admin:     api.NewAdminHandler(a.Audit, a.Flights, a.Seats),
		Assistant: api.NewAssistantHandler(a.Assistant),
	}, a.Tokens, a.Log)
}

// Scheduler runs the simulator every configured period. With redis the tick is
// shared between processes through a lock.
func (a *App) Scheduler() *simulator.Scheduler {
	var opts []simulator.SchedulerOption
	if a.Cache != nil {
		opts = append(opts, simulator.WithLocker(a.Cache))
	}
	return simulator.NewScheduler(a.Simulator, a.Config.Simulator.Period(), a.Log, opts...)
}

func (a *App) Close() {
	if a.Producer != nil {
		if err := a.Producer.Close(); err != nil {
			a.Log.WithError(err).Warn("close kafka producer")
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Log.WithError(err).Warn("close redis")
		}
	}
	a.Storage.Close()
}
