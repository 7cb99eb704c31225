package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const tickLockName = "simulator:tick"

type Ticker interface {
	Tick(ctx context.Context) ([]StatusChange, error)
}

// Locker lets several processes share one schedule; only the holder of the lock ticks.
type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

type Scheduler struct {
	cron   *cron.Cron
	ticker Ticker
	period time.Duration
	locker Locker
	log    *logrus.Logger
}

type SchedulerOption func(*Scheduler)

func WithLocker(locker Locker) SchedulerOption {
	return func(s *Scheduler) {
		s.locker = locker
	}
}

func NewScheduler(ticker Ticker, period time.Duration, log *logrus.Logger, opts ...SchedulerOption) *Scheduler {
	if period <= 0 {
		period = 15 * time.Second
	}
	s := &Scheduler{
		ticker: ticker,
		period: period,
		log:    log,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log)))),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.period), s.run); err != nil {
		return fmt.Errorf("schedule simulator: %w", err)
	}
	s.cron.Start()
	s.log.WithField("period", s.period.String()).Info("flight simulator started")
	return nil
}

// Stop waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("flight simulator stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.period)
	defer cancel()

	if s.locker != nil {
		// the lock expires before the next tick so any instance may take it then
		ok, err := s.locker.AcquireLock(ctx, tickLockName, s.period/2)
		if err != nil {
			s.log.WithError(err).Warn("simulator lock unavailable, skipping tick")
			return
		}
		if !ok {
			return
		}
	}

	if _, err := s.ticker.Tick(ctx); err != nil {
		s.log.WithError(err).Error("simulator tick failed")
	}
}
