package worker

//go:generate mockgen -source=$GOFILE -destination=../../tests/mock/worker/sweeper.go -package=workermock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mechanic-booking/internal/pkg/clock"
)

type HoldExpirer interface {
	ExpireStaleHolds(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically flips lapsed holds to EXPIRED. Reads never depend on
// it: a lapsed hold stops blocking its slot as soon as its deadline passes.
type Sweeper struct {
	expirer  HoldExpirer
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(expirer HoldExpirer, clk clock.Clock, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		expirer:  expirer,
		clock:    clk,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately, then one per interval until Stop.
func (s *Sweeper) Start() {
	s.logger.Info("starting hold sweeper", slog.Duration("interval", s.interval))
	go s.run()
}

// Stop waits for an in-flight sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	select {
	case <-s.done:
		s.logger.Info("hold sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) run() {
	defer close(s.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs a single pass. Failures are logged and retried next tick.
func (s *Sweeper) Sweep(ctx context.Context) {
	n, err := s.expirer.ExpireStaleHolds(ctx, s.clock.Now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("hold sweep failed", slog.Any("error", err))
		}
		return
	}
	if n > 0 {
		s.logger.Debug("hold sweep completed", slog.Int64("expired", n))
	}
}
