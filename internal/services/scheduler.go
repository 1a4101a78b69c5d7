package services

import (
	"context"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/metrics"
	"go.uber.org/zap"
)

// Sweepable is a session registry the scheduler can evict from.
type Sweepable interface {
	Sweep(now time.Time, ttl time.Duration) int
	Len() int
}

// Scheduler periodically evicts idle wizard and ECG sessions.
type Scheduler struct {
	log      *zap.Logger
	interval time.Duration
	ttl      time.Duration
	targets  map[string]Sweepable
}

// NewScheduler creates a scheduler that sweeps targets every interval, evicting
// entries idle for longer than ttl. targets is keyed by a name used in logs and metrics.
func NewScheduler(log *zap.Logger, interval, ttl time.Duration, targets map[string]Sweepable) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Scheduler{
		log:      log.Named("scheduler"),
		interval: interval,
		ttl:      ttl,
		targets:  targets,
	}
}

// Start runs the scheduler in a goroutine until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("Starting session sweeper...", zap.Duration("interval", s.interval), zap.Duration("ttl", s.ttl))
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info("Session sweeper stopped")
				return
			case now := <-ticker.C:
				s.runSweep(now)
			}
		}
	}()
}

func (s *Scheduler) runSweep(now time.Time) {
	for name, target := range s.targets {
		if removed := target.Sweep(now, s.ttl); removed > 0 {
			s.log.Debug("Evicted idle sessions", zap.String("kind", name), zap.Int("count", removed))
		}
		metrics.SetActiveSessions(name, target.Len())
	}
}
