package authreq

import (
	"time"

	"fedauth/pkg/logger"
)

// Sweeper periodically evicts requests older than maxAge from the store,
// regardless of status. It is owned by the broker lifecycle: started once at
// construction time, stopped on shutdown.
type Sweeper struct {
	store    *Store
	interval time.Duration
	maxAge   time.Duration
	logger   logger.Logger
	stop     chan struct{}
}

// NewSweeper builds a Sweeper that runs every interval and evicts requests
// older than maxAge.
func NewSweeper(store *Store, interval, maxAge time.Duration, log logger.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		logger:   log,
		stop:     make(chan struct{}),
	}
}

// Start launches the sweep loop in the background.
func (s *Sweeper) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				ticker.Stop()
				return
			}
		}
	}()
	s.logger.Info("Expiry sweeper started", map[string]interface{}{
		"interval": s.interval.String(),
		"max_age":  s.maxAge.String(),
	})
}

// Stop terminates the sweep loop. Safe to call once.
func (s *Sweeper) Stop() {
	close(s.stop)
}

// Sweep runs one eviction pass immediately. Exposed so tests can simulate
// "five minutes later" without waiting on the ticker.
func (s *Sweeper) Sweep() {
	if evicted := s.store.EvictOlderThan(s.maxAge); evicted > 0 {
		s.logger.Info("Evicted expired auth requests", map[string]interface{}{
			"count": evicted,
		})
	}
}
