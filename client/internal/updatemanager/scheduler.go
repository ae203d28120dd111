package updatemanager

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// Scheduler triggers automatic checks: once after a warm-up delay, then periodically
type Scheduler struct {
	state   *State
	checker *Checker
	clock   clockwork.Clock

	warmup      time.Duration
	development bool

	mu         sync.Mutex
	interval   time.Duration
	intervalCh chan time.Duration
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func newScheduler(state *State, checker *Checker, clock clockwork.Clock, cfg Config) *Scheduler {
	return &Scheduler{
		state:       state,
		checker:     checker,
		clock:       clock,
		warmup:      cfg.WarmupDelay,
		development: cfg.Development,
		interval:    cfg.CheckInterval,
		intervalCh:  make(chan time.Duration, 1),
	}
}

// Start spawns the warm-up and periodic checks. Repeated calls and development builds do nothing.
func (s *Scheduler) Start(ctx context.Context) {
	if s.state.Started() {
		log.Infof("updater already started, skipping")
		return
	}

	if s.development {
		log.Infof("development build, automatic update checks are disabled")
		return
	}

	if !s.state.markStarted() {
		log.Infof("updater already started, skipping")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	interval := s.interval
	s.mu.Unlock()

	log.Infof("starting updater, first check in %s then every %s", s.warmup, interval)

	s.wg.Add(2)
	go s.warmupCheck(ctx)
	go s.periodicChecks(ctx, interval)
}

// Stop cancels the background checks and waits for them to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

// CheckNow runs a check cycle on behalf of the caller. It is a no-op while another cycle runs.
func (s *Scheduler) CheckNow(ctx context.Context, manual bool) error {
	return s.checker.Check(ctx, manual)
}

// SetInterval changes the period of the automatic checks, taking effect on the running loop
func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}

	s.mu.Lock()
	if s.interval == d {
		s.mu.Unlock()
		return
	}
	s.interval = d
	s.mu.Unlock()

	log.Infof("update check interval changed to %s", d)

	// keep only the latest value
	select {
	case <-s.intervalCh:
	default:
	}
	select {
	case s.intervalCh <- d:
	default:
	}
}

// Interval returns the current period of the automatic checks
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) warmupCheck(ctx context.Context) {
	defer s.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-s.clock.After(s.warmup):
	}

	s.runCheck(ctx)
}

func (s *Scheduler) periodicChecks(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-s.intervalCh:
			ticker.Reset(d)
		case <-ticker.Chan():
			s.runCheck(ctx)
		}
	}
}

func (s *Scheduler) runCheck(ctx context.Context) {
	if err := s.checker.Check(ctx, false); err != nil {
		log.Warnf("automatic update check failed: %v", err)
	}
}
