package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/pending"
	"github.com/aussiebroadwan/totpgate/pkg/slogx"
)

// DefaultHousekeepingInterval is used when no positive interval is given.
const DefaultHousekeepingInterval = time.Minute

// HousekeepingService periodically evicts expired pending registrations and
// sessions so neither grows without bound.
type HousekeepingService struct {
	Sessions *SessionService
	Pending  *pending.Store
	Logger   *slog.Logger
	Interval time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewHousekeepingService creates a stopped service.
func NewHousekeepingService(sessions *SessionService, pendingStore *pending.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HousekeepingService{
		Sessions: sessions,
		Pending:  pendingStore,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop in the background. Call Stop to end it. Start
// after Stop, or a second Start, does nothing.
func (s *HousekeepingService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop ends the loop and waits for an in-progress sweep to finish. It is
// safe to call more than once and on a service that was never started.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	close(s.stopCh)
	s.mu.Unlock()

	if !started {
		return
	}
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one sweep. A failure in one sweep does not skip the other.
func (s *HousekeepingService) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()

	var pendingRemoved int
	if s.Pending != nil {
		pendingRemoved = s.Pending.Sweep()
	}

	var sessionsRemoved int64
	if s.Sessions != nil {
		n, err := s.Sessions.DeleteExpired(ctx)
		if err != nil {
			s.Logger.Error("failed to delete expired sessions", slogx.Err(err))
		}
		sessionsRemoved = n
	}

	s.Logger.Debug("housekeeping sweep completed",
		"pending_removed", pendingRemoved,
		"sessions_removed", sessionsRemoved,
	)
}
