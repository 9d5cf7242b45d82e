package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/screwyprof/sortition/pkg/clock"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPollInterval keeps scanning every d after the first scan; 0 scans once
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// WithArchive stores every completed scan in a
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// Service runs scans once or on an interval and reports them as events
// --------------------------------------------------------------------
type Service struct {
	scanner         *Scanner
	lookbackSeconds int64
	archive         Archive
	clock           Clock
	pollInterval    time.Duration
	events          chan Event
}

// NewService constructs a Service scanning the last lookbackSeconds on every run.
// By default, it uses a real clock, scans once and archives nothing.
func NewService(scanner *Scanner, lookbackSeconds int64, opts ...Option) *Service {
	s := &Service{
		scanner:         scanner,
		lookbackSeconds: lookbackSeconds,
		clock:           clock.SystemClock{},
		events:          make(chan Event, 10),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the service and returns the events channel and done channel.
//
// Shutdown pattern:
//  1. Cancel context to request shutdown: cancel()
//  2. Service stops producing events and closes events channel
//  3. Wait for complete shutdown: <-done
//
// Without a poll interval the service stops on its own after the first scan.
func (s *Service) Start(ctx context.Context) (<-chan Event, <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		defer close(s.events)
		defer close(done)
		s.run(ctx)
	}()
	return s.events, done
}

func (s *Service) run(ctx context.Context) {
	s.scanOnce(ctx)
	if s.pollInterval <= 0 {
		return
	}

	s.events <- PollingStarted{Interval: s.pollInterval}
	for {
		select {
		case <-ctx.Done():
			s.events <- PollingShutdown{Reason: ctx.Err()}
			return
		case <-s.clock.After(s.pollInterval):
			s.scanOnce(ctx)
		}
	}
}

// scanOnce runs one scan over a window anchored at the current time
func (s *Service) scanOnce(ctx context.Context) {
	start := s.clock.Now()
	s.events <- ScanStarted{StartedAt: start, LookbackSeconds: s.lookbackSeconds}

	window, err := NewTimeWindow(s.lookbackSeconds, start)
	if err != nil {
		s.events <- ScanFailed{Err: err}
		return
	}

	result, err := s.scanner.ScanWindow(ctx, window)
	if err != nil {
		s.events <- ScanFailed{Err: err}
		return
	}

	var archiveID int64
	if s.archive != nil {
		archiveID, err = s.archive.SaveScan(ctx, result)
		if err != nil {
			s.events <- ArchiveFailed{Err: fmt.Errorf("%w: %w", ErrArchiveFailed, err)}
			archiveID = 0
		}
	}

	s.events <- ScanCompleted{
		Result:    result,
		Duration:  s.clock.Now().Sub(start),
		ArchiveID: archiveID,
	}
}
