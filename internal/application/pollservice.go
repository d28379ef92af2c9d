// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/codeflow/internal/domain/model"
	"github.com/ericfisherdev/codeflow/internal/domain/port/driven"
)

// ErrSchedulerStopped is returned by PollService requests made after Stop or
// Dispose, or when the loop has exited.
var ErrSchedulerStopped = errors.New("poll service stopped")

// DefaultPollInterval is the refresh cadence used when none is configured.
const DefaultPollInterval = 60 * time.Second

// pollRequest is a unit of work executed on the poll loop goroutine.
type pollRequest struct {
	run  func(ctx context.Context) error
	done chan error
}

// PollService drives the fetch-diff-notify-publish cycle. All cycles run on
// the goroutine executing Start, which makes it the single writer of the
// previous snapshot; ticks and manual refreshes are serialized through it.
type PollService struct {
	provider     *DashboardSourceProvider
	notifier     Notifier
	surfaces     *SurfaceRegistry
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger

	requestCh     chan pollRequest
	credentialsCh chan struct{}
	stopCh        chan struct{}
	loopDone      chan struct{}
	stopOnce      sync.Once
	disposed      atomic.Bool

	// previous is owned by the loop goroutine.
	previous *model.Snapshot

	latestMu sync.RWMutex
	latest   *model.Snapshot
}

// NewPollService creates a new PollService with all required dependencies.
// A non-positive interval falls back to DefaultPollInterval; a non-positive
// fetchTimeout disables the per-fetch timeout.
func NewPollService(
	provider *DashboardSourceProvider,
	notifier Notifier,
	surfaces *SurfaceRegistry,
	interval time.Duration,
	fetchTimeout time.Duration,
	logger *slog.Logger,
) *PollService {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &PollService{
		provider:      provider,
		notifier:      notifier,
		surfaces:      surfaces,
		interval:      interval,
		fetchTimeout:  fetchTimeout,
		logger:        logger,
		requestCh:     make(chan pollRequest),
		credentialsCh: make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
		loopDone:      make(chan struct{}),
	}
}

// Start runs the poll loop and blocks until the context is canceled or Stop
// is called. If the provider holds credentials, Start polls immediately and
// arms the ticker. Otherwise the loop stays idle, still serving manual
// requests, until CredentialsAvailable is signalled.
func (s *PollService) Start(ctx context.Context) {
	defer close(s.loopDone)

	var ticker *time.Ticker
	var tick <-chan time.Time
	arm := func() {
		if ticker != nil {
			return
		}
		ticker = time.NewTicker(s.interval)
		tick = ticker.C
		s.logger.Info("polling armed", "interval", s.interval)
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	if s.provider.HasSource() {
		if err := s.refresh(ctx); err != nil {
			s.logger.Error("initial poll failed", "error", err)
		}
		arm()
	} else {
		s.logger.Info("no github credentials configured, polling idle until authenticated")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poll service stopped")
			return
		case <-s.stopCh:
			s.logger.Info("poll service stopped")
			return
		case <-tick:
			if err := s.refresh(ctx); err != nil {
				s.logger.Error("poll cycle failed", "error", err)
			}
		case <-s.credentialsCh:
			arm()
		case req := <-s.requestCh:
			req.done <- req.run(ctx)
		}
	}
}

// Refresh triggers an immediate fetch-diff-notify-publish cycle and blocks
// until it completes. A call made while another cycle is running waits for
// that cycle and then runs.
func (s *PollService) Refresh(ctx context.Context) error {
	return s.submit(ctx, s.refresh)
}

// ResetNotifications clears the previous snapshot, so the next poll is a cold
// start that raises no alerts, and resets the notifier's state.
func (s *PollService) ResetNotifications(ctx context.Context) error {
	return s.submit(ctx, func(ctx context.Context) error {
		s.previous = nil
		s.notifier.Reset(ctx)
		return nil
	})
}

// Attach registers a surface and hands it the latest snapshot, if any, on
// the poll loop. Every later update the surface sees comes from a cycle that
// completed after that first delivery.
func (s *PollService) Attach(ctx context.Context, surface driven.Surface) error {
	return s.submit(ctx, func(context.Context) error {
		s.surfaces.Register(surface)
		if s.latest == nil {
			return nil
		}
		copied := s.latest.Clone()
		s.deliver(surface, "attach", func() error { return surface.OnUpdate(copied) })
		return nil
	})
}

// CredentialsAvailable arms the ticker of a loop that started without
// credentials. It does not block.
func (s *PollService) CredentialsAvailable() {
	select {
	case s.credentialsCh <- struct{}{}:
	default:
	}
}

// Latest returns a copy of the most recently published snapshot.
func (s *PollService) Latest() (model.Snapshot, bool) {
	s.latestMu.RLock()
	defer s.latestMu.RUnlock()

	if s.latest == nil {
		return model.Snapshot{}, false
	}
	return s.latest.Clone(), true
}

// Stop ends the poll loop and its ticker. It is safe to call more than once.
func (s *PollService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// Dispose stops the service and releases every surface reference. A fetch
// still in flight is allowed to finish but its result is discarded.
func (s *PollService) Dispose() {
	s.disposed.Store(true)
	s.Stop()
	s.surfaces.Clear()
}

// submit runs fn on the loop goroutine and waits for its result.
func (s *PollService) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.disposed.Load() {
		return ErrSchedulerStopped
	}

	req := pollRequest{run: fn, done: make(chan error, 1)}

	select {
	case s.requestCh <- req:
	case <-s.stopCh:
		return ErrSchedulerStopped
	case <-s.loopDone:
		return ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refresh performs one cycle. It must only run on the loop goroutine.
func (s *PollService) refresh(ctx context.Context) error {
	start := time.Now()

	source := s.provider.Get()
	if source == nil {
		err := fmt.Errorf("fetch dashboard: %w", driven.ErrNotAuthenticated)
		s.reportFailure(err)
		return err
	}

	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	snapshot, err := source.FetchDashboard(fetchCtx)
	if s.disposed.Load() {
		s.logger.Debug("discarding poll result after dispose")
		return ErrSchedulerStopped
	}
	if err != nil {
		s.reportFailure(err)
		return fmt.Errorf("fetch dashboard: %w", err)
	}

	var events int
	if s.previous == nil {
		s.logger.Debug("first snapshot, notifications suppressed")
	} else {
		changes := Diff(*s.previous, snapshot)
		events = len(changes)
		s.notifier.Notify(ctx, changes)
	}

	s.previous = &snapshot

	published := snapshot.Clone()
	s.latestMu.Lock()
	s.latest = &published
	s.latestMu.Unlock()

	delivered := s.publish(snapshot)

	s.logger.Info("poll cycle complete",
		"needs_review", len(snapshot.NeedsReview),
		"returned_to_you", len(snapshot.ReturnedToYou),
		"my_prs", len(snapshot.MyPRs),
		"reviewed_awaiting", len(snapshot.ReviewedAwaiting),
		"events", events,
		"surfaces", delivered,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// publish pushes an independent copy of the snapshot to each visible surface
// and returns how many surfaces it was delivered to.
func (s *PollService) publish(snapshot model.Snapshot) int {
	var delivered int
	for _, surface := range s.surfaces.Visible() {
		copied := snapshot.Clone()
		if s.deliver(surface, "update", func() error { return surface.OnUpdate(copied) }) {
			delivered++
		}
	}
	return delivered
}

// reportFailure classifies a fetch error and pushes it to every registered
// surface so they can replace stale content with an error state.
func (s *PollService) reportFailure(err error) {
	failure := ClassifyFetchError(err)
	s.logger.Warn("dashboard fetch failed",
		"error", err,
		"requires_reauthentication", failure.RequiresReauthentication,
	)

	for _, surface := range s.surfaces.All() {
		s.deliver(surface, "error", func() error {
			return surface.OnError(failure.Message, failure.RequiresReauthentication)
		})
	}
}

// deliver calls fn for one surface, isolating errors and panics so one
// surface cannot affect delivery to the others.
func (s *PollService) deliver(surface driven.Surface, kind string, fn func() error) (ok bool) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("surface panicked", "surface", surface.ID(), "kind", kind, "panic", v)
			ok = false
		}
	}()

	if err := fn(); err != nil {
		s.logger.Error("surface delivery failed", "surface", surface.ID(), "kind", kind, "error", err)
		return false
	}
	return true
}
