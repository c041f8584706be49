package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/transition"
	"github.com/mcdev12/gridiron/go/internal/waivers"
	"github.com/rs/zerolog/log"
)

const workChannelBufferSize = 64

// LeaguesRepository defines what the scheduler needs to enumerate work.
type LeaguesRepository interface {
	ListActiveLeagues(ctx context.Context) ([]models.League, error)
}

// WaiverRunner is the waiver settlement surface the scheduler drives.
type WaiverRunner interface {
	ProcessLeagueWaivers(ctx context.Context, leagueID uuid.UUID) (*waivers.Summary, error)
	ProcessLeaguePoaches(ctx context.Context, leagueID uuid.UUID) (*waivers.Summary, error)
}

// TransitionRunner is the transition settlement surface the scheduler drives.
type TransitionRunner interface {
	ProcessTransitionBids(ctx context.Context, leagueID uuid.UUID) (*transition.Summary, error)
}

// Scheduler periodically fans active leagues out to a bounded worker pool.
// Leagues are settled concurrently with each other; within one league the
// waiver, poach and transition passes run strictly in sequence on a single
// worker, so no league ever has two settlement passes in flight.
type Scheduler struct {
	leagues     LeaguesRepository
	settlement  WaiverRunner
	transitions TransitionRunner
	clock       clockwork.Clock
	interval    time.Duration
	numWorkers  int

	workCh chan uuid.UUID
	wakeCh chan struct{}

	inFlightMu sync.Mutex
	inFlight   map[uuid.UUID]bool
}

func New(leagues LeaguesRepository, settlement WaiverRunner, transitions TransitionRunner,
	clock clockwork.Clock, interval time.Duration, numWorkers int) *Scheduler {
	return &Scheduler{
		leagues:     leagues,
		settlement:  settlement,
		transitions: transitions,
		clock:       clock,
		interval:    interval,
		numWorkers:  numWorkers,
		workCh:      make(chan uuid.UUID, workChannelBufferSize),
		wakeCh:      make(chan struct{}, 1),
		inFlight:    make(map[uuid.UUID]bool),
	}
}

// Wake triggers an immediate pass without waiting for the next tick. Safe
// to call from any goroutine; a pending wake coalesces.
func (s *Scheduler) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Run blocks until the context is cancelled, dispatching a settlement pass
// per active league on every tick or wake.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().
		Int("workers", s.numWorkers).
		Dur("interval", s.interval).
		Msg("settlement scheduler started")

	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < s.numWorkers; i++ {
		wg.Add(1)
		go s.worker(workerCtx, &wg, i)
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler shutdown requested")
			cancelWorkers()
			close(s.workCh)
			wg.Wait()
			log.Info().Msg("all settlement workers shut down")
			return nil
		case <-ticker.Chan():
			s.dispatch(ctx)
		case <-s.wakeCh:
			s.dispatch(ctx)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context) {
	leagues, err := s.leagues.ListActiveLeagues(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list active leagues")
		return
	}
	for _, lg := range leagues {
		if !s.claim(lg.ID) {
			continue
		}
		select {
		case s.workCh <- lg.ID:
		default:
			// Pool saturated; the league runs on the next tick.
			s.release(lg.ID)
			log.Warn().Str("league_id", lg.ID.String()).Msg("work channel full, deferring league")
		}
	}
}

func (s *Scheduler) claim(leagueID uuid.UUID) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if s.inFlight[leagueID] {
		return false
	}
	s.inFlight[leagueID] = true
	return true
}

func (s *Scheduler) release(leagueID uuid.UUID) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, leagueID)
}

func (s *Scheduler) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	log.Info().Int("worker_id", workerID).Msg("settlement worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker_id", workerID).Msg("settlement worker shutting down")
			return
		case leagueID, ok := <-s.workCh:
			if !ok {
				log.Info().Int("worker_id", workerID).Msg("work channel closed, worker shutting down")
				return
			}
			s.settleLeague(ctx, leagueID, workerID)
			s.release(leagueID)
		}
	}
}

// settleLeague runs the three settlement passes in order. A failed pass is
// logged and does not block the remaining passes; each pass already records
// its per-claim outcomes.
func (s *Scheduler) settleLeague(ctx context.Context, leagueID uuid.UUID, workerID int) {
	if summary, err := s.settlement.ProcessLeagueWaivers(ctx, leagueID); err != nil {
		log.Error().Err(err).Str("league_id", leagueID.String()).Int("worker_id", workerID).
			Msg("waiver settlement pass failed")
	} else if summary.Processed > 0 {
		log.Info().Str("league_id", leagueID.String()).
			Int("processed", summary.Processed).
			Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).
			Msg("waiver settlement pass complete")
	}

	if summary, err := s.settlement.ProcessLeaguePoaches(ctx, leagueID); err != nil {
		log.Error().Err(err).Str("league_id", leagueID.String()).Int("worker_id", workerID).
			Msg("poach settlement pass failed")
	} else if summary.Processed > 0 {
		log.Info().Str("league_id", leagueID.String()).
			Int("processed", summary.Processed).
			Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).
			Msg("poach settlement pass complete")
	}

	if summary, err := s.transitions.ProcessTransitionBids(ctx, leagueID); err != nil {
		log.Error().Err(err).Str("league_id", leagueID.String()).Int("worker_id", workerID).
			Msg("transition settlement pass failed")
	} else if summary.Awarded+summary.Failed+len(summary.Unresolved) > 0 {
		log.Info().Str("league_id", leagueID.String()).
			Int("awarded", summary.Awarded).
			Int("failed", summary.Failed).
			Int("unresolved", len(summary.Unresolved)).
			Msg("transition settlement pass complete")
	}
}
