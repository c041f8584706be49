package waivers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gridiron/go/internal/ledger"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/notify"
	"github.com/mcdev12/gridiron/go/internal/roster"
	"github.com/mcdev12/gridiron/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
)

// ClaimsRepository defines what settlement needs from the claim store.
type ClaimsRepository interface {
	PendingByLeague(ctx context.Context, leagueID uuid.UUID, types ...models.WaiverType) ([]models.WaiverClaim, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time, succeeded bool, reason string) (bool, error)
	MarkProcessedTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, now time.Time, succeeded bool, reason string) (bool, error)
	CancelMootClaims(ctx context.Context, leagueID, teamID, playerID, wonClaimID uuid.UUID, now time.Time) error
}

// RosterStore defines what settlement needs from the roster store.
type RosterStore interface {
	GetRosterRow(ctx context.Context, teamID uuid.UUID, week, year int) (*models.RosterRow, error)
	SaveEntriesTx(ctx context.Context, tx *sql.Tx, rosterID uuid.UUID, entries []models.RosterEntry) error
	PlayerRostered(ctx context.Context, leagueID, playerID uuid.UUID, week, year int) (bool, error)
	FindPlayerEntry(ctx context.Context, leagueID, playerID uuid.UUID, week, year int) (*models.RosterRow, *models.RosterEntry, error)
}

// LeaguesRepository defines what settlement needs for league settings.
type LeaguesRepository interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
}

// TeamsRepository defines what settlement needs from the teams store.
type TeamsRepository interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	DebitFAABTx(ctx context.Context, tx *sql.Tx, teamID uuid.UUID, amount int) error
	SetWaiverOrderTx(ctx context.Context, tx *sql.Tx, teamID uuid.UUID, order int) error
	MaxWaiverOrder(ctx context.Context, leagueID uuid.UUID) (int, error)
}

// PlayersRepository defines what settlement needs for player lookups.
type PlayersRepository interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
}

// Ledger defines the slice of the ledger app settlement writes through.
type Ledger interface {
	AppendTx(ctx context.Context, tx *sql.Tx, p ledger.AppendParams) (*models.Transaction, error)
	CurrentValue(ctx context.Context, leagueID, playerID uuid.UUID) (int, error)
	AcquiredWithin(ctx context.Context, leagueID, playerID uuid.UUID, window time.Duration, types ...models.TransactionType) (bool, error)
}

// errSkip marks a claim lost to a concurrent settlement run; the loop moves
// on without recording anything.
var errSkip = errors.New("claim no longer pending")

// failure carries a claim-level validation verdict. It terminates the claim
// with a reason but never the batch.
type failure struct{ reason string }

func (f failure) Error() string { return f.reason }

// Settlement drives the claim queue, roster model and ledger to process one
// league's pending claims to completion.
type Settlement struct {
	txn     sqlutil.Runner
	claims  ClaimsRepository
	rosters RosterStore
	leagues LeaguesRepository
	teams   TeamsRepository
	players PlayersRepository
	ledger  Ledger
	notify  notify.Dispatcher
	clock   clockwork.Clock
}

func NewSettlement(txn sqlutil.Runner, claims ClaimsRepository, rosters RosterStore, leagues LeaguesRepository,
	teams TeamsRepository, players PlayersRepository, lg Ledger, dispatcher notify.Dispatcher,
	clock clockwork.Clock) *Settlement {
	return &Settlement{
		txn:     txn,
		claims:  claims,
		rosters: rosters,
		leagues: leagues,
		teams:   teams,
		players: players,
		ledger:  lg,
		notify:  dispatcher,
		clock:   clock,
	}
}

// Summary reports one settlement pass.
type Summary struct {
	LeagueID  uuid.UUID
	Processed int
	Succeeded int
	Failed    int
}

// ProcessLeagueWaivers settles the league's pending free-agency claims,
// looping until no claim is ready. Per-claim failures are recorded with a
// reason and never abort the batch.
func (s *Settlement) ProcessLeagueWaivers(ctx context.Context, leagueID uuid.UUID) (*Summary, error) {
	lg, err := s.leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("league not found: %w", err)
	}

	summary := &Summary{LeagueID: leagueID}
	attempted := make(map[uuid.UUID]bool)
	for {
		pending, err := s.claims.PendingByLeague(ctx, leagueID,
			models.WaiverFreeAgency, models.WaiverFreeAgencyPractice)
		if err != nil {
			return summary, err
		}
		ready := s.readyFreeAgencyClaims(pending, lg.Settings, attempted)
		claim, ok := TopClaim(ready, lg.Settings.WaiverMode)
		if !ok {
			return summary, nil
		}
		s.settleFreeAgencyClaim(ctx, lg, claim, summary)
		attempted[claim.ID] = true
	}
}

// ProcessLeaguePoaches settles the league's pending practice-squad poach
// claims in strict waiver-priority order. Claims inside the 24-hour
// protection window stay pending for a later pass.
func (s *Settlement) ProcessLeaguePoaches(ctx context.Context, leagueID uuid.UUID) (*Summary, error) {
	lg, err := s.leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("league not found: %w", err)
	}

	summary := &Summary{LeagueID: leagueID}
	settled := make(map[uuid.UUID]bool)
	for {
		pending, err := s.claims.PendingByLeague(ctx, leagueID, models.WaiverPoach)
		if err != nil {
			return summary, err
		}
		var ready []models.WaiverClaim
		for _, c := range pending {
			if settled[c.ID] {
				// Gated last pass; nothing changed it since.
				continue
			}
			shielded, err := s.ledger.AcquiredWithin(ctx, leagueID, c.PlayerID, PoachWindow,
				models.TransactionRosterDeactivate, models.TransactionDraft, models.TransactionPracticeAdd)
			if err != nil {
				return summary, err
			}
			if shielded {
				settled[c.ID] = true
				continue
			}
			ready = append(ready, c)
		}
		claim, ok := TopClaim(ready, lg.Settings.WaiverMode)
		if !ok {
			return summary, nil
		}
		s.settlePoachClaim(ctx, lg, claim, summary)
		settled[claim.ID] = true
	}
}

func (s *Settlement) readyFreeAgencyClaims(pending []models.WaiverClaim, settings models.LeagueSettings, attempted map[uuid.UUID]bool) []models.WaiverClaim {
	now := s.clock.Now()
	var ready []models.WaiverClaim
	for _, c := range pending {
		if attempted[c.ID] {
			// Attempted this pass and left pending by an infrastructure
			// error; retried on the next scheduled run, not this one.
			continue
		}
		if c.Type == models.WaiverFreeAgencyPractice && !PracticeWindowOpen(settings, now) {
			continue
		}
		ready = append(ready, c)
	}
	return ready
}

func (s *Settlement) settleFreeAgencyClaim(ctx context.Context, lg *models.League, claim models.WaiverClaim, summary *Summary) {
	err := s.executeFreeAgencyWin(ctx, lg, claim)
	s.recordOutcome(ctx, lg, claim, err, summary)
}

func (s *Settlement) settlePoachClaim(ctx context.Context, lg *models.League, claim models.WaiverClaim, summary *Summary) {
	err := s.executePoachWin(ctx, lg, claim)
	s.recordOutcome(ctx, lg, claim, err, summary)
}

// recordOutcome terminates the claim per the execution result: nil means the
// win committed (the claim was marked inside its transaction), a failure
// marks PROCESSED_FAILURE with the reason, errSkip means a concurrent run
// already owns the claim, and anything else is an infrastructure error that
// leaves the claim pending for the next pass.
func (s *Settlement) recordOutcome(ctx context.Context, lg *models.League, claim models.WaiverClaim, err error, summary *Summary) {
	switch {
	case err == nil:
		summary.Processed++
		summary.Succeeded++
		s.notify.Send(ctx, notify.Notice{
			LeagueID: lg.ID,
			Message:  fmt.Sprintf("waiver claim processed: team %s acquired player %s", claim.TeamID, claim.PlayerID),
			SentAt:   s.clock.Now(),
		})
	case errors.Is(err, errSkip):
		log.Debug().Str("claim_id", claim.ID.String()).Msg("claim settled by concurrent run")
	default:
		var f failure
		if !errors.As(err, &f) {
			log.Error().Err(err).Str("claim_id", claim.ID.String()).Msg("claim execution error")
			f = failure{reason: "settlement error"}
		}
		marked, markErr := s.claims.MarkProcessed(ctx, claim.ID, s.clock.Now(), false, f.reason)
		if markErr != nil {
			log.Error().Err(markErr).Str("claim_id", claim.ID.String()).Msg("failed to record claim failure")
			return
		}
		if marked {
			summary.Processed++
			summary.Failed++
			log.Info().
				Str("claim_id", claim.ID.String()).
				Str("reason", f.reason).
				Msg("claim failed")
		}
	}
}

// executeFreeAgencyWin validates and applies one free-agency claim. All
// effects - drop removal, bench/practice add, ledger rows, FAAB debit,
// priority reshuffle and the claim's terminal update - commit in one
// database transaction gated on the claim still being pending.
func (s *Settlement) executeFreeAgencyWin(ctx context.Context, lg *models.League, claim models.WaiverClaim) error {
	player, err := s.players.GetPlayer(ctx, claim.PlayerID)
	if err != nil {
		return fmt.Errorf("player not found: %w", err)
	}

	rostered, err := s.rosters.PlayerRostered(ctx, lg.ID, claim.PlayerID, lg.Week, lg.Year)
	if err != nil {
		return err
	}
	if rostered {
		return failure{reason: "player rostered"}
	}

	if lg.Settings.WaiverMode == models.WaiverModeFAAB && claim.Bid > 0 {
		team, err := s.teams.GetTeam(ctx, claim.TeamID)
		if err != nil {
			return fmt.Errorf("team not found: %w", err)
		}
		if claim.Bid > team.FAAB {
			return failure{reason: "bid exceeds available FAAB budget"}
		}
	}

	row, err := s.rosters.GetRosterRow(ctx, claim.TeamID, lg.Week, lg.Year)
	if err != nil {
		return fmt.Errorf("roster not found: %w", err)
	}
	r := roster.New(*row, lg.Settings)

	var dropEntry *models.RosterEntry
	if claim.DropPlayerID != nil {
		entry, ok := r.Get(*claim.DropPlayerID)
		if !ok {
			return failure{reason: "drop player not on roster"}
		}
		dropEntry = &entry
		r.RemovePlayer(*claim.DropPlayerID)
	}

	targetSlot := models.SlotBench
	txnType := models.TransactionRosterAdd
	if claim.Type == models.WaiverFreeAgencyPractice {
		targetSlot = models.SlotPS
		txnType = models.TransactionPracticeAdd
		if !r.HasOpenPracticeSquadSlot() {
			return failure{reason: "no open practice squad slot"}
		}
	} else if !r.HasOpenBenchSlot() {
		return failure{reason: "no open bench slot"}
	}
	if !r.ReserveCompliant() {
		return failure{reason: "roster reserve limits exceeded"}
	}
	if r.AvailableCap()-claim.Bid < 0 {
		return failure{reason: "bid exceeds available cap"}
	}

	r.AddPlayer(roster.AddPlayerParams{
		PlayerID: claim.PlayerID,
		Slot:     targetSlot,
		Pos:      player.Position,
		Value:    claim.Bid,
	})

	maxOrder, err := s.teams.MaxWaiverOrder(ctx, lg.ID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.txn.Run(ctx, func(tx *sql.Tx) error {
		marked, err := s.claims.MarkProcessedTx(ctx, tx, claim.ID, now, true, "")
		if err != nil {
			return err
		}
		if !marked {
			return errSkip
		}
		updated := r.Row()
		if err := s.rosters.SaveEntriesTx(ctx, tx, updated.ID, updated.Entries); err != nil {
			return err
		}
		if dropEntry != nil {
			if _, err := s.ledger.AppendTx(ctx, tx, ledger.AppendParams{
				LeagueID: lg.ID,
				TeamID:   claim.TeamID,
				PlayerID: dropEntry.PlayerID,
				Type:     models.TransactionRosterRelease,
				Value:    dropEntry.Value,
				Week:     lg.Week,
				Year:     lg.Year,
			}); err != nil {
				return err
			}
		}
		if _, err := s.ledger.AppendTx(ctx, tx, ledger.AppendParams{
			LeagueID: lg.ID,
			TeamID:   claim.TeamID,
			PlayerID: claim.PlayerID,
			Type:     txnType,
			Value:    claim.Bid,
			Week:     lg.Week,
			Year:     lg.Year,
		}); err != nil {
			return err
		}
		if lg.Settings.WaiverMode == models.WaiverModeFAAB && claim.Bid > 0 {
			if err := s.teams.DebitFAABTx(ctx, tx, claim.TeamID, claim.Bid); err != nil {
				return err
			}
		}
		// Winner's priority moves to the back of the order.
		return s.teams.SetWaiverOrderTx(ctx, tx, claim.TeamID, maxOrder+1)
	})
	if err != nil {
		return err
	}

	if err := s.claims.CancelMootClaims(ctx, lg.ID, claim.TeamID, claim.PlayerID, claim.ID, now); err != nil {
		log.Error().Err(err).Str("claim_id", claim.ID.String()).Msg("failed to cancel moot claims")
	}
	return nil
}

// executePoachWin validates and applies one poach claim: an optional drop
// opens room first, then the player moves from the victim's practice squad
// to the claimant's bench.
func (s *Settlement) executePoachWin(ctx context.Context, lg *models.League, claim models.WaiverClaim) error {
	victimRow, entry, err := s.rosters.FindPlayerEntry(ctx, lg.ID, claim.PlayerID, lg.Week, lg.Year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return failure{reason: "player is not on a practice squad"}
		}
		return err
	}
	if entry.Slot == models.SlotPSP {
		return failure{reason: "player is protected"}
	}
	if entry.Slot != models.SlotPS {
		return failure{reason: "player is not on a practice squad"}
	}
	if victimRow.TeamID == claim.TeamID {
		return failure{reason: "cannot poach own player"}
	}

	claimantRow, err := s.rosters.GetRosterRow(ctx, claim.TeamID, lg.Week, lg.Year)
	if err != nil {
		return fmt.Errorf("roster not found: %w", err)
	}
	claimant := roster.New(*claimantRow, lg.Settings)

	var dropEntry *models.RosterEntry
	if claim.DropPlayerID != nil {
		e, ok := claimant.Get(*claim.DropPlayerID)
		if !ok {
			return failure{reason: "drop player not on roster"}
		}
		dropEntry = &e
		claimant.RemovePlayer(*claim.DropPlayerID)
	}

	if !claimant.HasOpenBenchSlot() {
		return failure{reason: "no open bench slot"}
	}
	if !claimant.ReserveCompliant() {
		return failure{reason: "roster reserve limits exceeded"}
	}
	if claimant.AvailableCap()-entry.Value < 0 {
		return failure{reason: "player value exceeds available cap"}
	}

	victim := roster.New(*victimRow, lg.Settings)
	victim.RemovePlayer(claim.PlayerID)
	claimant.AddPlayer(roster.AddPlayerParams{
		PlayerID: claim.PlayerID,
		Slot:     models.SlotBench,
		Pos:      entry.Pos,
		Value:    entry.Value,
	})

	now := s.clock.Now()
	return s.txn.Run(ctx, func(tx *sql.Tx) error {
		marked, err := s.claims.MarkProcessedTx(ctx, tx, claim.ID, now, true, "")
		if err != nil {
			return err
		}
		if !marked {
			return errSkip
		}
		victimUpdated := victim.Row()
		if err := s.rosters.SaveEntriesTx(ctx, tx, victimUpdated.ID, victimUpdated.Entries); err != nil {
			return err
		}
		claimantUpdated := claimant.Row()
		if err := s.rosters.SaveEntriesTx(ctx, tx, claimantUpdated.ID, claimantUpdated.Entries); err != nil {
			return err
		}
		if dropEntry != nil {
			if _, err := s.ledger.AppendTx(ctx, tx, ledger.AppendParams{
				LeagueID: lg.ID,
				TeamID:   claim.TeamID,
				PlayerID: dropEntry.PlayerID,
				Type:     models.TransactionRosterRelease,
				Value:    dropEntry.Value,
				Week:     lg.Week,
				Year:     lg.Year,
			}); err != nil {
				return err
			}
		}
		_, err = s.ledger.AppendTx(ctx, tx, ledger.AppendParams{
			LeagueID: lg.ID,
			TeamID:   claim.TeamID,
			PlayerID: claim.PlayerID,
			Type:     models.TransactionPoached,
			Value:    entry.Value,
			Week:     lg.Week,
			Year:     lg.Year,
		})
		return err
	})
}
