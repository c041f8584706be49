package transition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
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

const failureReasonLost = "player no longer a restricted free agent"

// BidsRepository defines what settlement needs from the bid store.
type BidsRepository interface {
	PendingByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.TransitionBid, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time, succeeded bool, reason string) (bool, error)
	MarkProcessedTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, now time.Time, succeeded bool, reason string) (bool, error)
	Cutlist(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error)
}

// RosterStore defines what settlement needs from the roster store.
type RosterStore interface {
	GetRosterRow(ctx context.Context, teamID uuid.UUID, week, year int) (*models.RosterRow, error)
	SaveEntriesTx(ctx context.Context, tx *sql.Tx, rosterID uuid.UUID, entries []models.RosterEntry) error
}

// LeaguesRepository defines what settlement needs for league settings.
type LeaguesRepository interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
}

// Ledger defines the slice of the ledger app settlement writes through.
type Ledger interface {
	AppendTx(ctx context.Context, tx *sql.Tx, p ledger.AppendParams) (*models.Transaction, error)
}

// Settlement resolves a league's restricted-free-agency bids once its
// transition deadline has passed.
type Settlement struct {
	txn     sqlutil.Runner
	bids    BidsRepository
	rosters RosterStore
	leagues LeaguesRepository
	ledger  Ledger
	notify  notify.Dispatcher
	clock   clockwork.Clock
}

func NewSettlement(txn sqlutil.Runner, bids BidsRepository, rosters RosterStore, leagues LeaguesRepository,
	lg Ledger, dispatcher notify.Dispatcher, clock clockwork.Clock) *Settlement {
	return &Settlement{
		txn:     txn,
		bids:    bids,
		rosters: rosters,
		leagues: leagues,
		ledger:  lg,
		notify:  dispatcher,
		clock:   clock,
	}
}

// Summary reports one transition settlement pass. Unresolved lists players
// whose bids tied with no original-team bid present; those need a human
// decision and their bids stay pending.
type Summary struct {
	LeagueID   uuid.UUID
	Awarded    int
	Failed     int
	Unresolved []uuid.UUID
}

// ProcessTransitionBids settles every player with pending bids. For each
// player, the original-rights team's bid wins regardless of amount; absent
// one, the highest bid wins, and a tie is reported rather than auto-broken.
func (s *Settlement) ProcessTransitionBids(ctx context.Context, leagueID uuid.UUID) (*Summary, error) {
	lg, err := s.leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("league not found: %w", err)
	}
	summary := &Summary{LeagueID: leagueID}
	if lg.Settings.TransitionDeadline == nil || s.clock.Now().Before(*lg.Settings.TransitionDeadline) {
		// Bidding is still open; nothing to settle yet.
		return summary, nil
	}

	settled := make(map[uuid.UUID]bool)
	for {
		pending, err := s.bids.PendingByLeague(ctx, leagueID)
		if err != nil {
			return summary, err
		}
		playerID, group, ok := nextPlayerGroup(pending, settled)
		if !ok {
			return summary, nil
		}
		settled[playerID] = true

		winner, resolved := PickWinner(group)
		if !resolved {
			summary.Unresolved = append(summary.Unresolved, playerID)
			s.notify.Send(ctx, notify.Notice{
				LeagueID: leagueID,
				Message:  fmt.Sprintf("transition bids for player %s are tied and need a manual decision", playerID),
				SentAt:   s.clock.Now(),
			})
			continue
		}

		if err := s.award(ctx, lg, winner, group); err != nil {
			if errors.Is(err, errSkip) {
				continue
			}
			var f failure
			if errors.As(err, &f) {
				if marked, markErr := s.bids.MarkProcessed(ctx, winner.ID, s.clock.Now(), false, f.reason); markErr != nil {
					log.Error().Err(markErr).Str("bid_id", winner.ID.String()).Msg("failed to record bid failure")
				} else if marked {
					summary.Failed++
				}
				continue
			}
			return summary, err
		}
		summary.Awarded++
		summary.Failed += len(group) - 1
	}
}

var errSkip = errors.New("bid no longer pending")

type failure struct{ reason string }

func (f failure) Error() string { return f.reason }

// PickWinner applies the first-refusal rule to one player's bids: any bid
// from the original-rights team wins outright; otherwise the highest bid
// wins, and an unbroken tie returns resolved=false. Pure.
func PickWinner(group []models.TransitionBid) (models.TransitionBid, bool) {
	for _, b := range group {
		if b.FromOriginalTeam() {
			return b, true
		}
	}
	best := group[0]
	tied := false
	for _, b := range group[1:] {
		switch {
		case b.Bid > best.Bid:
			best = b
			tied = false
		case b.Bid == best.Bid:
			tied = true
		}
	}
	if tied {
		return models.TransitionBid{}, false
	}
	return best, true
}

// nextPlayerGroup picks the not-yet-visited player with the highest pending
// bid so settlement order is deterministic.
func nextPlayerGroup(pending []models.TransitionBid, settled map[uuid.UUID]bool) (uuid.UUID, []models.TransitionBid, bool) {
	groups := make(map[uuid.UUID][]models.TransitionBid)
	for _, b := range pending {
		if settled[b.PlayerID] {
			continue
		}
		groups[b.PlayerID] = append(groups[b.PlayerID], b)
	}
	if len(groups) == 0 {
		return uuid.Nil, nil, false
	}
	players := make([]uuid.UUID, 0, len(groups))
	for id := range groups {
		players = append(players, id)
	}
	sort.Slice(players, func(i, j int) bool {
		gi, gj := groups[players[i]], groups[players[j]]
		if maxBid(gi) != maxBid(gj) {
			return maxBid(gi) > maxBid(gj)
		}
		return players[i].String() < players[j].String()
	})
	top := players[0]
	return top, groups[top], true
}

func maxBid(group []models.TransitionBid) int {
	max := group[0].Bid
	for _, b := range group[1:] {
		if b.Bid > max {
			max = b.Bid
		}
	}
	return max
}

// award applies the winning bid and fails the rest. All effects commit in
// one database transaction gated on the winning bid still being pending.
func (s *Settlement) award(ctx context.Context, lg *models.League, winner models.TransitionBid, group []models.TransitionBid) error {
	now := s.clock.Now()

	if winner.FromOriginalTeam() {
		// The player stays put; the tag match just resets his value.
		row, err := s.rosters.GetRosterRow(ctx, winner.TeamID, lg.Week, lg.Year)
		if err != nil {
			return fmt.Errorf("roster not found: %w", err)
		}
		r := roster.New(*row, lg.Settings)
		if !r.Has(winner.PlayerID) {
			return failure{reason: "player no longer on original roster"}
		}
		r.UpdateValue(winner.PlayerID, winner.Bid)
		if r.AvailableCap() < 0 {
			return failure{reason: "matching bid exceeds available cap"}
		}
		return s.txn.Run(ctx, func(tx *sql.Tx) error {
			if err := s.claimWinner(ctx, tx, winner, now); err != nil {
				return err
			}
			updated := r.Row()
			if err := s.rosters.SaveEntriesTx(ctx, tx, updated.ID, updated.Entries); err != nil {
				return err
			}
			if _, err := s.ledger.AppendTx(ctx, tx, ledger.AppendParams{
				LeagueID: lg.ID,
				TeamID:   winner.TeamID,
				PlayerID: winner.PlayerID,
				Type:     models.TransactionTransitionTag,
				Value:    winner.Bid,
				Week:     lg.Week,
				Year:     lg.Year,
			}); err != nil {
				return err
			}
			return s.failLosers(ctx, tx, winner, group, now)
		})
	}

	victimRow, err := s.rosters.GetRosterRow(ctx, winner.OriginalTeamID, lg.Week, lg.Year)
	if err != nil {
		return fmt.Errorf("original roster not found: %w", err)
	}
	victim := roster.New(*victimRow, lg.Settings)
	entry, ok := victim.Get(winner.PlayerID)
	if !ok {
		return failure{reason: "player no longer on original roster"}
	}
	victim.RemovePlayer(winner.PlayerID)

	acquirerRow, err := s.rosters.GetRosterRow(ctx, winner.TeamID, lg.Week, lg.Year)
	if err != nil {
		return fmt.Errorf("roster not found: %w", err)
	}
	acquirer := roster.New(*acquirerRow, lg.Settings)

	var released []models.RosterEntry
	for _, playerID := range winner.ReleasePlayerIDs {
		if e, ok := acquirer.Get(playerID); ok {
			released = append(released, e)
			acquirer.RemovePlayer(playerID)
		}
	}

	// Cutlist drops make up any remaining space or cap shortfall.
	cutlist, err := s.bids.Cutlist(ctx, winner.TeamID)
	if err != nil {
		return err
	}
	for _, playerID := range cutlist {
		if acquirer.HasOpenBenchSlot() && acquirer.AvailableCap()-winner.Bid >= 0 {
			break
		}
		if e, ok := acquirer.Get(playerID); ok {
			released = append(released, e)
			acquirer.RemovePlayer(playerID)
		}
	}
	if !acquirer.HasOpenBenchSlot() {
		return failure{reason: "no open bench slot for transition player"}
	}
	if acquirer.AvailableCap()-winner.Bid < 0 {
		return failure{reason: "bid exceeds available cap"}
	}

	acquirer.AddPlayer(roster.AddPlayerParams{
		PlayerID: winner.PlayerID,
		Slot:     models.SlotBench,
		Pos:      entry.Pos,
		Value:    winner.Bid,
	})

	return s.txn.Run(ctx, func(tx *sql.Tx) error {
		if err := s.claimWinner(ctx, tx, winner, now); err != nil {
			return err
		}
		victimUpdated := victim.Row()
		if err := s.rosters.SaveEntriesTx(ctx, tx, victimUpdated.ID, victimUpdated.Entries); err != nil {
			return err
		}
		acquirerUpdated := acquirer.Row()
		if err := s.rosters.SaveEntriesTx(ctx, tx, acquirerUpdated.ID, acquirerUpdated.Entries); err != nil {
			return err
		}
		for _, e := range released {
			if _, err := s.ledger.AppendTx(ctx, tx, ledger.AppendParams{
				LeagueID: lg.ID,
				TeamID:   winner.TeamID,
				PlayerID: e.PlayerID,
				Type:     models.TransactionRosterRelease,
				Value:    e.Value,
				Week:     lg.Week,
				Year:     lg.Year,
			}); err != nil {
				return err
			}
		}
		if _, err := s.ledger.AppendTx(ctx, tx, ledger.AppendParams{
			LeagueID: lg.ID,
			TeamID:   winner.TeamID,
			PlayerID: winner.PlayerID,
			Type:     models.TransactionTransitionTag,
			Value:    winner.Bid,
			Week:     lg.Week,
			Year:     lg.Year,
		}); err != nil {
			return err
		}
		return s.failLosers(ctx, tx, winner, group, now)
	})
}

func (s *Settlement) claimWinner(ctx context.Context, tx *sql.Tx, winner models.TransitionBid, now time.Time) error {
	marked, err := s.bids.MarkProcessedTx(ctx, tx, winner.ID, now, true, "")
	if err != nil {
		return err
	}
	if !marked {
		return errSkip
	}
	return nil
}

func (s *Settlement) failLosers(ctx context.Context, tx *sql.Tx, winner models.TransitionBid, group []models.TransitionBid, now time.Time) error {
	for _, b := range group {
		if b.ID == winner.ID {
			continue
		}
		if _, err := s.bids.MarkProcessedTx(ctx, tx, b.ID, now, false, failureReasonLost); err != nil {
			return err
		}
	}
	return nil
}
