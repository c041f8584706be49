package trades

import (
	"context"
	"database/sql"
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

// TradesRepository defines what the app layer needs from the trade store.
type TradesRepository interface {
	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	CreateTrade(ctx context.Context, t models.Trade) (*models.Trade, error)
	MarkAcceptedTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, now time.Time) (bool, error)
	MarkTerminal(ctx context.Context, id uuid.UUID, state models.TradeState, now time.Time) (bool, error)
}

// RosterStore defines what trade execution needs from the roster store.
type RosterStore interface {
	GetRosterRow(ctx context.Context, teamID uuid.UUID, week, year int) (*models.RosterRow, error)
	SaveEntriesTx(ctx context.Context, tx *sql.Tx, rosterID uuid.UUID, entries []models.RosterEntry) error
}

// LeaguesRepository defines what the app layer needs for league settings.
type LeaguesRepository interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
}

// PicksRepository defines what trade execution needs from the draft store.
type PicksRepository interface {
	GetPicks(ctx context.Context, ids []uuid.UUID) ([]models.DraftPick, error)
	ReassignOwnerTx(ctx context.Context, tx *sql.Tx, pickID, teamID uuid.UUID) error
}

// Ledger defines the slice of the ledger app trades write through.
type Ledger interface {
	AppendTx(ctx context.Context, tx *sql.Tx, p ledger.AppendParams) (*models.Transaction, error)
	CurrentValue(ctx context.Context, leagueID, playerID uuid.UUID) (int, error)
}

// App runs the trade lifecycle. A trade is a pure proposal until Accept;
// no roster or ledger state changes before then, and Accept applies every
// effect of both sides in one DB transaction.
type App struct {
	txn     sqlutil.Runner
	trades  TradesRepository
	rosters RosterStore
	leagues LeaguesRepository
	picks   PicksRepository
	ledger  Ledger
	notify  notify.Dispatcher
	clock   clockwork.Clock
}

func NewApp(txn sqlutil.Runner, trades TradesRepository, rosters RosterStore, leagues LeaguesRepository,
	picks PicksRepository, lg Ledger, dispatcher notify.Dispatcher, clock clockwork.Clock) *App {
	return &App{
		txn:     txn,
		trades:  trades,
		rosters: rosters,
		leagues: leagues,
		picks:   picks,
		ledger:  lg,
		notify:  dispatcher,
		clock:   clock,
	}
}

// OfferParams carries one trade proposal.
type OfferParams struct {
	LeagueID        uuid.UUID
	ProposingTeamID uuid.UUID
	AcceptingTeamID uuid.UUID
	UserID          uuid.UUID

	SentPlayerIDs     []uuid.UUID
	SentPickIDs       []uuid.UUID
	ReceivedPlayerIDs []uuid.UUID
	ReceivedPickIDs   []uuid.UUID
	DropPlayerIDs     map[uuid.UUID][]uuid.UUID
}

func (p OfferParams) validate() error {
	if p.ProposingTeamID == p.AcceptingTeamID {
		return fmt.Errorf("cannot trade with yourself")
	}
	if len(p.SentPlayerIDs)+len(p.SentPickIDs) == 0 {
		return fmt.Errorf("proposing team must send at least one asset")
	}
	if len(p.ReceivedPlayerIDs)+len(p.ReceivedPickIDs) == 0 {
		return fmt.Errorf("accepting team must send at least one asset")
	}
	return nil
}

// Offer validates asset ownership and records the proposal. Nothing moves
// until the other side accepts.
func (a *App) Offer(ctx context.Context, p OfferParams) (*models.Trade, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	lg, err := a.leagues.GetLeague(ctx, p.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("league not found: %w", err)
	}
	now := a.clock.Now()
	if lg.Settings.TradeDeadline != nil && now.After(*lg.Settings.TradeDeadline) {
		return nil, fmt.Errorf("trade deadline has passed")
	}

	if err := a.verifyAssets(ctx, lg, p.ProposingTeamID, p.SentPlayerIDs, p.SentPickIDs, p.DropPlayerIDs[p.ProposingTeamID]); err != nil {
		return nil, err
	}
	if err := a.verifyAssets(ctx, lg, p.AcceptingTeamID, p.ReceivedPlayerIDs, p.ReceivedPickIDs, p.DropPlayerIDs[p.AcceptingTeamID]); err != nil {
		return nil, err
	}

	trade, err := a.trades.CreateTrade(ctx, models.Trade{
		LeagueID:          p.LeagueID,
		ProposingTeamID:   p.ProposingTeamID,
		AcceptingTeamID:   p.AcceptingTeamID,
		UserID:            p.UserID,
		SentPlayerIDs:     p.SentPlayerIDs,
		SentPickIDs:       p.SentPickIDs,
		ReceivedPlayerIDs: p.ReceivedPlayerIDs,
		ReceivedPickIDs:   p.ReceivedPickIDs,
		DropPlayerIDs:     p.DropPlayerIDs,
		Offered:           now,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("trade_id", trade.ID.String()).
		Str("league_id", trade.LeagueID.String()).
		Str("proposing_team_id", trade.ProposingTeamID.String()).
		Str("accepting_team_id", trade.AcceptingTeamID.String()).
		Msg("trade offered")
	a.notify.Send(ctx, notify.Notice{
		LeagueID: trade.LeagueID,
		TeamIDs:  []uuid.UUID{trade.AcceptingTeamID},
		Message:  "trade offer received",
		SentAt:   now,
	})
	return trade, nil
}

// verifyAssets checks the team actually holds every player and pick it is
// putting into the trade, and that every drop is on its roster.
func (a *App) verifyAssets(ctx context.Context, lg *models.League, teamID uuid.UUID,
	playerIDs, pickIDs, dropIDs []uuid.UUID) error {
	row, err := a.rosters.GetRosterRow(ctx, teamID, lg.Week, lg.Year)
	if err != nil {
		return fmt.Errorf("roster not found for team %s: %w", teamID, err)
	}
	rst := roster.New(*row, lg.Settings)
	for _, pid := range playerIDs {
		if !rst.Has(pid) {
			return fmt.Errorf("player %s not on roster of team %s", pid, teamID)
		}
	}
	for _, pid := range dropIDs {
		if !rst.Has(pid) {
			return fmt.Errorf("drop player %s not on roster of team %s", pid, teamID)
		}
	}
	if len(pickIDs) > 0 {
		picks, err := a.picks.GetPicks(ctx, pickIDs)
		if err != nil {
			return fmt.Errorf("failed to load draft picks: %w", err)
		}
		if len(picks) != len(pickIDs) {
			return fmt.Errorf("draft pick not found")
		}
		for _, pick := range picks {
			if pick.TeamID != teamID {
				return fmt.Errorf("draft pick %s not owned by team %s", pick.ID, teamID)
			}
			if !pick.Unclaimed() {
				return fmt.Errorf("draft pick %s already used", pick.ID)
			}
		}
	}
	return nil
}

// Accept executes the trade. Ownership is re-verified against the current
// rosters, both sides are mutated in memory, and every effect lands in one
// DB transaction guarded by the conditional accepted-timestamp update.
func (a *App) Accept(ctx context.Context, tradeID uuid.UUID) error {
	trade, err := a.trades.GetTrade(ctx, tradeID)
	if err != nil {
		return err
	}
	if !trade.Open() {
		return fmt.Errorf("no valid trade")
	}
	lg, err := a.leagues.GetLeague(ctx, trade.LeagueID)
	if err != nil {
		return fmt.Errorf("league not found: %w", err)
	}
	now := a.clock.Now()
	if lg.Settings.TradeDeadline != nil && now.After(*lg.Settings.TradeDeadline) {
		return fmt.Errorf("trade deadline has passed")
	}

	// Assets may have moved since the offer.
	if err := a.verifyAssets(ctx, lg, trade.ProposingTeamID, trade.SentPlayerIDs, trade.SentPickIDs, trade.DropPlayerIDs[trade.ProposingTeamID]); err != nil {
		return err
	}
	if err := a.verifyAssets(ctx, lg, trade.AcceptingTeamID, trade.ReceivedPlayerIDs, trade.ReceivedPickIDs, trade.DropPlayerIDs[trade.AcceptingTeamID]); err != nil {
		return err
	}

	proposingRow, err := a.rosters.GetRosterRow(ctx, trade.ProposingTeamID, lg.Week, lg.Year)
	if err != nil {
		return fmt.Errorf("roster not found: %w", err)
	}
	acceptingRow, err := a.rosters.GetRosterRow(ctx, trade.AcceptingTeamID, lg.Week, lg.Year)
	if err != nil {
		return fmt.Errorf("roster not found: %w", err)
	}
	proposing := roster.New(*proposingRow, lg.Settings)
	accepting := roster.New(*acceptingRow, lg.Settings)

	// Drops open room before any placement. The release rows carry the
	// dropped entry's value, same as the waiver drop path.
	var dropped []movedPlayer
	for _, pid := range trade.DropPlayerIDs[trade.ProposingTeamID] {
		entry, _ := proposing.Get(pid)
		proposing.RemovePlayer(pid)
		dropped = append(dropped, movedPlayer{playerID: pid, teamID: trade.ProposingTeamID, value: entry.Value})
	}
	for _, pid := range trade.DropPlayerIDs[trade.AcceptingTeamID] {
		entry, _ := accepting.Get(pid)
		accepting.RemovePlayer(pid)
		dropped = append(dropped, movedPlayer{playerID: pid, teamID: trade.AcceptingTeamID, value: entry.Value})
	}

	sent, err := a.movePlayers(ctx, lg, trade.SentPlayerIDs, proposing, accepting, trade.AcceptingTeamID)
	if err != nil {
		return err
	}
	received, err := a.movePlayers(ctx, lg, trade.ReceivedPlayerIDs, accepting, proposing, trade.ProposingTeamID)
	if err != nil {
		return err
	}
	moved := append(sent, received...)

	if proposing.AvailableCap() < 0 || accepting.AvailableCap() < 0 {
		return fmt.Errorf("trade violates salary cap")
	}

	err = a.txn.Run(ctx, func(tx *sql.Tx) error {
		ok, err := a.trades.MarkAcceptedTx(ctx, tx, trade.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no valid trade")
		}
		if err := a.rosters.SaveEntriesTx(ctx, tx, proposingRow.ID, proposing.Players()); err != nil {
			return err
		}
		if err := a.rosters.SaveEntriesTx(ctx, tx, acceptingRow.ID, accepting.Players()); err != nil {
			return err
		}
		for _, d := range dropped {
			if _, err := a.ledger.AppendTx(ctx, tx, ledger.AppendParams{
				LeagueID: trade.LeagueID,
				TeamID:   d.teamID,
				PlayerID: d.playerID,
				Type:     models.TransactionRosterRelease,
				Value:    d.value,
				Week:     lg.Week,
				Year:     lg.Year,
			}); err != nil {
				return err
			}
		}
		for _, m := range moved {
			if _, err := a.ledger.AppendTx(ctx, tx, ledger.AppendParams{
				LeagueID: trade.LeagueID,
				TeamID:   m.teamID,
				PlayerID: m.playerID,
				Type:     models.TransactionTrade,
				Value:    m.value,
				Week:     lg.Week,
				Year:     lg.Year,
			}); err != nil {
				return err
			}
		}
		for _, pickID := range trade.SentPickIDs {
			if err := a.picks.ReassignOwnerTx(ctx, tx, pickID, trade.AcceptingTeamID); err != nil {
				return err
			}
		}
		for _, pickID := range trade.ReceivedPickIDs {
			if err := a.picks.ReassignOwnerTx(ctx, tx, pickID, trade.ProposingTeamID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("trade_id", trade.ID.String()).
		Str("league_id", trade.LeagueID.String()).
		Int("players_moved", len(moved)).
		Int("picks_moved", len(trade.SentPickIDs)+len(trade.ReceivedPickIDs)).
		Msg("trade accepted")
	a.notify.Send(ctx, notify.Notice{
		LeagueID: trade.LeagueID,
		TeamIDs:  []uuid.UUID{trade.ProposingTeamID, trade.AcceptingTeamID},
		Message:  "trade accepted",
		SentAt:   now,
	})
	return nil
}

type movedPlayer struct {
	playerID uuid.UUID
	teamID   uuid.UUID
	value    int
}

// movePlayers removes each player from the sending roster and places them
// in the first open slot of the receiving roster, carrying the ledger value
// across teams.
func (a *App) movePlayers(ctx context.Context, lg *models.League, playerIDs []uuid.UUID,
	from, to *roster.Roster, toTeamID uuid.UUID) ([]movedPlayer, error) {
	var moved []movedPlayer
	for _, pid := range playerIDs {
		entry, ok := from.Get(pid)
		if !ok {
			return nil, fmt.Errorf("player %s not on roster", pid)
		}
		from.RemovePlayer(pid)

		open := to.OpenSlots(roster.EligibleSlots(entry.Pos, true, lg.Settings))
		if len(open) == 0 {
			return nil, fmt.Errorf("no slots available on receiving roster")
		}
		value, err := a.ledger.CurrentValue(ctx, lg.ID, pid)
		if err != nil {
			return nil, err
		}
		to.AddPlayer(roster.AddPlayerParams{
			PlayerID: pid,
			Slot:     open[0],
			Pos:      entry.Pos,
			Value:    value,
		})
		moved = append(moved, movedPlayer{playerID: pid, teamID: toTeamID, value: value})
	}
	return moved, nil
}

// Reject terminates the trade on behalf of the accepting team.
func (a *App) Reject(ctx context.Context, tradeID uuid.UUID) error {
	return a.terminate(ctx, tradeID, models.TradeStateRejected, "trade rejected")
}

// Cancel terminates the trade on behalf of the proposing team.
func (a *App) Cancel(ctx context.Context, tradeID uuid.UUID) error {
	return a.terminate(ctx, tradeID, models.TradeStateCancelled, "trade cancelled")
}

// Veto terminates the trade on behalf of the commissioner.
func (a *App) Veto(ctx context.Context, tradeID uuid.UUID) error {
	return a.terminate(ctx, tradeID, models.TradeStateVetoed, "trade vetoed")
}

func (a *App) terminate(ctx context.Context, tradeID uuid.UUID, state models.TradeState, message string) error {
	trade, err := a.trades.GetTrade(ctx, tradeID)
	if err != nil {
		return err
	}
	now := a.clock.Now()
	ok, err := a.trades.MarkTerminal(ctx, tradeID, state, now)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no valid trade")
	}
	log.Info().
		Str("trade_id", tradeID.String()).
		Str("state", string(state)).
		Msg("trade terminated")
	a.notify.Send(ctx, notify.Notice{
		LeagueID: trade.LeagueID,
		TeamIDs:  []uuid.UUID{trade.ProposingTeamID, trade.AcceptingTeamID},
		Message:  message,
		SentAt:   now,
	})
	return nil
}
