package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/ledger"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/rs/zerolog/log"
)

// rookieDeactivationWindow bounds how long after his draft a rookie may
// still be moved to the practice squad.
const rookieDeactivationWindow = 48 * time.Hour

// RosterRepository defines what the app layer needs from the roster store.
type RosterRepository interface {
	GetRosterRow(ctx context.Context, teamID uuid.UUID, week, year int) (*models.RosterRow, error)
	SaveEntries(ctx context.Context, rosterID uuid.UUID, entries []models.RosterEntry) error
	CopyForward(ctx context.Context, leagueID uuid.UUID, week, year int) error
}

// PlayersRepository defines what the app layer needs for player lookups.
type PlayersRepository interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
}

// LeaguesRepository defines what the app layer needs for league settings.
type LeaguesRepository interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
}

// Ledger defines the slice of the ledger app the roster app writes through.
type Ledger interface {
	Append(ctx context.Context, p ledger.AppendParams) (*models.Transaction, error)
	AcquiredWithin(ctx context.Context, leagueID, playerID uuid.UUID, window time.Duration, types ...models.TransactionType) (bool, error)
}

// App handles validated roster mutations outside of claim settlement:
// activations, reserve moves, tags, extensions and the weekly rollover.
type App struct {
	repo        RosterRepository
	playersRepo PlayersRepository
	leaguesRepo LeaguesRepository
	ledger      Ledger
}

func NewApp(repo RosterRepository, playersRepo PlayersRepository, leaguesRepo LeaguesRepository, lg Ledger) *App {
	return &App{
		repo:        repo,
		playersRepo: playersRepo,
		leaguesRepo: leaguesRepo,
		ledger:      lg,
	}
}

// Load builds the in-memory roster model for (team, week, year).
func (a *App) Load(ctx context.Context, leagueID, teamID uuid.UUID, week, year int) (*Roster, error) {
	lg, err := a.leaguesRepo.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("league not found: %w", err)
	}
	row, err := a.repo.GetRosterRow(ctx, teamID, week, year)
	if err != nil {
		return nil, fmt.Errorf("roster not found: %w", err)
	}
	return New(*row, lg.Settings), nil
}

// Save persists the roster model's entries.
func (a *App) Save(ctx context.Context, r *Roster) error {
	row := r.Row()
	return a.repo.SaveEntries(ctx, row.ID, row.Entries)
}

// Activate moves a practice-squad or reserve player into an open slot from
// his eligible set. Writes a ROSTER_ACTIVATE transaction.
func (a *App) Activate(ctx context.Context, leagueID, teamID, playerID uuid.UUID, week, year int) error {
	r, err := a.Load(ctx, leagueID, teamID, week, year)
	if err != nil {
		return err
	}
	entry, ok := r.Get(playerID)
	if !ok {
		return fmt.Errorf("player not on roster")
	}
	if entry.Slot.Starter() || entry.Slot == models.SlotBench {
		return fmt.Errorf("player already active")
	}
	if !r.HasOpenBenchSlot() {
		return fmt.Errorf("no open bench slot")
	}

	r.MovePlayer(playerID, models.SlotBench)
	if err := a.Save(ctx, r); err != nil {
		return err
	}
	_, err = a.ledger.Append(ctx, ledger.AppendParams{
		LeagueID: leagueID,
		TeamID:   teamID,
		PlayerID: playerID,
		Type:     models.TransactionRosterActivate,
		Value:    entry.Value,
		Week:     week,
		Year:     year,
	})
	return err
}

// Deactivate moves a player to the practice squad. Rookies may only be
// deactivated within 48 hours of their draft transaction; veterans must
// have been added within the same window (a player who has stuck on the
// active roster cannot be stashed).
func (a *App) Deactivate(ctx context.Context, leagueID, teamID, playerID uuid.UUID, week, year int) error {
	r, err := a.Load(ctx, leagueID, teamID, week, year)
	if err != nil {
		return err
	}
	entry, ok := r.Get(playerID)
	if !ok {
		return fmt.Errorf("player not on roster")
	}
	if entry.Slot == models.SlotPS || entry.Slot == models.SlotPSP {
		return fmt.Errorf("player already on practice squad")
	}
	if !r.HasOpenPracticeSquadSlot() {
		return fmt.Errorf("no open practice squad slot")
	}

	recent, err := a.ledger.AcquiredWithin(ctx, leagueID, playerID, rookieDeactivationWindow,
		models.TransactionDraft, models.TransactionRosterAdd)
	if err != nil {
		return err
	}
	if !recent {
		return fmt.Errorf("player is not eligible for deactivation")
	}

	r.MovePlayer(playerID, models.SlotPS)
	if err := a.Save(ctx, r); err != nil {
		return err
	}
	_, err = a.ledger.Append(ctx, ledger.AppendParams{
		LeagueID: leagueID,
		TeamID:   teamID,
		PlayerID: playerID,
		Type:     models.TransactionRosterDeactivate,
		Value:    entry.Value,
		Week:     week,
		Year:     year,
	})
	return err
}

// ReserveIR moves a player to injured reserve. The player's NFL
// designation must permit it and the IR category must have room.
func (a *App) ReserveIR(ctx context.Context, leagueID, teamID, playerID uuid.UUID, week, year int) error {
	r, err := a.Load(ctx, leagueID, teamID, week, year)
	if err != nil {
		return err
	}
	entry, ok := r.Get(playerID)
	if !ok {
		return fmt.Errorf("player not on roster")
	}
	if entry.Slot == models.SlotIR {
		return fmt.Errorf("player already on injured reserve")
	}
	player, err := a.playersRepo.GetPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("player not found: %w", err)
	}
	if !player.ReserveEligible() {
		return fmt.Errorf("player status is not reserve eligible")
	}
	if !r.HasOpenInjuredReserveSlot() {
		return fmt.Errorf("no open injured reserve slot")
	}

	r.MovePlayer(playerID, models.SlotIR)
	if err := a.Save(ctx, r); err != nil {
		return err
	}
	_, err = a.ledger.Append(ctx, ledger.AppendParams{
		LeagueID: leagueID,
		TeamID:   teamID,
		PlayerID: playerID,
		Type:     models.TransactionReserveIR,
		Value:    entry.Value,
		Week:     week,
		Year:     year,
	})
	return err
}

// ApplyTag assigns a franchise/transition/rookie tag, enforcing the league
// per-tag maximum, and writes the matching transaction.
func (a *App) ApplyTag(ctx context.Context, leagueID, teamID, playerID uuid.UUID, tag models.Tag, week, year int) error {
	txnType, err := tagTransaction(tag)
	if err != nil {
		return err
	}
	r, err := a.Load(ctx, leagueID, teamID, week, year)
	if err != nil {
		return err
	}
	entry, ok := r.Get(playerID)
	if !ok {
		return fmt.Errorf("player not on roster")
	}
	if !r.IsEligibleForTag(tag, playerID) {
		return fmt.Errorf("tag limit exceeded for %s", tag)
	}
	if tag == models.TagRookie {
		player, err := a.playersRepo.GetPlayer(ctx, playerID)
		if err != nil {
			return fmt.Errorf("player not found: %w", err)
		}
		if !player.Rookie(year) {
			return fmt.Errorf("player is not a rookie")
		}
	}

	r.SetTag(playerID, tag)
	if err := a.Save(ctx, r); err != nil {
		return err
	}
	_, err = a.ledger.Append(ctx, ledger.AppendParams{
		LeagueID: leagueID,
		TeamID:   teamID,
		PlayerID: playerID,
		Type:     txnType,
		Value:    entry.Value,
		Week:     week,
		Year:     year,
	})
	return err
}

// RemoveTag clears a player's tag. No transaction is written; tags are a
// roster designation, and only their assignment is ledger-visible.
func (a *App) RemoveTag(ctx context.Context, leagueID, teamID, playerID uuid.UUID, week, year int) error {
	r, err := a.Load(ctx, leagueID, teamID, week, year)
	if err != nil {
		return err
	}
	if !r.Has(playerID) {
		return fmt.Errorf("player not on roster")
	}
	r.RemoveTag(playerID)
	return a.Save(ctx, r)
}

// Extend bumps a player's extension count up to the league maximum and
// writes an EXTENSION transaction.
func (a *App) Extend(ctx context.Context, leagueID, teamID, playerID uuid.UUID, week, year int) error {
	lg, err := a.leaguesRepo.GetLeague(ctx, leagueID)
	if err != nil {
		return fmt.Errorf("league not found: %w", err)
	}
	r, err := a.Load(ctx, leagueID, teamID, week, year)
	if err != nil {
		return err
	}
	entry, ok := r.Get(playerID)
	if !ok {
		return fmt.Errorf("player not on roster")
	}
	if entry.Extensions >= lg.Settings.ExtensionMax {
		return fmt.Errorf("extension limit exceeded")
	}

	r.BumpExtensions(playerID)
	if err := a.Save(ctx, r); err != nil {
		return err
	}
	_, err = a.ledger.Append(ctx, ledger.AppendParams{
		LeagueID: leagueID,
		TeamID:   teamID,
		PlayerID: playerID,
		Type:     models.TransactionExtension,
		Value:    entry.Value,
		Week:     week,
		Year:     year,
	})
	return err
}

// Release drops a player and writes a ROSTER_RELEASE transaction.
func (a *App) Release(ctx context.Context, leagueID, teamID, playerID uuid.UUID, week, year int) error {
	r, err := a.Load(ctx, leagueID, teamID, week, year)
	if err != nil {
		return err
	}
	entry, ok := r.Get(playerID)
	if !ok {
		return fmt.Errorf("player not on roster")
	}

	r.RemovePlayer(playerID)
	if err := a.Save(ctx, r); err != nil {
		return err
	}
	_, err = a.ledger.Append(ctx, ledger.AppendParams{
		LeagueID: leagueID,
		TeamID:   teamID,
		PlayerID: playerID,
		Type:     models.TransactionRosterRelease,
		Value:    entry.Value,
		Week:     week,
		Year:     year,
	})
	return err
}

// Rollover copies the league's rosters from week to week+1. Re-runnable.
func (a *App) Rollover(ctx context.Context, leagueID uuid.UUID, week, year int) error {
	if err := a.repo.CopyForward(ctx, leagueID, week, year); err != nil {
		return fmt.Errorf("failed to roll rosters forward: %w", err)
	}
	log.Info().
		Str("league_id", leagueID.String()).
		Int("from_week", week).
		Int("to_week", week+1).
		Msg("rosters rolled forward")
	return nil
}

func tagTransaction(tag models.Tag) (models.TransactionType, error) {
	switch tag {
	case models.TagFranchise:
		return models.TransactionFranchiseTag, nil
	case models.TagTransition:
		return models.TransactionTransitionTag, nil
	case models.TagRookie:
		return models.TransactionRookieTag, nil
	default:
		return "", fmt.Errorf("invalid tag: %s", tag)
	}
}
