package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/platforms"
	"github.com/mcdev12/gridiron/go/internal/roster"
	"github.com/rs/zerolog/log"
)

// LeaguesRepository defines what the orchestrator needs for the internal league.
type LeaguesRepository interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
}

// TeamsRepository defines what the orchestrator needs from the team store.
type TeamsRepository interface {
	UpsertTeamByExternalID(ctx context.Context, t models.Team) (*models.Team, error)
	GetTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Team, error)
}

// PlayersRepository defines what the orchestrator needs from the player store.
type PlayersRepository interface {
	UpsertPlayer(ctx context.Context, p models.Player) (*models.Player, error)
	GetPlayerByExternalID(ctx context.Context, externalID string) (*models.Player, error)
}

// RosterStore defines what the roster merge needs.
type RosterStore interface {
	GetRosterRow(ctx context.Context, teamID uuid.UUID, week, year int) (*models.RosterRow, error)
	CreateRosterRow(ctx context.Context, leagueID, teamID uuid.UUID, week, year int) (*models.RosterRow, error)
	SaveEntries(ctx context.Context, rosterID uuid.UUID, entries []models.RosterEntry) error
}

// Ledger defines the duplicate-tolerant ingest path for external transactions.
type Ledger interface {
	Ingest(ctx context.Context, txn models.Transaction) (bool, error)
}

// FormatStore defines the content-hashed format persistence.
type FormatStore interface {
	UpsertLeagueFormat(ctx context.Context, lg platforms.League) (string, error)
	UpsertScoringFormat(ctx context.Context, sf platforms.ScoringFormat) (string, error)
	LinkSeason(ctx context.Context, leagueID uuid.UUID, year int, formatHash, scoringHash string) error
}

// Orchestrator drives one platform sync run through its pipeline: adapter
// auth, league config, teams, players and rosters, then transactions.
// Config, team and roster failures abort the run; transaction failures are
// recorded and skipped.
type Orchestrator struct {
	leagues   LeaguesRepository
	teams     TeamsRepository
	players   PlayersRepository
	rosters   RosterStore
	ledger    Ledger
	formats   FormatStore
	validator *Validator
	clock     clockwork.Clock
}

func NewOrchestrator(leagues LeaguesRepository, teams TeamsRepository, players PlayersRepository,
	rosters RosterStore, lg Ledger, formats FormatStore, validator *Validator,
	clock clockwork.Clock) *Orchestrator {
	return &Orchestrator{
		leagues:   leagues,
		teams:     teams,
		players:   players,
		rosters:   rosters,
		ledger:    lg,
		formats:   formats,
		validator: validator,
		clock:     clock,
	}
}

// Params selects the platform, the external league and the internal league
// it merges into.
type Params struct {
	Platform            platforms.Platform
	ExternalLeagueID    string
	InternalLeagueID    uuid.UUID
	Credentials         platforms.Credentials
	IncludeTransactions bool
	DryRun              bool
}

func (p Params) validate() error {
	if p.Platform == "" {
		return fmt.Errorf("platform is required")
	}
	if p.ExternalLeagueID == "" {
		return fmt.Errorf("external_league_id is required")
	}
	if p.InternalLeagueID == uuid.Nil {
		return fmt.Errorf("internal_league_id is required")
	}
	return nil
}

// Counts reports what one run touched.
type Counts struct {
	Teams        int `json:"teams"`
	Players      int `json:"players"`
	RosterAdds   int `json:"roster_adds"`
	RosterDrops  int `json:"roster_drops"`
	Transactions int `json:"transactions"`
}

// Result is the standardized report of one sync run. Full-run failures are
// embedded, never raised.
type Result struct {
	Success    bool               `json:"success"`
	Platform   platforms.Platform `json:"platform"`
	Duration   time.Duration      `json:"duration"`
	Counts     Counts             `json:"counts"`
	Errors     []string           `json:"errors,omitempty"`
	Validation ValidationSummary  `json:"validation"`

	League       *platforms.League      `json:"league,omitempty"`
	Teams        []platforms.Team       `json:"teams,omitempty"`
	Rosters      []platforms.Roster     `json:"rosters,omitempty"`
	Players      []platforms.Player     `json:"players,omitempty"`
	Transactions []platforms.Transaction `json:"transactions,omitempty"`
}

func (r *Result) fail(err error) *Result {
	r.Success = false
	r.Errors = append(r.Errors, err.Error())
	return r
}

// Sync runs the full pipeline. It returns an error only for parameter
// validation, before any I/O; every later failure lands in Result.Errors.
func (o *Orchestrator) Sync(ctx context.Context, p Params) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	started := o.clock.Now()
	result := &Result{Platform: p.Platform}
	defer func() {
		result.Duration = o.clock.Now().Sub(started)
	}()

	adapter, err := platforms.Get(p.Platform)
	if err != nil {
		return result.fail(err), nil
	}
	if adapter.RequiresAuthentication() {
		if err := adapter.Authenticate(ctx, p.Credentials); err != nil {
			return result.fail(fmt.Errorf("authentication failed: %w", err)), nil
		}
	}

	internal, err := o.leagues.GetLeague(ctx, p.InternalLeagueID)
	if err != nil {
		return result.fail(fmt.Errorf("internal league not found: %w", err)), nil
	}

	// League config and scoring format. Aborts the run on failure.
	if err := o.syncConfig(ctx, adapter, p, internal, result); err != nil {
		return result.fail(err), nil
	}

	// Teams, players and rosters. Abort on failure.
	teamsByExt, err := o.syncTeams(ctx, adapter, p, internal, result)
	if err != nil {
		return result.fail(err), nil
	}
	playersByExt, err := o.syncPlayers(ctx, adapter, p, internal, result)
	if err != nil {
		return result.fail(err), nil
	}
	if err := o.syncRosters(ctx, adapter, p, internal, teamsByExt, playersByExt, result); err != nil {
		return result.fail(err), nil
	}

	// Transactions are non-fatal: failures are reported, the run stays
	// successful.
	if p.IncludeTransactions {
		if err := o.syncTransactions(ctx, adapter, p, internal, teamsByExt, playersByExt, result); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	result.Success = true
	log.Info().
		Str("platform", string(p.Platform)).
		Str("league_id", p.InternalLeagueID.String()).
		Bool("dry_run", p.DryRun).
		Int("teams", result.Counts.Teams).
		Int("players", result.Counts.Players).
		Int("roster_adds", result.Counts.RosterAdds).
		Int("roster_drops", result.Counts.RosterDrops).
		Int("validation_issues", len(result.Validation.Issues)).
		Msg("sync complete")
	return result, nil
}

// FetchLeagueData is the read-only variant: the full fetch, map and
// validation pipeline with every write suppressed.
func (o *Orchestrator) FetchLeagueData(ctx context.Context, p Params) (*Result, error) {
	p.DryRun = true
	return o.Sync(ctx, p)
}

func (o *Orchestrator) syncConfig(ctx context.Context, adapter platforms.Adapter, p Params,
	internal *models.League, result *Result) error {
	extLeague, err := adapter.GetLeague(ctx, p.ExternalLeagueID)
	if err != nil {
		return fmt.Errorf("league config sync failed: %w", err)
	}
	o.validator.Validate("league", extLeague, &result.Validation)
	result.League = extLeague

	var scoringHash string
	scoring, err := adapter.GetScoringFormat(ctx, p.ExternalLeagueID)
	switch {
	case errors.Is(err, platforms.ErrNotImplemented):
		log.Debug().Str("platform", string(p.Platform)).Msg("scoring format unsupported")
	case err != nil:
		return fmt.Errorf("scoring format sync failed: %w", err)
	default:
		if !p.DryRun {
			scoringHash, err = o.formats.UpsertScoringFormat(ctx, *scoring)
			if err != nil {
				return err
			}
		}
	}

	if p.DryRun {
		return nil
	}
	formatHash, err := o.formats.UpsertLeagueFormat(ctx, *extLeague)
	if err != nil {
		return err
	}
	return o.formats.LinkSeason(ctx, internal.ID, extLeague.Season, formatHash, scoringHash)
}

func (o *Orchestrator) syncTeams(ctx context.Context, adapter platforms.Adapter, p Params,
	internal *models.League, result *Result) (map[string]models.Team, error) {
	extTeams, err := adapter.GetTeams(ctx, p.ExternalLeagueID)
	if err != nil {
		return nil, fmt.Errorf("team sync failed: %w", err)
	}
	result.Teams = extTeams

	byExt := make(map[string]models.Team, len(extTeams))
	if p.DryRun {
		// Resolve against existing internal teams without writing.
		existing, err := o.teams.GetTeamsByLeague(ctx, internal.ID)
		if err != nil {
			return nil, fmt.Errorf("team sync failed: %w", err)
		}
		byID := make(map[string]models.Team, len(existing))
		for _, t := range existing {
			byID[t.ExternalID] = t
		}
		for _, et := range extTeams {
			o.validator.Validate("team", et, &result.Validation)
			if t, ok := byID[et.ExternalID]; ok {
				byExt[et.ExternalID] = t
			}
		}
		result.Counts.Teams = len(extTeams)
		return byExt, nil
	}

	for i, et := range extTeams {
		o.validator.Validate("team", et, &result.Validation)
		team, err := o.teams.UpsertTeamByExternalID(ctx, models.Team{
			LeagueID:    internal.ID,
			ExternalID:  et.ExternalID,
			Name:        et.Name,
			FAAB:        internal.Settings.FAAB,
			WaiverOrder: i + 1,
		})
		if err != nil {
			return nil, fmt.Errorf("team sync failed: %w", err)
		}
		byExt[et.ExternalID] = *team
	}
	result.Counts.Teams = len(extTeams)
	return byExt, nil
}

func (o *Orchestrator) syncPlayers(ctx context.Context, adapter platforms.Adapter, p Params,
	internal *models.League, result *Result) (map[string]models.Player, error) {
	extPlayers, err := adapter.GetPlayers(ctx, p.ExternalLeagueID)
	if err != nil {
		return nil, fmt.Errorf("player sync failed: %w", err)
	}
	result.Players = extPlayers

	byExt := make(map[string]models.Player, len(extPlayers))
	for _, ep := range extPlayers {
		o.validator.Validate("player", ep, &result.Validation)
		mapped := mapPlayer(ep, internal.Year)
		if p.DryRun {
			existing, err := o.players.GetPlayerByExternalID(ctx, ep.ExternalID)
			if err == nil {
				byExt[ep.ExternalID] = *existing
			}
			continue
		}
		stored, err := o.players.UpsertPlayer(ctx, mapped)
		if err != nil {
			return nil, fmt.Errorf("player sync failed: %w", err)
		}
		byExt[ep.ExternalID] = *stored
	}
	result.Counts.Players = len(extPlayers)
	return byExt, nil
}

func (o *Orchestrator) syncRosters(ctx context.Context, adapter platforms.Adapter, p Params,
	internal *models.League, teamsByExt map[string]models.Team,
	playersByExt map[string]models.Player, result *Result) error {
	extRosters, err := adapter.GetRosters(ctx, p.ExternalLeagueID)
	if err != nil {
		return fmt.Errorf("roster sync failed: %w", err)
	}
	result.Rosters = extRosters

	for _, er := range extRosters {
		o.validator.Validate("roster", er, &result.Validation)
		team, ok := teamsByExt[er.ExternalTeamID]
		if !ok {
			return fmt.Errorf("roster sync failed: no internal team for external id %s", er.ExternalTeamID)
		}
		adds, drops, err := o.mergeRoster(ctx, internal, team, er, playersByExt, p.DryRun)
		if err != nil {
			return fmt.Errorf("roster sync failed: %w", err)
		}
		result.Counts.RosterAdds += adds
		result.Counts.RosterDrops += drops
	}
	return nil
}

// mergeRoster diffs one team's internal roster against the external
// membership. Entries for players the platform still holds are untouched,
// so tags, values and slot assignments made by settlement survive sync.
// Re-running against unchanged external data is a no-op.
func (o *Orchestrator) mergeRoster(ctx context.Context, internal *models.League, team models.Team,
	ext platforms.Roster, playersByExt map[string]models.Player, dryRun bool) (int, int, error) {
	row, err := o.rosters.GetRosterRow(ctx, team.ID, internal.Week, internal.Year)
	if errors.Is(err, sql.ErrNoRows) {
		if dryRun {
			row = &models.RosterRow{LeagueID: internal.ID, TeamID: team.ID, Week: internal.Week, Year: internal.Year}
		} else {
			row, err = o.rosters.CreateRosterRow(ctx, internal.ID, team.ID, internal.Week, internal.Year)
			if err != nil {
				return 0, 0, err
			}
		}
	} else if err != nil {
		return 0, 0, err
	}

	desired := make(map[uuid.UUID]bool)
	rst := roster.New(*row, internal.Settings)

	var adds, drops int
	for _, group := range rosterDesignations(ext) {
		for _, extPlayerID := range group.playerIDs {
			player, ok := playersByExt[extPlayerID]
			if !ok {
				log.Warn().
					Str("external_player_id", extPlayerID).
					Str("team_id", team.ID.String()).
					Msg("skipping roster entry for unmapped player")
				continue
			}
			desired[player.ID] = true
			if rst.Has(player.ID) {
				continue
			}
			slot := group.slot
			if group.starter {
				open := rst.OpenSlots(roster.EligibleSlots(player.Position, false, internal.Settings))
				if len(open) > 0 {
					slot = open[0]
				} else {
					slot = models.SlotBench
				}
			}
			rst.AddPlayer(roster.AddPlayerParams{
				PlayerID: player.ID,
				Slot:     slot,
				Pos:      player.Position,
			})
			adds++
		}
	}

	for _, entry := range rst.Players() {
		if !desired[entry.PlayerID] {
			rst.RemovePlayer(entry.PlayerID)
			drops++
		}
	}

	if dryRun || (adds == 0 && drops == 0) {
		return adds, drops, nil
	}
	return adds, drops, o.rosters.SaveEntries(ctx, row.ID, rst.Players())
}

func (o *Orchestrator) syncTransactions(ctx context.Context, adapter platforms.Adapter, p Params,
	internal *models.League, teamsByExt map[string]models.Team,
	playersByExt map[string]models.Player, result *Result) error {
	extTxns, err := adapter.GetTransactions(ctx, p.ExternalLeagueID, internal.Week)
	if errors.Is(err, platforms.ErrNotImplemented) {
		log.Debug().Str("platform", string(p.Platform)).Msg("transaction sync unsupported")
		return nil
	}
	if err != nil {
		return fmt.Errorf("transaction sync failed: %w", err)
	}
	result.Transactions = extTxns

	for _, et := range extTxns {
		o.validator.Validate("transaction", et, &result.Validation)
		txType, ok := mapTransactionKind(et.Kind)
		if !ok {
			continue
		}
		team, ok := teamsByExt[et.ExternalTeamID]
		if !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("transaction %s references unknown team %s", et.ExternalID, et.ExternalTeamID))
			continue
		}
		player, ok := playersByExt[et.ExternalPlayerID]
		if !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("transaction %s references unknown player %s", et.ExternalID, et.ExternalPlayerID))
			continue
		}
		if p.DryRun {
			result.Counts.Transactions++
			continue
		}
		// A deterministic id keyed on the platform event makes re-ingesting
		// the same feed hit the duplicate path instead of double-writing.
		inserted, err := o.ledger.Ingest(ctx, models.Transaction{
			ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(p.Platform)+":"+et.ExternalID)),
			LeagueID:  internal.ID,
			TeamID:    team.ID,
			PlayerID:  player.ID,
			Type:      txType,
			Value:     et.FAAB,
			Week:      et.Week,
			Year:      internal.Year,
			Timestamp: et.OccurredAt,
		})
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("transaction %s ingest failed: %v", et.ExternalID, err))
			continue
		}
		if inserted {
			result.Counts.Transactions++
		}
	}
	return nil
}
