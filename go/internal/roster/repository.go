package roster

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/sqlutil"
)

// Repository persists roster rows and their entries.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetRosterRow loads the roster row and its entries for (team, week, year).
func (r *Repository) GetRosterRow(ctx context.Context, teamID uuid.UUID, week, year int) (*models.RosterRow, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, league_id, team_id, week, year
		FROM rosters
		WHERE team_id = $1 AND week = $2 AND year = $3`,
		teamID, week, year)

	var rr models.RosterRow
	if err := row.Scan(&rr.ID, &rr.LeagueID, &rr.TeamID, &rr.Week, &rr.Year); err != nil {
		return nil, fmt.Errorf("failed to get roster row: %w", err)
	}

	entries, err := r.listEntries(ctx, rr.ID)
	if err != nil {
		return nil, err
	}
	rr.Entries = entries
	return &rr, nil
}

// GetRosterRowsByLeague loads every team's roster row for (league, week, year).
func (r *Repository) GetRosterRowsByLeague(ctx context.Context, leagueID uuid.UUID, week, year int) ([]models.RosterRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, league_id, team_id, week, year
		FROM rosters
		WHERE league_id = $1 AND week = $2 AND year = $3`,
		leagueID, week, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster rows by league: %w", err)
	}
	defer rows.Close()

	var out []models.RosterRow
	for rows.Next() {
		var rr models.RosterRow
		if err := rows.Scan(&rr.ID, &rr.LeagueID, &rr.TeamID, &rr.Week, &rr.Year); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		entries, err := r.listEntries(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Entries = entries
	}
	return out, nil
}

// CreateRosterRow inserts an empty roster row for (team, week, year).
func (r *Repository) CreateRosterRow(ctx context.Context, leagueID, teamID uuid.UUID, week, year int) (*models.RosterRow, error) {
	rr := models.RosterRow{
		ID:       uuid.New(),
		LeagueID: leagueID,
		TeamID:   teamID,
		Week:     week,
		Year:     year,
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rosters (id, league_id, team_id, week, year)
		VALUES ($1, $2, $3, $4, $5)`,
		rr.ID, rr.LeagueID, rr.TeamID, rr.Week, rr.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to create roster row: %w", err)
	}
	return &rr, nil
}

// SaveEntries replaces the roster row's entries with the given set using a
// diff inside one transaction: absent entries are deleted, new ones
// inserted, changed ones updated. Re-running with the same set is a no-op,
// which is what makes sync idempotent.
func (r *Repository) SaveEntries(ctx context.Context, rosterID uuid.UUID, entries []models.RosterEntry) error {
	current, err := r.listEntries(ctx, rosterID)
	if err != nil {
		return err
	}

	currentByPlayer := make(map[uuid.UUID]models.RosterEntry, len(current))
	for _, e := range current {
		currentByPlayer[e.PlayerID] = e
	}
	nextByPlayer := make(map[uuid.UUID]models.RosterEntry, len(entries))
	for _, e := range entries {
		nextByPlayer[e.PlayerID] = e
	}

	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		for playerID := range currentByPlayer {
			if _, keep := nextByPlayer[playerID]; !keep {
				if _, err := tx.ExecContext(ctx, `
					DELETE FROM rosters_players WHERE roster_id = $1 AND player_id = $2`,
					rosterID, playerID); err != nil {
					return fmt.Errorf("failed to delete roster entry: %w", err)
				}
			}
		}
		for playerID, next := range nextByPlayer {
			prev, exists := currentByPlayer[playerID]
			switch {
			case !exists:
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO rosters_players (roster_id, player_id, slot, pos, tag, value, extensions)
					VALUES ($1, $2, $3, $4, $5, $6, $7)`,
					rosterID, next.PlayerID, next.Slot, next.Pos, next.Tag, next.Value, next.Extensions); err != nil {
					return fmt.Errorf("failed to insert roster entry: %w", err)
				}
			case prev != next:
				if _, err := tx.ExecContext(ctx, `
					UPDATE rosters_players
					SET slot = $3, pos = $4, tag = $5, value = $6, extensions = $7
					WHERE roster_id = $1 AND player_id = $2`,
					rosterID, next.PlayerID, next.Slot, next.Pos, next.Tag, next.Value, next.Extensions); err != nil {
					return fmt.Errorf("failed to update roster entry: %w", err)
				}
			}
		}
		return nil
	})
}

// SaveEntriesTx is SaveEntries running inside a caller-owned transaction,
// used when a roster write must commit atomically with other writes.
func (r *Repository) SaveEntriesTx(ctx context.Context, tx *sql.Tx, rosterID uuid.UUID, entries []models.RosterEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM rosters_players WHERE roster_id = $1`, rosterID); err != nil {
		return fmt.Errorf("failed to clear roster entries: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rosters_players (roster_id, player_id, slot, pos, tag, value, extensions)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rosterID, e.PlayerID, e.Slot, e.Pos, e.Tag, e.Value, e.Extensions); err != nil {
			return fmt.Errorf("failed to insert roster entry: %w", err)
		}
	}
	return nil
}

// CopyForward creates week+1 roster rows for every team in the league by
// copying the given week's rows and entries. An existing row for the target
// week is left untouched so the rollover job can re-run safely.
func (r *Repository) CopyForward(ctx context.Context, leagueID uuid.UUID, week, year int) error {
	current, err := r.GetRosterRowsByLeague(ctx, leagueID, week, year)
	if err != nil {
		return err
	}
	for _, rr := range current {
		if _, err := r.GetRosterRow(ctx, rr.TeamID, week+1, year); err == nil {
			continue
		}
		next, err := r.CreateRosterRow(ctx, rr.LeagueID, rr.TeamID, week+1, year)
		if err != nil {
			return err
		}
		if err := r.SaveEntries(ctx, next.ID, rr.Entries); err != nil {
			return err
		}
	}
	return nil
}

// PlayerRostered reports whether any team in the league has the player on
// its (week, year) roster row.
func (r *Repository) PlayerRostered(ctx context.Context, leagueID, playerID uuid.UUID, week, year int) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM rosters_players rp
			JOIN rosters ro ON ro.id = rp.roster_id
			WHERE ro.league_id = $1 AND rp.player_id = $2 AND ro.week = $3 AND ro.year = $4
		)`,
		leagueID, playerID, week, year)
	var rostered bool
	if err := row.Scan(&rostered); err != nil {
		return false, fmt.Errorf("failed to check player rostered: %w", err)
	}
	return rostered, nil
}

// FindPlayerEntry locates the roster row and entry holding the player in
// the league for (week, year). Returns sql.ErrNoRows when unrostered.
func (r *Repository) FindPlayerEntry(ctx context.Context, leagueID, playerID uuid.UUID, week, year int) (*models.RosterRow, *models.RosterEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT ro.id, ro.league_id, ro.team_id, ro.week, ro.year,
		       rp.player_id, rp.slot, rp.pos, rp.tag, rp.value, rp.extensions
		FROM rosters_players rp
		JOIN rosters ro ON ro.id = rp.roster_id
		WHERE ro.league_id = $1 AND rp.player_id = $2 AND ro.week = $3 AND ro.year = $4`,
		leagueID, playerID, week, year)

	var rr models.RosterRow
	var e models.RosterEntry
	if err := row.Scan(&rr.ID, &rr.LeagueID, &rr.TeamID, &rr.Week, &rr.Year,
		&e.PlayerID, &e.Slot, &e.Pos, &e.Tag, &e.Value, &e.Extensions); err != nil {
		return nil, nil, err
	}
	entries, err := r.listEntries(ctx, rr.ID)
	if err != nil {
		return nil, nil, err
	}
	rr.Entries = entries
	return &rr, &e, nil
}

func (r *Repository) listEntries(ctx context.Context, rosterID uuid.UUID) ([]models.RosterEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id, slot, pos, tag, value, extensions
		FROM rosters_players
		WHERE roster_id = $1`,
		rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster entries: %w", err)
	}
	defer rows.Close()

	var entries []models.RosterEntry
	for rows.Next() {
		var e models.RosterEntry
		if err := rows.Scan(&e.PlayerID, &e.Slot, &e.Pos, &e.Tag, &e.Value, &e.Extensions); err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
