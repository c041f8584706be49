package trades

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/sqlutil"
)

// Repository persists trades and their asset lists. The terminal timestamp
// columns are only ever set by the conditional transitions below, which
// require every terminal column to still be NULL.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetTrade retrieves one trade with its asset lists.
func (r *Repository) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, league_id, proposing_team_id, accepting_team_id, user_id,
		       offered, accepted, rejected, cancelled, vetoed
		FROM trades WHERE id = $1`, id)

	var t models.Trade
	var accepted, rejected, cancelled, vetoed sql.NullTime
	err := row.Scan(&t.ID, &t.LeagueID, &t.ProposingTeamID, &t.AcceptingTeamID, &t.UserID,
		&t.Offered, &accepted, &rejected, &cancelled, &vetoed)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	t.Accepted = sqlutil.FromSqlTime(accepted)
	t.Rejected = sqlutil.FromSqlTime(rejected)
	t.Cancelled = sqlutil.FromSqlTime(cancelled)
	t.Vetoed = sqlutil.FromSqlTime(vetoed)

	if err := r.loadAssets(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTrade inserts a trade and its asset lists.
func (r *Repository) CreateTrade(ctx context.Context, t models.Trade) (*models.Trade, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trades (id, league_id, proposing_team_id, accepting_team_id, user_id, offered)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			t.ID, t.LeagueID, t.ProposingTeamID, t.AcceptingTeamID, t.UserID, t.Offered); err != nil {
			return fmt.Errorf("failed to create trade: %w", err)
		}
		insertPlayers := func(playerIDs []uuid.UUID, fromTeam uuid.UUID) error {
			for _, pid := range playerIDs {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO trades_players (trade_id, player_id, from_team_id)
					VALUES ($1, $2, $3)`, t.ID, pid, fromTeam); err != nil {
					return fmt.Errorf("failed to insert trade player: %w", err)
				}
			}
			return nil
		}
		if err := insertPlayers(t.SentPlayerIDs, t.ProposingTeamID); err != nil {
			return err
		}
		if err := insertPlayers(t.ReceivedPlayerIDs, t.AcceptingTeamID); err != nil {
			return err
		}
		insertPicks := func(pickIDs []uuid.UUID, fromTeam uuid.UUID) error {
			for _, pid := range pickIDs {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO trades_picks (trade_id, pick_id, from_team_id)
					VALUES ($1, $2, $3)`, t.ID, pid, fromTeam); err != nil {
					return fmt.Errorf("failed to insert trade pick: %w", err)
				}
			}
			return nil
		}
		if err := insertPicks(t.SentPickIDs, t.ProposingTeamID); err != nil {
			return err
		}
		if err := insertPicks(t.ReceivedPickIDs, t.AcceptingTeamID); err != nil {
			return err
		}
		for teamID, drops := range t.DropPlayerIDs {
			for _, pid := range drops {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO trades_drops (trade_id, team_id, player_id)
					VALUES ($1, $2, $3)`, t.ID, teamID, pid); err != nil {
					return fmt.Errorf("failed to insert trade drop: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// terminalGuard requires the trade to still be open.
const terminalGuard = `
	WHERE id = $1
	  AND accepted IS NULL AND rejected IS NULL
	  AND cancelled IS NULL AND vetoed IS NULL`

// MarkAcceptedTx sets the accepted timestamp inside a caller-owned
// transaction, failing if the trade already terminated.
func (r *Repository) MarkAcceptedTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, now time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE trades SET accepted = $2`+terminalGuard, id, now)
	if err != nil {
		return false, fmt.Errorf("failed to accept trade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkTerminal applies a pure timestamp transition (reject/cancel/veto).
func (r *Repository) MarkTerminal(ctx context.Context, id uuid.UUID, state models.TradeState, now time.Time) (bool, error) {
	var column string
	switch state {
	case models.TradeStateRejected:
		column = "rejected"
	case models.TradeStateCancelled:
		column = "cancelled"
	case models.TradeStateVetoed:
		column = "vetoed"
	default:
		return false, fmt.Errorf("invalid terminal state: %s", state)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE trades SET `+column+` = $2`+terminalGuard, id, now)
	if err != nil {
		return false, fmt.Errorf("failed to mark trade %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repository) loadAssets(ctx context.Context, t *models.Trade) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id, from_team_id FROM trades_players WHERE trade_id = $1`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load trade players: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pid, from uuid.UUID
		if err := rows.Scan(&pid, &from); err != nil {
			return fmt.Errorf("failed to scan trade player: %w", err)
		}
		if from == t.ProposingTeamID {
			t.SentPlayerIDs = append(t.SentPlayerIDs, pid)
		} else {
			t.ReceivedPlayerIDs = append(t.ReceivedPlayerIDs, pid)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	pickRows, err := r.db.QueryContext(ctx, `
		SELECT pick_id, from_team_id FROM trades_picks WHERE trade_id = $1`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load trade picks: %w", err)
	}
	defer pickRows.Close()
	for pickRows.Next() {
		var pid, from uuid.UUID
		if err := pickRows.Scan(&pid, &from); err != nil {
			return fmt.Errorf("failed to scan trade pick: %w", err)
		}
		if from == t.ProposingTeamID {
			t.SentPickIDs = append(t.SentPickIDs, pid)
		} else {
			t.ReceivedPickIDs = append(t.ReceivedPickIDs, pid)
		}
	}
	if err := pickRows.Err(); err != nil {
		return err
	}

	dropRows, err := r.db.QueryContext(ctx, `
		SELECT team_id, player_id FROM trades_drops WHERE trade_id = $1`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load trade drops: %w", err)
	}
	defer dropRows.Close()
	t.DropPlayerIDs = make(map[uuid.UUID][]uuid.UUID)
	for dropRows.Next() {
		var team, pid uuid.UUID
		if err := dropRows.Scan(&team, &pid); err != nil {
			return fmt.Errorf("failed to scan trade drop: %w", err)
		}
		t.DropPlayerIDs[team] = append(t.DropPlayerIDs[team], pid)
	}
	return dropRows.Err()
}
