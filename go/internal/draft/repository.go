package draft

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/sqlutil"
)

// Repository persists draft picks: ownership (tid) plus fill state.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectPick = `
	SELECT id, league_id, tid, original_tid, round, pick, year, player_id, picked_at
	FROM draft`

// GetPick retrieves one pick.
func (r *Repository) GetPick(ctx context.Context, id uuid.UUID) (*models.DraftPick, error) {
	row := r.db.QueryRowContext(ctx, selectPick+` WHERE id = $1`, id)
	return scanPick(row)
}

// GetPicks retrieves the given picks, erroring if any is missing.
func (r *Repository) GetPicks(ctx context.Context, ids []uuid.UUID) ([]models.DraftPick, error) {
	out := make([]models.DraftPick, 0, len(ids))
	for _, id := range ids {
		p, err := r.GetPick(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// CreatePick inserts a pick.
func (r *Repository) CreatePick(ctx context.Context, p models.DraftPick) (*models.DraftPick, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO draft (id, league_id, tid, original_tid, round, pick, year)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.LeagueID, p.TeamID, p.OriginalTeamID, p.Round, p.Pick, p.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft pick: %w", err)
	}
	return &p, nil
}

// ReassignOwnerTx moves pick ownership inside a caller-owned transaction.
// Only unclaimed picks may change hands.
func (r *Repository) ReassignOwnerTx(ctx context.Context, tx *sql.Tx, pickID, teamID uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE draft SET tid = $2 WHERE id = $1 AND player_id IS NULL`,
		pickID, teamID)
	if err != nil {
		return fmt.Errorf("failed to reassign draft pick: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("draft pick already used")
	}
	return nil
}

func scanPick(row *sql.Row) (*models.DraftPick, error) {
	var p models.DraftPick
	var playerID uuid.NullUUID
	var pickedAt sql.NullTime
	err := row.Scan(&p.ID, &p.LeagueID, &p.TeamID, &p.OriginalTeamID,
		&p.Round, &p.Pick, &p.Year, &playerID, &pickedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft pick: %w", err)
	}
	p.PlayerID = sqlutil.FromNullUUID(playerID)
	p.PickedAt = sqlutil.FromSqlTime(pickedAt)
	return &p, nil
}
