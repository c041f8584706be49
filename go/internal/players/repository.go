package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/sqlutil"
)

// ErrNotFound is returned when no player matches the lookup.
var ErrNotFound = errors.New("player not found")

// Repository reads and ingests player reference data. Settlement never
// writes here; only ingestion/sync does.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectPlayer = `
	SELECT id, external_id, full_name, position, nfl_team, start_year, status, created_at
	FROM player`

// GetPlayer retrieves a player by internal id.
func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, selectPlayer+` WHERE id = $1`, id)
	return scanPlayer(row)
}

// GetPlayerByExternalID retrieves a player by the ingestion feed's id.
func (r *Repository) GetPlayerByExternalID(ctx context.Context, externalID string) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, selectPlayer+` WHERE external_id = $1`, externalID)
	return scanPlayer(row)
}

// UpsertPlayer inserts or refreshes one player row keyed by external id.
func (r *Repository) UpsertPlayer(ctx context.Context, p models.Player) (*models.Player, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO player (id, external_id, full_name, position, nfl_team, start_year, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    position = EXCLUDED.position,
		    nfl_team = EXCLUDED.nfl_team,
		    status = EXCLUDED.status
		RETURNING id`,
		p.ID, p.ExternalID, p.FullName, p.Position, p.NFLTeam, p.StartYear, p.Status)
	if err := row.Scan(&p.ID); err != nil {
		return nil, fmt.Errorf("failed to upsert player: %w", err)
	}
	return &p, nil
}

func scanPlayer(row *sql.Row) (*models.Player, error) {
	var p models.Player
	var team sql.NullString
	err := row.Scan(&p.ID, &p.ExternalID, &p.FullName, &p.Position, &team,
		&p.StartYear, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	p.NFLTeam = sqlutil.FromSqlString(team, "")
	return &p, nil
}
