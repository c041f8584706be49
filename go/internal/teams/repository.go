package teams

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
)

// Repository persists teams, including the two fields settlement mutates:
// the FAAB budget and the waiver order.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectTeam = `
	SELECT id, league_id, owner_id, external_id, name, faab, waiver_order, created_at
	FROM teams`

// GetTeam retrieves one team.
func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, selectTeam+` WHERE id = $1`, id)
	var t models.Team
	if err := row.Scan(&t.ID, &t.LeagueID, &t.OwnerID, &t.ExternalID, &t.Name, &t.FAAB, &t.WaiverOrder, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &t, nil
}

// GetTeamsByLeague lists a league's teams ordered by waiver priority.
func (r *Repository) GetTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, selectTeam+` WHERE league_id = $1 ORDER BY waiver_order`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams by league: %w", err)
	}
	defer rows.Close()

	var out []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.OwnerID, &t.ExternalID, &t.Name, &t.FAAB, &t.WaiverOrder, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTeam inserts a team.
func (r *Repository) CreateTeam(ctx context.Context, t models.Team) (*models.Team, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teams (id, league_id, owner_id, external_id, name, faab, waiver_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.LeagueID, t.OwnerID, t.ExternalID, t.Name, t.FAAB, t.WaiverOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return &t, nil
}

// UpsertTeamByExternalID inserts a synced team or refreshes its name. The
// FAAB budget and waiver order are owned by settlement and never overwritten
// by a sync run.
func (r *Repository) UpsertTeamByExternalID(ctx context.Context, t models.Team) (*models.Team, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO teams (id, league_id, owner_id, external_id, name, faab, waiver_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (league_id, external_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, faab, waiver_order, created_at`,
		t.ID, t.LeagueID, t.OwnerID, t.ExternalID, t.Name, t.FAAB, t.WaiverOrder)
	if err := row.Scan(&t.ID, &t.FAAB, &t.WaiverOrder, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to upsert team: %w", err)
	}
	return &t, nil
}

// DebitFAAB subtracts a winning bid from the team's budget. The guard in
// the WHERE clause refuses to drive the budget negative.
func (r *Repository) DebitFAAB(ctx context.Context, teamID uuid.UUID, amount int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE teams SET faab = faab - $2
		WHERE id = $1 AND faab >= $2`,
		teamID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit faab: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("insufficient faab budget")
	}
	return nil
}

// DebitFAABTx is DebitFAAB inside a caller-owned transaction, used when the
// debit must commit atomically with a claim win.
func (r *Repository) DebitFAABTx(ctx context.Context, tx *sql.Tx, teamID uuid.UUID, amount int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE teams SET faab = faab - $2
		WHERE id = $1 AND faab >= $2`,
		teamID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit faab: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("insufficient faab budget")
	}
	return nil
}

// SetWaiverOrderTx reassigns a team's waiver priority inside a caller-owned
// transaction.
func (r *Repository) SetWaiverOrderTx(ctx context.Context, tx *sql.Tx, teamID uuid.UUID, order int) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE teams SET waiver_order = $2 WHERE id = $1`,
		teamID, order); err != nil {
		return fmt.Errorf("failed to set waiver order: %w", err)
	}
	return nil
}

// SetWaiverOrder reassigns a team's waiver priority.
func (r *Repository) SetWaiverOrder(ctx context.Context, teamID uuid.UUID, order int) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE teams SET waiver_order = $2 WHERE id = $1`,
		teamID, order); err != nil {
		return fmt.Errorf("failed to set waiver order: %w", err)
	}
	return nil
}

// MaxWaiverOrder returns the league's highest (worst) waiver priority.
func (r *Repository) MaxWaiverOrder(ctx context.Context, leagueID uuid.UUID) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(waiver_order), 0) FROM teams WHERE league_id = $1`,
		leagueID)
	var max int
	if err := row.Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to get max waiver order: %w", err)
	}
	return max, nil
}
