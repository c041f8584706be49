package leagues

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
)

// Repository persists leagues. Settings are stored as a JSONB document.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetLeague retrieves one league with its settings.
func (r *Repository) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, commissioner_id, settings, status, year, week, created_at, updated_at
		FROM leagues WHERE id = $1`, id)
	return scanLeague(row)
}

// ListActiveLeagues lists leagues the settlement scheduler should visit.
func (r *Repository) ListActiveLeagues(ctx context.Context) ([]models.League, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, commissioner_id, settings, status, year, week, created_at, updated_at
		FROM leagues WHERE status = $1`, models.LeagueStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active leagues: %w", err)
	}
	defer rows.Close()

	var out []models.League
	for rows.Next() {
		lg, err := scanLeague(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *lg)
	}
	return out, rows.Err()
}

// CreateLeague inserts a league.
func (r *Repository) CreateLeague(ctx context.Context, lg models.League) (*models.League, error) {
	if lg.ID == uuid.Nil {
		lg.ID = uuid.New()
	}
	settings, err := json.Marshal(lg.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal league settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO leagues (id, name, commissioner_id, settings, status, year, week)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		lg.ID, lg.Name, lg.CommissionerID, settings, lg.Status, lg.Year, lg.Week)
	if err != nil {
		return nil, fmt.Errorf("failed to create league: %w", err)
	}
	return &lg, nil
}

// UpdateSettings replaces a league's settings document.
func (r *Repository) UpdateSettings(ctx context.Context, id uuid.UUID, settings models.LeagueSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal league settings: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `
		UPDATE leagues SET settings = $2, updated_at = now() WHERE id = $1`,
		id, raw); err != nil {
		return fmt.Errorf("failed to update league settings: %w", err)
	}
	return nil
}

// AdvanceWeek moves the league's current-week pointer forward by one.
func (r *Repository) AdvanceWeek(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE leagues SET week = week + 1, updated_at = now() WHERE id = $1`,
		id); err != nil {
		return fmt.Errorf("failed to advance league week: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeague(row rowScanner) (*models.League, error) {
	var lg models.League
	var settings []byte
	err := row.Scan(&lg.ID, &lg.Name, &lg.CommissionerID, &settings, &lg.Status,
		&lg.Year, &lg.Week, &lg.CreatedAt, &lg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	if err := json.Unmarshal(settings, &lg.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal league settings: %w", err)
	}
	return &lg, nil
}
