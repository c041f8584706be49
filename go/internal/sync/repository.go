package sync

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/platforms"
)

// Repository stores deduplicated league formats and the per-season pointers
// to them. Formats are keyed by a content hash so identical configurations
// across leagues and runs share one row.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func contentHash(doc any) (string, []byte, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal format: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), payload, nil
}

// UpsertLeagueFormat stores the canonical league configuration, returning
// its content hash. Re-storing an identical configuration is a no-op.
func (r *Repository) UpsertLeagueFormat(ctx context.Context, lg platforms.League) (string, error) {
	hash, payload, err := contentHash(lg)
	if err != nil {
		return "", err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO league_formats (id, hash, config)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO NOTHING`,
		uuid.New(), hash, payload)
	if err != nil {
		return "", fmt.Errorf("failed to upsert league format: %w", err)
	}
	return hash, nil
}

// UpsertScoringFormat stores the canonical scoring rules by content hash.
func (r *Repository) UpsertScoringFormat(ctx context.Context, sf platforms.ScoringFormat) (string, error) {
	hash, payload, err := contentHash(sf)
	if err != nil {
		return "", err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO league_scoring_formats (id, hash, scoring)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO NOTHING`,
		uuid.New(), hash, payload)
	if err != nil {
		return "", fmt.Errorf("failed to upsert scoring format: %w", err)
	}
	return hash, nil
}

// LinkSeason points a league-year at its current format hashes. The scoring
// hash may be empty when the platform does not expose scoring rules.
func (r *Repository) LinkSeason(ctx context.Context, leagueID uuid.UUID, year int, formatHash, scoringHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO seasons (id, league_id, year, format_hash, scoring_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (league_id, year) DO UPDATE
		SET format_hash = EXCLUDED.format_hash, scoring_hash = EXCLUDED.scoring_hash`,
		uuid.New(), leagueID, year, formatHash, scoringHash)
	if err != nil {
		return fmt.Errorf("failed to link season: %w", err)
	}
	return nil
}
