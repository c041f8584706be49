package transition

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/sqlutil"
)

// Repository persists transition bids, their release lists and each team's
// cutlist. Terminal bid updates use the same pending-only conditional gate
// as waiver claims.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// PendingByLeague lists the league's live bids with release lists attached.
func (r *Repository) PendingByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.TransitionBid, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, league_id, team_id, player_id, original_team_id, bid, submitted,
		       processed, cancelled, succeeded, reason
		FROM transition_bids
		WHERE league_id = $1 AND processed IS NULL AND cancelled IS NULL
		ORDER BY submitted`,
		leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transition bids: %w", err)
	}
	defer rows.Close()

	var out []models.TransitionBid
	for rows.Next() {
		var b models.TransitionBid
		var processed, cancelled sql.NullTime
		var succeeded sql.NullBool
		var reason sql.NullString
		if err := rows.Scan(&b.ID, &b.LeagueID, &b.TeamID, &b.PlayerID, &b.OriginalTeamID,
			&b.Bid, &b.Submitted, &processed, &cancelled, &succeeded, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan transition bid: %w", err)
		}
		b.Processed = sqlutil.FromSqlTime(processed)
		b.Cancelled = sqlutil.FromSqlTime(cancelled)
		b.Succeeded = sqlutil.FromSqlBool(succeeded)
		b.Reason = sqlutil.FromSqlString(reason, "")
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		releases, err := r.listReleases(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].ReleasePlayerIDs = releases
	}
	return out, nil
}

// SubmitBid inserts a pending bid and its release list.
func (r *Repository) SubmitBid(ctx context.Context, b models.TransitionBid) (*models.TransitionBid, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transition_bids (id, league_id, team_id, player_id, original_team_id, bid, submitted)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			b.ID, b.LeagueID, b.TeamID, b.PlayerID, b.OriginalTeamID, b.Bid, b.Submitted); err != nil {
			return fmt.Errorf("failed to submit transition bid: %w", err)
		}
		for _, playerID := range b.ReleasePlayerIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO transition_releases (bid_id, player_id)
				VALUES ($1, $2)`,
				b.ID, playerID); err != nil {
				return fmt.Errorf("failed to insert transition release: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const markBidProcessed = `
	UPDATE transition_bids SET processed = $2, succeeded = $3, reason = $4
	WHERE id = $1 AND processed IS NULL AND cancelled IS NULL`

// MarkProcessed terminates a bid. Returns false when it was no longer
// pending.
func (r *Repository) MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time, succeeded bool, reason string) (bool, error) {
	res, err := r.db.ExecContext(ctx, markBidProcessed, id, now, succeeded, reason)
	if err != nil {
		return false, fmt.Errorf("failed to mark transition bid processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkProcessedTx is MarkProcessed inside a caller-owned transaction.
func (r *Repository) MarkProcessedTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, now time.Time, succeeded bool, reason string) (bool, error) {
	res, err := tx.ExecContext(ctx, markBidProcessed, id, now, succeeded, reason)
	if err != nil {
		return false, fmt.Errorf("failed to mark transition bid processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Cutlist returns the team's ordered drop-preference list.
func (r *Repository) Cutlist(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id FROM cutlist WHERE team_id = $1 ORDER BY rank`,
		teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cutlist: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cutlist row: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) listReleases(ctx context.Context, bidID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id FROM transition_releases WHERE bid_id = $1`,
		bidID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transition releases: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan transition release: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
