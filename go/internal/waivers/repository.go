package waivers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/sqlutil"
)

// Repository persists waiver claims. Terminal updates are conditional on
// the claim still being pending, which is the optimistic gate that prevents
// double-processing under concurrent settlement runs.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Claim priority is the claiming team's current waiver order, read live on
// every fetch. A win reassigns teams.waiver_order inside its transaction, so
// the next fetch already ranks the winner's remaining claims at the back.
const selectClaim = `
	SELECT w.id, w.league_id, w.team_id, w.player_id, w.drop_player_id, w.type,
	       w.bid, t.waiver_order, w.submitted, w.processed, w.cancelled,
	       w.succeeded, w.reason
	FROM waivers w
	JOIN teams t ON t.id = w.team_id`

// GetClaim retrieves one claim.
func (r *Repository) GetClaim(ctx context.Context, id uuid.UUID) (*models.WaiverClaim, error) {
	row := r.db.QueryRowContext(ctx, selectClaim+` WHERE w.id = $1`, id)
	return scanClaim(row)
}

// PendingByLeague lists the league's live claims of the given types.
func (r *Repository) PendingByLeague(ctx context.Context, leagueID uuid.UUID, types ...models.WaiverType) ([]models.WaiverClaim, error) {
	typeStrs := make([]string, len(types))
	for i, t := range types {
		typeStrs[i] = string(t)
	}
	rows, err := r.db.QueryContext(ctx, selectClaim+`
		WHERE w.league_id = $1
		  AND w.type = ANY($2)
		  AND w.processed IS NULL AND w.cancelled IS NULL
		ORDER BY w.submitted`,
		leagueID, typeStrs)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending claims: %w", err)
	}
	defer rows.Close()

	var out []models.WaiverClaim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SubmitClaim inserts a new pending claim.
func (r *Repository) SubmitClaim(ctx context.Context, c models.WaiverClaim) (*models.WaiverClaim, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO waivers (id, league_id, team_id, player_id, drop_player_id, type, bid, submitted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.LeagueID, c.TeamID, c.PlayerID, sqlutil.ToNullUUID(c.DropPlayerID),
		c.Type, c.Bid, c.Submitted)
	if err != nil {
		return nil, fmt.Errorf("failed to submit claim: %w", err)
	}
	return &c, nil
}

// UpdateClaim edits a pending claim's bid and drop player. Terminal claims
// are never edited.
func (r *Repository) UpdateClaim(ctx context.Context, id uuid.UUID, bid int, dropPlayerID *uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE waivers SET bid = $2, drop_player_id = $3
		WHERE id = $1 AND processed IS NULL AND cancelled IS NULL`,
		id, bid, sqlutil.ToNullUUID(dropPlayerID))
	if err != nil {
		return fmt.Errorf("failed to update claim: %w", err)
	}
	return requireOneRow(res, "claim is no longer pending")
}

// CancelClaim terminates a pending claim by its owner.
func (r *Repository) CancelClaim(ctx context.Context, id uuid.UUID, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE waivers SET cancelled = $2
		WHERE id = $1 AND processed IS NULL AND cancelled IS NULL`,
		id, now)
	if err != nil {
		return fmt.Errorf("failed to cancel claim: %w", err)
	}
	return requireOneRow(res, "claim is no longer pending")
}

const markProcessed = `
	UPDATE waivers SET processed = $2, succeeded = $3, reason = $4
	WHERE id = $1 AND processed IS NULL AND cancelled IS NULL`

// MarkProcessed terminates a claim. Returns false without error when the
// claim was no longer pending (a concurrent run got there first).
func (r *Repository) MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time, succeeded bool, reason string) (bool, error) {
	res, err := r.db.ExecContext(ctx, markProcessed, id, now, succeeded, reason)
	if err != nil {
		return false, fmt.Errorf("failed to mark claim processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkProcessedTx is MarkProcessed inside a caller-owned transaction, so a
// winning claim's terminal update commits atomically with its roster and
// ledger effects.
func (r *Repository) MarkProcessedTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, now time.Time, succeeded bool, reason string) (bool, error) {
	res, err := tx.ExecContext(ctx, markProcessed, id, now, succeeded, reason)
	if err != nil {
		return false, fmt.Errorf("failed to mark claim processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CancelMootClaims cancels the team's other pending claims for a player it
// just acquired.
func (r *Repository) CancelMootClaims(ctx context.Context, leagueID, teamID, playerID, wonClaimID uuid.UUID, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE waivers SET cancelled = $5
		WHERE league_id = $1 AND team_id = $2 AND player_id = $3 AND id <> $4
		  AND processed IS NULL AND cancelled IS NULL`,
		leagueID, teamID, playerID, wonClaimID, now)
	if err != nil {
		return fmt.Errorf("failed to cancel moot claims: %w", err)
	}
	return nil
}

func requireOneRow(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s", msg)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.WaiverClaim, error) {
	var c models.WaiverClaim
	var drop uuid.NullUUID
	var processed, cancelled sql.NullTime
	var succeeded sql.NullBool
	var reason sql.NullString
	err := row.Scan(&c.ID, &c.LeagueID, &c.TeamID, &c.PlayerID, &drop, &c.Type,
		&c.Bid, &c.Priority, &c.Submitted, &processed, &cancelled, &succeeded, &reason)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	c.DropPlayerID = sqlutil.FromNullUUID(drop)
	c.Processed = sqlutil.FromSqlTime(processed)
	c.Cancelled = sqlutil.FromSqlTime(cancelled)
	c.Succeeded = sqlutil.FromSqlBool(succeeded)
	c.Reason = sqlutil.FromSqlString(reason, "")
	return &c, nil
}
