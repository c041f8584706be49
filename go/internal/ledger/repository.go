package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/sqlutil"
)

// Repository is the append-only transaction store. Rows are never updated
// or deleted.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertTransaction = `
	INSERT INTO transactions (id, league_id, team_id, player_id, type, value, week, year, timestamp, user_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Insert appends one transaction row.
func (r *Repository) Insert(ctx context.Context, txn models.Transaction) error {
	_, err := r.db.ExecContext(ctx, insertTransaction,
		txn.ID, txn.LeagueID, txn.TeamID, txn.PlayerID, txn.Type,
		txn.Value, txn.Week, txn.Year, txn.Timestamp, sqlutil.ToNullUUID(txn.UserID))
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// InsertTx appends one transaction row inside a caller-owned transaction.
func (r *Repository) InsertTx(ctx context.Context, tx *sql.Tx, txn models.Transaction) error {
	_, err := tx.ExecContext(ctx, insertTransaction,
		txn.ID, txn.LeagueID, txn.TeamID, txn.PlayerID, txn.Type,
		txn.Value, txn.Week, txn.Year, txn.Timestamp, sqlutil.ToNullUUID(txn.UserID))
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// InsertIgnoreDuplicate appends a row, swallowing unique-constraint
// violations. Sync uses this so re-ingesting an external transaction feed
// converges instead of failing.
func (r *Repository) InsertIgnoreDuplicate(ctx context.Context, txn models.Transaction) (bool, error) {
	err := r.Insert(ctx, txn)
	if err == nil {
		return true, nil
	}
	if sqlutil.IsUniqueViolation(err) {
		return false, nil
	}
	return false, err
}

// LatestForPlayer returns the most recent transaction for a player in a
// league, which is authoritative for current value and acquisition recency.
func (r *Repository) LatestForPlayer(ctx context.Context, leagueID, playerID uuid.UUID) (*models.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, league_id, team_id, player_id, type, value, week, year, timestamp, user_id
		FROM transactions
		WHERE league_id = $1 AND player_id = $2
		ORDER BY timestamp DESC
		LIMIT 1`,
		leagueID, playerID)
	return scanTransaction(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var txn models.Transaction
	var userID uuid.NullUUID
	err := row.Scan(&txn.ID, &txn.LeagueID, &txn.TeamID, &txn.PlayerID, &txn.Type,
		&txn.Value, &txn.Week, &txn.Year, &txn.Timestamp, &userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	txn.UserID = sqlutil.FromNullUUID(userID)
	return &txn, nil
}
