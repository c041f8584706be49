package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNoTransactions is returned when a player has no ledger history.
var ErrNoTransactions = errors.New("no transactions")

// LedgerRepository defines what the app layer needs from the store.
type LedgerRepository interface {
	Insert(ctx context.Context, txn models.Transaction) error
	InsertTx(ctx context.Context, tx *sql.Tx, txn models.Transaction) error
	InsertIgnoreDuplicate(ctx context.Context, txn models.Transaction) (bool, error)
	LatestForPlayer(ctx context.Context, leagueID, playerID uuid.UUID) (*models.Transaction, error)
}

// App writes the transaction ledger. Every settlement mutation produces
// exactly one Append per player movement.
type App struct {
	repo  LedgerRepository
	clock clockwork.Clock
}

func NewApp(repo LedgerRepository, clock clockwork.Clock) *App {
	return &App{repo: repo, clock: clock}
}

// AppendParams carries one ledger append.
type AppendParams struct {
	LeagueID uuid.UUID
	TeamID   uuid.UUID
	PlayerID uuid.UUID
	Type     models.TransactionType
	Value    int
	Week     int
	Year     int
	UserID   *uuid.UUID
}

func (p AppendParams) validate() error {
	if p.LeagueID == uuid.Nil {
		return fmt.Errorf("league_id is required")
	}
	if p.TeamID == uuid.Nil {
		return fmt.Errorf("team_id is required")
	}
	if p.PlayerID == uuid.Nil {
		return fmt.Errorf("player_id is required")
	}
	if p.Type == "" {
		return fmt.Errorf("type is required")
	}
	return nil
}

// Append writes one transaction row and returns it.
func (a *App) Append(ctx context.Context, p AppendParams) (*models.Transaction, error) {
	txn, err := a.build(p)
	if err != nil {
		return nil, err
	}
	if err := a.repo.Insert(ctx, *txn); err != nil {
		return nil, err
	}
	log.Info().
		Str("league_id", txn.LeagueID.String()).
		Str("team_id", txn.TeamID.String()).
		Str("player_id", txn.PlayerID.String()).
		Str("type", string(txn.Type)).
		Int("value", txn.Value).
		Msg("ledger append")
	return txn, nil
}

// AppendTx is Append inside a caller-owned DB transaction.
func (a *App) AppendTx(ctx context.Context, tx *sql.Tx, p AppendParams) (*models.Transaction, error) {
	txn, err := a.build(p)
	if err != nil {
		return nil, err
	}
	if err := a.repo.InsertTx(ctx, tx, *txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (a *App) build(p AppendParams) (*models.Transaction, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &models.Transaction{
		ID:        uuid.New(),
		LeagueID:  p.LeagueID,
		TeamID:    p.TeamID,
		PlayerID:  p.PlayerID,
		Type:      p.Type,
		Value:     p.Value,
		Week:      p.Week,
		Year:      p.Year,
		Timestamp: a.clock.Now().UTC(),
		UserID:    p.UserID,
	}, nil
}

// CurrentValue returns the player's value per his most recent transaction.
func (a *App) CurrentValue(ctx context.Context, leagueID, playerID uuid.UUID) (int, error) {
	txn, err := a.repo.LatestForPlayer(ctx, leagueID, playerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNoTransactions
		}
		return 0, err
	}
	return txn.Value, nil
}

// AcquiredWithin reports whether the player's most recent transaction of one
// of the given types happened inside the window ending now. Used for the
// 24-hour poach gate and the 48-hour rookie-deactivation gate.
func (a *App) AcquiredWithin(ctx context.Context, leagueID, playerID uuid.UUID, window time.Duration, types ...models.TransactionType) (bool, error) {
	txn, err := a.repo.LatestForPlayer(ctx, leagueID, playerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	for _, t := range types {
		if txn.Type == t {
			return a.clock.Now().Sub(txn.Timestamp) < window, nil
		}
	}
	return false, nil
}

// Ingest appends a synced external transaction, tolerating duplicates.
// Returns false when the row already existed.
func (a *App) Ingest(ctx context.Context, txn models.Transaction) (bool, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return a.repo.InsertIgnoreDuplicate(ctx, txn)
}
