package ledger

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedgerRepo struct {
	inserted []models.Transaction
	latest   map[uuid.UUID]*models.Transaction
	existing map[uuid.UUID]bool
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{
		latest:   make(map[uuid.UUID]*models.Transaction),
		existing: make(map[uuid.UUID]bool),
	}
}

func (f *fakeLedgerRepo) Insert(ctx context.Context, txn models.Transaction) error {
	f.inserted = append(f.inserted, txn)
	return nil
}

func (f *fakeLedgerRepo) InsertTx(ctx context.Context, tx *sql.Tx, txn models.Transaction) error {
	f.inserted = append(f.inserted, txn)
	return nil
}

func (f *fakeLedgerRepo) InsertIgnoreDuplicate(ctx context.Context, txn models.Transaction) (bool, error) {
	if f.existing[txn.ID] {
		return false, nil
	}
	f.existing[txn.ID] = true
	f.inserted = append(f.inserted, txn)
	return true, nil
}

func (f *fakeLedgerRepo) LatestForPlayer(ctx context.Context, leagueID, playerID uuid.UUID) (*models.Transaction, error) {
	txn, ok := f.latest[playerID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return txn, nil
}

func validAppend() AppendParams {
	return AppendParams{
		LeagueID: uuid.New(),
		TeamID:   uuid.New(),
		PlayerID: uuid.New(),
		Type:     models.TransactionRosterAdd,
		Value:    12,
		Week:     3,
		Year:     2026,
	}
}

func TestAppend_StampsClockAndWrites(t *testing.T) {
	repo := newFakeLedgerRepo()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
	app := NewApp(repo, clock)

	txn, err := app.Append(context.Background(), validAppend())
	require.NoError(t, err)
	assert.Equal(t, clock.Now().UTC(), txn.Timestamp)
	assert.NotEqual(t, uuid.Nil, txn.ID)
	require.Len(t, repo.inserted, 1)
}

func TestAppend_Validation(t *testing.T) {
	app := NewApp(newFakeLedgerRepo(), clockwork.NewFakeClock())

	p := validAppend()
	p.LeagueID = uuid.Nil
	_, err := app.Append(context.Background(), p)
	assert.ErrorContains(t, err, "league_id is required")

	p = validAppend()
	p.Type = ""
	_, err = app.Append(context.Background(), p)
	assert.ErrorContains(t, err, "type is required")
}

func TestCurrentValue(t *testing.T) {
	repo := newFakeLedgerRepo()
	app := NewApp(repo, clockwork.NewFakeClock())
	playerID := uuid.New()

	_, err := app.CurrentValue(context.Background(), uuid.New(), playerID)
	assert.ErrorIs(t, err, ErrNoTransactions)

	repo.latest[playerID] = &models.Transaction{Value: 42}
	value, err := app.CurrentValue(context.Background(), uuid.New(), playerID)
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestAcquiredWithin(t *testing.T) {
	repo := newFakeLedgerRepo()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
	app := NewApp(repo, clock)
	playerID := uuid.New()

	// No history means no recent acquisition.
	ok, err := app.AcquiredWithin(context.Background(), uuid.New(), playerID, 24*time.Hour, models.TransactionRosterAdd)
	require.NoError(t, err)
	assert.False(t, ok)

	repo.latest[playerID] = &models.Transaction{
		Type:      models.TransactionRosterAdd,
		Timestamp: clock.Now().Add(-23 * time.Hour),
	}
	ok, err = app.AcquiredWithin(context.Background(), uuid.New(), playerID, 24*time.Hour, models.TransactionRosterAdd)
	require.NoError(t, err)
	assert.True(t, ok)

	// Outside the window.
	clock.Advance(2 * time.Hour)
	ok, err = app.AcquiredWithin(context.Background(), uuid.New(), playerID, 24*time.Hour, models.TransactionRosterAdd)
	require.NoError(t, err)
	assert.False(t, ok)

	// Most recent transaction is not one of the gating types.
	repo.latest[playerID] = &models.Transaction{
		Type:      models.TransactionTrade,
		Timestamp: clock.Now().Add(-time.Hour),
	}
	ok, err = app.AcquiredWithin(context.Background(), uuid.New(), playerID, 24*time.Hour, models.TransactionRosterAdd)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIngest_TolerantOfDuplicates(t *testing.T) {
	repo := newFakeLedgerRepo()
	app := NewApp(repo, clockwork.NewFakeClock())

	txn := models.Transaction{
		ID:       uuid.New(),
		LeagueID: uuid.New(),
		TeamID:   uuid.New(),
		PlayerID: uuid.New(),
		Type:     models.TransactionRosterAdd,
	}

	inserted, err := app.Ingest(context.Background(), txn)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = app.Ingest(context.Background(), txn)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Len(t, repo.inserted, 1)
}
