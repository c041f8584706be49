package roster

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/ledger"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRosterRepo struct {
	row          *models.RosterRow
	copyForwards int
}

func (f *fakeRosterRepo) GetRosterRow(ctx context.Context, teamID uuid.UUID, week, year int) (*models.RosterRow, error) {
	cp := *f.row
	cp.Entries = append([]models.RosterEntry(nil), f.row.Entries...)
	return &cp, nil
}

func (f *fakeRosterRepo) SaveEntries(ctx context.Context, rosterID uuid.UUID, entries []models.RosterEntry) error {
	f.row.Entries = entries
	return nil
}

func (f *fakeRosterRepo) CopyForward(ctx context.Context, leagueID uuid.UUID, week, year int) error {
	f.copyForwards++
	return nil
}

type fakePlayersRepo struct {
	players map[uuid.UUID]*models.Player
}

func (f *fakePlayersRepo) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s not found", id)
	}
	return p, nil
}

type fakeLeaguesRepo struct {
	league *models.League
}

func (f *fakeLeaguesRepo) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	cp := *f.league
	return &cp, nil
}

type fakeAppLedger struct {
	appended []ledger.AppendParams
	recent   map[uuid.UUID]bool
}

func (f *fakeAppLedger) Append(ctx context.Context, p ledger.AppendParams) (*models.Transaction, error) {
	f.appended = append(f.appended, p)
	return &models.Transaction{ID: uuid.New()}, nil
}

func (f *fakeAppLedger) AcquiredWithin(ctx context.Context, leagueID, playerID uuid.UUID, window time.Duration, types ...models.TransactionType) (bool, error) {
	return f.recent[playerID], nil
}

type appFixture struct {
	app     *App
	repo    *fakeRosterRepo
	players *fakePlayersRepo
	ledger  *fakeAppLedger
	league  *models.League

	teamID  uuid.UUID
	starter uuid.UUID
	stashed uuid.UUID
	benchRB uuid.UUID
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	teamID := uuid.New()
	starter, stashed, benchRB := uuid.New(), uuid.New(), uuid.New()

	league := &models.League{
		ID:   uuid.New(),
		Week: 3,
		Year: 2026,
		Settings: models.LeagueSettings{
			Cap:           200,
			SQB:           1,
			SRB:           2,
			SWR:           2,
			BenchMax:      2,
			PSMax:         2,
			IRMax:         1,
			FranchiseMax:  1,
			TransitionMax: 1,
			RookieMax:     1,
			ExtensionMax:  2,
		},
	}
	repo := &fakeRosterRepo{row: &models.RosterRow{
		ID: uuid.New(), LeagueID: league.ID, TeamID: teamID, Week: 3, Year: 2026,
		Entries: []models.RosterEntry{
			{PlayerID: starter, Slot: models.SlotQB, Pos: models.PositionQB, Value: 40},
			{PlayerID: stashed, Slot: models.SlotPS, Pos: models.PositionWR, Value: 5},
			{PlayerID: benchRB, Slot: models.SlotBench, Pos: models.PositionRB, Value: 10},
		},
	}}
	players := &fakePlayersRepo{players: map[uuid.UUID]*models.Player{
		starter: {ID: starter, Status: models.PlayerStatusActive, StartYear: 2020},
		stashed: {ID: stashed, Status: models.PlayerStatusActive, StartYear: 2026},
		benchRB: {ID: benchRB, Status: models.PlayerStatusInjuredReserve, StartYear: 2022},
	}}
	lgr := &fakeAppLedger{recent: make(map[uuid.UUID]bool)}

	return &appFixture{
		app:     NewApp(repo, players, &fakeLeaguesRepo{league: league}, lgr),
		repo:    repo,
		players: players,
		ledger:  lgr,
		league:  league,
		teamID:  teamID, starter: starter, stashed: stashed, benchRB: benchRB,
	}
}

func (f *appFixture) entry(t *testing.T, playerID uuid.UUID) models.RosterEntry {
	t.Helper()
	for _, e := range f.repo.row.Entries {
		if e.PlayerID == playerID {
			return e
		}
	}
	t.Fatalf("player %s not on stored roster", playerID)
	return models.RosterEntry{}
}

func TestActivate(t *testing.T) {
	f := newAppFixture(t)

	err := f.app.Activate(context.Background(), f.league.ID, f.teamID, f.stashed, 3, 2026)
	require.NoError(t, err)
	assert.Equal(t, models.SlotBench, f.entry(t, f.stashed).Slot)
	require.Len(t, f.ledger.appended, 1)
	assert.Equal(t, models.TransactionRosterActivate, f.ledger.appended[0].Type)
}

func TestActivate_AlreadyActive(t *testing.T) {
	f := newAppFixture(t)

	err := f.app.Activate(context.Background(), f.league.ID, f.teamID, f.starter, 3, 2026)
	assert.ErrorContains(t, err, "player already active")
	assert.Empty(t, f.ledger.appended)
}

func TestActivate_NoBenchRoom(t *testing.T) {
	f := newAppFixture(t)
	f.league.Settings.BenchMax = 1

	err := f.app.Activate(context.Background(), f.league.ID, f.teamID, f.stashed, 3, 2026)
	assert.ErrorContains(t, err, "no open bench slot")
}

func TestDeactivate_RequiresRecentAcquisition(t *testing.T) {
	f := newAppFixture(t)

	err := f.app.Deactivate(context.Background(), f.league.ID, f.teamID, f.benchRB, 3, 2026)
	assert.ErrorContains(t, err, "not eligible for deactivation")

	f.ledger.recent[f.benchRB] = true
	err = f.app.Deactivate(context.Background(), f.league.ID, f.teamID, f.benchRB, 3, 2026)
	require.NoError(t, err)
	assert.Equal(t, models.SlotPS, f.entry(t, f.benchRB).Slot)
}

func TestDeactivate_AlreadyStashed(t *testing.T) {
	f := newAppFixture(t)

	err := f.app.Deactivate(context.Background(), f.league.ID, f.teamID, f.stashed, 3, 2026)
	assert.ErrorContains(t, err, "already on practice squad")
}

func TestReserveIR(t *testing.T) {
	f := newAppFixture(t)

	// An active-designation player cannot go to IR.
	err := f.app.ReserveIR(context.Background(), f.league.ID, f.teamID, f.starter, 3, 2026)
	assert.ErrorContains(t, err, "not reserve eligible")

	err = f.app.ReserveIR(context.Background(), f.league.ID, f.teamID, f.benchRB, 3, 2026)
	require.NoError(t, err)
	assert.Equal(t, models.SlotIR, f.entry(t, f.benchRB).Slot)
	require.Len(t, f.ledger.appended, 1)
	assert.Equal(t, models.TransactionReserveIR, f.ledger.appended[0].Type)
}

func TestReserveIR_NoRoom(t *testing.T) {
	f := newAppFixture(t)
	f.league.Settings.IRMax = 0

	err := f.app.ReserveIR(context.Background(), f.league.ID, f.teamID, f.benchRB, 3, 2026)
	assert.ErrorContains(t, err, "no open injured reserve slot")
}

func TestApplyTag(t *testing.T) {
	f := newAppFixture(t)

	err := f.app.ApplyTag(context.Background(), f.league.ID, f.teamID, f.starter, models.TagFranchise, 3, 2026)
	require.NoError(t, err)
	assert.Equal(t, models.TagFranchise, f.entry(t, f.starter).Tag)
	require.Len(t, f.ledger.appended, 1)
	assert.Equal(t, models.TransactionFranchiseTag, f.ledger.appended[0].Type)

	// FranchiseMax is 1; a second franchise tag is refused.
	err = f.app.ApplyTag(context.Background(), f.league.ID, f.teamID, f.benchRB, models.TagFranchise, 3, 2026)
	assert.ErrorContains(t, err, "tag limit exceeded")
}

func TestApplyTag_RookieRequiresDraftYear(t *testing.T) {
	f := newAppFixture(t)

	err := f.app.ApplyTag(context.Background(), f.league.ID, f.teamID, f.benchRB, models.TagRookie, 3, 2026)
	assert.ErrorContains(t, err, "player is not a rookie")

	err = f.app.ApplyTag(context.Background(), f.league.ID, f.teamID, f.stashed, models.TagRookie, 3, 2026)
	require.NoError(t, err)
	assert.Equal(t, models.TagRookie, f.entry(t, f.stashed).Tag)
}

func TestApplyTag_InvalidTag(t *testing.T) {
	f := newAppFixture(t)

	err := f.app.ApplyTag(context.Background(), f.league.ID, f.teamID, f.starter, models.TagNone, 3, 2026)
	assert.ErrorContains(t, err, "invalid tag")
}

func TestRemoveTag(t *testing.T) {
	f := newAppFixture(t)
	require.NoError(t, f.app.ApplyTag(context.Background(), f.league.ID, f.teamID, f.starter, models.TagFranchise, 3, 2026))

	require.NoError(t, f.app.RemoveTag(context.Background(), f.league.ID, f.teamID, f.starter, 3, 2026))
	assert.Equal(t, models.TagNone, f.entry(t, f.starter).Tag)
}

func TestExtend_EnforcesLimit(t *testing.T) {
	f := newAppFixture(t)

	require.NoError(t, f.app.Extend(context.Background(), f.league.ID, f.teamID, f.starter, 3, 2026))
	require.NoError(t, f.app.Extend(context.Background(), f.league.ID, f.teamID, f.starter, 3, 2026))
	assert.Equal(t, 2, f.entry(t, f.starter).Extensions)

	err := f.app.Extend(context.Background(), f.league.ID, f.teamID, f.starter, 3, 2026)
	assert.ErrorContains(t, err, "extension limit exceeded")
}

func TestRelease(t *testing.T) {
	f := newAppFixture(t)

	err := f.app.Release(context.Background(), f.league.ID, f.teamID, f.benchRB, 3, 2026)
	require.NoError(t, err)
	for _, e := range f.repo.row.Entries {
		assert.NotEqual(t, f.benchRB, e.PlayerID)
	}
	require.Len(t, f.ledger.appended, 1)
	assert.Equal(t, models.TransactionRosterRelease, f.ledger.appended[0].Type)
	assert.Equal(t, 10, f.ledger.appended[0].Value)

	err = f.app.Release(context.Background(), f.league.ID, f.teamID, f.benchRB, 3, 2026)
	assert.ErrorContains(t, err, "player not on roster")
}

func TestRollover(t *testing.T) {
	f := newAppFixture(t)

	require.NoError(t, f.app.Rollover(context.Background(), f.league.ID, 3, 2026))
	assert.Equal(t, 1, f.repo.copyForwards)
}
