package waivers

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gridiron/go/internal/ledger"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runTx stands in for the transaction boundary; the fakes below ignore the
// tx handle, so fn runs directly.
type runTx struct{}

func (runTx) Run(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type fakeTeams struct {
	teams map[uuid.UUID]*models.Team
}

func (f *fakeTeams) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s not found", id)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTeams) DebitFAABTx(ctx context.Context, tx *sql.Tx, teamID uuid.UUID, amount int) error {
	f.teams[teamID].FAAB -= amount
	return nil
}

func (f *fakeTeams) SetWaiverOrderTx(ctx context.Context, tx *sql.Tx, teamID uuid.UUID, order int) error {
	f.teams[teamID].WaiverOrder = order
	return nil
}

func (f *fakeTeams) MaxWaiverOrder(ctx context.Context, leagueID uuid.UUID) (int, error) {
	max := 0
	for _, t := range f.teams {
		if t.LeagueID == leagueID && t.WaiverOrder > max {
			max = t.WaiverOrder
		}
	}
	return max, nil
}

// fakeClaims mirrors the store's live-priority read: every fetch stamps each
// claim with its team's current waiver order.
type fakeClaims struct {
	claims map[uuid.UUID]*models.WaiverClaim
	teams  *fakeTeams
	stolen map[uuid.UUID]bool
}

func (f *fakeClaims) add(c models.WaiverClaim) models.WaiverClaim {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := c
	f.claims[c.ID] = &cp
	return c
}

func (f *fakeClaims) PendingByLeague(ctx context.Context, leagueID uuid.UUID, types ...models.WaiverType) ([]models.WaiverClaim, error) {
	var out []models.WaiverClaim
	for _, c := range f.claims {
		if c.LeagueID != leagueID || !c.Pending() {
			continue
		}
		match := false
		for _, t := range types {
			if c.Type == t {
				match = true
			}
		}
		if !match {
			continue
		}
		cp := *c
		cp.Priority = f.teams.teams[c.TeamID].WaiverOrder
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Submitted.Before(out[j].Submitted) })
	return out, nil
}

func (f *fakeClaims) MarkProcessed(ctx context.Context, id uuid.UUID, now time.Time, succeeded bool, reason string) (bool, error) {
	return f.MarkProcessedTx(ctx, nil, id, now, succeeded, reason)
}

func (f *fakeClaims) MarkProcessedTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, now time.Time, succeeded bool, reason string) (bool, error) {
	if f.stolen[id] {
		return false, nil
	}
	c := f.claims[id]
	if !c.Pending() {
		return false, nil
	}
	c.Processed = &now
	c.Succeeded = &succeeded
	c.Reason = reason
	return true, nil
}

func (f *fakeClaims) CancelMootClaims(ctx context.Context, leagueID, teamID, playerID, wonClaimID uuid.UUID, now time.Time) error {
	for _, c := range f.claims {
		if c.LeagueID == leagueID && c.TeamID == teamID && c.PlayerID == playerID &&
			c.ID != wonClaimID && c.Pending() {
			c.Cancelled = &now
		}
	}
	return nil
}

type fakeRosters struct {
	rows map[uuid.UUID]*models.RosterRow // keyed by team
}

func (f *fakeRosters) GetRosterRow(ctx context.Context, teamID uuid.UUID, week, year int) (*models.RosterRow, error) {
	row, ok := f.rows[teamID]
	if !ok {
		return nil, fmt.Errorf("no roster for team %s", teamID)
	}
	cp := *row
	cp.Entries = append([]models.RosterEntry(nil), row.Entries...)
	return &cp, nil
}

func (f *fakeRosters) SaveEntriesTx(ctx context.Context, tx *sql.Tx, rosterID uuid.UUID, entries []models.RosterEntry) error {
	for _, row := range f.rows {
		if row.ID == rosterID {
			row.Entries = append([]models.RosterEntry(nil), entries...)
			return nil
		}
	}
	return fmt.Errorf("no roster row %s", rosterID)
}

func (f *fakeRosters) PlayerRostered(ctx context.Context, leagueID, playerID uuid.UUID, week, year int) (bool, error) {
	_, _, err := f.FindPlayerEntry(ctx, leagueID, playerID, week, year)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeRosters) FindPlayerEntry(ctx context.Context, leagueID, playerID uuid.UUID, week, year int) (*models.RosterRow, *models.RosterEntry, error) {
	for _, row := range f.rows {
		if row.LeagueID != leagueID {
			continue
		}
		for _, e := range row.Entries {
			if e.PlayerID == playerID {
				rowCp, entryCp := *row, e
				return &rowCp, &entryCp, nil
			}
		}
	}
	return nil, nil, sql.ErrNoRows
}

func (f *fakeRosters) entryFor(teamID, playerID uuid.UUID) (models.RosterEntry, bool) {
	for _, e := range f.rows[teamID].Entries {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return models.RosterEntry{}, false
}

type fakeLeagues struct {
	league *models.League
}

func (f *fakeLeagues) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	cp := *f.league
	return &cp, nil
}

type fakePlayers struct {
	players map[uuid.UUID]*models.Player
}

func (f *fakePlayers) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s not found", id)
	}
	cp := *p
	return &cp, nil
}

type fakeSettleLedger struct {
	appends []ledger.AppendParams
	shield  map[uuid.UUID]bool
}

func (f *fakeSettleLedger) AppendTx(ctx context.Context, tx *sql.Tx, p ledger.AppendParams) (*models.Transaction, error) {
	f.appends = append(f.appends, p)
	return &models.Transaction{ID: uuid.New()}, nil
}

func (f *fakeSettleLedger) CurrentValue(ctx context.Context, leagueID, playerID uuid.UUID) (int, error) {
	return 0, ledger.ErrNoTransactions
}

func (f *fakeSettleLedger) AcquiredWithin(ctx context.Context, leagueID, playerID uuid.UUID, window time.Duration, types ...models.TransactionType) (bool, error) {
	return f.shield[playerID], nil
}

func (f *fakeSettleLedger) byType(t models.TransactionType) []ledger.AppendParams {
	var out []ledger.AppendParams
	for _, p := range f.appends {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

type fakeDispatcher struct {
	notices []notify.Notice
}

func (f *fakeDispatcher) Send(ctx context.Context, n notify.Notice) {
	f.notices = append(f.notices, n)
}

type settleFixture struct {
	s          *Settlement
	claims     *fakeClaims
	rosters    *fakeRosters
	teams      *fakeTeams
	ledger     *fakeSettleLedger
	dispatcher *fakeDispatcher
	league     *models.League
	clock      *clockwork.FakeClock

	teamA, teamB, teamC uuid.UUID
	playerX, playerY    uuid.UUID
}

// Waiver orders: B holds 1, A holds 2, C holds 3. Team C doubles as the
// poach victim. All rosters start empty.
func newSettleFixture(t *testing.T) *settleFixture {
	t.Helper()
	teamA, teamB, teamC := uuid.New(), uuid.New(), uuid.New()
	playerX, playerY := uuid.New(), uuid.New()

	league := &models.League{
		ID:   uuid.New(),
		Week: 3,
		Year: 2026,
		Settings: models.LeagueSettings{
			Cap:        200,
			SRB:        2,
			SWR:        2,
			BenchMax:   3,
			PSMax:      2,
			IRMax:      2,
			WaiverMode: models.WaiverModeFAAB,
		},
	}
	teams := &fakeTeams{teams: map[uuid.UUID]*models.Team{
		teamA: {ID: teamA, LeagueID: league.ID, FAAB: 100, WaiverOrder: 2},
		teamB: {ID: teamB, LeagueID: league.ID, FAAB: 100, WaiverOrder: 1},
		teamC: {ID: teamC, LeagueID: league.ID, FAAB: 100, WaiverOrder: 3},
	}}
	rosters := &fakeRosters{rows: map[uuid.UUID]*models.RosterRow{
		teamA: {ID: uuid.New(), LeagueID: league.ID, TeamID: teamA, Week: 3, Year: 2026},
		teamB: {ID: uuid.New(), LeagueID: league.ID, TeamID: teamB, Week: 3, Year: 2026},
		teamC: {ID: uuid.New(), LeagueID: league.ID, TeamID: teamC, Week: 3, Year: 2026},
	}}
	players := &fakePlayers{players: map[uuid.UUID]*models.Player{
		playerX: {ID: playerX, FullName: "X", Position: models.PositionRB},
		playerY: {ID: playerY, FullName: "Y", Position: models.PositionWR},
	}}
	claims := &fakeClaims{claims: make(map[uuid.UUID]*models.WaiverClaim), teams: teams, stolen: make(map[uuid.UUID]bool)}
	lgr := &fakeSettleLedger{shield: make(map[uuid.UUID]bool)}
	dispatcher := &fakeDispatcher{}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC))

	s := NewSettlement(runTx{}, claims, rosters, &fakeLeagues{league: league},
		teams, players, lgr, dispatcher, clock)
	return &settleFixture{
		s: s, claims: claims, rosters: rosters, teams: teams, ledger: lgr,
		dispatcher: dispatcher, league: league, clock: clock,
		teamA: teamA, teamB: teamB, teamC: teamC, playerX: playerX, playerY: playerY,
	}
}

func (f *settleFixture) submit(teamID, playerID uuid.UUID, typ models.WaiverType, bid int, offset time.Duration) models.WaiverClaim {
	return f.claims.add(models.WaiverClaim{
		LeagueID:  f.league.ID,
		TeamID:    teamID,
		PlayerID:  playerID,
		Type:      typ,
		Bid:       bid,
		Submitted: f.clock.Now().Add(offset),
	})
}

// A win sends the winner's waiver order to the back, and that new order
// ranks the winner's remaining claims on the very next selection. Teams A
// and B hold equal bids on players X and Y; B (better order) takes X, then
// A must take Y.
func TestProcessLeagueWaivers_WinSendsPriorityToBack(t *testing.T) {
	f := newSettleFixture(t)
	f.submit(f.teamB, f.playerX, models.WaiverFreeAgency, 10, 0)
	bClaimY := f.submit(f.teamB, f.playerY, models.WaiverFreeAgency, 10, time.Second)
	f.submit(f.teamA, f.playerY, models.WaiverFreeAgency, 10, 2*time.Second)

	summary, err := f.s.ProcessLeagueWaivers(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	_, ok := f.rosters.entryFor(f.teamB, f.playerX)
	assert.True(t, ok, "team B should hold player X")
	_, ok = f.rosters.entryFor(f.teamA, f.playerY)
	assert.True(t, ok, "team A should hold player Y")
	_, ok = f.rosters.entryFor(f.teamB, f.playerY)
	assert.False(t, ok, "team B must not win player Y from the old order")

	lost := f.claims.claims[bClaimY.ID]
	require.NotNil(t, lost.Processed)
	assert.Equal(t, "player rostered", lost.Reason)

	// B won first and moved behind the initial max of 3; A moved behind B.
	assert.Equal(t, 4, f.teams.teams[f.teamB].WaiverOrder)
	assert.Equal(t, 5, f.teams.teams[f.teamA].WaiverOrder)
	assert.Equal(t, 90, f.teams.teams[f.teamA].FAAB)
	assert.Equal(t, 90, f.teams.teams[f.teamB].FAAB)
}

func TestProcessLeagueWaivers_BidExceedsFAAB(t *testing.T) {
	f := newSettleFixture(t)
	f.teams.teams[f.teamA].FAAB = 5
	c := f.submit(f.teamA, f.playerX, models.WaiverFreeAgency, 10, 0)

	summary, err := f.s.ProcessLeagueWaivers(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "bid exceeds available FAAB budget", f.claims.claims[c.ID].Reason)
	assert.Equal(t, 5, f.teams.teams[f.teamA].FAAB)
}

func TestProcessLeagueWaivers_DropOpensBenchSlot(t *testing.T) {
	f := newSettleFixture(t)
	f.league.Settings.BenchMax = 1
	playerZ := uuid.New()
	f.rosters.rows[f.teamA].Entries = []models.RosterEntry{
		{PlayerID: playerZ, Slot: models.SlotBench, Pos: models.PositionTE, Value: 15},
	}
	c := f.submit(f.teamA, f.playerX, models.WaiverFreeAgency, 10, 0)
	f.claims.claims[c.ID].DropPlayerID = &playerZ

	summary, err := f.s.ProcessLeagueWaivers(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	got, ok := f.rosters.entryFor(f.teamA, f.playerX)
	require.True(t, ok)
	assert.Equal(t, models.SlotBench, got.Slot)
	assert.Equal(t, 10, got.Value)
	_, ok = f.rosters.entryFor(f.teamA, playerZ)
	assert.False(t, ok)

	releases := f.ledger.byType(models.TransactionRosterRelease)
	require.Len(t, releases, 1)
	assert.Equal(t, playerZ, releases[0].PlayerID)
	assert.Equal(t, 15, releases[0].Value)
	adds := f.ledger.byType(models.TransactionRosterAdd)
	require.Len(t, adds, 1)
	assert.Equal(t, f.playerX, adds[0].PlayerID)
}

func TestProcessLeagueWaivers_DropNotOnRosterFails(t *testing.T) {
	f := newSettleFixture(t)
	missing := uuid.New()
	c := f.submit(f.teamA, f.playerX, models.WaiverFreeAgency, 10, 0)
	f.claims.claims[c.ID].DropPlayerID = &missing

	summary, err := f.s.ProcessLeagueWaivers(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "drop player not on roster", f.claims.claims[c.ID].Reason)
}

func TestProcessLeagueWaivers_CancelsMootClaims(t *testing.T) {
	f := newSettleFixture(t)
	f.submit(f.teamA, f.playerX, models.WaiverFreeAgency, 10, 0)
	dup := f.submit(f.teamA, f.playerX, models.WaiverFreeAgency, 5, time.Second)

	summary, err := f.s.ProcessLeagueWaivers(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Succeeded)

	moot := f.claims.claims[dup.ID]
	assert.NotNil(t, moot.Cancelled)
	assert.Nil(t, moot.Processed)
}

func TestProcessLeagueWaivers_ConcurrentWinnerSkipped(t *testing.T) {
	f := newSettleFixture(t)
	c := f.submit(f.teamA, f.playerX, models.WaiverFreeAgency, 10, 0)
	f.claims.stolen[c.ID] = true

	summary, err := f.s.ProcessLeagueWaivers(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.True(t, f.claims.claims[c.ID].Pending())
	assert.Empty(t, f.ledger.appends)
}

func TestProcessLeaguePoaches_ShieldedClaimWaits(t *testing.T) {
	f := newSettleFixture(t)
	f.rosters.rows[f.teamC].Entries = []models.RosterEntry{
		{PlayerID: f.playerX, Slot: models.SlotPS, Pos: models.PositionRB, Value: 8},
	}
	c := f.submit(f.teamB, f.playerX, models.WaiverPoach, 0, 0)
	f.ledger.shield[f.playerX] = true

	summary, err := f.s.ProcessLeaguePoaches(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.True(t, f.claims.claims[c.ID].Pending())

	// The protection window lapses; the next pass completes the poach.
	f.ledger.shield[f.playerX] = false
	summary, err = f.s.ProcessLeaguePoaches(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	got, ok := f.rosters.entryFor(f.teamB, f.playerX)
	require.True(t, ok)
	assert.Equal(t, models.SlotBench, got.Slot)
	assert.Equal(t, 8, got.Value)
	_, ok = f.rosters.entryFor(f.teamC, f.playerX)
	assert.False(t, ok)

	poaches := f.ledger.byType(models.TransactionPoached)
	require.Len(t, poaches, 1)
	assert.Equal(t, 8, poaches[0].Value)
}

func TestProcessLeaguePoaches_DropOpensBenchSlot(t *testing.T) {
	f := newSettleFixture(t)
	f.league.Settings.BenchMax = 1
	playerD := uuid.New()
	f.rosters.rows[f.teamB].Entries = []models.RosterEntry{
		{PlayerID: playerD, Slot: models.SlotBench, Pos: models.PositionWR, Value: 12},
	}
	f.rosters.rows[f.teamC].Entries = []models.RosterEntry{
		{PlayerID: f.playerX, Slot: models.SlotPS, Pos: models.PositionRB, Value: 8},
	}
	c := f.submit(f.teamB, f.playerX, models.WaiverPoach, 0, 0)
	f.claims.claims[c.ID].DropPlayerID = &playerD

	summary, err := f.s.ProcessLeaguePoaches(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	_, ok := f.rosters.entryFor(f.teamB, f.playerX)
	assert.True(t, ok)
	_, ok = f.rosters.entryFor(f.teamB, playerD)
	assert.False(t, ok)

	releases := f.ledger.byType(models.TransactionRosterRelease)
	require.Len(t, releases, 1)
	assert.Equal(t, playerD, releases[0].PlayerID)
	assert.Equal(t, 12, releases[0].Value)
	require.Len(t, f.ledger.byType(models.TransactionPoached), 1)
}

func TestProcessLeaguePoaches_FullBenchWithoutDropFails(t *testing.T) {
	f := newSettleFixture(t)
	f.league.Settings.BenchMax = 1
	f.rosters.rows[f.teamB].Entries = []models.RosterEntry{
		{PlayerID: uuid.New(), Slot: models.SlotBench, Pos: models.PositionWR, Value: 12},
	}
	f.rosters.rows[f.teamC].Entries = []models.RosterEntry{
		{PlayerID: f.playerX, Slot: models.SlotPS, Pos: models.PositionRB, Value: 8},
	}
	c := f.submit(f.teamB, f.playerX, models.WaiverPoach, 0, 0)

	summary, err := f.s.ProcessLeaguePoaches(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "no open bench slot", f.claims.claims[c.ID].Reason)
}

func TestProcessLeaguePoaches_ProtectedPlayerFails(t *testing.T) {
	f := newSettleFixture(t)
	f.rosters.rows[f.teamC].Entries = []models.RosterEntry{
		{PlayerID: f.playerX, Slot: models.SlotPSP, Pos: models.PositionRB, Value: 8},
	}
	c := f.submit(f.teamB, f.playerX, models.WaiverPoach, 0, 0)

	summary, err := f.s.ProcessLeaguePoaches(context.Background(), f.league.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "player is protected", f.claims.claims[c.ID].Reason)
}
