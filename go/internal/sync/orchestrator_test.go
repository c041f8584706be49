package sync

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/platforms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPlatform = platforms.Platform("stub")

// stubAdapter serves a fixed league snapshot.
type stubAdapter struct {
	platforms.Unimplemented
	league       platforms.League
	teams        []platforms.Team
	rosters      []platforms.Roster
	players      []platforms.Player
	transactions []platforms.Transaction
}

var stub = &stubAdapter{}

func init() {
	if err := platforms.Register(stub); err != nil {
		panic(err)
	}
}

func (s *stubAdapter) Platform() platforms.Platform { return testPlatform }
func (s *stubAdapter) AuthKind() platforms.AuthKind { return platforms.AuthNone }
func (s *stubAdapter) RequiresAuthentication() bool { return false }
func (s *stubAdapter) SupportsPrivateLeagues() bool { return false }

func (s *stubAdapter) Authenticate(ctx context.Context, creds platforms.Credentials) error {
	return nil
}

func (s *stubAdapter) GetLeague(ctx context.Context, id string) (*platforms.League, error) {
	lg := s.league
	return &lg, nil
}

func (s *stubAdapter) GetTeams(ctx context.Context, id string) ([]platforms.Team, error) {
	return s.teams, nil
}

func (s *stubAdapter) GetRosters(ctx context.Context, id string) ([]platforms.Roster, error) {
	return s.rosters, nil
}

func (s *stubAdapter) GetPlayers(ctx context.Context, id string) ([]platforms.Player, error) {
	return s.players, nil
}

func (s *stubAdapter) GetTransactions(ctx context.Context, id string, week int) ([]platforms.Transaction, error) {
	return s.transactions, nil
}

type memLeagues struct{ league *models.League }

func (m *memLeagues) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	cp := *m.league
	return &cp, nil
}

type memTeams struct {
	byExt   map[string]models.Team
	upserts int
}

func (m *memTeams) UpsertTeamByExternalID(ctx context.Context, t models.Team) (*models.Team, error) {
	m.upserts++
	if existing, ok := m.byExt[t.ExternalID]; ok {
		// Settlement owns FAAB and waiver order; only the name refreshes.
		existing.Name = t.Name
		m.byExt[t.ExternalID] = existing
		return &existing, nil
	}
	t.ID = uuid.New()
	m.byExt[t.ExternalID] = t
	return &t, nil
}

func (m *memTeams) GetTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Team, error) {
	var out []models.Team
	for _, t := range m.byExt {
		out = append(out, t)
	}
	return out, nil
}

type memPlayers struct {
	byExt map[string]models.Player
}

func (m *memPlayers) UpsertPlayer(ctx context.Context, p models.Player) (*models.Player, error) {
	if existing, ok := m.byExt[p.ExternalID]; ok {
		p.ID = existing.ID
	} else {
		p.ID = uuid.New()
	}
	m.byExt[p.ExternalID] = p
	return &p, nil
}

func (m *memPlayers) GetPlayerByExternalID(ctx context.Context, externalID string) (*models.Player, error) {
	p, ok := m.byExt[externalID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

type memRosters struct {
	byTeam map[uuid.UUID]*models.RosterRow
	saves  int
}

func (m *memRosters) GetRosterRow(ctx context.Context, teamID uuid.UUID, week, year int) (*models.RosterRow, error) {
	row, ok := m.byTeam[teamID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *row
	cp.Entries = append([]models.RosterEntry(nil), row.Entries...)
	return &cp, nil
}

func (m *memRosters) CreateRosterRow(ctx context.Context, leagueID, teamID uuid.UUID, week, year int) (*models.RosterRow, error) {
	row := &models.RosterRow{ID: uuid.New(), LeagueID: leagueID, TeamID: teamID, Week: week, Year: year}
	m.byTeam[teamID] = row
	return row, nil
}

func (m *memRosters) SaveEntries(ctx context.Context, rosterID uuid.UUID, entries []models.RosterEntry) error {
	m.saves++
	for _, row := range m.byTeam {
		if row.ID == rosterID {
			row.Entries = entries
			return nil
		}
	}
	return fmt.Errorf("roster %s not found", rosterID)
}

type memLedger struct {
	ingested map[uuid.UUID]bool
}

func (m *memLedger) Ingest(ctx context.Context, txn models.Transaction) (bool, error) {
	if m.ingested[txn.ID] {
		return false, nil
	}
	m.ingested[txn.ID] = true
	return true, nil
}

type memFormats struct {
	links int
}

func (m *memFormats) UpsertLeagueFormat(ctx context.Context, lg platforms.League) (string, error) {
	return contentHash(lg)
}

func (m *memFormats) UpsertScoringFormat(ctx context.Context, sf platforms.ScoringFormat) (string, error) {
	return contentHash(sf)
}

func (m *memFormats) LinkSeason(ctx context.Context, leagueID uuid.UUID, year int, formatHash, scoringHash string) error {
	m.links++
	return nil
}

type orchFixture struct {
	orch    *Orchestrator
	teams   *memTeams
	players *memPlayers
	rosters *memRosters
	ledger  *memLedger
	formats *memFormats
	league  *models.League
}

func newOrchFixture(t *testing.T) *orchFixture {
	t.Helper()
	league := &models.League{
		ID:   uuid.New(),
		Week: 3,
		Year: 2026,
		Settings: models.LeagueSettings{
			Cap:      200,
			FAAB:     100,
			SQB:      1,
			SRB:      2,
			SWR:      2,
			BenchMax: 6,
			PSMax:    4,
			IRMax:    2,
		},
	}
	f := &orchFixture{
		teams:   &memTeams{byExt: make(map[string]models.Team)},
		players: &memPlayers{byExt: make(map[string]models.Player)},
		rosters: &memRosters{byTeam: make(map[uuid.UUID]*models.RosterRow)},
		ledger:  &memLedger{ingested: make(map[uuid.UUID]bool)},
		formats: &memFormats{},
		league:  league,
	}
	f.orch = NewOrchestrator(&memLeagues{league: league}, f.teams, f.players, f.rosters,
		f.ledger, f.formats, NewValidator(NewSchemaCache()), clockwork.NewFakeClock())

	stub.league = platforms.League{ExternalID: "ext-1", Name: "Stub League", Season: 2026, Week: 3, TotalTeams: 2}
	stub.teams = []platforms.Team{
		{ExternalID: "1", Name: "Alpha"},
		{ExternalID: "2", Name: "Beta"},
	}
	stub.players = []platforms.Player{
		{ExternalID: "p1", FullName: "One QB", Position: "QB"},
		{ExternalID: "p2", FullName: "Two RB", Position: "RB"},
		{ExternalID: "p3", FullName: "Three WR", Position: "WR"},
	}
	stub.rosters = []platforms.Roster{
		{ExternalTeamID: "1", Starters: []string{"p1", "p2"}},
		{ExternalTeamID: "2", Bench: []string{"p3"}},
	}
	stub.transactions = nil
	return f
}

func syncParams(f *orchFixture) Params {
	return Params{
		Platform:         testPlatform,
		ExternalLeagueID: "ext-1",
		InternalLeagueID: f.league.ID,
	}
}

func TestSync_ValidatesParams(t *testing.T) {
	f := newOrchFixture(t)

	_, err := f.orch.Sync(context.Background(), Params{})
	assert.ErrorContains(t, err, "platform is required")

	p := syncParams(f)
	p.InternalLeagueID = uuid.Nil
	_, err = f.orch.Sync(context.Background(), p)
	assert.ErrorContains(t, err, "internal_league_id is required")
}

func TestSync_UnknownPlatformFailsInResult(t *testing.T) {
	f := newOrchFixture(t)
	p := syncParams(f)
	p.Platform = platforms.Platform("nope")

	result, err := f.orch.Sync(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
}

func TestSync_FullRun(t *testing.T) {
	f := newOrchFixture(t)

	result, err := f.orch.Sync(context.Background(), syncParams(f))
	require.NoError(t, err)
	require.True(t, result.Success, "errors: %v", result.Errors)

	assert.Equal(t, 2, result.Counts.Teams)
	assert.Equal(t, 3, result.Counts.Players)
	assert.Equal(t, 3, result.Counts.RosterAdds)
	assert.Equal(t, 0, result.Counts.RosterDrops)
	assert.Equal(t, 1, f.formats.links)

	alpha := f.teams.byExt["1"]
	assert.Equal(t, 100, alpha.FAAB)
	assert.Equal(t, 1, alpha.WaiverOrder)

	row := f.rosters.byTeam[alpha.ID]
	require.NotNil(t, row)
	assert.Len(t, row.Entries, 2)
}

func TestSync_SecondRunIsNoOp(t *testing.T) {
	f := newOrchFixture(t)

	_, err := f.orch.Sync(context.Background(), syncParams(f))
	require.NoError(t, err)
	savesAfterFirst := f.rosters.saves

	result, err := f.orch.Sync(context.Background(), syncParams(f))
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, 0, result.Counts.RosterAdds)
	assert.Equal(t, 0, result.Counts.RosterDrops)
	assert.Equal(t, savesAfterFirst, f.rosters.saves, "unchanged rosters are not rewritten")
}

func TestSync_MergePreservesSettlementState(t *testing.T) {
	f := newOrchFixture(t)
	_, err := f.orch.Sync(context.Background(), syncParams(f))
	require.NoError(t, err)

	// Settlement tags a synced player and assigns a value.
	alpha := f.teams.byExt["1"]
	row := f.rosters.byTeam[alpha.ID]
	p1 := f.players.byExt["p1"]
	for i := range row.Entries {
		if row.Entries[i].PlayerID == p1.ID {
			row.Entries[i].Tag = models.TagFranchise
			row.Entries[i].Value = 55
		}
	}

	// The platform drops p2 and adds p4.
	stub.players = append(stub.players, platforms.Player{ExternalID: "p4", FullName: "Four TE", Position: "TE"})
	stub.rosters[0] = platforms.Roster{ExternalTeamID: "1", Starters: []string{"p1"}, Bench: []string{"p4"}}

	result, err := f.orch.Sync(context.Background(), syncParams(f))
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Counts.RosterAdds)
	assert.Equal(t, 1, result.Counts.RosterDrops)

	row = f.rosters.byTeam[alpha.ID]
	var found bool
	for _, e := range row.Entries {
		if e.PlayerID == p1.ID {
			found = true
			assert.Equal(t, models.TagFranchise, e.Tag)
			assert.Equal(t, 55, e.Value)
		}
		assert.NotEqual(t, f.players.byExt["p2"].ID, e.PlayerID)
	}
	assert.True(t, found)
}

func TestSync_DryRunWritesNothing(t *testing.T) {
	f := newOrchFixture(t)
	_, err := f.orch.Sync(context.Background(), syncParams(f))
	require.NoError(t, err)
	linksBefore := f.formats.links
	savesBefore := f.rosters.saves

	// The platform now shows a different roster; the dry run reports the
	// diff without applying it.
	stub.players = append(stub.players, platforms.Player{ExternalID: "p4", FullName: "Four TE", Position: "TE"})
	stub.rosters[0] = platforms.Roster{ExternalTeamID: "1", Starters: []string{"p1"}, Bench: []string{"p4"}}

	result, err := f.orch.FetchLeagueData(context.Background(), syncParams(f))
	require.NoError(t, err)
	require.True(t, result.Success, "errors: %v", result.Errors)

	assert.Equal(t, 1, result.Counts.RosterDrops)
	assert.Equal(t, linksBefore, f.formats.links)
	assert.Equal(t, savesBefore, f.rosters.saves)
	assert.NotContains(t, f.players.byExt, "p4", "dry run does not upsert players")
	assert.NotNil(t, result.League)
	assert.Len(t, result.Rosters, 2)

	alpha := f.teams.byExt["1"]
	assert.Len(t, f.rosters.byTeam[alpha.ID].Entries, 2, "stored roster untouched")
}

func TestSync_TransactionsAreDuplicateTolerant(t *testing.T) {
	f := newOrchFixture(t)
	stub.transactions = []platforms.Transaction{
		{
			ExternalID:       "t1:add:p3",
			ExternalTeamID:   "2",
			ExternalPlayerID: "p3",
			Kind:             platforms.TxWaiver,
			FAAB:             17,
			Week:             3,
			OccurredAt:       time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC),
		},
	}
	p := syncParams(f)
	p.IncludeTransactions = true

	result, err := f.orch.Sync(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Counts.Transactions)

	result, err = f.orch.Sync(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Counts.Transactions, "re-ingest hits the duplicate path")
}

func TestSync_TransactionForUnknownPlayerIsReportedNotFatal(t *testing.T) {
	f := newOrchFixture(t)
	stub.transactions = []platforms.Transaction{
		{ExternalID: "t9", ExternalTeamID: "2", ExternalPlayerID: "ghost", Kind: platforms.TxAdd},
	}
	p := syncParams(f)
	p.IncludeTransactions = true

	result, err := f.orch.Sync(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "unknown player")
}
