package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/gridiron/go/clients"
	"github.com/mcdev12/gridiron/go/internal/platforms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const leagueJSON = `{
	"settings": {"name": "Office League", "size": 10},
	"seasonId": 2026,
	"scoringPeriodId": 4,
	"teams": [{
		"id": 7,
		"name": "Sofa Kings",
		"roster": {"entries": [
			{"playerId": 100, "lineupSlotId": 0},
			{"playerId": 101, "lineupSlotId": 20},
			{"playerId": 102, "lineupSlotId": 21}
		]}
	}]
}`

func testAdapter(t *testing.T) *Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Cookie"))
		w.Write([]byte(leagueJSON))
	}))
	t.Cleanup(srv.Close)

	a := &Adapter{BaseClient: clients.NewBaseClient("espn-test", srv.URL)}
	require.NoError(t, a.Authenticate(context.Background(), platforms.Credentials{Cookie: "espn_s2=x; SWID=y"}))
	return a
}

func TestAuthenticate_RequiresCookie(t *testing.T) {
	a := NewAdapter()
	err := a.Authenticate(context.Background(), platforms.Credentials{})
	assert.ErrorContains(t, err, "cookie")
}

func TestGetLeague(t *testing.T) {
	a := testAdapter(t)

	lg, err := a.GetLeague(context.Background(), "9876")
	require.NoError(t, err)
	assert.Equal(t, "Office League", lg.Name)
	assert.Equal(t, 2026, lg.Season)
	assert.Equal(t, 4, lg.Week)
	assert.Equal(t, 10, lg.TotalTeams)
}

func TestGetRosters_LineupSlotMapping(t *testing.T) {
	a := testAdapter(t)

	rosters, err := a.GetRosters(context.Background(), "9876")
	require.NoError(t, err)
	require.Len(t, rosters, 1)

	r := rosters[0]
	assert.Equal(t, "7", r.ExternalTeamID)
	assert.Equal(t, []string{"100"}, r.Starters)
	assert.Equal(t, []string{"101"}, r.Bench)
	assert.Equal(t, []string{"102"}, r.Reserve)
}

func TestUnwiredCapabilities(t *testing.T) {
	a := NewAdapter()

	_, err := a.GetTransactions(context.Background(), "9876", 1)
	assert.ErrorIs(t, err, platforms.ErrNotImplemented)
	_, err = a.GetDraftResults(context.Background(), "9876")
	assert.ErrorIs(t, err, platforms.ErrNotImplemented)
}
