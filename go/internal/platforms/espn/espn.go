package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mcdev12/gridiron/go/clients"
	"github.com/mcdev12/gridiron/go/internal/platforms"
	"github.com/rs/zerolog/log"
)

const BaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl/seasons/2026/segments/0"

// Adapter talks to the ESPN fantasy read API. Private leagues need the
// espn_s2/SWID cookie pair; transactions, matchups, scoring and draft data
// are not wired yet.
type Adapter struct {
	platforms.Unimplemented
	*clients.BaseClient
	authenticated bool
}

func init() {
	if err := platforms.Register(NewAdapter()); err != nil {
		log.Fatal().Err(err).Msg("failed to register espn adapter")
	}
}

func NewAdapter() *Adapter {
	return &Adapter{
		BaseClient: clients.NewBaseClient("espn", BaseURL),
	}
}

func (a *Adapter) Platform() platforms.Platform { return platforms.PlatformESPN }
func (a *Adapter) AuthKind() platforms.AuthKind { return platforms.AuthCookie }
func (a *Adapter) RequiresAuthentication() bool { return true }
func (a *Adapter) SupportsPrivateLeagues() bool { return true }

func (a *Adapter) Authenticate(ctx context.Context, creds platforms.Credentials) error {
	if creds.Cookie == "" {
		return fmt.Errorf("espn requires the espn_s2/SWID cookie pair")
	}
	a.SetHeader("Cookie", creds.Cookie)
	a.authenticated = true
	return nil
}

type leagueResponse struct {
	Settings struct {
		Name string `json:"name"`
		Size int    `json:"size"`
	} `json:"settings"`
	SeasonID      int `json:"seasonId"`
	ScoringPeriod int `json:"scoringPeriodId"`
	Teams         []struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Roster struct {
			Entries []struct {
				PlayerID     int    `json:"playerId"`
				LineupSlotID int    `json:"lineupSlotId"`
				PlayerPool   string `json:"status"`
			} `json:"entries"`
		} `json:"roster"`
	} `json:"teams"`
}

func (a *Adapter) fetchLeague(ctx context.Context, externalLeagueID string) (*leagueResponse, error) {
	body, err := a.Get(ctx, fmt.Sprintf("/leagues/%s?view=mTeam&view=mRoster&view=mSettings", externalLeagueID))
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	var resp leagueResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal league: %w", err)
	}
	return &resp, nil
}

func (a *Adapter) GetLeague(ctx context.Context, externalLeagueID string) (*platforms.League, error) {
	resp, err := a.fetchLeague(ctx, externalLeagueID)
	if err != nil {
		return nil, err
	}
	return &platforms.League{
		ExternalID: externalLeagueID,
		Name:       resp.Settings.Name,
		Season:     resp.SeasonID,
		Week:       resp.ScoringPeriod,
		TotalTeams: resp.Settings.Size,
	}, nil
}

func (a *Adapter) GetTeams(ctx context.Context, externalLeagueID string) ([]platforms.Team, error) {
	resp, err := a.fetchLeague(ctx, externalLeagueID)
	if err != nil {
		return nil, err
	}
	teams := make([]platforms.Team, 0, len(resp.Teams))
	for _, t := range resp.Teams {
		teams = append(teams, platforms.Team{
			ExternalID: strconv.Itoa(t.ID),
			Name:       t.Name,
		})
	}
	return teams, nil
}

// ESPN lineup slot ids for the designations the canonical roster tracks.
const (
	slotBench = 20
	slotIR    = 21
)

func (a *Adapter) GetRosters(ctx context.Context, externalLeagueID string) ([]platforms.Roster, error) {
	resp, err := a.fetchLeague(ctx, externalLeagueID)
	if err != nil {
		return nil, err
	}
	out := make([]platforms.Roster, 0, len(resp.Teams))
	for _, t := range resp.Teams {
		cr := platforms.Roster{ExternalTeamID: strconv.Itoa(t.ID)}
		for _, e := range t.Roster.Entries {
			pid := strconv.Itoa(e.PlayerID)
			switch e.LineupSlotID {
			case slotBench:
				cr.Bench = append(cr.Bench, pid)
			case slotIR:
				cr.Reserve = append(cr.Reserve, pid)
			default:
				cr.Starters = append(cr.Starters, pid)
			}
		}
		out = append(out, cr)
	}
	return out, nil
}
