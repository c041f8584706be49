package mfl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcdev12/gridiron/go/clients"
	"github.com/mcdev12/gridiron/go/internal/platforms"
	"github.com/rs/zerolog/log"
)

// MFL scopes its API by season year.
// TODO: take the season from league settings instead of pinning it here.
const (
	seasonYear = 2026
	BaseURL    = "https://api.myfantasyleague.com/2026"
)

// Adapter talks to the MyFantasyLeague export API. An API key unlocks
// private leagues; public leagues work without one.
type Adapter struct {
	*clients.BaseClient
	apiKey string
}

func init() {
	if err := platforms.Register(NewAdapter()); err != nil {
		log.Fatal().Err(err).Msg("failed to register mfl adapter")
	}
}

func NewAdapter() *Adapter {
	return &Adapter{
		BaseClient: clients.NewBaseClient("mfl", BaseURL),
	}
}

func (a *Adapter) Platform() platforms.Platform { return platforms.PlatformMFL }
func (a *Adapter) AuthKind() platforms.AuthKind { return platforms.AuthAPIKey }
func (a *Adapter) RequiresAuthentication() bool { return false }
func (a *Adapter) SupportsPrivateLeagues() bool { return true }

func (a *Adapter) Authenticate(ctx context.Context, creds platforms.Credentials) error {
	a.apiKey = creds.APIKey
	return nil
}

func (a *Adapter) export(ctx context.Context, exportType, leagueID, extra string) ([]byte, error) {
	endpoint := fmt.Sprintf("/export?TYPE=%s&L=%s&JSON=1", exportType, leagueID)
	if extra != "" {
		endpoint += "&" + extra
	}
	if a.apiKey != "" {
		endpoint += "&APIKEY=" + a.apiKey
	}
	return a.Get(ctx, endpoint)
}

type leagueExport struct {
	League struct {
		Name       string `json:"name"`
		Franchises struct {
			Count     string `json:"count"`
			Franchise []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"franchise"`
		} `json:"franchises"`
	} `json:"league"`
}

func (a *Adapter) GetLeague(ctx context.Context, externalLeagueID string) (*platforms.League, error) {
	body, err := a.export(ctx, "league", externalLeagueID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	var resp leagueExport
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal league: %w", err)
	}
	return &platforms.League{
		ExternalID: externalLeagueID,
		Name:       resp.League.Name,
		Season:     seasonYear,
		TotalTeams: len(resp.League.Franchises.Franchise),
	}, nil
}

func (a *Adapter) GetTeams(ctx context.Context, externalLeagueID string) ([]platforms.Team, error) {
	body, err := a.export(ctx, "league", externalLeagueID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	var resp leagueExport
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal league: %w", err)
	}
	teams := make([]platforms.Team, 0, len(resp.League.Franchises.Franchise))
	for _, f := range resp.League.Franchises.Franchise {
		teams = append(teams, platforms.Team{ExternalID: f.ID, Name: f.Name})
	}
	return teams, nil
}

type rostersExport struct {
	Rosters struct {
		Franchise []struct {
			ID     string `json:"id"`
			Player []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"player"`
		} `json:"franchise"`
	} `json:"rosters"`
}

func (a *Adapter) GetRosters(ctx context.Context, externalLeagueID string) ([]platforms.Roster, error) {
	body, err := a.export(ctx, "rosters", externalLeagueID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get rosters: %w", err)
	}
	var resp rostersExport
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rosters: %w", err)
	}
	out := make([]platforms.Roster, 0, len(resp.Rosters.Franchise))
	for _, f := range resp.Rosters.Franchise {
		cr := platforms.Roster{ExternalTeamID: f.ID}
		for _, p := range f.Player {
			switch p.Status {
			case "ROSTER":
				cr.Bench = append(cr.Bench, p.ID)
			case "INJURED_RESERVE":
				cr.Reserve = append(cr.Reserve, p.ID)
			case "TAXI_SQUAD":
				cr.Taxi = append(cr.Taxi, p.ID)
			default:
				cr.Bench = append(cr.Bench, p.ID)
			}
		}
		out = append(out, cr)
	}
	return out, nil
}

type playersExport struct {
	Players struct {
		Player []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Position string `json:"position"`
			Team     string `json:"team"`
		} `json:"player"`
	} `json:"players"`
}

func (a *Adapter) GetPlayers(ctx context.Context, externalLeagueID string) ([]platforms.Player, error) {
	rosters, err := a.GetRosters(ctx, externalLeagueID)
	if err != nil {
		return nil, err
	}
	rostered := make(map[string]bool)
	var ids []string
	for _, r := range rosters {
		for _, group := range [][]string{r.Starters, r.Bench, r.Reserve, r.Taxi} {
			for _, pid := range group {
				if !rostered[pid] {
					rostered[pid] = true
					ids = append(ids, pid)
				}
			}
		}
	}

	body, err := a.export(ctx, "players", externalLeagueID, "PLAYERS="+strings.Join(ids, ","))
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	var resp playersExport
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal players: %w", err)
	}
	players := make([]platforms.Player, 0, len(resp.Players.Player))
	for _, p := range resp.Players.Player {
		players = append(players, platforms.Player{
			ExternalID: p.ID,
			FullName:   mflName(p.Name),
			Position:   mapPosition(p.Position),
			NFLTeam:    p.Team,
		})
	}
	return players, nil
}

// MapPlayerToInternal converts one raw MFL player object.
func (a *Adapter) MapPlayerToInternal(raw map[string]any) (*platforms.Player, error) {
	pid, _ := raw["id"].(string)
	if pid == "" {
		return nil, fmt.Errorf("player missing id")
	}
	p := &platforms.Player{ExternalID: pid}
	if v, ok := raw["name"].(string); ok {
		p.FullName = mflName(v)
	}
	if v, ok := raw["position"].(string); ok {
		p.Position = mapPosition(v)
	}
	if v, ok := raw["team"].(string); ok {
		p.NFLTeam = v
	}
	return p, nil
}

// mflName reverses MFL's "Last, First" format.
func mflName(name string) string {
	parts := strings.SplitN(name, ", ", 2)
	if len(parts) == 2 {
		return parts[1] + " " + parts[0]
	}
	return name
}

func mapPosition(pos string) string {
	switch pos {
	case "Def":
		return "DST"
	case "PK":
		return "K"
	default:
		return pos
	}
}

// GetTransactions, GetMatchups, GetScoringFormat and GetDraftResults are
// not wired for MFL yet; the orchestrator treats them as unsupported.
func (a *Adapter) GetTransactions(ctx context.Context, externalLeagueID string, week int) ([]platforms.Transaction, error) {
	return nil, platforms.ErrNotImplemented
}

func (a *Adapter) GetMatchups(ctx context.Context, externalLeagueID string, week int) ([]platforms.Matchup, error) {
	return nil, platforms.ErrNotImplemented
}

func (a *Adapter) GetScoringFormat(ctx context.Context, externalLeagueID string) (*platforms.ScoringFormat, error) {
	return nil, platforms.ErrNotImplemented
}

func (a *Adapter) GetDraftResults(ctx context.Context, externalLeagueID string) ([]platforms.DraftResult, error) {
	return nil, platforms.ErrNotImplemented
}
