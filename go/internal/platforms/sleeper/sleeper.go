package sleeper

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mcdev12/gridiron/go/clients"
	"github.com/mcdev12/gridiron/go/internal/platforms"
	"github.com/rs/zerolog/log"
)

// Adapter talks to the public Sleeper API. Sleeper is read-only and
// unauthenticated, so Authenticate is a no-op and private leagues are not
// reachable.
type Adapter struct {
	*clients.BaseClient
}

func init() {
	if err := platforms.Register(NewAdapter()); err != nil {
		log.Fatal().Err(err).Msg("failed to register sleeper adapter")
	}
}

func NewAdapter() *Adapter {
	return &Adapter{
		BaseClient: clients.NewBaseClient("sleeper", BaseURL),
	}
}

func (a *Adapter) Platform() platforms.Platform { return platforms.PlatformSleeper }
func (a *Adapter) AuthKind() platforms.AuthKind { return platforms.AuthNone }
func (a *Adapter) RequiresAuthentication() bool { return false }
func (a *Adapter) SupportsPrivateLeagues() bool { return false }

func (a *Adapter) Authenticate(ctx context.Context, creds platforms.Credentials) error {
	return nil
}

type leagueResponse struct {
	Name            string           `json:"name"`
	Season          string           `json:"season"`
	TotalRosters    int              `json:"total_rosters"`
	RosterPositions []string         `json:"roster_positions"`
	ScoringSettings map[string]any   `json:"scoring_settings"`
	Settings        struct {
		WaiverBudget int `json:"waiver_budget"`
		Leg          int `json:"leg"`
	} `json:"settings"`
}

func (a *Adapter) GetLeague(ctx context.Context, externalLeagueID string) (*platforms.League, error) {
	body, err := a.Get(ctx, fmt.Sprintf(leaguePath, externalLeagueID))
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	var resp leagueResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal league: %w", err)
	}

	season, err := strconv.Atoi(resp.Season)
	if err != nil {
		return nil, fmt.Errorf("invalid season %q: %w", resp.Season, err)
	}
	slots := make(map[string]int)
	for _, pos := range resp.RosterPositions {
		slots[pos]++
	}
	return &platforms.League{
		ExternalID:   externalLeagueID,
		Name:         resp.Name,
		Season:       season,
		Week:         resp.Settings.Leg,
		TotalTeams:   resp.TotalRosters,
		RosterSlots:  slots,
		WaiverBudget: resp.Settings.WaiverBudget,
	}, nil
}

type rosterResponse struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
	Starters []string `json:"starters"`
	Reserve  []string `json:"reserve"`
	Taxi     []string `json:"taxi"`
}

type userResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Metadata    struct {
		TeamName string `json:"team_name"`
	} `json:"metadata"`
}

func (a *Adapter) GetTeams(ctx context.Context, externalLeagueID string) ([]platforms.Team, error) {
	rosters, err := a.fetchRosters(ctx, externalLeagueID)
	if err != nil {
		return nil, err
	}
	body, err := a.Get(ctx, fmt.Sprintf(usersPath, externalLeagueID))
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	var users []userResponse
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}
	byUser := make(map[string]userResponse, len(users))
	for _, u := range users {
		byUser[u.UserID] = u
	}

	// Sleeper's stable team identity is the roster_id, not the user.
	teams := make([]platforms.Team, 0, len(rosters))
	for _, r := range rosters {
		team := platforms.Team{ExternalID: strconv.Itoa(r.RosterID)}
		if u, ok := byUser[r.OwnerID]; ok {
			team.OwnerName = u.DisplayName
			team.Name = u.Metadata.TeamName
			if team.Name == "" {
				team.Name = u.DisplayName
			}
		}
		if team.Name == "" {
			team.Name = "Team " + team.ExternalID
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func (a *Adapter) GetRosters(ctx context.Context, externalLeagueID string) ([]platforms.Roster, error) {
	rosters, err := a.fetchRosters(ctx, externalLeagueID)
	if err != nil {
		return nil, err
	}
	out := make([]platforms.Roster, 0, len(rosters))
	for _, r := range rosters {
		starters := make(map[string]bool, len(r.Starters))
		for _, pid := range r.Starters {
			if pid != "" && pid != "0" {
				starters[pid] = true
			}
		}
		reserve := make(map[string]bool, len(r.Reserve))
		for _, pid := range r.Reserve {
			reserve[pid] = true
		}
		taxi := make(map[string]bool, len(r.Taxi))
		for _, pid := range r.Taxi {
			taxi[pid] = true
		}

		cr := platforms.Roster{ExternalTeamID: strconv.Itoa(r.RosterID)}
		for _, pid := range r.Players {
			switch {
			case starters[pid]:
				cr.Starters = append(cr.Starters, pid)
			case reserve[pid]:
				cr.Reserve = append(cr.Reserve, pid)
			case taxi[pid]:
				cr.Taxi = append(cr.Taxi, pid)
			default:
				cr.Bench = append(cr.Bench, pid)
			}
		}
		out = append(out, cr)
	}
	return out, nil
}

func (a *Adapter) fetchRosters(ctx context.Context, externalLeagueID string) ([]rosterResponse, error) {
	body, err := a.Get(ctx, fmt.Sprintf(rostersPath, externalLeagueID))
	if err != nil {
		return nil, fmt.Errorf("failed to get rosters: %w", err)
	}
	var rosters []rosterResponse
	if err := json.Unmarshal(body, &rosters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rosters: %w", err)
	}
	return rosters, nil
}

// GetPlayers returns canonical records for every player currently rostered
// in the league. Sleeper only exposes the full NFL player dump, so the
// roster membership filters it down.
func (a *Adapter) GetPlayers(ctx context.Context, externalLeagueID string) ([]platforms.Player, error) {
	rosters, err := a.fetchRosters(ctx, externalLeagueID)
	if err != nil {
		return nil, err
	}
	rostered := make(map[string]bool)
	for _, r := range rosters {
		for _, pid := range r.Players {
			rostered[pid] = true
		}
	}

	body, err := a.Get(ctx, playersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}
	var dump map[string]map[string]any
	if err := json.Unmarshal(body, &dump); err != nil {
		return nil, fmt.Errorf("failed to unmarshal players: %w", err)
	}

	var players []platforms.Player
	for pid, raw := range dump {
		if !rostered[pid] {
			continue
		}
		raw["player_id"] = pid
		p, err := a.MapPlayerToInternal(raw)
		if err != nil {
			log.Warn().Str("player_id", pid).Err(err).Msg("skipping unmappable player")
			continue
		}
		players = append(players, *p)
	}
	return players, nil
}

// MapPlayerToInternal converts one raw Sleeper player object.
func (a *Adapter) MapPlayerToInternal(raw map[string]any) (*platforms.Player, error) {
	pid, _ := raw["player_id"].(string)
	if pid == "" {
		return nil, fmt.Errorf("player missing player_id")
	}
	p := &platforms.Player{ExternalID: pid}
	if v, ok := raw["full_name"].(string); ok {
		p.FullName = v
	}
	if p.FullName == "" {
		first, _ := raw["first_name"].(string)
		last, _ := raw["last_name"].(string)
		p.FullName = first + " " + last
	}
	if v, ok := raw["position"].(string); ok {
		p.Position = mapPosition(v)
	}
	if v, ok := raw["team"].(string); ok {
		p.NFLTeam = v
	}
	if v, ok := raw["years_exp"].(float64); ok {
		p.YearsExp = int(v)
	}
	if v, ok := raw["status"].(string); ok {
		p.Status = mapStatus(v)
	}
	return p, nil
}

func mapPosition(pos string) string {
	switch pos {
	case "DEF":
		return "DST"
	default:
		return pos
	}
}

func mapStatus(status string) string {
	switch status {
	case "Injured Reserve":
		return "INJURED_RESERVE"
	case "PUP":
		return "PHYSICALLY_UNABLE"
	case "Non Football Injury":
		return "NON_FOOTBALL_INJURY"
	case "Inactive":
		return "INACTIVE"
	default:
		return "ACTIVE"
	}
}

type transactionResponse struct {
	TransactionID string         `json:"transaction_id"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	Adds          map[string]int `json:"adds"`
	Drops         map[string]int `json:"drops"`
	Settings      struct {
		WaiverBid int `json:"waiver_bid"`
	} `json:"settings"`
	Leg           int   `json:"leg"`
	StatusUpdated int64 `json:"status_updated"`
}

func (a *Adapter) GetTransactions(ctx context.Context, externalLeagueID string, week int) ([]platforms.Transaction, error) {
	body, err := a.Get(ctx, fmt.Sprintf(transactionsPath, externalLeagueID, week))
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	var resp []transactionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
	}

	var out []platforms.Transaction
	for _, t := range resp {
		if t.Status != "complete" {
			continue
		}
		occurred := millisToTime(t.StatusUpdated)
		for pid, rosterID := range t.Adds {
			out = append(out, platforms.Transaction{
				ExternalID:       t.TransactionID + ":add:" + pid,
				ExternalTeamID:   strconv.Itoa(rosterID),
				ExternalPlayerID: pid,
				Kind:             mapTransactionKind(t.Type, true),
				FAAB:             t.Settings.WaiverBid,
				Week:             t.Leg,
				OccurredAt:       occurred,
			})
		}
		for pid, rosterID := range t.Drops {
			out = append(out, platforms.Transaction{
				ExternalID:       t.TransactionID + ":drop:" + pid,
				ExternalTeamID:   strconv.Itoa(rosterID),
				ExternalPlayerID: pid,
				Kind:             mapTransactionKind(t.Type, false),
				Week:             t.Leg,
				OccurredAt:       occurred,
			})
		}
	}
	return out, nil
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func mapTransactionKind(sleeperType string, add bool) platforms.TransactionKind {
	switch sleeperType {
	case "trade":
		return platforms.TxTrade
	case "waiver":
		if add {
			return platforms.TxWaiver
		}
		return platforms.TxDrop
	case "free_agent":
		if add {
			return platforms.TxAdd
		}
		return platforms.TxDrop
	default:
		return platforms.TxUnknown
	}
}

type matchupResponse struct {
	RosterID  int     `json:"roster_id"`
	MatchupID int     `json:"matchup_id"`
	Points    float64 `json:"points"`
}

func (a *Adapter) GetMatchups(ctx context.Context, externalLeagueID string, week int) ([]platforms.Matchup, error) {
	body, err := a.Get(ctx, fmt.Sprintf(matchupsPath, externalLeagueID, week))
	if err != nil {
		return nil, fmt.Errorf("failed to get matchups: %w", err)
	}
	var resp []matchupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matchups: %w", err)
	}

	paired := make(map[int]*platforms.Matchup)
	var out []platforms.Matchup
	for _, m := range resp {
		existing, ok := paired[m.MatchupID]
		if !ok {
			paired[m.MatchupID] = &platforms.Matchup{
				Week:            strconv.Itoa(week),
				HomeTeamID:      strconv.Itoa(m.RosterID),
				HomePoints:      m.Points,
				ExternalMatchID: strconv.Itoa(m.MatchupID),
			}
			continue
		}
		existing.AwayTeamID = strconv.Itoa(m.RosterID)
		existing.AwayPoints = m.Points
		out = append(out, *existing)
	}
	return out, nil
}

func (a *Adapter) GetScoringFormat(ctx context.Context, externalLeagueID string) (*platforms.ScoringFormat, error) {
	body, err := a.Get(ctx, fmt.Sprintf(leaguePath, externalLeagueID))
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	var resp leagueResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal league: %w", err)
	}

	rules := make(map[string]float64, len(resp.ScoringSettings))
	for stat, v := range resp.ScoringSettings {
		if f, ok := v.(float64); ok {
			rules[stat] = f
		}
	}
	return &platforms.ScoringFormat{Name: resp.Name, Rules: rules}, nil
}

type draftListResponse struct {
	DraftID string `json:"draft_id"`
	Status  string `json:"status"`
}

type draftPickResponse struct {
	PlayerID string `json:"player_id"`
	RosterID int    `json:"roster_id"`
	Round    int    `json:"round"`
	PickNo   int    `json:"pick_no"`
}

func (a *Adapter) GetDraftResults(ctx context.Context, externalLeagueID string) ([]platforms.DraftResult, error) {
	body, err := a.Get(ctx, fmt.Sprintf(draftsPath, externalLeagueID))
	if err != nil {
		return nil, fmt.Errorf("failed to get drafts: %w", err)
	}
	var drafts []draftListResponse
	if err := json.Unmarshal(body, &drafts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal drafts: %w", err)
	}

	var out []platforms.DraftResult
	for _, d := range drafts {
		if d.Status != "complete" {
			continue
		}
		pickBody, err := a.Get(ctx, fmt.Sprintf(draftPicksPath, d.DraftID))
		if err != nil {
			return nil, fmt.Errorf("failed to get draft picks: %w", err)
		}
		var picks []draftPickResponse
		if err := json.Unmarshal(pickBody, &picks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal draft picks: %w", err)
		}
		for _, p := range picks {
			out = append(out, platforms.DraftResult{
				ExternalTeamID:   strconv.Itoa(p.RosterID),
				ExternalPlayerID: p.PlayerID,
				Round:            p.Round,
				Pick:             p.PickNo,
			})
		}
	}
	return out, nil
}
