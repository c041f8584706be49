package platforms

import "time"

// Canonical interchange formats. Every adapter maps its platform's payloads
// into these before the orchestrator validates and merges them; nothing
// platform-specific may leak past this package.

// League is the canonical league configuration.
type League struct {
	ExternalID   string         `json:"external_id"`
	Name         string         `json:"name"`
	Season       int            `json:"season"`
	Week         int            `json:"week"`
	TotalTeams   int            `json:"total_teams"`
	RosterSlots  map[string]int `json:"roster_slots,omitempty"`
	WaiverBudget int            `json:"waiver_budget,omitempty"`
}

// Team is the canonical franchise record.
type Team struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	OwnerName  string `json:"owner_name,omitempty"`
}

// Roster is one team's external membership, expressed as external player
// ids grouped by designation.
type Roster struct {
	ExternalTeamID string   `json:"external_team_id"`
	Starters       []string `json:"starters,omitempty"`
	Bench          []string `json:"bench,omitempty"`
	Reserve        []string `json:"reserve,omitempty"`
	Taxi           []string `json:"taxi,omitempty"`
}

// Player is the canonical player record. Platforms that report experience
// instead of a start year fill YearsExp and leave StartYear zero; the sync
// layer derives the start year from the current season.
type Player struct {
	ExternalID string `json:"external_id"`
	FullName   string `json:"full_name"`
	Position   string `json:"position"`
	NFLTeam    string `json:"nfl_team,omitempty"`
	StartYear  int    `json:"start_year,omitempty"`
	YearsExp   int    `json:"years_exp,omitempty"`
	Status     string `json:"status,omitempty"`
}

// TransactionKind is the canonical transaction classification. Adapters map
// their platform's vocabulary onto this set.
type TransactionKind string

const (
	TxAdd     TransactionKind = "ADD"
	TxDrop    TransactionKind = "DROP"
	TxTrade   TransactionKind = "TRADE"
	TxWaiver  TransactionKind = "WAIVER"
	TxDraft   TransactionKind = "DRAFT"
	TxReserve TransactionKind = "RESERVE"
	TxUnknown TransactionKind = "UNKNOWN"
)

// Transaction is one canonical roster event from the platform's history.
type Transaction struct {
	ExternalID       string          `json:"external_id"`
	ExternalTeamID   string          `json:"external_team_id"`
	ExternalPlayerID string          `json:"external_player_id"`
	Kind             TransactionKind `json:"kind"`
	FAAB             int             `json:"faab,omitempty"`
	Week             int             `json:"week"`
	OccurredAt       time.Time       `json:"occurred_at"`
}

// Matchup is one head-to-head pairing for a week.
type Matchup struct {
	Week            string  `json:"week"`
	HomeTeamID      string  `json:"home_team_id"`
	AwayTeamID      string  `json:"away_team_id"`
	HomePoints      float64 `json:"home_points,omitempty"`
	AwayPoints      float64 `json:"away_points,omitempty"`
	ExternalMatchID string  `json:"external_match_id,omitempty"`
}

// ScoringFormat carries scoring rules keyed by stat code. The sync layer
// content-hashes the marshalled rules to deduplicate stored formats.
type ScoringFormat struct {
	Name  string             `json:"name"`
	Rules map[string]float64 `json:"rules"`
}

// DraftResult is one completed draft selection.
type DraftResult struct {
	ExternalTeamID   string `json:"external_team_id"`
	ExternalPlayerID string `json:"external_player_id"`
	Round            int    `json:"round"`
	Pick             int    `json:"pick"`
}
