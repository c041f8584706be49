package models

import (
	"time"

	"github.com/google/uuid"
)

// TransitionBid is a restricted-free-agency counter-offer. The team that
// held the player when he was tagged (OriginalTeamID) has first-refusal
// rights regardless of amount.
type TransitionBid struct {
	ID               uuid.UUID   `json:"id"`
	LeagueID         uuid.UUID   `json:"league_id"`
	TeamID           uuid.UUID   `json:"team_id"`
	PlayerID         uuid.UUID   `json:"player_id"`
	OriginalTeamID   uuid.UUID   `json:"original_team_id"`
	Bid              int         `json:"bid"`
	Submitted        time.Time   `json:"submitted"`
	Processed        *time.Time  `json:"processed,omitempty"`
	Cancelled        *time.Time  `json:"cancelled,omitempty"`
	Succeeded        *bool       `json:"succeeded,omitempty"`
	Reason           string      `json:"reason,omitempty"`
	ReleasePlayerIDs []uuid.UUID `json:"release_player_ids,omitempty"`
}

// Pending reports whether the bid is still live.
func (b TransitionBid) Pending() bool {
	return b.Processed == nil && b.Cancelled == nil
}

// FromOriginalTeam reports whether the bid was placed by the team holding
// the player's rights.
func (b TransitionBid) FromOriginalTeam() bool {
	return b.TeamID == b.OriginalTeamID
}
