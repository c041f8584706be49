package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftPick is one pick's ownership and fill state. TeamID is the current
// owner and moves on trades; OriginalTeamID never changes. PlayerID stays
// nil until the pick is used.
type DraftPick struct {
	ID             uuid.UUID  `json:"id"`
	LeagueID       uuid.UUID  `json:"league_id"`
	TeamID         uuid.UUID  `json:"team_id"`
	OriginalTeamID uuid.UUID  `json:"original_team_id"`
	Round          int        `json:"round"`
	Pick           int        `json:"pick"`
	Year           int        `json:"year"`
	PlayerID       *uuid.UUID `json:"player_id,omitempty"`
	PickedAt       *time.Time `json:"picked_at,omitempty"`
}

// Unclaimed reports whether the pick can still be traded.
func (p DraftPick) Unclaimed() bool {
	return p.PlayerID == nil
}
