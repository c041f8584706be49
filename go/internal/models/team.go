package models

import (
	"time"

	"github.com/google/uuid"
)

// Team is one franchise in a league. WaiverOrder is the ascending waiver
// priority (lower wins ties); FAAB is the remaining acquisition budget.
type Team struct {
	ID          uuid.UUID `json:"id"`
	LeagueID    uuid.UUID `json:"league_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	ExternalID  string    `json:"external_id,omitempty"`
	Name        string    `json:"name"`
	FAAB        int       `json:"faab"`
	WaiverOrder int       `json:"waiver_order"`
	CreatedAt   time.Time `json:"created_at"`
}
