package models

import (
	"time"

	"github.com/google/uuid"
)

// WaiverType distinguishes the three claim pools.
type WaiverType string

const (
	WaiverFreeAgency         WaiverType = "FREE_AGENCY"
	WaiverFreeAgencyPractice WaiverType = "FREE_AGENCY_PRACTICE"
	WaiverPoach              WaiverType = "POACH"
)

// WaiverClaim is a pending or settled claim on a player. Exactly one of
// Processed/Cancelled terminates it; a processed claim also records
// Succeeded and, on failure, a human-readable Reason. Priority is the
// claiming team's waiver order at read time, not a submission snapshot.
type WaiverClaim struct {
	ID           uuid.UUID  `json:"id"`
	LeagueID     uuid.UUID  `json:"league_id"`
	TeamID       uuid.UUID  `json:"team_id"`
	PlayerID     uuid.UUID  `json:"player_id"`
	DropPlayerID *uuid.UUID `json:"drop_player_id,omitempty"`
	Type         WaiverType `json:"type"`
	Bid          int        `json:"bid"`
	Priority     int        `json:"po"`
	Submitted    time.Time  `json:"submitted"`
	Processed    *time.Time `json:"processed,omitempty"`
	Cancelled    *time.Time `json:"cancelled,omitempty"`
	Succeeded    *bool      `json:"succeeded,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

// Pending reports whether the claim is still live.
func (c WaiverClaim) Pending() bool {
	return c.Processed == nil && c.Cancelled == nil
}
