package models

import (
	"time"

	"github.com/google/uuid"
)

// Position is a player's literal NFL position.
type Position string

const (
	PositionQB  Position = "QB"
	PositionRB  Position = "RB"
	PositionWR  Position = "WR"
	PositionTE  Position = "TE"
	PositionK   Position = "K"
	PositionDST Position = "DST"
	PositionDL  Position = "DL"
	PositionLB  Position = "LB"
	PositionDB  Position = "DB"
)

// PlayerStatus mirrors the NFL injury/roster designation feed.
type PlayerStatus string

const (
	PlayerStatusActive         PlayerStatus = "ACTIVE"
	PlayerStatusInjuredReserve PlayerStatus = "INJURED_RESERVE"
	PlayerStatusPUP            PlayerStatus = "PHYSICALLY_UNABLE"
	PlayerStatusNonFootball    PlayerStatus = "NON_FOOTBALL_INJURY"
	PlayerStatusInactive       PlayerStatus = "INACTIVE"
)

// Player is immutable reference data. It is written only by ingestion
// jobs, never by settlement.
type Player struct {
	ID         uuid.UUID    `json:"id"`
	ExternalID string       `json:"external_id"`
	FullName   string       `json:"full_name"`
	Position   Position     `json:"position"`
	NFLTeam    string       `json:"nfl_team"`
	StartYear  int          `json:"start_year"`
	Status     PlayerStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Rookie reports whether the player is in his draft year.
func (p Player) Rookie(year int) bool {
	return p.StartYear == year
}

// ReserveEligible reports whether the player's NFL designation allows an
// IR slot placement under league rules.
func (p Player) ReserveEligible() bool {
	switch p.Status {
	case PlayerStatusInjuredReserve, PlayerStatusPUP, PlayerStatusNonFootball:
		return true
	default:
		return false
	}
}
