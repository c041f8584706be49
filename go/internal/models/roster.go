package models

import (
	"github.com/google/uuid"
)

// Slot is the roster position-category a roster entry occupies.
type Slot string

const (
	SlotQB       Slot = "QB"
	SlotRB       Slot = "RB"
	SlotWR       Slot = "WR"
	SlotTE       Slot = "TE"
	SlotK        Slot = "K"
	SlotDST      Slot = "DST"
	SlotRBWR     Slot = "RB_WR"
	SlotRBWRTE   Slot = "RB_WR_TE"
	SlotQBRBWRTE Slot = "QB_RB_WR_TE"
	SlotWRTE     Slot = "WR_TE"
	SlotBench    Slot = "BENCH"
	SlotIR       Slot = "IR"
	SlotCOV      Slot = "COV"
	SlotPS       Slot = "PS"
	SlotPSP      Slot = "PSP" // protected practice squad
)

// slotPrecedence fixes the canonical fill order: literal starters first,
// then flex, then holding slots.
var slotPrecedence = map[Slot]int{
	SlotQB:       0,
	SlotRB:       1,
	SlotWR:       2,
	SlotTE:       3,
	SlotK:        4,
	SlotDST:      5,
	SlotRBWR:     6,
	SlotWRTE:     7,
	SlotRBWRTE:   8,
	SlotQBRBWRTE: 9,
	SlotBench:    10,
	SlotPS:       11,
	SlotPSP:      12,
	SlotIR:       13,
	SlotCOV:      14,
}

// SlotPrecedence returns the canonical ordering rank for a slot.
func SlotPrecedence(s Slot) int {
	p, ok := slotPrecedence[s]
	if !ok {
		return len(slotPrecedence)
	}
	return p
}

// Starter reports whether the slot counts toward the starting lineup.
func (s Slot) Starter() bool {
	switch s {
	case SlotBench, SlotIR, SlotCOV, SlotPS, SlotPSP:
		return false
	default:
		return true
	}
}

// Holding reports whether the slot holds players without a position
// constraint (bench, reserve, practice squad).
func (s Slot) Holding() bool {
	return !s.Starter()
}

// Tag is a roster designation limiting how many players per team may hold
// it at once.
type Tag string

const (
	TagNone       Tag = "NONE"
	TagFranchise  Tag = "FRANCHISE"
	TagTransition Tag = "TRANSITION"
	TagRookie     Tag = "ROOKIE"
)

// RosterEntry is one player's membership on a roster row.
type RosterEntry struct {
	PlayerID   uuid.UUID `json:"player_id"`
	Slot       Slot      `json:"slot"`
	Pos        Position  `json:"pos"`
	Tag        Tag       `json:"tag"`
	Value      int       `json:"value"`
	Extensions int       `json:"extensions"`
}

// RosterRow is one team's roster for a (team, week, year). Rows are never
// deleted; the week-by-week sequence forms a history of team composition.
type RosterRow struct {
	ID       uuid.UUID     `json:"id"`
	LeagueID uuid.UUID     `json:"league_id"`
	TeamID   uuid.UUID     `json:"team_id"`
	Week     int           `json:"week"`
	Year     int           `json:"year"`
	Entries  []RosterEntry `json:"entries"`
}
