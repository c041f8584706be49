package models

import (
	"time"

	"github.com/google/uuid"
)

// WaiverMode selects how free-agency claims are ranked.
type WaiverMode string

const (
	WaiverModeFAAB     WaiverMode = "FAAB"
	WaiverModePriority WaiverMode = "PRIORITY"
)

// LeagueSettings is the per-league rule configuration consumed by the
// roster model, eligibility resolver and settlement.
type LeagueSettings struct {
	Cap  int `json:"cap"`
	FAAB int `json:"faab"`

	// Starter slot counts per literal position.
	SQB  int `json:"sqb"`
	SRB  int `json:"srb"`
	SWR  int `json:"swr"`
	STE  int `json:"ste"`
	SK   int `json:"sk"`
	SDST int `json:"sdst"`

	// Flex slot counts.
	SRBWR     int `json:"srbwr"`
	SRBWRTE   int `json:"srbwrte"`
	SQBRBWRTE int `json:"sqbrbwrte"`
	SWRTE     int `json:"swrte"`

	// Holding slot maximums per category.
	BenchMax int `json:"bench_max"`
	PSMax    int `json:"ps_max"`
	IRMax    int `json:"ir_max"`

	// Tag maximums per team.
	FranchiseMax  int `json:"franchise_max"`
	TransitionMax int `json:"transition_max"`
	RookieMax     int `json:"rookie_max"`

	ExtensionMax int `json:"extension_max"`

	WaiverMode WaiverMode `json:"waiver_mode"`

	TradeDeadline      *time.Time `json:"trade_deadline,omitempty"`
	TransitionDeadline *time.Time `json:"transition_deadline,omitempty"`

	// Practice-squad free agency opens only after the rookie draft and
	// closes with the regular season.
	DraftCompletedAt *time.Time `json:"draft_completed_at,omitempty"`
	SeasonEndsAt     *time.Time `json:"season_ends_at,omitempty"`
}

// TagMax returns the configured team maximum for a tag type.
func (s LeagueSettings) TagMax(tag Tag) int {
	switch tag {
	case TagFranchise:
		return s.FranchiseMax
	case TagTransition:
		return s.TransitionMax
	case TagRookie:
		return s.RookieMax
	default:
		return 0
	}
}

// StarterCount returns the configured number of starter slots of one kind.
func (s LeagueSettings) StarterCount(slot Slot) int {
	switch slot {
	case SlotQB:
		return s.SQB
	case SlotRB:
		return s.SRB
	case SlotWR:
		return s.SWR
	case SlotTE:
		return s.STE
	case SlotK:
		return s.SK
	case SlotDST:
		return s.SDST
	case SlotRBWR:
		return s.SRBWR
	case SlotRBWRTE:
		return s.SRBWRTE
	case SlotQBRBWRTE:
		return s.SQBRBWRTE
	case SlotWRTE:
		return s.SWRTE
	default:
		return 0
	}
}

// LeagueStatus tracks the league lifecycle.
type LeagueStatus string

const (
	LeagueStatusPending   LeagueStatus = "PENDING"
	LeagueStatusActive    LeagueStatus = "ACTIVE"
	LeagueStatusCompleted LeagueStatus = "COMPLETED"
)

// League is a fantasy football league.
type League struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	CommissionerID uuid.UUID      `json:"commissioner_id"`
	Settings       LeagueSettings `json:"settings"`
	Status         LeagueStatus   `json:"status"`
	Year           int            `json:"year"`
	Week           int            `json:"week"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
