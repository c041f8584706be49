package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeState is derived from the lifecycle timestamps; at most one of the
// four terminal timestamps may ever be set.
type TradeState string

const (
	TradeStateOffered   TradeState = "OFFERED"
	TradeStateAccepted  TradeState = "ACCEPTED"
	TradeStateRejected  TradeState = "REJECTED"
	TradeStateCancelled TradeState = "CANCELLED"
	TradeStateVetoed    TradeState = "VETOED"
)

// Trade is a multi-asset proposal between two teams.
type Trade struct {
	ID              uuid.UUID `json:"id"`
	LeagueID        uuid.UUID `json:"league_id"`
	ProposingTeamID uuid.UUID `json:"proposing_team_id"`
	AcceptingTeamID uuid.UUID `json:"accepting_team_id"`
	UserID          uuid.UUID `json:"user_id"`

	// Assets moving from the proposing team to the accepting team.
	SentPlayerIDs []uuid.UUID `json:"sent_player_ids,omitempty"`
	SentPickIDs   []uuid.UUID `json:"sent_pick_ids,omitempty"`

	// Assets moving from the accepting team to the proposing team.
	ReceivedPlayerIDs []uuid.UUID `json:"received_player_ids,omitempty"`
	ReceivedPickIDs   []uuid.UUID `json:"received_pick_ids,omitempty"`

	// Players each side releases to make room, keyed by releasing team.
	DropPlayerIDs map[uuid.UUID][]uuid.UUID `json:"drop_player_ids,omitempty"`

	Offered   time.Time  `json:"offered"`
	Accepted  *time.Time `json:"accepted,omitempty"`
	Rejected  *time.Time `json:"rejected,omitempty"`
	Cancelled *time.Time `json:"cancelled,omitempty"`
	Vetoed    *time.Time `json:"vetoed,omitempty"`
}

// State derives the lifecycle state from the terminal timestamps.
func (t Trade) State() TradeState {
	switch {
	case t.Accepted != nil:
		return TradeStateAccepted
	case t.Rejected != nil:
		return TradeStateRejected
	case t.Cancelled != nil:
		return TradeStateCancelled
	case t.Vetoed != nil:
		return TradeStateVetoed
	default:
		return TradeStateOffered
	}
}

// Open reports whether the trade can still transition.
func (t Trade) Open() bool {
	return t.State() == TradeStateOffered
}
