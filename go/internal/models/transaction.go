package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a roster-affecting event.
type TransactionType string

const (
	TransactionRosterAdd        TransactionType = "ROSTER_ADD"
	TransactionRosterRelease    TransactionType = "ROSTER_RELEASE"
	TransactionRosterActivate   TransactionType = "ROSTER_ACTIVATE"
	TransactionRosterDeactivate TransactionType = "ROSTER_DEACTIVATE"
	TransactionTrade            TransactionType = "TRADE"
	TransactionDraft            TransactionType = "DRAFT"
	TransactionReserveIR        TransactionType = "RESERVE_IR"
	TransactionReserveCOV       TransactionType = "RESERVE_COV"
	TransactionPracticeAdd      TransactionType = "PRACTICE_ADD"
	TransactionPracticeProtect  TransactionType = "PRACTICE_PROTECTED"
	TransactionFranchiseTag     TransactionType = "FRANCHISE_TAG"
	TransactionRookieTag        TransactionType = "ROOKIE_TAG"
	TransactionExtension        TransactionType = "EXTENSION"
	TransactionTransitionTag    TransactionType = "TRANSITION_TAG"
	TransactionPoached          TransactionType = "POACHED"
)

// Transaction is one immutable row in the append-only ledger. The most
// recent transaction per (team, player) is authoritative for current value
// and acquisition-recency checks.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	LeagueID  uuid.UUID       `json:"league_id"`
	TeamID    uuid.UUID       `json:"team_id"`
	PlayerID  uuid.UUID       `json:"player_id"`
	Type      TransactionType `json:"type"`
	Value     int             `json:"value"`
	Week      int             `json:"week"`
	Year      int             `json:"year"`
	Timestamp time.Time       `json:"timestamp"`
	UserID    *uuid.UUID      `json:"user_id,omitempty"`
}
