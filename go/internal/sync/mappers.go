package sync

import (
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/mcdev12/gridiron/go/internal/platforms"
)

// mapPlayer converts a canonical player into the internal reference record.
// Platforms reporting experience instead of a start year get it derived
// from the season being synced.
func mapPlayer(p platforms.Player, season int) models.Player {
	startYear := p.StartYear
	if startYear == 0 {
		startYear = season - p.YearsExp
	}
	return models.Player{
		ExternalID: p.ExternalID,
		FullName:   p.FullName,
		Position:   models.Position(p.Position),
		NFLTeam:    p.NFLTeam,
		StartYear:  startYear,
		Status:     mapPlayerStatus(p.Status),
	}
}

func mapPlayerStatus(status string) models.PlayerStatus {
	switch models.PlayerStatus(status) {
	case models.PlayerStatusInjuredReserve, models.PlayerStatusPUP,
		models.PlayerStatusNonFootball, models.PlayerStatusInactive:
		return models.PlayerStatus(status)
	default:
		return models.PlayerStatusActive
	}
}

// mapTransactionKind converts the canonical transaction vocabulary into
// ledger types. Unknown kinds map to nothing and are skipped by the caller.
func mapTransactionKind(kind platforms.TransactionKind) (models.TransactionType, bool) {
	switch kind {
	case platforms.TxAdd, platforms.TxWaiver:
		return models.TransactionRosterAdd, true
	case platforms.TxDrop:
		return models.TransactionRosterRelease, true
	case platforms.TxTrade:
		return models.TransactionTrade, true
	case platforms.TxDraft:
		return models.TransactionDraft, true
	case platforms.TxReserve:
		return models.TransactionReserveIR, true
	default:
		return "", false
	}
}

// designation pairs an external player id group with the slot family it
// lands in during a merge.
type designation struct {
	playerIDs []string
	starter   bool
	slot      models.Slot
}

func rosterDesignations(r platforms.Roster) []designation {
	return []designation{
		{playerIDs: r.Starters, starter: true},
		{playerIDs: r.Bench, slot: models.SlotBench},
		{playerIDs: r.Reserve, slot: models.SlotIR},
		{playerIDs: r.Taxi, slot: models.SlotPS},
	}
}
