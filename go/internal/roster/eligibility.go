package roster

import "github.com/mcdev12/gridiron/go/internal/models"

// flexMembers lists the literal positions each flex slot accepts.
var flexMembers = map[models.Slot][]models.Position{
	models.SlotRBWR:     {models.PositionRB, models.PositionWR},
	models.SlotWRTE:     {models.PositionWR, models.PositionTE},
	models.SlotRBWRTE:   {models.PositionRB, models.PositionWR, models.PositionTE},
	models.SlotQBRBWRTE: {models.PositionQB, models.PositionRB, models.PositionWR, models.PositionTE},
}

// literalSlot maps a position to its same-named starter slot.
var literalSlot = map[models.Position]models.Slot{
	models.PositionQB:  models.SlotQB,
	models.PositionRB:  models.SlotRB,
	models.PositionWR:  models.SlotWR,
	models.PositionTE:  models.SlotTE,
	models.PositionK:   models.SlotK,
	models.PositionDST: models.SlotDST,
}

// EligibleSlots returns the starter slots a position may fill under the
// league's slot configuration, expanded with any configured flex slots whose
// member set includes the position. BENCH is appended when bench is true.
// A position with zero literal starter slots and no flex membership is only
// bench/IR/practice-squad eligible. Pure and deterministic.
func EligibleSlots(pos models.Position, bench bool, settings models.LeagueSettings) []models.Slot {
	var slots []models.Slot

	if lit, ok := literalSlot[pos]; ok && settings.StarterCount(lit) > 0 {
		slots = append(slots, lit)
	}

	for _, flex := range []models.Slot{models.SlotRBWR, models.SlotWRTE, models.SlotRBWRTE, models.SlotQBRBWRTE} {
		if settings.StarterCount(flex) == 0 {
			continue
		}
		for _, member := range flexMembers[flex] {
			if member == pos {
				slots = append(slots, flex)
				break
			}
		}
	}

	if bench {
		slots = append(slots, models.SlotBench)
	}
	return slots
}
