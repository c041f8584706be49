package roster

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() models.LeagueSettings {
	return models.LeagueSettings{
		Cap:           200,
		SQB:           1,
		SRB:           2,
		SWR:           2,
		STE:           1,
		SK:            1,
		SDST:          1,
		SRBWRTE:       1,
		BenchMax:      6,
		PSMax:         4,
		IRMax:         2,
		FranchiseMax:  1,
		TransitionMax: 1,
		RookieMax:     2,
		ExtensionMax:  2,
	}
}

func testRoster(settings models.LeagueSettings, entries ...models.RosterEntry) *Roster {
	return New(models.RosterRow{
		ID:       uuid.New(),
		LeagueID: uuid.New(),
		TeamID:   uuid.New(),
		Week:     3,
		Year:     2026,
		Entries:  entries,
	}, settings)
}

func TestEligibleSlots_WRGetsFlexAndLiteral(t *testing.T) {
	slots := EligibleSlots(models.PositionWR, true, testSettings())

	assert.Contains(t, slots, models.SlotWR)
	assert.Contains(t, slots, models.SlotRBWRTE)
	assert.Contains(t, slots, models.SlotBench)
	assert.NotContains(t, slots, models.SlotQB)
}

func TestEligibleSlots_QBExcludedFromFlexWithoutSuperflex(t *testing.T) {
	settings := testSettings()
	slots := EligibleSlots(models.PositionQB, false, settings)
	assert.NotContains(t, slots, models.SlotRBWRTE)
	assert.NotContains(t, slots, models.SlotQBRBWRTE)

	settings.SQBRBWRTE = 1
	slots = EligibleSlots(models.PositionQB, false, settings)
	assert.Contains(t, slots, models.SlotQBRBWRTE)
}

func TestEligibleSlots_UnconfiguredSlotsOmitted(t *testing.T) {
	settings := testSettings()
	settings.SRBWRTE = 0
	slots := EligibleSlots(models.PositionRB, false, settings)
	assert.NotContains(t, slots, models.SlotRBWRTE)
}

func TestIsEligibleForSlot(t *testing.T) {
	r := testRoster(testSettings())

	assert.True(t, r.IsEligibleForSlot(models.SlotRBWRTE, models.PositionWR))
	assert.False(t, r.IsEligibleForSlot(models.SlotRBWRTE, models.PositionQB))
	// Holding slots accept any position.
	assert.True(t, r.IsEligibleForSlot(models.SlotBench, models.PositionQB))
	assert.True(t, r.IsEligibleForSlot(models.SlotIR, models.PositionK))
}

func TestOpenSlots_PrecedenceAndCapacity(t *testing.T) {
	settings := testSettings()
	rbStarter := models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotRB, Pos: models.PositionRB}
	rbStarter2 := models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotRB, Pos: models.PositionRB}
	r := testRoster(settings, rbStarter, rbStarter2)

	open := r.OpenSlots(EligibleSlots(models.PositionRB, true, settings))

	// Both literal RB slots are filled; flex comes before bench.
	require.NotEmpty(t, open)
	assert.NotContains(t, open, models.SlotRB)
	assert.Equal(t, models.SlotRBWRTE, open[0])
	assert.Equal(t, models.SlotBench, open[len(open)-1])
}

func TestAddRemovePlayer(t *testing.T) {
	r := testRoster(testSettings())
	pid := uuid.New()

	r.AddPlayer(AddPlayerParams{PlayerID: pid, Slot: models.SlotBench, Pos: models.PositionWR, Value: 15})
	require.True(t, r.Has(pid))
	entry, ok := r.Get(pid)
	require.True(t, ok)
	assert.Equal(t, models.SlotBench, entry.Slot)
	assert.Equal(t, 15, entry.Value)
	assert.Equal(t, models.TagNone, entry.Tag)

	r.RemovePlayer(pid)
	assert.False(t, r.Has(pid))

	// Removing an absent player is a no-op.
	r.RemovePlayer(pid)
	assert.Empty(t, r.Players())
}

func TestAvailableCap(t *testing.T) {
	r := testRoster(testSettings(),
		models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotQB, Pos: models.PositionQB, Value: 60},
		models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotBench, Pos: models.PositionRB, Value: 50},
	)
	assert.Equal(t, 90, r.AvailableCap())

	r.AddPlayer(AddPlayerParams{PlayerID: uuid.New(), Slot: models.SlotBench, Pos: models.PositionWR, Value: 100})
	assert.Equal(t, -10, r.AvailableCap())
}

func TestTagLimits(t *testing.T) {
	tagged := models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotQB, Pos: models.PositionQB, Tag: models.TagFranchise}
	other := uuid.New()
	r := testRoster(testSettings(), tagged,
		models.RosterEntry{PlayerID: other, Slot: models.SlotBench, Pos: models.PositionRB})

	// FranchiseMax is 1 and the slot is taken.
	assert.False(t, r.IsEligibleForTag(models.TagFranchise, other))
	// A player keeping his own tag does not count against himself.
	assert.True(t, r.IsEligibleForTag(models.TagFranchise, tagged.PlayerID))
	assert.True(t, r.IsEligibleForTag(models.TagTransition, other))
	assert.True(t, r.IsEligibleForTag(models.TagNone, other))
}

func TestHoldingCapacities(t *testing.T) {
	settings := testSettings()
	settings.BenchMax = 1
	settings.PSMax = 1
	settings.IRMax = 1

	r := testRoster(settings,
		models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotBench, Pos: models.PositionRB},
		models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotPSP, Pos: models.PositionWR},
	)

	assert.False(t, r.HasOpenBenchSlot())
	// Protected practice entries count against the practice squad maximum.
	assert.False(t, r.HasOpenPracticeSquadSlot())
	assert.True(t, r.HasOpenInjuredReserveSlot())
	assert.True(t, r.ReserveCompliant())
}

func TestViews(t *testing.T) {
	starter := models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotQB, Pos: models.PositionQB}
	bench := models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotBench, Pos: models.PositionRB}
	ps := models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotPS, Pos: models.PositionWR}
	ir := models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotIR, Pos: models.PositionTE}
	cov := models.RosterEntry{PlayerID: uuid.New(), Slot: models.SlotCOV, Pos: models.PositionK}
	r := testRoster(testSettings(), starter, bench, ps, ir, cov)

	assert.Len(t, r.Starters(), 1)
	assert.Len(t, r.Active(), 2)
	assert.Len(t, r.Practice(), 1)
	assert.Len(t, r.IR(), 1)
	assert.Len(t, r.Reserve(), 2)
	assert.Len(t, r.Players(), 5)
}

func TestRowReturnsCopy(t *testing.T) {
	pid := uuid.New()
	r := testRoster(testSettings(),
		models.RosterEntry{PlayerID: pid, Slot: models.SlotBench, Pos: models.PositionRB})

	row := r.Row()
	row.Entries[0].Slot = models.SlotIR

	entry, ok := r.Get(pid)
	require.True(t, ok)
	assert.Equal(t, models.SlotBench, entry.Slot)
}
