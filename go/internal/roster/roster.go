package roster

import (
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/gridiron/go/internal/models"
)

// Roster is the in-memory model of one team's roster for a (team, week,
// year). It is pure: no I/O, no clock. Mutation methods are primitives that
// assume callers validated the relevant invariants first; the capacity and
// eligibility queries exist so callers can do exactly that. Derived views
// are computed from the entry list on every call so they can never
// desynchronize from it.
type Roster struct {
	row      models.RosterRow
	settings models.LeagueSettings
}

// New builds a Roster from a persisted roster row and the league settings.
func New(row models.RosterRow, settings models.LeagueSettings) *Roster {
	entries := make([]models.RosterEntry, len(row.Entries))
	copy(entries, row.Entries)
	row.Entries = entries
	return &Roster{row: row, settings: settings}
}

// TeamID returns the owning team.
func (r *Roster) TeamID() uuid.UUID { return r.row.TeamID }

// Week returns the roster row's week.
func (r *Roster) Week() int { return r.row.Week }

// Year returns the roster row's year.
func (r *Roster) Year() int { return r.row.Year }

// Has reports whether the player is on the roster.
func (r *Roster) Has(playerID uuid.UUID) bool {
	_, ok := r.Get(playerID)
	return ok
}

// Get returns the entry for a player, if present.
func (r *Roster) Get(playerID uuid.UUID) (models.RosterEntry, bool) {
	for _, e := range r.row.Entries {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return models.RosterEntry{}, false
}

// AvailableSpace reports whether an unconstrained bench slot remains.
func (r *Roster) AvailableSpace() bool {
	return r.HasOpenBenchSlot()
}

// AvailableCap returns the league cap minus the sum of rostered player
// values. It may go negative transiently during validation; callers reject
// on < 0.
func (r *Roster) AvailableCap() int {
	used := 0
	for _, e := range r.row.Entries {
		used += e.Value
	}
	return r.settings.Cap - used
}

// OpenSlots returns, in canonical slot precedence (starters before flex
// before bench), the slots from eligible that still have capacity.
func (r *Roster) OpenSlots(eligible []models.Slot) []models.Slot {
	var open []models.Slot
	seen := make(map[models.Slot]bool)
	for _, slot := range eligible {
		if seen[slot] {
			continue
		}
		seen[slot] = true
		if r.countSlot(slot) < r.slotCapacity(slot) {
			open = append(open, slot)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		return models.SlotPrecedence(open[i]) < models.SlotPrecedence(open[j])
	})
	return open
}

// AddPlayerParams carries one roster insertion.
type AddPlayerParams struct {
	PlayerID uuid.UUID
	Slot     models.Slot
	Pos      models.Position
	Value    int
}

// AddPlayer inserts an entry. It is a pure mutation primitive: the caller
// must have validated open-slot existence and cap room first; AddPlayer
// does not re-validate.
func (r *Roster) AddPlayer(p AddPlayerParams) {
	r.row.Entries = append(r.row.Entries, models.RosterEntry{
		PlayerID: p.PlayerID,
		Slot:     p.Slot,
		Pos:      p.Pos,
		Tag:      models.TagNone,
		Value:    p.Value,
	})
}

// RemovePlayer deletes the player's entry. No-op if absent.
func (r *Roster) RemovePlayer(playerID uuid.UUID) {
	for i, e := range r.row.Entries {
		if e.PlayerID == playerID {
			r.row.Entries = append(r.row.Entries[:i], r.row.Entries[i+1:]...)
			return
		}
	}
}

// MovePlayer reassigns the player's slot in place. No-op if absent.
func (r *Roster) MovePlayer(playerID uuid.UUID, slot models.Slot) {
	for i := range r.row.Entries {
		if r.row.Entries[i].PlayerID == playerID {
			r.row.Entries[i].Slot = slot
			return
		}
	}
}

// UpdateValue mutates the player's acquisition value in place.
func (r *Roster) UpdateValue(playerID uuid.UUID, value int) {
	for i := range r.row.Entries {
		if r.row.Entries[i].PlayerID == playerID {
			r.row.Entries[i].Value = value
			return
		}
	}
}

// IsEligibleForSlot reports whether a position may occupy a slot. The
// unconstrained holding slots accept any position; starter slots defer to
// the eligibility resolver.
func (r *Roster) IsEligibleForSlot(slot models.Slot, pos models.Position) bool {
	if slot.Holding() {
		return true
	}
	for _, s := range EligibleSlots(pos, false, r.settings) {
		if s == slot {
			return true
		}
	}
	return false
}

// IsEligibleForTag reports whether assigning the tag to the player would
// stay within the league's per-tag maximum. A player already holding the
// tag does not count against himself.
func (r *Roster) IsEligibleForTag(tag models.Tag, playerID uuid.UUID) bool {
	if tag == models.TagNone {
		return true
	}
	count := 0
	for _, e := range r.row.Entries {
		if e.Tag == tag && e.PlayerID != playerID {
			count++
		}
	}
	return count < r.settings.TagMax(tag)
}

// SetTag assigns a tag in place. Callers validate with IsEligibleForTag.
func (r *Roster) SetTag(playerID uuid.UUID, tag models.Tag) {
	for i := range r.row.Entries {
		if r.row.Entries[i].PlayerID == playerID {
			r.row.Entries[i].Tag = tag
			return
		}
	}
}

// RemoveTag clears the player's tag.
func (r *Roster) RemoveTag(playerID uuid.UUID) {
	r.SetTag(playerID, models.TagNone)
}

// BumpExtensions increments the player's extension count in place.
func (r *Roster) BumpExtensions(playerID uuid.UUID) {
	for i := range r.row.Entries {
		if r.row.Entries[i].PlayerID == playerID {
			r.row.Entries[i].Extensions++
			return
		}
	}
}

// ReserveCompliant reports whether the reserve categories are within their
// configured maximums. Settlement refuses wins for teams carrying an
// over-limit reserve group.
func (r *Roster) ReserveCompliant() bool {
	return r.countSlot(models.SlotIR) <= r.settings.IRMax &&
		r.countSlot(models.SlotPS)+r.countSlot(models.SlotPSP) <= r.settings.PSMax
}

// HasOpenBenchSlot reports whether the bench category has capacity.
func (r *Roster) HasOpenBenchSlot() bool {
	return r.countSlot(models.SlotBench) < r.settings.BenchMax
}

// HasOpenPracticeSquadSlot reports whether the practice squad (protected
// entries included) has capacity.
func (r *Roster) HasOpenPracticeSquadSlot() bool {
	return r.countSlot(models.SlotPS)+r.countSlot(models.SlotPSP) < r.settings.PSMax
}

// HasOpenInjuredReserveSlot reports whether the IR category has capacity.
func (r *Roster) HasOpenInjuredReserveSlot() bool {
	return r.countSlot(models.SlotIR) < r.settings.IRMax
}

// Starters returns entries occupying starter slots.
func (r *Roster) Starters() []models.RosterEntry {
	return r.filter(func(e models.RosterEntry) bool { return e.Slot.Starter() })
}

// Active returns starters plus bench (everything not on reserve or the
// practice squad).
func (r *Roster) Active() []models.RosterEntry {
	return r.filter(func(e models.RosterEntry) bool {
		return e.Slot.Starter() || e.Slot == models.SlotBench
	})
}

// Practice returns practice-squad entries, protected included.
func (r *Roster) Practice() []models.RosterEntry {
	return r.filter(func(e models.RosterEntry) bool {
		return e.Slot == models.SlotPS || e.Slot == models.SlotPSP
	})
}

// IR returns injured-reserve entries.
func (r *Roster) IR() []models.RosterEntry {
	return r.filter(func(e models.RosterEntry) bool { return e.Slot == models.SlotIR })
}

// Reserve returns all reserve entries (IR and COVID reserve).
func (r *Roster) Reserve() []models.RosterEntry {
	return r.filter(func(e models.RosterEntry) bool {
		return e.Slot == models.SlotIR || e.Slot == models.SlotCOV
	})
}

// Players returns every entry on the roster row.
func (r *Roster) Players() []models.RosterEntry {
	return r.filter(func(models.RosterEntry) bool { return true })
}

// Row returns a copy of the underlying roster row for persistence.
func (r *Roster) Row() models.RosterRow {
	row := r.row
	row.Entries = make([]models.RosterEntry, len(r.row.Entries))
	copy(row.Entries, r.row.Entries)
	return row
}

func (r *Roster) filter(keep func(models.RosterEntry) bool) []models.RosterEntry {
	var out []models.RosterEntry
	for _, e := range r.row.Entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (r *Roster) countSlot(slot models.Slot) int {
	n := 0
	for _, e := range r.row.Entries {
		if e.Slot == slot {
			n++
		}
	}
	return n
}

func (r *Roster) slotCapacity(slot models.Slot) int {
	switch slot {
	case models.SlotBench:
		return r.settings.BenchMax
	case models.SlotIR:
		return r.settings.IRMax
	case models.SlotPS, models.SlotPSP:
		return r.settings.PSMax
	case models.SlotCOV:
		// COVID reserve is not capped by league rules.
		return int(^uint(0) >> 1)
	default:
		return r.settings.StarterCount(slot)
	}
}
