package waivers

import (
	"sort"
	"time"

	"github.com/mcdev12/gridiron/go/internal/models"
)

// PoachWindow is how long a deactivated, drafted or practice-added player
// is shielded from poach claims.
const PoachWindow = 24 * time.Hour

// Less orders two claims of the same pool, best first. Free-agency claims
// in a FAAB league rank by bid descending, then waiver priority ascending,
// then submission time. Priority leagues and poach claims ignore the bid.
func Less(a, b models.WaiverClaim, mode models.WaiverMode) bool {
	faab := mode == models.WaiverModeFAAB && a.Type != models.WaiverPoach
	if faab && a.Bid != b.Bid {
		return a.Bid > b.Bid
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Submitted.Before(b.Submitted)
}

// TopClaim returns the best claim among the given ready set, if any.
// Pure over its inputs so the tie-break rules are unit-testable without
// side effects.
func TopClaim(claims []models.WaiverClaim, mode models.WaiverMode) (models.WaiverClaim, bool) {
	if len(claims) == 0 {
		return models.WaiverClaim{}, false
	}
	ordered := make([]models.WaiverClaim, len(claims))
	copy(ordered, claims)
	sort.SliceStable(ordered, func(i, j int) bool {
		return Less(ordered[i], ordered[j], mode)
	})
	return ordered[0], true
}

// PracticeWindowOpen reports whether practice-squad free agency is open:
// after the league's rookie draft has completed and before the season ends.
// A league with no draft-completion timestamp has not drafted yet.
func PracticeWindowOpen(settings models.LeagueSettings, now time.Time) bool {
	if settings.DraftCompletedAt == nil || now.Before(*settings.DraftCompletedAt) {
		return false
	}
	if settings.SeasonEndsAt != nil && now.After(*settings.SeasonEndsAt) {
		return false
	}
	return true
}
