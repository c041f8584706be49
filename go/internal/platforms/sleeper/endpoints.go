package sleeper

const (
	BaseURL = "https://api.sleeper.app/v1"

	// Paths
	leaguePath       = "/league/%s"
	rostersPath      = "/league/%s/rosters"
	usersPath        = "/league/%s/users"
	transactionsPath = "/league/%s/transactions/%d"
	matchupsPath     = "/league/%s/matchups/%d"
	draftsPath       = "/league/%s/drafts"
	draftPicksPath   = "/draft/%s/picks"
	playersPath      = "/players/nfl"
)
