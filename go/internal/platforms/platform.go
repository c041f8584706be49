package platforms

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Platform identifies one external fantasy host.
type Platform string

const (
	PlatformSleeper Platform = "sleeper"
	PlatformESPN    Platform = "espn"
	PlatformYahoo   Platform = "yahoo"
	PlatformMFL     Platform = "mfl"
)

// AuthKind is the authentication variant an adapter requires.
type AuthKind string

const (
	AuthNone   AuthKind = "none"
	AuthCookie AuthKind = "cookie"
	AuthOAuth2 AuthKind = "oauth2"
	AuthAPIKey AuthKind = "apikey"
)

// Credentials carries whichever fields the adapter's AuthKind consumes.
type Credentials struct {
	APIKey       string `json:"api_key,omitempty"`
	Cookie       string `json:"cookie,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// ErrNotImplemented signals a capability the adapter does not support. It is
// distinct from a runtime failure so the orchestrator can branch on
// capability instead of error text.
var ErrNotImplemented = errors.New("not implemented")

// Adapter is the full capability set every platform must answer for, either
// with data or with ErrNotImplemented. Silent empty returns are forbidden;
// the orchestrator must be able to tell "no data" from "unsupported".
type Adapter interface {
	Platform() Platform
	AuthKind() AuthKind
	RequiresAuthentication() bool
	SupportsPrivateLeagues() bool

	Authenticate(ctx context.Context, creds Credentials) error
	GetLeague(ctx context.Context, externalLeagueID string) (*League, error)
	GetTeams(ctx context.Context, externalLeagueID string) ([]Team, error)
	GetRosters(ctx context.Context, externalLeagueID string) ([]Roster, error)
	GetPlayers(ctx context.Context, externalLeagueID string) ([]Player, error)
	GetTransactions(ctx context.Context, externalLeagueID string, week int) ([]Transaction, error)
	GetMatchups(ctx context.Context, externalLeagueID string, week int) ([]Matchup, error)
	GetScoringFormat(ctx context.Context, externalLeagueID string) (*ScoringFormat, error)
	GetDraftResults(ctx context.Context, externalLeagueID string) ([]DraftResult, error)
	MapPlayerToInternal(raw map[string]any) (*Player, error)
}

var (
	registry   = make(map[Platform]Adapter)
	registryMu sync.RWMutex
)

// Register adds an adapter under its platform key. Each adapter package
// calls this from its init function.
func Register(adapter Adapter) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	key := adapter.Platform()
	if key == "" {
		return fmt.Errorf("platform key cannot be empty")
	}
	if _, exists := registry[key]; exists {
		return fmt.Errorf("adapter already registered for platform %q", key)
	}
	registry[key] = adapter
	return nil
}

// Get retrieves an adapter by platform or returns an error if not found.
func Get(platform Platform) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	adapter, exists := registry[platform]
	if !exists {
		return nil, fmt.Errorf("no adapter registered for platform %q", platform)
	}
	return adapter, nil
}

// Unimplemented answers every capability with ErrNotImplemented. Partial
// adapters embed it and override what they support.
type Unimplemented struct{}

func (Unimplemented) Authenticate(context.Context, Credentials) error { return ErrNotImplemented }
func (Unimplemented) GetLeague(context.Context, string) (*League, error) {
	return nil, ErrNotImplemented
}
func (Unimplemented) GetTeams(context.Context, string) ([]Team, error) {
	return nil, ErrNotImplemented
}
func (Unimplemented) GetRosters(context.Context, string) ([]Roster, error) {
	return nil, ErrNotImplemented
}
func (Unimplemented) GetPlayers(context.Context, string) ([]Player, error) {
	return nil, ErrNotImplemented
}
func (Unimplemented) GetTransactions(context.Context, string, int) ([]Transaction, error) {
	return nil, ErrNotImplemented
}
func (Unimplemented) GetMatchups(context.Context, string, int) ([]Matchup, error) {
	return nil, ErrNotImplemented
}
func (Unimplemented) GetScoringFormat(context.Context, string) (*ScoringFormat, error) {
	return nil, ErrNotImplemented
}
func (Unimplemented) GetDraftResults(context.Context, string) ([]DraftResult, error) {
	return nil, ErrNotImplemented
}
func (Unimplemented) MapPlayerToInternal(map[string]any) (*Player, error) {
	return nil, ErrNotImplemented
}
