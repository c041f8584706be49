package yahoo

import (
	"context"
	"fmt"

	"github.com/mcdev12/gridiron/go/clients"
	"github.com/mcdev12/gridiron/go/internal/platforms"
	"github.com/rs/zerolog/log"
)

const BaseURL = "https://fantasysports.yahooapis.com/fantasy/v2"

// Adapter is the Yahoo placeholder. Yahoo's XML-first API needs an OAuth2
// token exchange the sync layer does not drive yet, so only authentication
// plumbing is wired; every data capability reports unsupported.
type Adapter struct {
	platforms.Unimplemented
	*clients.BaseClient
}

func init() {
	if err := platforms.Register(NewAdapter()); err != nil {
		log.Fatal().Err(err).Msg("failed to register yahoo adapter")
	}
}

func NewAdapter() *Adapter {
	return &Adapter{
		BaseClient: clients.NewBaseClient("yahoo", BaseURL),
	}
}

func (a *Adapter) Platform() platforms.Platform { return platforms.PlatformYahoo }
func (a *Adapter) AuthKind() platforms.AuthKind { return platforms.AuthOAuth2 }
func (a *Adapter) RequiresAuthentication() bool { return true }
func (a *Adapter) SupportsPrivateLeagues() bool { return true }

func (a *Adapter) Authenticate(ctx context.Context, creds platforms.Credentials) error {
	if creds.AccessToken == "" {
		return fmt.Errorf("yahoo requires an OAuth2 access token")
	}
	a.SetHeader("Authorization", "Bearer "+creds.AccessToken)
	return nil
}
