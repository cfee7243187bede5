package core

import (
	"context"
	"errors"
)

var (
	ErrProviderTokenExchange = errors.New("provider token exchange failed")
	ErrProviderUserInfo      = errors.New("provider user info request failed")
)

// AccessGrant is the provider credential returned by the code exchange.
// It is used once to fetch the user profile and then discarded, never
// persisted.
type AccessGrant struct {
	AccessToken string
}

// ProviderUser is the profile fetched from the identity provider.
type ProviderUser struct {
	ID   string
	Name string
}

type AuthProvider interface {
	// AuthorizeURL builds the browser redirect that starts a login
	// attempt bound to the given state token.
	AuthorizeURL(redirectURI, state string) string

	ExchangeCode(ctx context.Context, code string) (*AccessGrant, error)

	FetchUser(ctx context.Context, accessToken string) (*ProviderUser, error)

	Platform() Platform
}
