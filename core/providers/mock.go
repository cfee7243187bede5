package providers

import (
	"context"
	"fmt"

	"github.com/EkkoG/rtabby-web-api2/core"
)

// Predefined test authorization codes
const (
	ValidCode1 = "abc"
	ValidCode2 = "def"

	// BadProfileCode exchanges fine but its access token resolves to
	// no profile, simulating a profile fetch failure.
	BadProfileCode = "ghi"
)

// Predefined test access grants
var (
	Grant1 = &core.AccessGrant{AccessToken: "tok1"}
	Grant2 = &core.AccessGrant{AccessToken: "tok2"}
	Grant3 = &core.AccessGrant{AccessToken: "tok3"}
)

// Predefined test profiles
var (
	User1 = &core.ProviderUser{ID: "42", Name: "alice"}
	User2 = &core.ProviderUser{ID: "43", Name: "bob"}
)

// MockProvider is a test implementation of core.AuthProvider.
type MockProvider struct {
	codeToGrant map[string]*core.AccessGrant
	tokenToUser map[string]*core.ProviderUser

	// track method calls for verification
	AuthorizeURLCalls int
	ExchangeCodeCalls int
	FetchUserCalls    int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		codeToGrant: map[string]*core.AccessGrant{
			ValidCode1:     Grant1,
			ValidCode2:     Grant2,
			BadProfileCode: Grant3,
		},
		tokenToUser: map[string]*core.ProviderUser{
			Grant1.AccessToken: User1,
			Grant2.AccessToken: User2,
		},
	}
}

func (m *MockProvider) AuthorizeURL(redirectURI, state string) string {
	m.AuthorizeURLCalls++
	return "https://mock.test/authorize?redirect_uri=" + redirectURI + "&state=" + state
}

func (m *MockProvider) ExchangeCode(ctx context.Context, code string) (*core.AccessGrant, error) {
	m.ExchangeCodeCalls++

	grant, ok := m.codeToGrant[code]
	if !ok {
		return nil, fmt.Errorf("%w: unknown code", core.ErrProviderTokenExchange)
	}

	return grant, nil
}

func (m *MockProvider) FetchUser(ctx context.Context, accessToken string) (*core.ProviderUser, error) {
	m.FetchUserCalls++

	user, ok := m.tokenToUser[accessToken]
	if !ok {
		return nil, fmt.Errorf("%w: unknown access token", core.ErrProviderUserInfo)
	}

	return user, nil
}

func (m *MockProvider) Platform() core.Platform {
	return core.PlatformGitHub
}
