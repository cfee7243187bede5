package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/EkkoG/rtabby-web-api2/core"
)

const (
	defaultOAuthBaseURL = "https://github.com"
	defaultAPIBaseURL   = "https://api.github.com"

	githubAPIVersion = "2022-11-28"
	githubUserAgent  = "rtabby-web-api"
)

type GitHubConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	OAuthBaseURL string `yaml:"oauth_base_url"`
	APIBaseURL   string `yaml:"api_base_url"`
}

type GitHubProvider struct {
	config     *GitHubConfig
	httpClient *http.Client
}

func NewGitHubProvider(config *GitHubConfig) *GitHubProvider {
	if config.OAuthBaseURL == "" {
		config.OAuthBaseURL = defaultOAuthBaseURL
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultAPIBaseURL
	}
	return &GitHubProvider{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type githubTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// githubUser is the subset of GET /user we care about. The numeric id
// is the identity key; login names and display names can change.
type githubUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (g *GitHubProvider) AuthorizeURL(redirectURI, state string) string {
	query := url.Values{}
	query.Set("client_id", g.config.ClientID)
	query.Set("redirect_uri", redirectURI)
	query.Set("state", state)
	return g.config.OAuthBaseURL + "/login/oauth/authorize?" + query.Encode()
}

func (g *GitHubProvider) ExchangeCode(ctx context.Context, code string) (*core.AccessGrant, error) {
	payload, err := json.Marshal(map[string]string{
		"code":          code,
		"client_id":     g.config.ClientID,
		"client_secret": g.config.ClientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderTokenExchange, err)
	}

	tokenURL := g.config.OAuthBaseURL + "/login/oauth/access_token"
	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderTokenExchange, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", core.ErrProviderTokenExchange, resp.StatusCode, string(body))
	}

	var tokenResp githubTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderTokenExchange, err)
	}

	// GitHub reports bad codes with a 200 and an error body, so a
	// missing token field is the real failure signal here.
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carries no access token", core.ErrProviderTokenExchange)
	}

	return &core.AccessGrant{AccessToken: tokenResp.AccessToken}, nil
}

func (g *GitHubProvider) FetchUser(ctx context.Context, accessToken string) (*core.ProviderUser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", g.config.APIBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderUserInfo, err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", githubUserAgent)
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", core.ErrProviderUserInfo, resp.StatusCode, string(body))
	}

	var user githubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrProviderUserInfo, err)
	}

	if user.ID == 0 {
		return nil, fmt.Errorf("%w: response carries no user id", core.ErrProviderUserInfo)
	}

	return &core.ProviderUser{
		ID:   strconv.FormatInt(user.ID, 10),
		Name: user.Name,
	}, nil
}

func (g *GitHubProvider) Platform() core.Platform {
	return core.PlatformGitHub
}
