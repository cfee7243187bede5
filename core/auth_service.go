package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LoginResult is the outcome of a completed authorization-code exchange.
type LoginResult struct {
	Token   string
	Created bool // true when this login created the user row
}

type AuthService struct {
	repo     Repository
	provider AuthProvider
}

func NewAuthService(repo Repository, provider AuthProvider) *AuthService {
	return &AuthService{
		repo:     repo,
		provider: provider,
	}
}

// Login runs the server side of the authorization-code flow:
// exchange the code for an access token, fetch the provider profile,
// and resolve it to a local user, creating one on first login.
// The provider access token is discarded once the profile is fetched.
func (s *AuthService) Login(ctx context.Context, code string) (*LoginResult, error) {
	// 1. Exchange authorization code for an access token
	grant, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	// 2. Fetch the user profile from the provider
	profile, err := s.provider.FetchUser(ctx, grant.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	// 3. Resolve the profile to a local user
	platform := s.provider.Platform()
	user, err := s.repo.FindByProviderID(ctx, profile.ID, platform)
	if err == nil {
		return &LoginResult{Token: user.Token}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// 4. First login: persist a new user with a fresh session token
	newUser := &User{
		UserID:    profile.ID,
		Platform:  platform,
		Name:      profile.Name,
		Token:     uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateUser(ctx, newUser); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			// Lost a concurrent first-login race. The storage uniqueness
			// constraint guarantees exactly one winner; reuse its token.
			existing, findErr := s.repo.FindByProviderID(ctx, profile.ID, platform)
			if findErr != nil {
				return nil, fmt.Errorf("failed to find user after insert race: %w", findErr)
			}
			return &LoginResult{Token: existing.Token}, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &LoginResult{Token: newUser.Token, Created: true}, nil
}
