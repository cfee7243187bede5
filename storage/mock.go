package storage

import (
	"context"
	"sync"
	"time"

	"github.com/EkkoG/rtabby-web-api2/core"
)

// Predefined test users
var (
	User1 = &core.User{
		UserID:    "1001",
		Platform:  core.PlatformGitHub,
		Name:      "Existing User One",
		Token:     "11111111-1111-1111-1111-111111111111",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	User2 = &core.User{
		UserID:    "1002",
		Platform:  core.PlatformGitHub,
		Name:      "Existing User Two",
		Token:     "22222222-2222-2222-2222-222222222222",
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
)

type userKey struct {
	userID   string
	platform core.Platform
}

// MockRepository is an in-memory core.Repository for tests and local
// development. Safe for concurrent use.
type MockRepository struct {
	mu    sync.Mutex
	users map[userKey]*core.User

	// Track method calls for verification
	FindByProviderIDCalls int
	CreateUserCalls       int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		users: make(map[userKey]*core.User),
	}
}

// NewMockRepositoryWithFixtures returns a mock preloaded with the
// predefined test users.
func NewMockRepositoryWithFixtures() *MockRepository {
	repo := NewMockRepository()
	for _, user := range []*core.User{User1, User2} {
		repo.users[userKey{user.UserID, user.Platform}] = user
	}
	return repo
}

func (m *MockRepository) FindByProviderID(ctx context.Context, userID string, platform core.Platform) (*core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByProviderIDCalls++

	user, ok := m.users[userKey{userID, platform}]
	if !ok {
		return nil, core.ErrNotFound
	}

	copied := *user
	return &copied, nil
}

func (m *MockRepository) CreateUser(ctx context.Context, user *core.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateUserCalls++

	key := userKey{user.UserID, user.Platform}
	if _, exists := m.users[key]; exists {
		return core.ErrAlreadyExists
	}

	copied := *user
	m.users[key] = &copied
	return nil
}

// Len reports the number of stored users.
func (m *MockRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
