package storage_test

import (
	"context"
	"testing"

	"github.com/EkkoG/rtabby-web-api2/core"
	"github.com/EkkoG/rtabby-web-api2/storage"

	"github.com/stretchr/testify/assert"
)

// The mock must mirror the sqlite repository's contract so services
// tested against it behave the same against the real store.

func TestMockRepository_Fixtures(t *testing.T) {
	repo := storage.NewMockRepositoryWithFixtures()
	ctx := context.Background()

	found, err := repo.FindByProviderID(ctx, storage.User1.UserID, storage.User1.Platform)
	assert.NoError(t, err)
	assert.Equal(t, storage.User1.Token, found.Token)
	assert.Equal(t, 2, repo.Len())
}

func TestMockRepository_NotFound(t *testing.T) {
	repo := storage.NewMockRepository()

	_, err := repo.FindByProviderID(context.Background(), "999", core.PlatformGitHub)

	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, 1, repo.FindByProviderIDCalls)
}

func TestMockRepository_CreateAndFind(t *testing.T) {
	repo := storage.NewMockRepository()
	ctx := context.Background()

	user := &core.User{
		UserID:   "42",
		Platform: core.PlatformGitHub,
		Name:     "alice",
		Token:    "tok",
	}
	assert.NoError(t, repo.CreateUser(ctx, user))

	found, err := repo.FindByProviderID(ctx, "42", core.PlatformGitHub)
	assert.NoError(t, err)
	assert.Equal(t, "tok", found.Token)

	// Mutating the returned copy must not touch the stored row.
	found.Token = "changed"
	again, err := repo.FindByProviderID(ctx, "42", core.PlatformGitHub)
	assert.NoError(t, err)
	assert.Equal(t, "tok", again.Token)
}

func TestMockRepository_Duplicate(t *testing.T) {
	repo := storage.NewMockRepositoryWithFixtures()

	duplicate := &core.User{
		UserID:   storage.User1.UserID,
		Platform: storage.User1.Platform,
		Name:     "someone else",
		Token:    "other",
	}
	err := repo.CreateUser(context.Background(), duplicate)

	assert.ErrorIs(t, err, core.ErrAlreadyExists)
	assert.Equal(t, 2, repo.Len())
}
