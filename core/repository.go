package core

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

type Repository interface {
	// FindByProviderID looks a user up by (provider user id, platform).
	// Returns ErrNotFound when no such user exists; that is a normal
	// outcome on first login, not a failure.
	FindByProviderID(ctx context.Context, userID string, platform Platform) (*User, error)

	// CreateUser inserts a new user. Returns ErrAlreadyExists when the
	// (user id, platform) pair is already taken.
	CreateUser(ctx context.Context, user *User) error
}
