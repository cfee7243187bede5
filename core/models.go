package core

import "time"

// Platform identifies the identity provider a user logged in through.
type Platform string

const (
	PlatformGitHub Platform = "github"
)

// User is a local account mapped from a provider identity.
// The pair (UserID, Platform) identifies at most one row. Token is the
// opaque session credential handed to the browser; it is generated once
// at creation and never rotated by the login flow.
type User struct {
	UserID    string // provider's user id (GitHub numeric id as a string)
	Platform  Platform
	Name      string
	Token     string
	CreatedAt time.Time
}
