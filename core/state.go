package core

import "github.com/google/uuid"

// NewStateToken returns the anti-forgery token bound to a single login
// attempt. A v4 UUID carries 122 random bits.
func NewStateToken() string {
	return uuid.NewString()
}

// ValidStateToken reports whether the state echoed back by the provider
// matches the one issued to this client. Fails closed when either side
// is empty.
func ValidStateToken(cookieValue, queryValue string) bool {
	if cookieValue == "" || queryValue == "" {
		return false
	}
	return cookieValue == queryValue
}
