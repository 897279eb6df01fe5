package auth

import (
	"slices"
	"time"
)

// DemoRole is the realm role the identity provider attaches to demo-realm
// logins.
const DemoRole = "demo"

// Authentication is an immutable snapshot of an active session. Refreshing
// produces a new value; the old one is discarded, never mutated.
type Authentication struct {
	AccessToken   string
	RefreshToken  string
	UserID        string
	RealmRoles    []string
	ResourceRoles []string

	// ExpiresAt is derived once at creation as "now + expires_in" reported
	// by the token endpoint.
	ExpiresAt time.Time
}

func (a *Authentication) HasRealmRole(role string) bool {
	return slices.Contains(a.RealmRoles, role)
}

// IsDemo reports whether this session belongs to the demo realm.
func (a *Authentication) IsDemo() bool {
	return a.HasRealmRole(DemoRole)
}

// State describes where the session manager is in the session lifecycle.
type State int

const (
	LoggedOut State = iota
	Authenticating
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged-out"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	}
	return "unknown"
}
