// Package entity contains the core domain objects of the session and
// identity synchronization engine.
package entity

// Identity is the authenticated user's opaque handle, owned by the
// authentication provider. The zero value means no identity is present.
type Identity string

// NoIdentity is the absent identity (signed out / anonymous).
const NoIdentity Identity = ""

// Present reports whether an identity is signed in.
func (i Identity) Present() bool {
	return i != NoIdentity
}

// AuthEventKind classifies events delivered by the authentication stream.
type AuthEventKind string

const (
	EventIdentityAcquired AuthEventKind = "identity-acquired"
	EventIdentityCleared  AuthEventKind = "identity-cleared"
	EventTokenRefreshed   AuthEventKind = "token-refreshed"
)

// AuthStatus is the single source of truth for "who is signed in".
//
// PreviousIdentity always reflects the identity observed at the previous
// synchronization event, never the current one at the moment a transition is
// evaluated.
type AuthStatus struct {
	Identity         Identity
	SessionHandle    string
	Loading          bool
	Err              error
	PreviousIdentity Identity
}
