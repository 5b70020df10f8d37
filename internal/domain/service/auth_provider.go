// Package service defines the collaborator contracts the synchronization
// engine depends on. Implementations live under internal/infra.
package service

import (
	"context"

	"prepwise/internal/domain/entity"
)

// AuthSnapshot is the result of a one-shot "get current status" call.
type AuthSnapshot struct {
	Identity      entity.Identity
	SessionHandle string
}

// AuthEvent is one element of the authentication event stream. Identity is
// resolved by the provider from the session handle accompanying the event.
type AuthEvent struct {
	Kind          entity.AuthEventKind
	Identity      entity.Identity
	SessionHandle string
}

// Unsubscribe tears down an event stream subscription. Implementations must
// be idempotent.
type Unsubscribe func()

// AuthProvider is the backend authentication collaborator.
type AuthProvider interface {
	// CurrentStatus performs the one-shot fetch of the current
	// authentication state.
	CurrentStatus(ctx context.Context) (*AuthSnapshot, error)

	// Subscribe starts delivering authentication events to handler, strictly
	// in arrival order, until the returned Unsubscribe is invoked.
	Subscribe(handler func(AuthEvent)) (Unsubscribe, error)

	// RedirectURL is the origin-relative callback target used for
	// email-confirmation and password-reset flows. It must match the
	// allow-list configured on the backend.
	RedirectURL() string
}
