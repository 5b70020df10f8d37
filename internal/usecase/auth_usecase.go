package usecase

import (
	"context"

	"prepwise/internal/domain/entity"
)

// IdentityListener observes identity transitions. previous is the identity
// recorded before the triggering event, current the one after.
type IdentityListener func(ctx context.Context, previous, current entity.Identity)

// AuthUsecase is the auth state synchronizer: it owns AuthStatus, performs
// the initial status fetch, consumes the authentication event stream in
// arrival order, and fires the cross-cutting side effects (speech
// cancellation, data purge) on identity transitions.
type AuthUsecase interface {
	// Start performs the one-shot status fetch, then subscribes to the
	// event stream. A fetch failure is classified and recorded on Status,
	// not returned; only a subscription failure is returned.
	Start(ctx context.Context) error

	// Stop tears down the event stream subscription. Idempotent; no event
	// mutates state after Stop returns.
	Stop()

	// Status returns a copy of the current authentication state.
	Status() entity.AuthStatus

	// OnIdentityChange registers a listener invoked after each identity
	// transition has been recorded. Returns a cancel function.
	OnIdentityChange(listener IdentityListener) (cancel func())
}
