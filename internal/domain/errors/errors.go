// Package errors defines the application error taxonomy for the
// synchronization engine.
package errors

import (
	"strings"

	"prepwise/internal/errors"
)

// Kind classifies an authentication failure.
type Kind string

const (
	// KindConfiguration means the backend rejected this origin because it is
	// not an allowed callback/redirect target. Blocking: nothing else may
	// render until the backend configuration is fixed.
	KindConfiguration Kind = "configuration"

	// KindInvalidCredential means the cached credential is malformed.
	KindInvalidCredential Kind = "invalid_credential"

	// KindTransient covers network failures and everything unclassified.
	KindTransient Kind = "transient"
)

// AuthError is a classified authentication failure with a user-facing message.
type AuthError struct {
	kind    Kind
	message string
	details string
	cause   error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return e.message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *AuthError) Unwrap() error {
	return e.cause
}

// Kind returns the failure classification.
func (e *AuthError) Kind() Kind {
	return e.kind
}

// Message returns the user-friendly error message.
func (e *AuthError) Message() string {
	return e.message
}

// Details returns detailed error information.
func (e *AuthError) Details() string {
	return e.details
}

// Blocking reports whether the rest of the application must not render until
// this error is resolved.
func (e *AuthError) Blocking() bool {
	return e.kind == KindConfiguration
}

// NewAuthError creates a classified authentication error.
func NewAuthError(kind Kind, message, details string, cause error) *AuthError {
	return &AuthError{kind: kind, message: message, details: details, cause: cause}
}

// Substrings known to appear in backend error messages, per failure kind.
// Unmatched errors fall through to the transient kind.
var (
	configurationMarkers = []string{"redirect_to", "not allowed", "origin"}
	credentialMarkers    = []string{"invalid jwt", "bad_jwt", "malformed", "refresh token"}
)

// User-facing messages per failure kind.
const (
	configurationMessage = "This app's address is not on the authentication service's allowed redirect list. Fix the backend configuration, then reload."
	credentialMessage    = "Your sign-in token is invalid. Reload the page and sign in again."
	transientMessage     = "Could not reach the authentication service. Check your connection and try again."
)

// Classify maps a raw authentication failure onto the taxonomy by matching
// known substrings of the backend's error messages.
func Classify(err error) *AuthError {
	if err == nil {
		return nil
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	raw := strings.ToLower(err.Error())

	for _, marker := range configurationMarkers {
		if strings.Contains(raw, marker) {
			return NewAuthError(KindConfiguration, configurationMessage, err.Error(), err)
		}
	}

	for _, marker := range credentialMarkers {
		if strings.Contains(raw, marker) {
			return NewAuthError(KindInvalidCredential, credentialMessage, err.Error(), err)
		}
	}

	return NewAuthError(KindTransient, transientMessage, err.Error(), err)
}

// Screen machine transition failures.
var (
	// ErrIncompleteSettings is returned when an interview is started without
	// a fully specified settings object.
	ErrIncompleteSettings = errors.New("interview settings are not fully specified")

	// ErrInvalidTransition is returned for screen transitions the machine
	// does not define.
	ErrInvalidTransition = errors.New("invalid screen transition")
)
