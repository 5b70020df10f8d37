package usecase

import (
	"context"

	"prepwise/internal/domain/entity"
)

// ConfirmFunc asks the user to confirm a destructive action. Returning false
// leaves the machine unchanged.
type ConfirmFunc func() bool

// AppStateUsecase drives which screen is shown. Transitions happen only
// through explicit user actions, a successful session recovery at mount, or
// identity loss.
type AppStateUsecase interface {
	// Mount initializes the machine for the just-synchronized identity. A
	// valid persisted session jumps straight into the interview screen and
	// raises a one-time "session restored" notice.
	Mount(ctx context.Context, identity entity.Identity) entity.AppState

	// State returns a copy of the current application state.
	State() entity.AppState

	// StartSetup moves home -> setup.
	StartSetup() error

	// BeginInterview moves setup -> interview. Settings must be fully
	// specified; questions reset and the recovery flag clears.
	BeginInterview(ctx context.Context, settings entity.InterviewSettings) error

	// AppendQuestion appends to the question sequence mid-interview and
	// autosaves the session for the acting identity.
	AppendQuestion(ctx context.Context, identity entity.Identity, question entity.Question) error

	// FinishInterview moves interview -> result with the final sequence and
	// clears the persisted session.
	FinishInterview(ctx context.Context, identity entity.Identity, questions []entity.Question) error

	// GoHome aborts to the home screen. While in-progress questions exist
	// the confirm callback gates the abort; declining keeps state unchanged.
	// Confirming (or aborting with nothing to lose) clears the persisted
	// session. Reports whether the machine reset.
	GoHome(ctx context.Context, identity entity.Identity, confirm ConfirmFunc) bool

	// StartNewInterview resets to home unconditionally, clearing the
	// persisted session.
	StartNewInterview(ctx context.Context, identity entity.Identity)

	// HandleIdentityChange resets on identity loss without confirmation and
	// re-mounts for a newly acquired identity.
	HandleIdentityChange(ctx context.Context, previous, current entity.Identity)
}
