package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"prepwise/internal/appctx"
	"prepwise/internal/domain/entity"
	domainerrors "prepwise/internal/domain/errors"
	"prepwise/internal/domain/service"
	"prepwise/internal/errors"
	"prepwise/internal/usecase"

	"github.com/go-playground/validator/v10"
)

// appStateService implements the AppStateUsecase interface.
type appStateService struct {
	sessions usecase.SessionUsecase
	notifier service.Notifier
	validate *validator.Validate
	logger   *slog.Logger

	mu    sync.Mutex
	state entity.AppState

	// startTime tracks when the running interview began; it survives a
	// recovery so autosaves keep the original start stamp.
	startTime time.Time
}

// NewAppStateService is the constructor for appStateService.
func NewAppStateService(
	sessions usecase.SessionUsecase,
	notifier service.Notifier,
	logger *slog.Logger,
) usecase.AppStateUsecase {
	return &appStateService{
		sessions: sessions,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		state:    entity.NewAppState(),
	}
}

// log returns an event-scoped logger if available, otherwise falls back to the service's logger.
func (srv *appStateService) log(ctx context.Context) *slog.Logger {
	return appctx.GetLoggerOrDefault(ctx, srv.logger)
}

// Mount initializes the machine; a recoverable session jumps straight into
// the interview screen.
func (srv *appStateService) Mount(ctx context.Context, identity entity.Identity) entity.AppState {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	srv.resetLocked()

	record := srv.sessions.Load(ctx, identity)
	if record == nil || record.IsCompleted {
		return srv.snapshotLocked()
	}

	settings := record.Settings
	srv.state = entity.AppState{
		Screen:                   entity.ScreenInterview,
		Settings:                 &settings,
		Questions:                append([]entity.Question(nil), record.Questions...),
		RecoveredFromPersistence: true,
	}
	srv.startTime = record.StartTime

	srv.log(ctx).Info("session recovered",
		slog.Int("questions", len(record.Questions)),
	)
	srv.publishNotice(ctx, service.NoticeSessionRestored, "Your in-progress interview was restored.")

	return srv.snapshotLocked()
}

// State returns a copy of the current application state.
func (srv *appStateService) State() entity.AppState {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.snapshotLocked()
}

// StartSetup moves home -> setup.
func (srv *appStateService) StartSetup() error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.state.Screen != entity.ScreenHome {
		return errors.Wrapf(domainerrors.ErrInvalidTransition, "setup from %s", srv.state.Screen)
	}
	srv.state.Screen = entity.ScreenSetup

	return nil
}

// BeginInterview moves setup -> interview with fully specified settings.
func (srv *appStateService) BeginInterview(ctx context.Context, settings entity.InterviewSettings) error {
	if err := srv.validate.Struct(&settings); err != nil {
		return errors.Wrap(domainerrors.ErrIncompleteSettings, err.Error())
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.state.Screen != entity.ScreenSetup {
		return errors.Wrapf(domainerrors.ErrInvalidTransition, "interview from %s", srv.state.Screen)
	}

	srv.state = entity.AppState{
		Screen:    entity.ScreenInterview,
		Settings:  &settings,
		Questions: nil,
	}
	srv.startTime = time.Time{}

	srv.log(ctx).Info("interview started", slog.String("role", settings.Role))

	return nil
}

// AppendQuestion appends mid-interview and autosaves; this is what makes
// recovery after an unplanned reload possible.
func (srv *appStateService) AppendQuestion(ctx context.Context, identity entity.Identity, question entity.Question) error {
	srv.mu.Lock()

	if srv.state.Screen != entity.ScreenInterview || srv.state.Settings == nil {
		srv.mu.Unlock()

		return errors.Wrap(domainerrors.ErrInvalidTransition, "no interview in progress")
	}

	srv.state.Questions = append(srv.state.Questions, question)
	record := srv.recordLocked()
	srv.mu.Unlock()

	// Write-through effect, not a user action: failures degrade to
	// non-persistent operation and never surface.
	srv.sessions.Save(ctx, identity, record)

	return nil
}

// FinishInterview moves interview -> result and clears the persisted
// session; a concluded interview leaves nothing to recover.
func (srv *appStateService) FinishInterview(ctx context.Context, identity entity.Identity, questions []entity.Question) error {
	srv.mu.Lock()

	if srv.state.Screen != entity.ScreenInterview {
		srv.mu.Unlock()

		return errors.Wrapf(domainerrors.ErrInvalidTransition, "result from %s", srv.state.Screen)
	}

	srv.state.Screen = entity.ScreenResult
	srv.state.Questions = append([]entity.Question(nil), questions...)
	srv.state.RecoveredFromPersistence = false
	srv.mu.Unlock()

	srv.sessions.Clear(ctx, identity)
	srv.log(ctx).Info("interview finished", slog.Int("questions", len(questions)))

	return nil
}

// GoHome aborts to home, gated by confirmation while in-progress data would
// be lost.
func (srv *appStateService) GoHome(ctx context.Context, identity entity.Identity, confirm usecase.ConfirmFunc) bool {
	srv.mu.Lock()

	inProgress := srv.state.Screen == entity.ScreenInterview && len(srv.state.Questions) > 0
	if inProgress {
		srv.mu.Unlock()
		if confirm == nil || !confirm() {
			// Declined: machine unchanged.
			return false
		}
		srv.mu.Lock()
	}

	srv.resetLocked()
	srv.mu.Unlock()

	srv.sessions.Clear(ctx, identity)

	return true
}

// StartNewInterview resets unconditionally.
func (srv *appStateService) StartNewInterview(ctx context.Context, identity entity.Identity) {
	srv.mu.Lock()
	srv.resetLocked()
	srv.mu.Unlock()

	srv.sessions.Clear(ctx, identity)
}

// HandleIdentityChange applies authentication's authority over UI state.
func (srv *appStateService) HandleIdentityChange(ctx context.Context, previous, current entity.Identity) {
	if previous == current {
		return
	}

	srv.mu.Lock()
	srv.resetLocked()
	srv.mu.Unlock()

	srv.log(ctx).Info("screen state reset on identity change",
		slog.Bool("signed_in", current.Present()),
	)

	if current.Present() {
		// A freshly acquired identity may have its own session to recover.
		srv.Mount(ctx, current)
	}
}

func (srv *appStateService) resetLocked() {
	srv.state = entity.NewAppState()
	srv.startTime = time.Time{}
}

func (srv *appStateService) snapshotLocked() entity.AppState {
	snapshot := srv.state
	snapshot.Questions = append([]entity.Question(nil), srv.state.Questions...)
	if srv.state.Settings != nil {
		settings := *srv.state.Settings
		snapshot.Settings = &settings
	}

	return snapshot
}

// recordLocked builds the persistable snapshot of the running interview.
func (srv *appStateService) recordLocked() *entity.InterviewSession {
	return &entity.InterviewSession{
		Settings:             *srv.state.Settings,
		Questions:            append([]entity.Question(nil), srv.state.Questions...),
		CurrentQuestionIndex: len(srv.state.Questions) - 1,
		IsCompleted:          false,
		StartTime:            srv.startTime,
	}
}

func (srv *appStateService) publishNotice(ctx context.Context, kind, message string) {
	notice := &service.UINotice{Kind: kind, Message: message}
	if err := srv.notifier.PublishNotice(ctx, notice); err != nil {
		srv.log(ctx).Warn("could not publish notice",
			slog.String("kind", kind),
			slog.Any("error", err),
		)
	}
}
