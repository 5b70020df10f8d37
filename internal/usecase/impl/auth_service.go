package impl

import (
	"context"
	"log/slog"
	"sync"

	"prepwise/internal/appctx"
	"prepwise/internal/domain/entity"
	domainerrors "prepwise/internal/domain/errors"
	"prepwise/internal/domain/service"
	"prepwise/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// authService implements the AuthUsecase interface.
//
// Events are handled under a single mutex and the previous-identity
// comparison reads the status cell fresh on every event, so a handler
// registered once at subscription time can never act on a stale snapshot.
type authService struct {
	provider service.AuthProvider
	sessions usecase.SessionUsecase
	speech   service.SpeechSynthesizer
	address  service.AddressBar
	notifier service.Notifier
	logger   *slog.Logger

	mu            sync.Mutex
	status        entity.AuthStatus
	unsubscribe   service.Unsubscribe
	runCtx        context.Context
	listeners     map[int]usecase.IdentityListener
	nextListener  int
	stopRequested bool
}

// NewAuthService is the constructor for authService.
func NewAuthService(
	provider service.AuthProvider,
	sessions usecase.SessionUsecase,
	speech service.SpeechSynthesizer,
	address service.AddressBar,
	notifier service.Notifier,
	logger *slog.Logger,
) usecase.AuthUsecase {
	return &authService{
		provider:  provider,
		sessions:  sessions,
		speech:    speech,
		address:   address,
		notifier:  notifier,
		logger:    logger,
		status:    entity.AuthStatus{Loading: true},
		listeners: map[int]usecase.IdentityListener{},
	}
}

// Start performs the initial status fetch and subscribes to the event
// stream.
func (srv *authService) Start(ctx context.Context) error {
	srv.mu.Lock()
	srv.runCtx = ctx
	srv.mu.Unlock()

	snapshot, err := srv.provider.CurrentStatus(ctx)

	srv.mu.Lock()
	srv.status.Loading = false
	if err != nil {
		classified := domainerrors.Classify(err)
		srv.status.Err = classified
		srv.mu.Unlock()

		srv.logger.Error("initial auth fetch failed",
			slog.String("kind", string(classified.Kind())),
			slog.Any("error", err),
		)

		if classified.Blocking() {
			// Nothing else may render until the configuration is fixed.
			srv.publishNotice(ctx, service.NoticeAuthBlocked, classified.Message())
		}
	} else {
		srv.status.Identity = snapshot.Identity
		srv.status.SessionHandle = snapshot.SessionHandle
		srv.status.PreviousIdentity = snapshot.Identity
		srv.mu.Unlock()

		srv.logger.Info("auth state synchronized",
			slog.Bool("signed_in", snapshot.Identity.Present()),
		)
	}

	unsubscribe, err := srv.provider.Subscribe(srv.handleEvent)
	if err != nil {
		return errors.Wrap(err, "subscribe to auth events")
	}

	srv.mu.Lock()
	if srv.stopRequested {
		// Stop raced Start; honor it.
		srv.mu.Unlock()
		unsubscribe()

		return nil
	}
	srv.unsubscribe = unsubscribe
	srv.mu.Unlock()

	return nil
}

// Stop tears down the subscription. Safe to call more than once.
func (srv *authService) Stop() {
	srv.mu.Lock()
	srv.stopRequested = true
	unsubscribe := srv.unsubscribe
	srv.unsubscribe = nil
	srv.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Status returns a copy of the current authentication state.
func (srv *authService) Status() entity.AuthStatus {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	return srv.status
}

// OnIdentityChange registers a listener for identity transitions.
func (srv *authService) OnIdentityChange(listener usecase.IdentityListener) (cancel func()) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	id := srv.nextListener
	srv.nextListener++
	srv.listeners[id] = listener

	return func() {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		delete(srv.listeners, id)
	}
}

// handleEvent processes one authentication event. The provider delivers
// events from a single goroutine, so processing is strictly in arrival
// order; the mutex makes the previous-identity read fresh, not
// closure-frozen.
func (srv *authService) handleEvent(event service.AuthEvent) {
	srv.mu.Lock()

	if srv.stopRequested {
		srv.mu.Unlock()

		return
	}

	ctx := srv.eventContext()
	log := appctx.GetLoggerOrDefault(ctx, srv.logger)

	previous := srv.status.PreviousIdentity
	current := event.Identity

	log.Debug("auth event",
		slog.String("kind", string(event.Kind)),
		slog.Bool("identity_change", current != previous),
	)

	if current != previous {
		// Sign-out, or a switch away from a previously-present identity:
		// purge before the new state is recorded.
		if !current.Present() || previous.Present() {
			if event.Kind == entity.EventIdentityCleared {
				if err := srv.speech.CancelAll(ctx); err != nil {
					log.Warn("could not cancel speech", slog.Any("error", err))
				}
			}
			srv.sessions.Purge(ctx)
		}
	}

	if event.Kind == entity.EventIdentityAcquired {
		if srv.address.StripAuthFragment() {
			log.Debug("auth callback fragment stripped")
		}
	}

	changed := current != previous
	srv.status.Identity = current
	srv.status.SessionHandle = event.SessionHandle
	srv.status.PreviousIdentity = current
	srv.status.Err = nil

	var listeners []usecase.IdentityListener
	if changed {
		listeners = make([]usecase.IdentityListener, 0, len(srv.listeners))
		for _, listener := range srv.listeners {
			listeners = append(listeners, listener)
		}
	}
	srv.mu.Unlock()

	// Listener callbacks stay on the event goroutine, keeping side effects
	// synchronous relative to the event that triggered them.
	for _, listener := range listeners {
		listener(ctx, previous, current)
	}
}

// eventContext derives a context carrying an event-scoped logger. Callers
// hold the mutex.
func (srv *authService) eventContext() context.Context {
	ctx := srv.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	eventID := uuid.NewString()
	logger := srv.logger.With(slog.String("auth_event_id", eventID))

	return appctx.WithLogger(appctx.WithEventID(ctx, eventID), logger)
}

func (srv *authService) publishNotice(ctx context.Context, kind, message string) {
	notice := &service.UINotice{Kind: kind, Message: message}
	if err := srv.notifier.PublishNotice(ctx, notice); err != nil {
		srv.logger.Warn("could not publish notice",
			slog.String("kind", kind),
			slog.Any("error", err),
		)
	}
}
