package remote

import (
	"log/slog"
	"strings"
	"sync"

	"prepwise/internal/domain/entity"
	"prepwise/internal/domain/service"
	"prepwise/internal/errors"
)

// wireEvent is one frame of the authentication event stream.
type wireEvent struct {
	Event       string `json:"event"`
	AccessToken string `json:"access_token"`
}

// Backend event names mapped onto the engine's event kinds. Unknown names
// pass through lowercased; the synchronizer still processes them for the
// identity comparison.
var eventKinds = map[string]entity.AuthEventKind{
	"SIGNED_IN":       entity.EventIdentityAcquired,
	"SIGNED_OUT":      entity.EventIdentityCleared,
	"TOKEN_REFRESHED": entity.EventTokenRefreshed,
}

func mapEventKind(name string) entity.AuthEventKind {
	if kind, ok := eventKinds[name]; ok {
		return kind
	}

	return entity.AuthEventKind(strings.ToLower(name))
}

// Subscribe implements service.AuthProvider. Events are delivered to handler
// from a single reader goroutine, strictly in arrival order. The returned
// teardown is idempotent.
func (p *Provider) Subscribe(handler func(service.AuthEvent)) (service.Unsubscribe, error) {
	streamURL, err := p.streamURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := p.dialer.Dial(streamURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial auth event stream")
	}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			if err := conn.Close(); err != nil {
				p.logger.Debug("closing auth event stream", slog.Any("error", err))
			}
		})
	}

	go func() {
		for {
			var frame wireEvent
			if err := conn.ReadJSON(&frame); err != nil {
				// Closed by unsubscribe or by the backend; either way the
				// subscription is over and no further events may fire.
				p.logger.Debug("auth event stream ended", slog.Any("error", err))
				unsubscribe()

				return
			}

			identity, err := identityFromHandle(frame.AccessToken)
			if err != nil {
				p.logger.Warn("dropping token on unreadable session handle",
					slog.String("event", frame.Event),
					slog.Any("error", err),
				)
				identity = entity.NoIdentity
			}

			handler(service.AuthEvent{
				Kind:          mapEventKind(frame.Event),
				Identity:      identity,
				SessionHandle: frame.AccessToken,
			})
		}
	}()

	return unsubscribe, nil
}
