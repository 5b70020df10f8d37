// Package speech is the speech-synthesis collaborator. Utterances are
// tracked under volatile storage keys so the sign-out purge sweep clears any
// residue alongside interview data.
package speech

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"prepwise/internal/domain/service"
	"prepwise/internal/domain/storage"
	"prepwise/internal/errors"

	"github.com/google/uuid"
)

const utteranceKeyPrefix = "speech_utterance_"

type synthesizer struct {
	tier   storage.Tier
	logger *slog.Logger

	mu     sync.Mutex
	active string
}

// NewSynthesizer builds a synthesizer tracking utterances in the gateway's
// volatile tier.
func NewSynthesizer(gateway storage.Gateway, logger *slog.Logger) service.SpeechSynthesizer {
	return &synthesizer{
		tier:   gateway.Volatile(),
		logger: logger,
	}
}

func (s *synthesizer) Speak(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	key := utteranceKeyPrefix + id
	if err := s.tier.Write(ctx, key, []byte(text)); err != nil {
		return "", errors.Wrap(err, "track utterance")
	}
	s.active = key

	s.logger.Debug("speaking", slog.String("utterance_id", id))

	return id, nil
}

func (s *synthesizer) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.tier.Keys(ctx)
	if err != nil {
		return errors.Wrap(err, "enumerate utterances")
	}

	canceled := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, utteranceKeyPrefix) {
			continue
		}
		if err := s.tier.Delete(ctx, key); err != nil {
			s.logger.Warn("could not drop utterance", slog.String("key", key), slog.Any("error", err))

			continue
		}
		canceled++
	}
	s.active = ""

	s.logger.Debug("speech canceled", slog.Int("utterances", canceled))

	return nil
}
