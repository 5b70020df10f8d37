// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"prepwise/config"
	"prepwise/internal/appctx"
	"prepwise/internal/domain/entity"
	"prepwise/internal/domain/storage"
	"prepwise/internal/errors"
	"prepwise/internal/usecase"

	"github.com/go-playground/validator/v10"
)

const (
	sessionKeyName = "interview_session"
	backupKeyName  = "interview_session_backup"

	// anonymousSuffix scopes keys written while no identity is present.
	anonymousSuffix = "anonymous"
)

// scopedKey derives an identity-namespaced storage key.
func scopedKey(name string, identity entity.Identity) string {
	suffix := anonymousSuffix
	if identity.Present() {
		suffix = string(identity)
	}

	return name + "_" + suffix
}

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	gateway  storage.Gateway
	ttl      time.Duration
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(
	cfg *config.Config,
	gateway storage.Gateway,
	logger *slog.Logger,
) usecase.SessionUsecase {
	return &sessionService{
		gateway:  gateway,
		ttl:      cfg.Session.TTL,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      time.Now,
	}
}

// log returns an event-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return appctx.GetLoggerOrDefault(ctx, srv.logger)
}

// Save writes the stamped record through to both tiers: volatile under the
// primary key, durable under the backup key.
func (srv *sessionService) Save(ctx context.Context, identity entity.Identity, session *entity.InterviewSession) bool {
	if !identity.Present() {
		srv.log(ctx).Debug("skipping save without an active identity")

		return false
	}
	if session == nil {
		return false
	}

	stamped := session.Clone()
	stamped.OwnerIdentity = identity
	stamped.LastUpdated = srv.now()
	stamped.SchemaVersion = entity.SchemaVersionCurrent
	if stamped.StartTime.IsZero() {
		stamped.StartTime = stamped.LastUpdated
	}

	payload, err := json.Marshal(stamped)
	if err != nil {
		srv.log(ctx).Error("could not encode session", slog.Any("error", err))

		return false
	}

	persisted := false
	if err := srv.gateway.Volatile().Write(ctx, scopedKey(sessionKeyName, identity), payload); err != nil {
		srv.log(ctx).Warn("volatile tier rejected session write", slog.Any("error", err))
	} else {
		persisted = true
	}

	if err := srv.gateway.Durable().Write(ctx, scopedKey(backupKeyName, identity), payload); err != nil {
		srv.log(ctx).Warn("durable tier rejected session write", slog.Any("error", err))
	} else {
		persisted = true
	}

	if persisted {
		srv.log(ctx).Debug("session persisted",
			slog.Int("questions", len(stamped.Questions)),
		)
	}

	return persisted
}

// Load reads the primary key, repairing it from the durable backup when
// absent, then enforces schema, ownership, and expiry.
func (srv *sessionService) Load(ctx context.Context, identity entity.Identity) *entity.InterviewSession {
	if !identity.Present() {
		return nil
	}

	primaryKey := scopedKey(sessionKeyName, identity)

	payload, err := srv.gateway.Volatile().Read(ctx, primaryKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			srv.log(ctx).Warn("volatile tier unreadable", slog.Any("error", err))
		}

		payload, err = srv.gateway.Durable().Read(ctx, scopedKey(backupKeyName, identity))
		if err != nil {
			if !errors.Is(err, storage.ErrKeyNotFound) {
				srv.log(ctx).Warn("durable tier unreadable", slog.Any("error", err))
			}

			return nil
		}

		// Repair-on-read: repopulate the primary key from the backup.
		if writeErr := srv.gateway.Volatile().Write(ctx, primaryKey, payload); writeErr != nil {
			srv.log(ctx).Warn("could not repair primary key", slog.Any("error", writeErr))
		}
	}

	session, err := srv.decode(payload)
	if err != nil {
		// Unreadable and unknown-version records are normal outcomes, not
		// faults: reject, leave nothing stale behind.
		srv.log(ctx).Debug("discarding unreadable session record", slog.Any("error", err))
		srv.Clear(ctx, identity)

		return nil
	}

	if !session.OwnedBy(identity) {
		srv.log(ctx).Debug("discarding session owned by another identity")
		srv.Clear(ctx, identity)

		return nil
	}

	if session.Expired(srv.now(), srv.ttl) {
		srv.log(ctx).Debug("discarding expired session",
			slog.Time("last_updated", session.LastUpdated),
		)
		srv.Clear(ctx, identity)

		return nil
	}

	return session
}

// Clear deletes both tiers' keys for the identity.
func (srv *sessionService) Clear(ctx context.Context, identity entity.Identity) {
	if !identity.Present() {
		return
	}

	if err := srv.gateway.Volatile().Delete(ctx, scopedKey(sessionKeyName, identity)); err != nil {
		srv.log(ctx).Warn("could not clear primary key", slog.Any("error", err))
	}
	if err := srv.gateway.Durable().Delete(ctx, scopedKey(backupKeyName, identity)); err != nil {
		srv.log(ctx).Warn("could not clear backup key", slog.Any("error", err))
	}
}

// Purge is the defense-in-depth sweep invoked on sign-out and identity
// switch. It is identity-agnostic on purpose.
func (srv *sessionService) Purge(ctx context.Context) int {
	deleted := srv.gateway.PurgeMarked(ctx)
	if deleted > 0 {
		srv.log(ctx).Info("purged interview data", slog.Int("keys", deleted))
	}

	return deleted
}

// legacyRecord is the schemaVersion "1" layout, which predates the
// completion flag and start timestamp.
type legacyRecord struct {
	SchemaVersion        string                   `json:"schemaVersion"`
	OwnerIdentity        entity.Identity          `json:"ownerIdentity"`
	Settings             entity.InterviewSettings `json:"settings"`
	Questions            []entity.Question        `json:"questions"`
	CurrentQuestionIndex int                      `json:"currentQuestionIndex"`
	LastUpdated          time.Time                `json:"lastUpdated"`
}

// decode validates the discriminated schema version and migrates legacy
// records forward. Unknown versions are rejected.
func (srv *sessionService) decode(payload []byte) (*entity.InterviewSession, error) {
	var probe struct {
		SchemaVersion string `json:"schemaVersion"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, errors.Wrap(err, "probe schema version")
	}

	var session *entity.InterviewSession

	switch probe.SchemaVersion {
	case entity.SchemaVersionCurrent:
		session = &entity.InterviewSession{}
		if err := json.Unmarshal(payload, session); err != nil {
			return nil, errors.Wrap(err, "decode session record")
		}

	case entity.SchemaVersionLegacy:
		var legacy legacyRecord
		if err := json.Unmarshal(payload, &legacy); err != nil {
			return nil, errors.Wrap(err, "decode legacy session record")
		}
		session = &entity.InterviewSession{
			SchemaVersion:        entity.SchemaVersionCurrent,
			OwnerIdentity:        legacy.OwnerIdentity,
			Settings:             legacy.Settings,
			Questions:            legacy.Questions,
			CurrentQuestionIndex: legacy.CurrentQuestionIndex,
			IsCompleted:          false,
			StartTime:            legacy.LastUpdated,
			LastUpdated:          legacy.LastUpdated,
		}

	default:
		return nil, errors.Errorf("unknown schema version %q", probe.SchemaVersion)
	}

	if err := srv.validate.Struct(&session.Settings); err != nil {
		return nil, errors.Wrap(err, "session settings incomplete")
	}
	if session.LastUpdated.IsZero() {
		return nil, errors.New("session record missing lastUpdated stamp")
	}

	return session, nil
}
