// Package usecase defines the application-facing contracts of the
// synchronization engine.
package usecase

import (
	"context"

	"prepwise/internal/domain/entity"
)

// SessionUsecase is the session persistence manager: the only component
// permitted to create, mutate, or delete persisted interview sessions.
//
// All operations take the acting identity explicitly; nothing reads ambient
// auth state. Storage anomalies (quota, corruption, ownership or expiry
// rejections) are handled internally and never surface as errors.
type SessionUsecase interface {
	// Save stamps the record (owner, lastUpdated, schemaVersion) and writes
	// it through to both tiers. No-op without an identity. Reports whether
	// the session was persisted this round.
	Save(ctx context.Context, identity entity.Identity, session *entity.InterviewSession) bool

	// Load returns the identity's persisted session, or nil when there is
	// none, it is unreadable, it belongs to someone else, or it has expired.
	// The latter two rejections also delete both tiers' keys. A missing
	// primary record is repaired from the durable backup when possible.
	Load(ctx context.Context, identity entity.Identity) *entity.InterviewSession

	// Clear deletes both tiers' keys for the identity. No-op without one.
	Clear(ctx context.Context, identity entity.Identity)

	// Purge sweeps every key matching a registered domain marker from both
	// tiers, regardless of identity namespace. Returns keys deleted.
	Purge(ctx context.Context) int
}
