// Package storage defines the two-tier storage gateway the persistence
// manager writes through.
package storage

import (
	"context"

	"prepwise/internal/errors"
)

// ErrKeyNotFound is returned by Tier.Read when the key holds no value.
var ErrKeyNotFound = errors.New("storage: key not found")

// TierScope names a storage tier's lifetime.
type TierScope string

const (
	// TierVolatile is scoped to the current tab/process lifetime.
	TierVolatile TierScope = "volatile"

	// TierDurable persists across restarts, scoped to the origin.
	TierDurable TierScope = "durable"
)

// Tier is one storage tier. Implementations must tolerate corrupt or
// unavailable backing stores: callers treat every failure as "value absent"
// or "value not written", never as fatal.
type Tier interface {
	// Scope identifies the tier's lifetime.
	Scope() TierScope

	// Read returns the value stored under key, or ErrKeyNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores value under key, replacing any previous value.
	Write(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys enumerates every key currently present in the tier.
	Keys(ctx context.Context) ([]string, error)
}

// Gateway pairs the two tiers and owns the registry of domain markers the
// purge sweep matches against. Markers are registered up front rather than
// guessed at call sites, so the sweep stays correct across naming-scheme
// drift.
type Gateway interface {
	// Volatile returns the tab-scoped tier.
	Volatile() Tier

	// Durable returns the origin-scoped tier.
	Durable() Tier

	// RegisterMarker adds a domain marker to the purge registry.
	RegisterMarker(marker string)

	// Markers returns the registered domain markers.
	Markers() []string

	// PurgeMarked deletes, in both tiers, every key whose name contains a
	// registered marker, regardless of which identity namespace it belongs
	// to. Returns the number of keys deleted. Per-key failures are skipped,
	// never fatal.
	PurgeMarked(ctx context.Context) int
}
