package blobstore

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"prepwise/config"
	"prepwise/internal/domain/storage"

	"go.uber.org/fx"
)

// Domain markers registered on every gateway. Any key containing one of
// these belongs to interview data and is swept on sign-out and identity
// switch, even if it was written under a historical naming scheme.
var defaultMarkers = []string{"interview", "speech", "voice"}

// gateway pairs the volatile and durable tiers and owns the marker registry.
type gateway struct {
	volatile storage.Tier
	durable  storage.Tier
	logger   *slog.Logger

	mu      sync.RWMutex
	markers []string
}

// Params holds dependencies for the gateway, injected by Fx.
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// New opens both tiers and registers the default domain markers.
func New(params Params) (storage.Gateway, error) {
	durable, err := NewDurableTier(params.Config.Session.StoragePath, params.Logger)
	if err != nil {
		return nil, err
	}

	gw := &gateway{
		volatile: NewVolatileTier(params.Logger),
		durable:  durable,
		logger:   params.Logger,
		markers:  append([]string(nil), defaultMarkers...),
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return gw.close()
		},
	})

	return gw, nil
}

// NewWithTiers builds a gateway over explicit tiers. Used by tests and by
// callers that manage tier lifetime themselves.
func NewWithTiers(volatile, durable storage.Tier, logger *slog.Logger) storage.Gateway {
	return &gateway{
		volatile: volatile,
		durable:  durable,
		logger:   logger,
		markers:  append([]string(nil), defaultMarkers...),
	}
}

func (g *gateway) Volatile() storage.Tier {
	return g.volatile
}

func (g *gateway) Durable() storage.Tier {
	return g.durable
}

func (g *gateway) RegisterMarker(marker string) {
	marker = strings.ToLower(strings.TrimSpace(marker))
	if marker == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, existing := range g.markers {
		if existing == marker {
			return
		}
	}
	g.markers = append(g.markers, marker)
}

func (g *gateway) Markers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return append([]string(nil), g.markers...)
}

func (g *gateway) PurgeMarked(ctx context.Context) int {
	markers := g.Markers()
	deleted := 0

	for _, tier := range []storage.Tier{g.volatile, g.durable} {
		keys, err := tier.Keys(ctx)
		if err != nil {
			g.logger.Warn("purge sweep could not enumerate tier",
				slog.String("tier", string(tier.Scope())),
				slog.Any("error", err),
			)

			continue
		}

		for _, key := range keys {
			if !matchesAny(key, markers) {
				continue
			}

			if err := tier.Delete(ctx, key); err != nil {
				g.logger.Warn("purge sweep could not delete key",
					slog.String("tier", string(tier.Scope())),
					slog.String("key", key),
					slog.Any("error", err),
				)

				continue
			}
			deleted++
		}
	}

	g.logger.Debug("purge sweep finished", slog.Int("deleted", deleted))

	return deleted
}

func matchesAny(key string, markers []string) bool {
	lower := strings.ToLower(key)
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

// close releases tiers that hold external resources.
func (g *gateway) close() error {
	var errs []error
	for _, tier := range []storage.Tier{g.volatile, g.durable} {
		if closer, ok := tier.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}

	return nil
}
