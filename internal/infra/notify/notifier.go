// Package notify delivers UI notices out of the engine.
package notify

import (
	"context"
	"log/slog"

	"prepwise/config"
	"prepwise/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Provider names accepted in configuration.
const providerLocal = "local"

// noopNotifier is a no-op implementation when no notifier is configured
type noopNotifier struct {
	logger *slog.Logger
}

func (n *noopNotifier) PublishNotice(ctx context.Context, notice *service.UINotice) error {
	n.logger.Debug("[NoopNotifier] Notice delivery disabled, skipping",
		slog.String("kind", notice.Kind),
	)

	return nil
}

func (n *noopNotifier) Close() error {
	return nil
}

// Params holds dependencies for the Notifier, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewNotifier creates a Notifier based on configuration
func NewNotifier(params Params) (service.Notifier, error) {
	cfg := params.Config.Notifier
	logger := params.Logger

	// If no notifier is configured, return a no-op notifier
	if cfg == nil || cfg.Provider == "" {
		logger.Info("Notifier not configured, using no-op notifier")

		return &noopNotifier{logger: logger}, nil
	}

	var notifier service.Notifier

	switch cfg.Provider {
	case providerLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("local endpoint is required for local provider")
		}
		logger.Info("Using local HTTP notifier",
			slog.String("endpoint", cfg.LocalEndpoint),
		)

		notifier = NewLocalHTTPNotifier(cfg.LocalEndpoint, logger)

	default:
		return nil, errors.Errorf("unknown notifier provider: %s", cfg.Provider)
	}

	// Register lifecycle hook to close the notifier on shutdown
	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing Notifier")

			return notifier.Close()
		},
	})

	return notifier, nil
}
