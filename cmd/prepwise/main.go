package main

import (
	"context"
	"log/slog"

	"prepwise/config"
	"prepwise/internal/domain/service"
	"prepwise/internal/infra/auth/remote"
	"prepwise/internal/infra/blobstore"
	"prepwise/internal/infra/browser"
	logs "prepwise/internal/infra/log"
	"prepwise/internal/infra/notify"
	"prepwise/internal/infra/speech"
	"prepwise/internal/usecase"
	"prepwise/internal/usecase/impl"

	"go.uber.org/fx"
)

type startEngineParams struct {
	fx.In
	fx.Lifecycle

	Logger   *slog.Logger
	Auth     usecase.AuthUsecase
	AppState usecase.AppStateUsecase
}

func main() {
	fx.New(
		injectInfra(),
		injectService(),
		injectUsecase(),
		fx.Invoke(
			startEngine,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		blobstore.New,
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			newAuthProvider,
			speech.NewSynthesizer,
			browser.NewAddressBar,
			notify.NewNotifier,
		),
	)
}

// newAuthProvider binds the remote provider to the domain contract
func newAuthProvider(cfg *config.Config, logger *slog.Logger) (service.AuthProvider, error) {
	return remote.New(cfg, logger)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewSessionService,
			impl.NewAuthService,
			impl.NewAppStateService,
		),
	)
}

// startEngine runs the synchronizer and keeps the screen machine subscribed
// to identity changes for the lifetime of the process.
func startEngine(ctx context.Context, params startEngineParams) {
	var cancelListener func()

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			cancelListener = params.Auth.OnIdentityChange(params.AppState.HandleIdentityChange)

			if err := params.Auth.Start(ctx); err != nil {
				return err
			}

			status := params.Auth.Status()
			if status.Err != nil {
				params.Logger.Warn("starting with an authentication error",
					slog.Any("error", status.Err),
				)
			}
			params.AppState.Mount(ctx, status.Identity)

			return nil
		},
		OnStop: func(context.Context) error {
			if cancelListener != nil {
				cancelListener()
			}
			params.Auth.Stop()

			return nil
		},
	})
}
