package webstore

import (
	"context"

	"go.uber.org/fx"
)

// Params are the dependencies Module consumes. All of them are optional.
type Params struct {
	fx.In

	Config  *Config  `optional:"true"`
	Logger  Logger   `optional:"true"`
	Metrics *Metrics `optional:"true"`
	Jar     Jar      `optional:"true"`
}

// Module returns an fx module providing a Store.
//
// Provides:
//   - Store: built with Open from the optional *Config
//
// Lifecycle:
//   - OnStop: closes the Store
func Module() fx.Option {
	return fx.Module("webstore",
		fx.Provide(ProvideStore),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStore builds a Store from injected parameters.
func ProvideStore(p Params) (Store, error) {
	return Open(p.Config,
		WithLogger(p.Logger),
		WithMetrics(p.Metrics),
		WithJar(p.Jar),
	)
}

func registerLifecycle(lc fx.Lifecycle, s Store) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
}
