//go:build wireinject

package bootstrap

import (
	"github.com/google/wire"
)

// InitializeApp is the injector Wire would generate code for. It is
// never compiled into an ordinary build (see the wireinject tag); the
// equivalent graph is hand-assembled in providers.go's Provide*
// functions, invoked directly by New in app.go.
func InitializeApp(inittabPath string) (*App, error) {
	wire.Build(
		ProvideTunables,
		ProvideAuditLog,
		ProvideKernel,
		ProvideCgroupController,
		ProvideSpawner,
		ProvideRegistry,
		ProvideLoop,
		ProvideControlListener,
		NewApp,
	)
	return nil, nil
}
