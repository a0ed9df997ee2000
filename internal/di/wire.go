//go:build wireinject
// +build wireinject

package di

import (
	"snowroll/pkg/config"
	"snowroll/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient services
		ProvideLogger,
		ProvideMetrics,
		ProvideLimiter,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideEventPublisher,
		ProvideCache,

		// Repositories
		ProvideCoverageStore,
		ProvideSliceStore,

		// Domain services
		ProvideMarketDataProvider,
		ProvideCalendar,

		// Use cases
		ProvideEngine,

		// HTTP and application server
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
