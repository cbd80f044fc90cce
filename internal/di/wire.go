//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"TradePulse/pkg/config"
	"TradePulse/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideAuthCache,
		ProvideSignalStore,
		ProvideJournal,

		// Domain collaborators
		ProvideLedger,
		ProvideRegistry,
		ProvideMarketGateway,
		ProvideSignalEngine,
		ProvideRiskGate,
		ProvideBroadcaster,

		// Pipeline
		ProvideScheduler,
		ProvideWSGateway,
		ProvideDistributor,
		ProvideQueueRunner,

		// Surfaces
		ProvideAPIHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
