//go:build wireinject
// +build wireinject

package di

import (
	"Kronos/pkg/config"
	"Kronos/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Data plane
		ProvideStore,
		ProvideFetcher,
		ProvideSyncEngine,

		// Forecast plane
		ProvidePredictor,
		ProvideAggregator,
		ProvideRecorder,
		ProvideResponseCache,

		// Use cases
		ProvidePredictUseCase,
		ProvideDataUseCase,

		// HTTP
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
