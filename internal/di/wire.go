//go:build wireinject
// +build wireinject

package di

import (
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/config"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideObservationSource,
		ProvideResultStore,
		ProvideEventPublisher,

		// Domain services
		ProvideForecaster,
		ProvideDetector,
		ProvideController,

		// Use cases
		ProvideBatchRunner,

		// Transport
		ProvideResultsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
