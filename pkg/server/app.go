package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/handler/api"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/usecase"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/config"
	xhttp "github.com/Dvipg/e-commerce-demand-forecasting/pkg/http"
	applogger "github.com/Dvipg/e-commerce-demand-forecasting/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	runner     *usecase.BatchRunner
	handler    *api.ResultsHandler
	source     repository.ObservationSource
	store      repository.ResultStore
	publisher  repository.EventPublisher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	runner *usecase.BatchRunner,
	handler *api.ResultsHandler,
	source repository.ObservationSource,
	store repository.ResultStore,
	publisher repository.EventPublisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		runner:    runner,
		handler:   handler,
		source:    source,
		store:     store,
		publisher: publisher,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	if a.cfg.RunOnStart {
		go func() {
			if _, err := a.runner.RunBatch(ctx, nil); err != nil {
				a.log.Error("startup batch run failed", applogger.Error(err))
			}
		}()
		a.log.Info("startup batch run scheduled")
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.source != nil {
		if err := a.source.Close(); err != nil {
			a.log.Warn("source close error", applogger.Error(err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
