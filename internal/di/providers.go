package di

import (
	"context"
	"fmt"
	"time"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/anomaly"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
	domsvc "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/service"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/forecast"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/handler/api"
	internalrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/repository"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/services/forecasting"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/usecase"
	pkgch "github.com/Dvipg/e-commerce-demand-forecasting/pkg/clickhouse"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/config"
	pkgkafka "github.com/Dvipg/e-commerce-demand-forecasting/pkg/kafka"
	applogger "github.com/Dvipg/e-commerce-demand-forecasting/pkg/logger"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/metrics"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideObservationSource creates the configured demand data source.
func ProvideObservationSource(cfg *config.Config, l *applogger.Logger) (repository.ObservationSource, error) {
	switch cfg.Data.Source {
	case "csv":
		return internalrepo.NewCSVSource(cfg.Data.CSVPath), nil
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, schemaStatements(cfg.ClickHouse.Database, cfg.Data.Table)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}

		src := internalrepo.NewClickHouseSource(client, cfg.ClickHouse.Database+"."+cfg.Data.Table)
		src.SetLogger(l)
		return src, nil
	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Data.Source)
	}
}

// ProvideResultStore creates the configured result store.
func ProvideResultStore(cfg *config.Config) (repository.ResultStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		return internalrepo.NewMemoryResultStore(), nil
	case "redis":
		store, err := internalrepo.NewRedisResultStore(internalrepo.RedisConfig{
			Host:     cfg.Store.Redis.Host,
			Port:     cfg.Store.Redis.Port,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

// ProvideEventPublisher creates the Kafka publisher, or nil when events are
// disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Events.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Events.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Events.Kafka.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Events.Kafka.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Events.Kafka.Linger),
		pkgkafka.WithTimeouts(cfg.Events.Kafka.WriteTimeout, cfg.Events.Kafka.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Events.Kafka.MaxAttempts),
		pkgkafka.WithAsync(cfg.Events.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Events.Kafka.Topic), nil
}

// ProvideForecaster creates the configured forecast model adapter.
func ProvideForecaster(cfg *config.Config) (domsvc.Forecaster, error) {
	switch cfg.Backtest.Model {
	case "sarima":
		return forecasting.NewSARIMAForecaster(forecasting.SARIMAConfig{
			P:          cfg.Backtest.SARIMA.P,
			D:          cfg.Backtest.SARIMA.D,
			Q:          cfg.Backtest.SARIMA.Q,
			SP:         cfg.Backtest.SARIMA.SP,
			SD:         cfg.Backtest.SARIMA.SD,
			SQ:         cfg.Backtest.SARIMA.SQ,
			Period:     cfg.Backtest.SARIMA.Period,
			Confidence: cfg.Backtest.SARIMA.Confidence,
		}), nil
	case "seasonal_naive":
		return forecasting.NewSeasonalNaiveForecaster(cfg.Backtest.SARIMA.Period), nil
	default:
		return nil, fmt.Errorf("unknown forecast model: %s", cfg.Backtest.Model)
	}
}

// ProvideDetector creates the anomaly detector.
func ProvideDetector(cfg *config.Config) domsvc.AnomalyDetector {
	return anomaly.NewDetector(anomaly.Config{
		Period:        cfg.Anomaly.Period,
		Method:        cfg.Anomaly.Method,
		SigmaK:        cfg.Anomaly.SigmaK,
		Contamination: cfg.Anomaly.Contamination,
		Trees:         cfg.Anomaly.Trees,
		Seed:          cfg.Anomaly.Seed,
		RobustIters:   cfg.Anomaly.RobustIters,
	})
}

// ProvideController creates the backtest controller.
func ProvideController(f domsvc.Forecaster, m repository.Metrics, l *applogger.Logger) *forecast.Controller {
	return forecast.NewController(f, m, l)
}

// ProvideBatchRunner creates the batch pipeline use case.
func ProvideBatchRunner(
	source repository.ObservationSource,
	store repository.ResultStore,
	publisher repository.EventPublisher,
	controller *forecast.Controller,
	detector domsvc.AnomalyDetector,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.BatchRunner {
	return usecase.NewBatchRunner(source, store, publisher, controller, detector, m, l, usecase.BatchConfig{
		Partition: forecast.PartitionConfig{
			Fill:            models.FillPolicy(cfg.Data.FillPolicy),
			MinObservations: cfg.Data.MinObservations,
		},
		Splits: forecast.SplitConfig{
			InitialTrain: cfg.Backtest.InitialTrain,
			Horizon:      cfg.Backtest.Horizon,
			Step:         cfg.Backtest.Step,
		},
		FutureHorizon: cfg.Backtest.FutureHorizon,
		Workers:       cfg.Backtest.Workers,
		SeriesTimeout: cfg.Backtest.SeriesTimeout,
	})
}

// ProvideResultsHandler creates the HTTP handler.
func ProvideResultsHandler(l *applogger.Logger, runner *usecase.BatchRunner, store repository.ResultStore) *api.ResultsHandler {
	return api.NewResultsHandler(l, runner, store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	runner *usecase.BatchRunner,
	handler *api.ResultsHandler,
	source repository.ObservationSource,
	store repository.ResultStore,
	publisher repository.EventPublisher,
) *server.App {
	return server.New(cfg, l, runner, handler, source, store, publisher)
}

// schemaStatements returns idempotent DDL for the demand table, used by
// deployments that bootstrap ClickHouse on start.
func schemaStatements(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (store Int32, item Int32, ds Date, sales Float64) ENGINE=MergeTree ORDER BY (store, item, ds)", database, table),
	}
}
