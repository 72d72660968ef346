package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
	domsvc "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/service"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/forecast"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/logger"
)

// ErrRunInProgress is returned by RunBatch while another run is active.
var ErrRunInProgress = errors.New("batch run already in progress")

// ErrNoReport is returned by LastReport before any run has completed.
var ErrNoReport = errors.New("no batch report available yet")

// BatchConfig holds pipeline-wide settings for a batch run.
type BatchConfig struct {
	Partition     forecast.PartitionConfig
	Splits        forecast.SplitConfig
	FutureHorizon int
	Workers       int
	SeriesTimeout time.Duration
}

// BatchRunner executes the full pipeline: fetch, partition, backtest, detect
// anomalies, forecast, persist. Series run concurrently on a bounded worker
// pool; one series failing never aborts the run.
type BatchRunner struct {
	source     domrepo.ObservationSource
	store      domrepo.ResultStore
	publisher  domrepo.EventPublisher
	controller *forecast.Controller
	detector   domsvc.AnomalyDetector
	metrics    domrepo.Metrics
	log        *logger.Logger
	cfg        BatchConfig

	mu      sync.Mutex
	running bool
	last    *models.BatchReport
}

// NewBatchRunner creates a batch runner. publisher may be nil when event
// emission is disabled.
func NewBatchRunner(
	source domrepo.ObservationSource,
	store domrepo.ResultStore,
	publisher domrepo.EventPublisher,
	controller *forecast.Controller,
	detector domsvc.AnomalyDetector,
	metrics domrepo.Metrics,
	log *logger.Logger,
	cfg BatchConfig,
) *BatchRunner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &BatchRunner{
		source:     source,
		store:      store,
		publisher:  publisher,
		controller: controller,
		detector:   detector,
		metrics:    metrics,
		log:        log,
		cfg:        cfg,
	}
}

type seriesWork struct {
	outcome models.SeriesOutcome
	summary *models.MetricSummary
	result  *models.SeriesResult
}

// RunBatch executes one batch over the given keys, or over every series in
// the source when keys is empty. Only one run may be active at a time.
func (r *BatchRunner) RunBatch(ctx context.Context, keys []models.SeriesID) (*models.BatchReport, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrRunInProgress
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	started := time.Now().UTC()
	runID := uuid.NewString()
	r.log.Info("batch run started",
		logger.String("run_id", runID),
		logger.Int("keys", len(keys)),
		logger.Int("workers", r.cfg.Workers))

	rows, err := r.source.Fetch(ctx, keys)
	if err != nil {
		r.metrics.RecordError("fetch")
		return nil, fmt.Errorf("fetch observations: %w", err)
	}
	labels, err := r.source.Labels(ctx)
	if err != nil {
		r.log.Warn("fetch labels failed", logger.Error(err))
		labels = nil
	}

	series, excluded := forecast.Partition(rows, labels, r.cfg.Partition)
	r.log.Info("partitioned observations",
		logger.String("run_id", runID),
		logger.Int("rows", len(rows)),
		logger.Int("series", len(series)),
		logger.Int("excluded", len(excluded)))

	works := r.runPool(ctx, series)

	outcomes := make([]models.SeriesOutcome, 0, len(works)+len(excluded))
	perSeries := make(map[models.SeriesID]*models.MetricSummary, len(works))
	for _, w := range works {
		outcomes = append(outcomes, w.outcome)
		if w.summary != nil {
			perSeries[w.outcome.SeriesID] = w.summary
		}
	}
	for _, ex := range excluded {
		r.metrics.RecordSeries(models.StatusFailed)
		outcomes = append(outcomes, models.SeriesOutcome{
			SeriesID: ex.SeriesID,
			Status:   models.StatusFailed,
			Reason:   ex.Reason,
		})
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].SeriesID < outcomes[j].SeriesID })

	report := &models.BatchReport{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Series:     outcomes,
		Global:     forecast.SummarizeGlobal(perSeries),
	}

	r.mu.Lock()
	r.last = report
	r.mu.Unlock()

	r.publish(ctx, report, works)
	r.metrics.RecordLatency("batch_run", report.FinishedAt.Sub(started).Seconds())
	r.log.Info("batch run finished",
		logger.String("run_id", runID),
		logger.Int("series", len(outcomes)),
		logger.Int("succeeded", report.Succeeded()),
		logger.Duration("took", report.FinishedAt.Sub(started)))

	return report, nil
}

// runPool fans the series out over the bounded worker pool. Cancellation is
// honored at series boundaries: queued series still get a timed-out outcome.
func (r *BatchRunner) runPool(ctx context.Context, series []*models.Series) []seriesWork {
	jobs := make(chan *models.Series)
	out := make([]seriesWork, 0, len(series))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				var w seriesWork
				if ctx.Err() != nil {
					w = timedOutWork(s.ID)
				} else {
					w = r.processSeries(ctx, s)
				}
				mu.Lock()
				out = append(out, w)
				mu.Unlock()
			}
		}()
	}

	for _, s := range series {
		jobs <- s
	}
	close(jobs)
	wg.Wait()

	return out
}

// processSeries runs backtests, anomaly detection, and the production
// forecast for one series, then persists the result in a single Put.
func (r *BatchRunner) processSeries(ctx context.Context, s *models.Series) seriesWork {
	sctx := ctx
	if r.cfg.SeriesTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, r.cfg.SeriesTimeout)
		defer cancel()
	}
	start := time.Now()

	outcome := models.SeriesOutcome{SeriesID: s.ID, Status: models.StatusSucceeded}

	splits, err := forecast.GenerateSplits(s, r.cfg.Splits)
	if err != nil {
		r.metrics.RecordSeries(models.StatusFailed)
		r.metrics.RecordError("splits")
		outcome.Status = models.StatusFailed
		outcome.Reason = conditionOr(err, models.CondNoValidSplits)
		return seriesWork{outcome: outcome}
	}

	backtests := r.controller.Run(sctx, s, splits)
	failedSplits := 0
	var reason models.Condition
	for _, b := range backtests {
		if !b.OK() {
			failedSplits++
			reason = b.Reason
		}
	}
	outcome.Splits = len(backtests)
	outcome.FailedSplits = failedSplits
	anyOK := failedSplits < len(backtests)
	anyFailed := failedSplits > 0

	var anomalies []models.AnomalyRecord
	if sctx.Err() == nil {
		anomalies, err = r.detector.Detect(s)
		if err != nil {
			r.metrics.RecordError("anomaly")
			r.log.Warn("anomaly detection failed",
				logger.String("series", string(s.ID)),
				logger.Error(err))
			reason = conditionOr(err, reason)
			anyFailed = true
		} else {
			anyOK = true
		}
	}
	flagged := 0
	for _, a := range anomalies {
		if a.Flagged {
			flagged++
		}
	}
	outcome.Anomalies = flagged
	r.metrics.RecordAnomalies(flagged)

	var fc *models.Forecast
	if sctx.Err() == nil {
		fc, err = r.controller.ForecastFuture(s, r.cfg.FutureHorizon)
		if err != nil {
			r.metrics.RecordError("forecast")
			r.log.Warn("production forecast failed",
				logger.String("series", string(s.ID)),
				logger.Error(err))
			reason = conditionOr(err, reason)
			anyFailed = true
		} else {
			anyOK = true
		}
	} else {
		reason = models.CondTimedOut
		anyFailed = true
	}

	switch {
	case !anyFailed:
		outcome.Status = models.StatusSucceeded
	case anyOK:
		outcome.Status = models.StatusPartial
		outcome.Reason = reason
	default:
		outcome.Status = models.StatusFailed
		outcome.Reason = reason
	}

	summary := forecast.SummarizeSeries(backtests)
	outcome.Summary = summary

	result := &models.SeriesResult{
		SeriesID:  s.ID,
		Forecast:  fc,
		Backtests: backtests,
		Anomalies: anomalies,
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.store.Put(ctx, result); err != nil {
		r.metrics.RecordError("store")
		r.log.Error("store series result failed",
			logger.String("series", string(s.ID)),
			logger.Error(err))
		outcome.Status = models.StatusFailed
	}

	r.metrics.RecordSeries(outcome.Status)
	r.metrics.RecordLatency("series", time.Since(start).Seconds())
	return seriesWork{outcome: outcome, summary: summary, result: result}
}

func (r *BatchRunner) publish(ctx context.Context, report *models.BatchReport, works []seriesWork) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishReport(ctx, report); err != nil {
		r.metrics.RecordError("publish")
		r.log.Warn("publish report failed", logger.Error(err))
	}
	for _, w := range works {
		if w.result == nil {
			continue
		}
		flagged := make([]models.AnomalyRecord, 0, len(w.result.Anomalies))
		for _, a := range w.result.Anomalies {
			if a.Flagged {
				flagged = append(flagged, a)
			}
		}
		if len(flagged) == 0 {
			continue
		}
		if err := r.publisher.PublishAnomalies(ctx, w.result.SeriesID, flagged); err != nil {
			r.metrics.RecordError("publish")
			r.log.Warn("publish anomalies failed",
				logger.String("series", string(w.result.SeriesID)),
				logger.Error(err))
		}
	}
}

// GetSeriesResult returns the stored result for one series.
func (r *BatchRunner) GetSeriesResult(ctx context.Context, id models.SeriesID) (*models.SeriesResult, error) {
	return r.store.Get(ctx, id)
}

// LastReport returns the report of the most recent completed run.
func (r *BatchRunner) LastReport() (*models.BatchReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil, ErrNoReport
	}
	return r.last, nil
}

// Running reports whether a batch run is currently active.
func (r *BatchRunner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func timedOutWork(id models.SeriesID) seriesWork {
	return seriesWork{outcome: models.SeriesOutcome{
		SeriesID: id,
		Status:   models.StatusFailed,
		Reason:   models.CondTimedOut,
	}}
}

func conditionOr(err error, def models.Condition) models.Condition {
	if c := models.ConditionOf(err); c != "" {
		return c
	}
	return def
}
