package forecast

import (
	"context"
	"time"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
	domsvc "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/service"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/logger"
)

// Controller drives the forecaster across every split of a series and emits
// one BacktestResult per split. Splits of one series run sequentially in
// origin order; different series are parallelized by the batch runner.
type Controller struct {
	forecaster domsvc.Forecaster
	metrics    domrepo.Metrics
	log        *logger.Logger
}

// NewController creates a backtest controller.
func NewController(forecaster domsvc.Forecaster, metrics domrepo.Metrics, log *logger.Logger) *Controller {
	return &Controller{forecaster: forecaster, metrics: metrics, log: log}
}

// Run evaluates every split. A fit or predict failure on one split is
// recorded as a failed result and never stops the remaining splits. The
// context is consulted between splits; on cancellation the remaining splits
// are reported as timed out.
func (c *Controller) Run(ctx context.Context, s *models.Series, splits []models.Split) []models.BacktestResult {
	results := make([]models.BacktestResult, 0, len(splits))
	for _, sp := range splits {
		if err := ctx.Err(); err != nil {
			results = append(results, failed(s.ID, sp, models.CondTimedOut))
			continue
		}
		results = append(results, c.evaluate(s, sp))
	}
	return results
}

func (c *Controller) evaluate(s *models.Series, sp models.Split) models.BacktestResult {
	start := time.Now()

	model, err := c.forecaster.Fit(s.Slice(0, sp.OriginIdx))
	if err != nil {
		c.metrics.RecordSplit("fit_failed")
		c.log.Warn("model fit failed",
			logger.String("series", string(s.ID)),
			logger.Int("split", sp.Index),
			logger.Error(err))
		return failed(s.ID, sp, conditionOr(err, models.CondModelFit))
	}

	points, err := model.Predict(sp.Horizon)
	if err != nil {
		c.metrics.RecordSplit("predict_failed")
		c.log.Warn("model predict failed",
			logger.String("series", string(s.ID)),
			logger.Int("split", sp.Index),
			logger.Error(err))
		return failed(s.ID, sp, conditionOr(err, models.CondModelPredict))
	}

	actual := s.Slice(sp.OriginIdx, sp.OriginIdx+sp.Horizon)
	metrics, matched := SplitMetrics(points, actual)
	c.metrics.RecordSplit("ok")
	c.metrics.RecordLatency("backtest_split", time.Since(start).Seconds())

	return models.BacktestResult{
		SeriesID:   s.ID,
		SplitIndex: sp.Index,
		Origin:     sp.Origin,
		Metrics:    metrics,
		Matched:    matched,
	}
}

// ForecastFuture fits the full history and predicts horizon future points,
// mirroring the production forecast stored as the series' latest forecast.
func (c *Controller) ForecastFuture(s *models.Series, horizon int) (*models.Forecast, error) {
	model, err := c.forecaster.Fit(s.Points)
	if err != nil {
		return nil, err
	}
	points, err := model.Predict(horizon)
	if err != nil {
		return nil, err
	}
	return &models.Forecast{
		SeriesID:   s.ID,
		SplitIndex: models.LatestForecast,
		Model:      c.forecaster.Name(),
		CreatedAt:  time.Now().UTC(),
		Points:     points,
	}, nil
}

func failed(id models.SeriesID, sp models.Split, cond models.Condition) models.BacktestResult {
	return models.BacktestResult{
		SeriesID:   id,
		SplitIndex: sp.Index,
		Origin:     sp.Origin,
		Reason:     cond,
	}
}

func conditionOr(err error, def models.Condition) models.Condition {
	if c := models.ConditionOf(err); c != "" {
		return c
	}
	return def
}
