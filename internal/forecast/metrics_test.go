package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
)

func day(i int) time.Time {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func TestSplitMetrics(t *testing.T) {
	forecast := []models.ForecastPoint{
		{TS: day(0), Value: 12},
		{TS: day(1), Value: 5},
		{TS: day(2), Value: 18},
	}
	actual := []models.Point{
		{TS: day(0), Value: 10},
		{TS: day(1), Value: 0},
		{TS: day(2), Value: 20},
	}

	m, matched := SplitMetrics(forecast, actual)
	require.Equal(t, 3, matched)
	require.InDelta(t, 3.0, m[models.MetricMAE], 1e-12)                // (2+5+2)/3
	require.InDelta(t, math.Sqrt(11), m[models.MetricRMSE], 1e-12)     // sqrt((4+25+4)/3)
	require.InDelta(t, 0.15, m[models.MetricMAPE], 1e-12)              // zero actual excluded
}

func TestSplitMetricsMissingActual(t *testing.T) {
	forecast := []models.ForecastPoint{
		{TS: day(0), Value: 12},
		{TS: day(5), Value: 99}, // no matching actual
	}
	actual := []models.Point{{TS: day(0), Value: 10}}

	m, matched := SplitMetrics(forecast, actual)
	require.Equal(t, 1, matched)
	require.InDelta(t, 2.0, m[models.MetricMAE], 1e-12)
}

func TestSplitMetricsNaNActualExcluded(t *testing.T) {
	forecast := []models.ForecastPoint{
		{TS: day(0), Value: 12},
		{TS: day(1), Value: 7},
	}
	actual := []models.Point{
		{TS: day(0), Value: math.NaN()},
		{TS: day(1), Value: 7},
	}

	m, matched := SplitMetrics(forecast, actual)
	require.Equal(t, 1, matched)
	require.InDelta(t, 0.0, m[models.MetricMAE], 1e-12)
}

func TestSplitMetricsNoMatches(t *testing.T) {
	forecast := []models.ForecastPoint{{TS: day(0), Value: 12}}
	m, matched := SplitMetrics(forecast, nil)
	require.Nil(t, m)
	require.Zero(t, matched)
}

func TestSplitMetricsAllZeroActuals(t *testing.T) {
	forecast := []models.ForecastPoint{{TS: day(0), Value: 3}}
	actual := []models.Point{{TS: day(0), Value: 0}}

	m, matched := SplitMetrics(forecast, actual)
	require.Equal(t, 1, matched)
	require.InDelta(t, 3.0, m[models.MetricMAE], 1e-12)
	require.Zero(t, m[models.MetricMAPE])
}

func TestSummarizeSeries(t *testing.T) {
	results := []models.BacktestResult{
		{Metrics: map[string]float64{models.MetricMAE: 2, models.MetricRMSE: 3, models.MetricMAPE: 0.1}},
		{Metrics: map[string]float64{models.MetricMAE: 4, models.MetricRMSE: 5, models.MetricMAPE: 0.3}},
		{Reason: models.CondModelFit}, // failed split contributes nothing
	}

	s := SummarizeSeries(results)
	require.NotNil(t, s)
	require.Equal(t, 2, s.Splits)
	require.InDelta(t, 3.0, s.MAE, 1e-12)
	require.InDelta(t, 4.0, s.RMSE, 1e-12)
	require.InDelta(t, 0.2, s.MAPE, 1e-12)
}

func TestSummarizeSeriesAllFailed(t *testing.T) {
	results := []models.BacktestResult{
		{Reason: models.CondModelFit},
		{Reason: models.CondTimedOut},
	}
	require.Nil(t, SummarizeSeries(results))
}

func TestSummarizeGlobalUnweighted(t *testing.T) {
	// the series with more splits must not dominate
	per := map[models.SeriesID]*models.MetricSummary{
		"1-1": {MAE: 2, RMSE: 2, MAPE: 0.2, Splits: 10},
		"1-2": {MAE: 4, RMSE: 4, MAPE: 0.4, Splits: 1},
		"1-3": nil,
	}

	g := SummarizeGlobal(per)
	require.NotNil(t, g)
	require.InDelta(t, 3.0, g.MAE, 1e-12)
	require.InDelta(t, 3.0, g.RMSE, 1e-12)
	require.InDelta(t, 0.3, g.MAPE, 1e-12)
	require.Equal(t, 11, g.Splits)
}

func TestSummarizeGlobalEmpty(t *testing.T) {
	require.Nil(t, SummarizeGlobal(nil))
	require.Nil(t, SummarizeGlobal(map[models.SeriesID]*models.MetricSummary{"1-1": nil}))
}
