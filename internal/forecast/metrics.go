package forecast

import (
	"math"
	"sort"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
)

// SplitMetrics computes MAE, RMSE and MAPE over matched (forecast, actual)
// pairs. Points are matched by timestamp; a forecast point without an actual
// is excluded from all three metrics rather than treated as zero. Zero actuals
// are additionally excluded from MAPE only, where the ratio is undefined.
// Returns the metric map and the number of matched pairs; zero matches yields
// a nil map.
func SplitMetrics(forecast []models.ForecastPoint, actual []models.Point) (map[string]float64, int) {
	byTS := make(map[int64]float64, len(actual))
	for _, p := range actual {
		byTS[p.TS.Unix()] = p.Value
	}

	var (
		absSum, sqSum float64
		pctSum        float64
		matched       int
		pctN          int
	)
	for _, f := range forecast {
		a, ok := byTS[f.TS.Unix()]
		if !ok || math.IsNaN(a) {
			continue
		}
		diff := f.Value - a
		absSum += math.Abs(diff)
		sqSum += diff * diff
		matched++
		if a != 0 {
			pctSum += math.Abs(diff / a)
			pctN++
		}
	}
	if matched == 0 {
		return nil, 0
	}

	m := map[string]float64{
		models.MetricMAE:  absSum / float64(matched),
		models.MetricRMSE: math.Sqrt(sqSum / float64(matched)),
	}
	if pctN > 0 {
		m[models.MetricMAPE] = pctSum / float64(pctN)
	} else {
		m[models.MetricMAPE] = 0
	}
	return m, matched
}

// SummarizeSeries rolls a series' backtest results up into an unweighted mean
// over its successful splits. Returns nil when no split succeeded so the
// series contributes nothing to the global summary.
func SummarizeSeries(results []models.BacktestResult) *models.MetricSummary {
	var sum models.MetricSummary
	for _, r := range results {
		if !r.OK() || r.Metrics == nil {
			continue
		}
		sum.MAE += r.Metrics[models.MetricMAE]
		sum.RMSE += r.Metrics[models.MetricRMSE]
		sum.MAPE += r.Metrics[models.MetricMAPE]
		sum.Splits++
	}
	if sum.Splits == 0 {
		return nil
	}
	n := float64(sum.Splits)
	sum.MAE /= n
	sum.RMSE /= n
	sum.MAPE /= n
	return &sum
}

// SummarizeGlobal is the unweighted mean of per-series summaries, not a pooled
// mean over raw points, so long series cannot dominate the aggregate. Iterates
// in sorted series order for deterministic float accumulation.
func SummarizeGlobal(perSeries map[models.SeriesID]*models.MetricSummary) *models.MetricSummary {
	ids := make([]string, 0, len(perSeries))
	for id, s := range perSeries {
		if s != nil {
			ids = append(ids, string(id))
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	var g models.MetricSummary
	for _, id := range ids {
		s := perSeries[models.SeriesID(id)]
		g.MAE += s.MAE
		g.RMSE += s.RMSE
		g.MAPE += s.MAPE
		g.Splits += s.Splits
	}
	n := float64(len(ids))
	g.MAE /= n
	g.RMSE /= n
	g.MAPE /= n
	return &g
}
