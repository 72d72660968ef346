package forecasting

import (
	"fmt"
	"math"
	"time"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domsvc "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/service"
)

// SeasonalNaiveForecaster repeats the last observed season. It is the cheap
// deterministic baseline: zero training cost, exact on perfectly periodic
// data, and a sanity floor for the SARIMA model in backtests.
type SeasonalNaiveForecaster struct {
	period int
}

// NewSeasonalNaiveForecaster creates the baseline with the given seasonal
// period in days.
func NewSeasonalNaiveForecaster(period int) *SeasonalNaiveForecaster {
	if period <= 0 {
		period = 7
	}
	return &SeasonalNaiveForecaster{period: period}
}

func (f *SeasonalNaiveForecaster) Name() string { return "seasonal_naive" }

// Fit requires at least one full season of finite history.
func (f *SeasonalNaiveForecaster) Fit(history []models.Point) (domsvc.Model, error) {
	if len(history) < f.period {
		return nil, fmt.Errorf("history has %d points, need one season of %d: %w",
			len(history), f.period, models.ErrModelFit)
	}
	for _, p := range history {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, fmt.Errorf("non-finite value in history: %w", models.ErrModelFit)
		}
	}

	n := len(history)
	season := make([]float64, f.period)
	for i := range season {
		season[i] = history[n-f.period+i].Value
	}

	// interval width from the spread of seasonal differences
	var sq float64
	var cnt int
	for i := f.period; i < n; i++ {
		d := history[i].Value - history[i-f.period].Value
		sq += d * d
		cnt++
	}
	sigma := 0.0
	if cnt > 0 {
		sigma = math.Sqrt(sq / float64(cnt))
	}

	return &seasonalNaiveModel{
		season: season,
		lastTS: history[n-1].TS,
		sigma:  sigma,
	}, nil
}

type seasonalNaiveModel struct {
	season []float64
	lastTS time.Time
	sigma  float64
}

func (m *seasonalNaiveModel) Predict(horizon int) ([]models.ForecastPoint, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon %d: %w", horizon, models.ErrModelPredict)
	}
	const z = 1.959963984540054 // 95% normal quantile

	out := make([]models.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		v := m.season[i%len(m.season)]
		// interval widens with the number of seasons ahead
		w := z * m.sigma * math.Sqrt(float64(i/len(m.season))+1)
		out[i] = models.ForecastPoint{
			TS:    m.lastTS.AddDate(0, 0, i+1),
			Value: v,
			Lower: v - w,
			Upper: v + w,
		}
	}
	return out, nil
}

var _ domsvc.Forecaster = (*SeasonalNaiveForecaster)(nil)
