// Package forecasting provides concrete implementations of the domain
// Forecaster capability. The backtest controller is agnostic to which one is
// plugged in.
package forecasting

import (
	"fmt"
	"math"
	"time"

	"github.com/sartorproj/goarima/sarima"
	"github.com/sartorproj/goarima/timeseries"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domsvc "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/service"
)

// SARIMAConfig holds the model order (p,d,q)x(P,D,Q,m) and the prediction
// interval confidence.
type SARIMAConfig struct {
	P, D, Q    int
	SP, SD, SQ int
	Period     int
	Confidence float64
}

// DefaultSARIMAConfig is a weekly-seasonal order suited to daily demand data.
func DefaultSARIMAConfig() SARIMAConfig {
	return SARIMAConfig{P: 1, D: 1, Q: 1, SP: 1, SD: 0, SQ: 1, Period: 7, Confidence: 0.95}
}

// SARIMAForecaster fits a seasonal ARIMA model per train window. Fitting is
// deterministic for identical input, which keeps repeated batch runs
// bit-identical.
type SARIMAForecaster struct {
	cfg SARIMAConfig
}

// NewSARIMAForecaster creates a SARIMA-backed forecaster.
func NewSARIMAForecaster(cfg SARIMAConfig) *SARIMAForecaster {
	if cfg.Period <= 0 {
		cfg.Period = 7
	}
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		cfg.Confidence = 0.95
	}
	return &SARIMAForecaster{cfg: cfg}
}

func (f *SARIMAForecaster) Name() string { return "sarima" }

// minHistory is the fit requirement for the configured order.
func (f *SARIMAForecaster) minHistory() int {
	c := f.cfg
	return c.P + c.D + c.Q + (c.SP+c.SD+c.SQ)*c.Period + 20
}

// Fit validates the history and estimates the model. Degenerate input (too
// short, all-constant, non-finite values) is a recoverable ModelFitError, not
// a crash.
func (f *SARIMAForecaster) Fit(history []models.Point) (domsvc.Model, error) {
	if len(history) < f.minHistory() {
		return nil, fmt.Errorf("history has %d points, order needs %d: %w",
			len(history), f.minHistory(), models.ErrModelFit)
	}

	values := make([]float64, len(history))
	stamps := make([]time.Time, len(history))
	constant := true
	for i, p := range history {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, fmt.Errorf("non-finite value at %s: %w", p.TS.Format(time.RFC3339), models.ErrModelFit)
		}
		values[i] = p.Value
		stamps[i] = p.TS
		if i > 0 && p.Value != history[0].Value {
			constant = false
		}
	}
	if constant {
		return nil, fmt.Errorf("history is constant: %w", models.ErrModelFit)
	}

	ts, err := timeseries.NewWithTimestamps(stamps, values)
	if err != nil {
		return nil, fmt.Errorf("build series: %w", models.ErrModelFit)
	}
	m := sarima.New(f.cfg.P, f.cfg.D, f.cfg.Q, f.cfg.SP, f.cfg.SD, f.cfg.SQ, f.cfg.Period)
	if err := m.Fit(ts); err != nil {
		return nil, fmt.Errorf("sarima fit: %v: %w", err, models.ErrModelFit)
	}
	return &sarimaModel{m: m, lastTS: stamps[len(stamps)-1], confidence: f.cfg.Confidence}, nil
}

type sarimaModel struct {
	m          *sarima.Model
	lastTS     time.Time
	confidence float64
}

func (s *sarimaModel) Predict(horizon int) ([]models.ForecastPoint, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon %d: %w", horizon, models.ErrModelPredict)
	}
	point, lower, upper, err := s.m.PredictWithInterval(horizon, s.confidence)
	if err != nil {
		return nil, fmt.Errorf("sarima predict: %v: %w", err, models.ErrModelPredict)
	}

	out := make([]models.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		out[i] = models.ForecastPoint{
			TS:    s.lastTS.AddDate(0, 0, i+1),
			Value: point[i],
			Lower: lower[i],
			Upper: upper[i],
		}
	}
	return out, nil
}

var _ domsvc.Forecaster = (*SARIMAForecaster)(nil)
