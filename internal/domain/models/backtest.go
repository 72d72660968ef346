package models

import "time"

// Metric names emitted by the aggregator.
const (
	MetricMAE  = "mae"
	MetricRMSE = "rmse"
	MetricMAPE = "mape"
)

// Split is one rolling-origin train/test pair. The train window is
// [0, OriginIdx), the test window [OriginIdx, OriginIdx+Horizon).
type Split struct {
	Index     int       `json:"index"`
	Origin    time.Time `json:"origin"`
	OriginIdx int       `json:"origin_idx"`
	Horizon   int       `json:"horizon"`
}

// ForecastPoint is one predicted sample with its uncertainty interval.
type ForecastPoint struct {
	TS    time.Time `json:"ts"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// Forecast holds the ordered predictions for one series. SplitIndex is the
// backtest split that produced it, or LatestForecast for the production
// forecast fitted on the full history. Immutable once created.
type Forecast struct {
	SeriesID   SeriesID        `json:"series_id"`
	SplitIndex int             `json:"split_index"`
	Model      string          `json:"model"`
	CreatedAt  time.Time       `json:"created_at"`
	Points     []ForecastPoint `json:"points"`
}

// LatestForecast marks a forecast fitted on the full history rather than a
// backtest train window.
const LatestForecast = -1

// BacktestResult records the outcome of one (series, split) evaluation.
// On failure Metrics is nil and Reason carries the condition; never mutated
// after creation.
type BacktestResult struct {
	SeriesID   SeriesID           `json:"series_id"`
	SplitIndex int                `json:"split_index"`
	Origin     time.Time          `json:"origin"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Matched    int                `json:"matched"`
	Reason     Condition          `json:"reason,omitempty"`
}

// OK reports whether the split evaluated successfully.
func (r BacktestResult) OK() bool { return r.Reason == "" }

// MetricSummary is an unweighted mean of MAE/RMSE/MAPE over some grouping.
type MetricSummary struct {
	MAE    float64 `json:"mae"`
	RMSE   float64 `json:"rmse"`
	MAPE   float64 `json:"mape"`
	Splits int     `json:"splits"`
}
