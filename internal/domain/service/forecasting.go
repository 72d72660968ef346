package service

import (
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
)

// Model is a fitted forecasting model. Predict returns exactly horizon future
// points with an uncertainty interval per point; a non-positive horizon yields
// an error wrapping models.ErrModelPredict.
type Model interface {
	Predict(horizon int) ([]models.ForecastPoint, error)
}

// Forecaster is the capability interface the backtest controller drives. Fit
// must return an error wrapping models.ErrModelFit on degenerate history
// (too short, all-constant, invalid values) instead of panicking; the caller
// treats that as a recoverable per-split failure.
type Forecaster interface {
	Name() string
	Fit(history []models.Point) (Model, error)
}

// AnomalyDetector decomposes a series and scores its residuals. A series too
// short for the configured seasonal period returns an error wrapping
// models.ErrSeasonalPeriodTooLong and yields no records.
type AnomalyDetector interface {
	Detect(series *models.Series) ([]models.AnomalyRecord, error)
}
