package forecasting

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
)

func history(n int, f func(i int) float64) []models.Point {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.Point, n)
	for i := range pts {
		pts[i] = models.Point{TS: start.AddDate(0, 0, i), Value: f(i)}
	}
	return pts
}

func TestSeasonalNaiveRepeatsLastSeason(t *testing.T) {
	h := history(28, func(i int) float64 { return float64(10 + i%7) })

	f := NewSeasonalNaiveForecaster(7)
	m, err := f.Fit(h)
	require.NoError(t, err)

	out, err := m.Predict(14)
	require.NoError(t, err)
	require.Len(t, out, 14)

	for i, p := range out {
		// perfectly periodic history forecasts itself
		require.InDelta(t, float64(10+(28+i)%7), p.Value, 1e-12)
		require.Equal(t, h[27].TS.AddDate(0, 0, i+1), p.TS)
		// zero seasonal variance collapses the interval
		require.InDelta(t, p.Value, p.Lower, 1e-12)
		require.InDelta(t, p.Value, p.Upper, 1e-12)
	}
}

func TestSeasonalNaiveIntervalWidens(t *testing.T) {
	// noisy seasonal differences give a nonzero sigma
	h := history(28, func(i int) float64 { return float64(10+i%7) + float64(i)*0.5 })

	f := NewSeasonalNaiveForecaster(7)
	m, err := f.Fit(h)
	require.NoError(t, err)

	out, err := m.Predict(14)
	require.NoError(t, err)

	firstWidth := out[0].Upper - out[0].Lower
	secondSeason := out[7].Upper - out[7].Lower
	require.Greater(t, firstWidth, 0.0)
	require.Greater(t, secondSeason, firstWidth)
}

func TestSeasonalNaiveFitTooShort(t *testing.T) {
	f := NewSeasonalNaiveForecaster(7)
	_, err := f.Fit(history(5, func(int) float64 { return 1 }))
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrModelFit))
}

func TestSeasonalNaiveFitNonFinite(t *testing.T) {
	h := history(14, func(int) float64 { return 1 })
	h[5].Value = math.NaN()

	f := NewSeasonalNaiveForecaster(7)
	_, err := f.Fit(h)
	require.True(t, errors.Is(err, models.ErrModelFit))
}

func TestSeasonalNaivePredictBadHorizon(t *testing.T) {
	f := NewSeasonalNaiveForecaster(7)
	m, err := f.Fit(history(14, func(i int) float64 { return float64(i) }))
	require.NoError(t, err)

	_, err = m.Predict(0)
	require.True(t, errors.Is(err, models.ErrModelPredict))
}
