package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
)

func sampleResult(id models.SeriesID) *models.SeriesResult {
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.SeriesResult{
		SeriesID: id,
		Forecast: &models.Forecast{
			SeriesID:   id,
			SplitIndex: models.LatestForecast,
			Model:      "sarima",
			CreatedAt:  ts,
			Points:     []models.ForecastPoint{{TS: ts, Value: 1.5, Lower: 1, Upper: 2}},
		},
		Backtests: []models.BacktestResult{
			{SeriesID: id, SplitIndex: 0, Origin: ts, Matched: 5,
				Metrics: map[string]float64{models.MetricMAE: 2, models.MetricRMSE: 3, models.MetricMAPE: 0.1}},
			{SeriesID: id, SplitIndex: 1, Origin: ts.AddDate(0, 0, 180), Reason: models.CondModelFit},
		},
		Anomalies: []models.AnomalyRecord{
			{SeriesID: id, TS: ts, Value: 100, Residual: 90, Score: 0.9, Flagged: true, Kind: models.AnomalySpike},
		},
		UpdatedAt: ts,
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryResultStore()

	res := sampleResult("1-1")
	require.NoError(t, s.Put(ctx, res))

	got, err := s.Get(ctx, "1-1")
	require.NoError(t, err)
	require.Equal(t, res, got)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryResultStore()
	_, err := s.Get(context.Background(), "9-9")
	require.True(t, errors.Is(err, domrepo.ErrNotFound))
}

func TestMemoryStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryResultStore()

	first := sampleResult("1-1")
	require.NoError(t, s.Put(ctx, first))

	second := sampleResult("1-1")
	second.Anomalies = nil
	require.NoError(t, s.Put(ctx, second))

	got, err := s.Get(ctx, "1-1")
	require.NoError(t, err)
	require.Empty(t, got.Anomalies)
}

func TestMemoryStoreKeysSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryResultStore()
	for _, id := range []models.SeriesID{"2-1", "1-10", "1-2"} {
		require.NoError(t, s.Put(ctx, sampleResult(id)))
	}

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.SeriesID{"1-10", "1-2", "2-1"}, keys)
}

func TestMemoryStoreConcurrentPuts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryResultStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := models.SeriesID(fmt.Sprintf("1-%d", i))
			_ = s.Put(ctx, sampleResult(id))
		}(i)
	}
	wg.Wait()

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 50)
}
