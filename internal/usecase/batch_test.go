package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
	domsvc "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/service"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/forecast"
	internalrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/repository"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordSeries(string)           {}
func (nopMetrics) RecordSplit(string)            {}
func (nopMetrics) RecordAnomalies(int)           {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}

// stubSource serves canned observations. gate, when set, blocks Fetch until
// closed so tests can hold a run open.
type stubSource struct {
	rows []models.Observation
	gate chan struct{}
}

func (s *stubSource) Fetch(ctx context.Context, keys []models.SeriesID) ([]models.Observation, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if len(keys) == 0 {
		return s.rows, nil
	}
	want := make(map[models.SeriesID]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	var out []models.Observation
	for _, r := range s.rows {
		if _, ok := want[models.SeriesKey{Store: r.Store, Item: r.Item}.ID()]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubSource) Labels(ctx context.Context) (map[models.SeriesID]string, error) {
	return nil, nil
}

func (s *stubSource) Close() error { return nil }

// stubForecaster repeats the last training value.
type stubForecaster struct{}

func (stubForecaster) Name() string { return "stub" }

func (stubForecaster) Fit(history []models.Point) (domsvc.Model, error) {
	return stubModel{last: history[len(history)-1]}, nil
}

type stubModel struct{ last models.Point }

func (m stubModel) Predict(horizon int) ([]models.ForecastPoint, error) {
	pts := make([]models.ForecastPoint, horizon)
	for i := range pts {
		pts[i] = models.ForecastPoint{TS: m.last.TS.AddDate(0, 0, i+1), Value: m.last.Value}
	}
	return pts, nil
}

// stubDetector flags the first point of every series and fails for failID.
type stubDetector struct {
	failID models.SeriesID
}

func (d stubDetector) Detect(s *models.Series) ([]models.AnomalyRecord, error) {
	if d.failID != "" && s.ID == d.failID {
		return nil, fmt.Errorf("series %s: %w", s.ID, models.ErrSeasonalPeriodTooLong)
	}
	records := make([]models.AnomalyRecord, s.Len())
	for i := range records {
		records[i] = models.AnomalyRecord{SeriesID: s.ID, TS: s.Points[i].TS, Value: s.Points[i].Value}
	}
	records[0].Flagged = true
	records[0].Kind = models.AnomalySpike
	records[0].Score = 0.9
	return records, nil
}

func obsRows(store, item, days int) []models.Observation {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]models.Observation, days)
	for i := range rows {
		rows[i] = models.Observation{
			Store: store,
			Item:  item,
			TS:    start.AddDate(0, 0, i),
			Value: float64(10 + i%7),
		}
	}
	return rows
}

func testRunner(t *testing.T, source domrepo.ObservationSource, store domrepo.ResultStore, det domsvc.AnomalyDetector, cfg BatchConfig) *BatchRunner {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	controller := forecast.NewController(stubForecaster{}, nopMetrics{}, l)
	return NewBatchRunner(source, store, nil, controller, det, nopMetrics{}, l, cfg)
}

func defaultCfg() BatchConfig {
	return BatchConfig{
		Partition: forecast.PartitionConfig{Fill: models.FillZero, MinObservations: 5},
		Splits:    forecast.SplitConfig{InitialTrain: 10, Horizon: 5, Step: 5},
		FutureHorizon: 7,
		Workers:       4,
	}
}

func TestRunBatchIsolation(t *testing.T) {
	var rows []models.Observation
	for item := 1; item <= 8; item++ {
		rows = append(rows, obsRows(1, item, 25)...)
	}
	rows = append(rows, obsRows(2, 1, 8)...) // partitioned but too short for splits
	rows = append(rows, obsRows(2, 2, 3)...) // excluded by the partitioner

	store := internalrepo.NewMemoryResultStore()
	r := testRunner(t, &stubSource{rows: rows}, store, stubDetector{}, defaultCfg())

	report, err := r.RunBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, report.Series, 10)

	// outcomes sorted by series ID
	for i := 1; i < len(report.Series); i++ {
		require.Less(t, report.Series[i-1].SeriesID, report.Series[i].SeriesID)
	}

	byID := make(map[models.SeriesID]models.SeriesOutcome)
	for _, o := range report.Series {
		byID[o.SeriesID] = o
	}

	for item := 1; item <= 8; item++ {
		o := byID[models.SeriesID(fmt.Sprintf("1-%d", item))]
		require.Equal(t, models.StatusSucceeded, o.Status)
		require.Equal(t, 3, o.Splits)
		require.Zero(t, o.FailedSplits)
		require.Equal(t, 1, o.Anomalies)
		require.NotNil(t, o.Summary)
	}
	require.Equal(t, models.StatusFailed, byID["2-1"].Status)
	require.Equal(t, models.CondNoValidSplits, byID["2-1"].Reason)
	require.Equal(t, models.StatusFailed, byID["2-2"].Status)
	require.Equal(t, models.CondInsufficientHistory, byID["2-2"].Reason)

	require.NotNil(t, report.Global)
	require.Equal(t, 24, report.Global.Splits)

	// only processed series are stored
	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 8)

	res, err := r.GetSeriesResult(context.Background(), "1-1")
	require.NoError(t, err)
	require.Len(t, res.Backtests, 3)
	require.NotNil(t, res.Forecast)
	require.Len(t, res.Forecast.Points, 7)
	require.Equal(t, models.LatestForecast, res.Forecast.SplitIndex)
}

func TestRunBatchDetectorFailureIsPartial(t *testing.T) {
	rows := append(obsRows(1, 1, 25), obsRows(1, 2, 25)...)
	store := internalrepo.NewMemoryResultStore()
	r := testRunner(t, &stubSource{rows: rows}, store, stubDetector{failID: "1-2"}, defaultCfg())

	report, err := r.RunBatch(context.Background(), nil)
	require.NoError(t, err)

	byID := make(map[models.SeriesID]models.SeriesOutcome)
	for _, o := range report.Series {
		byID[o.SeriesID] = o
	}
	require.Equal(t, models.StatusSucceeded, byID["1-1"].Status)
	require.Equal(t, models.StatusPartial, byID["1-2"].Status)
	require.Equal(t, models.CondSeasonalPeriodTooLong, byID["1-2"].Reason)

	// backtests still stored despite the detection failure
	res, err := r.GetSeriesResult(context.Background(), "1-2")
	require.NoError(t, err)
	require.Len(t, res.Backtests, 3)
	require.Empty(t, res.Anomalies)
}

func TestRunBatchIdempotent(t *testing.T) {
	rows := append(obsRows(1, 1, 25), obsRows(1, 2, 30)...)
	store := internalrepo.NewMemoryResultStore()
	r := testRunner(t, &stubSource{rows: rows}, store, stubDetector{}, defaultCfg())

	first, err := r.RunBatch(context.Background(), nil)
	require.NoError(t, err)
	second, err := r.RunBatch(context.Background(), nil)
	require.NoError(t, err)

	require.NotEqual(t, first.RunID, second.RunID)
	require.Equal(t, first.Series, second.Series)
	require.Equal(t, first.Global, second.Global)
}

func TestRunBatchKeysFilter(t *testing.T) {
	rows := append(obsRows(1, 1, 25), obsRows(1, 2, 25)...)
	store := internalrepo.NewMemoryResultStore()
	r := testRunner(t, &stubSource{rows: rows}, store, stubDetector{}, defaultCfg())

	report, err := r.RunBatch(context.Background(), []models.SeriesID{"1-2"})
	require.NoError(t, err)
	require.Len(t, report.Series, 1)
	require.Equal(t, models.SeriesID("1-2"), report.Series[0].SeriesID)
}

func TestRunBatchConflict(t *testing.T) {
	gate := make(chan struct{})
	source := &stubSource{rows: obsRows(1, 1, 25), gate: gate}
	store := internalrepo.NewMemoryResultStore()
	r := testRunner(t, source, store, stubDetector{}, defaultCfg())

	done := make(chan error, 1)
	go func() {
		_, err := r.RunBatch(context.Background(), nil)
		done <- err
	}()

	require.Eventually(t, r.Running, time.Second, time.Millisecond)
	_, err := r.RunBatch(context.Background(), nil)
	require.True(t, errors.Is(err, ErrRunInProgress))

	close(gate)
	require.NoError(t, <-done)
	require.False(t, r.Running())
}

func TestRunBatchSeriesTimeout(t *testing.T) {
	cfg := defaultCfg()
	cfg.SeriesTimeout = time.Nanosecond

	store := internalrepo.NewMemoryResultStore()
	r := testRunner(t, &stubSource{rows: obsRows(1, 1, 25)}, store, stubDetector{}, cfg)

	report, err := r.RunBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, report.Series, 1)

	o := report.Series[0]
	require.Equal(t, models.StatusFailed, o.Status)
	require.Equal(t, models.CondTimedOut, o.Reason)
	require.Equal(t, o.Splits, o.FailedSplits)

	// the timed-out splits are still recorded
	res, err := r.GetSeriesResult(context.Background(), "1-1")
	require.NoError(t, err)
	for _, b := range res.Backtests {
		require.Equal(t, models.CondTimedOut, b.Reason)
	}
}

func TestGetSeriesResultMissing(t *testing.T) {
	store := internalrepo.NewMemoryResultStore()
	r := testRunner(t, &stubSource{}, store, stubDetector{}, defaultCfg())

	_, err := r.GetSeriesResult(context.Background(), "9-9")
	require.True(t, errors.Is(err, domrepo.ErrNotFound))
}

func TestLastReport(t *testing.T) {
	store := internalrepo.NewMemoryResultStore()
	r := testRunner(t, &stubSource{rows: obsRows(1, 1, 25)}, store, stubDetector{}, defaultCfg())

	_, err := r.LastReport()
	require.True(t, errors.Is(err, ErrNoReport))

	report, err := r.RunBatch(context.Background(), nil)
	require.NoError(t, err)

	last, err := r.LastReport()
	require.NoError(t, err)
	require.Equal(t, report.RunID, last.RunID)
}
