package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
)

func TestResultCodecRoundTrip(t *testing.T) {
	res := sampleResult("3-17")

	data, err := marshalResult(res)
	require.NoError(t, err)

	got, err := unmarshalResult(data)
	require.NoError(t, err)
	require.Equal(t, res, got)
}

func TestResultCodecPreservesTimestamps(t *testing.T) {
	res := sampleResult("1-1")
	res.UpdatedAt = time.Date(2026, 8, 29, 12, 34, 56, 789000000, time.UTC)

	data, err := marshalResult(res)
	require.NoError(t, err)
	got, err := unmarshalResult(data)
	require.NoError(t, err)
	require.True(t, got.UpdatedAt.Equal(res.UpdatedAt))
}

func TestResultCodecNilForecast(t *testing.T) {
	res := sampleResult("1-1")
	res.Forecast = nil

	data, err := marshalResult(res)
	require.NoError(t, err)
	got, err := unmarshalResult(data)
	require.NoError(t, err)
	require.Nil(t, got.Forecast)
}

func TestResultCodecRejectsGarbage(t *testing.T) {
	_, err := unmarshalResult([]byte("{not json"))
	require.Error(t, err)
}

func TestRedisKeyLayout(t *testing.T) {
	s := &RedisResultStore{prefix: "demand"}
	require.Equal(t, "demand:result:1-1", s.resultKey(models.SeriesID("1-1")))
	require.Equal(t, "demand:series", s.indexKey())
}
