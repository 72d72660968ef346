package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
)

func obs(store, item, dayIdx int, v float64) models.Observation {
	return models.Observation{
		Store: store,
		Item:  item,
		TS:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, dayIdx),
		Value: v,
	}
}

func TestPartitionGroupsAndSorts(t *testing.T) {
	rows := []models.Observation{
		obs(2, 1, 1, 5),
		obs(1, 2, 0, 3),
		obs(1, 1, 0, 1),
		obs(1, 1, 1, 2),
	}

	series, excluded := Partition(rows, nil, PartitionConfig{MinObservations: 1})
	require.Empty(t, excluded)
	require.Len(t, series, 3)
	require.Equal(t, models.SeriesID("1-1"), series[0].ID)
	require.Equal(t, models.SeriesID("1-2"), series[1].ID)
	require.Equal(t, models.SeriesID("2-1"), series[2].ID)
}

func TestPartitionSumsDuplicateDays(t *testing.T) {
	rows := []models.Observation{
		obs(1, 1, 0, 3),
		obs(1, 1, 0, 4),
		obs(1, 1, 1, 1),
	}

	series, _ := Partition(rows, nil, PartitionConfig{MinObservations: 1})
	require.Len(t, series, 1)
	require.Len(t, series[0].Points, 2)
	require.InDelta(t, 7.0, series[0].Points[0].Value, 1e-12)
	require.InDelta(t, 1.0, series[0].Points[1].Value, 1e-12)
}

func TestPartitionFillsGapsZero(t *testing.T) {
	rows := []models.Observation{
		obs(1, 1, 0, 5),
		obs(1, 1, 3, 8),
	}

	series, _ := Partition(rows, nil, PartitionConfig{Fill: models.FillZero, MinObservations: 1})
	require.Len(t, series, 1)
	pts := series[0].Points
	require.Len(t, pts, 4)
	require.InDelta(t, 5.0, pts[0].Value, 1e-12)
	require.Zero(t, pts[1].Value)
	require.Zero(t, pts[2].Value)
	require.InDelta(t, 8.0, pts[3].Value, 1e-12)

	// calendar is strictly daily
	for i := 1; i < len(pts); i++ {
		require.Equal(t, pts[i-1].TS.AddDate(0, 0, 1), pts[i].TS)
	}
}

func TestPartitionFillsGapsForward(t *testing.T) {
	rows := []models.Observation{
		obs(1, 1, 0, 5),
		obs(1, 1, 2, 8),
	}

	series, _ := Partition(rows, nil, PartitionConfig{Fill: models.FillForward, MinObservations: 1})
	pts := series[0].Points
	require.Len(t, pts, 3)
	require.InDelta(t, 5.0, pts[1].Value, 1e-12)
}

func TestPartitionExcludesShortSeries(t *testing.T) {
	rows := []models.Observation{
		obs(1, 1, 0, 5),
		obs(1, 1, 1, 6),
		obs(2, 2, 0, 1),
	}

	series, excluded := Partition(rows, nil, PartitionConfig{MinObservations: 2})
	require.Len(t, series, 1)
	require.Equal(t, models.SeriesID("1-1"), series[0].ID)
	require.Len(t, excluded, 1)
	require.Equal(t, models.SeriesID("2-2"), excluded[0].SeriesID)
	require.Equal(t, models.CondInsufficientHistory, excluded[0].Reason)
}

func TestPartitionLabels(t *testing.T) {
	rows := []models.Observation{obs(1, 1, 0, 5)}
	labels := map[models.SeriesID]string{"1-1": "store 1 / item 1"}

	series, _ := Partition(rows, labels, PartitionConfig{MinObservations: 1})
	require.Equal(t, "store 1 / item 1", series[0].Label)
}

func TestPartitionTruncatesIntraday(t *testing.T) {
	rows := []models.Observation{
		{Store: 1, Item: 1, TS: time.Date(2020, 1, 1, 9, 30, 0, 0, time.UTC), Value: 2},
		{Store: 1, Item: 1, TS: time.Date(2020, 1, 1, 18, 0, 0, 0, time.UTC), Value: 3},
	}

	series, _ := Partition(rows, nil, PartitionConfig{MinObservations: 1})
	require.Len(t, series[0].Points, 1)
	require.InDelta(t, 5.0, series[0].Points[0].Value, 1e-12)
	require.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), series[0].Points[0].TS)
}
