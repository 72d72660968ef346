package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
)

const sampleCSV = `date,store,item,sales
2013-01-01,1,1,13
2013-01-02,1,1,11
2013-01-01,2,1,12
2013-01-01,1,2,10
`

func TestReadObservations(t *testing.T) {
	rows, err := readObservations(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	require.Equal(t, 1, rows[0].Store)
	require.Equal(t, 1, rows[0].Item)
	require.Equal(t, time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC), rows[0].TS)
	require.InDelta(t, 13.0, rows[0].Value, 1e-12)
}

func TestReadObservationsColumnOrderIndependent(t *testing.T) {
	csv := "sales,item,Store,Date\n5,3,2,2013-06-15\n"
	rows, err := readObservations(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 2, rows[0].Store)
	require.Equal(t, 3, rows[0].Item)
	require.InDelta(t, 5.0, rows[0].Value, 1e-12)
}

func TestReadObservationsMissingColumn(t *testing.T) {
	csv := "date,store,sales\n2013-01-01,1,5\n"
	_, err := readObservations(strings.NewReader(csv))
	require.Error(t, err)
	require.Contains(t, err.Error(), `"item"`)
}

func TestReadObservationsBadRow(t *testing.T) {
	csv := "date,store,item,sales\n2013-01-01,one,1,5\n"
	_, err := readObservations(strings.NewReader(csv))
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
}

func TestCSVSourceFetchFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	src := NewCSVSource(path)
	rows, err := src.Fetch(context.Background(), []models.SeriesID{"1-1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		require.Equal(t, 1, r.Store)
		require.Equal(t, 1, r.Item)
	}
}

func TestCSVSourceLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	src := NewCSVSource(path)
	labels, err := src.Labels(context.Background())
	require.NoError(t, err)
	require.Len(t, labels, 3)
	require.Equal(t, "Store 1 / Item 1", labels["1-1"])
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"))
	_, err := src.Fetch(context.Background(), nil)
	require.Error(t, err)
}
