package repository

import (
	"context"
	"errors"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
)

// ErrNotFound is returned by ResultStore.Get for an unknown series.
var ErrNotFound = errors.New("series result not found")

// ObservationSource supplies the combined demand table and key labels.
type ObservationSource interface {
	// Fetch returns observations for the given keys, or the whole table when
	// keys is empty. Rows need not be sorted or gap-free.
	Fetch(ctx context.Context, keys []models.SeriesID) ([]models.Observation, error)
	Labels(ctx context.Context) (map[models.SeriesID]string, error)
	Close() error
}

// ResultStore is the keyed cache of per-series pipeline output. Put replaces
// the entry wholesale; concurrent Put calls for distinct keys must be safe.
type ResultStore interface {
	Put(ctx context.Context, res *models.SeriesResult) error
	Get(ctx context.Context, id models.SeriesID) (*models.SeriesResult, error)
	Keys(ctx context.Context) ([]models.SeriesID, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher emits batch lifecycle events to downstream consumers.
type EventPublisher interface {
	PublishReport(ctx context.Context, report *models.BatchReport) error
	PublishAnomalies(ctx context.Context, id models.SeriesID, records []models.AnomalyRecord) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordSeries(status string)
	RecordSplit(outcome string)
	RecordAnomalies(n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
