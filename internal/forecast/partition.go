package forecast

import (
	"sort"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/util"
)

// PartitionConfig controls how the combined table is split into series.
type PartitionConfig struct {
	Fill models.FillPolicy
	// MinObservations is the minimum number of distinct days a series needs
	// before gap filling; shorter series are excluded as insufficient history.
	MinObservations int
}

// Excluded reports a series dropped by the partitioner and the condition why.
type Excluded struct {
	SeriesID models.SeriesID
	Reason   models.Condition
}

// Partition groups raw observations by key and produces one clean series per
// key: sorted, duplicates collapsed by summing (daily aggregation), calendar
// gaps filled per the configured policy. Series with too little history are
// reported, not fatal. The returned slice is ordered by series ID so callers
// iterate deterministically.
func Partition(rows []models.Observation, labels map[models.SeriesID]string, cfg PartitionConfig) ([]*models.Series, []Excluded) {
	if cfg.Fill != models.FillForward {
		cfg.Fill = models.FillZero
	}

	grouped := make(map[models.SeriesKey][]models.Point)
	for _, r := range rows {
		key := models.SeriesKey{Store: r.Store, Item: r.Item}
		grouped[key] = append(grouped[key], models.Point{TS: util.Midnight(r.TS), Value: r.Value})
	}

	keys := make([]models.SeriesKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Store != keys[j].Store {
			return keys[i].Store < keys[j].Store
		}
		return keys[i].Item < keys[j].Item
	})

	series := make([]*models.Series, 0, len(keys))
	var excluded []Excluded
	for _, key := range keys {
		pts := normalize(grouped[key])
		if len(pts) < cfg.MinObservations {
			excluded = append(excluded, Excluded{SeriesID: key.ID(), Reason: models.CondInsufficientHistory})
			continue
		}
		series = append(series, &models.Series{
			ID:     key.ID(),
			Key:    key,
			Label:  labels[key.ID()],
			Fill:   cfg.Fill,
			Points: fillGaps(pts, cfg.Fill),
		})
	}
	return series, excluded
}

// normalize sorts points and collapses duplicate days by summing their values.
func normalize(pts []models.Point) []models.Point {
	sort.Slice(pts, func(i, j int) bool { return pts[i].TS.Before(pts[j].TS) })

	out := pts[:0]
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1].TS.Equal(p.TS) {
			out[n-1].Value += p.Value
			continue
		}
		out = append(out, p)
	}
	return out
}

// fillGaps reindexes the points onto a full daily calendar between the first
// and last observation, filling missing days by the chosen policy.
func fillGaps(pts []models.Point, fill models.FillPolicy) []models.Point {
	if len(pts) == 0 {
		return pts
	}
	out := make([]models.Point, 0, len(pts))
	i := 0
	for ts := pts[0].TS; !ts.After(pts[len(pts)-1].TS); ts = ts.AddDate(0, 0, 1) {
		if i < len(pts) && pts[i].TS.Equal(ts) {
			out = append(out, pts[i])
			i++
			continue
		}
		v := 0.0
		if fill == models.FillForward && len(out) > 0 {
			v = out[len(out)-1].Value
		}
		out = append(out, models.Point{TS: ts, Value: v})
	}
	return out
}
