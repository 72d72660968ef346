package models

import (
	"fmt"
	"time"
)

// SeriesID uniquely identifies one product-store time series.
type SeriesID string

// SeriesKey is the composite key carried by raw observation rows.
type SeriesKey struct {
	Store int `json:"store"`
	Item  int `json:"item"`
}

// ID renders the key in the canonical "store-item" form used across the store and API.
func (k SeriesKey) ID() SeriesID {
	return SeriesID(fmt.Sprintf("%d-%d", k.Store, k.Item))
}

// ParseSeriesID parses the canonical "store-item" form back into a key.
func ParseSeriesID(id SeriesID) (SeriesKey, error) {
	var k SeriesKey
	if _, err := fmt.Sscanf(string(id), "%d-%d", &k.Store, &k.Item); err != nil {
		return SeriesKey{}, fmt.Errorf("malformed series id %q: %w", id, err)
	}
	return k, nil
}

// FillPolicy names the gap-filling strategy applied by the partitioner.
type FillPolicy string

const (
	FillZero    FillPolicy = "zero"
	FillForward FillPolicy = "forward"
)

// Observation is one raw row of the combined demand table.
type Observation struct {
	Store int       `json:"store"`
	Item  int       `json:"item"`
	TS    time.Time `json:"ts"`
	Value float64   `json:"value"`
}

// Point is a single (timestamp, value) sample of a partitioned series.
type Point struct {
	TS    time.Time `json:"ts"`
	Value float64   `json:"value"`
}

// Series is an ordered daily sequence of points for one key. After partitioning
// timestamps are strictly increasing, deduplicated, and gap-free; downstream
// components treat it as read-only.
type Series struct {
	ID     SeriesID   `json:"id"`
	Key    SeriesKey  `json:"key"`
	Label  string     `json:"label,omitempty"`
	Fill   FillPolicy `json:"fill"`
	Points []Point    `json:"points"`
}

// Len returns the number of points.
func (s *Series) Len() int { return len(s.Points) }

// Values returns the value column.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Timestamps returns the timestamp column.
func (s *Series) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.TS
	}
	return out
}

// Slice returns points in [start, end) without copying the backing array.
func (s *Series) Slice(start, end int) []Point {
	if start < 0 {
		start = 0
	}
	if end > len(s.Points) {
		end = len(s.Points)
	}
	if start >= end {
		return nil
	}
	return s.Points[start:end]
}
