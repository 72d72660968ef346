package models

import "time"

// Anomaly kinds, classified by residual sign.
const (
	AnomalySpike = "spike"
	AnomalyDrop  = "drop"
)

// AnomalyRecord scores one observation of a series against the residual
// distribution after seasonal decomposition.
type AnomalyRecord struct {
	SeriesID SeriesID  `json:"series_id"`
	TS       time.Time `json:"ts"`
	Value    float64   `json:"value"`
	Residual float64   `json:"residual"`
	Score    float64   `json:"score"`
	Flagged  bool      `json:"flagged"`
	Kind     string    `json:"kind,omitempty"`
}
