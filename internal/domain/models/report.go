package models

import "time"

// Series outcome statuses in a BatchReport.
const (
	StatusSucceeded = "succeeded"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// SeriesOutcome summarizes one series' run for the BatchReport.
type SeriesOutcome struct {
	SeriesID     SeriesID       `json:"series_id"`
	Status       string         `json:"status"`
	Reason       Condition      `json:"reason,omitempty"`
	Splits       int            `json:"splits"`
	FailedSplits int            `json:"failed_splits"`
	Anomalies    int            `json:"anomalies"`
	Summary      *MetricSummary `json:"summary,omitempty"`
}

// BatchReport enumerates every series with its outcome so partial batch
// success is always observable.
type BatchReport struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Series     []SeriesOutcome `json:"series"`
	Global     *MetricSummary  `json:"global,omitempty"`
}

// Succeeded counts series with status succeeded.
func (r *BatchReport) Succeeded() int {
	n := 0
	for _, s := range r.Series {
		if s.Status == StatusSucceeded {
			n++
		}
	}
	return n
}

// SeriesResult is the result-store entry for one series: the latest forecast,
// the full ordered backtest results, and the full ordered anomaly records.
// Overwritten wholesale on recomputation, never partially updated.
type SeriesResult struct {
	SeriesID  SeriesID         `json:"series_id"`
	Forecast  *Forecast        `json:"forecast,omitempty"`
	Backtests []BacktestResult `json:"backtests"`
	Anomalies []AnomalyRecord  `json:"anomalies"`
	UpdatedAt time.Time        `json:"updated_at"`
}
