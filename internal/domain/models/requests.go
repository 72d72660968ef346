package models

// RunBatchRequest triggers a batch run over the given series keys, or over
// every series in the source when Keys is empty.
type RunBatchRequest struct {
	Keys []SeriesID `json:"keys"`
}

// AnomalyQueryRequest selects the top flagged anomalies of one series.
type AnomalyQueryRequest struct {
	Top int `query:"top" default:"10" validate:"gte=1,lte=1000"`
}
