// Package anomaly flags outlying observations in a demand series by removing
// trend and seasonality first and scoring what remains.
package anomaly

import (
	"fmt"
	"math"

	"github.com/sartorproj/goarima/stats"
	"github.com/sartorproj/goarima/timeseries"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domsvc "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/service"
)

// Scoring methods.
const (
	MethodIForest = "iforest"
	MethodSigma   = "sigma"
)

// Config parameterizes the detector.
type Config struct {
	// Period is the seasonal period in days (7 = weekly).
	Period int
	// Method selects the residual scorer: iforest or sigma.
	Method string
	// SigmaK is the k-sigma flagging threshold for the sigma method, and the
	// minimum residual deviation for an iforest flag.
	SigmaK float64
	// Contamination is the expected outlier fraction for the iforest method.
	Contamination float64
	// Trees is the isolation forest size.
	Trees int
	// Seed fixes the isolation forest RNG so runs are reproducible.
	Seed int64
	// RobustIters is the number of robustness iterations of the decomposition.
	RobustIters int
}

// DefaultConfig mirrors weekly retail seasonality with a 5% expected outlier share.
func DefaultConfig() Config {
	return Config{
		Period:        7,
		Method:        MethodIForest,
		SigmaK:        3,
		Contamination: 0.05,
		Trees:         defaultTrees,
		Seed:          42,
		RobustIters:   2,
	}
}

// Detector decomposes a series into trend, seasonal and residual components
// and scores residuals for outlier status. Scoring operates on the residual
// distribution alone; trend and seasonality are what decomposition removed.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with the given config, falling back to
// defaults for zero fields.
func NewDetector(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}
	if cfg.Method == "" {
		cfg.Method = def.Method
	}
	if cfg.SigmaK <= 0 {
		cfg.SigmaK = def.SigmaK
	}
	if cfg.Contamination <= 0 {
		cfg.Contamination = def.Contamination
	}
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.RobustIters <= 0 {
		cfg.RobustIters = def.RobustIters
	}
	return &Detector{cfg: cfg}
}

// Detect returns one AnomalyRecord per observation. A series shorter than two
// seasonal periods cannot be decomposed and returns
// models.ErrSeasonalPeriodTooLong.
func (d *Detector) Detect(s *models.Series) ([]models.AnomalyRecord, error) {
	if s.Len() < 2*d.cfg.Period {
		return nil, fmt.Errorf("series %s has %d points, period %d needs %d: %w",
			s.ID, s.Len(), d.cfg.Period, 2*d.cfg.Period, models.ErrSeasonalPeriodTooLong)
	}

	ts, err := timeseries.NewWithTimestamps(s.Timestamps(), s.Values())
	if err != nil {
		return nil, fmt.Errorf("build series %s: %w", s.ID, err)
	}
	dec := stats.STL(ts, d.cfg.Period, d.cfg.RobustIters)
	if dec == nil {
		return nil, fmt.Errorf("decompose series %s: %w", s.ID, models.ErrSeasonalPeriodTooLong)
	}
	residuals := dec.Residual.Values

	var scores []float64
	var threshold float64
	var minDev float64
	switch d.cfg.Method {
	case MethodSigma:
		scores, threshold = d.sigmaScores(residuals)
	default:
		forest := fitIsolationForest(residuals, d.cfg.Trees, d.cfg.Seed)
		scores = make([]float64, len(residuals))
		for i, r := range residuals {
			scores[i] = forest.Score(r)
		}
		threshold = scoreQuantile(scores, d.cfg.Contamination)
		// contamination caps the flagged share, it is not a quota: a score
		// above the quantile only flags when the residual itself is extreme
		minDev = d.cfg.SigmaK * stddev(residuals)
	}

	records := make([]models.AnomalyRecord, len(residuals))
	for i, r := range residuals {
		rec := models.AnomalyRecord{
			SeriesID: s.ID,
			TS:       s.Points[i].TS,
			Value:    s.Points[i].Value,
			Residual: r,
			Score:    scores[i],
			Flagged:  scores[i] > threshold && math.Abs(r) >= minDev,
		}
		if rec.Flagged {
			rec.Kind = models.AnomalySpike
			if r < 0 {
				rec.Kind = models.AnomalyDrop
			}
		}
		records[i] = rec
	}
	return records, nil
}

// sigmaScores returns |residual|/stddev as the score and k as the threshold,
// so flagging reduces to the classic residual-magnitude rule.
func (d *Detector) sigmaScores(residuals []float64) ([]float64, float64) {
	std := stddev(residuals)
	scores := make([]float64, len(residuals))
	if std == 0 {
		return scores, d.cfg.SigmaK
	}
	for i, r := range residuals {
		scores[i] = math.Abs(r) / std
	}
	return scores, d.cfg.SigmaK
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

var _ domsvc.AnomalyDetector = (*Detector)(nil)
