package models

import "errors"

// Condition names a recoverable per-series or per-split failure. None of these
// abort a batch run; they are recorded in results and the BatchReport.
type Condition string

const (
	CondInsufficientHistory   Condition = "insufficient_history"
	CondNoValidSplits         Condition = "no_valid_splits"
	CondModelFit              Condition = "model_fit_error"
	CondModelPredict          Condition = "model_predict_error"
	CondTimedOut              Condition = "timed_out"
	CondSeasonalPeriodTooLong Condition = "seasonal_period_too_long"
)

var (
	ErrInsufficientHistory   = errors.New("insufficient history")
	ErrNoValidSplits         = errors.New("no valid splits")
	ErrModelFit              = errors.New("model fit failed")
	ErrModelPredict          = errors.New("model predict failed")
	ErrTimedOut              = errors.New("series timed out")
	ErrSeasonalPeriodTooLong = errors.New("seasonal period too long for series")
)

// ConditionOf maps an error to its taxonomy condition, or "" when the error is
// not one of the recoverable conditions.
func ConditionOf(err error) Condition {
	switch {
	case errors.Is(err, ErrInsufficientHistory):
		return CondInsufficientHistory
	case errors.Is(err, ErrNoValidSplits):
		return CondNoValidSplits
	case errors.Is(err, ErrModelFit):
		return CondModelFit
	case errors.Is(err, ErrModelPredict):
		return CondModelPredict
	case errors.Is(err, ErrTimedOut):
		return CondTimedOut
	case errors.Is(err, ErrSeasonalPeriodTooLong):
		return CondSeasonalPeriodTooLong
	default:
		return ""
	}
}
