package forecast

import (
	"fmt"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
)

// SplitConfig parameterizes rolling-origin split generation.
type SplitConfig struct {
	// InitialTrain is the minimum training size before the first origin.
	InitialTrain int
	// Horizon is the fixed test window length.
	Horizon int
	// Step is the distance between successive origins. Must be >= Horizon so
	// test windows never overlap.
	Step int
}

// Validate rejects configurations that cannot produce well-formed splits.
func (c SplitConfig) Validate() error {
	if c.InitialTrain <= 0 {
		return fmt.Errorf("initial train size must be positive, got %d", c.InitialTrain)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", c.Horizon)
	}
	if c.Step < c.Horizon {
		return fmt.Errorf("step %d is shorter than horizon %d: test windows would overlap", c.Step, c.Horizon)
	}
	return nil
}

// GenerateSplits produces strictly increasing origins at InitialTrain,
// InitialTrain+Step, ... while the whole test window still fits inside the
// history. A series too short for even one split returns
// models.ErrNoValidSplits and zero splits.
func GenerateSplits(s *models.Series, cfg SplitConfig) ([]models.Split, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := s.Len()

	var splits []models.Split
	for origin := cfg.InitialTrain; origin+cfg.Horizon <= n; origin += cfg.Step {
		splits = append(splits, models.Split{
			Index:     len(splits),
			Origin:    s.Points[origin].TS,
			OriginIdx: origin,
			Horizon:   cfg.Horizon,
		})
	}
	if len(splits) == 0 {
		return nil, fmt.Errorf("series %s has %d points, needs %d: %w",
			s.ID, n, cfg.InitialTrain+cfg.Horizon, models.ErrNoValidSplits)
	}
	return splits, nil
}
