package config

import (
	"fmt"
)

// PlannerConfig holds the planner threshold plus the feedback loop's
// learning parameters and history window bounds.
type PlannerConfig struct {
	MinScore              float64 `mapstructure:"min_score"`
	LearningRate          float64 `mapstructure:"learning_rate"`
	TargetRate            float64 `mapstructure:"target_rate"`
	MinWeight             float64 `mapstructure:"min_weight"`
	MaxWeight             float64 `mapstructure:"max_weight"`
	HistoryWindowDays     int     `mapstructure:"history_window_days"`
	HistoryWindowAttempts int     `mapstructure:"history_window_attempts"`
}

func (config PlannerConfig) validate() error {
	var errs []error

	if config.MinScore < 0 || config.MinScore > 1 {
		errs = append(errs, fmt.Errorf("min_score must be in [0, 1]"))
	}
	if config.MinWeight <= 0 || config.MaxWeight < config.MinWeight {
		errs = append(errs, fmt.Errorf("weights must satisfy 0 < min_weight <= max_weight"))
	}
	if config.LearningRate <= 0 || config.LearningRate > 1 {
		errs = append(errs, fmt.Errorf("learning_rate must be in (0, 1]"))
	}
	if config.TargetRate < 0 || config.TargetRate > 1 {
		errs = append(errs, fmt.Errorf("target_rate must be in [0, 1]"))
	}
	if config.HistoryWindowDays <= 0 || config.HistoryWindowAttempts <= 0 {
		errs = append(errs, fmt.Errorf("history window bounds must be positive"))
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
