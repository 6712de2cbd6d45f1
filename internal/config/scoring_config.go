package config

import (
	"fmt"
	"github.com/spf13/viper"
	"time"
)

type ScoringConfig struct {
	AIKey                  string  `mapstructure:"ai_key"`
	TimeoutSeconds         int     `mapstructure:"timeout_seconds"`
	AiMaxRequestsPerMinute float32 `mapstructure:"ai_max_requests_per_minute"`
	AiMaxRequestsPerDay    float32 `mapstructure:"ai_max_requests_per_day"`
}

func (config ScoringConfig) Timeout() time.Duration {
	return time.Duration(config.TimeoutSeconds) * time.Second
}

func (config ScoringConfig) validate() error {

	if config.AIKey == "" {
		return fmt.Errorf("missing required variable: ai_key")
	}
	if config.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}

	return nil
}

func (config ScoringConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("scoring.ai_key", "AI_KEY")
}
